// Package collection models the named groups users file resources into.
package collection

import (
	"errors"
	"strings"
	"time"
)

// ErrNameRequired is returned when a collection has no name.
var ErrNameRequired = errors.New("collection name is required")

// Collection is a user-curated group of resources. Values are immutable.
type Collection struct {
	id            string
	userID        string
	name          string
	description   string
	public        bool
	resourceCount int
	createdAt     time.Time
	updatedAt     time.Time
}

// New creates a Collection with trimmed text fields.
func New(id, userID, name, description string, public bool) Collection {
	now := time.Now().UTC()
	return Collection{
		id:          id,
		userID:      userID,
		name:        strings.TrimSpace(name),
		description: strings.TrimSpace(description),
		public:      public,
		createdAt:   now,
		updatedAt:   now,
	}
}

// Reconstruct rebuilds a Collection from persisted fields.
func Reconstruct(id, userID, name, description string, public bool, resourceCount int, createdAt, updatedAt time.Time) Collection {
	return Collection{
		id:            id,
		userID:        userID,
		name:          name,
		description:   description,
		public:        public,
		resourceCount: resourceCount,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the collection UUID.
func (c Collection) ID() string { return c.id }

// UserID returns the owning user.
func (c Collection) UserID() string { return c.userID }

// Name returns the name.
func (c Collection) Name() string { return c.name }

// Description returns the description.
func (c Collection) Description() string { return c.description }

// Public reports whether the collection is shared.
func (c Collection) Public() bool { return c.public }

// ResourceCount returns how many resources the collection holds, as of load.
func (c Collection) ResourceCount() int { return c.resourceCount }

// CreatedAt returns the creation time.
func (c Collection) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last update time.
func (c Collection) UpdatedAt() time.Time { return c.updatedAt }

// Validate checks required fields.
func (c Collection) Validate() error {
	if c.name == "" {
		return ErrNameRequired
	}
	return nil
}

// Edit holds the editable fields of a collection. Nil fields are unchanged.
type Edit struct {
	Name        *string
	Description *string
	Public      *bool
}

// WithEdit returns a copy with edit applied.
func (c Collection) WithEdit(edit Edit) Collection {
	if edit.Name != nil {
		c.name = strings.TrimSpace(*edit.Name)
	}
	if edit.Description != nil {
		c.description = strings.TrimSpace(*edit.Description)
	}
	if edit.Public != nil {
		c.public = *edit.Public
	}
	c.updatedAt = time.Now().UTC()
	return c
}
