package persistence

import (
	"time"

	"github.com/techvault/skoop/internal/database"
)

// ResourceModel is the row for a saved resource. A NULL embedding marks a
// resource that still needs one.
type ResourceModel struct {
	ID             string          `gorm:"primaryKey;size:36"`
	UserID         string          `gorm:"index;size:255;not null"`
	Title          string          `gorm:"not null"`
	Description    string
	URL            string
	Type           string          `gorm:"size:32;not null;default:other"`
	Summary        string
	Embedding      database.Vector `gorm:"type:text"`
	EmbeddingModel string          `gorm:"index;size:255"`
	Tags           []TagModel      `gorm:"many2many:resource_tags;joinForeignKey:ResourceID;joinReferences:TagID"`
	CreatedAt      time.Time       `gorm:"index"`
	UpdatedAt      time.Time
}

// TableName returns the table name.
func (ResourceModel) TableName() string { return "resources" }

// TagModel is a tag shared by every resource that carries it.
type TagModel struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex;size:255;not null"`
}

// TableName returns the table name.
func (TagModel) TableName() string { return "tags" }

// CollectionModel is the row for a user-curated collection.
type CollectionModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"index;size:255;not null"`
	Name        string `gorm:"not null"`
	Description string
	IsPublic    bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// TableName returns the table name.
func (CollectionModel) TableName() string { return "collections" }

// CollectionResourceModel links a resource into a collection.
type CollectionResourceModel struct {
	CollectionID string `gorm:"primaryKey;size:36"`
	ResourceID   string `gorm:"primaryKey;size:36;index"`
	CreatedAt    time.Time
}

// TableName returns the table name.
func (CollectionResourceModel) TableName() string { return "resource_collections" }
