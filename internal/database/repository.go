package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/techvault/skoop/domain/repository"
	"gorm.io/gorm"
)

// ErrNotFound is returned by FindOne when nothing matches.
var ErrNotFound = repository.ErrNotFound

// EntityMapper maps between domain values and database models.
type EntityMapper[D any, E any] interface {
	ToDomain(entity E) D
	ToModel(domain D) E
}

// Repository provides generic persistence operations driven by repository.Option queries.
type Repository[D any, E any] struct {
	db       Database
	mapper   EntityMapper[D, E]
	label    string
	preloads []string
}

// NewRepository creates a new Repository. Associations named in preloads are
// loaded on every read.
func NewRepository[D any, E any](db Database, mapper EntityMapper[D, E], label string, preloads ...string) Repository[D, E] {
	return Repository[D, E]{
		db:       db,
		mapper:   mapper,
		label:    label,
		preloads: preloads,
	}
}

func (r Repository[D, E]) readDB(ctx context.Context) *gorm.DB {
	db := r.db.Session(ctx).Model(new(E))
	for _, p := range r.preloads {
		db = db.Preload(p)
	}
	return db
}

// Find retrieves entities matching the given options.
func (r Repository[D, E]) Find(ctx context.Context, options ...repository.Option) ([]D, error) {
	var entities []E
	if err := ApplyOptions(r.readDB(ctx), options...).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", r.label, err)
	}

	domains := make([]D, len(entities))
	for i, entity := range entities {
		domains[i] = r.mapper.ToDomain(entity)
	}
	return domains, nil
}

// FindOne retrieves a single entity matching the given options.
func (r Repository[D, E]) FindOne(ctx context.Context, options ...repository.Option) (D, error) {
	var entity E
	var zero D
	err := ApplyOptions(r.readDB(ctx), options...).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, r.label)
	}
	if err != nil {
		return zero, fmt.Errorf("find one %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(entity), nil
}

// Count returns the number of entities matching the given options.
func (r Repository[D, E]) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	var count int64
	db := ApplyConditions(r.db.Session(ctx).Model(new(E)), options...)
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", r.label, err)
	}
	return count, nil
}

// DeleteBy removes entities matching the given options and returns how many were removed.
func (r Repository[D, E]) DeleteBy(ctx context.Context, options ...repository.Option) (int64, error) {
	result := ApplyConditions(r.db.Session(ctx), options...).Delete(new(E))
	if result.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", r.label, result.Error)
	}
	return result.RowsAffected, nil
}

// DB returns a GORM session bound to ctx.
func (r Repository[D, E]) DB(ctx context.Context) *gorm.DB {
	return r.db.Session(ctx)
}

// Database returns the connection the repository writes to.
func (r Repository[D, E]) Database() Database {
	return r.db
}

// Mapper returns the entity mapper.
func (r Repository[D, E]) Mapper() EntityMapper[D, E] {
	return r.mapper
}
