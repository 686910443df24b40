package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techvault/skoop/domain/repository"
)

type noteModel struct {
	ID        string `gorm:"primaryKey"`
	Owner     string
	Body      string
	Embedding Vector `gorm:"type:text"`
}

func (noteModel) TableName() string { return "notes" }

type note struct {
	id, owner, body string
	embedding       []float64
}

type noteMapper struct{}

func (noteMapper) ToDomain(m noteModel) note {
	return note{id: m.ID, owner: m.Owner, body: m.Body, embedding: m.Embedding.Floats()}
}

func (noteMapper) ToModel(n note) noteModel {
	return noteModel{ID: n.id, Owner: n.owner, Body: n.body, Embedding: Vector(n.embedding)}
}

func newNoteRepository(t *testing.T) Repository[note, noteModel] {
	t.Helper()
	db := newMemoryDatabase(t)
	require.NoError(t, db.GORM().AutoMigrate(&noteModel{}))

	ctx := context.Background()
	for _, n := range []note{
		{id: "1", owner: "alice", body: "first", embedding: []float64{1, 0}},
		{id: "2", owner: "alice", body: "second"},
		{id: "3", owner: "bob", body: "third", embedding: []float64{0, 1}},
	} {
		m := noteMapper{}.ToModel(n)
		require.NoError(t, db.Session(ctx).Create(&m).Error)
	}
	return NewRepository[note, noteModel](db, noteMapper{}, "note")
}

func TestRepository_Find(t *testing.T) {
	repo := newNoteRepository(t)
	ctx := context.Background()

	notes, err := repo.Find(ctx, repository.WithCondition("owner", "alice"), repository.WithOrderDesc("id"))
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "2", notes[0].id)

	embedded, err := repo.Find(ctx, repository.WithNotNull("embedding"), repository.WithOrderAsc("id"))
	require.NoError(t, err)
	require.Len(t, embedded, 2)
	assert.Equal(t, []float64{1, 0}, embedded[0].embedding)

	missing, err := repo.Find(ctx, repository.WithNull("embedding"))
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Nil(t, missing[0].embedding)
}

func TestRepository_FindOne(t *testing.T) {
	repo := newNoteRepository(t)
	ctx := context.Background()

	n, err := repo.FindOne(ctx, repository.WithID("3"))
	require.NoError(t, err)
	assert.Equal(t, "bob", n.owner)

	_, err = repo.FindOne(ctx, repository.WithID("nope"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_CountAndDelete(t *testing.T) {
	repo := newNoteRepository(t)
	ctx := context.Background()

	count, err := repo.Count(ctx, repository.WithCondition("owner", "alice"), repository.WithLimit(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "limit does not apply to counts")

	removed, err := repo.DeleteBy(ctx, repository.WithIDIn([]string{"1", "3"}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_RawWhere(t *testing.T) {
	repo := newNoteRepository(t)

	notes, err := repo.Find(context.Background(), repository.WithWhere("body LIKE ?", "%ir%"), repository.WithOrderAsc("id"))
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].body)
	assert.Equal(t, "third", notes[1].body)
}
