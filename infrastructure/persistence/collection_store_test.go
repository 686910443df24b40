package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techvault/skoop/domain/collection"
	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
	"github.com/techvault/skoop/infrastructure/persistence"
	"github.com/techvault/skoop/internal/testdb"
)

func TestCollectionStore_SaveFindAndCount(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	resources := persistence.NewResourceStore(db)
	store := persistence.NewCollectionStore(db)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.Save(ctx, collection.Reconstruct("c1", "alice", "Old", "", false, 0, base, base))
	require.NoError(t, err)
	_, err = store.Save(ctx, collection.Reconstruct("c2", "alice", "New", "", true, 0, base.Add(time.Hour), base))
	require.NoError(t, err)
	_, err = store.Save(ctx, collection.Reconstruct("c3", "bob", "Other", "", false, 0, base, base))
	require.NoError(t, err)

	for _, id := range []string{"r1", "r2"} {
		_, err := resources.Save(ctx, resource.New(id, "alice", id, "", "", resource.TypeArticle, nil))
		require.NoError(t, err)
		require.NoError(t, store.AddResource(ctx, "c1", id))
	}
	require.NoError(t, store.AddResource(ctx, "c1", "r1"), "adding twice is a no-op")

	list, err := store.Find(ctx, append([]repository.Option{collection.WithUserID("alice")}, collection.WithNewestFirst()...)...)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].ID())
	assert.Zero(t, list[0].ResourceCount())
	assert.True(t, list[0].Public())
	assert.Equal(t, "c1", list[1].ID())
	assert.Equal(t, 2, list[1].ResourceCount())

	removed, err := store.RemoveResource(ctx, "c1", "r1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = store.RemoveResource(ctx, "c1", "r1")
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := store.FindOne(ctx, collection.WithCollectionID("c1"))
	require.NoError(t, err)
	assert.Equal(t, 1, got.ResourceCount())
}

func TestCollectionStore_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	resources := persistence.NewResourceStore(db)
	store := persistence.NewCollectionStore(db)

	c, err := store.Save(ctx, collection.New("c1", "alice", "Reading", "", false))
	require.NoError(t, err)
	_, err = resources.Save(ctx, resource.New("r1", "alice", "One", "", "", resource.TypeArticle, nil))
	require.NoError(t, err)
	require.NoError(t, store.AddResource(ctx, "c1", "r1"))

	name := "Watching"
	updated, err := store.Update(ctx, c.WithEdit(collection.Edit{Name: &name}))
	require.NoError(t, err)
	assert.Equal(t, "Watching", updated.Name())
	assert.Equal(t, 1, updated.ResourceCount())

	deleted, err := store.DeleteBy(ctx, collection.WithUserID("alice"), collection.WithCollectionID("c1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.FindOne(ctx, collection.WithCollectionID("c1"))
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Update(ctx, updated)
	require.ErrorIs(t, err, repository.ErrNotFound)

	count, err := resources.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "resources outlive their collections")
}

func TestCollectionStore_SaveRejectsBlankName(t *testing.T) {
	store := persistence.NewCollectionStore(testdb.New(t))
	_, err := store.Save(context.Background(), collection.New("c1", "alice", " ", "", false))
	require.ErrorIs(t, err, collection.ErrNameRequired)
}
