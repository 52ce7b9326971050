package store_test

import (
	"context"
	"testing"

	"github.com/medlabel/apiserver/internal/store"
	"github.com/medlabel/apiserver/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageLifecycle(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := store.NewImageRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "brain.jpeg", false)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	image, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, image.ImageID)
	assert.Equal(t, "brain.jpeg", image.Path)
	assert.False(t, image.ContainsPII)

	require.NoError(t, repo.SoftDelete(ctx, id))

	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Second delete matches zero rows.
	assert.ErrorIs(t, repo.SoftDelete(ctx, id), store.ErrNotFound)
}

func TestImageGetMissing(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := store.NewImageRepository(db)

	_, err := repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImageCreateKeepsPIIFlag(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := store.NewImageRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "intake-form.png", true)
	require.NoError(t, err)

	image, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, image.ContainsPII)
}

func TestImageListSkipsDeleted(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := store.NewImageRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, "a.jpeg", false)
	require.NoError(t, err)
	second, err := repo.Create(ctx, "b.jpeg", false)
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, first))

	images, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, images, 1)
	assert.Equal(t, second, images[0].ImageID)
}
