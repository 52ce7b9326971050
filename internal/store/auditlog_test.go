package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/medlabel/apiserver/internal/store"
	"github.com/medlabel/apiserver/internal/testutil"
	"github.com/medlabel/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogRecordAndList(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.SeedUser(t, db, "alice", "Alice", "Adams", "unused")
	ctx := context.Background()

	imageID, err := store.NewImageRepository(db).Create(ctx, "brain.jpeg", false)
	require.NoError(t, err)

	repo := store.NewAuditLogRepository(db)
	before := time.Now()
	require.NoError(t, repo.Record(ctx, types.ObjectImage, types.MethodInsertion, "alice", &imageID, nil))

	entries, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, types.ObjectImage, entry.Object)
	assert.Equal(t, types.MethodInsertion, entry.Method)
	assert.Equal(t, "alice", entry.UpdatedBy)
	require.NotNil(t, entry.ImageID)
	assert.Equal(t, imageID, *entry.ImageID)
	assert.Nil(t, entry.LabelID)

	// Truncated to seconds but still close to the call time.
	assert.WithinDuration(t, before, entry.ModifiedAt, 5*time.Second)
}

func TestAuditLogRejectsAmbiguousTarget(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.SeedUser(t, db, "alice", "Alice", "Adams", "unused")
	repo := store.NewAuditLogRepository(db)

	// The table constraint requires exactly one target id.
	assert.Error(t, repo.Record(context.Background(), types.ObjectImage, types.MethodInsertion, "alice", nil, nil))
}

func TestAuditLogListNewestFirst(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.SeedUser(t, db, "alice", "Alice", "Adams", "unused")
	ctx := context.Background()

	images := store.NewImageRepository(db)
	repo := store.NewAuditLogRepository(db)

	first, err := images.Create(ctx, "a.jpeg", false)
	require.NoError(t, err)
	second, err := images.Create(ctx, "b.jpeg", false)
	require.NoError(t, err)

	require.NoError(t, repo.Record(ctx, types.ObjectImage, types.MethodInsertion, "alice", &first, nil))
	require.NoError(t, repo.Record(ctx, types.ObjectImage, types.MethodInsertion, "alice", &second, nil))

	entries, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].ImageID)
	assert.Equal(t, second, *entries[0].ImageID)
}
