package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapline/snapline-server/internal/domain"
)

func TestFindOrCreateTag(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	tag, created, err := store.FindOrCreateTag(ctx, "birthday")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "birthday", tag.Text)
	assert.Equal(t, int64(0), tag.Count)

	// Second lookup finds the same record
	again, created, err := store.FindOrCreateTag(ctx, "birthday")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag.ID, again.ID)
}

func TestGetTagByText_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetTagByText(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestPutTag_CounterBump(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	tag, _, err := store.FindOrCreateTag(ctx, "vacation")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		tag.Bump()
	}
	require.NoError(t, store.PutTag(ctx, tag))

	retrieved, err := store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), retrieved.Count)
	assert.InDelta(t, 1.0, retrieved.CountLog, 0.0001)
}

func TestListTags_OrderedByCount(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	for _, tc := range []struct {
		text  string
		count int64
	}{
		{"alpha", 2},
		{"bravo", 5},
		{"charlie", 2},
	} {
		tag := &domain.Tag{ID: "tag-" + tc.text, Text: tc.text, Count: tc.count, AddedOn: now}
		require.NoError(t, store.PutTag(ctx, tag))
	}

	tags, err := store.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "bravo", tags[0].Text)
	assert.Equal(t, "alpha", tags[1].Text)
	assert.Equal(t, "charlie", tags[2].Text)
}

func TestComments(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	c := &domain.Comment{ID: "cmt-001", Text: "great shot", AddedOn: time.Now().UTC()}

	require.NoError(t, store.CreateComment(ctx, c))

	retrieved, err := store.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Text, retrieved.Text)

	count, err := store.CountComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = store.GetComment(ctx, "cmt-missing")
	assert.ErrorIs(t, err, ErrCommentNotFound)
}
