package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapline/snapline-server/internal/domain"
)

// setupTestStore creates a temporary store for testing
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "snapline-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := New(dbPath, nil)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

// createTestPicture builds a picture with a deterministic ID and order.
func createTestPicture(order int64, date time.Time) *domain.Picture {
	now := time.Now().UTC()
	return &domain.Picture{
		ID:         fmt.Sprintf("pic-%03d", order),
		Name:       fmt.Sprintf("photo-%03d.jpg", order),
		Date:       date,
		AddedOrder: order,
		AddedOn:    now,
		UpdatedOn:  now,
	}
}

func day(n int) time.Time {
	return time.Date(2024, time.January, n, 12, 0, 0, 0, time.UTC)
}

func TestCreatePicture(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	pic := createTestPicture(0, day(1))

	err := store.CreatePicture(ctx, pic)
	require.NoError(t, err)

	retrieved, err := store.GetPicture(ctx, pic.ID)
	require.NoError(t, err)
	assert.Equal(t, pic.ID, retrieved.ID)
	assert.Equal(t, pic.Name, retrieved.Name)
	assert.True(t, pic.Date.Equal(retrieved.Date))
	assert.Equal(t, pic.AddedOrder, retrieved.AddedOrder)
}

func TestCreatePicture_Duplicate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	pic := createTestPicture(0, day(1))

	err := store.CreatePicture(ctx, pic)
	require.NoError(t, err)

	err = store.CreatePicture(ctx, pic)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetPicture_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetPicture(context.Background(), "pic-missing")
	assert.ErrorIs(t, err, ErrPictureNotFound)
}

func TestGetPictureByOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreatePicture(ctx, createTestPicture(int64(i), day(i+1))))
	}

	pic, err := store.GetPictureByOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "pic-001", pic.ID)

	_, err = store.GetPictureByOrder(ctx, 99)
	assert.ErrorIs(t, err, ErrPictureNotFound)
}

func TestDeletePicture(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	pic := createTestPicture(0, day(1))
	require.NoError(t, store.CreatePicture(ctx, pic))

	err := store.DeletePicture(ctx, pic.ID)
	require.NoError(t, err)

	_, err = store.GetPicture(ctx, pic.ID)
	assert.ErrorIs(t, err, ErrPictureNotFound)

	// Index entries must be gone too
	_, err = store.GetPictureByOrder(ctx, 0)
	assert.ErrorIs(t, err, ErrPictureNotFound)

	next, err := store.NextByDate(ctx, day(1).Add(-time.Hour), true, "")
	require.NoError(t, err)
	assert.Nil(t, next)

	// Deleting again is not an error
	assert.NoError(t, store.DeletePicture(ctx, pic.ID))
}

func TestPutPicture_MovesDateIndex(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	pic := createTestPicture(0, day(1))
	require.NoError(t, store.CreatePicture(ctx, pic))

	pic.Date = day(10)
	require.NoError(t, store.PutPicture(ctx, pic))

	// Old position is vacated
	got, err := store.NextByDate(ctx, day(1), true, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Date.Equal(day(10)))

	// New position answers queries
	got, err = store.PrevByDate(ctx, day(10), true, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pic.ID, got.ID)
}

func TestPutPicture_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	pic := createTestPicture(0, day(1))
	err := store.PutPicture(context.Background(), pic)
	assert.ErrorIs(t, err, ErrPictureNotFound)
}

func TestNextByDate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreatePicture(ctx, createTestPicture(int64(i), day(2*i+1))))
	}
	// Pictures at days 1, 3, 5

	// Strictly after day 1 is day 3
	got, err := store.NextByDate(ctx, day(1), false, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Date.Equal(day(3)))

	// At-or-after day 3 is day 3 itself
	got, err = store.NextByDate(ctx, day(3), true, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Date.Equal(day(3)))

	// Nothing after the last picture
	got, err = store.NextByDate(ctx, day(5), false, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPrevByDate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreatePicture(ctx, createTestPicture(int64(i), day(2*i+1))))
	}

	// At-or-before day 3 is day 3 itself
	got, err := store.PrevByDate(ctx, day(3), true, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Date.Equal(day(3)))

	// Strictly before day 3 is day 1
	got, err = store.PrevByDate(ctx, day(3), false, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Date.Equal(day(1)))

	// Nothing before the first picture
	got, err = store.PrevByDate(ctx, day(1), false, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDateQueries_TieBreakOnAddedOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	same := day(5)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreatePicture(ctx, createTestPicture(int64(i), same)))
	}

	// Inclusive successor at the shared date is the lowest added order
	got, err := store.NextByDate(ctx, same, true, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(0), got.AddedOrder)

	// Inclusive predecessor at the shared date is the highest added order
	got, err = store.PrevByDate(ctx, same, true, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.AddedOrder)
}

func TestDateQueries_ExcludeID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	same := day(5)
	for i := 0; i < 2; i++ {
		require.NoError(t, store.CreatePicture(ctx, createTestPicture(int64(i), same)))
	}

	// Excluding the first hit surfaces the next one at the same date
	got, err := store.NextByDate(ctx, same, true, "pic-000")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pic-001", got.ID)

	got, err = store.PrevByDate(ctx, same, true, "pic-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pic-000", got.ID)
}

func TestBoundaryQueries(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	// Empty store yields nil at every boundary
	got, err := store.MostRecentByDate(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = store.LeastRecentByDate(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Added order and date order deliberately disagree
	require.NoError(t, store.CreatePicture(ctx, createTestPicture(0, day(20))))
	require.NoError(t, store.CreatePicture(ctx, createTestPicture(1, day(5))))
	require.NoError(t, store.CreatePicture(ctx, createTestPicture(2, day(12))))

	got, err = store.MostRecentByDate(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pic-000", got.ID)

	got, err = store.LeastRecentByDate(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pic-001", got.ID)

	got, err = store.LastAdded(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pic-002", got.ID)

	got, err = store.FirstAdded(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pic-000", got.ID)
}

func TestNextAddedOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	order, err := store.NextAddedOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), order)

	require.NoError(t, store.CreatePicture(ctx, createTestPicture(0, day(1))))
	require.NoError(t, store.CreatePicture(ctx, createTestPicture(1, day(2))))

	order, err = store.NextAddedOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), order)
}

func TestCountAndListPictures(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreatePicture(ctx, createTestPicture(int64(i), day(i+1))))
	}

	count, err := store.CountPictures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	seen := map[string]bool{}
	for p, err := range store.ListPictures(ctx) {
		require.NoError(t, err)
		seen[p.ID] = true
	}
	assert.Len(t, seen, 5)
}

func TestEraseAll(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreatePicture(ctx, createTestPicture(0, day(1))))
	_, _, err := store.FindOrCreateTag(ctx, "birthday")
	require.NoError(t, err)

	counts, err := store.EraseAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Pictures)
	assert.Equal(t, 1, counts.Tags)
	assert.Equal(t, 0, counts.Comments)

	after, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Pictures)
	assert.Equal(t, 0, after.Tags)
}
