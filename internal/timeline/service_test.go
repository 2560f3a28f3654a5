package timeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapline/snapline-server/internal/blob"
	"github.com/snapline/snapline-server/internal/domain"
	"github.com/snapline/snapline-server/internal/store"
)

func setupTestService(t *testing.T) (*Service, *store.Store, *blob.Storage) {
	t.Helper()

	tmpDir := t.TempDir()

	st, err := store.New(filepath.Join(tmpDir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	blobs, err := blob.NewStorage(filepath.Join(tmpDir, "pictures"))
	require.NoError(t, err)

	people := map[string]time.Time{
		"maya": time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(st, blobs, people, logger), st, blobs
}

var blobSeq int

// insertWithBlob stores a fresh blob and splices a picture for it.
func insertWithBlob(t *testing.T, svc *Service, blobs *blob.Storage, date time.Time) *domain.Picture {
	t.Helper()
	blobSeq++
	name := fmt.Sprintf("img-%05d", blobSeq)
	require.NoError(t, blobs.Save(name, []byte("image bytes "+name)))
	p, err := svc.Insert(context.Background(), name, date, 0)
	require.NoError(t, err)
	return p
}

// walkBackward follows PrevRef from the chronologically latest picture
// and returns the visited sequence (latest first).
func walkBackward(t *testing.T, st *store.Store) []*domain.Picture {
	t.Helper()
	ctx := context.Background()

	cur, err := st.MostRecentByDate(ctx)
	require.NoError(t, err)

	var chain []*domain.Picture
	seen := map[string]bool{}
	for cur != nil {
		require.False(t, seen[cur.ID], "cycle at %s", cur.ID)
		seen[cur.ID] = true
		chain = append(chain, cur)
		if cur.PrevRef == "" {
			break
		}
		cur, err = st.GetPicture(ctx, cur.PrevRef)
		require.NoError(t, err)
	}
	return chain
}

func date(month, dayOfMonth int) time.Time {
	return time.Date(2020, time.Month(month), dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestInsert_ChainInvariant(t *testing.T) {
	svc, st, blobs := setupTestService(t)

	// Arbitrary, non-chronological insertion order
	dates := []time.Time{
		date(6, 15), date(1, 1), date(12, 31), date(3, 10),
		date(3, 10), date(9, 9), date(1, 2), date(7, 4),
	}
	for _, d := range dates {
		insertWithBlob(t, svc, blobs, d)
	}

	chain := walkBackward(t, st)
	require.Len(t, chain, len(dates))

	// Walking latest-to-earliest the dates never increase
	for i := 1; i < len(chain); i++ {
		assert.False(t, chain[i].Date.After(chain[i-1].Date),
			"date order violated between %s and %s", chain[i-1].ID, chain[i].ID)
	}
	assert.Empty(t, chain[len(chain)-1].PrevRef)
	assert.Empty(t, chain[0].NextRef)
}

func TestInsert_ZeroDateMeansNow(t *testing.T) {
	svc, _, blobs := setupTestService(t)

	before := time.Now().UTC()
	p := insertWithBlob(t, svc, blobs, time.Time{})
	after := time.Now().UTC()

	assert.False(t, p.Date.Before(before))
	assert.False(t, p.Date.After(after))
}

func TestInsert_TieBreakByInsertionOrder(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	same := date(5, 5)
	a := insertWithBlob(t, svc, blobs, same)
	b := insertWithBlob(t, svc, blobs, same)

	// A was inserted first, so A precedes B
	aNow, err := st.GetPicture(ctx, a.ID)
	require.NoError(t, err)
	bNow, err := st.GetPicture(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, b.ID, aNow.NextRef)
	assert.Equal(t, a.ID, bNow.PrevRef)
	assert.Empty(t, aNow.PrevRef)
	assert.Empty(t, bNow.NextRef)
}

func TestRemove_PreservesChain(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	var inserted []*domain.Picture
	for m := 1; m <= 5; m++ {
		inserted = append(inserted, insertWithBlob(t, svc, blobs, date(m, 1)))
	}

	// Remove the middle picture (March)
	victim, err := st.GetPicture(ctx, inserted[2].ID)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, victim))

	chain := walkBackward(t, st)
	require.Len(t, chain, 4)
	assert.Equal(t, inserted[4].ID, chain[0].ID)
	assert.Equal(t, inserted[3].ID, chain[1].ID)
	assert.Equal(t, inserted[1].ID, chain[2].ID)
	assert.Equal(t, inserted[0].ID, chain[3].ID)

	// Remove the chronological start (January)
	victim, err = st.GetPicture(ctx, inserted[0].ID)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, victim))

	chain = walkBackward(t, st)
	require.Len(t, chain, 3)
	assert.Empty(t, chain[2].PrevRef)
	assert.Equal(t, inserted[1].ID, chain[2].ID)

	// Remove the chronological end (May)
	victim, err = st.GetPicture(ctx, inserted[4].ID)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, victim))

	chain = walkBackward(t, st)
	require.Len(t, chain, 2)
	assert.Empty(t, chain[0].NextRef)
	assert.Equal(t, inserted[3].ID, chain[0].ID)
}

func TestRemove_SoleElement(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	p := insertWithBlob(t, svc, blobs, date(1, 1))
	require.NoError(t, svc.Remove(ctx, p))

	count, err := st.CountPictures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.False(t, blobs.Exists(p.Name))
}

func TestRemove_DeletesRecordBeforeBlob(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	p := insertWithBlob(t, svc, blobs, date(1, 1))
	require.True(t, blobs.Exists(p.Name))

	require.NoError(t, svc.Remove(ctx, p))

	_, err := st.GetPicture(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrPictureNotFound)
	assert.False(t, blobs.Exists(p.Name))
}

func TestRelocate(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	jan := insertWithBlob(t, svc, blobs, date(1, 1))
	feb := insertWithBlob(t, svc, blobs, date(2, 1))
	mar := insertWithBlob(t, svc, blobs, date(3, 1))

	// Move January past March
	p, err := st.GetPicture(ctx, jan.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Relocate(ctx, p, date(4, 1)))

	chain := walkBackward(t, st)
	require.Len(t, chain, 3)
	assert.Equal(t, jan.ID, chain[0].ID)
	assert.Equal(t, mar.ID, chain[1].ID)
	assert.Equal(t, feb.ID, chain[2].ID)
	assert.Empty(t, chain[2].PrevRef)

	report, err := svc.VerifyIntegrity(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestRelocate_SinglePicture(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	p := insertWithBlob(t, svc, blobs, date(1, 1))
	require.NoError(t, svc.Relocate(ctx, p, date(6, 1)))

	got, err := st.GetPicture(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(date(6, 1)))
	assert.Empty(t, got.PrevRef)
	assert.Empty(t, got.NextRef)
}

func TestNearestTo_BoundaryBehavior(t *testing.T) {
	svc, _, blobs := setupTestService(t)
	ctx := context.Background()

	// Empty timeline
	got, err := svc.NearestTo(ctx, date(1, 1))
	require.NoError(t, err)
	assert.Nil(t, got)

	// Single picture matches any date
	only := insertWithBlob(t, svc, blobs, date(6, 20))
	got, err = svc.NearestTo(ctx, date(1, 1))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, only.ID, got.ID)
	got, err = svc.NearestTo(ctx, date(12, 1))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, only.ID, got.ID)
}

func TestNearestTo_PrefersSuccessor(t *testing.T) {
	svc, _, blobs := setupTestService(t)
	ctx := context.Background()

	insertWithBlob(t, svc, blobs, date(1, 10))
	twenty := insertWithBlob(t, svc, blobs, date(1, 20))
	thirty := insertWithBlob(t, svc, blobs, date(1, 30))

	// Between two pictures the successor wins
	got, err := svc.NearestTo(ctx, date(1, 15))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, twenty.ID, got.ID)

	// An exact hit returns the picture itself
	got, err = svc.NearestTo(ctx, date(1, 20))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, twenty.ID, got.ID)

	// Past the end falls back to the predecessor
	got, err = svc.NearestTo(ctx, date(2, 4))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, thirty.ID, got.ID)
}

func TestRepair_NoopOnValidChain(t *testing.T) {
	svc, _, blobs := setupTestService(t)
	ctx := context.Background()

	for m := 1; m <= 4; m++ {
		insertWithBlob(t, svc, blobs, date(m, 1))
	}

	report, err := svc.RepairDanglingLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 0, report.FixedNext)
	assert.Equal(t, 0, report.FixedPrev)
	assert.Empty(t, report.Repaired)
}

func TestRepair_RestoresDanglingNext(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	insertWithBlob(t, svc, blobs, date(1, 1))
	feb := insertWithBlob(t, svc, blobs, date(2, 1))
	mar := insertWithBlob(t, svc, blobs, date(3, 1))

	// Simulate a crash that lost the middle picture's forward pointer
	broken, err := st.GetPicture(ctx, feb.ID)
	require.NoError(t, err)
	broken.NextRef = ""
	require.NoError(t, st.PutPicture(ctx, broken))

	report, err := svc.RepairDanglingLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FixedNext)
	assert.Equal(t, []string{feb.ID}, report.Repaired)

	fixed, err := st.GetPicture(ctx, feb.ID)
	require.NoError(t, err)
	assert.Equal(t, mar.ID, fixed.NextRef)

	integrity, err := svc.VerifyIntegrity(ctx)
	require.NoError(t, err)
	assert.True(t, integrity.OK())
}

func TestRepair_RestoresDanglingPrev(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	jan := insertWithBlob(t, svc, blobs, date(1, 1))
	feb := insertWithBlob(t, svc, blobs, date(2, 1))
	insertWithBlob(t, svc, blobs, date(3, 1))

	broken, err := st.GetPicture(ctx, feb.ID)
	require.NoError(t, err)
	broken.PrevRef = ""
	require.NoError(t, st.PutPicture(ctx, broken))

	report, err := svc.RepairDanglingLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FixedPrev)

	fixed, err := st.GetPicture(ctx, feb.ID)
	require.NoError(t, err)
	assert.Equal(t, jan.ID, fixed.PrevRef)
}

func TestVerifyIntegrity_HealthyChain(t *testing.T) {
	svc, _, blobs := setupTestService(t)
	ctx := context.Background()

	for m := 1; m <= 3; m++ {
		insertWithBlob(t, svc, blobs, date(m, 1))
	}

	report, err := svc.VerifyIntegrity(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 3, report.StoredCount)
	assert.Equal(t, 3, report.VisitedCount)
	assert.Equal(t, 0, report.Unreachable)
}

func TestVerifyIntegrity_DetectsCycle(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	a := insertWithBlob(t, svc, blobs, date(1, 1))
	b := insertWithBlob(t, svc, blobs, date(2, 1))

	// Corrupt the chain: the earliest picture points back at the latest
	broken, err := st.GetPicture(ctx, a.ID)
	require.NoError(t, err)
	broken.PrevRef = b.ID
	require.NoError(t, st.PutPicture(ctx, broken))

	report, err := svc.VerifyIntegrity(ctx)
	require.NoError(t, err)
	assert.True(t, report.CycleDetected)
	assert.Equal(t, b.ID, report.CycleAt)
	assert.False(t, report.OK())
}

func TestVerifyIntegrity_ReportsOrphanBlob(t *testing.T) {
	svc, _, blobs := setupTestService(t)
	ctx := context.Background()

	insertWithBlob(t, svc, blobs, date(1, 1))
	require.NoError(t, blobs.Save("img-orphan", []byte("leaked")))

	report, err := svc.VerifyIntegrity(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"img-orphan"}, report.OrphanBlobs)
	assert.False(t, report.OK())
}

func TestVerifyIntegrity_ReportsMissingBlob(t *testing.T) {
	svc, _, blobs := setupTestService(t)
	ctx := context.Background()

	p := insertWithBlob(t, svc, blobs, date(1, 1))
	require.NoError(t, os.Remove(blobs.Path(p.Name)))

	report, err := svc.VerifyIntegrity(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, report.MissingBlobs)
}

func TestVerifyIntegrity_ReportsUnreachable(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	insertWithBlob(t, svc, blobs, date(1, 1))
	feb := insertWithBlob(t, svc, blobs, date(2, 1))
	mar := insertWithBlob(t, svc, blobs, date(3, 1))

	// Detach the latest picture's backward pointer so the walk cannot
	// reach the rest of the chain
	broken, err := st.GetPicture(ctx, mar.ID)
	require.NoError(t, err)
	broken.PrevRef = ""
	require.NoError(t, st.PutPicture(ctx, broken))

	// Keep the middle picture's forward pointer consistent with that
	mid, err := st.GetPicture(ctx, feb.ID)
	require.NoError(t, err)
	mid.NextRef = ""
	require.NoError(t, st.PutPicture(ctx, mid))

	report, err := svc.VerifyIntegrity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.VisitedCount)
	assert.Equal(t, 2, report.Unreachable)
	assert.False(t, report.OK())
}

func TestAgeRelativeJump(t *testing.T) {
	svc, _, blobs := setupTestService(t)
	ctx := context.Background()

	birth := time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC)
	first := insertWithBlob(t, svc, blobs, birth.AddDate(0, 0, 30))
	second := insertWithBlob(t, svc, blobs, birth.AddDate(1, 1, 0))

	got, err := svc.AgeRelativeJump(ctx, birth, 1.0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)

	got, err = svc.AgeRelativeJump(ctx, birth, 0.0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
}

func TestPersonAt(t *testing.T) {
	svc, _, blobs := setupTestService(t)
	ctx := context.Background()

	p := insertWithBlob(t, svc, blobs, time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC))

	got, err := svc.PersonAt(ctx, "maya", 1.0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.PersonAt(ctx, "nobody", 1.0)
	assert.Error(t, err)
}

func TestTimeJump(t *testing.T) {
	svc, _, blobs := setupTestService(t)
	ctx := context.Background()

	early := insertWithBlob(t, svc, blobs, time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC))
	late := insertWithBlob(t, svc, blobs, time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC))

	got, err := svc.TimeJump(ctx, early.AddedOrder, 2.0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, late.ID, got.ID)

	got, err = svc.TimeJump(ctx, late.AddedOrder, -2.0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, early.ID, got.ID)

	_, err = svc.TimeJump(ctx, 99, 1.0)
	assert.ErrorIs(t, err, store.ErrPictureNotFound)
}

func TestEndToEnd_OutOfOrderInsertion(t *testing.T) {
	svc, st, blobs := setupTestService(t)
	ctx := context.Background()

	jan := insertWithBlob(t, svc, blobs, date(1, 1))
	mar := insertWithBlob(t, svc, blobs, date(3, 1))
	feb := insertWithBlob(t, svc, blobs, date(2, 1))

	chain := walkBackward(t, st)
	require.Len(t, chain, 3)
	assert.Equal(t, mar.ID, chain[0].ID)
	assert.Equal(t, feb.ID, chain[1].ID)
	assert.Equal(t, jan.ID, chain[2].ID)

	got, err := svc.NearestTo(ctx, date(2, 15))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, mar.ID, got.ID)
}
