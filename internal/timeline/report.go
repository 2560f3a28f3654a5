package timeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/snapline/snapline-server/internal/domain"
	domainerrors "github.com/snapline/snapline-server/internal/errors"
	"github.com/snapline/snapline-server/internal/store"
)

// IntegrityReport is the result of a full chain walk. An inconsistent
// but non-cyclic chain produces a report, not an error; only a cycle
// aborts the walk early. RunID identifies the check run in logs.
type IntegrityReport struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	StoredCount  int `json:"stored_count"`
	VisitedCount int `json:"visited_count"`

	// Unreachable is the number of records the backward walk never
	// reached: pictures whose pointers were never spliced in, or a
	// disjoint sub-chain.
	Unreachable int `json:"unreachable"`

	// CycleDetected is fatal corruption. CycleAt names the first
	// revisited picture.
	CycleDetected bool   `json:"cycle_detected"`
	CycleAt       string `json:"cycle_at,omitempty"`

	// DanglingLinks lists pictures whose neighbor's reciprocal pointer
	// does not point back, or whose pointer targets a missing record.
	DanglingLinks []string `json:"dangling_links,omitempty"`

	// OrderViolations lists pictures whose date is greater than the
	// previously visited (more recent) picture's date.
	OrderViolations []string `json:"order_violations,omitempty"`

	// OrphanBlobs are blobs no visited picture references. Reported,
	// never auto-deleted: the cause of orphaning is ambiguous.
	OrphanBlobs []string `json:"orphan_blobs,omitempty"`

	// MissingBlobs lists pictures whose blob is absent from storage.
	MissingBlobs []string `json:"missing_blobs,omitempty"`
}

// OK reports whether the walk found a fully consistent timeline.
func (r *IntegrityReport) OK() bool {
	return !r.CycleDetected &&
		r.Unreachable == 0 &&
		len(r.DanglingLinks) == 0 &&
		len(r.OrderViolations) == 0 &&
		len(r.OrphanBlobs) == 0 &&
		len(r.MissingBlobs) == 0
}

// RepairReport summarizes a repair pass.
type RepairReport struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Scanned   int      `json:"scanned"`
	FixedNext int      `json:"fixed_next"`
	FixedPrev int      `json:"fixed_prev"`
	Repaired  []string `json:"repaired,omitempty"`
}

// VerifyIntegrity walks the chain backward from the chronologically
// latest picture via PrevRef and reports every inconsistency it can
// observe: cycles, unreachable records, reciprocal pointer breaks,
// date order violations, orphan blobs, and missing blobs.
func (s *Service) VerifyIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
	}

	stored, err := s.store.CountPictures(ctx)
	if err != nil {
		return nil, err
	}
	report.StoredCount = stored

	start, err := s.store.MostRecentByDate(ctx)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{}
	visitedNames := map[string]bool{}

	cur := start
	for cur != nil {
		if visited[cur.ID] {
			report.CycleDetected = true
			report.CycleAt = cur.ID
			break
		}
		visited[cur.ID] = true
		visitedNames[cur.Name] = true
		report.VisitedCount++

		if s.blobs != nil && !s.blobs.Exists(cur.Name) {
			report.MissingBlobs = append(report.MissingBlobs, cur.ID)
		}

		if cur.PrevRef == "" {
			break
		}

		prev, err := s.store.GetPicture(ctx, cur.PrevRef)
		if domainerrors.Is(err, store.ErrPictureNotFound) {
			report.DanglingLinks = append(report.DanglingLinks, cur.ID)
			break
		}
		if err != nil {
			return nil, err
		}

		if prev.NextRef != cur.ID {
			report.DanglingLinks = append(report.DanglingLinks, prev.ID)
		}
		if prev.Date.After(cur.Date) {
			report.OrderViolations = append(report.OrderViolations, prev.ID)
		}
		cur = prev
	}

	report.Unreachable = report.StoredCount - report.VisitedCount

	if s.blobs != nil {
		names, err := s.blobs.ListNames()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if !visitedNames[name] {
				report.OrphanBlobs = append(report.OrphanBlobs, name)
			}
		}
	}

	if !report.OK() {
		s.logger.Warn("integrity check found inconsistencies",
			"stored", report.StoredCount,
			"visited", report.VisitedCount,
			"cycle", report.CycleDetected,
			"dangling", len(report.DanglingLinks),
			"orphan_blobs", len(report.OrphanBlobs),
		)
	}
	return report, nil
}

// RepairDanglingLinks re-derives missing chain pointers from the date
// index. Every picture with a null NextRef except the true latest gets
// its successor recomputed by strict date order; symmetric for PrevRef
// and the true earliest. Idempotent: a valid chain is left untouched
// and the report shows zero fixes.
func (s *Service) RepairDanglingLinks(ctx context.Context) (*RepairReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &RepairReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
	}

	latest, err := s.store.MostRecentByDate(ctx)
	if err != nil {
		return nil, err
	}
	earliest, err := s.store.LeastRecentByDate(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return report, nil
	}

	var pictures []*domain.Picture
	for p, err := range s.store.ListPictures(ctx) {
		if err != nil {
			return nil, err
		}
		pictures = append(pictures, p)
	}

	for _, p := range pictures {
		report.Scanned++
		fixed := false

		if p.NextRef == "" && p.ID != latest.ID {
			succ, err := s.store.NextByDate(ctx, p.Date, false, p.ID)
			if err != nil {
				return nil, err
			}
			if succ != nil {
				p.NextRef = succ.ID
				report.FixedNext++
				fixed = true
			}
		}

		if p.PrevRef == "" && p.ID != earliest.ID {
			pred, err := s.store.PrevByDate(ctx, p.Date, false, p.ID)
			if err != nil {
				return nil, err
			}
			if pred != nil {
				p.PrevRef = pred.ID
				report.FixedPrev++
				fixed = true
			}
		}

		if fixed {
			if err := s.store.PutPicture(ctx, p); err != nil {
				return nil, err
			}
			report.Repaired = append(report.Repaired, p.ID)
			s.logger.Info("relinked picture",
				"id", p.ID, "prev", p.PrevRef, "next", p.NextRef)
		}
	}

	return report, nil
}
