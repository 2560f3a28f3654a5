// Package timeline maintains the chronological picture chain.
//
// Pictures form a doubly-linked list ordered by (date, addedOrder).
// The store only guarantees atomicity per entity, so every splice is a
// sequence of single-record writes: the chain can be left with a
// dangling pointer if the process dies mid-sequence. The date index is
// the durable source of truth and RepairDanglingLinks re-derives the
// pointers from it, so a broken chain is recoverable, never fatal.
package timeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/snapline/snapline-server/internal/blob"
	"github.com/snapline/snapline-server/internal/domain"
	domainerrors "github.com/snapline/snapline-server/internal/errors"
	"github.com/snapline/snapline-server/internal/id"
	"github.com/snapline/snapline-server/internal/store"
)

// Service manages the picture chain over the document store and blob
// storage.
type Service struct {
	store  *store.Store
	blobs  *blob.Storage
	people map[string]time.Time
	logger *slog.Logger

	// mu serializes chain mutations. Store writes are individually
	// atomic; the mutex prevents two in-process splices from racing on
	// overlapping neighbors. A crash mid-splice still leaves a dangling
	// pointer, which RepairDanglingLinks fixes.
	mu sync.Mutex
}

// NewService creates a timeline service. people maps a lowercased name
// to a birth date for age-relative jumps.
func NewService(st *store.Store, blobs *blob.Storage, people map[string]time.Time, logger *slog.Logger) *Service {
	if people == nil {
		people = map[string]time.Time{}
	}
	return &Service{
		store:  st,
		blobs:  blobs,
		people: people,
		logger: logger,
	}
}

// Insert creates a picture for an already-stored blob and splices it
// into the chain at the position its date dictates. A zero date means
// now. Prepending before the earliest picture and appending after the
// latest both work; ties on date sort by insertion order.
//
// The splice is a sequence of per-record writes: new record, then
// predecessor, then successor. An interruption after the first write
// leaves a dangling pointer on one side only.
func (s *Service) Insert(ctx context.Context, blobName string, date time.Time, rotation int) (*domain.Picture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if date.IsZero() {
		date = time.Now().UTC()
	}

	pred, err := s.store.PrevByDate(ctx, date, true, "")
	if err != nil {
		return nil, err
	}
	succ, err := s.store.NextByDate(ctx, date, false, "")
	if err != nil {
		return nil, err
	}
	order, err := s.store.NextAddedOrder(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Picture{
		ID:         id.MustGenerate("pic"),
		Name:       blobName,
		Date:       date,
		AddedOrder: order,
		AddedOn:    now,
		UpdatedOn:  now,
		Rotation:   rotation,
	}
	if pred != nil {
		p.PrevRef = pred.ID
	}
	if succ != nil {
		p.NextRef = succ.ID
	}

	if err := s.store.CreatePicture(ctx, p); err != nil {
		return nil, err
	}

	if pred != nil {
		pred.NextRef = p.ID
		if err := s.store.PutPicture(ctx, pred); err != nil {
			return nil, err
		}
	}
	if succ != nil {
		succ.PrevRef = p.ID
		if err := s.store.PutPicture(ctx, succ); err != nil {
			return nil, err
		}
	}

	s.logger.Info("picture spliced into chain",
		"id", p.ID,
		"order", p.AddedOrder,
		"date", p.Date,
		"prev", p.PrevRef,
		"next", p.NextRef,
	)
	return p, nil
}

// Remove unlinks a picture from the chain and deletes its record and
// blob. The record is deleted before the blob: a crash between the two
// leaves an orphan blob, which VerifyIntegrity reports, never a record
// pointing at missing bytes.
func (s *Service) Remove(ctx context.Context, p *domain.Picture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, next, err := s.neighbors(ctx, p)
	if err != nil {
		return err
	}

	switch {
	case prev != nil && next != nil:
		prev.NextRef = p.NextRef
		if err := s.store.PutPicture(ctx, prev); err != nil {
			return err
		}
		next.PrevRef = p.PrevRef
		if err := s.store.PutPicture(ctx, next); err != nil {
			return err
		}
	case next != nil:
		// Removing the chronological start
		next.PrevRef = ""
		if err := s.store.PutPicture(ctx, next); err != nil {
			return err
		}
	case prev != nil:
		// Removing the chronological end
		prev.NextRef = ""
		if err := s.store.PutPicture(ctx, prev); err != nil {
			return err
		}
	}

	if err := s.store.DeletePicture(ctx, p.ID); err != nil {
		return err
	}
	if err := s.blobs.Delete(p.Name); err != nil {
		s.logger.Warn("blob delete failed after record delete, orphan blob left behind",
			"picture", p.ID, "blob", p.Name, "error", err)
	}

	s.logger.Info("picture removed from chain", "id", p.ID, "order", p.AddedOrder)
	return nil
}

// Relocate moves a picture to a new date: unlink from the current
// neighbors, recompute predecessor and successor for the new date with
// the picture itself excluded, and splice. Identity and blob are kept.
func (s *Service) Relocate(ctx context.Context, p *domain.Picture, newDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, next, err := s.neighbors(ctx, p)
	if err != nil {
		return err
	}

	if prev != nil {
		prev.NextRef = p.NextRef
		if err := s.store.PutPicture(ctx, prev); err != nil {
			return err
		}
	}
	if next != nil {
		next.PrevRef = p.PrevRef
		if err := s.store.PutPicture(ctx, next); err != nil {
			return err
		}
	}

	// Re-derive neighbors fresh from the store. The old unlink writes
	// are already visible, and excluding our own ID keeps the stale
	// date index entry from bracketing us against ourselves.
	pred, err := s.store.PrevByDate(ctx, newDate, true, p.ID)
	if err != nil {
		return err
	}
	succ, err := s.store.NextByDate(ctx, newDate, false, p.ID)
	if err != nil {
		return err
	}

	p.Date = newDate
	p.PrevRef = ""
	p.NextRef = ""
	if pred != nil {
		p.PrevRef = pred.ID
	}
	if succ != nil {
		p.NextRef = succ.ID
	}
	p.Touch()

	if err := s.store.PutPicture(ctx, p); err != nil {
		return err
	}
	if pred != nil {
		pred.NextRef = p.ID
		if err := s.store.PutPicture(ctx, pred); err != nil {
			return err
		}
	}
	if succ != nil {
		succ.PrevRef = p.ID
		if err := s.store.PutPicture(ctx, succ); err != nil {
			return err
		}
	}

	s.logger.Info("picture relocated", "id", p.ID, "date", newDate)
	return nil
}

// neighbors resolves a picture's prev/next references. A reference to
// a record that no longer exists is treated as absent: the chain is
// already broken on that side and a repair pass will re-derive it.
func (s *Service) neighbors(ctx context.Context, p *domain.Picture) (prev, next *domain.Picture, err error) {
	if p.PrevRef != "" {
		prev, err = s.store.GetPicture(ctx, p.PrevRef)
		if domainerrors.Is(err, store.ErrPictureNotFound) {
			s.logger.Warn("dangling prev reference", "picture", p.ID, "ref", p.PrevRef)
			prev, err = nil, nil
		}
		if err != nil {
			return nil, nil, err
		}
	}
	if p.NextRef != "" {
		next, err = s.store.GetPicture(ctx, p.NextRef)
		if domainerrors.Is(err, store.ErrPictureNotFound) {
			s.logger.Warn("dangling next reference", "picture", p.ID, "ref", p.NextRef)
			next, err = nil, nil
		}
		if err != nil {
			return nil, nil, err
		}
	}
	return prev, next, nil
}

// NearestTo returns the picture closest to ts: the successor-or-equal
// if one exists, otherwise the predecessor, otherwise nil for an empty
// timeline.
func (s *Service) NearestTo(ctx context.Context, ts time.Time) (*domain.Picture, error) {
	p, err := s.store.NextByDate(ctx, ts, true, "")
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	return s.store.PrevByDate(ctx, ts, true, "")
}

// AgeRelativeJump returns the picture nearest to the moment someone
// born on birthDate turned years old. Fractional years are fine.
func (s *Service) AgeRelativeJump(ctx context.Context, birthDate time.Time, years float64) (*domain.Picture, error) {
	target := birthDate.Add(time.Duration(years * float64(domain.Year)))
	return s.NearestTo(ctx, target)
}

// PersonAt looks up a configured person's birth date and jumps to the
// picture nearest their given age.
func (s *Service) PersonAt(ctx context.Context, name string, years float64) (*domain.Picture, error) {
	birth, ok := s.people[strings.ToLower(name)]
	if !ok {
		return nil, domainerrors.NotFoundf("no birth date configured for %q", name)
	}
	return s.AgeRelativeJump(ctx, birth, years)
}

// TimeJump returns the picture nearest to a point years away from the
// date of the picture with the given added order. Negative years jump
// backward.
func (s *Service) TimeJump(ctx context.Context, addedOrder int64, years float64) (*domain.Picture, error) {
	p, err := s.store.GetPictureByOrder(ctx, addedOrder)
	if err != nil {
		return nil, err
	}
	target := p.Date.Add(time.Duration(years * float64(domain.Year)))
	return s.NearestTo(ctx, target)
}
