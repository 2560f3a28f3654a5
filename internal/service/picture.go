// Package service provides the business logic layer for the photo
// journal: uploads, timeline navigation, tags, comments, and admin
// maintenance.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/snapline/snapline-server/internal/blob"
	"github.com/snapline/snapline-server/internal/domain"
	domainerrors "github.com/snapline/snapline-server/internal/errors"
	"github.com/snapline/snapline-server/internal/id"
	"github.com/snapline/snapline-server/internal/store"
	"github.com/snapline/snapline-server/internal/timeline"
)

// PictureService orchestrates picture uploads, edits, and lookups.
type PictureService struct {
	store    *store.Store
	blobs    *blob.Storage
	timeline *timeline.Service
	feedSize int
	logger   *slog.Logger
}

// NewPictureService creates a new picture service. feedSize is the
// default number of pictures in the recent feed.
func NewPictureService(st *store.Store, blobs *blob.Storage, tl *timeline.Service, feedSize int, logger *slog.Logger) *PictureService {
	return &PictureService{
		store:    st,
		blobs:    blobs,
		timeline: tl,
		feedSize: feedSize,
		logger:   logger,
	}
}

// PictureUpdate carries the mutable fields of a picture edit. Nil
// pointers and empty slices mean "leave unchanged".
type PictureUpdate struct {
	Date     *time.Time
	Rotation *int
	Image    []byte
}

// Upload stores image bytes and splices a new picture into the
// timeline. A zero date means now.
func (s *PictureService) Upload(ctx context.Context, data []byte, date time.Time, rotation int) (*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, domainerrors.Validation("image data is required")
	}
	if !domain.ValidRotation(rotation) {
		return nil, domainerrors.Validationf("invalid rotation %d, must be 0, 90, 180, or 270", rotation)
	}

	blobName, err := id.Generate("img")
	if err != nil {
		return nil, fmt.Errorf("generate blob name: %w", err)
	}
	if err := s.blobs.Save(blobName, data); err != nil {
		return nil, fmt.Errorf("save blob: %w", err)
	}

	p, err := s.timeline.Insert(ctx, blobName, date, rotation)
	if err != nil {
		// The blob is already durable; reclaim it so a failed insert
		// does not leak an orphan.
		if delErr := s.blobs.Delete(blobName); delErr != nil {
			s.logger.Warn("orphan blob left after failed insert", "blob", blobName, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("picture uploaded", "id", p.ID, "order", p.AddedOrder, "bytes", len(data))
	return p, nil
}

// GetByOrder retrieves a picture by its added-order identifier.
func (s *PictureService) GetByOrder(ctx context.Context, order int64) (*domain.Picture, error) {
	return s.store.GetPictureByOrder(ctx, order)
}

// GetImage returns the image bytes and content hash for a picture.
func (s *PictureService) GetImage(ctx context.Context, order int64) ([]byte, string, error) {
	p, err := s.store.GetPictureByOrder(ctx, order)
	if err != nil {
		return nil, "", err
	}

	data, err := s.blobs.Get(p.Name)
	if err != nil {
		return nil, "", domainerrors.Wrapf(err, domainerrors.CodeNotFound, "image bytes missing for picture %d", order)
	}
	hash, err := s.blobs.Hash(p.Name)
	if err != nil {
		return nil, "", err
	}
	return data, hash, nil
}

// Update applies a picture edit. Rotation and image changes rewrite in
// place; a date change moves the picture through the timeline.
func (s *PictureService) Update(ctx context.Context, order int64, update PictureUpdate) (*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.store.GetPictureByOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if update.Rotation != nil {
		if !domain.ValidRotation(*update.Rotation) {
			return nil, domainerrors.Validationf("invalid rotation %d, must be 0, 90, 180, or 270", *update.Rotation)
		}
		p.Rotation = *update.Rotation
	}

	if len(update.Image) > 0 {
		if err := s.blobs.Save(p.Name, update.Image); err != nil {
			return nil, fmt.Errorf("replace blob: %w", err)
		}
	}

	if update.Date != nil && !update.Date.Equal(p.Date) {
		// Relocate persists the record, rotation change included
		if err := s.timeline.Relocate(ctx, p, update.Date.UTC()); err != nil {
			return nil, err
		}
	} else if update.Rotation != nil || len(update.Image) > 0 {
		p.Touch()
		if err := s.store.PutPicture(ctx, p); err != nil {
			return nil, err
		}
	}

	s.logger.Info("picture updated", "id", p.ID, "order", order)
	return p, nil
}

// Delete removes a picture, its chain links, and its blob.
func (s *PictureService) Delete(ctx context.Context, order int64) error {
	p, err := s.store.GetPictureByOrder(ctx, order)
	if err != nil {
		return err
	}
	return s.timeline.Remove(ctx, p)
}

// Feed returns the n most recently added pictures, newest first.
func (s *PictureService) Feed(ctx context.Context, n int) ([]*domain.Picture, error) {
	if n <= 0 {
		n = s.feedSize
	}
	return s.store.ListRecentByOrder(ctx, n)
}

// Random returns a uniformly random picture. Added orders can have
// gaps from deletions, so missed draws are retried a few times before
// falling back to the most recently added picture.
func (s *PictureService) Random(ctx context.Context) (*domain.Picture, error) {
	first, err := s.store.FirstAdded(ctx)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, store.ErrPictureNotFound
	}
	last, err := s.store.LastAdded(ctx)
	if err != nil {
		return nil, err
	}

	span := last.AddedOrder - first.AddedOrder + 1
	for range 10 {
		order := first.AddedOrder + rand.Int64N(span)
		p, err := s.store.GetPictureByOrder(ctx, order)
		if err == nil {
			return p, nil
		}
		if !domainerrors.Is(err, store.ErrPictureNotFound) {
			return nil, err
		}
	}
	return last, nil
}

// Earliest returns the chronologically first picture.
func (s *PictureService) Earliest(ctx context.Context) (*domain.Picture, error) {
	p, err := s.store.LeastRecentByDate(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, store.ErrPictureNotFound
	}
	return p, nil
}

// Latest returns the chronologically last picture.
func (s *PictureService) Latest(ctx context.Context) (*domain.Picture, error) {
	p, err := s.store.MostRecentByDate(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, store.ErrPictureNotFound
	}
	return p, nil
}

// PictureMeta is the navigation projection of a picture: everything a
// viewer page needs without following references itself.
type PictureMeta struct {
	ID         string    `json:"id"`
	AddedOrder int64     `json:"added_order"`
	Date       time.Time `json:"date"`
	AddedOn    time.Time `json:"added_on"`
	Rotation   int       `json:"rotation"`
	Tags       []string  `json:"tags"`
	Comments   []string  `json:"comments"`

	// PrevOrder and NextOrder are the added orders of the
	// chronologically adjacent pictures, nil at the chain boundaries.
	PrevOrder *int64 `json:"prev_order,omitempty"`
	NextOrder *int64 `json:"next_order,omitempty"`
}

// Meta builds the navigation projection for a picture.
func (s *PictureService) Meta(ctx context.Context, order int64) (*PictureMeta, error) {
	p, err := s.store.GetPictureByOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	meta := &PictureMeta{
		ID:         p.ID,
		AddedOrder: p.AddedOrder,
		Date:       p.Date,
		AddedOn:    p.AddedOn,
		Rotation:   p.Rotation,
		Tags:       []string{},
		Comments:   []string{},
	}

	for _, ref := range p.TagRefs {
		tag, err := s.store.GetTag(ctx, ref)
		if domainerrors.Is(err, store.ErrTagNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		meta.Tags = append(meta.Tags, tag.Text)
	}

	for _, ref := range p.CommentRefs {
		c, err := s.store.GetComment(ctx, ref)
		if domainerrors.Is(err, store.ErrCommentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		meta.Comments = append(meta.Comments, c.Text)
	}

	if p.PrevRef != "" {
		if prev, err := s.store.GetPicture(ctx, p.PrevRef); err == nil {
			meta.PrevOrder = &prev.AddedOrder
		}
	}
	if p.NextRef != "" {
		if next, err := s.store.GetPicture(ctx, p.NextRef); err == nil {
			meta.NextOrder = &next.AddedOrder
		}
	}

	return meta, nil
}
