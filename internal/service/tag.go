package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/snapline/snapline-server/internal/domain"
	domainerrors "github.com/snapline/snapline-server/internal/errors"
	"github.com/snapline/snapline-server/internal/normalize"
	"github.com/snapline/snapline-server/internal/store"
)

// TagService manages tag associations and the tag cloud.
type TagService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(st *store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  st,
		logger: logger,
	}
}

// AddTags parses a comma-separated tag submission and associates each
// canonical tag with the picture. Duplicate associations are skipped.
// The usage counter only ever increments, so it is approximate: it
// counts associations made, not associations that currently exist.
func (s *TagService) AddTags(ctx context.Context, order int64, input string) (*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts := normalize.SplitTagInput(input)
	if len(texts) == 0 {
		return nil, domainerrors.Validation("no usable tag text in input")
	}

	p, err := s.store.GetPictureByOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	changed := false
	for _, text := range texts {
		tag, created, err := s.store.FindOrCreateTag(ctx, text)
		if err != nil {
			return nil, err
		}
		if p.HasTag(tag.ID) {
			continue
		}

		p.TagRefs = append(p.TagRefs, tag.ID)
		changed = true

		tag.Bump()
		if err := s.store.PutTag(ctx, tag); err != nil {
			return nil, err
		}
		if created {
			s.logger.Info("tag created", "tag", tag.ID, "text", text)
		}
	}

	if changed {
		p.Touch()
		if err := s.store.PutPicture(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// RemoveTag drops a tag association from a picture. The tag's usage
// counter is not decremented.
func (s *TagService) RemoveTag(ctx context.Context, order int64, text string) (*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tag, err := s.store.GetTagByText(ctx, normalize.TagText(text))
	if err != nil {
		return nil, err
	}

	p, err := s.store.GetPictureByOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	refs := p.TagRefs[:0]
	for _, ref := range p.TagRefs {
		if ref != tag.ID {
			refs = append(refs, ref)
		}
	}
	if len(refs) == len(p.TagRefs) {
		return p, nil
	}

	p.TagRefs = refs
	p.Touch()
	if err := s.store.PutPicture(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Cloud returns all tags for the tag cloud, heaviest first.
func (s *TagService) Cloud(ctx context.Context) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// PicturesFor returns every picture carrying the given tag, earliest
// first.
func (s *TagService) PicturesFor(ctx context.Context, text string) ([]*domain.Picture, error) {
	tag, err := s.store.GetTagByText(ctx, normalize.TagText(text))
	if err != nil {
		return nil, err
	}

	var pictures []*domain.Picture
	for p, err := range s.store.ListPictures(ctx) {
		if err != nil {
			return nil, err
		}
		if p.HasTag(tag.ID) {
			pictures = append(pictures, p)
		}
	}

	sort.Slice(pictures, func(i, j int) bool {
		if !pictures[i].Date.Equal(pictures[j].Date) {
			return pictures[i].Date.Before(pictures[j].Date)
		}
		return pictures[i].AddedOrder < pictures[j].AddedOrder
	})
	return pictures, nil
}
