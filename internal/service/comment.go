package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/snapline/snapline-server/internal/domain"
	domainerrors "github.com/snapline/snapline-server/internal/errors"
	"github.com/snapline/snapline-server/internal/id"
	"github.com/snapline/snapline-server/internal/store"
)

// CommentService manages append-only comments on pictures.
type CommentService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(st *store.Store, logger *slog.Logger) *CommentService {
	return &CommentService{
		store:  st,
		logger: logger,
	}
}

// Add appends a comment to a picture. Comments are never edited or
// removed once written.
func (s *CommentService) Add(ctx context.Context, order int64, text string) (*domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domainerrors.Validation("comment text is required")
	}

	p, err := s.store.GetPictureByOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	c := &domain.Comment{
		ID:      id.MustGenerate("cmt"),
		Text:    text,
		AddedOn: time.Now().UTC(),
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	p.CommentRefs = append(p.CommentRefs, c.ID)
	p.Touch()
	if err := s.store.PutPicture(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("comment added", "picture", p.ID, "comment", c.ID)
	return c, nil
}

// List returns a picture's comments in submission order.
func (s *CommentService) List(ctx context.Context, order int64) ([]*domain.Comment, error) {
	p, err := s.store.GetPictureByOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	comments := make([]*domain.Comment, 0, len(p.CommentRefs))
	for _, ref := range p.CommentRefs {
		c, err := s.store.GetComment(ctx, ref)
		if domainerrors.Is(err, store.ErrCommentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}
