package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/snapline/snapline-server/internal/domain"
)

// CreateComment persists a new comment record.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapBackendErr(s.set([]byte(commentPrefix+c.ID), c))
}

// GetComment retrieves a comment by ID.
func (s *Store) GetComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var c domain.Comment
	err := s.get([]byte(commentPrefix+commentID), &c)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return &c, nil
}

// CountComments returns the number of comment records.
func (s *Store) CountComments(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.countPrefix([]byte(commentPrefix))
}
