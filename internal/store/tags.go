package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/snapline/snapline-server/internal/domain"
	"github.com/snapline/snapline-server/internal/id"
)

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	err := s.get([]byte(tagPrefix+tagID), &t)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return &t, nil
}

// GetTagByText retrieves a tag by its canonical text.
func (s *Store) GetTagByText(ctx context.Context, text string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tagID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tagTextIdxPrefix + text))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, wrapBackendErr(err)
	}

	return s.GetTag(ctx, tagID)
}

// FindOrCreateTag returns the tag with the given canonical text,
// creating it with a zero counter on first use. The created flag
// reports whether a new tag was written.
func (s *Store) FindOrCreateTag(ctx context.Context, text string) (*domain.Tag, bool, error) {
	t, err := s.GetTagByText(ctx, text)
	if err == nil {
		return t, false, nil
	}
	if !errors.Is(err, ErrTagNotFound) {
		return nil, false, err
	}

	t = &domain.Tag{
		ID:      id.MustGenerate("tag"),
		Text:    text,
		AddedOn: time.Now().UTC(),
	}
	if err := s.PutTag(ctx, t); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// PutTag writes a tag record and its text index entry atomically.
func (s *Store) PutTag(ctx context.Context, t *domain.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(tagPrefix+t.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(tagTextIdxPrefix+t.Text), []byte(t.ID))
	})
	return wrapBackendErr(err)
}

// ListTags returns all tags ordered by usage count descending, then
// text ascending.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(tagPrefix)
	var tags []*domain.Tag

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if isIndexKey(it.Item().Key()) {
				continue
			}
			var t domain.Tag
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			})
			if err != nil {
				return err
			}
			tags = append(tags, &t)
		}
		return nil
	})
	if err != nil {
		return nil, wrapBackendErr(err)
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Text < tags[j].Text
	})

	return tags, nil
}

// CountTags returns the number of tag records.
func (s *Store) CountTags(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.countPrefix([]byte(tagPrefix))
}
