package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/snapline/snapline-server/internal/domain"
)

// CreatePicture persists a new picture record and its index entries.
// Returns ErrAlreadyExists if the ID is taken. The write is atomic: the
// primary record and both index entries land together or not at all.
func (s *Store) CreatePicture(ctx context.Context, p *domain.Picture) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal picture: %w", err)
	}

	key := []byte(picPrefix + p.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		if err := txn.Set(orderIndexKey(p.AddedOrder), []byte(p.ID)); err != nil {
			return err
		}
		return txn.Set(dateIndexKey(p.Date, p.AddedOrder), []byte(p.ID))
	})

	return wrapBackendErr(err)
}

// PutPicture rewrites an existing picture record. If the date changed,
// the stale date index entry is replaced in the same transaction.
// AddedOrder is immutable, so the order index never moves.
func (s *Store) PutPicture(ctx context.Context, p *domain.Picture) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal picture: %w", err)
	}

	key := []byte(picPrefix + p.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		old, err := getPictureTxn(txn, p.ID)
		if err != nil {
			return err
		}

		if !old.Date.Equal(p.Date) {
			if err := txn.Delete(dateIndexKey(old.Date, old.AddedOrder)); err != nil {
				return err
			}
			if err := txn.Set(dateIndexKey(p.Date, p.AddedOrder), []byte(p.ID)); err != nil {
				return err
			}
		}

		return txn.Set(key, data)
	})

	return wrapBackendErr(err)
}

// GetPicture retrieves a picture by ID.
func (s *Store) GetPicture(ctx context.Context, id string) (*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p *domain.Picture
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getPictureTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return p, nil
}

// GetPictureByOrder retrieves a picture by its added-order identifier.
func (s *Store) GetPictureByOrder(ctx context.Context, order int64) (*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p *domain.Picture
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(orderIndexKey(order))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPictureNotFound
		}
		if err != nil {
			return err
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		p, err = getPictureTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return p, nil
}

// DeletePicture removes a picture record and its index entries.
// Idempotent: deleting a missing picture is not an error.
func (s *Store) DeletePicture(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		p, err := getPictureTxn(txn, id)
		if errors.Is(err, ErrPictureNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := txn.Delete(dateIndexKey(p.Date, p.AddedOrder)); err != nil {
			return err
		}
		if err := txn.Delete(orderIndexKey(p.AddedOrder)); err != nil {
			return err
		}
		return txn.Delete([]byte(picPrefix + p.ID))
	})

	return wrapBackendErr(err)
}

// NextByDate returns the picture with the least (date, addedOrder)
// strictly after ts, or at-or-after ts when orEqual is set. Pictures
// whose ID equals excludeID are skipped, so a record can query its own
// successor during a date edit. Returns (nil, nil) when no picture
// qualifies.
func (s *Store) NextByDate(ctx context.Context, ts time.Time, orEqual bool, excludeID string) (*domain.Picture, error) {
	return s.scanDateIndex(ctx, ts, false, orEqual, excludeID)
}

// PrevByDate returns the picture with the greatest (date, addedOrder)
// at-or-before ts, or strictly before ts when orEqual is unset.
// Returns (nil, nil) when no picture qualifies.
func (s *Store) PrevByDate(ctx context.Context, ts time.Time, orEqual bool, excludeID string) (*domain.Picture, error) {
	return s.scanDateIndex(ctx, ts, true, orEqual, excludeID)
}

// scanDateIndex runs a directional scan over the composite date index.
// Lexicographic key order equals (date, addedOrder) order, so the first
// non-excluded hit is the answer: least for forward scans, greatest for
// reverse ones.
func (s *Store) scanDateIndex(ctx context.Context, ts time.Time, reverse, orEqual bool, excludeID string) (*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Forward inclusive scans start just before the entries at ts;
	// forward exclusive scans start just after them. Reverse scans
	// mirror that: seeking after the ts entries includes them.
	seek := dateSeekKey(ts, reverse == orEqual)
	prefix := []byte(picDateIdxPrefix)

	var p *domain.Picture
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = reverse
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			if excludeID != "" && id == excludeID {
				continue
			}

			var err error
			p, err = getPictureTxn(txn, id)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return p, nil
}

// MostRecentByDate returns the chronologically latest picture, or nil
// for an empty store.
func (s *Store) MostRecentByDate(ctx context.Context) (*domain.Picture, error) {
	return s.scanBoundary(ctx, []byte(picDateIdxPrefix), true)
}

// LeastRecentByDate returns the chronologically earliest picture, or
// nil for an empty store.
func (s *Store) LeastRecentByDate(ctx context.Context) (*domain.Picture, error) {
	return s.scanBoundary(ctx, []byte(picDateIdxPrefix), false)
}

// LastAdded returns the most recently added picture by AddedOrder.
func (s *Store) LastAdded(ctx context.Context) (*domain.Picture, error) {
	return s.scanBoundary(ctx, []byte(picOrderIdxPrefix), true)
}

// FirstAdded returns the first-added picture by AddedOrder.
func (s *Store) FirstAdded(ctx context.Context) (*domain.Picture, error) {
	return s.scanBoundary(ctx, []byte(picOrderIdxPrefix), false)
}

// scanBoundary returns the picture at either end of an index.
func (s *Store) scanBoundary(ctx context.Context, prefix []byte, last bool) (*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seek := prefix
	if last {
		seek = append(append([]byte{}, prefix...), 0xFF)
	}

	var p *domain.Picture
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = last
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(seek)
		if !it.ValidForPrefix(prefix) {
			return nil
		}

		var id string
		if err := it.Item().Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		var err error
		p, err = getPictureTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return p, nil
}

// ListRecentByOrder returns up to limit pictures, most recently added
// first.
func (s *Store) ListRecentByOrder(ctx context.Context, limit int) ([]*domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(picOrderIdxPrefix)
	seek := append(append([]byte{}, prefix...), 0xFF)

	var pictures []*domain.Picture
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix) && len(pictures) < limit; it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			p, err := getPictureTxn(txn, id)
			if err != nil {
				return err
			}
			pictures = append(pictures, p)
		}
		return nil
	})
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return pictures, nil
}

// NextAddedOrder returns the added-order value for the next insertion:
// one past the current maximum, or zero for an empty store.
func (s *Store) NextAddedOrder(ctx context.Context) (int64, error) {
	last, err := s.LastAdded(ctx)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 0, nil
	}
	return last.AddedOrder + 1, nil
}

// CountPictures returns the number of picture records.
func (s *Store) CountPictures(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.countPrefix([]byte(picPrefix))
}

// ListPictures returns an iterator over all picture records, in no
// particular order.
func (s *Store) ListPictures(ctx context.Context) iter.Seq2[*domain.Picture, error] {
	return func(yield func(*domain.Picture, error) bool) {
		_ = s.db.View(func(txn *badger.Txn) error {
			prefix := []byte(picPrefix)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}

				if isIndexKey(it.Item().Key()) {
					continue
				}

				var p domain.Picture
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &p)
				})
				if err != nil {
					yield(nil, err)
					return err
				}

				if !yield(&p, nil) {
					return nil // Consumer stopped early
				}
			}
			return nil
		})
	}
}

// getPictureTxn loads a picture inside an open transaction.
func getPictureTxn(txn *badger.Txn, id string) (*domain.Picture, error) {
	item, err := txn.Get([]byte(picPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrPictureNotFound
	}
	if err != nil {
		return nil, err
	}

	var p domain.Picture
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	}); err != nil {
		return nil, err
	}
	return &p, nil
}
