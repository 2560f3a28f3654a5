package store

import "context"

// Counts holds record totals for the admin report.
type Counts struct {
	Pictures int `json:"pictures"`
	Tags     int `json:"tags"`
	Comments int `json:"comments"`
}

// Counts returns record totals across all entity kinds.
func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	pics, err := s.CountPictures(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.CountTags(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := s.CountComments(ctx)
	if err != nil {
		return nil, err
	}
	return &Counts{Pictures: pics, Tags: tags, Comments: comments}, nil
}

// EraseAll drops every record and index entry in the store. Returns the
// counts as they stood before the wipe.
func (s *Store) EraseAll(ctx context.Context) (*Counts, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Warn("erasing all records",
			"pictures", counts.Pictures,
			"tags", counts.Tags,
			"comments", counts.Comments,
		)
	}

	if err := s.db.DropAll(); err != nil {
		return nil, wrapBackendErr(err)
	}
	return counts, nil
}
