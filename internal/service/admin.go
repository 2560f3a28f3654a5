package service

import (
	"context"
	"log/slog"

	"github.com/snapline/snapline-server/internal/blob"
	"github.com/snapline/snapline-server/internal/store"
	"github.com/snapline/snapline-server/internal/timeline"
)

// AdminService exposes maintenance operations: counts, the integrity
// walk, chain repair, and the whole-system wipe.
type AdminService struct {
	store    *store.Store
	blobs    *blob.Storage
	timeline *timeline.Service
	logger   *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(st *store.Store, blobs *blob.Storage, tl *timeline.Service, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:    st,
		blobs:    blobs,
		timeline: tl,
		logger:   logger,
	}
}

// Counts returns record totals per entity kind.
func (s *AdminService) Counts(ctx context.Context) (*store.Counts, error) {
	return s.store.Counts(ctx)
}

// VerifyIntegrity runs the full chain walk and reports inconsistencies.
func (s *AdminService) VerifyIntegrity(ctx context.Context) (*timeline.IntegrityReport, error) {
	return s.timeline.VerifyIntegrity(ctx)
}

// RepairDanglingLinks re-derives broken chain pointers from date order.
func (s *AdminService) RepairDanglingLinks(ctx context.Context) (*timeline.RepairReport, error) {
	return s.timeline.RepairDanglingLinks(ctx)
}

// EraseAll wipes every record and every blob. Returns the counts as
// they stood before the wipe.
func (s *AdminService) EraseAll(ctx context.Context) (*store.Counts, error) {
	counts, err := s.store.EraseAll(ctx)
	if err != nil {
		return nil, err
	}

	names, err := s.blobs.ListNames()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := s.blobs.Delete(name); err != nil {
			s.logger.Warn("blob delete failed during wipe", "blob", name, "error", err)
		}
	}

	s.logger.Warn("full system wipe completed",
		"pictures", counts.Pictures,
		"tags", counts.Tags,
		"comments", counts.Comments,
		"blobs", len(names),
	)
	return counts, nil
}
