package api

import (
	"net/http"

	"github.com/snapline/snapline-server/internal/http/response"
)

// handleCounts returns record totals per entity kind.
func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.admin.Counts(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, counts, s.logger)
}

// handleVerifyIntegrity runs the full chain walk and returns the
// report. Inconsistencies are reported in the body, not as an HTTP
// error.
func (s *Server) handleVerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	report, err := s.admin.VerifyIntegrity(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, report, s.logger)
}

// handleRepair re-derives broken chain pointers from date order.
func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	report, err := s.admin.RepairDanglingLinks(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, report, s.logger)
}

// handleEraseAll wipes every record and blob.
func (s *Server) handleEraseAll(w http.ResponseWriter, r *http.Request) {
	counts, err := s.admin.EraseAll(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, counts, s.logger)
}
