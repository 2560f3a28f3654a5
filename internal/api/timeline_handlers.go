package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snapline/snapline-server/internal/http/response"
)

// handleEarliest returns the chronologically first picture.
func (s *Server) handleEarliest(w http.ResponseWriter, r *http.Request) {
	p, err := s.pictures.Earliest(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleLatest returns the chronologically last picture.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	p, err := s.pictures.Latest(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleNearest returns the picture nearest to ?date=.
func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		response.BadRequest(w, "date query parameter is required", s.logger)
		return
	}
	date, err := parseDate(raw)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	p, err := s.timeline.NearestTo(r.Context(), date)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if p == nil {
		response.NotFound(w, "timeline is empty", s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleNearestDate is the path-parameter form of handleNearest, for
// bookmarkable date URLs.
func (s *Server) handleNearestDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	p, err := s.timeline.NearestTo(r.Context(), date)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if p == nil {
		response.NotFound(w, "timeline is empty", s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleTimeJump jumps N years from the picture with the given order.
func (s *Server) handleTimeJump(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	years, err := yearsParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	p, err := s.timeline.TimeJump(r.Context(), order, years)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if p == nil {
		response.NotFound(w, "timeline is empty", s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleAgeJump returns the picture nearest to a configured person
// turning the given age.
func (s *Server) handleAgeJump(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	years, err := yearsParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	p, err := s.timeline.PersonAt(r.Context(), name, years)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if p == nil {
		response.NotFound(w, "timeline is empty", s.logger)
		return
	}
	response.Success(w, p, s.logger)
}
