package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snapline/snapline-server/internal/http/response"
)

type addTagsRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// handleAddTags associates one or more comma-separated tags with a
// picture.
func (s *Server) handleAddTags(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req addTagsRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if err := s.validate.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	p, err := s.tags.AddTags(r.Context(), order, req.Text)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleRemoveTag drops a tag association from a picture.
func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	p, err := s.tags.RemoveTag(r.Context(), order, chi.URLParam(r, "text"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleTagCloud returns all tags, heaviest first.
func (s *Server) handleTagCloud(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.Cloud(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, tags, s.logger)
}

// handlePicturesForTag returns every picture carrying a tag,
// chronological order.
func (s *Server) handlePicturesForTag(w http.ResponseWriter, r *http.Request) {
	pictures, err := s.tags.PicturesFor(r.Context(), chi.URLParam(r, "text"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, pictures, s.logger)
}
