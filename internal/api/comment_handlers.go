package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/snapline/snapline-server/internal/http/response"
)

type addCommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// handleAddComment appends a comment to a picture.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req addCommentRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if err := s.validate.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	c, err := s.comments.Add(r.Context(), order, req.Text)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, c, s.logger)
}

// handleListComments returns a picture's comments in submission order.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	comments, err := s.comments.List(r.Context(), order)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, comments, s.logger)
}
