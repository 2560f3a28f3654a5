package api

import (
	"encoding/json/v2"
	"io"
	"net/http"
	"time"

	"github.com/snapline/snapline-server/internal/http/response"
	"github.com/snapline/snapline-server/internal/service"
)

// maxUploadBytes caps picture uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// handleUploadPicture accepts a multipart upload with an "image" file
// part and optional "date" and "rotation" fields.
func (s *Server) handleUploadPicture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "expected multipart form with an image part", s.logger)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "missing image part", s.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(w, "failed to read image part", s.logger)
		return
	}

	var date time.Time
	if raw := r.FormValue("date"); raw != "" {
		date, err = parseDate(raw)
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
	}

	rotation := 0
	if raw := r.FormValue("rotation"); raw != "" {
		n, err := parseRotation(raw)
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		rotation = n
	}

	p, err := s.pictures.Upload(ctx, data, date, rotation)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, p, s.logger)
}

// handleGetPicture returns the picture record for an added order.
func (s *Server) handleGetPicture(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	p, err := s.pictures.GetByOrder(r.Context(), order)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleGetMeta returns the navigation projection for a picture.
func (s *Server) handleGetMeta(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	meta, err := s.pictures.Meta(r.Context(), order)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, meta, s.logger)
}

// handleGetImage streams the image bytes with an ETag for caching.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	data, hash, err := s.pictures.GetImage(r.Context(), order)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	etag := `"` + hash + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write image response", "error", err)
	}
}

// handleReplaceImage overwrites the image bytes for a picture.
func (s *Server) handleReplaceImage(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		response.BadRequest(w, "request body must contain image bytes", s.logger)
		return
	}

	p, err := s.pictures.Update(r.Context(), order, service.PictureUpdate{Image: data})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

type updatePictureRequest struct {
	Date     *string `json:"date"`
	Rotation *int    `json:"rotation"`
}

// handleUpdatePicture edits a picture's date and rotation.
func (s *Server) handleUpdatePicture(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req updatePictureRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	update := service.PictureUpdate{Rotation: req.Rotation}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		update.Date = &date
	}

	p, err := s.pictures.Update(r.Context(), order, update)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleDeletePicture removes a picture, its chain links, and its blob.
func (s *Server) handleDeletePicture(w http.ResponseWriter, r *http.Request) {
	order, err := orderParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.pictures.Delete(r.Context(), order); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleRandomPicture returns a uniformly random picture.
func (s *Server) handleRandomPicture(w http.ResponseWriter, r *http.Request) {
	p, err := s.pictures.Random(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, p, s.logger)
}

// handleFeed returns the most recently added pictures, newest first.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		n = parsed
	}

	feed, err := s.pictures.Feed(r.Context(), n)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, feed, s.logger)
}
