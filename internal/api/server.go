// Package api provides the HTTP API server and handlers for the Snapline photo journal.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/snapline/snapline-server/internal/http/response"
	"github.com/snapline/snapline-server/internal/service"
	"github.com/snapline/snapline-server/internal/timeline"
	"github.com/snapline/snapline-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	pictures      *service.PictureService
	tags          *service.TagService
	comments      *service.CommentService
	admin         *service.AdminService
	timeline      *timeline.Service
	uploadLimiter *RateLimiter
	validate      *validation.Validator
	router        *chi.Mux
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(pictures *service.PictureService, tags *service.TagService, comments *service.CommentService, admin *service.AdminService, tl *timeline.Service, uploadLimiter *RateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		pictures:      pictures,
		tags:          tags,
		comments:      comments,
		admin:         admin,
		timeline:      tl,
		uploadLimiter: uploadLimiter,
		validate:      validation.New(),
		router:        chi.NewRouter(),
		logger:        logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Pictures.
		r.Route("/pictures", func(r chi.Router) {
			r.With(RateLimitMiddleware(s.uploadLimiter, s.logger)).
				Post("/", s.handleUploadPicture)

			r.Get("/random", s.handleRandomPicture)

			r.Route("/{order}", func(r chi.Router) {
				r.Get("/", s.handleGetPicture)
				r.Patch("/", s.handleUpdatePicture)
				r.Delete("/", s.handleDeletePicture)
				r.Get("/image", s.handleGetImage)
				r.Put("/image", s.handleReplaceImage)
				r.Get("/meta", s.handleGetMeta)

				r.Post("/tags", s.handleAddTags)
				r.Delete("/tags/{text}", s.handleRemoveTag)

				r.Get("/comments", s.handleListComments)
				r.Post("/comments", s.handleAddComment)
			})
		})

		// Feed of recently added pictures.
		r.Get("/feed", s.handleFeed)

		// Timeline navigation.
		r.Route("/timeline", func(r chi.Router) {
			r.Get("/earliest", s.handleEarliest)
			r.Get("/latest", s.handleLatest)
			r.Get("/nearest", s.handleNearest)
			r.Get("/date/{date}", s.handleNearestDate)
			r.Get("/jump/{order}/{years}", s.handleTimeJump)
			r.Get("/age/{name}/{years}", s.handleAgeJump)
		})

		// Tags.
		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.handleTagCloud)
			r.Get("/{text}/pictures", s.handlePicturesForTag)
		})

		// Admin maintenance. Integrity walks and erase are expensive,
		// so these share the upload rate limit.
		r.Route("/admin", func(r chi.Router) {
			r.Use(RateLimitMiddleware(s.uploadLimiter, s.logger))
			r.Get("/counts", s.handleCounts)
			r.Get("/integrity", s.handleVerifyIntegrity)
			r.Post("/repair", s.handleRepair)
			r.Delete("/all", s.handleEraseAll)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
