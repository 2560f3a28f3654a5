package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/snapline/snapline-server/internal/api"
	"github.com/snapline/snapline-server/internal/config"
	"github.com/snapline/snapline-server/internal/logger"
	"github.com/snapline/snapline-server/internal/ratelimit"
	"github.com/snapline/snapline-server/internal/service"
	"github.com/snapline/snapline-server/internal/timeline"
)

const shutdownTimeout = 10 * time.Second

// UploadLimiterHandle wraps the upload rate limiter with Shutdownable.
type UploadLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *UploadLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideUploadLimiter provides the per-client upload rate limiter.
func ProvideUploadLimiter(i do.Injector) (*UploadLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &UploadLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Server.UploadRPS, cfg.Server.UploadBurst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	limiter := do.MustInvoke[*UploadLimiterHandle](i)

	pictures := do.MustInvoke[*service.PictureService](i)
	tags := do.MustInvoke[*service.TagService](i)
	comments := do.MustInvoke[*service.CommentService](i)
	admin := do.MustInvoke[*service.AdminService](i)
	tl := do.MustInvoke[*timeline.Service](i)

	handler := api.NewServer(pictures, tags, comments, admin, tl, limiter.KeyedRateLimiter, log.Logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: server}, nil
}
