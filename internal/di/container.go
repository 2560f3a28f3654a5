// Package di provides dependency injection configuration for the Snapline server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/snapline/snapline-server/internal/config"
	"github.com/snapline/snapline-server/internal/di/providers"
	"github.com/snapline/snapline-server/internal/logger"
	"github.com/snapline/snapline-server/internal/service"
	"github.com/snapline/snapline-server/internal/timeline"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideBlobStorage)

	// Timeline core
	do.Provide(injector, providers.ProvideTimeline)

	// Business services
	do.Provide(injector, providers.ProvidePictureService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideCommentService)
	do.Provide(injector, providers.ProvideAdminService)

	// Server
	do.Provide(injector, providers.ProvideUploadLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap eagerly invokes every provider so initialization failures
// surface at startup rather than on first use.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)

	_ = do.MustInvoke[*timeline.Service](injector)

	_ = do.MustInvoke[*service.PictureService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.CommentService](injector)
	_ = do.MustInvoke[*service.AdminService](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
