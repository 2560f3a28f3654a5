package providers

import (
	"github.com/samber/do/v2"

	"github.com/snapline/snapline-server/internal/blob"
	"github.com/snapline/snapline-server/internal/config"
	"github.com/snapline/snapline-server/internal/logger"
	"github.com/snapline/snapline-server/internal/service"
	"github.com/snapline/snapline-server/internal/timeline"
)

// ProvideTimeline provides the timeline chain manager.
func ProvideTimeline(i do.Injector) (*timeline.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	blobs := do.MustInvoke[*blob.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return timeline.NewService(storeHandle.Store, blobs, cfg.Journal.People, log.Logger), nil
}

// ProvidePictureService provides the picture service.
func ProvidePictureService(i do.Injector) (*service.PictureService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	blobs := do.MustInvoke[*blob.Storage](i)
	tl := do.MustInvoke[*timeline.Service](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPictureService(storeHandle.Store, blobs, tl, cfg.Journal.FeedSize, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideCommentService provides the comment service.
func ProvideCommentService(i do.Injector) (*service.CommentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommentService(storeHandle.Store, log.Logger), nil
}

// ProvideAdminService provides the admin maintenance service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	blobs := do.MustInvoke[*blob.Storage](i)
	tl := do.MustInvoke[*timeline.Service](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAdminService(storeHandle.Store, blobs, tl, log.Logger), nil
}
