package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/snapline/snapline-server/internal/blob"
	"github.com/snapline/snapline-server/internal/config"
	"github.com/snapline/snapline-server/internal/logger"
	"github.com/snapline/snapline-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Storage.BasePath, "db")
	st, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: st}, nil
}

// ProvideBlobStorage provides filesystem storage for picture blobs.
func ProvideBlobStorage(i do.Injector) (*blob.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	blobPath := filepath.Join(cfg.Storage.BasePath, "pictures")
	storage, err := blob.NewStorage(blobPath)
	if err != nil {
		return nil, err
	}

	log.Info("Blob storage initialized", "path", blobPath)

	return storage, nil
}
