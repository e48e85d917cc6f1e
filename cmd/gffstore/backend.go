package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gffstore/internal/blobstore"
	"gffstore/internal/config"
	"gffstore/internal/service"
	"gffstore/internal/store"
)

const closeTimeout = 5 * time.Second

// withBackend opens one backend connection for the duration of fn and
// releases it on every exit path. fn receives a context bounded by the
// configured operation timeout.
func withBackend(ctx context.Context, cfg *config.Config, op string, fn func(context.Context, blobstore.Backend) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return service.ConnectionError(op, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := backend.Close(closeCtx); err != nil {
			slog.Debug("close backend", "err", err)
		}
	}()

	opCtx := ctx
	if timeout := time.Duration(cfg.OperationTimeout); timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(opCtx, backend)
}

// openBackend dials the backend named by cfg.URI: sqlite://<path> selects the
// local store, anything else is handed to the MongoDB driver.
func openBackend(ctx context.Context, cfg *config.Config) (blobstore.Backend, error) {
	address := strings.TrimSpace(cfg.URI)
	if strings.HasPrefix(address, store.AddressScheme+"://") {
		slog.Debug("opening local store", "address", address)
		return store.OpenAddress(ctx, address)
	}
	slog.Debug("connecting to mongodb", "database", cfg.Database)
	return blobstore.DialGridFS(ctx, blobstore.GridFSOptions{
		URI:            address,
		Database:       cfg.Database,
		ConnectTimeout: time.Duration(cfg.ConnectTimeout),
	})
}
