// Package server assembles and runs the SecurePrint service: it selects
// the record and blob storage backends, builds the vault service, starts
// the expiry sweeper and serves the HTTP API until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"secureprint/internal/app/server/api"
	"secureprint/internal/app/server/config"
	"secureprint/internal/domain/envelope"
	"secureprint/internal/domain/vault"
	"secureprint/internal/infrastructure/blob"
	"secureprint/internal/infrastructure/storage/memory"
	"secureprint/internal/infrastructure/storage/postgres"
	"secureprint/internal/infrastructure/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg     *config.Config
	log     *slog.Logger
	service *vault.Service
	sweeper *vault.Sweeper
	closers []func() error
}

func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	app := &App{cfg: cfg, log: log}

	repo, err := app.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("init record store: %w", err)
	}

	blobs, err := app.buildBlobStore()
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	keyring, err := envelope.StaticKeyringFromHex(cfg.Vault.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("init keyring: %w", err)
	}

	app.service = vault.NewService(repo, blobs, envelope.NewCodec(keyring), log)
	app.sweeper = vault.NewSweeper(app.service, cfg.Vault.SweepInterval, log)

	return app, nil
}

func (app *App) buildRepository() (vault.Repository, error) {
	switch app.cfg.DB.Backend {
	case config.StorePostgres:
		storage, err := postgres.New(app.cfg)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, storage.Close)
		return postgres.NewTransferRepository(storage.Pool(), app.log), nil
	case config.StoreSQLite:
		repo, err := sqlite.NewTransferRepository(app.cfg.DB.SQLitePath, app.log)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, repo.Close)
		return repo, nil
	case config.StoreMemory:
		return memory.NewRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", app.cfg.DB.Backend)
	}
}

func (app *App) buildBlobStore() (vault.BlobStore, error) {
	switch app.cfg.Blob.Backend {
	case config.BlobFilesystem:
		return blob.NewFilesystemStore(app.cfg.Blob.FSRoot)
	case config.BlobS3:
		return blob.NewS3Store(context.Background(), blob.S3Config{
			Bucket:       app.cfg.Blob.S3Bucket,
			Region:       app.cfg.Blob.S3Region,
			BaseEndpoint: app.cfg.Blob.S3Endpoint,
			AccessKey:    app.cfg.Blob.S3AccessKey,
			SecretKey:    app.cfg.Blob.S3SecretKey,
		})
	case config.BlobMemory:
		return blob.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", app.cfg.Blob.Backend)
	}
}

// Run serves the API until the context is canceled or a termination signal
// arrives, then drains in-flight requests and closes the storage backends.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go app.sweeper.Run(ctx)

	srv := &http.Server{
		Addr:    app.cfg.Server.RunAddress,
		Handler: api.New(app.service, app.log),
	}

	errCh := make(chan error, 1)
	go func() {
		app.log.Info("server listening", slog.String("address", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	app.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	for _, closeFn := range app.closers {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
