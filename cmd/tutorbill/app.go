package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/codec"
	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/repository"
	"github.com/noah-isme/tutor-billing/internal/service"
	"github.com/noah-isme/tutor-billing/internal/state"
	"github.com/noah-isme/tutor-billing/pkg/cache"
	"github.com/noah-isme/tutor-billing/pkg/config"
	"github.com/noah-isme/tutor-billing/pkg/database"
	"github.com/noah-isme/tutor-billing/pkg/storage"
)

const (
	mirrorNamespace     = "mirror"
	credentialNamespace = "credentials"
)

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// app holds every long-lived component of one process.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	metrics     *service.MetricsService
	store       *state.Store
	codec       *codec.Codec
	credentials *service.CredentialService
	drive       *repository.DriveRepository
	broker      *service.ConflictBroker
	sync        *service.SyncService
	mirror      *service.MirrorService
	watcher     *service.MirrorWatcher
	schedules   *service.ScheduleService
	roster      *service.RosterService
	billing     *service.BillingService
	exports     *service.ExportService
	backups     *service.BackupService

	closers []func() error
}

// newApp wires the component graph. A nil resolver routes conflicts through
// the HTTP conflict broker.
func newApp(ctx context.Context, cfg *config.Config, logr *zap.Logger, resolver service.ConflictResolver) (*app, error) {
	a := &app{cfg: cfg, logger: logr}
	a.metrics = service.NewMetricsService()
	a.store = state.NewStore()
	a.codec = codec.New(logr)

	mirrorStore, credentialStore, err := a.openMirror(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.credentials = service.NewCredentialService(credentialStore, service.CredentialConfig{
		ClientID:             cfg.OAuth.ClientID,
		ClientSecret:         cfg.OAuth.ClientSecret,
		RedirectURL:          cfg.OAuth.RedirectURL,
		AuthURL:              cfg.OAuth.AuthURL,
		TokenURL:             cfg.OAuth.TokenURL,
		StateSecret:          cfg.OAuth.StateSecret,
		StateTTL:             cfg.OAuth.StateTTL,
		ExpiryMargin:         cfg.OAuth.ExpiryMargin,
		DefaultLifetime:      cfg.OAuth.DefaultLifetime,
		SilentRefreshTimeout: cfg.OAuth.SilentRefreshTimeout,
	}, logr, a.metrics)

	a.drive, err = repository.NewDriveRepository(ctx, a.credentials, repository.DriveRepositoryConfig{
		Endpoint:     cfg.Drive.Endpoint,
		FileName:     cfg.Drive.FileName,
		BackupFolder: cfg.Drive.BackupFolder,
		Timeout:      cfg.Drive.Timeout,
	}, logr, a.metrics)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init drive repository: %w", err)
	}

	a.broker = service.NewConflictBroker(cfg.Sync.ConflictTimeout, logr)
	if resolver == nil {
		resolver = a.broker
	}
	a.sync = service.NewSyncService(ctx, a.drive, a.store, a.codec, resolver, service.SyncConfig{Debounce: cfg.Sync.Debounce}, logr, a.metrics)
	a.closers = append(a.closers, func() error { a.sync.Close(); return nil })

	a.mirror = service.NewMirrorService(mirrorStore, a.store, a.codec, logr, a.metrics)
	a.mirror.OnSaveRequest(a.sync.RequestSave)
	if files, ok := mirrorStore.(*repository.FileMirrorRepository); ok && cfg.Mirror.Watch {
		a.watcher = service.NewMirrorWatcher(files, a.mirror, logr)
	}

	validate := service.NewValidator()
	a.schedules = service.NewScheduleService(a.store, validate, logr)
	a.roster = service.NewRosterService(a.store, validate, logr)
	a.billing = service.NewBillingService(a.store, cfg.Billing.ViolationPenalty, logr)

	exportFiles, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open exports dir: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	a.exports = service.NewExportService(a.billing, a.store, a.codec, exportFiles, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	a.backups = service.NewBackupService(a.sync, service.BackupConfig{
		Interval:   cfg.Backups.Interval,
		Retries:    cfg.Backups.Retries,
		RetryDelay: cfg.Backups.RetryDelay,
	}, logr, a.metrics)

	return a, nil
}

// openMirror builds the business mirror and the credential store on the
// configured backend. Both share the backend but never each other's keys.
func (a *app) openMirror(ctx context.Context) (kvStore, kvStore, error) {
	cfg := a.cfg
	switch cfg.Mirror.Backend {
	case config.MirrorBackendRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis, cfg.Mirror.KeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return repository.NewRedisMirrorRepository(client.Client, client.Keyspace(mirrorNamespace)),
			repository.NewRedisMirrorRepository(client.Client, client.Keyspace(credentialNamespace)), nil
	case config.MirrorBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		mirror := repository.NewSQLMirrorRepository(db, mirrorNamespace)
		if err := mirror.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return mirror, repository.NewSQLMirrorRepository(db, credentialNamespace), nil
	case config.MirrorBackendFile, "":
		mirror, err := repository.NewFileMirrorRepository(cfg.Mirror.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open mirror dir: %w", err)
		}
		credentials, err := repository.NewFileMirrorRepository(filepath.Join(cfg.Mirror.Dir, credentialNamespace))
		if err != nil {
			return nil, nil, fmt.Errorf("open credential dir: %w", err)
		}
		return mirror, credentials, nil
	default:
		return nil, nil, fmt.Errorf("unknown mirror backend %q", cfg.Mirror.Backend)
	}
}

// connect restores a previous grant and loads the Drive copy. Without a
// grant the state is rebuilt from the local mirror instead.
func (a *app) connect(ctx context.Context) bool {
	signedIn, err := a.credentials.Bootstrap(ctx)
	if err != nil {
		a.logger.Warn("silent sign-in failed", zap.Error(err))
	}
	if signedIn {
		err := a.sync.Load(ctx)
		if err == nil {
			return true
		}
		a.logger.Warn("initial load from drive failed", zap.Error(err))
	}
	a.restoreFromMirror(ctx)
	return false
}

func (a *app) restoreFromMirror(ctx context.Context) {
	raw := make(map[string]json.RawMessage, len(models.MirrorKeys))
	for _, key := range models.MirrorKeys {
		value, err := a.mirror.GetItem(ctx, key)
		if err != nil {
			continue
		}
		raw[key] = value
	}
	if len(raw) == 0 {
		return
	}
	bundle := codec.Normalize(models.Bundle{
		StudentsData:         a.codec.DecodeStudents(raw[models.MirrorKeyStudents]),
		ArchivedStudentsData: a.codec.DecodeStudents(raw[models.MirrorKeyArchivedStudents]),
		ParentsData:          a.codec.DecodeParents(raw[models.MirrorKeyParents]),
		Months:               a.codec.DecodeMonths(raw[models.MirrorKeySchedules]),
	})
	a.store.Replace(bundle)
	a.logger.Info("state restored from local mirror",
		zap.Int("students", len(bundle.StudentsData)),
		zap.Int("months", len(bundle.Months)))
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
