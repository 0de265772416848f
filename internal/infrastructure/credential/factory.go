package credential

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/infrastructure/cache"
	"github.com/kitsbundles/backend/internal/infrastructure/config"
	"github.com/kitsbundles/backend/internal/infrastructure/logger"
	"github.com/kitsbundles/backend/internal/infrastructure/migration"
	"github.com/kitsbundles/backend/internal/infrastructure/persistence"
)

// StoreFactory opens the credential store selected by the configured backend.
type StoreFactory struct {
	cfg         *config.Config
	logger      *zap.Logger
	redisClient *redis.Client
	autoMigrate bool
}

// StoreFactoryOption configures a StoreFactory.
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithRedisClient reuses an open client for the redis backend instead of dialing a
// new one. The caller keeps ownership of the client.
func WithRedisClient(client *redis.Client) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.redisClient = client
	}
}

// WithAutoMigrate applies the embedded migrations before opening the postgres
// backend.
func WithAutoMigrate(enabled bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.autoMigrate = enabled
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg *config.Config, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create opens the store. The returned close function releases whatever the store
// opened itself and is never nil.
func (f *StoreFactory) Create(ctx context.Context) (credential.Store, func() error, error) {
	appName := f.cfg.Credentials.AppName

	switch f.cfg.Credentials.Backend {
	case config.BackendPostgres:
		return f.createPostgresStore(ctx, appName)

	case config.BackendRedis:
		client := f.redisClient
		closeFn := func() error { return nil }
		if client == nil {
			var err error
			client, err = cache.NewRedisClient(f.cfg.Redis)
			if err != nil {
				return nil, nil, err
			}
			closeFn = client.Close
		}
		f.logger.Info("Using Redis credential store", zap.String("addr", f.cfg.Redis.Addr()))
		return cache.NewRedisCredentialStore(client, f.cfg.Redis.KeyPrefix, appName), closeFn, nil

	case config.BackendFile, "":
		f.logger.Info("Using file credential store", zap.String("path", f.cfg.Credentials.FilePath))
		return NewFileStore(f.cfg.Credentials.FilePath), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown credentials backend %q", f.cfg.Credentials.Backend)
	}
}

func (f *StoreFactory) createPostgresStore(ctx context.Context, appName string) (credential.Store, func() error, error) {
	if missing := f.cfg.Database.Missing(); len(missing) > 0 {
		return nil, nil, fmt.Errorf("postgres credentials backend is missing %v", missing)
	}

	if f.autoMigrate {
		if err := f.migrate(); err != nil {
			return nil, nil, err
		}
	}

	gormLog := logger.NewGormLogger(f.logger, logger.MapGormLogLevel(f.cfg.Log.Level), 0)
	db, err := persistence.NewDatabaseWithLogger(&f.cfg.Database, gormLog)
	if err != nil {
		return nil, nil, err
	}

	store := persistence.NewGormCredentialStore(db.DB, appName)
	if err := store.IsReady(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	f.logger.Info("Using Postgres credential store",
		zap.String("host", f.cfg.Database.Host),
		zap.String("database", f.cfg.Database.DBName),
	)
	return store, db.Close, nil
}

// migrate runs on its own connection; closing the migrator closes the pool it was
// given.
func (f *StoreFactory) migrate() error {
	sqlDB, err := sql.Open("postgres", f.cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	m, err := migration.New(sqlDB, f.logger)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}
