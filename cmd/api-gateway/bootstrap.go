package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/care-billing-api/internal/repository"
	"github.com/noah-isme/care-billing-api/pkg/config"
	"github.com/noah-isme/care-billing-api/pkg/database"
	"github.com/noah-isme/care-billing-api/pkg/lock"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

type storeBackend struct {
	store recordstore.Store
	ping  func(ctx context.Context) error
	close func()
}

// Fields filtered by repository queries, indexed on the MongoDB backend.
var mongoIndexes = map[string][]string{
	repository.CollectionAttendance:      {"date", "clientId"},
	repository.CollectionInvoices:        {"periodStart"},
	repository.CollectionStaffAttendance: {"date"},
	repository.CollectionClients:         {"active"},
	repository.CollectionStaff:           {"active"},
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*storeBackend, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		store := recordstore.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		logr.Info("record store ready", zap.String("backend", "postgres"), zap.String("database", cfg.Database.Name))
		return &storeBackend{store: store, ping: db.PingContext, close: func() { _ = db.Close() }}, nil

	case config.StoreMongo:
		store, err := recordstore.NewMongoStore(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
		if err != nil {
			return nil, err
		}
		for collection, fields := range mongoIndexes {
			if err := store.EnsureIndexes(ctx, collection, fields...); err != nil {
				_ = store.Close(context.Background())
				return nil, err
			}
		}
		logr.Info("record store ready", zap.String("backend", "mongo"), zap.String("database", cfg.Mongo.Database))
		return &storeBackend{store: store, ping: store.Ping, close: func() { _ = store.Close(context.Background()) }}, nil

	default:
		logr.Warn("using in-memory record store; data is lost on restart")
		return &storeBackend{
			store: recordstore.NewMemoryStore(),
			ping:  func(context.Context) error { return nil },
			close: func() {},
		}, nil
	}
}

func seedDirectory(ctx context.Context, directory *repository.DirectoryRepository, path string, logr *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	seed, err := directory.Seed(ctx, f)
	if err != nil {
		return err
	}
	logr.Info("directory seeded", zap.Int("clients", len(seed.Clients)), zap.Int("staff", len(seed.Staff)))
	return nil
}

// openLocker returns the generation locker, an optional readiness check and a
// close function.
func openLocker(cfg *config.Config, logr *zap.Logger) (lock.Locker, func(ctx context.Context) error, func(), error) {
	if !cfg.Redis.Enabled {
		logr.Info("redis disabled; generation lock is process-local")
		return lock.NewMemoryLocker(), nil, func() {}, nil
	}
	client, err := database.NewRedis(cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	check := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return lock.NewRedisLocker(client, "care-billing:lock:"), check, func() { _ = client.Close() }, nil
}
