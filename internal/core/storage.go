package core

import (
	"context"
	"fmt"

	"guardianpaws/internal/infra/persistence/memory"
	"guardianpaws/internal/infra/persistence/mongo"
	"guardianpaws/internal/infra/persistence/postgres"
	redisstore "guardianpaws/internal/infra/persistence/redis"
	"guardianpaws/internal/infra/persistence/snapshot"
	"guardianpaws/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageRedis    StorageDriver = "redis"    // one redis key per collection
	StorageMongo    StorageDriver = "mongo"    // one mongo document per collection
)

// StorageConfig selects and configures the durable backend.
type StorageConfig struct {
	Driver        StorageDriver
	SQLitePath    string
	PostgresDSN   string
	Redis         redisstore.Config
	MongoURI      string
	MongoDatabase string
}

// OpenPersistentStore opens the configured backend and hydrates the working
// set from it. An empty driver selects sqlite.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *RulesEngine, logger Logger) (PersistentStore, error) {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	if logger == nil {
		logger = noopLogger{}
	}
	opts := []snapshot.Option{snapshot.WithLogger(logger)}
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return durable(sqlite.NewStore(ctx, cfg.SQLitePath, engine, opts...))
	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires a DSN")
		}
		return durable(postgres.NewStore(ctx, cfg.PostgresDSN, engine, opts...))
	case StorageRedis:
		return durable(redisstore.NewStore(ctx, cfg.Redis, engine, opts...))
	case StorageMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("mongo storage requires a URI")
		}
		return durable(mongo.NewStore(ctx, cfg.MongoURI, cfg.MongoDatabase, engine, opts...))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// durable keeps a failed open from surfacing as a non-nil interface.
func durable(store *snapshot.Store, err error) (PersistentStore, error) {
	if err != nil {
		return nil, err
	}
	return store, nil
}
