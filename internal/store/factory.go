package store

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/ceo-assistant/internal/config"
	"go.uber.org/zap"
)

// AllCollections lists every collection the daemon opens.
var AllCollections = []string{Tasks, WeeklyGoals, DailyGoals, LinkedInPosts}

// NewDB opens the database selected by cfg.Provider:
//   - "sqlite" (default): embedded file database, no external services
//   - "mongo": MongoDB at cfg.MongoURI; indexes are ensured on open
//   - "memory": process memory, lost on exit
func NewDB(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Provider {
	case config.ProviderSQLite, "":
		path, err := config.ExpandHome(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, path, logger.Named("sqlite"))

	case config.ProviderMongo:
		db, err := OpenMongo(ctx, MongoConfig{
			URI:      cfg.MongoURI.Value(),
			Database: cfg.MongoDatabase,
		}, logger.Named("mongo"))
		if err != nil {
			return nil, fmt.Errorf("%w (uri %s)", err, config.RedactURI(cfg.MongoURI))
		}
		if err := db.EnsureIndexes(ctx, AllCollections...); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
		return db, nil

	case config.ProviderMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		return NewMemoryDB(), nil

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s (supported: mongo, sqlite, memory)", cfg.Provider)
	}
}
