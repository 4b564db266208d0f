package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/windscape/windscape/pkg/persistence"
	"github.com/windscape/windscape/pkg/persistence/file"
	"github.com/windscape/windscape/pkg/persistence/postgresql"
	"github.com/windscape/windscape/pkg/persistence/redis"
)

const defaultRedisSessionTTL = 24 * time.Hour

// NewPersistence creates a session store from a database URL. The scheme
// selects the implementation; anything unrecognized falls back to the
// file store with the URL as its root directory.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis":
		return redis.NewPersistence(ctx, databaseURL, defaultRedisSessionTTL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)

	return parts[0]
}
