package store

import (
	"context"
	"fmt"

	mydb "github.com/TimurManjosov/goendpoint/internal/db"
)

// Options carries the backend-specific settings NewStore needs.
type Options struct {
	DSN string // postgres connection string
	Dir string // ruleset document directory for the file backend
	Env string // environment served by the file backend
}

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "postgres", "file"
func NewStore(ctx context.Context, storeType string, opts Options) (Store, error) {
	switch storeType {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		pool, err := mydb.NewPool(ctx, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		return NewPostgresStore(pool), nil
	case "file":
		return NewFileStore(opts.Dir, opts.Env)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
