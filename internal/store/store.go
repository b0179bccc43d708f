package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no ruleset exists for the requested service.
var ErrNotFound = errors.New("ruleset not found")

// Store defines the interface for ruleset persistence operations.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// GetAll retrieves all rulesets for the given environment.
	// Returns an empty slice if no rulesets are found.
	GetAll(ctx context.Context, env string) ([]Record, error)

	// GetByService retrieves the ruleset registered for a service.
	// Returns ErrNotFound if no ruleset exists.
	GetByService(ctx context.Context, service, env string) (*Record, error)

	// Upsert creates or updates a service's ruleset document.
	Upsert(ctx context.Context, params UpsertParams) error

	// Delete removes a service's ruleset. Deleting a service that has
	// no ruleset is not an error (idempotent).
	Delete(ctx context.Context, service, env string) error

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Record is a stored ruleset document for one service in one environment.
// Document holds the raw wire-format JSON; compilation happens when a
// snapshot is built, not here.
type Record struct {
	Service   string    `json:"service"`
	Env       string    `json:"env"`
	Document  []byte    `json:"document"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpsertParams contains the parameters for upserting a ruleset.
type UpsertParams struct {
	Service  string `json:"service"`
	Env      string `json:"env"`
	Document []byte `json:"document"`
}
