package source

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the upstream market data source could not be
// reached or answered with a non-success status.
var ErrUnavailable = errors.New("source: provider unavailable")

// ErrSchema indicates the provider answered, but the payload is missing a
// required field or carries a field of the wrong type (e.g. a price encoded
// as a string).
var ErrSchema = errors.New("source: response schema mismatch")

// Provider exposes a single-attempt, read-only market data fetch. Retry
// policy belongs to the caller's scheduler, never to implementations.
type Provider interface {
	// Markets returns one snapshot per asset the provider reports, in
	// provider order. Fewer snapshots than requested ids is a partial
	// result, not an error. limit caps the result size.
	Markets(ctx context.Context, ids []string, limit int) ([]Snapshot, error)
}

// Snapshot is one asset observation exactly as fetched, prior to any
// transformation. Numeric fields and the provider timestamp are nullable;
// identity fields are required.
type Snapshot struct {
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name"`
	CurrentPrice *float64   `json:"current_price"`
	MarketCap    *float64   `json:"market_cap"`
	TotalVolume  *float64   `json:"total_volume"`
	LastUpdated  *time.Time `json:"last_updated"`
}
