// Package blob provides the durable key-value storage boundary used by the
// pipeline's raw and transformed sinks. Writes are keyed by logical zone and
// a time-partitioned key; re-writing the same zone/key overwrites in place,
// which keeps batch re-runs idempotent.
package blob

import (
	"context"
	"errors"
)

// Zone names the two storage tiers the pipeline writes to.
const (
	ZoneRaw         = "raw"
	ZoneTransformed = "transformed"
)

// ErrWrite indicates a durability failure while persisting content.
var ErrWrite = errors.New("blob: write failed")

// ErrRead indicates the content at a location could not be retrieved.
var ErrRead = errors.New("blob: read failed")

// Location is the fully-qualified address of a written object.
type Location string

// Store is the durable blob storage boundary.
type Store interface {
	// Write persists data under zone/key and returns its location.
	// Writing the same zone/key again replaces the previous content.
	Write(ctx context.Context, zone, key string, data []byte) (Location, error)
	// Read returns the content previously written at loc.
	Read(ctx context.Context, loc Location) ([]byte, error)
}
