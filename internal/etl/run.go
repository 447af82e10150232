package etl

import (
	"fmt"
	"time"
)

// batchIDLayout renders a scheduled timestamp as a storage-safe batch
// identifier, e.g. 20260829T101000Z.
const batchIDLayout = "20060102T150405Z"

// Run carries the metadata of one pipeline invocation. Scheduling state is
// always passed in explicitly; the pipeline holds no ambient last-run
// bookkeeping. Two runs share a BatchID exactly when they share a scheduled
// timestamp, which is what makes retries collide on purpose.
type Run struct {
	ScheduledAt time.Time
	BatchID     string
}

// NewRun derives run metadata from a scheduled timestamp (normalized to UTC,
// truncated to whole seconds).
func NewRun(scheduledAt time.Time) Run {
	ts := scheduledAt.UTC().Truncate(time.Second)
	return Run{
		ScheduledAt: ts,
		BatchID:     ts.Format(batchIDLayout),
	}
}

// RawKey returns the time-partitioned raw zone key for this run.
func (r Run) RawKey() string {
	return r.partitionedKey("json")
}

// TransformedKey returns the time-partitioned transformed zone key.
func (r Run) TransformedKey() string {
	return r.partitionedKey("msgpack")
}

func (r Run) partitionedKey(ext string) string {
	ts := r.ScheduledAt
	return fmt.Sprintf("%04d/%02d/%02d/%s.%s", ts.Year(), int(ts.Month()), ts.Day(), r.BatchID, ext)
}
