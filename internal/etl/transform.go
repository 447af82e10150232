package etl

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"coinflow/pkg/source"
)

// ErrValidation indicates an input snapshot is missing a field the canonical
// schema requires. The whole batch is rejected: a failed run is easier to
// spot than a silent gap in the warehouse.
var ErrValidation = errors.New("etl: transform validation failed")

// Transform converts a fetched batch into canonical records, preserving
// order and stamping every record with the same ingestion timestamp. It is
// a pure function of its inputs.
func Transform(snapshots []source.Snapshot, ingestedAt time.Time) ([]Record, error) {
	ingestedAt = ingestedAt.UTC()
	records := make([]Record, 0, len(snapshots))
	for i, snap := range snapshots {
		if err := validateSnapshot(i, snap); err != nil {
			return nil, err
		}
		records = append(records, Record{
			ID:           snap.ID,
			Symbol:       snap.Symbol,
			Name:         snap.Name,
			CurrentPrice: snap.CurrentPrice,
			MarketCap:    snap.MarketCap,
			TotalVolume:  snap.TotalVolume,
			LastUpdated:  snap.LastUpdated,
			IngestedAt:   ingestedAt,
		})
	}
	return records, nil
}

func validateSnapshot(i int, snap source.Snapshot) error {
	switch {
	case strings.TrimSpace(snap.ID) == "":
		return fmt.Errorf("%w: record %d missing id", ErrValidation, i)
	case strings.TrimSpace(snap.Symbol) == "":
		return fmt.Errorf("%w: record %d (%s) missing symbol", ErrValidation, i, snap.ID)
	case strings.TrimSpace(snap.Name) == "":
		return fmt.Errorf("%w: record %d (%s) missing name", ErrValidation, i, snap.ID)
	case snap.CurrentPrice == nil:
		return fmt.Errorf("%w: record %d (%s) missing current_price", ErrValidation, i, snap.ID)
	}
	return nil
}
