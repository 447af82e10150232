package etl

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"coinflow/pkg/source"
)

// The raw zone keeps the fetched snapshots as JSON, close to the provider
// wire format; the transformed zone uses msgpack for the canonical records.

// EncodeSnapshots serializes a raw batch for the raw sink.
func EncodeSnapshots(snapshots []source.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshots)
	if err != nil {
		return nil, fmt.Errorf("etl: encode raw batch: %w", err)
	}
	return data, nil
}

// DecodeSnapshots restores a raw batch written by EncodeSnapshots.
func DecodeSnapshots(data []byte) ([]source.Snapshot, error) {
	var snapshots []source.Snapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("etl: decode raw batch: %w", err)
	}
	return snapshots, nil
}

// EncodeRecords serializes a transformed batch for the transformed sink.
func EncodeRecords(records []Record) ([]byte, error) {
	data, err := msgpack.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("etl: encode transformed batch: %w", err)
	}
	return data, nil
}

// DecodeRecords restores a transformed batch written by EncodeRecords.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := msgpack.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("etl: decode transformed batch: %w", err)
	}
	return records, nil
}
