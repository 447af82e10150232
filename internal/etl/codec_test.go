package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRawBatchRoundTrip(t *testing.T) {
	snapshots := validSnapshots()

	data, err := EncodeSnapshots(snapshots)
	require.NoError(t, err)
	decoded, err := DecodeSnapshots(data)
	require.NoError(t, err)

	require.Len(t, decoded, len(snapshots))
	for i := range snapshots {
		require.Equal(t, snapshots[i].ID, decoded[i].ID)
		require.Equal(t, snapshots[i].Symbol, decoded[i].Symbol)
		require.Equal(t, snapshots[i].Name, decoded[i].Name)
		requireFloatPtrEqual(t, snapshots[i].CurrentPrice, decoded[i].CurrentPrice)
		requireFloatPtrEqual(t, snapshots[i].MarketCap, decoded[i].MarketCap)
		requireFloatPtrEqual(t, snapshots[i].TotalVolume, decoded[i].TotalVolume)
		if snapshots[i].LastUpdated == nil {
			require.Nil(t, decoded[i].LastUpdated)
		} else {
			require.NotNil(t, decoded[i].LastUpdated)
			require.True(t, snapshots[i].LastUpdated.Equal(*decoded[i].LastUpdated))
		}
	}
}

func TestTransformedBatchRoundTrip(t *testing.T) {
	ingestedAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	records, err := Transform(validSnapshots(), ingestedAt)
	require.NoError(t, err)

	data, err := EncodeRecords(records)
	require.NoError(t, err)
	decoded, err := DecodeRecords(data)
	require.NoError(t, err)

	require.Len(t, decoded, len(records))
	for i := range records {
		require.Equal(t, records[i].ID, decoded[i].ID)
		requireFloatPtrEqual(t, records[i].CurrentPrice, decoded[i].CurrentPrice)
		require.True(t, records[i].IngestedAt.Equal(decoded[i].IngestedAt))
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeSnapshots([]byte(`{"not":"an array"`))
	require.Error(t, err)
	_, err = DecodeRecords([]byte("\x00\x01garbage"))
	require.Error(t, err)
}

func requireFloatPtrEqual(t *testing.T, want, got *float64) {
	t.Helper()
	if want == nil {
		require.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	require.InDelta(t, *want, *got, 1e-9)
}
