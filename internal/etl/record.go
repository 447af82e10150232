package etl

import "time"

// Record is a market snapshot in the canonical analytical schema. It adds
// the pipeline ingestion timestamp to the fetched fields; IngestedAt marks
// the run that produced the row, independently of the provider's
// LastUpdated cadence.
type Record struct {
	ID           string     `json:"id" msgpack:"id"`
	Symbol       string     `json:"symbol" msgpack:"symbol"`
	Name         string     `json:"name" msgpack:"name"`
	CurrentPrice *float64   `json:"current_price" msgpack:"current_price"`
	MarketCap    *float64   `json:"market_cap" msgpack:"market_cap"`
	TotalVolume  *float64   `json:"total_volume" msgpack:"total_volume"`
	LastUpdated  *time.Time `json:"last_updated" msgpack:"last_updated"`
	IngestedAt   time.Time  `json:"timestamp" msgpack:"timestamp"`
}
