package coingecko

import "time"

// marketRow mirrors one element of the /coins/markets response. Numeric
// fields must arrive as JSON numbers; decoding a string into them is a
// schema violation, not a transport failure.
type marketRow struct {
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name"`
	CurrentPrice *float64   `json:"current_price"`
	MarketCap    *float64   `json:"market_cap"`
	TotalVolume  *float64   `json:"total_volume"`
	LastUpdated  *time.Time `json:"last_updated"`
}
