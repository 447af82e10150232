// Package analytics implements the read-only time-series queries over the
// accumulated warehouse history: rolling prices and returns, annualized
// volatility, market-cap dominance, and pairwise correlation. Every query is
// a pure function of the table contents plus a window; nothing is cached and
// nothing is written, so queries are safe to run concurrently with loads.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"coinflow/internal/warehouse"
	"coinflow/pkg/timeseries"
)

// ErrCompute indicates malformed analytics input, e.g. a symbol with no
// history at all. Thin history is not an error; it yields an explicit
// insufficient-data result instead.
var ErrCompute = errors.New("analytics: compute failed")

// HistoryReader is the warehouse read surface the engine consumes.
// *warehouse.Warehouse implements it; tests substitute an in-memory reader.
type HistoryReader interface {
	DailyCloses(ctx context.Context, symbols []string, since time.Time) ([]warehouse.DailyPrice, error)
	LatestDay(ctx context.Context) (time.Time, bool, error)
	DailyMarketCaps(ctx context.Context, day time.Time) ([]warehouse.SymbolValue, error)
}

// Config carries the default windows and result sizes.
type Config struct {
	MovingAverageWindow int `json:",default=7"`
	VolatilityWindow    int `json:",default=30"`
	VolatilityTopK      int `json:",default=20"`
	DominanceTopK       int `json:",default=10"`
	CorrelationWindow   int `json:",default=90"`
}

func (c Config) withDefaults() Config {
	if c.MovingAverageWindow <= 0 {
		c.MovingAverageWindow = 7
	}
	if c.VolatilityWindow <= 0 {
		c.VolatilityWindow = 30
	}
	if c.VolatilityTopK <= 0 {
		c.VolatilityTopK = 20
	}
	if c.DominanceTopK <= 0 {
		c.DominanceTopK = 10
	}
	if c.CorrelationWindow <= 0 {
		c.CorrelationWindow = 90
	}
	return c
}

// Engine answers analytics queries from a history reader.
type Engine struct {
	reader HistoryReader
	cfg    Config
}

// NewEngine builds an engine over reader with cfg defaults applied.
func NewEngine(reader HistoryReader, cfg Config) (*Engine, error) {
	if reader == nil {
		return nil, fmt.Errorf("analytics: history reader is required")
	}
	return &Engine{reader: reader, cfg: cfg.withDefaults()}, nil
}

// PricePoint is one day of a symbol's rolling series. MovingAvg is nil until
// the trailing window fills; Return is nil for the first observation.
type PricePoint struct {
	Day       time.Time
	Price     float64
	MovingAvg *float64
	Return    *float64
}

// RollingSeries is the rolling price/return query result.
type RollingSeries struct {
	Symbol string
	Window int
	Points []PricePoint
}

// RollingPrices computes the daily close series for one symbol with a
// trailing moving average and day-over-day percentage returns. window <= 0
// falls back to the configured default.
func (e *Engine) RollingPrices(ctx context.Context, symbol string, window int) (*RollingSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrCompute)
	}
	if window <= 0 {
		window = e.cfg.MovingAverageWindow
	}

	rows, err := e.reader.DailyCloses(ctx, []string{symbol}, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: unknown symbol %s", ErrCompute, symbol)
	}
	sortByDay(rows)

	prices := make([]float64, len(rows))
	for i, row := range rows {
		prices[i] = row.Price
	}
	sma := timeseries.SMA(prices, window)
	returns := timeseries.PctChange(prices)

	points := make([]PricePoint, len(rows))
	for i, row := range rows {
		points[i] = PricePoint{
			Day:       row.Day,
			Price:     row.Price,
			MovingAvg: floatOrNil(sma[i]),
			Return:    floatOrNil(returns[i]),
		}
	}
	return &RollingSeries{Symbol: symbol, Window: window, Points: points}, nil
}

// VolatilityRank is one symbol's annualized log-return volatility.
type VolatilityRank struct {
	Symbol     string
	Volatility float64
	Samples    int
}

// Volatility ranks symbols by annualized volatility of daily log returns
// over a trailing window, highest first, truncated to topK. Symbols without
// enough in-window observations are omitted; an empty table yields an empty
// ranking.
func (e *Engine) Volatility(ctx context.Context, window, topK int) ([]VolatilityRank, error) {
	if window <= 0 {
		window = e.cfg.VolatilityWindow
	}
	if topK <= 0 {
		topK = e.cfg.VolatilityTopK
	}

	latest, ok, err := e.reader.LatestDay(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []VolatilityRank{}, nil
	}
	since := latest.AddDate(0, 0, -(window - 1))
	rows, err := e.reader.DailyCloses(ctx, nil, since)
	if err != nil {
		return nil, err
	}

	ranking := make([]VolatilityRank, 0)
	for symbol, series := range groupBySymbol(rows) {
		prices := make([]float64, len(series))
		for i, row := range series {
			prices[i] = row.Price
		}
		vol := timeseries.AnnualizedVolatility(prices)
		if math.IsNaN(vol) {
			continue
		}
		ranking = append(ranking, VolatilityRank{Symbol: symbol, Volatility: vol, Samples: len(series)})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Volatility != ranking[j].Volatility {
			return ranking[i].Volatility > ranking[j].Volatility
		}
		return ranking[i].Symbol < ranking[j].Symbol
	})
	if len(ranking) > topK {
		ranking = ranking[:topK]
	}
	return ranking, nil
}

// DominanceShare is one symbol's slice of total market capitalization.
type DominanceShare struct {
	Symbol    string
	MarketCap float64
	Share     float64
}

// DominanceReport holds market-cap dominance for the most recent date.
type DominanceReport struct {
	Day          time.Time
	TotalCap     float64
	Shares       []DominanceShare
	Insufficient bool
}

// Dominance computes each symbol's market-cap share for the most recent
// calendar date, ranked descending and truncated to topK. Shares are
// fractions of the total across all symbols at that date, so they sum to 1
// before truncation.
func (e *Engine) Dominance(ctx context.Context, topK int) (*DominanceReport, error) {
	if topK <= 0 {
		topK = e.cfg.DominanceTopK
	}

	latest, ok, err := e.reader.LatestDay(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &DominanceReport{Insufficient: true}, nil
	}
	caps, err := e.reader.DailyMarketCaps(ctx, latest)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, c := range caps {
		total += c.Value
	}
	if len(caps) == 0 || total <= 0 {
		return &DominanceReport{Day: latest, Insufficient: true}, nil
	}

	shares := make([]DominanceShare, 0, len(caps))
	for _, c := range caps {
		shares = append(shares, DominanceShare{Symbol: c.Symbol, MarketCap: c.Value, Share: c.Value / total})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Share != shares[j].Share {
			return shares[i].Share > shares[j].Share
		}
		return shares[i].Symbol < shares[j].Symbol
	})
	if len(shares) > topK {
		shares = shares[:topK]
	}
	return &DominanceReport{Day: latest, TotalCap: total, Shares: shares}, nil
}

// CorrelationResult holds the Pearson correlation of two symbols' daily
// percentage returns over inner-joined dates.
type CorrelationResult struct {
	Base         string
	Quote        string
	Window       int
	Coefficient  float64
	Samples      int
	Insufficient bool
}

// Correlation computes the correlation of daily percentage returns for two
// symbols over a trailing window. Dates where either side has no observation
// are excluded rather than treated as zero. A symbol with no history at all
// fails; one whose history merely falls outside the window counts as
// insufficient data, like too few joint observations.
func (e *Engine) Correlation(ctx context.Context, base, quote string, window int) (*CorrelationResult, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if base == "" || quote == "" {
		return nil, fmt.Errorf("%w: both symbols are required", ErrCompute)
	}
	if window <= 0 {
		window = e.cfg.CorrelationWindow
	}

	latest, ok, err := e.reader.LatestDay(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &CorrelationResult{Base: base, Quote: quote, Window: window, Insufficient: true}, nil
	}

	// Fetch unwindowed so a known symbol with only stale history is still
	// distinguishable from an unknown one; the window applies in memory.
	rows, err := e.reader.DailyCloses(ctx, []string{base, quote}, time.Time{})
	if err != nil {
		return nil, err
	}

	grouped := groupBySymbol(rows)
	baseSeries, baseOK := grouped[base]
	quoteSeries, quoteOK := grouped[quote]
	if !baseOK {
		return nil, fmt.Errorf("%w: unknown symbol %s", ErrCompute, base)
	}
	if !quoteOK {
		return nil, fmt.Errorf("%w: unknown symbol %s", ErrCompute, quote)
	}

	since := latest.AddDate(0, 0, -(window - 1))
	baseSeries = filterSince(baseSeries, since)
	quoteSeries = filterSince(quoteSeries, since)

	basePrices, quotePrices := innerJoinByDay(baseSeries, quoteSeries)
	baseReturns := timeseries.PctChange(basePrices)
	quoteReturns := timeseries.PctChange(quotePrices)
	coeff := timeseries.Pearson(baseReturns, quoteReturns)

	result := &CorrelationResult{Base: base, Quote: quote, Window: window, Samples: len(basePrices)}
	if math.IsNaN(coeff) {
		result.Insufficient = true
		return result, nil
	}
	result.Coefficient = coeff
	return result, nil
}

// groupBySymbol splits daily rows per symbol, each series ordered by date.
func groupBySymbol(rows []warehouse.DailyPrice) map[string][]warehouse.DailyPrice {
	grouped := make(map[string][]warehouse.DailyPrice)
	for _, row := range rows {
		grouped[row.Symbol] = append(grouped[row.Symbol], row)
	}
	for _, series := range grouped {
		sortByDay(series)
	}
	return grouped
}

// innerJoinByDay aligns two daily series on their shared calendar dates.
func innerJoinByDay(a, b []warehouse.DailyPrice) ([]float64, []float64) {
	bByDay := make(map[string]float64, len(b))
	for _, row := range b {
		bByDay[dayKey(row.Day)] = row.Price
	}
	var aligned, other []float64
	for _, row := range a {
		if price, ok := bByDay[dayKey(row.Day)]; ok {
			aligned = append(aligned, row.Price)
			other = append(other, price)
		}
	}
	return aligned, other
}

// filterSince keeps the rows dated on or after since.
func filterSince(rows []warehouse.DailyPrice, since time.Time) []warehouse.DailyPrice {
	var out []warehouse.DailyPrice
	for _, row := range rows {
		if !row.Day.Before(since) {
			out = append(out, row)
		}
	}
	return out
}

func sortByDay(rows []warehouse.DailyPrice) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day.Before(rows[j].Day) })
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func floatOrNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
