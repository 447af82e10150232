package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// The analytics read path. Every query collapses intraday observations to
// one representative value per (symbol, UTC calendar date): the observation
// with the greatest ingestion timestamp wins. The date bucket comes from the
// ingestion marker, not the provider's last_updated, so a null provider
// timestamp never hides a row.

// DailyPrice is one symbol's representative close for one calendar date.
type DailyPrice struct {
	Symbol    string          `db:"symbol"`
	Day       time.Time       `db:"day"`
	Price     float64         `db:"price"`
	MarketCap sql.NullFloat64 `db:"market_cap"`
}

// SymbolValue pairs a symbol with a single float, e.g. a market cap.
type SymbolValue struct {
	Symbol string  `db:"symbol"`
	Value  float64 `db:"value"`
}

const dayExpr = `("timestamp" AT TIME ZONE 'UTC')::date`

// DailyCloses returns daily closing prices ordered by symbol, then date
// ascending. An empty symbols slice selects all symbols; a zero since time
// applies no lower bound.
func (w *Warehouse) DailyCloses(ctx context.Context, symbols []string, since time.Time) ([]DailyPrice, error) {
	where := []string{"current_price IS NOT NULL"}
	args := []any{}
	if len(symbols) > 0 {
		args = append(args, pq.Array(symbols))
		where = append(where, fmt.Sprintf("symbol = ANY($%d::text[])", len(args)))
	}
	if !since.IsZero() {
		args = append(args, since.UTC())
		where = append(where, fmt.Sprintf(`"timestamp" >= $%d`, len(args)))
	}

	query := fmt.Sprintf(`SELECT DISTINCT ON (symbol, %[1]s)
    symbol,
    %[1]s AS day,
    current_price AS price,
    market_cap
FROM %[2]s
WHERE %[3]s
ORDER BY symbol, %[1]s, "timestamp" DESC`,
		dayExpr, quoteIdent(w.table), strings.Join(where, " AND "))

	var rows []DailyPrice
	if err := w.conn.QueryRowsCtx(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("warehouse: daily closes: %w", err)
	}
	return rows, nil
}

// LatestDay reports the most recent calendar date present in the table; ok
// is false when the table is empty. The aggregate is cast to text and
// COALESCEd so the scan target is a plain scalar; sqlx cannot scan an
// aggregate NULL into a struct like sql.NullTime.
func (w *Warehouse) LatestDay(ctx context.Context) (time.Time, bool, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(%s)::text, '') FROM %s`, dayExpr, quoteIdent(w.table))
	var latest string
	if err := w.conn.QueryRowCtx(ctx, &latest, query); err != nil {
		return time.Time{}, false, fmt.Errorf("warehouse: latest day: %w", err)
	}
	if latest == "" {
		return time.Time{}, false, nil
	}
	day, err := time.ParseInLocation("2006-01-02", latest, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("warehouse: latest day: parse %q: %w", latest, err)
	}
	return day, true, nil
}

// DailyMarketCaps returns one representative market cap per symbol for a
// calendar date, using the same latest-observation-of-day rule as prices.
func (w *Warehouse) DailyMarketCaps(ctx context.Context, day time.Time) ([]SymbolValue, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ON (symbol)
    symbol,
    market_cap AS value
FROM %s
WHERE market_cap IS NOT NULL AND %s = $1
ORDER BY symbol, "timestamp" DESC`,
		quoteIdent(w.table), dayExpr)

	var rows []SymbolValue
	if err := w.conn.QueryRowsCtx(ctx, &rows, query, day.UTC()); err != nil {
		return nil, fmt.Errorf("warehouse: daily market caps: %w", err)
	}
	return rows, nil
}
