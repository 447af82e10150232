package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"coinflow/internal/etl"
)

// ErrSchemaConflict indicates the destination table exists with a column set
// incompatible with the canonical schema.
var ErrSchemaConflict = errors.New("warehouse: schema conflict")

// ErrLoad indicates the destination rejected a batch; nothing from that
// batch is visible afterwards.
var ErrLoad = errors.New("warehouse: load failed")

var _ etl.Loader = (*Warehouse)(nil)

// ledgerTable records which batch identifiers have been appended. The
// check-and-insert on its primary key is what makes retried loads
// exactly-once.
const ledgerTable = "load_ledger"

const insertChunkSize = 100

// Warehouse owns the append-only analytical table and its load ledger.
// Rows are only ever appended; "latest per symbol" is a query-time concept.
type Warehouse struct {
	conn  sqlx.SqlConn
	table string
}

// New returns a warehouse bound to a table name.
func New(conn sqlx.SqlConn, table string) (*Warehouse, error) {
	if conn == nil {
		return nil, fmt.Errorf("warehouse: sql connection is required")
	}
	if err := validIdentifier(table); err != nil {
		return nil, err
	}
	return &Warehouse{conn: conn, table: table}, nil
}

// Table reports the destination table name.
func (w *Warehouse) Table() string { return w.table }

// EnsureSchema creates the analytical table and the load ledger when absent,
// then verifies an existing table still matches the canonical schema.
func (w *Warehouse) EnsureSchema(ctx context.Context) error {
	if _, err := w.conn.ExecCtx(ctx, createTableDDL(w.table, CanonicalSchema)); err != nil {
		return fmt.Errorf("warehouse: create table %s: %w", w.table, err)
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (symbol, "timestamp");`,
		quoteIdent(w.table+"_symbol_ts_idx"), quoteIdent(w.table))
	if _, err := w.conn.ExecCtx(ctx, idx); err != nil {
		return fmt.Errorf("warehouse: index table %s: %w", w.table, err)
	}

	ledgerDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    batch_id TEXT PRIMARY KEY,
    table_name TEXT NOT NULL,
    row_count BIGINT NOT NULL,
    loaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`, ledgerTable)
	if _, err := w.conn.ExecCtx(ctx, ledgerDDL); err != nil {
		return fmt.Errorf("warehouse: create ledger: %w", err)
	}

	var columns []columnInfo
	const q = `SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`
	if err := w.conn.QueryRowsCtx(ctx, &columns, q, w.table); err != nil {
		return fmt.Errorf("warehouse: inspect table %s: %w", w.table, err)
	}
	return compareSchema(w.table, CanonicalSchema, columns)
}

// AppendBatch appends one transformed batch, all-or-nothing. The ledger
// check-and-insert and the row inserts share a transaction, so a batch
// identifier is appended at most once no matter how often the run retries.
// The bool reports whether rows were appended (false: ledger already held
// the batch).
func (w *Warehouse) AppendBatch(ctx context.Context, batchID string, records []etl.Record) (bool, error) {
	if strings.TrimSpace(batchID) == "" {
		return false, fmt.Errorf("%w: batch id is required", ErrLoad)
	}

	appended := false
	err := w.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		res, err := session.ExecCtx(ctx,
			fmt.Sprintf("INSERT INTO %s (batch_id, table_name, row_count) VALUES ($1, $2, $3) ON CONFLICT (batch_id) DO NOTHING", ledgerTable),
			batchID, w.table, len(records))
		if err != nil {
			return fmt.Errorf("ledger insert: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("ledger insert: %w", err)
		}
		if inserted == 0 {
			logx.WithContext(ctx).Infof("warehouse: batch %s already loaded into %s, skipping", batchID, w.table)
			return nil
		}

		for start := 0; start < len(records); start += insertChunkSize {
			end := start + insertChunkSize
			if end > len(records) {
				end = len(records)
			}
			query, args := buildInsert(w.table, records[start:end])
			if _, err := session.ExecCtx(ctx, query, args...); err != nil {
				return fmt.Errorf("append rows: %w", err)
			}
		}
		appended = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: batch %s: %v", ErrLoad, batchID, err)
	}
	return appended, nil
}

// buildInsert renders a multi-row insert for one chunk of records.
func buildInsert(table string, records []etl.Record) (string, []any) {
	cols := make([]string, 0, len(CanonicalSchema))
	for _, col := range CanonicalSchema {
		cols = append(cols, quoteIdent(col.Name))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", quoteIdent(table), strings.Join(cols, ", "))
	args := make([]any, 0, len(records)*len(CanonicalSchema))
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * len(CanonicalSchema)
		placeholders := make([]string, len(CanonicalSchema))
		for j := range CanonicalSchema {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		sb.WriteString("(" + strings.Join(placeholders, ", ") + ")")
		args = append(args,
			rec.ID,
			rec.Symbol,
			rec.Name,
			nullFloat(rec.CurrentPrice),
			nullFloat(rec.MarketCap),
			nullFloat(rec.TotalVolume),
			nullTime(rec.LastUpdated),
			rec.IngestedAt.UTC(),
		)
	}
	return sb.String(), args
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}
