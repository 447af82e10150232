package warehouse

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coinflow/internal/etl"
)

func TestCreateTableDDL(t *testing.T) {
	ddl := createTableDDL("market_history", CanonicalSchema)
	require.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "market_history"`)
	require.Contains(t, ddl, `"id" TEXT NOT NULL`)
	require.Contains(t, ddl, `"current_price" DOUBLE PRECISION`)
	require.NotContains(t, ddl, `"current_price" DOUBLE PRECISION NOT NULL`)
	require.Contains(t, ddl, `"last_updated" TIMESTAMPTZ`)
	require.Contains(t, ddl, `"timestamp" TIMESTAMPTZ NOT NULL`)
}

func canonicalColumns() []columnInfo {
	return []columnInfo{
		{Name: "id", DataType: "text", Nullable: "NO"},
		{Name: "symbol", DataType: "text", Nullable: "NO"},
		{Name: "name", DataType: "text", Nullable: "NO"},
		{Name: "current_price", DataType: "double precision", Nullable: "YES"},
		{Name: "market_cap", DataType: "double precision", Nullable: "YES"},
		{Name: "total_volume", DataType: "double precision", Nullable: "YES"},
		{Name: "last_updated", DataType: "timestamp with time zone", Nullable: "YES"},
		{Name: "timestamp", DataType: "timestamp with time zone", Nullable: "NO"},
	}
}

func TestCompareSchemaAccepts(t *testing.T) {
	require.NoError(t, compareSchema("market_history", CanonicalSchema, canonicalColumns()))

	// Extra columns are compatible.
	withExtra := append(canonicalColumns(), columnInfo{Name: "note", DataType: "text", Nullable: "YES"})
	require.NoError(t, compareSchema("market_history", CanonicalSchema, withExtra))
}

func TestCompareSchemaConflicts(t *testing.T) {
	missing := canonicalColumns()[:len(canonicalColumns())-1]
	err := compareSchema("market_history", CanonicalSchema, missing)
	require.ErrorIs(t, err, ErrSchemaConflict)

	mistyped := canonicalColumns()
	mistyped[3].DataType = "text"
	err = compareSchema("market_history", CanonicalSchema, mistyped)
	require.ErrorIs(t, err, ErrSchemaConflict)

	wrongNull := canonicalColumns()
	wrongNull[0].Nullable = "YES"
	err = compareSchema("market_history", CanonicalSchema, wrongNull)
	require.ErrorIs(t, err, ErrSchemaConflict)
}

func TestValidIdentifier(t *testing.T) {
	require.NoError(t, validIdentifier("market_history"))
	require.Error(t, validIdentifier("market-history"))
	require.Error(t, validIdentifier("1table"))
	require.Error(t, validIdentifier(`x"; DROP TABLE y; --`))
}

func TestBuildInsert(t *testing.T) {
	price := 65000.12
	updated := time.Date(2026, 8, 29, 9, 59, 58, 0, time.UTC)
	records := []etl.Record{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", CurrentPrice: &price, LastUpdated: &updated, IngestedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)},
		{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", CurrentPrice: &price, IngestedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)},
	}

	query, args := buildInsert("market_history", records)
	require.Contains(t, query, `INSERT INTO "market_history"`)
	require.Contains(t, query, "($1, $2, $3, $4, $5, $6, $7, $8)")
	require.Contains(t, query, "($9, $10, $11, $12, $13, $14, $15, $16)")
	require.Len(t, args, 16)

	require.Equal(t, "bitcoin", args[0])
	require.Equal(t, sql.NullFloat64{Float64: price, Valid: true}, args[3])
	require.Equal(t, sql.NullFloat64{}, args[4], "nil market cap maps to NULL")
	require.Equal(t, sql.NullTime{Time: updated, Valid: true}, args[6])
	require.Equal(t, sql.NullTime{}, args[14], "nil last_updated maps to NULL")
}

func TestNewValidatesInputs(t *testing.T) {
	_, err := New(nil, "market_history")
	require.Error(t, err)
}
