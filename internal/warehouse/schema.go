package warehouse

import (
	"fmt"
	"regexp"
	"strings"
)

// ColumnType is the semantic type of a warehouse column. The mapping to
// Postgres types is fixed here and validated once at ensure-table time,
// never re-interpreted per row.
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeFloat     ColumnType = "float"
	TypeTimestamp ColumnType = "timestamp"
)

// Column is one entry of a typed record definition.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// CanonicalSchema is the analytical table's column set. The trailing
// "timestamp" column is the pipeline ingestion marker; last_updated is the
// provider-reported update time.
var CanonicalSchema = []Column{
	{Name: "id", Type: TypeString},
	{Name: "symbol", Type: TypeString},
	{Name: "name", Type: TypeString},
	{Name: "current_price", Type: TypeFloat, Nullable: true},
	{Name: "market_cap", Type: TypeFloat, Nullable: true},
	{Name: "total_volume", Type: TypeFloat, Nullable: true},
	{Name: "last_updated", Type: TypeTimestamp, Nullable: true},
	{Name: "timestamp", Type: TypeTimestamp},
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("warehouse: invalid identifier %q", name)
	}
	return nil
}

func (t ColumnType) pgType() string {
	switch t {
	case TypeString:
		return "TEXT"
	case TypeFloat:
		return "DOUBLE PRECISION"
	case TypeTimestamp:
		return "TIMESTAMPTZ"
	default:
		return ""
	}
}

// pgDataType is how information_schema reports each column type.
func (t ColumnType) pgDataType() string {
	switch t {
	case TypeString:
		return "text"
	case TypeFloat:
		return "double precision"
	case TypeTimestamp:
		return "timestamp with time zone"
	default:
		return ""
	}
}

// createTableDDL renders the idempotent create statement for a schema.
func createTableDDL(table string, schema []Column) string {
	cols := make([]string, 0, len(schema))
	for _, col := range schema {
		def := fmt.Sprintf("%s %s", quoteIdent(col.Name), col.Type.pgType())
		if !col.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n);", quoteIdent(table), strings.Join(cols, ",\n    "))
}

// columnInfo is one information_schema row describing an existing column.
type columnInfo struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
	Nullable string `db:"is_nullable"`
}

// compareSchema verifies that every expected column exists with the expected
// type and nullability. Extra columns are tolerated; a missing or mistyped
// column is a conflict.
func compareSchema(table string, expected []Column, actual []columnInfo) error {
	byName := make(map[string]columnInfo, len(actual))
	for _, col := range actual {
		byName[col.Name] = col
	}
	for _, want := range expected {
		got, ok := byName[want.Name]
		if !ok {
			return fmt.Errorf("%w: table %s missing column %s", ErrSchemaConflict, table, want.Name)
		}
		if !strings.EqualFold(got.DataType, want.Type.pgDataType()) {
			return fmt.Errorf("%w: table %s column %s has type %s, want %s",
				ErrSchemaConflict, table, want.Name, got.DataType, want.Type.pgDataType())
		}
		gotNullable := strings.EqualFold(got.Nullable, "YES")
		if gotNullable != want.Nullable {
			return fmt.Errorf("%w: table %s column %s nullability mismatch (got nullable=%t, want %t)",
				ErrSchemaConflict, table, want.Name, gotNullable, want.Nullable)
		}
	}
	return nil
}

// quoteIdent double-quotes an identifier; "timestamp" in particular reads
// better quoted in generated SQL.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
