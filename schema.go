package dbtools

import (
	"context"
	"fmt"
)

const listTablesSQL = `
SELECT
    t.tablename AS table_name,
    pg_size_pretty(pg_total_relation_size(quote_ident(t.schemaname) || '.' || quote_ident(t.tablename))) AS size,
    COALESCE(s.n_live_tup, 0) AS estimated_rows
FROM pg_tables t
LEFT JOIN pg_stat_user_tables s
    ON t.schemaname = s.schemaname AND t.tablename = s.relname
WHERE t.schemaname = $1
ORDER BY t.tablename`

// ListTables lists all tables in a schema with estimated row counts and
// on-disk sizes.
func (d *DBTools) ListTables(ctx context.Context, input ListTablesInput) *ListTablesOutput {
	schema := input.Schema
	if schema == "" {
		schema = "public"
	}

	result, err := d.RunRead(ctx, ReadRequest{SQL: listTablesSQL, Params: []any{schema}})
	if err != nil {
		return &ListTablesOutput{Schema: schema, Error: d.reportError("list_tables", err)}
	}

	tables := make([]TableEntry, 0, len(result.Rows))
	for _, row := range result.Rows {
		tables = append(tables, TableEntry{
			Name:          asString(row["table_name"]),
			Size:          asString(row["size"]),
			EstimatedRows: asInt64(row["estimated_rows"]),
		})
	}

	return &ListTablesOutput{
		Success:     true,
		Schema:      schema,
		Tables:      tables,
		TotalTables: len(tables),
	}
}

const tableColumnsSQL = `
SELECT
    column_name,
    data_type,
    is_nullable,
    column_default,
    character_maximum_length
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

// GetSchema describes the structure of one table: columns, types,
// nullability, defaults, and a row count.
func (d *DBTools) GetSchema(ctx context.Context, input GetSchemaInput) *GetSchemaOutput {
	ident, schema, err := quoteTable(input.Schema, input.Table)
	if err != nil {
		return &GetSchemaOutput{Table: input.Table, Schema: input.Schema, Error: err.Error()}
	}

	result, err := d.RunRead(ctx, ReadRequest{SQL: tableColumnsSQL, Params: []any{schema, input.Table}})
	if err != nil {
		return &GetSchemaOutput{Table: input.Table, Schema: schema, Error: d.reportError("get_schema", err)}
	}
	if len(result.Rows) == 0 {
		return &GetSchemaOutput{Table: input.Table, Schema: schema,
			Error: fmt.Sprintf("Table %s.%s not found", schema, input.Table)}
	}

	columns := make([]ColumnInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		columns = append(columns, ColumnInfo{
			Name:      asString(row["column_name"]),
			Type:      asString(row["data_type"]),
			Nullable:  asString(row["is_nullable"]) == "YES",
			Default:   asString(row["column_default"]),
			MaxLength: asInt64(row["character_maximum_length"]),
		})
	}

	// Full count can be slow on large tables; a failure here is not fatal.
	var rowCount int64
	countResult, err := d.RunRead(ctx, ReadRequest{
		SQL:   fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", ident),
		Limit: 1,
	})
	if err == nil && len(countResult.Rows) > 0 {
		rowCount = asInt64(countResult.Rows[0]["count"])
	}

	return &GetSchemaOutput{
		Success:  true,
		Table:    input.Table,
		Schema:   schema,
		FullName: fmt.Sprintf("%s.%s", schema, input.Table),
		RowCount: rowCount,
		Columns:  columns,
	}
}

const indexesSQL = `
SELECT
    pi.tablename AS table_name,
    pi.indexname AS index_name,
    pg_size_pretty(pg_relation_size(quote_ident(pi.schemaname) || '.' || quote_ident(pi.indexname))) AS size,
    am.amname AS index_type,
    pi.indexdef AS definition
FROM pg_indexes pi
JOIN pg_class c ON c.relname = pi.indexname
    AND c.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = pi.schemaname)
JOIN pg_am am ON am.oid = c.relam
WHERE pi.schemaname = $1`

// GetIndexes lists indexes for one table, or for the whole schema when no
// table is given.
func (d *DBTools) GetIndexes(ctx context.Context, input GetIndexesInput) *GetIndexesOutput {
	schema := input.Schema
	if schema == "" {
		schema = "public"
	}

	sql := indexesSQL
	params := []any{schema}
	if input.Table != "" {
		sql += " AND pi.tablename = $2"
		params = append(params, input.Table)
	}
	sql += " ORDER BY pi.tablename, pi.indexname"

	result, err := d.RunRead(ctx, ReadRequest{SQL: sql, Params: params})
	if err != nil {
		return &GetIndexesOutput{Schema: schema, Table: input.Table, Error: d.reportError("get_indexes", err)}
	}

	indexes := make([]IndexEntry, 0, len(result.Rows))
	for _, row := range result.Rows {
		indexes = append(indexes, IndexEntry{
			Table:      asString(row["table_name"]),
			Name:       asString(row["index_name"]),
			Size:       asString(row["size"]),
			Type:       asString(row["index_type"]),
			Definition: asString(row["definition"]),
		})
	}

	return &GetIndexesOutput{
		Success:      true,
		Schema:       schema,
		Table:        input.Table,
		Indexes:      indexes,
		TotalIndexes: len(indexes),
	}
}

// asString converts a shaped row value to a string, with nil mapping to "".
func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// asInt64 converts a shaped row value to int64, with nil mapping to 0.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int16:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
