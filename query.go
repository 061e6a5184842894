package dbtools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/garantis-seg/claude-db-tools/internal/sqlguard"
)

// Query executes a read-only statement and returns shaped results. Only
// statements classified as reads (SELECT, WITH) are accepted; everything else
// is rejected before touching a connection. A LIMIT clause is appended when
// the statement has none, and the row count never exceeds
// min(requested limit, max_rows).
func (d *DBTools) Query(ctx context.Context, input QueryInput) *QueryOutput {
	sql := strings.TrimSpace(input.SQL)

	if sqlguard.Classify(sql) != sqlguard.KindRead {
		return &QueryOutput{Error: "Only SELECT queries allowed. Use 'db_execute' tool for write operations."}
	}
	if err := sqlguard.CheckSingleStatement(sql); err != nil {
		return &QueryOutput{Error: err.Error()}
	}

	limit := d.effectiveLimit(input.Limit)
	if !sqlguard.HasLimitClause(sql) {
		sql = fmt.Sprintf("%s LIMIT %d", strings.TrimRight(sql, "; \t\n"), limit)
	}

	result, err := d.RunRead(ctx, ReadRequest{SQL: sql, Limit: input.Limit})
	if err != nil {
		return &QueryOutput{Error: d.reportError("query", err)}
	}

	return &QueryOutput{
		Success:         true,
		Rows:            len(result.Rows),
		Columns:         result.Columns,
		Data:            result.Rows,
		ExecutionTimeMs: ms(result.Elapsed),
	}
}

// Execute runs a write operation (INSERT, UPDATE, DELETE, DDL). Statements
// containing a concurrent-build keyword (e.g. CREATE INDEX CONCURRENTLY) run
// in autocommit mode, since PostgreSQL forbids them inside a transaction.
func (d *DBTools) Execute(ctx context.Context, input ExecuteInput) *ExecuteOutput {
	sql := strings.TrimSpace(input.SQL)

	if sqlguard.Classify(sql) != sqlguard.KindWrite {
		return &ExecuteOutput{Error: fmt.Sprintf(
			"Only write operations allowed. Use 'db_query' tool for SELECT. Allowed: %s",
			strings.Join(sqlguard.WriteKeywords, ", "))}
	}
	if err := sqlguard.CheckSingleStatement(sql); err != nil {
		return &ExecuteOutput{Error: err.Error()}
	}

	result, err := d.RunWrite(ctx, WriteRequest{
		SQL:        sql,
		Autocommit: sqlguard.NeedsAutocommit(sql),
	})
	if err != nil {
		return &ExecuteOutput{Error: d.reportError("execute", err)}
	}

	return &ExecuteOutput{
		Success:         true,
		RowsAffected:    result.RowsAffected,
		ExecutionTimeMs: ms(result.Elapsed),
		Message:         fmt.Sprintf("Statement executed successfully. %d rows affected.", result.RowsAffected),
	}
}

// Count returns the number of rows in a table, optionally filtered by a WHERE
// clause (without the WHERE keyword).
func (d *DBTools) Count(ctx context.Context, input CountInput) *CountOutput {
	ident, err := quoteQualifiedTable(input.Table)
	if err != nil {
		return &CountOutput{Table: input.Table, Error: err.Error()}
	}

	sql := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", ident)
	if input.Where != "" {
		sql = fmt.Sprintf("%s WHERE %s", sql, input.Where)
	}
	if err := sqlguard.CheckSingleStatement(sql); err != nil {
		return &CountOutput{Table: input.Table, Error: err.Error()}
	}

	result, err := d.RunRead(ctx, ReadRequest{SQL: sql, Limit: 1})
	if err != nil {
		return &CountOutput{Table: input.Table, Error: d.reportError("count", err)}
	}

	var count int64
	if len(result.Rows) > 0 {
		if n, ok := result.Rows[0]["count"].(int64); ok {
			count = n
		}
	}

	return &CountOutput{
		Success:         true,
		Table:           input.Table,
		Count:           count,
		Where:           input.Where,
		ExecutionTimeMs: ms(result.Elapsed),
	}
}

// identPattern matches a bare PostgreSQL identifier.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// quoteQualifiedTable validates and quotes a table name that may carry a
// schema prefix. Identifiers cannot be bound as query parameters, so they are
// validated against a strict pattern and quoted instead.
func quoteQualifiedTable(table string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("table name is required")
	}
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	for _, part := range parts {
		if !identPattern.MatchString(part) {
			return "", fmt.Errorf("invalid table name %q", table)
		}
	}
	return pgx.Identifier(parts).Sanitize(), nil
}

// quoteTable validates and quotes a schema-qualified table from separate
// schema and table inputs, defaulting the schema to public.
func quoteTable(schema, table string) (string, string, error) {
	if schema == "" {
		schema = "public"
	}
	if table == "" {
		return "", "", fmt.Errorf("table name is required")
	}
	if !identPattern.MatchString(schema) || !identPattern.MatchString(table) {
		return "", "", fmt.Errorf("invalid table name %q.%q", schema, table)
	}
	return pgx.Identifier{schema, table}.Sanitize(), schema, nil
}

// reportError logs a failed operation and returns the message shown to the
// agent. Error text passes through unchanged so the agent sees exactly what
// the server reported.
func (d *DBTools) reportError(tool string, err error) string {
	d.logger.Error().Err(err).Str("tool", tool).Msg("operation failed")
	return err.Error()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
