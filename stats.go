package dbtools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/garantis-seg/claude-db-tools/internal/sqlguard"
)

const tableStatsSQL = `
SELECT
    schemaname,
    relname AS table_name,
    n_live_tup AS live_rows,
    n_dead_tup AS dead_rows,
    n_mod_since_analyze AS modifications_since_analyze,
    last_vacuum,
    last_autovacuum,
    last_analyze,
    last_autoanalyze
FROM pg_stat_user_tables
WHERE schemaname = $1 AND relname = $2`

const tableSizesSQL = `
SELECT
    pg_size_pretty(pg_total_relation_size($1)) AS total_size,
    pg_size_pretty(pg_table_size($1)) AS table_size,
    pg_size_pretty(pg_indexes_size($1)) AS indexes_size`

// GetStats returns table health figures: live/dead tuples, sizes, and
// vacuum/analyze history.
func (d *DBTools) GetStats(ctx context.Context, input GetStatsInput) *GetStatsOutput {
	ident, schema, err := quoteTable(input.Schema, input.Table)
	if err != nil {
		return &GetStatsOutput{Table: input.Table, Schema: input.Schema, Error: err.Error()}
	}
	fullName := fmt.Sprintf("%s.%s", schema, input.Table)

	statsResult, err := d.RunRead(ctx, ReadRequest{SQL: tableStatsSQL, Params: []any{schema, input.Table}, Limit: 1})
	if err != nil {
		return &GetStatsOutput{Table: input.Table, Schema: schema, Error: d.reportError("get_stats", err)}
	}
	if len(statsResult.Rows) == 0 {
		return &GetStatsOutput{Table: input.Table, Schema: schema,
			Error: fmt.Sprintf("Table %s not found", fullName)}
	}
	stats := statsResult.Rows[0]

	var size SizeInfo
	sizeResult, err := d.RunRead(ctx, ReadRequest{SQL: tableSizesSQL, Params: []any{fullName}, Limit: 1})
	if err == nil && len(sizeResult.Rows) > 0 {
		size = SizeInfo{
			Total:   asString(sizeResult.Rows[0]["total_size"]),
			Table:   asString(sizeResult.Rows[0]["table_size"]),
			Indexes: asString(sizeResult.Rows[0]["indexes_size"]),
		}
	}

	var rowCount int64
	countResult, err := d.RunRead(ctx, ReadRequest{
		SQL:   fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", ident),
		Limit: 1,
	})
	if err == nil && len(countResult.Rows) > 0 {
		rowCount = asInt64(countResult.Rows[0]["count"])
	}

	return &GetStatsOutput{
		Success:                   true,
		Table:                     input.Table,
		Schema:                    schema,
		FullName:                  fullName,
		RowCount:                  rowCount,
		EstimatedLiveRows:         asInt64(stats["live_rows"]),
		DeadRows:                  asInt64(stats["dead_rows"]),
		ModificationsSinceAnalyze: asInt64(stats["modifications_since_analyze"]),
		Size:                      size,
		Maintenance: MaintenanceInfo{
			LastVacuum:      asString(stats["last_vacuum"]),
			LastAutovacuum:  asString(stats["last_autovacuum"]),
			LastAnalyze:     asString(stats["last_analyze"]),
			LastAutoanalyze: asString(stats["last_autoanalyze"]),
		},
	}
}

var (
	planningTimePattern  = regexp.MustCompile(`Planning Time: ([\d.]+) ms`)
	executionTimePattern = regexp.MustCompile(`Execution Time: ([\d.]+) ms`)
)

// Explain runs EXPLAIN on a query and returns the plan lines plus timing
// extracted from the plan. With Analyze the query is actually executed, so
// only read statements are accepted; EXPLAIN ANALYZE of a write would apply
// it.
func (d *DBTools) Explain(ctx context.Context, input ExplainInput) *ExplainOutput {
	sql := strings.TrimSpace(input.SQL)

	if sqlguard.Classify(sql) != sqlguard.KindRead {
		return &ExplainOutput{Query: input.SQL, Analyzed: input.Analyze,
			Error: "Only SELECT queries can be explained."}
	}
	if err := sqlguard.CheckSingleStatement(sql); err != nil {
		return &ExplainOutput{Query: input.SQL, Analyzed: input.Analyze, Error: err.Error()}
	}

	explainCmd := "EXPLAIN (VERBOSE, FORMAT TEXT)"
	if input.Analyze {
		explainCmd = "EXPLAIN (ANALYZE, BUFFERS, VERBOSE, FORMAT TEXT)"
	}

	start := time.Now()
	result, err := d.RunRead(ctx, ReadRequest{
		SQL:   fmt.Sprintf("%s %s", explainCmd, sql),
		Limit: d.config.Query.MaxRows,
	})
	if err != nil {
		return &ExplainOutput{Query: input.SQL, Analyzed: input.Analyze, Error: d.reportError("explain", err)}
	}

	planLines := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		planLines = append(planLines, asString(row["QUERY PLAN"]))
	}

	timing := ExplainTiming{TotalTimeMs: ms(time.Since(start))}
	if input.Analyze {
		for _, line := range planLines {
			if m := planningTimePattern.FindStringSubmatch(line); m != nil {
				timing.PlanningTimeMs, _ = strconv.ParseFloat(m[1], 64)
			} else if m := executionTimePattern.FindStringSubmatch(line); m != nil {
				timing.ExecutionTimeMs, _ = strconv.ParseFloat(m[1], 64)
			}
		}
	}

	return &ExplainOutput{
		Success:  true,
		Analyzed: input.Analyze,
		Query:    input.SQL,
		Plan:     planLines,
		Timing:   timing,
	}
}
