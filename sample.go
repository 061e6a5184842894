package dbtools

import (
	"context"
	"fmt"
)

// Sample returns a preview of rows from a table without requiring the agent
// to write SQL. The limit is clamped to the configured sample ceiling.
func (d *DBTools) Sample(ctx context.Context, input SampleInput) *SampleOutput {
	ident, schema, err := quoteTable(input.Schema, input.Table)
	if err != nil {
		return &SampleOutput{Table: input.Table, Schema: input.Schema, Error: err.Error()}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > d.config.Query.SampleMaxRows {
		limit = d.config.Query.SampleMaxRows
	}

	result, err := d.RunRead(ctx, ReadRequest{
		SQL:    fmt.Sprintf("SELECT * FROM %s LIMIT $1", ident),
		Params: []any{limit},
		Limit:  limit,
	})
	if err != nil {
		return &SampleOutput{Table: input.Table, Schema: schema, Error: d.reportError("get_sample", err)}
	}

	return &SampleOutput{
		Success:         true,
		Table:           input.Table,
		Schema:          schema,
		Rows:            len(result.Rows),
		Columns:         result.Columns,
		Data:            result.Rows,
		ExecutionTimeMs: ms(result.Elapsed),
	}
}

// Health reports database connectivity as a structured status for the
// db_health tool.
func (d *DBTools) Health(ctx context.Context) *HealthOutput {
	healthy := d.HealthCheck(ctx)
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	return &HealthOutput{
		Success:           true,
		Status:            status,
		DatabaseConnected: healthy,
	}
}
