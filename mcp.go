package dbtools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers every database tool on the given MCP server.
func RegisterMCPTools(mcpServer *server.MCPServer, db *DBTools) {
	queryTool := mcp.NewTool("db_query",
		mcp.WithDescription("Execute a SELECT query and return results as JSON. Use this tool to read data from the database."),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The SELECT query to execute"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of rows to return (default: 1000)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(queryTool, db.loggedToolHandler("db_query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		limit := req.GetInt("limit", 0)
		return toolResult(db.Query(ctx, QueryInput{SQL: sql, Limit: limit}))
	}))

	executeTool := mcp.NewTool("db_execute",
		mcp.WithDescription("Execute a write operation (INSERT, UPDATE, DELETE, CREATE, ALTER, DROP, TRUNCATE, GRANT, REVOKE). Use this tool to modify data or database structure."),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The SQL statement to execute"),
		),
	)
	mcpServer.AddTool(executeTool, db.loggedToolHandler("db_execute", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		return toolResult(db.Execute(ctx, ExecuteInput{SQL: sql}))
	}))

	countTool := mcp.NewTool("db_count",
		mcp.WithDescription("Count rows in a table with an optional WHERE clause."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name, optionally schema-qualified (e.g. \"public.users\")"),
		),
		mcp.WithString("where",
			mcp.Description("Optional WHERE clause without the WHERE keyword"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(countTool, db.loggedToolHandler("db_count", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		where := req.GetString("where", "")
		return toolResult(db.Count(ctx, CountInput{Table: table, Where: where}))
	}))

	listTablesTool := mcp.NewTool("db_list_tables",
		mcp.WithDescription("List all tables in a schema with estimated row counts and sizes."),
		mcp.WithString("schema",
			mcp.Description("Schema name (defaults to 'public')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listTablesTool, db.loggedToolHandler("db_list_tables", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		schema := req.GetString("schema", "")
		return toolResult(db.ListTables(ctx, ListTablesInput{Schema: schema}))
	}))

	getSchemaTool := mcp.NewTool("db_get_schema",
		mcp.WithDescription("Get detailed schema information for a table: columns, types, nullability, defaults."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name (without schema prefix)"),
		),
		mcp.WithString("schema",
			mcp.Description("Schema name (defaults to 'public')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(getSchemaTool, db.loggedToolHandler("db_get_schema", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		schema := req.GetString("schema", "")
		return toolResult(db.GetSchema(ctx, GetSchemaInput{Table: table, Schema: schema}))
	}))

	getIndexesTool := mcp.NewTool("db_get_indexes",
		mcp.WithDescription("List indexes for a table or an entire schema, with sizes and definitions."),
		mcp.WithString("table",
			mcp.Description("Optional table name to filter indexes"),
		),
		mcp.WithString("schema",
			mcp.Description("Schema name (defaults to 'public')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(getIndexesTool, db.loggedToolHandler("db_get_indexes", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table := req.GetString("table", "")
		schema := req.GetString("schema", "")
		return toolResult(db.GetIndexes(ctx, GetIndexesInput{Table: table, Schema: schema}))
	}))

	getStatsTool := mcp.NewTool("db_get_stats",
		mcp.WithDescription("Get detailed statistics for a table: row counts, sizes, dead tuples, vacuum/analyze history."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name (without schema prefix)"),
		),
		mcp.WithString("schema",
			mcp.Description("Schema name (defaults to 'public')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(getStatsTool, db.loggedToolHandler("db_get_stats", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		schema := req.GetString("schema", "")
		return toolResult(db.GetStats(ctx, GetStatsInput{Table: table, Schema: schema}))
	}))

	explainTool := mcp.NewTool("db_explain",
		mcp.WithDescription("Run EXPLAIN (optionally ANALYZE) on a query to see its execution plan and timing."),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The SQL query to analyze"),
		),
		mcp.WithBoolean("analyze",
			mcp.Description("Whether to actually execute the query (default: true)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(explainTool, db.loggedToolHandler("db_explain", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		analyze := req.GetBool("analyze", true)
		return toolResult(db.Explain(ctx, ExplainInput{SQL: sql, Analyze: analyze}))
	}))

	sampleTool := mcp.NewTool("db_get_sample",
		mcp.WithDescription("Get sample rows from a table to preview its data without writing SQL."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name (without schema prefix)"),
		),
		mcp.WithString("schema",
			mcp.Description("Schema name (defaults to 'public')"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of rows to return (default: 10, max: 100)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(sampleTool, db.loggedToolHandler("db_get_sample", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		schema := req.GetString("schema", "")
		limit := req.GetInt("limit", 0)
		return toolResult(db.Sample(ctx, SampleInput{Table: table, Schema: schema, Limit: limit}))
	}))

	healthTool := mcp.NewTool("db_health",
		mcp.WithDescription("Check database connection health."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(healthTool, db.loggedToolHandler("db_health", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toolResult(db.Health(ctx))
	}))
}

// toolResult marshals a tool output struct into an MCP text result.
func toolResult(output any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return mcp.NewToolResultError("failed to marshal tool result"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// loggedToolHandler wraps a tool handler to log request and response lengths.
func (d *DBTools) loggedToolHandler(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqLen := requestLength(req)
		result, err := handler(ctx, req)
		respLen := resultLength(result)
		d.logger.Info().
			Str("tool", tool).
			Int("request_bytes", reqLen).
			Int("response_bytes", respLen).
			Msg("tool call")
		return result, err
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
