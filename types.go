package dbtools

// QueryInput is the input for the db_query tool.
type QueryInput struct {
	SQL   string `json:"sql"`
	Limit int    `json:"limit"`
}

// QueryOutput is the output of the db_query tool. All failures are reported
// through Error with Success false; callers never see a Go error.
type QueryOutput struct {
	Success         bool             `json:"success"`
	Rows            int              `json:"rows"`
	Columns         []string         `json:"columns"`
	Data            []map[string]any `json:"data"`
	ExecutionTimeMs float64          `json:"execution_time_ms"`
	Error           string           `json:"error,omitempty"`
}

// ExecuteInput is the input for the db_execute tool.
type ExecuteInput struct {
	SQL string `json:"sql"`
}

// ExecuteOutput is the output of the db_execute tool.
type ExecuteOutput struct {
	Success         bool    `json:"success"`
	RowsAffected    int64   `json:"rows_affected"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	Message         string  `json:"message,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// CountInput is the input for the db_count tool.
type CountInput struct {
	Table string `json:"table"`
	Where string `json:"where"`
}

// CountOutput is the output of the db_count tool.
type CountOutput struct {
	Success         bool    `json:"success"`
	Table           string  `json:"table"`
	Count           int64   `json:"count"`
	Where           string  `json:"where,omitempty"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	Error           string  `json:"error,omitempty"`
}

// ListTablesInput is the input for the db_list_tables tool.
type ListTablesInput struct {
	Schema string `json:"schema"`
}

// TableEntry is a single table in the db_list_tables output.
type TableEntry struct {
	Name          string `json:"table_name"`
	Size          string `json:"size"`
	EstimatedRows int64  `json:"estimated_rows"`
}

// ListTablesOutput is the output of the db_list_tables tool.
type ListTablesOutput struct {
	Success     bool         `json:"success"`
	Schema      string       `json:"schema"`
	Tables      []TableEntry `json:"tables"`
	TotalTables int          `json:"total_tables"`
	Error       string       `json:"error,omitempty"`
}

// GetSchemaInput is the input for the db_get_schema tool.
type GetSchemaInput struct {
	Table  string `json:"table"`
	Schema string `json:"schema"`
}

// ColumnInfo describes a single column.
type ColumnInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Nullable  bool   `json:"nullable"`
	Default   string `json:"default,omitempty"`
	MaxLength int64  `json:"max_length,omitempty"`
}

// GetSchemaOutput is the output of the db_get_schema tool.
type GetSchemaOutput struct {
	Success  bool         `json:"success"`
	Table    string       `json:"table"`
	Schema   string       `json:"schema"`
	FullName string       `json:"full_name"`
	RowCount int64        `json:"row_count"`
	Columns  []ColumnInfo `json:"columns"`
	Error    string       `json:"error,omitempty"`
}

// GetIndexesInput is the input for the db_get_indexes tool. Table is optional;
// when empty, every index in the schema is listed.
type GetIndexesInput struct {
	Table  string `json:"table"`
	Schema string `json:"schema"`
}

// IndexEntry describes a single index.
type IndexEntry struct {
	Table      string `json:"table_name"`
	Name       string `json:"index_name"`
	Size       string `json:"size"`
	Type       string `json:"index_type"`
	Definition string `json:"definition"`
}

// GetIndexesOutput is the output of the db_get_indexes tool.
type GetIndexesOutput struct {
	Success      bool         `json:"success"`
	Schema       string       `json:"schema"`
	Table        string       `json:"table,omitempty"`
	Indexes      []IndexEntry `json:"indexes"`
	TotalIndexes int          `json:"total_indexes"`
	Error        string       `json:"error,omitempty"`
}

// GetStatsInput is the input for the db_get_stats tool.
type GetStatsInput struct {
	Table  string `json:"table"`
	Schema string `json:"schema"`
}

// SizeInfo groups the size figures in db_get_stats output.
type SizeInfo struct {
	Total   string `json:"total"`
	Table   string `json:"table"`
	Indexes string `json:"indexes"`
}

// MaintenanceInfo groups vacuum and analyze timestamps.
type MaintenanceInfo struct {
	LastVacuum      string `json:"last_vacuum,omitempty"`
	LastAutovacuum  string `json:"last_autovacuum,omitempty"`
	LastAnalyze     string `json:"last_analyze,omitempty"`
	LastAutoanalyze string `json:"last_autoanalyze,omitempty"`
}

// GetStatsOutput is the output of the db_get_stats tool.
type GetStatsOutput struct {
	Success                   bool            `json:"success"`
	Table                     string          `json:"table"`
	Schema                    string          `json:"schema"`
	FullName                  string          `json:"full_name"`
	RowCount                  int64           `json:"row_count"`
	EstimatedLiveRows         int64           `json:"estimated_live_rows"`
	DeadRows                  int64           `json:"dead_rows"`
	ModificationsSinceAnalyze int64           `json:"modifications_since_analyze"`
	Size                      SizeInfo        `json:"size"`
	Maintenance               MaintenanceInfo `json:"maintenance"`
	Error                     string          `json:"error,omitempty"`
}

// ExplainInput is the input for the db_explain tool.
type ExplainInput struct {
	SQL     string `json:"sql"`
	Analyze bool   `json:"analyze"`
}

// ExplainTiming carries timing extracted from the plan plus total wall time.
type ExplainTiming struct {
	PlanningTimeMs  float64 `json:"planning_time_ms,omitempty"`
	ExecutionTimeMs float64 `json:"execution_time_ms,omitempty"`
	TotalTimeMs     float64 `json:"total_time_ms"`
}

// ExplainOutput is the output of the db_explain tool.
type ExplainOutput struct {
	Success  bool          `json:"success"`
	Analyzed bool          `json:"analyzed"`
	Query    string        `json:"query"`
	Plan     []string      `json:"plan"`
	Timing   ExplainTiming `json:"timing"`
	Error    string        `json:"error,omitempty"`
}

// SampleInput is the input for the db_get_sample tool.
type SampleInput struct {
	Table  string `json:"table"`
	Schema string `json:"schema"`
	Limit  int    `json:"limit"`
}

// SampleOutput is the output of the db_get_sample tool.
type SampleOutput struct {
	Success         bool             `json:"success"`
	Table           string           `json:"table"`
	Schema          string           `json:"schema"`
	Rows            int              `json:"rows"`
	Columns         []string         `json:"columns"`
	Data            []map[string]any `json:"data"`
	ExecutionTimeMs float64          `json:"execution_time_ms"`
	Error           string           `json:"error,omitempty"`
}

// HealthOutput is the output of the db_health tool.
type HealthOutput struct {
	Success           bool   `json:"success"`
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	Error             string `json:"error,omitempty"`
}
