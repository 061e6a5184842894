package dbtools

// Config is the base configuration used by library mode via New().
type Config struct {
	Pool  PoolConfig  `json:"pool"`
	Query QueryConfig `json:"query"`
}

// ServerConfig embeds Config and adds server-only fields for CLI mode.
type ServerConfig struct {
	Config
	Connection ConnectionConfig `json:"connection"`
	Server     ServerSettings   `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
}

// ConnectionConfig holds database connection parameters used by CLI mode.
// The password is never stored in config; it comes from the environment or
// an interactive prompt.
type ConnectionConfig struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	DBName  string `json:"dbname"`
	User    string `json:"user"`
	SSLMode string `json:"sslmode"`
}

// PoolConfig holds connection pool settings. MinConns and MaxConns are fixed
// once the pool is created.
type PoolConfig struct {
	MinConns              int    `json:"min_conns"`
	MaxConns              int    `json:"max_conns"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds"`
	AcquireTimeoutSeconds int    `json:"acquire_timeout_seconds"`
	MaxConnLifetime       string `json:"max_conn_lifetime"`
	MaxConnIdleTime       string `json:"max_conn_idle_time"`
	HealthCheckPeriod     string `json:"health_check_period"`
}

// QueryConfig holds query execution settings.
type QueryConfig struct {
	// DefaultTimeoutSeconds is the statement timeout applied when the
	// caller does not supply one and no timeout rule matches.
	DefaultTimeoutSeconds int `json:"default_timeout_seconds"`

	// MaxRows is the global ceiling on rows returned by any read. A
	// caller-requested limit is clamped to this value.
	MaxRows int `json:"max_rows"`

	// DefaultLimit is the row limit applied when the caller does not
	// request one.
	DefaultLimit int `json:"default_limit"`

	// MaxRetries is the number of retries beyond the first attempt when a
	// connection-level failure occurs. Zero uses the built-in default;
	// set to a negative value to disable retries.
	MaxRetries int `json:"max_retries"`

	// SampleMaxRows caps the db_get_sample tool.
	SampleMaxRows int `json:"sample_max_rows"`

	TimeoutRules []TimeoutRule `json:"timeout_rules"`
}

// TimeoutRule maps a SQL regex pattern to a specific timeout duration.
type TimeoutRule struct {
	Pattern        string `json:"pattern"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// ServerSettings holds MCP transport settings for CLI mode.
type ServerSettings struct {
	// Transport is "stdio" (default) or "http".
	Transport          string `json:"transport"`
	Port               int    `json:"port"`
	HealthCheckEnabled bool   `json:"health_check_enabled"`
	HealthCheckPath    string `json:"health_check_path"`
}

// LoggingConfig holds logging settings for CLI mode.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stderr (default), stdout, or file path
}

// Built-in defaults applied by New for zero values.
const (
	defaultQueryTimeoutSeconds   = 300
	defaultMaxRows               = 10000
	defaultLimit                 = 1000
	defaultMaxRetries            = 2
	defaultSampleMaxRows         = 100
	defaultMinConns              = 2
	defaultMaxConns              = 25
	defaultConnectTimeoutSeconds = 10
	defaultAcquireTimeoutSeconds = 30
)

// withDefaults fills zero values with built-in defaults.
func (c Config) withDefaults() Config {
	if c.Pool.MinConns == 0 {
		c.Pool.MinConns = defaultMinConns
	}
	if c.Pool.MaxConns == 0 {
		c.Pool.MaxConns = defaultMaxConns
	}
	if c.Pool.ConnectTimeoutSeconds == 0 {
		c.Pool.ConnectTimeoutSeconds = defaultConnectTimeoutSeconds
	}
	if c.Pool.AcquireTimeoutSeconds == 0 {
		c.Pool.AcquireTimeoutSeconds = defaultAcquireTimeoutSeconds
	}
	if c.Query.DefaultTimeoutSeconds == 0 {
		c.Query.DefaultTimeoutSeconds = defaultQueryTimeoutSeconds
	}
	if c.Query.MaxRows == 0 {
		c.Query.MaxRows = defaultMaxRows
	}
	if c.Query.DefaultLimit == 0 {
		c.Query.DefaultLimit = defaultLimit
	}
	if c.Query.MaxRetries == 0 {
		c.Query.MaxRetries = defaultMaxRetries
	}
	if c.Query.SampleMaxRows == 0 {
		c.Query.SampleMaxRows = defaultSampleMaxRows
	}
	return c
}
