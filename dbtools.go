package dbtools

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/garantis-seg/claude-db-tools/internal/pool"
	"github.com/garantis-seg/claude-db-tools/internal/timeout"
)

// DBTools is the core engine behind every tool: it owns the connection pool
// and the resilient execution layer. All exported methods are safe for
// concurrent use from multiple goroutines.
type DBTools struct {
	config   Config
	pool     *pool.Manager
	timeouts *timeout.Manager
	logger   zerolog.Logger
}

// New creates a DBTools instance. connString is a PostgreSQL connection
// string and must include credentials; a missing password is a *ConfigError,
// fatal at startup. No connections are opened here: the pool is constructed
// lazily on first use. Tear it down with Close.
func New(connString string, config Config, logger zerolog.Logger) (*DBTools, error) {
	config = config.withDefaults()

	if connString == "" {
		return nil, &ConfigError{Msg: "connection string must be non-empty"}
	}
	if config.Pool.MinConns < 1 || config.Pool.MaxConns < 1 {
		return nil, &ConfigError{Msg: fmt.Sprintf(
			"pool.min_conns and pool.max_conns must be >= 1 (got %d, %d)",
			config.Pool.MinConns, config.Pool.MaxConns)}
	}
	if config.Pool.MinConns > config.Pool.MaxConns {
		return nil, &ConfigError{Msg: fmt.Sprintf(
			"pool.min_conns (%d) must not exceed pool.max_conns (%d)",
			config.Pool.MinConns, config.Pool.MaxConns)}
	}
	if config.Query.MaxRows < 1 || config.Query.DefaultLimit < 1 {
		return nil, &ConfigError{Msg: "query.max_rows and query.default_limit must be >= 1"}
	}

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("invalid connection string: %v", err)}
	}
	if poolConfig.ConnConfig.Password == "" {
		return nil, &ConfigError{Msg: "database password is required"}
	}

	poolConfig.MinConns = int32(config.Pool.MinConns)
	poolConfig.MaxConns = int32(config.Pool.MaxConns)
	poolConfig.ConnConfig.ConnectTimeout = time.Duration(config.Pool.ConnectTimeoutSeconds) * time.Second
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	if config.Pool.MaxConnLifetime != "" {
		d, err := time.ParseDuration(config.Pool.MaxConnLifetime)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("invalid pool.max_conn_lifetime %q: %v", config.Pool.MaxConnLifetime, err)}
		}
		poolConfig.MaxConnLifetime = d
	}
	if config.Pool.MaxConnIdleTime != "" {
		d, err := time.ParseDuration(config.Pool.MaxConnIdleTime)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("invalid pool.max_conn_idle_time %q: %v", config.Pool.MaxConnIdleTime, err)}
		}
		poolConfig.MaxConnIdleTime = d
	}
	if config.Pool.HealthCheckPeriod != "" {
		d, err := time.ParseDuration(config.Pool.HealthCheckPeriod)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("invalid pool.health_check_period %q: %v", config.Pool.HealthCheckPeriod, err)}
		}
		poolConfig.HealthCheckPeriod = d
	}

	timeoutRules := make([]timeout.Rule, len(config.Query.TimeoutRules))
	for i, r := range config.Query.TimeoutRules {
		if r.TimeoutSeconds <= 0 {
			return nil, &ConfigError{Msg: fmt.Sprintf("timeout_rule with pattern %q has timeout_seconds <= 0", r.Pattern)}
		}
		timeoutRules[i] = timeout.Rule{
			Pattern: r.Pattern,
			Timeout: time.Duration(r.TimeoutSeconds) * time.Second,
		}
	}
	tmgr, err := timeout.NewManager(timeout.Config{
		DefaultTimeout: time.Duration(config.Query.DefaultTimeoutSeconds) * time.Second,
		Rules:          timeoutRules,
	})
	if err != nil {
		return nil, &ConfigError{Msg: err.Error()}
	}

	mgr := pool.NewManager(poolConfig, pool.Settings{
		AcquireTimeout: time.Duration(config.Pool.AcquireTimeoutSeconds) * time.Second,
	}, logger)

	return &DBTools{
		config:   config,
		pool:     mgr,
		timeouts: tmgr,
		logger:   logger,
	}, nil
}

// Close shuts the connection pool down. Idempotent, and safe to call even if
// no connection was ever opened.
func (d *DBTools) Close(ctx context.Context) {
	d.pool.Shutdown()
}

// Ping acquires a connection and verifies the database responds. Used at
// startup to fail fast on bad credentials or an unreachable server.
func (d *DBTools) Ping(ctx context.Context) error {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer d.pool.Release(conn, false)
	return conn.Ping(ctx)
}

// HealthCheck reports whether the database is reachable and answering. Any
// failure yields false; it never returns an error.
func (d *DBTools) HealthCheck(ctx context.Context) bool {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("health check failed to acquire connection")
		return false
	}
	defer d.pool.Release(conn, false)
	return d.pool.IsValid(ctx, conn)
}
