// Package pool manages the bounded set of live database connections shared by
// every tool call. It wraps pgxpool with lazy single construction, explicit
// discard semantics for known-bad connections, and a liveness probe applied
// after acquisition.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var (
	// ErrPoolExhausted means the acquire wait timed out while every
	// connection slot was checked out.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrConnectTimeout means the acquire wait timed out while the pool was
	// still establishing a new connection.
	ErrConnectTimeout = errors.New("timed out connecting to database")

	// ErrClosed means the pool has been shut down.
	ErrClosed = errors.New("connection pool is closed")
)

// Settings controls Manager behavior on top of the pgxpool configuration.
type Settings struct {
	// AcquireTimeout bounds how long Acquire blocks waiting for a free
	// connection. Zero means wait until the caller's context expires.
	AcquireTimeout time.Duration

	// ValidationTimeout bounds the liveness probe in IsValid.
	ValidationTimeout time.Duration
}

// Manager owns the process-wide connection pool. The underlying pgxpool is
// constructed lazily on first Acquire and at most once per Manager. All
// methods are safe for concurrent use.
type Manager struct {
	poolConfig *pgxpool.Config
	settings   Settings
	logger     zerolog.Logger

	mu     sync.Mutex
	pool   *pgxpool.Pool
	closed bool
}

// NewManager creates a Manager around an already-validated pgxpool config.
// No connections are opened until the first Acquire.
func NewManager(poolConfig *pgxpool.Config, settings Settings, logger zerolog.Logger) *Manager {
	if settings.ValidationTimeout <= 0 {
		settings.ValidationTimeout = 2 * time.Second
	}
	return &Manager{
		poolConfig: poolConfig,
		settings:   settings,
		logger:     logger,
	}
}

// get returns the underlying pool, constructing it on first use.
func (m *Manager) get(ctx context.Context) (*pgxpool.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.pool != nil {
		return m.pool, nil
	}

	p, err := pgxpool.NewWithConfig(ctx, m.poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	m.logger.Info().
		Str("host", m.poolConfig.ConnConfig.Host).
		Str("database", m.poolConfig.ConnConfig.Database).
		Int32("min_conns", m.poolConfig.MinConns).
		Int32("max_conns", m.poolConfig.MaxConns).
		Msg("connection pool initialized")

	m.pool = p
	return p, nil
}

// Acquire blocks until a connection is available or the acquire timeout
// elapses. On timeout the failure is classified as ErrPoolExhausted when every
// slot was checked out, ErrConnectTimeout otherwise.
func (m *Manager) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	p, err := m.get(ctx)
	if err != nil {
		return nil, err
	}

	acquireCtx := ctx
	if m.settings.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, m.settings.AcquireTimeout)
		defer cancel()
	}

	conn, err := p.Acquire(acquireCtx)
	if err != nil {
		// Distinguish our wait timeout from the caller giving up.
		if acquireCtx.Err() != nil && ctx.Err() == nil {
			stat := p.Stat()
			if stat.AcquiredConns() >= stat.MaxConns() {
				return nil, fmt.Errorf("all %d connections in use for %s: %w",
					stat.MaxConns(), m.settings.AcquireTimeout, ErrPoolExhausted)
			}
			return nil, fmt.Errorf("no connection after %s: %w",
				m.settings.AcquireTimeout, ErrConnectTimeout)
		}
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return conn, nil
}

// Release returns a connection to the idle set. When discard is true the
// underlying session is destroyed instead, decrementing the pool's live count
// so the next acquisition creates a fresh replacement.
func (m *Manager) Release(conn *pgxpool.Conn, discard bool) {
	if conn == nil {
		return
	}
	if discard {
		// pgxpool removes closed connections from the pool on release.
		_ = conn.Conn().Close(context.Background())
		m.logger.Warn().Msg("discarded bad connection")
	}
	conn.Release()
}

// Shutdown closes every live connection and marks the pool closed. Safe to
// call multiple times and safe to call before the pool was ever used.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
		m.logger.Info().Msg("connection pool closed")
	}
}

// Stat returns live pool statistics, or nil if the pool has not been
// constructed yet.
func (m *Manager) Stat() *pgxpool.Stat {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool == nil {
		return nil
	}
	return m.pool.Stat()
}
