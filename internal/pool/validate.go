package pool

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IsValid reports whether the connection's underlying session is still usable.
// It checks that the session is not already closed, then issues a trivial
// probe and confirms it completes. Any failure is interpreted as false;
// IsValid never returns an error and never panics.
//
// A connection can go stale between idle-in-pool and use: network partition,
// server-side idle timeout, forced disconnect. The executor probes every
// connection immediately after acquisition and discards the ones that fail.
func (m *Manager) IsValid(ctx context.Context, conn *pgxpool.Conn) bool {
	if conn == nil || conn.Conn() == nil {
		return false
	}
	if conn.Conn().IsClosed() {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.settings.ValidationTimeout)
	defer cancel()

	return conn.Conn().Ping(probeCtx) == nil
}
