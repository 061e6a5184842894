package dbtools

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/garantis-seg/claude-db-tools/internal/pool"
)

// Pool-level failures. Not retried by the executor; the caller decides
// whether to try again at a higher level.
var (
	ErrPoolExhausted  = pool.ErrPoolExhausted
	ErrConnectTimeout = pool.ErrConnectTimeout
	ErrPoolClosed     = pool.ErrClosed
)

// ErrStaleConnection is surfaced when every retry attempt pulled a connection
// that failed the liveness probe. Individual stale connections are discarded
// and retried internally; callers only see this after the budget is spent.
var ErrStaleConnection = errors.New("no valid connection available")

// ConfigError reports invalid configuration at construction time.
// It is fatal at startup and never retried.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Msg
}

// TransientError wraps a retryable connection-level failure after the
// retry budget is exhausted.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// QueryError wraps a non-retryable database error: bad SQL, constraint
// violations, permission denials. The underlying message is preserved
// verbatim so the agent sees exactly what the server reported.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string { return e.Err.Error() }

func (e *QueryError) Unwrap() error { return e.Err }

// StatementTimeoutError reports that the server aborted the statement because
// it exceeded the statement timeout. Never retried: a timeout reflects real
// query cost, not transient connectivity.
type StatementTimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *StatementTimeoutError) Error() string {
	return fmt.Sprintf("statement timed out after %s: %v", e.Timeout, e.Err)
}

func (e *StatementTimeoutError) Unwrap() error { return e.Err }

// SQLSTATE classes and codes that indicate a broken connection rather than a
// bad statement. See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	sqlstateConnectionClass  = "08"    // connection_exception and friends
	sqlstateAdminShutdown    = "57P01" // server told us to go away
	sqlstateCrashShutdown    = "57P02"
	sqlstateCannotConnectNow = "57P03"
	sqlstateQueryCanceled    = "57014" // statement_timeout fired
)

// isRetryable reports whether err indicates a broken connection that is worth
// retrying with a fresh one. Semantic errors (syntax, constraints, permission)
// and statement timeouts are never retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if isStatementTimeout(err) {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == sqlstateConnectionClass {
			return true
		}
		switch pgErr.Code {
		case sqlstateAdminShutdown, sqlstateCrashShutdown, sqlstateCannotConnectNow:
			return true
		}
		return false
	}

	// Interface-level failures: resets, broken pipes, unexpected EOF mid-read.
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// isStatementTimeout reports whether err is the server-side statement_timeout
// abort (SQLSTATE 57014).
func isStatementTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlstateQueryCanceled
}
