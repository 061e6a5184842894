package dbtools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net"
	"net/netip"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReadRequest describes a single read operation. Constructed per call, never
// persisted.
type ReadRequest struct {
	SQL    string
	Params []any

	// Limit caps the number of rows fetched. Zero means the configured
	// default; any value is clamped to the global max_rows ceiling.
	Limit int

	// Timeout overrides the statement timeout for this call. Zero resolves
	// through the configured timeout rules and default.
	Timeout time.Duration

	// MaxRetries overrides the retry budget. Zero uses the configured
	// value; negative disables retries.
	MaxRetries int
}

// ReadResult is an ordered sequence of uniform records plus the column list
// and elapsed wall time.
type ReadResult struct {
	Columns []string
	Rows    []map[string]any
	Elapsed time.Duration
}

// WriteRequest describes a single mutating operation.
type WriteRequest struct {
	SQL    string
	Params []any

	// Autocommit switches the operation to immediate-commit execution,
	// required for statements PostgreSQL forbids inside a transaction
	// block (e.g. CREATE INDEX CONCURRENTLY). No rollback is possible or
	// attempted in this mode.
	Autocommit bool

	Timeout    time.Duration
	MaxRetries int
}

// WriteResult reports rows affected and elapsed wall time.
type WriteResult struct {
	RowsAffected int64
	Elapsed      time.Duration
}

// RunRead executes a query through the resilient executor and returns at most
// the effective row cap, preserving column and row order as produced by the
// database. Statements that produce no result set yield an empty sequence.
// Excess rows are left unfetched rather than fetched and truncated.
func (d *DBTools) RunRead(ctx context.Context, req ReadRequest) (*ReadResult, error) {
	start := time.Now()
	limit := d.effectiveLimit(req.Limit)
	stmtTimeout, rule := d.timeouts.Resolve(req.SQL, req.Timeout)

	var result *ReadResult
	err := d.withConn(ctx, stmtTimeout, req.MaxRetries, func(ctx context.Context, conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, req.SQL, req.Params...)
		if err != nil {
			return err
		}
		result, err = collectRows(rows, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)

	logEvent := d.logger.Info().
		Str("sql", truncateForLog(req.SQL, 200)).
		Dur("duration", result.Elapsed).
		Int("row_count", len(result.Rows)).
		Int("limit", limit)
	if rule != "" {
		logEvent = logEvent.Str("timeout_rule", rule)
	}
	logEvent.Msg("read executed")

	return result, nil
}

// RunWrite executes a mutating statement through the resilient executor.
// With Autocommit false (the default) the statement runs in an explicit
// transaction: committed on success, rolled back before any error propagates,
// so no call ever leaves a half-applied or open transaction behind. With
// Autocommit true each statement commits immediately and rollback is not
// attempted.
//
// A transient connection failure triggers a retry of the whole operation. If
// the server actually committed before the connection dropped, the retry
// applies the statement twice; prefer idempotent statements for anything
// retried automatically.
func (d *DBTools) RunWrite(ctx context.Context, req WriteRequest) (*WriteResult, error) {
	start := time.Now()
	stmtTimeout, rule := d.timeouts.Resolve(req.SQL, req.Timeout)

	var affected int64
	err := d.withConn(ctx, stmtTimeout, req.MaxRetries, func(ctx context.Context, conn *pgxpool.Conn) error {
		if req.Autocommit {
			tag, err := conn.Exec(ctx, req.SQL, req.Params...)
			if err != nil {
				return err
			}
			affected = tag.RowsAffected()
			return nil
		}

		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}
		// Rollback is a no-op after a successful commit.
		defer tx.Rollback(ctx)

		tag, err := tx.Exec(ctx, req.SQL, req.Params...)
		if err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if affected < 0 {
		affected = 0
	}

	elapsed := time.Since(start)
	logEvent := d.logger.Info().
		Str("sql", truncateForLog(req.SQL, 200)).
		Dur("duration", elapsed).
		Int64("rows_affected", affected).
		Bool("autocommit", req.Autocommit)
	if rule != "" {
		logEvent = logEvent.Str("timeout_rule", rule)
	}
	logEvent.Msg("write executed")

	return &WriteResult{RowsAffected: affected, Elapsed: elapsed}, nil
}

// withConn is the shared acquire-validate-retry loop around one operation
// body. Connections that fail validation or suffer a connection-level fault
// are discarded and replaced with a fresh one, up to the retry budget. The
// statement timeout is applied per attempt, not cumulatively.
func (d *DBTools) withConn(ctx context.Context, stmtTimeout time.Duration, retryBudget int, body func(context.Context, *pgxpool.Conn) error) error {
	maxAttempts := 1 + d.retries(retryBudget)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		conn, err := d.pool.Acquire(ctx)
		if err != nil {
			// Pool exhaustion and connect timeouts are surfaced as-is;
			// retrying here would only pile more waiters on the pool.
			return err
		}

		if !d.pool.IsValid(ctx, conn) {
			d.pool.Release(conn, true)
			lastErr = ErrStaleConnection
			d.logger.Warn().Int("attempt", attempt+1).Msg("stale connection discarded")
			continue
		}

		if err := setStatementTimeout(ctx, conn, stmtTimeout); err != nil {
			d.pool.Release(conn, true)
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return &QueryError{Err: err}
		}

		err = body(ctx, conn)
		if err == nil {
			d.pool.Release(conn, false)
			return nil
		}

		if isStatementTimeout(err) {
			// The connection is fine; the server aborted the statement.
			d.pool.Release(conn, false)
			return &StatementTimeoutError{Timeout: stmtTimeout, Err: err}
		}
		if isRetryable(err) {
			d.pool.Release(conn, true)
			lastErr = err
			d.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("transient error, retrying with fresh connection")
			continue
		}

		d.pool.Release(conn, false)
		return &QueryError{Err: err}
	}

	if errors.Is(lastErr, ErrStaleConnection) {
		return fmt.Errorf("gave up after %d attempt(s): %w", maxAttempts, ErrStaleConnection)
	}
	return &TransientError{Attempts: maxAttempts, Err: lastErr}
}

// retries resolves the effective retry budget. Negative disables retries,
// zero falls back to the configured value.
func (d *DBTools) retries(override int) int {
	if override < 0 {
		return 0
	}
	if override > 0 {
		return override
	}
	if d.config.Query.MaxRetries < 0 {
		return 0
	}
	return d.config.Query.MaxRetries
}

// effectiveLimit combines a caller-requested limit with the configured
// default and the global max_rows ceiling.
func (d *DBTools) effectiveLimit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = d.config.Query.DefaultLimit
	}
	if limit > d.config.Query.MaxRows {
		limit = d.config.Query.MaxRows
	}
	return limit
}

// setStatementTimeout applies the server-side statement timeout to the
// session. The value is formatted from a validated integer, never from
// caller-supplied text.
func setStatementTimeout(ctx context.Context, conn *pgxpool.Conn, stmtTimeout time.Duration) error {
	seconds := int(stmtTimeout / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	_, err := conn.Exec(ctx, fmt.Sprintf("SET statement_timeout = '%ds'", seconds))
	return err
}

// collectRows reads at most limit rows from pgx.Rows. Remaining rows are left
// on the wire: Close drops them without transfer.
func collectRows(rows pgx.Rows, limit int) (*ReadResult, error) {
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	resultRows := make([]map[string]any, 0)
	for len(resultRows) < limit && rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = convertValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ReadResult{Columns: columns, Rows: resultRows}, nil
}

// convertValue converts a pgx-returned value to a JSON-friendly Go type.
func convertValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case float32:
		return convertFloat(float64(val))
	case float64:
		return convertFloat(val)
	case netip.Prefix:
		return val.String()
	case net.HardwareAddr:
		return val.String()
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		if val.NaN {
			return "NaN"
		}
		if val.InfinityModifier == pgtype.Infinity {
			return "Infinity"
		}
		if val.InfinityModifier == pgtype.NegativeInfinity {
			return "-Infinity"
		}
		b, err := val.MarshalJSON()
		if err != nil {
			return nil
		}
		return string(b)
	case [16]byte:
		// UUID
		return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])
	case []byte:
		// bytea; base64 encode
		return base64.StdEncoding.EncodeToString(val)
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = convertValue(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = convertValue(v)
		}
		return result
	default:
		return val
	}
}

func convertFloat(f float64) any {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return f
}

// truncateForLog truncates a string for log output to avoid oversized log
// entries, without splitting a UTF-8 sequence.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncateAt := maxLen
	for truncateAt > 0 && s[truncateAt]&0xC0 == 0x80 {
		truncateAt--
	}
	return s[:truncateAt] + "...[truncated]"
}
