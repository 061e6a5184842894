package dbtools

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsRetryableConnectionErrors(t *testing.T) {
	t.Parallel()
	retryable := []error{
		&pgconn.PgError{Code: "08000"}, // connection_exception
		&pgconn.PgError{Code: "08006"}, // connection_failure
		&pgconn.PgError{Code: "08003"}, // connection_does_not_exist
		&pgconn.PgError{Code: "57P01"}, // admin_shutdown
		&pgconn.PgError{Code: "57P02"}, // crash_shutdown
		&pgconn.PgError{Code: "57P03"}, // cannot_connect_now
		syscall.ECONNRESET,
		syscall.EPIPE,
		io.EOF,
		io.ErrUnexpectedEOF,
		&net.OpError{Op: "read", Err: errors.New("connection reset by peer")},
		fmt.Errorf("query failed: %w", syscall.ECONNRESET),
	}
	for _, err := range retryable {
		if !isRetryable(err) {
			t.Errorf("expected %v to be retryable", err)
		}
	}
}

func TestIsRetryableSemanticErrors(t *testing.T) {
	t.Parallel()
	notRetryable := []error{
		nil,
		&pgconn.PgError{Code: "42601"}, // syntax_error
		&pgconn.PgError{Code: "23505"}, // unique_violation
		&pgconn.PgError{Code: "42501"}, // insufficient_privilege
		&pgconn.PgError{Code: "57014"}, // query_canceled (statement timeout)
		errors.New("some application error"),
	}
	for _, err := range notRetryable {
		if isRetryable(err) {
			t.Errorf("expected %v to not be retryable", err)
		}
	}
}

func TestIsStatementTimeout(t *testing.T) {
	t.Parallel()
	if !isStatementTimeout(&pgconn.PgError{Code: "57014"}) {
		t.Error("expected 57014 to be a statement timeout")
	}
	if !isStatementTimeout(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "57014"})) {
		t.Error("expected wrapped 57014 to be a statement timeout")
	}
	if isStatementTimeout(&pgconn.PgError{Code: "08006"}) {
		t.Error("expected 08006 to not be a statement timeout")
	}
	if isStatementTimeout(errors.New("nope")) {
		t.Error("expected plain error to not be a statement timeout")
	}
}

func TestQueryErrorPreservesMessage(t *testing.T) {
	t.Parallel()
	underlying := &pgconn.PgError{Code: "42601", Message: `syntax error at or near "FRM"`}
	qe := &QueryError{Err: underlying}

	if qe.Error() != underlying.Error() {
		t.Errorf("QueryError message changed: %q vs %q", qe.Error(), underlying.Error())
	}

	var pgErr *pgconn.PgError
	if !errors.As(qe, &pgErr) || pgErr.Code != "42601" {
		t.Error("expected to unwrap the underlying PgError")
	}
}

func TestTransientErrorUnwrap(t *testing.T) {
	t.Parallel()
	te := &TransientError{Attempts: 3, Err: syscall.ECONNRESET}

	if !errors.Is(te, syscall.ECONNRESET) {
		t.Error("expected TransientError to unwrap to the underlying error")
	}
}

func TestStatementTimeoutErrorUnwrap(t *testing.T) {
	t.Parallel()
	ste := &StatementTimeoutError{Timeout: 5 * time.Second, Err: &pgconn.PgError{Code: "57014"}}

	var pgErr *pgconn.PgError
	if !errors.As(ste, &pgErr) || pgErr.Code != "57014" {
		t.Error("expected to unwrap the underlying PgError")
	}
}

func TestErrorKindsAreDistinct(t *testing.T) {
	t.Parallel()
	// Each sentinel matches itself and nothing else.
	sentinels := []error{ErrPoolExhausted, ErrConnectTimeout, ErrPoolClosed, ErrStaleConnection}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if (i == j) != errors.Is(a, b) {
				t.Errorf("sentinel identity broken: %v vs %v", a, b)
			}
		}
	}

	wrapped := fmt.Errorf("all 5 connections in use: %w", ErrPoolExhausted)
	if !errors.Is(wrapped, ErrPoolExhausted) {
		t.Error("expected wrapped pool exhaustion to match ErrPoolExhausted")
	}
	if errors.Is(wrapped, ErrConnectTimeout) {
		t.Error("pool exhaustion must not match ErrConnectTimeout")
	}
}

func TestConfigErrorMessage(t *testing.T) {
	t.Parallel()
	err := &ConfigError{Msg: "database password is required"}
	if err.Error() != "config error: database password is required" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
