package dbtools

import (
	"math"
	"testing"
	"time"
)

func TestEffectiveLimit(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{
		Query: QueryConfig{DefaultLimit: 1000, MaxRows: 10000},
	})

	tests := []struct {
		requested int
		want      int
	}{
		{0, 1000},      // default applies
		{-5, 1000},     // nonsense falls back to default
		{500, 500},     // under the ceiling
		{10000, 10000}, // exactly the ceiling
		{20000, 10000}, // clamped to the ceiling
	}
	for _, tt := range tests {
		if got := d.effectiveLimit(tt.requested); got != tt.want {
			t.Errorf("effectiveLimit(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}
}

func TestRetriesResolution(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{Query: QueryConfig{MaxRetries: 2}})

	if got := d.retries(0); got != 2 {
		t.Errorf("retries(0) = %d, want configured 2", got)
	}
	if got := d.retries(5); got != 5 {
		t.Errorf("retries(5) = %d, want override 5", got)
	}
	if got := d.retries(-1); got != 0 {
		t.Errorf("retries(-1) = %d, want 0 (disabled)", got)
	}

	disabled := newOffline(t, Config{Query: QueryConfig{MaxRetries: -1}})
	if got := disabled.retries(0); got != 0 {
		t.Errorf("retries with MaxRetries=-1 = %d, want 0", got)
	}
}

func TestConvertValue(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 15, 10, 30, 0, 123456789, time.UTC)
	if got := convertValue(ts); got != "2024-03-15T10:30:00.123456789Z" {
		t.Errorf("time conversion: got %v", got)
	}

	if got := convertValue(math.NaN()); got != "NaN" {
		t.Errorf("NaN: got %v", got)
	}
	if got := convertValue(math.Inf(1)); got != "Infinity" {
		t.Errorf("+Inf: got %v", got)
	}
	if got := convertValue(float32(float64(math.Inf(-1)))); got != "-Infinity" {
		t.Errorf("-Inf float32: got %v", got)
	}
	if got := convertValue(3.5); got != 3.5 {
		t.Errorf("plain float: got %v", got)
	}

	uuid := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}
	if got := convertValue(uuid); got != "12345678-9abc-def0-1234-56789abcdef0" {
		t.Errorf("uuid: got %v", got)
	}

	if got := convertValue([]byte("hi")); got != "aGk=" {
		t.Errorf("bytea base64: got %v", got)
	}

	if got := convertValue(nil); got != nil {
		t.Errorf("nil: got %v", got)
	}

	nested := map[string]any{"f": math.NaN(), "list": []any{math.Inf(1)}}
	converted := convertValue(nested).(map[string]any)
	if converted["f"] != "NaN" {
		t.Errorf("nested NaN: got %v", converted["f"])
	}
	if converted["list"].([]any)[0] != "Infinity" {
		t.Errorf("nested Inf: got %v", converted["list"])
	}

	// Pass-through types keep their value.
	if got := convertValue(int64(42)); got != int64(42) {
		t.Errorf("int64: got %v", got)
	}
	if got := convertValue("text"); got != "text" {
		t.Errorf("string: got %v", got)
	}
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()
	if got := truncateForLog("short", 200); got != "short" {
		t.Errorf("short string changed: %q", got)
	}

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	got := truncateForLog(string(long), 200)
	if len(got) != 200+len("...[truncated]") {
		t.Errorf("unexpected truncated length %d", len(got))
	}

	// Multi-byte rune straddling the cut must not be split.
	s := "aaaa日本語"
	got = truncateForLog(s, 5)
	for _, r := range got {
		if r == '�' {
			t.Errorf("truncation split a UTF-8 sequence: %q", got)
		}
	}
}

func TestMs(t *testing.T) {
	t.Parallel()
	if got := ms(1500 * time.Microsecond); got != 1.5 {
		t.Errorf("ms(1.5ms) = %v", got)
	}
	if got := ms(2 * time.Second); got != 2000.0 {
		t.Errorf("ms(2s) = %v", got)
	}
}
