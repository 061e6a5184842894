package dbtools

import (
	"strings"
	"testing"
)

// These tests exercise the classification and validation paths that reject
// input before any connection is acquired, so they run without a database.

func TestQueryRejectsWriteStatement(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{})

	out := d.Query(t.Context(), QueryInput{SQL: "DELETE FROM users"})
	if out.Success {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(out.Error, "Only SELECT") {
		t.Errorf("unexpected error: %q", out.Error)
	}
}

func TestQueryRejectsMultiStatement(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{})

	out := d.Query(t.Context(), QueryInput{SQL: "SELECT 1; DROP TABLE users"})
	if out.Success {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(out.Error, "multi-statement") {
		t.Errorf("unexpected error: %q", out.Error)
	}
}

func TestQueryRejectsEmptySQL(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{})

	out := d.Query(t.Context(), QueryInput{SQL: "   "})
	if out.Success {
		t.Fatal("expected rejection")
	}
}

func TestExecuteRejectsSelect(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{})

	out := d.Execute(t.Context(), ExecuteInput{SQL: "SELECT * FROM users"})
	if out.Success {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(out.Error, "Only write operations") {
		t.Errorf("unexpected error: %q", out.Error)
	}
	if !strings.Contains(out.Error, "INSERT") {
		t.Errorf("expected allowed keywords in error, got: %q", out.Error)
	}
}

func TestExecuteRejectsMultiStatement(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{})

	out := d.Execute(t.Context(), ExecuteInput{SQL: "DELETE FROM a; DELETE FROM b"})
	if out.Success {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(out.Error, "multi-statement") {
		t.Errorf("unexpected error: %q", out.Error)
	}
}

func TestCountRejectsBadTableName(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{})

	for _, table := range []string{
		"",
		"users; DROP TABLE users",
		"a.b.c",
		"users)",
		"user table",
	} {
		out := d.Count(t.Context(), CountInput{Table: table})
		if out.Success {
			t.Errorf("expected rejection for table %q", table)
		}
	}
}

func TestExplainRejectsWriteStatement(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{})

	out := d.Explain(t.Context(), ExplainInput{SQL: "DELETE FROM users", Analyze: true})
	if out.Success {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(out.Error, "Only SELECT") {
		t.Errorf("unexpected error: %q", out.Error)
	}
}

func TestSampleRejectsBadIdentifiers(t *testing.T) {
	t.Parallel()
	d := newOffline(t, Config{})

	out := d.Sample(t.Context(), SampleInput{Table: `users"; DROP TABLE x --`})
	if out.Success {
		t.Fatal("expected rejection")
	}

	out = d.Sample(t.Context(), SampleInput{Table: "users", Schema: "bad schema"})
	if out.Success {
		t.Fatal("expected rejection")
	}
}

func TestQuoteQualifiedTable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"users", `"users"`, false},
		{"public.users", `"public"."users"`, false},
		{"cnpj_raw.empresas", `"cnpj_raw"."empresas"`, false},
		{"_private", `"_private"`, false},
		{"", "", true},
		{"a.b.c", "", true},
		{"1users", "", true},
		{`us"ers`, "", true},
		{"users;", "", true},
	}
	for _, tt := range tests {
		got, err := quoteQualifiedTable(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("quoteQualifiedTable(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("quoteQualifiedTable(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("quoteQualifiedTable(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestQuoteTableDefaultsSchema(t *testing.T) {
	t.Parallel()
	ident, schema, err := quoteTable("", "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema != "public" {
		t.Errorf("expected public schema default, got %q", schema)
	}
	if ident != `"public"."users"` {
		t.Errorf("unexpected identifier: %s", ident)
	}
}
