package sqlguard

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		sql  string
		want Kind
	}{
		{"SELECT * FROM users", KindRead},
		{"select 1", KindRead},
		{"WITH x AS (SELECT 1) SELECT * FROM x", KindRead},
		{"  \n\tSELECT 1", KindRead},
		{"-- comment\nSELECT 1", KindRead},
		{"/* block */ SELECT 1", KindRead},
		{"/* outer /* nested */ still outer */ SELECT 1", KindRead},
		{"INSERT INTO t VALUES (1)", KindWrite},
		{"update t set a = 1", KindWrite},
		{"DELETE FROM t", KindWrite},
		{"CREATE TABLE t (id int)", KindWrite},
		{"ALTER TABLE t ADD COLUMN b int", KindWrite},
		{"DROP TABLE t", KindWrite},
		{"TRUNCATE t", KindWrite},
		{"GRANT SELECT ON t TO someone", KindWrite},
		{"REVOKE SELECT ON t FROM someone", KindWrite},
		{"EXPLAIN SELECT 1", KindUnknown},
		{"VACUUM t", KindUnknown},
		{"", KindUnknown},
		{"-- just a comment", KindUnknown},
		{"42", KindUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.sql); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.sql, got, tt.want)
		}
	}
}

func TestLeadingKeyword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT 1", "SELECT"},
		{"  with x as (select 1) select 1", "WITH"},
		{"-- leading comment\n  INSERT INTO t VALUES (1)", "INSERT"},
		{"/* a */ /* b */ DELETE FROM t", "DELETE"},
		{"/* unterminated", ""},
		{"--only comment", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := LeadingKeyword(tt.sql); got != tt.want {
			t.Errorf("LeadingKeyword(%q) = %q, want %q", tt.sql, got, tt.want)
		}
	}
}

func TestCheckSingleStatement(t *testing.T) {
	t.Parallel()
	if err := CheckSingleStatement("SELECT * FROM users WHERE id = 1"); err != nil {
		t.Errorf("single statement rejected: %v", err)
	}
	if err := CheckSingleStatement("INSERT INTO t VALUES (1)"); err != nil {
		t.Errorf("single write rejected: %v", err)
	}
}

func TestCheckSingleStatementRejectsMultiple(t *testing.T) {
	t.Parallel()
	err := CheckSingleStatement("SELECT 1; DROP TABLE users")
	if err == nil {
		t.Fatal("expected error for multi-statement SQL")
	}
	if !strings.Contains(err.Error(), "multi-statement") {
		t.Errorf("expected multi-statement error, got: %v", err)
	}
}

func TestCheckSingleStatementRejectsGarbage(t *testing.T) {
	t.Parallel()
	if err := CheckSingleStatement("NOT VALID SQL AT ALL"); err == nil {
		t.Fatal("expected parse error for invalid SQL")
	}
}

func TestCheckSingleStatementRejectsEmpty(t *testing.T) {
	t.Parallel()
	if err := CheckSingleStatement("  -- nothing here\n"); err == nil {
		t.Fatal("expected error for empty statement")
	}
}

func TestHasLimitClause(t *testing.T) {
	t.Parallel()
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT * FROM t LIMIT 5", true},
		{"SELECT * FROM t limit 5", true},
		{"SELECT * FROM t FETCH FIRST 5 ROWS ONLY", true},
		{"SELECT * FROM t", false},
		{"SELECT * FROM t ORDER BY id", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x LIMIT 3", true},
		// Inner LIMIT only; outer query is uncapped.
		{"SELECT * FROM (SELECT * FROM t LIMIT 5) sub", false},
		// Non-selects and unparseable SQL report true: nothing to append.
		{"INSERT INTO t VALUES (1)", true},
		{"completely bogus", true},
	}
	for _, tt := range tests {
		if got := HasLimitClause(tt.sql); got != tt.want {
			t.Errorf("HasLimitClause(%q) = %v, want %v", tt.sql, got, tt.want)
		}
	}
}

func TestNeedsAutocommit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		sql  string
		want bool
	}{
		{"CREATE INDEX CONCURRENTLY idx ON t(a)", true},
		{"create index concurrently idx on t(a)", true},
		{"DROP INDEX CONCURRENTLY idx", true},
		{"CREATE INDEX idx ON t(a)", false},
		{"INSERT INTO t VALUES (1)", false},
		// Substring of another word must not trigger.
		{"SELECT concurrentlyish FROM t", false},
	}
	for _, tt := range tests {
		if got := NeedsAutocommit(tt.sql); got != tt.want {
			t.Errorf("NeedsAutocommit(%q) = %v, want %v", tt.sql, got, tt.want)
		}
	}
}
