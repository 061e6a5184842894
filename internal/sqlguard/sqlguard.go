// Package sqlguard classifies incoming SQL by its leading keyword and guards
// against multi-statement payloads.
//
// The keyword classification is a coarse pre-filter, not a security boundary:
// a write wrapped in a read-looking common table expression can evade it. The
// single-statement guard uses PostgreSQL's own parser (pg_query) and narrows
// that gap, but the real enforcement belongs to database-level privileges.
package sqlguard

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Kind is the coarse operation class of a statement.
type Kind int

const (
	KindUnknown Kind = iota
	KindRead
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

var readKeywords = map[string]bool{
	"SELECT": true,
	"WITH":   true,
}

// WriteKeywords lists the statement types accepted by the write entry point.
var WriteKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP", "TRUNCATE", "GRANT", "REVOKE",
}

var writeKeywords = func() map[string]bool {
	m := make(map[string]bool, len(WriteKeywords))
	for _, kw := range WriteKeywords {
		m[kw] = true
	}
	return m
}()

// Classify returns the operation class of sql based on its leading keyword.
// Comments before the first token are skipped.
func Classify(sql string) Kind {
	kw := LeadingKeyword(sql)
	switch {
	case readKeywords[kw]:
		return KindRead
	case writeKeywords[kw]:
		return KindWrite
	default:
		return KindUnknown
	}
}

// LeadingKeyword returns the first keyword of sql, uppercased, with leading
// whitespace and SQL comments stripped. Returns "" if there is none.
func LeadingKeyword(sql string) string {
	rest := skipCommentsAndSpace(sql)
	end := 0
	for end < len(rest) {
		c := rest[end]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' {
			end++
			continue
		}
		break
	}
	return strings.ToUpper(rest[:end])
}

// skipCommentsAndSpace advances past whitespace, line comments, and (nested)
// block comments.
func skipCommentsAndSpace(s string) string {
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		switch {
		case strings.HasPrefix(s, "--"):
			idx := strings.IndexByte(s, '\n')
			if idx < 0 {
				return ""
			}
			s = s[idx+1:]
		case strings.HasPrefix(s, "/*"):
			// Postgres block comments nest.
			depth := 1
			i := 2
			for i < len(s) && depth > 0 {
				if strings.HasPrefix(s[i:], "/*") {
					depth++
					i += 2
				} else if strings.HasPrefix(s[i:], "*/") {
					depth--
					i += 2
				} else {
					i++
				}
			}
			if depth > 0 {
				return ""
			}
			s = s[i:]
		default:
			return s
		}
	}
}

// CheckSingleStatement parses sql with the PostgreSQL parser and rejects
// anything that is not exactly one statement. Parse failures are rejected
// here rather than sent to the server, so stacked-statement payloads never
// reach a connection.
func CheckSingleStatement(sql string) error {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return fmt.Errorf("SQL parse error: %w", err)
	}
	if len(result.Stmts) == 0 {
		return fmt.Errorf("SQL parse error: empty statement")
	}
	if len(result.Stmts) > 1 {
		return fmt.Errorf("multi-statement SQL is not allowed: found %d statements", len(result.Stmts))
	}
	return nil
}

// HasLimitClause reports whether sql is a SELECT with a top-level LIMIT or
// FETCH FIRST clause. Non-SELECT statements and unparseable SQL report true
// so the caller does not append a LIMIT where it cannot apply.
func HasLimitClause(sql string) bool {
	result, err := pg_query.Parse(sql)
	if err != nil || len(result.Stmts) == 0 {
		return true
	}
	sel, ok := result.Stmts[0].Stmt.Node.(*pg_query.Node_SelectStmt)
	if !ok {
		return true
	}
	return sel.SelectStmt.LimitCount != nil
}

// NeedsAutocommit reports whether sql contains an operation that PostgreSQL
// forbids inside a transaction block, e.g. CREATE INDEX CONCURRENTLY.
func NeedsAutocommit(sql string) bool {
	for _, word := range strings.Fields(strings.ToUpper(sql)) {
		if word == "CONCURRENTLY" {
			return true
		}
	}
	return false
}
