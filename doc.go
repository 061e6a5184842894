// Package dbtools provides controlled PostgreSQL access for AI agents through
// the Model Context Protocol (MCP).
//
// It exposes query, write, and introspection tools backed by a resilient
// execution core: a bounded connection pool with post-acquisition liveness
// validation, bounded retry on transient connection failures, server-side
// statement timeouts, and row-cap enforcement on every read.
//
// Reads and writes run on separate entry points. The read path rejects
// anything that is not a SELECT (or WITH) by leading keyword, appends a LIMIT
// when the statement has none, and never fetches more than the configured
// row ceiling. The write path runs each statement in an explicit transaction
// with guaranteed rollback on failure, or in autocommit mode for statements
// PostgreSQL forbids inside a transaction block. Parameters bind through the
// pgx extended query protocol.
//
// # Library Usage
//
//	db, err := dbtools.New(connString, dbtools.Config{}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close(ctx)
//
//	// Use directly
//	out := db.Query(ctx, dbtools.QueryInput{SQL: "SELECT * FROM users", Limit: 50})
//
//	// Or register as MCP tools
//	dbtools.RegisterMCPTools(mcpServer, db)
//
// The keyword classification of reads versus writes is a coarse pre-filter,
// not a security boundary. Grant the database role only the privileges the
// agent should actually have.
package dbtools
