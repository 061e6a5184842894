package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("claude-db-tools - PostgreSQL MCP server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  claude-db-tools [serve]   Start the MCP server (default)")
	fmt.Println("  claude-db-tools --help    Show this help message")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  DBTOOLS_CONFIG_PATH     Config file path (default: .dbtools/config.json)")
	fmt.Println("  DBTOOLS_PG_CONNSTRING   Full connection string (skips config + prompt)")
	fmt.Println("  DBTOOLS_PG_PASSWORD     Database password (skips interactive prompt)")
}
