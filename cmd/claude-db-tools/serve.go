package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	dbtools "github.com/garantis-seg/claude-db-tools"
)

const defaultConfigPath = ".dbtools/config.json"

func runServe() error {
	ctx := context.Background()

	serverConfig, err := loadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Logging goes to stderr by default; stdout carries JSON-RPC in stdio mode.
	logger := setupLogger(serverConfig.Logging)

	connString := os.Getenv("DBTOOLS_PG_CONNSTRING")
	if connString == "" {
		password := os.Getenv("DBTOOLS_PG_PASSWORD")
		if password == "" {
			password = promptPassword("Password: ")
		}
		connString = buildConnString(serverConfig.Connection, password)
	}

	db, err := dbtools.New(connString, serverConfig.Config, logger)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	logger.Info().Msg("testing database connection")
	if err := db.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("database connection test failed")
		return fmt.Errorf("database connection test failed: %w", err)
	}
	logger.Info().Msg("database connection test successful")

	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		logger.Info().
			Str("client_name", req.Params.ClientInfo.Name).
			Str("client_version", req.Params.ClientInfo.Version).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("claude-db-tools", "1.0.0",
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)
	dbtools.RegisterMCPTools(mcpServer, db)

	switch strings.ToLower(serverConfig.Server.Transport) {
	case "", "stdio":
		logger.Info().Msg("starting claude-db-tools on stdio transport")
		return server.ServeStdio(mcpServer)
	case "http":
		return serveHTTP(serverConfig, mcpServer, db, logger)
	default:
		return fmt.Errorf("unknown transport %q (want \"stdio\" or \"http\")", serverConfig.Server.Transport)
	}
}

func serveHTTP(config *dbtools.ServerConfig, mcpServer *server.MCPServer, db *dbtools.DBTools, logger zerolog.Logger) error {
	port := config.Server.Port
	if port <= 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)
	mux := http.NewServeMux()

	if config.Server.HealthCheckEnabled {
		path := config.Server.HealthCheckPath
		if path == "" {
			path = "/health"
		}
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			out := db.Health(r.Context())
			w.Header().Set("Content-Type", "application/json")
			if !out.DatabaseConnected {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			json.NewEncoder(w).Encode(out)
		})
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)

	// Start() does not register the MCP handler when a custom *http.Server
	// is provided, so wire it up here.
	mux.Handle("/mcp", streamableServer)

	logger.Info().Int("port", port).Msg("starting claude-db-tools on http transport")
	return streamableServer.Start(addr)
}

// loadServerConfig reads the JSON config file. A missing file at the default
// path is not an error; environment variables and built-in defaults carry a
// stdio setup on their own.
func loadServerConfig() (*dbtools.ServerConfig, error) {
	configPath := os.Getenv("DBTOOLS_CONFIG_PATH")
	explicit := configPath != ""
	if !explicit {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &dbtools.ServerConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config dbtools.ServerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	return &config, nil
}

func buildConnString(conn dbtools.ConnectionConfig, password string) string {
	parts := []string{}
	if conn.Host != "" {
		parts = append(parts, fmt.Sprintf("host=%s", conn.Host))
	}
	if conn.Port > 0 {
		parts = append(parts, fmt.Sprintf("port=%d", conn.Port))
	}
	if conn.DBName != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", conn.DBName))
	}
	if conn.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", conn.User))
	}
	if password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", password))
	}
	if conn.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", conn.SSLMode))
	}
	return strings.Join(parts, " ")
}

func setupLogger(config dbtools.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	if config.Output == "stdout" {
		output = os.Stdout
	} else if config.Output != "" && config.Output != "stderr" {
		f, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}

	if config.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(password)
}
