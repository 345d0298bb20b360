// Package main is the entry point for the erfasst-mcp server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erfasst/erfasst-mcp/internal/auth"
	"github.com/erfasst/erfasst-mcp/internal/config"
	"github.com/erfasst/erfasst-mcp/internal/equipment"
	"github.com/erfasst/erfasst-mcp/internal/graphql"
	"github.com/erfasst/erfasst-mcp/internal/projects"
	"github.com/erfasst/erfasst-mcp/internal/safety"
	"github.com/erfasst/erfasst-mcp/internal/staff"
	"github.com/erfasst/erfasst-mcp/internal/system"
	"github.com/erfasst/erfasst-mcp/internal/timetracking"
	"github.com/erfasst/erfasst-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "erfasst-mcp"
	serverVersion = "1.0.0"

	defaultConfigPath = "config.yaml"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("warning: %v", err)
	}

	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Open audit log writer if enabled.
	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v — audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	// Build the GraphQL transport.
	client, err := graphql.NewHTTPClient(cfg.GraphQL)
	if err != nil {
		log.Fatalf("failed to create GraphQL client: %v", err)
	}

	// Build safety components.
	projectFilter := safety.NewFilter(
		cfg.Safety.Projects.Allowlist,
		cfg.Safety.Projects.Denylist,
	)
	projectConfirm := safety.NewConfirmationTracker(projects.DestructiveTools)
	equipmentConfirm := safety.NewConfirmationTracker(equipment.DestructiveTools)

	// Build resource managers.
	projectMgr := projects.NewGraphQLProjectManager(client)
	staffMgr := staff.NewGraphQLStaffManager(client)
	equipmentMgr := equipment.NewGraphQLEquipmentManager(client)
	tracker := timetracking.NewTracker(client)
	health := system.NewGraphQLHealthChecker(client, serverName, serverVersion, cfg.GraphQL.URL)

	// Build MCP server.
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	// Register all tools.
	var registrations []tools.Registration
	registrations = append(registrations, projects.ProjectTools(projectMgr, projectFilter, projectConfirm, auditLogger)...)
	registrations = append(registrations, staff.StaffTools(staffMgr, auditLogger)...)
	registrations = append(registrations, equipment.EquipmentTools(equipmentMgr, equipmentConfirm, auditLogger)...)
	registrations = append(registrations, timetracking.TimeTrackingTools(tracker, auditLogger)...)
	registrations = append(registrations, system.SystemTools(health, auditLogger)...)
	registrations = append(registrations, graphql.GraphQLTools(client, auditLogger)...)

	tools.RegisterAll(mcpServer, registrations)

	switch cfg.Server.Transport {
	case config.TransportHTTP:
		serveHTTP(mcpServer, cfg)
	default:
		if err := server.ServeStdio(mcpServer); err != nil {
			log.Fatalf("stdio server error: %v", err)
		}
	}
}

// serveHTTP runs the MCP server over Streamable HTTP with bearer
// authentication and graceful shutdown.
func serveHTTP(mcpServer *server.MCPServer, cfg *config.Config) {
	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v — running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set ERFASST_MCP_AUTH_TOKEN to persist): %s", token)
	}

	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	authMiddleware := auth.NewAuthMiddleware(cfg.Server.AuthToken)
	wrappedHandler := authMiddleware(httpHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           wrappedHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("%s listening on %s", serverName, addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// loadConfig attempts to read the config file from the path specified by
// ERFASST_MCP_CONFIG_PATH or the default config.yaml. If the file cannot be
// read, DefaultConfig is returned.
func loadConfig() *config.Config {
	path := os.Getenv("ERFASST_MCP_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
