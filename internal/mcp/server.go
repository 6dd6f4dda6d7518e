package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/internpm/internal/domain/export"
	"github.com/rpggio/internpm/internal/domain/project"
	"github.com/rpggio/internpm/internal/domain/session"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Update(ctx context.Context, req project.UpdateRequest) (*project.Project, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context, query string) ([]project.Project, error)
	AttachmentBlob(p *project.Project, index int) ([]byte, string, error)
}

// SessionService defines login, profile and theme operations needed by MCP.
type SessionService interface {
	Login(ctx context.Context, username string) (*session.Session, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*session.Session, error)
	RequireLogin(ctx context.Context) error
	Profile(ctx context.Context) (session.Profile, error)
	Theme(ctx context.Context) (session.Theme, error)
	SetTheme(ctx context.Context, theme session.Theme) error
	ToggleTheme(ctx context.Context) (session.Theme, error)
}

// ExportService defines backup operations needed by MCP.
type ExportService interface {
	Snapshot(ctx context.Context) (*export.Document, error)
	Write(ctx context.Context, w io.Writer) (*export.Document, error)
}

// RecoveryService defines recovery operations for an unreadable collection.
type RecoveryService interface {
	Repair(ctx context.Context) ([]project.QuarantinedRecord, error)
	Reset(ctx context.Context) error
	Quarantine(ctx context.Context) ([]project.QuarantineEntry, error)
	DiscardQuarantine(ctx context.Context) error
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Sessions SessionService
	Export   ExportService
	Recovery RecoveryService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "internpm",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(loginGateMiddleware(cfg.Services.Sessions))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services, logger)

	return server
}
