// Package mcpserver exposes the vibecheck views and the CHI calculator as MCP tools.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/vibecheck/internal/model"
)

// Views is what the tools read from
type Views interface {
	Raw(ctx context.Context, view model.View) ([]byte, error)
	CarrierCHI(ctx context.Context, carrierID string) (model.CHIResult, error)
}

// New creates an MCP server with every vibecheck tool registered
func New(version string, views Views, log logrus.FieldLogger) *server.MCPServer {
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := server.NewMCPServer(
		"vibecheck",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	viewTool := NewViewTool(views, log)
	s.AddTool(viewTool.Definition(), viewTool.Handle)

	chiTool := NewCHITool(views, log)
	s.AddTool(chiTool.Definition(), chiTool.Handle)

	return s
}

// Serve runs s over stdin/stdout until the client disconnects
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = "vibecheck reports the Customer Happiness Index (CHI) of US wireless carriers. " +
	"Use vibecheck_get_view to read a dashboard document (summary, vibe_report, competitive, triage) " +
	"and vibecheck_compute_chi to score a carrier or an explicit sentiment split."
