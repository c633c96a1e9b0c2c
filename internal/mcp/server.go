// Package mcp exposes LiftLog to MCP clients: the program catalog, logged
// sessions and progression suggestions.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftlog/internal/progression"
)

// New creates an MCP server with all tools and resources registered.
// units is the weight unit used when a tool call does not name one.
func New(ds DataSource, units progression.Unit, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog strength training server. Read the training program, logged sessions and sets, and get progression suggestions for the next session of an exercise."),
	)

	if units == "" {
		units = progression.Kilograms
	}
	h := &handlers{ds: ds, units: units, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolGetLastPerformance, Handler: h.getLastPerformance},
		server.ServerTool{Tool: toolSuggestProgression, Handler: h.suggestProgression},
		server.ServerTool{Tool: toolGetSessionStats, Handler: h.getSessionStats},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
		server.ServerTool{Tool: toolEstimateOneRepMax, Handler: h.estimateOneRepMax},
	)

	s.AddResources(
		server.ServerResource{Resource: resProgram, Handler: h.program},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds    DataSource
	units progression.Unit
	log   *slog.Logger
}

// --- Resource definitions ---

var resProgram = mcp.NewResource(
	"liftlog://program",
	"Training Program",
	mcp.WithResourceDescription("The full program catalog: plans, days, exercises and their prescriptions"),
	mcp.WithMIMEType("application/json"),
)
