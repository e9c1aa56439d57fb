// Package mcpserver exposes the event schedules as MCP tools so an agent can
// pull them on demand.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"devfestsched/provider"
	"devfestsched/schedule"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	serverName    = "devfest-schedule"
	serverVersion = "1.0.0"
)

type handlers struct {
	reg *provider.Registry
	log *zap.Logger
}

// New builds an MCP server with the list_events, get_schedule_text and
// get_schedule_raw tools backed by reg.
func New(reg *provider.Registry, log *zap.Logger) *server.MCPServer {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handlers{reg: reg, log: log}
	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	events := strings.Join(reg.Locations(), ", ")
	s.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List the DevFest events whose schedules are available."),
	), h.listEvents)
	s.AddTool(mcp.NewTool("get_schedule_text",
		mcp.WithDescription("Get the full schedule of a DevFest event as readable text."),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event location, one of: "+events)),
	), h.scheduleText)
	s.AddTool(mcp.NewTool("get_schedule_raw",
		mcp.WithDescription("Get the schedule of a DevFest event as JSON keyed by day."),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event location, one of: "+events)),
	), h.scheduleRaw)
	return s
}

// Serve runs s over in and out until ctx is done or in is closed.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, log *zap.Logger) error {
	stdio := server.NewStdioServer(s)
	if log != nil {
		stdio.SetErrorLogger(zap.NewStdLog(log))
	}
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}

func (h *handlers) listEvents(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	for _, p := range h.reg.Providers() {
		fmt.Fprintf(&sb, "%s: %s\n", strings.ToLower(p.Location()), p.Name())
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (h *handlers) scheduleText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResult := h.provider(req)
	if errResult != nil {
		return errResult, nil
	}
	return mcp.NewToolResultText(p.Text(ctx)), nil
}

func (h *handlers) scheduleRaw(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResult := h.provider(req)
	if errResult != nil {
		return errResult, nil
	}
	data, err := schedule.MarshalJSON(p.Raw(ctx))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *handlers) provider(req mcp.CallToolRequest) (*provider.Provider, *mcp.CallToolResult) {
	event, err := req.RequireString("event")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	p, err := h.reg.Get(event)
	if err != nil {
		h.log.Warn("tool call for unknown event", zap.String("event", event))
		return nil, mcp.NewToolResultError(fmt.Sprintf("%v; known events: %s", err, strings.Join(h.reg.Locations(), ", ")))
	}
	return p, nil
}
