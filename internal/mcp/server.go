// Package mcp provides the stdio MCP server exposing interview-context
// tools for recording assistants.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/greenroom-sh/greenroom/internal/buildinfo"
	"github.com/greenroom-sh/greenroom/internal/service"
	"github.com/greenroom-sh/greenroom/internal/session"
)

const listDescription = `List the prepared interview context documents. Each entry names a guest the host has researched. Call this first to see which briefs are available before loading one.` //nolint:lll

const loadDescription = `Load a guest's context document into the active interview session, replacing whatever was loaded before. After loading, the brief and its metadata are available as session variables for the duration of the interview.` //nolint:lll

const getDescription = `Read a guest's interview brief. Pass a name to read a specific document, or omit it to read whatever is loaded into the current session.` //nolint:lll

// NewServer creates and registers all context tools on a new MCP server.
// It is separate from Serve so tests can obtain a configured server without
// committing to the stdio transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("greenroom", buildinfo.Version)
	registerTools(s, svc)
	return s
}

// Serve starts the stdio MCP server, blocking until stdin closes.
func Serve(_ context.Context, home string) error {
	svc, err := service.New(home)
	if err != nil {
		return fmt.Errorf("mcp: init service: %w", err)
	}
	defer svc.Close()

	return mcpserver.ServeStdio(NewServer(svc))
}

// registerTools wires all three MCP tools into the server.
func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("context_list",
		mcp.WithDescription(listDescription),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleList(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("context_load",
		mcp.WithDescription(loadDescription),
		mcp.WithString("name",
			mcp.Description("Guest name or list index, e.g. \"jane_goodall\" or \"2\"."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleLoad(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("context_get",
		mcp.WithDescription(getDescription),
		mcp.WithString("name",
			mcp.Description("Guest name. Omit to read the currently loaded brief."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGet(ctx, svc, req)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleList(_ context.Context, svc *service.Service, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := svc.ListContexts()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	contexts := make([]map[string]any, 0, len(summaries))
	for i, s := range summaries {
		contexts = append(contexts, map[string]any{
			"index":       i + 1,
			"key":         s.Key,
			"guest_name":  s.GuestName,
			"focus_areas": s.FocusAreas,
			"created_at":  formatCreated(s.CreatedAt),
		})
	}

	message := "Use context_load to load a brief into the session."
	if len(contexts) == 0 {
		message = "No context documents yet. Ask the host to run `greenroom new --guest <name>` first."
	}
	return jsonResult(map[string]any{
		"total":    len(contexts),
		"contexts": contexts,
		"message":  message,
	})
}

func handleLoad(_ context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	doc, err := svc.LoadContext(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"key":        doc.Key,
		"guest_name": doc.GuestName,
		"loaded":     true,
	})
}

func handleGet(_ context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")

	if name == "" {
		guest, ok, err := svc.LoadedGuest()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultError("no context loaded; pass a name or call context_load first"), nil
		}
		body, err := svc.GetVar(session.VarContext)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"guest_name": guest,
			"body":       body,
			"source":     "session",
		})
	}

	doc, err := svc.ResolveContext(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"key":         doc.Key,
		"guest_name":  doc.GuestName,
		"focus_areas": doc.FocusAreas,
		"body":        doc.Body,
		"source":      "repository",
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// formatCreated renders a catalog timestamp for tool output. The zero time
// means the catalog had no row for a hand-dropped file.
func formatCreated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
