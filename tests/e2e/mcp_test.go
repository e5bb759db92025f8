// Package e2e_test — MCP server end-to-end tests.
//
// Each test wires the real MCP server in-process via the mcp-go
// InProcessTransport, backed by a fresh service.Service rooted at a
// temporary directory. No binary needs to be compiled; the full stack
// (service → repository → mcp handler → mcp-go server → in-process client)
// is exercised within a single test process.
package e2e_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/greenroom-sh/greenroom/internal/checkers"
	"github.com/greenroom-sh/greenroom/internal/kv/kvtest"
	internalmcp "github.com/greenroom-sh/greenroom/internal/mcp"
	"github.com/greenroom-sh/greenroom/internal/models"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newMCPClient creates an in-process MCP client backed by a fresh service
// rooted at a temp home wired to a fake store. The service is returned too
// so tests can seed contexts directly.
func newMCPClient(c *qt.C) (*mcpclient.Client, *service.Service) {
	c.TB.Helper()

	srv, err := kvtest.NewServer("")
	c.Assert(err, qt.IsNil)
	c.Cleanup(srv.Close)

	home := c.TempDir()
	cfg := fmt.Sprintf("store:\n  host: 127.0.0.1\n  port: %d\n", srv.Port())
	err = os.WriteFile(filepath.Join(home, "config.yaml"), []byte(cfg), 0o600)
	c.Assert(err, qt.IsNil)

	svc, err := service.New(home)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = svc.Close() })

	cl, err := mcpclient.NewInProcessClient(internalmcp.NewServer(svc))
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = cl.Close() })

	c.Assert(cl.Start(context.Background()), qt.IsNil)

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "e2e-test", Version: "0.0.1"}
	_, err = cl.Initialize(context.Background(), initReq)
	c.Assert(err, qt.IsNil)

	return cl, svc
}

// seedBrief writes a complete brief for guest straight into the repository.
func seedBrief(c *qt.C, svc *service.Service, guest, focus string) {
	c.TB.Helper()

	var b strings.Builder
	for i, h := range models.SectionHeaders {
		fmt.Fprintf(&b, "%d. %s:\n- prepared notes for %s\n\n", i+1, h, guest)
	}
	_, err := svc.ImportContext(guest, focus, b.String(), false)
	c.Assert(err, qt.IsNil)
}

// callTool invokes the named MCP tool and returns the text of the first
// content item along with the tool-level error flag.
func callTool(c *qt.C, cl *mcpclient.Client, name string, args map[string]any) (string, bool) {
	c.TB.Helper()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := cl.CallTool(context.Background(), req)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Content, qt.HasLen, 1)

	tc, ok := mcp.AsTextContent(result.Content[0])
	c.Assert(ok, qt.IsTrue)

	return tc.Text, result.IsError
}

// ---------------------------------------------------------------------------
// ListTools
// ---------------------------------------------------------------------------

func TestMCPListTools_HappyPath(t *testing.T) {
	c := qt.New(t)
	cl, _ := newMCPClient(c)

	result, err := cl.ListTools(context.Background(), mcp.ListToolsRequest{})
	c.Assert(err, qt.IsNil)
	c.Assert(result.Tools, qt.HasLen, 3)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	c.Assert(names, qt.Contains, "context_list")
	c.Assert(names, qt.Contains, "context_load")
	c.Assert(names, qt.Contains, "context_get")
}

// ---------------------------------------------------------------------------
// context_list
// ---------------------------------------------------------------------------

func TestMCPContextList(t *testing.T) {
	c := qt.New(t)
	cl, svc := newMCPClient(c)

	c.Run("empty repository", func(c *qt.C) {
		text, isErr := callTool(c, cl, "context_list", nil)
		c.Assert(isErr, qt.IsFalse)
		c.Assert(text, checkers.JSONPathEquals("$.total"), float64(0))
	})

	c.Run("seeded repository", func(c *qt.C) {
		seedBrief(c, svc, "Rosa Luxemburg", "political theory")
		seedBrief(c, svc, "Jane Goodall", "conservation")

		text, isErr := callTool(c, cl, "context_list", nil)
		c.Assert(isErr, qt.IsFalse)
		c.Assert(text, checkers.JSONPathEquals("$.total"), float64(2))
		c.Assert(text, checkers.JSONPathEquals("$.contexts[0].key"), "jane_goodall")
		c.Assert(text, checkers.JSONPathEquals("$.contexts[1].key"), "rosa_luxemburg")
		c.Assert(text, checkers.JSONPathEquals("$.contexts[1].focus_areas"), "political theory")
	})
}

// ---------------------------------------------------------------------------
// context_load and context_get
// ---------------------------------------------------------------------------

func TestMCPLoadAndGet(t *testing.T) {
	c := qt.New(t)
	cl, svc := newMCPClient(c)
	seedBrief(c, svc, "Jane Goodall", "conservation")

	c.Run("get before load reads the repository", func(c *qt.C) {
		text, isErr := callTool(c, cl, "context_get", map[string]any{"name": "jane_goodall"})
		c.Assert(isErr, qt.IsFalse)
		c.Assert(text, checkers.JSONPathEquals("$.source"), "repository")
		c.Assert(text, checkers.JSONPathEquals("$.guest_name"), "Jane Goodall")
	})

	c.Run("get with no name and nothing loaded is an error", func(c *qt.C) {
		text, isErr := callTool(c, cl, "context_get", nil)
		c.Assert(isErr, qt.IsTrue)
		c.Assert(text, qt.Contains, "no context loaded")
	})

	c.Run("load then get from the session", func(c *qt.C) {
		text, isErr := callTool(c, cl, "context_load", map[string]any{"name": "jane_goodall"})
		c.Assert(isErr, qt.IsFalse)
		c.Assert(text, checkers.JSONPathEquals("$.loaded"), true)
		c.Assert(text, checkers.JSONPathEquals("$.key"), "jane_goodall")

		text, isErr = callTool(c, cl, "context_get", nil)
		c.Assert(isErr, qt.IsFalse)
		c.Assert(text, checkers.JSONPathEquals("$.source"), "session")
		c.Assert(text, checkers.JSONPathEquals("$.guest_name"), "Jane Goodall")
	})

	c.Run("load unknown guest is an error", func(c *qt.C) {
		text, isErr := callTool(c, cl, "context_load", map[string]any{"name": "nobody"})
		c.Assert(isErr, qt.IsTrue)
		c.Assert(text, qt.Contains, "not found")
	})
}
