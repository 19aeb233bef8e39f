// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido's app-launching tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/launcher"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp *server.MCPServer
	svc *launcher.Service
}

// New creates a new MCP server with all Raido tools registered.
func New(svc *launcher.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("open_app",
		mcp.WithDescription("Open a locally installed application by name. "+
			"Accepts natural language: a fuzzy name or a colloquial alias resolves "+
			"to the best matching app before launching."),
		mcp.WithString("app_name", mcp.Required(), mcp.Description("Application name, alias, or natural-language request (e.g. \"打开浏览器\")")),
	), s.openApp)

	s.mcp.AddTool(mcp.NewTool("search_app",
		mcp.WithDescription("Find installed applications matching a natural-language query, ranked by confidence."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of candidates to return (default 5)")),
	), s.searchApp)

	s.mcp.AddTool(mcp.NewTool("list_apps",
		mcp.WithDescription("List detected applications."),
		mcp.WithString("sort_by", mcp.Description("Sort order: name, usage, or recent (default name)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of apps to return (default 100)")),
	), s.listApps)

	s.mcp.AddTool(mcp.NewTool("reload_apps",
		mcp.WithDescription("Clear the cache and rescan installed applications."),
	), s.reloadApps)

	s.mcp.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Report the launcher's current state: index size, cache file, most used apps."),
	), s.getStatus)

	s.mcp.AddTool(mcp.NewTool("add_alias",
		mcp.WithDescription("Register a custom alias for an application so later queries resolve it."),
		mcp.WithString("app_name", mcp.Required(), mcp.Description("Application the alias points at")),
		mcp.WithString("alias", mcp.Required(), mcp.Description("The alias to register")),
	), s.addAlias)

	s.mcp.AddTool(mcp.NewTool("launch_history",
		mcp.WithDescription("Return the most recent launch attempts from the journal, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 50)")),
	), s.launchHistory)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) openApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("app_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.svc.Open(name)
	if !res.Success {
		return mcp.NewToolResultError(res.Message), nil
	}
	return jsonResult(res)
}

func (s *Server) searchApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.svc.Search(query, req.GetInt("max_results", 5))
	if !res.Success {
		return mcp.NewToolResultError(res.Message), nil
	}
	return jsonResult(res)
}

func (s *Server) listApps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.svc.List(req.GetString("sort_by", "name"), req.GetInt("limit", 100))
	if !res.Success {
		return mcp.NewToolResultError(res.Message), nil
	}
	return jsonResult(res)
}

func (s *Server) reloadApps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.svc.Reload()
	if !res.Success {
		return mcp.NewToolResultError(res.Message), nil
	}
	return jsonResult(res)
}

func (s *Server) getStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Status())
}

func (s *Server) addAlias(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("app_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	alias, err := req.RequireString("alias")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.svc.AddAlias(name, alias) {
		return mcp.NewToolResultError("alias not added: app name and alias must be non-empty"), nil
	}
	return mcp.NewToolResultText("alias added"), nil
}

func (s *Server) launchHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.History(req.GetInt("limit", 50))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rows)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
