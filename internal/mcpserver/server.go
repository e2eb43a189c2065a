// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only content-database tools via stdio transport, for
// editor-adjacent LLM integrations.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/forge/internal/content"
)

// Server wraps the MCP server with content-database tools.
type Server struct {
	mcp *server.MCPServer
	db  *content.Database
}

// New creates an MCP server with all tools registered. Queries are
// marshalled onto the database's owning goroutine.
func New(db *content.Database) *Server {
	s := &Server{db: db}

	s.mcp = server.NewMCPServer(
		"Forge",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("find_item",
		mcp.WithDescription("Look up an indexed item by absolute path or by asset unique id."),
		mcp.WithString("path", mcp.Description("Absolute path of the item")),
		mcp.WithString("id", mcp.Description("Asset unique id (UUID)")),
	), s.findItem)

	s.mcp.AddTool(mcp.NewTool("list_folder",
		mcp.WithDescription("List the direct children of an indexed folder."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the folder")),
	), s.listFolder)

	s.mcp.AddTool(mcp.NewTool("workspace_stats",
		mcp.WithDescription("Report items created and deleted since startup and the pending refresh count."),
	), s.workspaceStats)

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

func itemSummary(it *content.Item) map[string]any {
	out := map[string]any{
		"path": it.Path,
		"kind": it.Kind.String(),
	}
	if it.ID != uuid.Nil {
		out["id"] = it.ID.String()
	}
	if it.TypeName != "" {
		out["type_name"] = it.TypeName
	}
	return out
}

func (s *Server) findItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	rawID := req.GetString("id", "")
	if path == "" && rawID == "" {
		return mcp.NewToolResultError("either path or id is required"), nil
	}

	var id uuid.UUID
	if rawID != "" {
		parsed, err := uuid.Parse(rawID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid id: %s", rawID)), nil
		}
		id = parsed
	}

	var found map[string]any
	doErr := s.db.Do(func() {
		var it *content.Item
		if path != "" {
			it = s.db.FindByPath(path)
		} else {
			it = s.db.FindByID(id)
		}
		if it != nil {
			found = itemSummary(it)
		}
	})
	if doErr != nil {
		return mcp.NewToolResultError(doErr.Error()), nil
	}
	if found == nil {
		return mcp.NewToolResultError("item not found"), nil
	}
	out, _ := json.MarshalIndent(found, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	var missing bool
	doErr := s.db.Do(func() {
		it := s.db.FindByPath(path)
		if it == nil || !it.IsFolder() {
			missing = true
			return
		}
		for _, c := range it.Children {
			lines = append(lines, fmt.Sprintf("%s\t%s", c.Kind, c.Path))
		}
	})
	if doErr != nil {
		return mcp.NewToolResultError(doErr.Error()), nil
	}
	if missing {
		return mcp.NewToolResultError(fmt.Sprintf("folder not found: %s", path)), nil
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("folder is empty"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) workspaceStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := map[string]any{}
	doErr := s.db.Do(func() {
		stats["items_created"] = s.db.ItemsCreated()
		stats["items_deleted"] = s.db.ItemsDeleted()
		stats["pending_refreshes"] = s.db.PendingRefreshes()
	})
	if doErr != nil {
		return mcp.NewToolResultError(doErr.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
