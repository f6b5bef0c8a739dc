package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/menusearch-mcp/internal/service"
	"github.com/dshills/menusearch-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "menusearch-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	service *service.Service
	storage storage.Storage // optional, reported by get_status
}

// NewServer creates a new MCP server around svc. store may be nil.
func NewServer(svc *service.Service, store storage.Storage) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:     mcpServer,
		service: svc,
		storage: store,
	}

	s.registerTools()

	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown.
// The service is closed on return; the persisted index is kept.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.service.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexMenuTool(), s.handleIndexMenu)
	s.mcp.AddTool(searchMenuTool(), s.handleSearchMenu)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(cleanupIndexTool(), s.handleCleanupIndex)
}
