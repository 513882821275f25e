package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

const (
	documentURI     = "site://document"
	pageURIPrefix   = "site://page/"
	pageURITemplate = "site://page/{pageId}"
)

// Server is the MCP server for the page builder.
// It exposes tools, resources, and prompts so agents can edit the site.
type Server struct {
	mcp    *server.MCPServer
	site   *service.SiteService
	logger *zap.Logger
}

// Deps holds the dependencies passed from the app layer to the MCP server.
type Deps struct {
	Site    *service.SiteService
	Logger  *zap.Logger
	Version string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := deps.Version
	if version == "" {
		version = "1.0.0"
	}
	s := &Server{site: deps.Site, logger: logger}

	s.mcp = server.NewMCPServer(
		"pagebuilder-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSessionTools()
	s.registerPageTools()
	s.registerBlockTools()
	s.registerSettingsTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// MCPServer exposes the underlying server, e.g. for mounting another transport.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// Emit implements service.EventEmitter: document changes are announced to
// connected clients as resource updates.
func (s *Server) Emit(_ context.Context, event string, data any) {
	switch event {
	case service.EventDocumentChanged, service.EventDocumentLoaded:
		s.mcp.SendNotificationToAllClients("notifications/resources/updated", map[string]any{"uri": documentURI})
	case service.EventPageActivated:
		if m, ok := data.(map[string]string); ok {
			s.mcp.SendNotificationToAllClients("notifications/resources/updated", map[string]any{"uri": pageURIPrefix + m["pageId"]})
		}
	}
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult reports a rejected edit to the agent as a tool error rather
// than a protocol failure, so it can correct the call.
func errorResult(err error) *mcp.CallToolResult {
	res := textResult(describeError(err))
	res.IsError = true
	return res
}

func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "not signed in: call login first. " + err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "not found: " + err.Error()
	case errors.Is(err, domain.ErrInvariantViolation):
		return "refused: " + err.Error()
	default:
		return err.Error()
	}
}

// editResult turns the outcome of a mutation into a tool result. A move at
// a boundary is not an error: nothing changed and the agent is told so.
func editResult(err error, okText string) (*mcp.CallToolResult, error) {
	switch {
	case err == nil:
		return textResult(okText), nil
	case errors.Is(err, domain.ErrBoundary):
		return jsonResult(map[string]any{"moved": false, "reason": err.Error()})
	default:
		return errorResult(err), nil
	}
}

func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v := req.GetString(key, "")
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, key)
	}
	return v, nil
}

func direction(req mcp.CallToolRequest) (domain.Direction, error) {
	d := domain.Direction(req.GetString("direction", ""))
	if !d.Valid() {
		return "", fmt.Errorf("%w: direction must be up or down", domain.ErrInvalidInput)
	}
	return d, nil
}

func boolPtr(v bool) *bool { return &v }
