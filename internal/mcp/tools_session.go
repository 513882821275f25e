package mcpserver

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/domain"
)

func (s *Server) registerSessionTools() {
	// ── get_document ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Return the whole site document: settings and the full page tree with every block"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleGetDocument)

	s.mcp.AddTool(mcp.NewTool("login",
		mcp.WithDescription("Sign the editing session in. Edits and saves require a signed-in session."),
	), s.handleLogin)

	s.mcp.AddTool(mcp.NewTool("logout",
		mcp.WithDescription("Sign the editing session out. Unsaved edits stay in memory."),
	), s.handleLogout)

	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Restore the document as it was before the last edit"),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Re-apply the most recently undone edit"),
	), s.handleRedo)

	// ── save_document ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Persist the current document. Returns {success, error}; a failed save keeps the edits in memory."),
	), s.handleSaveDocument)
}

func (s *Server) handleGetDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.site.Document())
}

func (s *Server) handleLogin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.site.Login(ctx)
	return textResult("Signed in"), nil
}

func (s *Server) handleLogout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.site.Logout(ctx)
	return textResult("Signed out"), nil
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.travelResult(s.site.Undo(ctx), "Undone")
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.travelResult(s.site.Redo(ctx), "Redone")
}

func (s *Server) travelResult(err error, okText string) (*mcp.CallToolResult, error) {
	if errors.Is(err, domain.ErrBoundary) {
		return textResult(err.Error()), nil
	}
	return editResult(err, okText)
}

func (s *Server) handleSaveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.site.Save(ctx)
	out, err := jsonResult(res)
	if err != nil {
		return nil, err
	}
	out.IsError = !res.Success
	return out, nil
}
