package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/pagetree"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List every page in document order with its depth, slug and block count"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListPages)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Return one page with its blocks and the ids of its ancestors"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleGetPage)

	// ── set_active_page ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_page",
		mcp.WithDescription("Set the active page for subsequent tool calls. Tools that accept pageId will default to this."),
		mcp.WithString("pageId",
			mcp.Description("ID of the page to make active"),
			mcp.Required(),
		),
	), s.handleSetActivePage)

	// ── add_page ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_page",
		mcp.WithDescription("Add a page. Without parentId it becomes the last root page; with parentId it becomes that page's last sub-page and the parent is expanded."),
		mcp.WithString("name", mcp.Description("Page name (defaults to \"Untitled\")")),
		mcp.WithString("parentId", mcp.Description("Parent page ID (optional)")),
	), s.handleAddPage)

	s.mcp.AddTool(mcp.NewTool("rename_page",
		mcp.WithDescription("Rename a page. The slug is re-derived from the new name."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenamePage)

	// ── delete_page (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a page and all of its sub-pages. The last root page cannot be deleted."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeletePage)

	s.mcp.AddTool(mcp.NewTool("move_page",
		mcp.WithDescription("Swap a page with its previous (up) or next (down) sibling"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("up or down"), mcp.Required(), mcp.Enum("up", "down")),
	), s.handleMovePage)

	s.mcp.AddTool(mcp.NewTool("toggle_page",
		mcp.WithDescription("Expand or collapse a page in the navigation tree"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleTogglePage)
}

// pageSummary is one row of list_pages.
type pageSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Depth    int    `json:"depth"`
	IsOpen   bool   `json:"isOpen"`
	Blocks   int    `json:"blocks"`
	SubPages int    `json:"subPages"`
	Active   bool   `json:"active,omitempty"`
}

func summarizePages(forest []domain.Page, activeID string) []pageSummary {
	var out []pageSummary
	pagetree.Walk(forest, func(p domain.Page, depth int) bool {
		out = append(out, pageSummary{
			ID:       p.ID,
			Name:     p.Name,
			Slug:     p.Slug,
			Depth:    depth,
			IsOpen:   p.IsOpen,
			Blocks:   len(p.Sections),
			SubPages: len(p.SubPages),
			Active:   p.ID == activeID,
		})
		return true
	})
	return out
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(summarizePages(s.site.Document().Pages, s.site.ActivePageID()))
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.site.Page(req.GetString("pageId", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(state)
}

func (s *Server) handleSetActivePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req, "pageId")
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.site.SetActivePage(ctx, pageID); err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("Active page set to %s", pageID)), nil
}

func (s *Server) handleAddPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.site.AddPage(ctx, req.GetString("name", ""), req.GetString("parentId", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(page)
}

func (s *Server) handleRenamePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req, "pageId")
	if err != nil {
		return errorResult(err), nil
	}
	name := req.GetString("name", "")
	return editResult(s.site.RenamePage(ctx, pageID, name), "Page renamed")
}

func (s *Server) handleDeletePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req, "pageId")
	if err != nil {
		return errorResult(err), nil
	}
	return editResult(s.site.DeletePage(ctx, pageID), "Page deleted")
}

func (s *Server) handleMovePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req, "pageId")
	if err != nil {
		return errorResult(err), nil
	}
	dir, err := direction(req)
	if err != nil {
		return errorResult(err), nil
	}
	return editResult(s.site.MovePage(ctx, pageID, dir), "Page moved "+string(dir))
}

func (s *Server) handleTogglePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req, "pageId")
	if err != nil {
		return errorResult(err), nil
	}
	return editResult(s.site.TogglePageOpen(ctx, pageID), "Page toggled")
}
