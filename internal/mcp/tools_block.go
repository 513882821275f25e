package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/domain"
)

func (s *Server) registerBlockTools() {
	// ── list_block_types ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List every block type with the default data a new block of that type starts with"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListBlockTypes)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Append a block to the end of a page. Pages with sub-pages cannot take blocks."),
		mcp.WithString("type", mcp.Description("Block type, see list_block_types"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("data", mcp.Description("JSON object merged over the default data (optional)")),
	), s.handleAddBlock)

	s.mcp.AddTool(mcp.NewTool("update_block_data",
		mcp.WithDescription("Merge a JSON object into a block's data. Fields not mentioned keep their values; list fields are replaced whole."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("data", mcp.Description("JSON object with the fields to change"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleUpdateBlockData)

	s.mcp.AddTool(mcp.NewTool("update_block_width",
		mcp.WithDescription("Set the fraction of the row a block occupies"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("width", mcp.Description("Column width"), mcp.Required(),
			mcp.Enum(string(domain.WidthFull), string(domain.WidthThreeQuarter), string(domain.WidthTwoThirds),
				string(domain.WidthHalf), string(domain.WidthThird), string(domain.WidthQuarter))),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleUpdateBlockWidth)

	s.mcp.AddTool(mcp.NewTool("update_block_padding",
		mcp.WithDescription("Set the vertical padding around a block; an empty value resets it"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("padding", mcp.Description("none, sm, md, lg, xl or empty")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleUpdateBlockPadding)

	s.mcp.AddTool(mcp.NewTool("update_block_style",
		mcp.WithDescription("Replace a block's style overrides (backgroundColor, backgroundImage, backgroundOpacity 0-100, textColor). Omit style to clear them."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("style", mcp.Description("JSON object, or empty to clear")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleUpdateBlockStyle)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block from a page."),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Swap the block at index with its neighbour above (up) or below (down)"),
		mcp.WithNumber("index", mcp.Description("Zero-based position of the block on the page"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("up or down"), mcp.Required(), mcp.Enum("up", "down")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleMoveBlock)
}

// blockTypeInfo is one entry of list_block_types.
type blockTypeInfo struct {
	Type     domain.BlockType `json:"type"`
	Defaults domain.Payload   `json:"defaults"`
}

func (s *Server) handleListBlockTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	types := domain.KnownBlockTypes()
	out := make([]blockTypeInfo, len(types))
	for i, t := range types {
		p, _ := domain.DefaultPayload(t)
		out[i] = blockTypeInfo{Type: t, Defaults: p}
	}
	return jsonResult(out)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockType, err := requireString(req, "type")
	if err != nil {
		return errorResult(err), nil
	}
	pageID := req.GetString("pageId", "")

	data := strings.TrimSpace(req.GetString("data", ""))
	block, err := s.site.AddBlockWithData(ctx, pageID, domain.BlockType(blockType), json.RawMessage(data))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(block)
}

func (s *Server) handleUpdateBlockData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return errorResult(err), nil
	}
	data, err := requireString(req, "data")
	if err != nil {
		return errorResult(err), nil
	}
	payload, err := s.site.PatchBlockData(ctx, req.GetString("pageId", ""), blockID, json.RawMessage(data))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(payload)
}

func (s *Server) handleUpdateBlockWidth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return errorResult(err), nil
	}
	w := domain.Width(req.GetString("width", ""))
	return editResult(s.site.UpdateBlockWidth(ctx, req.GetString("pageId", ""), blockID, w), "Width set to "+string(w))
}

func (s *Server) handleUpdateBlockPadding(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return errorResult(err), nil
	}
	p := domain.Padding(req.GetString("padding", ""))
	return editResult(s.site.UpdateBlockPadding(ctx, req.GetString("pageId", ""), blockID, p), "Padding updated")
}

func (s *Server) handleUpdateBlockStyle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return errorResult(err), nil
	}
	var style *domain.BlockStyle
	if raw := strings.TrimSpace(req.GetString("style", "")); raw != "" && raw != "null" {
		style = &domain.BlockStyle{}
		if err := json.Unmarshal([]byte(raw), style); err != nil {
			return errorResult(fmt.Errorf("%w: style must be a JSON object: %v", domain.ErrInvalidInput, err)), nil
		}
	}
	return editResult(s.site.UpdateBlockStyle(ctx, req.GetString("pageId", ""), blockID, style), "Style updated")
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return errorResult(err), nil
	}
	return editResult(s.site.DeleteBlock(ctx, req.GetString("pageId", ""), blockID), "Block deleted")
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := direction(req)
	if err != nil {
		return errorResult(err), nil
	}
	index := req.GetInt("index", -1)
	return editResult(s.site.MoveBlock(ctx, req.GetString("pageId", ""), index, dir), "Block moved "+string(dir))
}
