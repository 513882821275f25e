package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
)

func (s *Server) registerSettingsTools() {
	s.mcp.AddTool(mcp.NewTool("update_settings",
		mcp.WithDescription("Change site-wide settings. Only the fields given are changed."),
		mcp.WithString("title", mcp.Description("Site title")),
		mcp.WithString("font", mcp.Description("Font family"),
			mcp.Enum("inter", "roboto", "open-sans", "lato", "montserrat", "playfair", "merriweather", "system")),
		mcp.WithString("primaryColor", mcp.Description("Hex colour, e.g. #2563eb")),
		mcp.WithString("secondaryColor", mcp.Description("Hex colour, e.g. #f59e0b")),
	), s.handleUpdateSettings)
}

func (s *Server) handleUpdateSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var patch editor.SettingsPatch
	if v, ok := args["title"].(string); ok {
		patch.Title = &v
	}
	if v, ok := args["font"].(string); ok {
		f := domain.Font(v)
		patch.Font = &f
	}
	if v, ok := args["primaryColor"].(string); ok {
		patch.PrimaryColor = &v
	}
	if v, ok := args["secondaryColor"].(string); ok {
		patch.SecondaryColor = &v
	}

	doc, err := s.site.UpdateSettings(ctx, patch)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{
		"title":          doc.Title,
		"font":           doc.Font,
		"primaryColor":   doc.PrimaryColor,
		"secondaryColor": doc.SecondaryColor,
	})
}
