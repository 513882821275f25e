package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_site",
		mcp.WithPromptDescription("Guide through laying out a small multi-page site"),
		mcp.WithArgument("business",
			mcp.ArgumentDescription("What the site is for, e.g. a neighbourhood bakery"),
			mcp.RequiredArgument(),
		),
	), s.handleBuildSitePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("landing_page",
		mcp.WithPromptDescription("Fill the active page with a conventional landing page"),
		mcp.WithArgument("product",
			mcp.ArgumentDescription("Product or offer the page sells"),
			mcp.RequiredArgument(),
		),
	), s.handleLandingPagePrompt)
}

func (s *Server) handleBuildSitePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	business := req.Params.Arguments["business"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a site for: %s", business),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a website for %s. Follow these steps:

1. Call login, then update_settings with a fitting title, font and colours.
2. Use list_pages to see the current tree. Rename the first page to "Home" if needed.
3. Add root pages with add_page for the main sections (e.g. About, Services, Contact).
   Group related pages under a parent by passing parentId. A page with sub-pages cannot hold blocks.
4. For each leaf page, set_active_page and add blocks with add_block (see list_block_types).
   Pass a data JSON object to fill in real copy instead of the defaults.
5. Use move_block and move_page to fix the order, then save_document.`, business),
				},
			},
		},
	}, nil
}

func (s *Server) handleLandingPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	product := req.Params.Arguments["product"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Landing page for: %s", product),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Turn the active page into a landing page for "%s". Add, in order:

1. a hero block with a headline and call to action
2. a features block with three benefits
3. a testimonials block
4. a pricing block
5. a faq block answering the obvious objections
6. a cta block repeating the call to action

Use update_block_width to put short blocks side by side (1/2 or 1/3) and save_document at the end.`, product),
				},
			},
		},
	}, nil
}
