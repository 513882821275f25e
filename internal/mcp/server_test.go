package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "site.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	site := service.NewSiteService(
		storage.NewGateway(storage.NewSQLiteDocumentStore(db), "site", nil),
		storage.NewSQLiteHistoryStore(db, 10),
		nil,
	)
	require.NoError(t, site.Load(context.Background()))
	return New(Deps{Site: site})
}

func call(t *testing.T, h handler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestEditsRequireLogin(t *testing.T) {
	s := newTestServer(t)

	res := call(t, s.handleAddPage, map[string]any{"name": "About"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "login")

	call(t, s.handleLogin, nil)
	res = call(t, s.handleAddPage, map[string]any{"name": "About"})
	assert.False(t, res.IsError, text(res))
}

func TestPageTools(t *testing.T) {
	s := newTestServer(t)
	call(t, s.handleLogin, nil)
	home := s.site.Document().Pages[0].ID

	res := call(t, s.handleAddPage, map[string]any{"name": "Team", "parentId": home})
	require.False(t, res.IsError, text(res))
	var team domain.Page
	require.NoError(t, json.Unmarshal([]byte(text(res)), &team))
	assert.Equal(t, "team", team.Slug)

	res = call(t, s.handleListPages, nil)
	var rows []pageSummary
	require.NoError(t, json.Unmarshal([]byte(text(res)), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[1].Depth)
	assert.True(t, rows[0].IsOpen)
	assert.True(t, rows[0].Active)

	res = call(t, s.handleMovePage, map[string]any{"pageId": home, "direction": "up"})
	assert.False(t, res.IsError)
	assert.Contains(t, text(res), `"moved": false`)

	res = call(t, s.handleMovePage, map[string]any{"pageId": home, "direction": "sideways"})
	assert.True(t, res.IsError)

	res = call(t, s.handleDeletePage, map[string]any{"pageId": home})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "last root page")

	res = call(t, s.handleRenamePage, map[string]any{"pageId": team.ID, "name": "Our Team"})
	require.False(t, res.IsError, text(res))
	res = call(t, s.handleGetPage, map[string]any{"pageId": team.ID})
	var state domain.PageState
	require.NoError(t, json.Unmarshal([]byte(text(res)), &state))
	assert.Equal(t, "our-team", state.Page.Slug)
	assert.Equal(t, []string{home}, state.Ancestors)

	res = call(t, s.handleSetActivePage, map[string]any{"pageId": "nope"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "not found")
}

func TestBlockTools(t *testing.T) {
	s := newTestServer(t)
	call(t, s.handleLogin, nil)

	res := call(t, s.handleAddBlock, map[string]any{"type": "heading", "data": `{"text":"Welcome","level":1}`})
	require.False(t, res.IsError, text(res))
	var block struct {
		ID   string                `json:"id"`
		Data domain.HeadingPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(res)), &block))
	assert.Equal(t, "Welcome", block.Data.Text)
	assert.Equal(t, 1, block.Data.Level)

	call(t, s.handleAddBlock, map[string]any{"type": "spacer"})

	res = call(t, s.handleUpdateBlockWidth, map[string]any{"blockId": block.ID, "width": "1/2"})
	require.False(t, res.IsError, text(res))
	res = call(t, s.handleUpdateBlockWidth, map[string]any{"blockId": block.ID, "width": "5/7"})
	assert.True(t, res.IsError)

	res = call(t, s.handleUpdateBlockStyle, map[string]any{"blockId": block.ID, "style": `{"backgroundOpacity": 150}`})
	assert.True(t, res.IsError)
	res = call(t, s.handleUpdateBlockStyle, map[string]any{"blockId": block.ID, "style": `{"textColor":"#fff"}`})
	require.False(t, res.IsError, text(res))

	res = call(t, s.handleMoveBlock, map[string]any{"index": float64(0), "direction": "down"})
	require.False(t, res.IsError, text(res))
	page, err := s.site.ActivePage()
	require.NoError(t, err)
	assert.Equal(t, block.ID, page.Page.Sections[1].ID)
	assert.Equal(t, domain.WidthHalf, page.Page.Sections[1].Width)
	assert.Equal(t, "#fff", page.Page.Sections[1].Style.TextColor)

	res = call(t, s.handleMoveBlock, map[string]any{"index": float64(1), "direction": "down"})
	assert.Contains(t, text(res), `"moved": false`)

	res = call(t, s.handleAddBlock, map[string]any{"type": "marquee"})
	assert.True(t, res.IsError)

	res = call(t, s.handleAddBlock, map[string]any{"type": "embed", "data": `{"height":"tall"}`})
	assert.True(t, res.IsError)
	page, err = s.site.ActivePage()
	require.NoError(t, err)
	assert.Len(t, page.Page.Sections, 2, "rejected data must not leave a block behind")

	res = call(t, s.handleDeleteBlock, map[string]any{"blockId": block.ID})
	require.False(t, res.IsError, text(res))
	page, _ = s.site.ActivePage()
	assert.Len(t, page.Page.Sections, 1)
}

func TestUndoRedoAndSave(t *testing.T) {
	s := newTestServer(t)

	res := call(t, s.handleSaveDocument, nil)
	assert.True(t, res.IsError, "saving needs a session")

	call(t, s.handleLogin, nil)
	call(t, s.handleAddPage, map[string]any{"name": "About"})
	require.Len(t, s.site.Document().Pages, 2)

	res = call(t, s.handleUndo, nil)
	require.False(t, res.IsError, text(res))
	assert.Len(t, s.site.Document().Pages, 1)

	res = call(t, s.handleUndo, nil)
	assert.False(t, res.IsError)
	assert.Contains(t, text(res), "nothing to undo")

	call(t, s.handleRedo, nil)
	assert.Len(t, s.site.Document().Pages, 2)

	res = call(t, s.handleSaveDocument, nil)
	assert.False(t, res.IsError)
	assert.Contains(t, text(res), `"success": true`)
}

func TestSettingsAndCatalog(t *testing.T) {
	s := newTestServer(t)
	call(t, s.handleLogin, nil)

	res := call(t, s.handleUpdateSettings, map[string]any{"title": "Bakery", "font": "lato"})
	require.False(t, res.IsError, text(res))
	assert.Equal(t, domain.FontLato, s.site.Document().Font)
	assert.Equal(t, "#2563eb", s.site.Document().PrimaryColor)

	res = call(t, s.handleUpdateSettings, map[string]any{"primaryColor": "blue"})
	assert.True(t, res.IsError)

	res = call(t, s.handleListBlockTypes, nil)
	var types []struct {
		Type domain.BlockType `json:"type"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(res)), &types))
	assert.Len(t, types, len(domain.KnownBlockTypes()))
}

func TestResources(t *testing.T) {
	s := newTestServer(t)
	home := s.site.Document().Pages[0].ID

	var req mcp.ReadResourceRequest
	req.Params.URI = "site://page/" + home
	contents, err := s.handlePageResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, home)

	req.Params.URI = "site://page/missing"
	_, err = s.handlePageResource(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	req.Params.URI = documentURI
	contents, err = s.handleDocumentResource(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, `"title": "My Site"`)

	assert.Equal(t, "abc", extractPageIDFromURI("site://page/abc"))
	assert.Empty(t, extractPageIDFromURI("notes://page/abc"))
}

func TestEmitWithoutClients(t *testing.T) {
	s := newTestServer(t)
	assert.NotPanics(t, func() {
		s.Emit(context.Background(), service.EventDocumentChanged, nil)
		s.Emit(context.Background(), service.EventPageActivated, map[string]string{"pageId": "x"})
	})
}
