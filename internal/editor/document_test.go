package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/pagetree"
)

func TestNew(t *testing.T) {
	doc := editor.New("")
	assert.Equal(t, "My Site", doc.Title)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "home", doc.Pages[0].Slug)
	assert.NoError(t, editor.Validate(doc))
}

func TestAddPage_ChildOpensParentAndMakesItADirectory(t *testing.T) {
	doc := editor.New("Site")
	home := doc.Pages[0]

	next, about, err := editor.AddPage(doc, "About", home.ID)
	require.NoError(t, err)

	parent, ok := pagetree.FindByID(next.Pages, home.ID)
	require.True(t, ok)
	assert.True(t, parent.IsOpen)
	assert.True(t, parent.IsDirectory())
	require.Len(t, parent.SubPages, 1)
	assert.Equal(t, about.ID, parent.SubPages[0].ID)
	assert.Equal(t, "about", about.Slug)

	_, _, err = editor.AddBlock(next, home.ID, domain.BlockTypeText)
	assert.ErrorIs(t, err, domain.ErrDirectoryPage)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	// Input snapshot is untouched.
	assert.Empty(t, doc.Pages[0].SubPages)
}

func TestAddPage_RootAndSlugCollisions(t *testing.T) {
	doc := editor.New("Site")

	doc, first, err := editor.AddPage(doc, "Café Menu", "")
	require.NoError(t, err)
	assert.Equal(t, "cafe-menu", first.Slug)

	doc, second, err := editor.AddPage(doc, "Cafe menu!", "")
	require.NoError(t, err)
	assert.Equal(t, "cafe-menu-2", second.Slug)

	doc, untitled, err := editor.AddPage(doc, "   ", "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled", untitled.Name)
	assert.Len(t, doc.Pages, 4)

	_, _, err = editor.AddPage(doc, "Orphan", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlockLifecycle(t *testing.T) {
	doc := editor.New("Site")
	pageID := doc.Pages[0].ID

	doc, a, err := editor.AddBlock(doc, pageID, domain.BlockTypeHeading)
	require.NoError(t, err)
	doc, b, err := editor.AddBlock(doc, pageID, domain.BlockTypeText)
	require.NoError(t, err)
	assert.Equal(t, domain.WidthFull, a.Width)

	doc, err = editor.UpdateBlockData(doc, pageID, b.ID, domain.TextPayload{Content: "Hello", Align: "center"})
	require.NoError(t, err)

	_, err = editor.UpdateBlockData(doc, pageID, b.ID, domain.HeadingPayload{Text: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	doc, err = editor.UpdateBlockWidth(doc, pageID, b.ID, domain.WidthHalf)
	require.NoError(t, err)
	_, err = editor.UpdateBlockWidth(doc, pageID, b.ID, "5/6")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	doc, err = editor.UpdateBlockPadding(doc, pageID, b.ID, domain.PaddingXL)
	require.NoError(t, err)

	opacity := 50
	doc, err = editor.UpdateBlockStyle(doc, pageID, b.ID, &domain.BlockStyle{BackgroundColor: "#eee", BackgroundOpacity: &opacity})
	require.NoError(t, err)

	state, err := editor.PageState(doc, pageID)
	require.NoError(t, err)
	require.Len(t, state.Page.Sections, 2)
	got := state.Page.Sections[1]
	assert.Equal(t, domain.TextPayload{Content: "Hello", Align: "center"}, got.Data)
	assert.Equal(t, domain.WidthHalf, got.Width)
	assert.Equal(t, domain.PaddingXL, got.Padding)
	require.NotNil(t, got.Style)
	assert.Equal(t, "#eee", got.Style.BackgroundColor)

	doc, err = editor.MoveBlock(doc, pageID, 1, domain.DirectionUp)
	require.NoError(t, err)
	state, _ = editor.PageState(doc, pageID)
	assert.Equal(t, b.ID, state.Page.Sections[0].ID)

	_, err = editor.MoveBlock(doc, pageID, 0, domain.DirectionUp)
	assert.ErrorIs(t, err, domain.ErrBoundary)
	_, err = editor.MoveBlock(doc, pageID, 5, domain.DirectionUp)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	doc, err = editor.DeleteBlock(doc, pageID, a.ID)
	require.NoError(t, err)
	_, err = editor.DeleteBlock(doc, pageID, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddBlock_Rejections(t *testing.T) {
	doc := editor.New("Site")

	_, _, err := editor.AddBlock(doc, doc.Pages[0].ID, "carousel")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = editor.AddBlock(doc, "missing", domain.BlockTypeText)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeletePage(t *testing.T) {
	doc := editor.New("Site")
	home := doc.Pages[0].ID

	_, err := editor.DeletePage(doc, home)
	assert.ErrorIs(t, err, domain.ErrLastRootPage)

	doc, about, err := editor.AddPage(doc, "About", home)
	require.NoError(t, err)
	doc, team, err := editor.AddPage(doc, "Team", about.ID)
	require.NoError(t, err)
	doc, contact, err := editor.AddPage(doc, "Contact", "")
	require.NoError(t, err)

	next, err := editor.DeletePage(doc, about.ID)
	require.NoError(t, err)
	_, found := pagetree.FindByID(next.Pages, team.ID)
	assert.False(t, found)

	next, err = editor.DeletePage(next, home)
	require.NoError(t, err)
	require.Len(t, next.Pages, 1)
	assert.Equal(t, contact.ID, next.Pages[0].ID)

	_, err = editor.DeletePage(next, contact.ID)
	assert.ErrorIs(t, err, domain.ErrLastRootPage)
	_, err = editor.DeletePage(next, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMovePage(t *testing.T) {
	doc := editor.New("Site")
	doc, second, err := editor.AddPage(doc, "Second", "")
	require.NoError(t, err)

	next, err := editor.MovePage(doc, second.ID, domain.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, second.ID, next.Pages[0].ID)

	_, err = editor.MovePage(next, second.ID, domain.DirectionUp)
	assert.ErrorIs(t, err, domain.ErrBoundary)
	_, err = editor.MovePage(next, "missing", domain.DirectionUp)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = editor.MovePage(next, second.ID, "left")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRenameAndToggle(t *testing.T) {
	doc := editor.New("Site")
	id := doc.Pages[0].ID

	doc, err := editor.RenamePage(doc, id, "Start Here")
	require.NoError(t, err)
	assert.Equal(t, "Start Here", doc.Pages[0].Name)
	assert.Equal(t, "start-here", doc.Pages[0].Slug)

	_, err = editor.RenamePage(doc, id, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	doc, err = editor.TogglePageOpen(doc, id)
	require.NoError(t, err)
	assert.True(t, doc.Pages[0].IsOpen)
	_, err = editor.TogglePageOpen(doc, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateSettings(t *testing.T) {
	doc := editor.New("Site")
	title := "Renamed"
	font := domain.FontLato
	color := "#123456"

	next, err := editor.UpdateSettings(doc, editor.SettingsPatch{Title: &title, Font: &font, PrimaryColor: &color})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", next.Title)
	assert.Equal(t, domain.FontLato, next.Font)
	assert.Equal(t, "#123456", next.PrimaryColor)
	assert.Equal(t, doc.SecondaryColor, next.SecondaryColor)

	bad := "red"
	_, err = editor.UpdateSettings(doc, editor.SettingsPatch{SecondaryColor: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestResolveActivePage(t *testing.T) {
	doc := editor.New("Site")
	doc, about, err := editor.AddPage(doc, "About", doc.Pages[0].ID)
	require.NoError(t, err)

	assert.Equal(t, about.ID, editor.ResolveActivePage(doc, about.ID))
	assert.Equal(t, doc.Pages[0].ID, editor.ResolveActivePage(doc, "gone"))
	assert.Equal(t, doc.Pages[0].ID, editor.ResolveActivePage(doc, ""))

	state, err := editor.PageState(doc, about.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{doc.Pages[0].ID}, state.Ancestors)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"About Us":          "about-us",
		"  Ünïcödé  Pägé ":  "unicode-page",
		"Pricing & Plans!!": "pricing-plans",
		"2024 Roadmap":      "2024-roadmap",
		"***":               "page",
	}
	for in, want := range cases {
		assert.Equal(t, want, editor.Slugify(in), in)
	}
}

func TestValidate(t *testing.T) {
	doc := editor.New("Site")
	dup := doc.Pages[0]
	doc.Pages = append(doc.Pages, dup)
	doc.Font = "comic"

	err := editor.Validate(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "duplicate page id")
	assert.Contains(t, err.Error(), "font")

	assert.ErrorIs(t, editor.Validate(domain.Document{}), domain.ErrInvalidInput)
}
