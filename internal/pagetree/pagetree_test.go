package pagetree_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/pagetree"
)

func page(id string, subs ...domain.Page) domain.Page {
	if subs == nil {
		subs = []domain.Page{}
	}
	return domain.Page{ID: id, Name: id, Slug: id, Sections: []domain.Block{}, SubPages: subs}
}

// home
// about
//
//	team
//	  leads
//	history
//
// contact
func fixture() []domain.Page {
	return []domain.Page{
		page("home"),
		page("about", page("team", page("leads")), page("history")),
		page("contact"),
	}
}

func ids(forest []domain.Page) []string {
	out := make([]string, len(forest))
	for i := range forest {
		out[i] = forest[i].ID
	}
	return out
}

func TestFindByID(t *testing.T) {
	forest := fixture()

	p, ok := pagetree.FindByID(forest, "leads")
	require.True(t, ok)
	assert.Equal(t, "leads", p.ID)

	_, ok = pagetree.FindByID(forest, "nope")
	assert.False(t, ok)
}

func TestIsAncestorOf(t *testing.T) {
	forest := fixture()
	assert.True(t, pagetree.IsAncestorOf(forest[1], "leads"))
	assert.True(t, pagetree.IsAncestorOf(forest[1], "history"))
	assert.False(t, pagetree.IsAncestorOf(forest[1], "about"))
	assert.False(t, pagetree.IsAncestorOf(forest[0], "leads"))
}

func TestPathTo(t *testing.T) {
	forest := fixture()

	path, ok := pagetree.PathTo(forest, "leads")
	require.True(t, ok)
	assert.Equal(t, []string{"about", "team"}, path)

	path, ok = pagetree.PathTo(forest, "home")
	require.True(t, ok)
	assert.Empty(t, path)

	_, ok = pagetree.PathTo(forest, "nope")
	assert.False(t, ok)
}

func TestDepth(t *testing.T) {
	forest := fixture()
	assert.Equal(t, 0, pagetree.Depth(forest, "home"))
	assert.Equal(t, 2, pagetree.Depth(forest, "leads"))
	assert.Equal(t, -1, pagetree.Depth(forest, "nope"))
}

func TestUpdateByID_CopiesOnlyThePath(t *testing.T) {
	forest := fixture()

	out, ok := pagetree.UpdateByID(forest, "leads", func(p domain.Page) domain.Page {
		p.Name = "Leadership"
		return p
	})
	require.True(t, ok)

	leads, _ := pagetree.FindByID(out, "leads")
	assert.Equal(t, "Leadership", leads.Name)
	orig, _ := pagetree.FindByID(forest, "leads")
	assert.Equal(t, "leads", orig.Name)

	assert.Equal(t, fixture(), forest, "input forest must not change")
}

func TestUpdateByID_SharesOffPathSubtrees(t *testing.T) {
	forest := fixture()
	forest[1].SubPages[1].Sections = []domain.Block{{ID: "b1", Type: domain.BlockTypeDivider}}
	forest[2].SubPages = []domain.Page{page("map")}

	out, ok := pagetree.UpdateByID(forest, "leads", func(p domain.Page) domain.Page {
		p.Name = "Leadership"
		return p
	})
	require.True(t, ok)

	// history and contact are off the path: their slices are reused as is
	assert.Same(t, unsafe.SliceData(forest[1].SubPages[1].Sections), unsafe.SliceData(out[1].SubPages[1].Sections))
	assert.Same(t, unsafe.SliceData(forest[2].SubPages), unsafe.SliceData(out[2].SubPages))
	// about is on the path, so its sub-page list is a new array
	assert.NotSame(t, unsafe.SliceData(forest[1].SubPages), unsafe.SliceData(out[1].SubPages))
}

func TestUpdateByID_Missing(t *testing.T) {
	forest := fixture()
	out, ok := pagetree.UpdateByID(forest, "nope", func(p domain.Page) domain.Page { return p })
	assert.False(t, ok)
	assert.Equal(t, forest, out)
}

func TestDeleteByID_Cascades(t *testing.T) {
	forest := fixture()

	out, ok := pagetree.DeleteByID(forest, "team")
	require.True(t, ok)
	_, found := pagetree.FindByID(out, "leads")
	assert.False(t, found)
	assert.Equal(t, 4, pagetree.Count(out))
	assert.Equal(t, 6, pagetree.Count(forest))

	out, ok = pagetree.DeleteByID(forest, "home")
	require.True(t, ok)
	assert.Equal(t, []string{"about", "contact"}, ids(out))

	_, ok = pagetree.DeleteByID(forest, "nope")
	assert.False(t, ok)
}

func TestInsertChild_OpensParent(t *testing.T) {
	forest := []domain.Page{page("home")}

	out, ok := pagetree.InsertChild(forest, "home", page("about"))
	require.True(t, ok)
	require.Len(t, out[0].SubPages, 1)
	assert.Equal(t, "about", out[0].SubPages[0].ID)
	assert.True(t, out[0].IsOpen)
	assert.True(t, out[0].IsDirectory())

	assert.Empty(t, forest[0].SubPages)
	assert.False(t, forest[0].IsOpen)

	_, ok = pagetree.InsertChild(forest, "nope", page("x"))
	assert.False(t, ok)
}

func TestMoveAmongSiblings(t *testing.T) {
	forest := fixture()

	out, moved := pagetree.MoveAmongSiblings(forest, "history", domain.DirectionUp)
	require.True(t, moved)
	assert.Equal(t, []string{"history", "team"}, ids(out[1].SubPages))
	assert.Equal(t, []string{"team", "history"}, ids(forest[1].SubPages))

	out, moved = pagetree.MoveAmongSiblings(forest, "contact", domain.DirectionUp)
	require.True(t, moved)
	assert.Equal(t, []string{"home", "contact", "about"}, ids(out))
}

func TestMoveAmongSiblings_BoundaryAndMissing(t *testing.T) {
	forest := fixture()

	out, moved := pagetree.MoveAmongSiblings(forest, "home", domain.DirectionUp)
	assert.False(t, moved)
	assert.Equal(t, forest, out)

	_, moved = pagetree.MoveAmongSiblings(forest, "leads", domain.DirectionDown)
	assert.False(t, moved)

	found, movable := pagetree.Locate(forest, "leads", domain.DirectionDown)
	assert.True(t, found)
	assert.False(t, movable)

	found, _ = pagetree.Locate(forest, "nope", domain.DirectionDown)
	assert.False(t, found)
}

func TestMoveAmongSiblings_DuplicateIDsMoveFirstMatchOnly(t *testing.T) {
	forest := []domain.Page{
		page("a", page("dup"), page("x")),
		page("b", page("y"), page("dup")),
	}

	out, moved := pagetree.MoveAmongSiblings(forest, "dup", domain.DirectionDown)
	require.True(t, moved)
	assert.Equal(t, []string{"x", "dup"}, ids(out[0].SubPages))
	assert.Equal(t, []string{"y", "dup"}, ids(out[1].SubPages))

	// the first match sits at the top of its list; the later one is not tried
	out, moved = pagetree.MoveAmongSiblings(forest, "dup", domain.DirectionUp)
	assert.False(t, moved)
	assert.Equal(t, forest, out)

	// the current level is searched before any sub-pages
	forest = []domain.Page{page("a", page("dup"), page("z")), page("dup")}
	_, moved = pagetree.MoveAmongSiblings(forest, "dup", domain.DirectionDown)
	assert.False(t, moved)
}

func TestToggleOpen(t *testing.T) {
	forest := fixture()
	out, ok := pagetree.ToggleOpen(forest, "about")
	require.True(t, ok)
	assert.True(t, out[1].IsOpen)

	out, ok = pagetree.ToggleOpen(out, "about")
	require.True(t, ok)
	assert.False(t, out[1].IsOpen)
}

func TestWalk_DocumentOrderAndDepth(t *testing.T) {
	var visited []string
	var depths []int
	pagetree.Walk(fixture(), func(p domain.Page, depth int) bool {
		visited = append(visited, p.ID)
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []string{"home", "about", "team", "leads", "history", "contact"}, visited)
	assert.Equal(t, []int{0, 0, 1, 2, 1, 0}, depths)
	assert.Equal(t, visited, pagetree.CollectIDs(fixture()))
}

func TestWalk_StopsEarly(t *testing.T) {
	n := 0
	pagetree.Walk(fixture(), func(p domain.Page, _ int) bool {
		n++
		return p.ID != "team"
	})
	assert.Equal(t, 3, n)
}
