// Package pagetree implements pure operations over a forest of pages.
//
// Mutations copy only the path from a root to the affected node; every page
// outside that path keeps sharing its SubPages and Sections backing arrays
// with the input forest, which is never written to.
package pagetree

import "pagebuilder/internal/domain"

// FindByID searches depth-first in document order: a node before its
// children, siblings left to right.
func FindByID(forest []domain.Page, id string) (domain.Page, bool) {
	for i := range forest {
		if forest[i].ID == id {
			return forest[i], true
		}
		if p, ok := FindByID(forest[i].SubPages, id); ok {
			return p, true
		}
	}
	return domain.Page{}, false
}

// IsAncestorOf reports whether targetID is a proper descendant of page.
func IsAncestorOf(page domain.Page, targetID string) bool {
	for i := range page.SubPages {
		if page.SubPages[i].ID == targetID || IsAncestorOf(page.SubPages[i], targetID) {
			return true
		}
	}
	return false
}

// PathTo returns the ids of id's ancestors, root first. The second result is
// false when id is not in the forest.
func PathTo(forest []domain.Page, id string) ([]string, bool) {
	for i := range forest {
		if forest[i].ID == id {
			return []string{}, true
		}
		if path, ok := PathTo(forest[i].SubPages, id); ok {
			return append([]string{forest[i].ID}, path...), true
		}
	}
	return nil, false
}

// Depth returns how many ancestors the page has, or -1 when id is absent.
func Depth(forest []domain.Page, id string) int {
	path, ok := PathTo(forest, id)
	if !ok {
		return -1
	}
	return len(path)
}

// UpdateByID applies fn to the first page matching id and rebuilds its
// ancestors. The forest is returned as is when id is absent.
func UpdateByID(forest []domain.Page, id string, fn func(domain.Page) domain.Page) ([]domain.Page, bool) {
	for i := range forest {
		if forest[i].ID == id {
			out := clone(forest)
			out[i] = fn(forest[i])
			return out, true
		}
		if sub, ok := UpdateByID(forest[i].SubPages, id, fn); ok {
			out := clone(forest)
			out[i].SubPages = sub
			return out, true
		}
	}
	return forest, false
}

// DeleteByID removes every page matching id together with its subtree.
func DeleteByID(forest []domain.Page, id string) ([]domain.Page, bool) {
	var out []domain.Page
	changed := false
	ensure := func(upTo int) {
		if !changed {
			out = make([]domain.Page, 0, len(forest))
			out = append(out, forest[:upTo]...)
			changed = true
		}
	}
	for i := range forest {
		if forest[i].ID == id {
			ensure(i)
			continue
		}
		if sub, ok := DeleteByID(forest[i].SubPages, id); ok {
			ensure(i)
			p := forest[i]
			p.SubPages = sub
			out = append(out, p)
			continue
		}
		if changed {
			out = append(out, forest[i])
		}
	}
	if !changed {
		return forest, false
	}
	return out, true
}

// InsertChild appends child as the last sub-page of parentID and opens the
// parent so the new page is visible.
func InsertChild(forest []domain.Page, parentID string, child domain.Page) ([]domain.Page, bool) {
	return UpdateByID(forest, parentID, func(p domain.Page) domain.Page {
		subs := make([]domain.Page, len(p.SubPages), len(p.SubPages)+1)
		copy(subs, p.SubPages)
		p.SubPages = append(subs, child)
		p.IsOpen = true
		return p
	})
}

// MoveAmongSiblings swaps id with its neighbour in dir inside whichever list
// holds it. The current level is searched before any sub-pages, and the
// search ends at the first list containing id.
func MoveAmongSiblings(forest []domain.Page, id string, dir domain.Direction) ([]domain.Page, bool) {
	out, _, moved := move(forest, id, dir)
	return out, moved
}

func move(list []domain.Page, id string, dir domain.Direction) ([]domain.Page, bool, bool) {
	for i := range list {
		if list[i].ID == id {
			out, ok := domain.Swap(list, i, dir)
			return out, true, ok
		}
	}
	for i := range list {
		sub, found, moved := move(list[i].SubPages, id, dir)
		if moved {
			out := clone(list)
			out[i].SubPages = sub
			return out, true, true
		}
		if found {
			return list, true, false
		}
	}
	return list, false, false
}

// Locate reports whether id exists and, if so, whether a move in dir would
// succeed. It lets callers tell a missing page from a boundary no-op.
func Locate(forest []domain.Page, id string, dir domain.Direction) (found, movable bool) {
	_, found, movable = move(forest, id, dir)
	return found, movable
}

func ToggleOpen(forest []domain.Page, id string) ([]domain.Page, bool) {
	return UpdateByID(forest, id, func(p domain.Page) domain.Page {
		p.IsOpen = !p.IsOpen
		return p
	})
}

// Walk visits every page in document order with its depth (roots are 0).
// Returning false from fn stops the walk.
func Walk(forest []domain.Page, fn func(p domain.Page, depth int) bool) {
	walk(forest, 0, fn)
}

func walk(forest []domain.Page, depth int, fn func(domain.Page, int) bool) bool {
	for i := range forest {
		if !fn(forest[i], depth) {
			return false
		}
		if !walk(forest[i].SubPages, depth+1, fn) {
			return false
		}
	}
	return true
}

func Count(forest []domain.Page) int {
	n := 0
	Walk(forest, func(domain.Page, int) bool {
		n++
		return true
	})
	return n
}

func CollectIDs(forest []domain.Page) []string {
	ids := make([]string, 0, len(forest))
	Walk(forest, func(p domain.Page, _ int) bool {
		ids = append(ids, p.ID)
		return true
	})
	return ids
}

func clone(forest []domain.Page) []domain.Page {
	out := make([]domain.Page, len(forest))
	copy(out, forest)
	return out
}
