// Package editor is the document aggregate. Each operation takes a document
// snapshot and returns either a new snapshot or the unchanged input together
// with an error naming why nothing happened:
//
//   - domain.ErrNotFound: a page or block id did not resolve
//   - domain.ErrInvariantViolation (ErrLastRootPage, ErrDirectoryPage)
//   - domain.ErrBoundary: a move at the start or end of its list
//   - domain.ErrInvalidInput: a token or payload the model does not accept
//
// Nothing here panics on well-typed input and nothing writes to a snapshot it
// was given.
package editor

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/pagetree"
	"pagebuilder/internal/sections"
)

const (
	defaultTitle    = "My Site"
	defaultPageName = "Untitled"
)

// New returns a document with one empty root page.
func New(title string) domain.Document {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	return domain.Document{
		Title:          title,
		Font:           domain.FontInter,
		PrimaryColor:   "#2563eb",
		SecondaryColor: "#f59e0b",
		Pages:          []domain.Page{NewPage("Home", "home")},
	}
}

// NewPage builds an empty page with a fresh id.
func NewPage(name, slug string) domain.Page {
	return domain.Page{
		ID:       uuid.New().String(),
		Name:     name,
		Slug:     slug,
		Sections: []domain.Block{},
		SubPages: []domain.Page{},
	}
}

// ResolveActivePage returns activeID if it still names a page, otherwise the
// first root page id.
func ResolveActivePage(doc domain.Document, activeID string) string {
	if activeID != "" {
		if _, ok := pagetree.FindByID(doc.Pages, activeID); ok {
			return activeID
		}
	}
	if len(doc.Pages) == 0 {
		return ""
	}
	return doc.Pages[0].ID
}

// PageState resolves a page and its ancestor path for rendering.
func PageState(doc domain.Document, pageID string) (domain.PageState, error) {
	page, ok := pagetree.FindByID(doc.Pages, pageID)
	if !ok {
		return domain.PageState{}, notFound("page", pageID)
	}
	path, _ := pagetree.PathTo(doc.Pages, pageID)
	return domain.PageState{Page: page, Ancestors: path}, nil
}

// ── Blocks ─────────────────────────────────────────────────

// AddBlock appends a new block of type t to the page. Directory pages and
// types outside the catalog are rejected.
func AddBlock(doc domain.Document, pageID string, t domain.BlockType) (domain.Document, domain.Block, error) {
	if !domain.IsKnownBlockType(t) {
		return doc, domain.Block{}, fmt.Errorf("%w: unknown block type %q", domain.ErrInvalidInput, t)
	}
	page, ok := pagetree.FindByID(doc.Pages, pageID)
	if !ok {
		return doc, domain.Block{}, notFound("page", pageID)
	}
	if page.IsDirectory() {
		return doc, domain.Block{}, fmt.Errorf("page %q: %w", page.Name, domain.ErrDirectoryPage)
	}
	block := domain.NewBlock(t)
	next, err := withSections(doc, pageID, func(seq []domain.Block) ([]domain.Block, error) {
		return sections.Append(seq, block), nil
	})
	if err != nil {
		return doc, domain.Block{}, err
	}
	return next, block, nil
}

// UpdateBlockData replaces a block's payload. The payload must be the shape
// registered for the block's type.
func UpdateBlockData(doc domain.Document, pageID, blockID string, data domain.Payload) (domain.Document, error) {
	return withSections(doc, pageID, func(seq []domain.Block) ([]domain.Block, error) {
		b, ok := sections.Find(seq, blockID)
		if !ok {
			return nil, notFound("block", blockID)
		}
		if err := domain.CheckPayload(b.Type, data); err != nil {
			return nil, err
		}
		out, _ := sections.UpdateData(seq, blockID, data)
		return out, nil
	})
}

func UpdateBlockWidth(doc domain.Document, pageID, blockID string, w domain.Width) (domain.Document, error) {
	if !w.Valid() {
		return doc, fmt.Errorf("%w: width %q", domain.ErrInvalidInput, w)
	}
	return withSections(doc, pageID, func(seq []domain.Block) ([]domain.Block, error) {
		out, ok := sections.UpdateWidth(seq, blockID, w)
		if !ok {
			return nil, notFound("block", blockID)
		}
		return out, nil
	})
}

func UpdateBlockPadding(doc domain.Document, pageID, blockID string, p domain.Padding) (domain.Document, error) {
	if !p.Valid() {
		return doc, fmt.Errorf("%w: padding %q", domain.ErrInvalidInput, p)
	}
	return withSections(doc, pageID, func(seq []domain.Block) ([]domain.Block, error) {
		out, ok := sections.UpdatePadding(seq, blockID, p)
		if !ok {
			return nil, notFound("block", blockID)
		}
		return out, nil
	})
}

func UpdateBlockStyle(doc domain.Document, pageID, blockID string, style *domain.BlockStyle) (domain.Document, error) {
	if err := style.Validate(); err != nil {
		return doc, err
	}
	return withSections(doc, pageID, func(seq []domain.Block) ([]domain.Block, error) {
		out, ok := sections.UpdateStyle(seq, blockID, style)
		if !ok {
			return nil, notFound("block", blockID)
		}
		return out, nil
	})
}

func DeleteBlock(doc domain.Document, pageID, blockID string) (domain.Document, error) {
	return withSections(doc, pageID, func(seq []domain.Block) ([]domain.Block, error) {
		out, ok := sections.Delete(seq, blockID)
		if !ok {
			return nil, notFound("block", blockID)
		}
		return out, nil
	})
}

// MoveBlock swaps the block at index with its neighbour. A move past either
// end returns domain.ErrBoundary and the input document.
func MoveBlock(doc domain.Document, pageID string, index int, dir domain.Direction) (domain.Document, error) {
	if !dir.Valid() {
		return doc, fmt.Errorf("%w: direction %q", domain.ErrInvalidInput, dir)
	}
	return withSections(doc, pageID, func(seq []domain.Block) ([]domain.Block, error) {
		if index < 0 || index >= len(seq) {
			return nil, fmt.Errorf("block index %d: %w", index, domain.ErrNotFound)
		}
		out, ok := sections.Move(seq, index, dir)
		if !ok {
			return nil, fmt.Errorf("move block %d %s: %w", index, dir, domain.ErrBoundary)
		}
		return out, nil
	})
}

// withSections rewrites one page's section list through fn. When fn fails
// the original document is returned with its error.
func withSections(doc domain.Document, pageID string, fn func([]domain.Block) ([]domain.Block, error)) (domain.Document, error) {
	page, ok := pagetree.FindByID(doc.Pages, pageID)
	if !ok {
		return doc, notFound("page", pageID)
	}
	seq, err := fn(page.Sections)
	if err != nil {
		return doc, err
	}
	forest, _ := pagetree.UpdateByID(doc.Pages, pageID, func(p domain.Page) domain.Page {
		p.Sections = seq
		return p
	})
	doc.Pages = forest
	return doc, nil
}

// ── Pages ──────────────────────────────────────────────────

// AddPage creates a page named name. An empty parentID appends a root page;
// otherwise the page becomes the parent's last child and the parent opens.
func AddPage(doc domain.Document, name, parentID string) (domain.Document, domain.Page, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultPageName
	}
	page := NewPage(name, UniqueSlug(doc.Pages, Slugify(name), ""))

	if parentID == "" {
		pages := make([]domain.Page, len(doc.Pages), len(doc.Pages)+1)
		copy(pages, doc.Pages)
		doc.Pages = append(pages, page)
		return doc, page, nil
	}

	forest, ok := pagetree.InsertChild(doc.Pages, parentID, page)
	if !ok {
		return doc, domain.Page{}, notFound("parent page", parentID)
	}
	doc.Pages = forest
	return doc, page, nil
}

// RenamePage changes a page's name and re-derives its slug.
func RenamePage(doc domain.Document, pageID, name string) (domain.Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return doc, fmt.Errorf("%w: page name is required", domain.ErrInvalidInput)
	}
	slug := UniqueSlug(doc.Pages, Slugify(name), pageID)
	forest, ok := pagetree.UpdateByID(doc.Pages, pageID, func(p domain.Page) domain.Page {
		p.Name = name
		p.Slug = slug
		return p
	})
	if !ok {
		return doc, notFound("page", pageID)
	}
	doc.Pages = forest
	return doc, nil
}

// DeletePage removes a page and all of its descendants. The last root page
// can never be deleted.
func DeletePage(doc domain.Document, pageID string) (domain.Document, error) {
	if len(doc.Pages) == 1 && doc.Pages[0].ID == pageID {
		return doc, domain.ErrLastRootPage
	}
	forest, ok := pagetree.DeleteByID(doc.Pages, pageID)
	if !ok {
		return doc, notFound("page", pageID)
	}
	if len(forest) == 0 {
		return doc, domain.ErrLastRootPage
	}
	doc.Pages = forest
	return doc, nil
}

// MovePage swaps a page with its neighbour among its siblings.
func MovePage(doc domain.Document, pageID string, dir domain.Direction) (domain.Document, error) {
	if !dir.Valid() {
		return doc, fmt.Errorf("%w: direction %q", domain.ErrInvalidInput, dir)
	}
	forest, moved := pagetree.MoveAmongSiblings(doc.Pages, pageID, dir)
	if !moved {
		if found, _ := pagetree.Locate(doc.Pages, pageID, dir); !found {
			return doc, notFound("page", pageID)
		}
		return doc, fmt.Errorf("move page %s: %w", dir, domain.ErrBoundary)
	}
	doc.Pages = forest
	return doc, nil
}

func TogglePageOpen(doc domain.Document, pageID string) (domain.Document, error) {
	forest, ok := pagetree.ToggleOpen(doc.Pages, pageID)
	if !ok {
		return doc, notFound("page", pageID)
	}
	doc.Pages = forest
	return doc, nil
}

// ── Settings ───────────────────────────────────────────────

// SettingsPatch carries the theme fields to change; nil fields are kept.
type SettingsPatch struct {
	Title          *string      `json:"title,omitempty"`
	Font           *domain.Font `json:"font,omitempty"`
	PrimaryColor   *string      `json:"primaryColor,omitempty"`
	SecondaryColor *string      `json:"secondaryColor,omitempty"`
}

func UpdateSettings(doc domain.Document, patch SettingsPatch) (domain.Document, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return doc, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
		}
		doc.Title = title
	}
	if patch.Font != nil {
		if !patch.Font.Valid() {
			return doc, fmt.Errorf("%w: font %q", domain.ErrInvalidInput, *patch.Font)
		}
		doc.Font = *patch.Font
	}
	for _, c := range []struct {
		value  *string
		target *string
		name   string
	}{
		{patch.PrimaryColor, &doc.PrimaryColor, "primary color"},
		{patch.SecondaryColor, &doc.SecondaryColor, "secondary color"},
	} {
		if c.value == nil {
			continue
		}
		if !domain.ValidColor(*c.value) {
			return doc, fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, c.name, *c.value)
		}
		*c.target = *c.value
	}
	return doc, nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
}
