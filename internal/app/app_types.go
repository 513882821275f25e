package app

import (
	"pagebuilder/internal/domain"
	"pagebuilder/internal/pagetree"
)

// PageOutline is one line of the site outline printed by the show command.
type PageOutline struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Depth  int    `json:"depth"`
	Blocks int    `json:"blocks"`
	Active bool   `json:"active,omitempty"`
}

// Summary is a read-only overview of the site being edited.
type Summary struct {
	SiteID       string        `json:"siteId"`
	Driver       string        `json:"driver"`
	Title        string        `json:"title"`
	Font         domain.Font   `json:"font"`
	PageCount    int           `json:"pageCount"`
	BlockCount   int           `json:"blockCount"`
	Dirty        bool          `json:"dirty"`
	ActivePageID string        `json:"activePageId"`
	Outline      []PageOutline `json:"outline"`
}

func (a *App) Summary() Summary {
	doc := a.site.Document()
	active := a.site.ActivePageID()
	s := Summary{
		SiteID:       a.cfg.Site.ID,
		Driver:       a.cfg.Store.Driver,
		Title:        doc.Title,
		Font:         doc.Font,
		PageCount:    pagetree.Count(doc.Pages),
		Dirty:        a.site.Dirty(),
		ActivePageID: active,
	}
	pagetree.Walk(doc.Pages, func(p domain.Page, depth int) bool {
		s.BlockCount += len(p.Sections)
		s.Outline = append(s.Outline, PageOutline{
			ID:     p.ID,
			Name:   p.Name,
			Slug:   p.Slug,
			Depth:  depth,
			Blocks: len(p.Sections),
			Active: p.ID == active,
		})
		return true
	})
	return s
}
