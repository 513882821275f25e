package editor

import (
	"errors"
	"fmt"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/pagetree"
)

// Validate checks a document read from storage before it is handed to the
// editor. All problems are joined into one error wrapping
// domain.ErrInvalidInput. Unknown block types are allowed so documents
// written by newer builds still load.
func Validate(doc domain.Document) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...))
	}

	if len(doc.Pages) == 0 {
		add("document has no pages")
	}
	if doc.Font != "" && !doc.Font.Valid() {
		add("font %q", doc.Font)
	}
	for name, c := range map[string]string{"primary color": doc.PrimaryColor, "secondary color": doc.SecondaryColor} {
		if c != "" && !domain.ValidColor(c) {
			add("%s %q", name, c)
		}
	}

	pageIDs := map[string]bool{}
	blockIDs := map[string]bool{}
	pagetree.Walk(doc.Pages, func(p domain.Page, _ int) bool {
		if p.ID == "" {
			add("page %q has no id", p.Name)
		} else if pageIDs[p.ID] {
			add("duplicate page id %q", p.ID)
		}
		pageIDs[p.ID] = true

		for _, b := range p.Sections {
			if b.ID == "" {
				add("block on page %q has no id", p.ID)
			} else if blockIDs[b.ID] {
				add("duplicate block id %q", b.ID)
			}
			blockIDs[b.ID] = true
			if b.Width != "" && !b.Width.Valid() {
				add("block %q width %q", b.ID, b.Width)
			}
			if !b.Padding.Valid() {
				add("block %q padding %q", b.ID, b.Padding)
			}
			if err := b.Style.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("block %q: %w", b.ID, err))
			}
		}
		return true
	})
	return errors.Join(errs...)
}
