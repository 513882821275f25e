package editor

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/pagetree"
)

// Slugify lowercases name, strips accents and joins the remaining letter and
// digit runs with hyphens. Names with nothing usable become "page".
func Slugify(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return "page"
	}
	return b.String()
}

// UniqueSlug returns base, or base-2, base-3, ... whichever is first unused by
// pages other than exceptID.
func UniqueSlug(forest []domain.Page, base, exceptID string) string {
	taken := map[string]bool{}
	pagetree.Walk(forest, func(p domain.Page, _ int) bool {
		if p.ID != exceptID {
			taken[p.Slug] = true
		}
		return true
	})
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}
