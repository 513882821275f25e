package domain

import (
	"context"
	"regexp"
)

type Font string

const (
	FontInter        Font = "inter"
	FontRoboto       Font = "roboto"
	FontOpenSans     Font = "open-sans"
	FontLato         Font = "lato"
	FontMontserrat   Font = "montserrat"
	FontPlayfair     Font = "playfair"
	FontMerriweather Font = "merriweather"
	FontSystem       Font = "system"
)

var fonts = map[Font]bool{
	FontInter: true, FontRoboto: true, FontOpenSans: true, FontLato: true,
	FontMontserrat: true, FontPlayfair: true, FontMerriweather: true, FontSystem: true,
}

func (f Font) Valid() bool { return fonts[f] }

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidColor accepts #rgb, #rrggbb and #rrggbbaa hex colours.
func ValidColor(c string) bool { return colorPattern.MatchString(c) }

// Document is the whole site: theme fields plus the root page forest.
// Pages is never empty.
type Document struct {
	Title          string `json:"title"`
	Font           Font   `json:"font"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	Pages          []Page `json:"pages"`
}

// DocumentStore persists one opaque JSON document per site. Saves overwrite.
type DocumentStore interface {
	LoadDocument(ctx context.Context, siteID string) ([]byte, error)
	SaveDocument(ctx context.Context, siteID string, data []byte) error
	Close() error
}
