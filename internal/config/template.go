package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
)

// SiteTemplate is the YAML shape used to seed a new site document.
//
//	title: Bakery
//	font: lato
//	primaryColor: "#7c2d12"
//	pages:
//	  - name: Home
//	    sections:
//	      - type: hero
//	        data: {title: Fresh bread daily}
//	  - name: Menu
//	    subPages:
//	      - name: Cakes
type SiteTemplate struct {
	Title          string         `yaml:"title"`
	Font           string         `yaml:"font"`
	PrimaryColor   string         `yaml:"primaryColor"`
	SecondaryColor string         `yaml:"secondaryColor"`
	Pages          []TemplatePage `yaml:"pages"`
}

type TemplatePage struct {
	Name     string          `yaml:"name"`
	Open     bool            `yaml:"open"`
	Sections []TemplateBlock `yaml:"sections"`
	SubPages []TemplatePage  `yaml:"subPages"`
}

type TemplateBlock struct {
	Type    string         `yaml:"type"`
	Width   string         `yaml:"width"`
	Padding string         `yaml:"padding"`
	Data    map[string]any `yaml:"data"`
}

// LoadTemplate reads a YAML site template from path.
func LoadTemplate(path string) (SiteTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SiteTemplate{}, fmt.Errorf("read template: %w", err)
	}
	return ParseTemplate(raw)
}

func ParseTemplate(raw []byte) (SiteTemplate, error) {
	var t SiteTemplate
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return SiteTemplate{}, fmt.Errorf("%w: parse template: %v", domain.ErrInvalidInput, err)
	}
	return t, nil
}

// Build turns the template into a document using the editor operations, so
// ids, slugs and payloads follow the same rules as interactive edits.
func (t SiteTemplate) Build() (domain.Document, error) {
	doc := editor.New(t.Title)

	var patch editor.SettingsPatch
	if t.Font != "" {
		f := domain.Font(t.Font)
		patch.Font = &f
	}
	if t.PrimaryColor != "" {
		patch.PrimaryColor = &t.PrimaryColor
	}
	if t.SecondaryColor != "" {
		patch.SecondaryColor = &t.SecondaryColor
	}
	doc, err := editor.UpdateSettings(doc, patch)
	if err != nil {
		return domain.Document{}, fmt.Errorf("template settings: %w", err)
	}
	if len(t.Pages) == 0 {
		return doc, nil
	}

	// The first template page takes over the seeded root page.
	if doc, err = fillTemplatePage(doc, t.Pages[0], doc.Pages[0].ID, true); err != nil {
		return domain.Document{}, err
	}
	for _, p := range t.Pages[1:] {
		if doc, err = addTemplatePage(doc, p, ""); err != nil {
			return domain.Document{}, err
		}
	}
	return doc, editor.Validate(doc)
}

func addTemplatePage(doc domain.Document, tp TemplatePage, parentID string) (domain.Document, error) {
	doc, page, err := editor.AddPage(doc, tp.Name, parentID)
	if err != nil {
		return doc, fmt.Errorf("template page %q: %w", tp.Name, err)
	}
	return fillTemplatePage(doc, tp, page.ID, false)
}

func fillTemplatePage(doc domain.Document, tp TemplatePage, pageID string, rename bool) (domain.Document, error) {
	var err error
	if rename && tp.Name != "" {
		if doc, err = editor.RenamePage(doc, pageID, tp.Name); err != nil {
			return doc, fmt.Errorf("template page %q: %w", tp.Name, err)
		}
	}
	// Blocks go in before sub-pages: a page with children takes no new blocks.
	for _, tb := range tp.Sections {
		if doc, err = addTemplateBlock(doc, pageID, tb); err != nil {
			return doc, fmt.Errorf("template page %q: %w", tp.Name, err)
		}
	}
	for _, child := range tp.SubPages {
		if doc, err = addTemplatePage(doc, child, pageID); err != nil {
			return doc, err
		}
	}
	if len(tp.SubPages) > 0 && !tp.Open {
		// InsertChild opened the page; honour the template.
		if doc, err = editor.TogglePageOpen(doc, pageID); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

func addTemplateBlock(doc domain.Document, pageID string, tb TemplateBlock) (domain.Document, error) {
	t := domain.BlockType(tb.Type)
	doc, block, err := editor.AddBlock(doc, pageID, t)
	if err != nil {
		return doc, err
	}
	if len(tb.Data) > 0 {
		raw, err := json.Marshal(tb.Data)
		if err != nil {
			return doc, fmt.Errorf("%w: %s data: %v", domain.ErrInvalidInput, t, err)
		}
		payload, err := domain.DecodePayload(t, raw)
		if err != nil {
			return doc, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		if doc, err = editor.UpdateBlockData(doc, pageID, block.ID, payload); err != nil {
			return doc, err
		}
	}
	if tb.Width != "" {
		if doc, err = editor.UpdateBlockWidth(doc, pageID, block.ID, domain.Width(tb.Width)); err != nil {
			return doc, err
		}
	}
	if tb.Padding != "" {
		if doc, err = editor.UpdateBlockPadding(doc, pageID, block.ID, domain.Padding(tb.Padding)); err != nil {
			return doc, err
		}
	}
	return doc, nil
}
