package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
)

type catalogEntry struct {
	defaults func() Payload
	decode   func(raw []byte) (Payload, error)
}

// variant registers a payload type by its default constructor. Decoding starts
// from the defaults so fields missing from stored JSON stay renderable.
func variant[T Payload](defaults func() T) catalogEntry {
	return catalogEntry{
		defaults: func() Payload { return defaults() },
		decode: func(raw []byte) (Payload, error) {
			v := defaults()
			clearPresentSlices(reflect.ValueOf(&v).Elem(), raw)
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// clearPresentSlices empties every slice field that raw sets, so decoded
// elements never inherit values from the default items.
func clearPresentSlices(v reflect.Value, raw []byte) {
	var present map[string]json.RawMessage
	if json.Unmarshal(raw, &present) != nil {
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			name = f.Name
		}
		if _, ok := present[name]; ok && f.Type.Kind() == reflect.Slice {
			v.Field(i).Set(reflect.MakeSlice(f.Type, 0, 0))
		}
	}
}

var catalog = map[BlockType]catalogEntry{
	BlockTypeHero: variant(func() HeroPayload {
		return HeroPayload{Title: "Welcome", Subtitle: "Tell visitors what this site is about", Align: "center", CTA: Link{Label: "Get started", URL: "#"}}
	}),
	BlockTypeHeading: variant(func() HeadingPayload { return HeadingPayload{Text: "Heading", Level: 2, Align: "left"} }),
	BlockTypeText:    variant(func() TextPayload { return TextPayload{Content: "Write something here.", Align: "left"} }),
	BlockTypeRichText: variant(func() RichTextPayload {
		return RichTextPayload{HTML: "<p>Write something here.</p>"}
	}),
	BlockTypeImage: variant(func() ImagePayload { return ImagePayload{Image: ImageRef{Alt: "Image"}, Fit: "cover"} }),
	BlockTypeGallery: variant(func() GalleryPayload {
		return GalleryPayload{Images: []ImageRef{}, Columns: 3}
	}),
	BlockTypeVideo:  variant(func() VideoPayload { return VideoPayload{Controls: true} }),
	BlockTypeButton: variant(func() ButtonPayload { return ButtonPayload{Link: Link{Label: "Click me", URL: "#"}, Variant: "primary", Align: "left"} }),
	BlockTypeButtonGroup: variant(func() ButtonGroupPayload {
		return ButtonGroupPayload{Buttons: []Link{{Label: "Primary", URL: "#"}, {Label: "Secondary", URL: "#"}}, Align: "left"}
	}),
	BlockTypeQuote:   variant(func() QuotePayload { return QuotePayload{Text: "A memorable quote.", Author: "Author"} }),
	BlockTypeDivider: variant(func() DividerPayload { return DividerPayload{Style: "solid", Thickness: 1} }),
	BlockTypeSpacer:  variant(func() SpacerPayload { return SpacerPayload{Height: 48} }),
	BlockTypeCards: variant(func() CardsPayload {
		return CardsPayload{Title: "Cards", Cards: []Card{
			{Title: "Card one", Description: "Describe this item."},
			{Title: "Card two", Description: "Describe this item."},
			{Title: "Card three", Description: "Describe this item."},
		}, Columns: 3}
	}),
	BlockTypeFeatures: variant(func() FeaturesPayload {
		return FeaturesPayload{Title: "Features", Items: []TitledItem{
			{Title: "Fast", Description: "Explain the benefit.", Icon: "bolt"},
			{Title: "Simple", Description: "Explain the benefit.", Icon: "check"},
		}}
	}),
	BlockTypeStats: variant(func() StatsPayload {
		return StatsPayload{Stats: []Stat{{Value: "100+", Label: "Customers"}, {Value: "24/7", Label: "Support"}}}
	}),
	BlockTypeTestimonials: variant(func() TestimonialsPayload {
		return TestimonialsPayload{Title: "What people say", Testimonials: []Testimonial{{Quote: "Great work.", Author: "Customer"}}}
	}),
	BlockTypePricing: variant(func() PricingPayload {
		return PricingPayload{Title: "Pricing", Tiers: []PricingTier{
			{Name: "Basic", Price: "0", Period: "month", Features: []string{"One site"}, CTA: Link{Label: "Choose", URL: "#"}},
			{Name: "Pro", Price: "19", Period: "month", Features: []string{"Unlimited sites"}, CTA: Link{Label: "Choose", URL: "#"}, Highlight: true},
		}}
	}),
	BlockTypeFAQ: variant(func() FAQPayload {
		return FAQPayload{Title: "Frequently asked questions", Items: []FAQItem{{Question: "Question?", Answer: "Answer."}}}
	}),
	BlockTypeTeam: variant(func() TeamPayload {
		return TeamPayload{Title: "Our team", Members: []TeamMember{{Name: "Name", Role: "Role", Social: []Link{}}}}
	}),
	BlockTypeTimeline: variant(func() TimelinePayload {
		return TimelinePayload{Title: "Timeline", Events: []TimelineEvent{{Date: "2024", Title: "Founded"}}}
	}),
	BlockTypeLogoCloud: variant(func() LogoCloudPayload { return LogoCloudPayload{Title: "Trusted by", Logos: []ImageRef{}} }),
	BlockTypeCTA: variant(func() CTAPayload {
		return CTAPayload{Title: "Ready to start?", Text: "Join today.", Primary: Link{Label: "Sign up", URL: "#"}}
	}),
	BlockTypeContactForm: variant(func() ContactFormPayload {
		return ContactFormPayload{Title: "Contact us", SubmitLabel: "Send", Fields: []FormField{
			{Name: "name", Label: "Name", Kind: "text", Required: true},
			{Name: "email", Label: "Email", Kind: "email", Required: true},
			{Name: "message", Label: "Message", Kind: "textarea"},
		}}
	}),
	BlockTypeNewsletter: variant(func() NewsletterPayload {
		return NewsletterPayload{Title: "Stay in touch", Placeholder: "you@example.com", ButtonLabel: "Subscribe"}
	}),
	BlockTypeMap:   variant(func() MapPayload { return MapPayload{Zoom: 12} }),
	BlockTypeEmbed: variant(func() EmbedPayload { return EmbedPayload{Height: 400} }),
	BlockTypeTable: variant(func() TablePayload {
		return TablePayload{Headers: []string{"Column 1", "Column 2"}, Rows: [][]string{{"", ""}}, Striped: true}
	}),
	BlockTypeCode: variant(func() CodePayload { return CodePayload{Language: "plaintext"} }),
	BlockTypeList: variant(func() ListPayload { return ListPayload{Items: []string{"First item"}} }),
}

// DefaultPayload returns a fresh, fully populated payload for t. Unknown types
// get an empty UnknownPayload and false.
func DefaultPayload(t BlockType) (Payload, bool) {
	entry, ok := catalog[t]
	if !ok {
		return UnknownPayload{Kind: t, Raw: map[string]any{}}, false
	}
	return entry.defaults(), true
}

// DecodePayload decodes stored JSON into the payload struct registered for t.
func DecodePayload(t BlockType, raw []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	empty := len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))

	entry, ok := catalog[t]
	if !ok {
		generic := map[string]any{}
		if !empty {
			if err := json.Unmarshal(trimmed, &generic); err != nil {
				return nil, fmt.Errorf("decode %q payload: %w", t, err)
			}
		}
		return UnknownPayload{Kind: t, Raw: generic}, nil
	}
	if empty {
		return entry.defaults(), nil
	}
	p, err := entry.decode(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode %q payload: %w", t, err)
	}
	return p, nil
}

func IsKnownBlockType(t BlockType) bool {
	_, ok := catalog[t]
	return ok
}

// KnownBlockTypes lists the catalog in stable order.
func KnownBlockTypes() []BlockType {
	out := make([]BlockType, 0, len(catalog))
	for t := range catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewBlock creates a block of type t with a fresh id and default payload.
func NewBlock(t BlockType) Block {
	data, _ := DefaultPayload(t)
	return Block{
		ID:    uuid.New().String(),
		Type:  t,
		Data:  data,
		Width: WidthFull,
	}
}

// CheckPayload reports whether p is the payload shape registered for t.
func CheckPayload(t BlockType, p Payload) error {
	if p == nil {
		return fmt.Errorf("%w: nil payload for %q", ErrInvalidInput, t)
	}
	if p.BlockType() != t {
		return fmt.Errorf("%w: payload %q does not match block type %q", ErrInvalidInput, p.BlockType(), t)
	}
	if _, unknown := p.(UnknownPayload); unknown && IsKnownBlockType(t) {
		return fmt.Errorf("%w: generic payload for catalog type %q", ErrInvalidInput, t)
	}
	return nil
}
