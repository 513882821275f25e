package domain

import "encoding/json"

const (
	BlockTypeHero         BlockType = "hero"
	BlockTypeHeading      BlockType = "heading"
	BlockTypeText         BlockType = "text"
	BlockTypeRichText     BlockType = "richText"
	BlockTypeImage        BlockType = "image"
	BlockTypeGallery      BlockType = "gallery"
	BlockTypeVideo        BlockType = "video"
	BlockTypeButton       BlockType = "button"
	BlockTypeButtonGroup  BlockType = "buttonGroup"
	BlockTypeQuote        BlockType = "quote"
	BlockTypeDivider      BlockType = "divider"
	BlockTypeSpacer       BlockType = "spacer"
	BlockTypeCards        BlockType = "cards"
	BlockTypeFeatures     BlockType = "features"
	BlockTypeStats        BlockType = "stats"
	BlockTypeTestimonials BlockType = "testimonials"
	BlockTypePricing      BlockType = "pricing"
	BlockTypeFAQ          BlockType = "faq"
	BlockTypeTeam         BlockType = "team"
	BlockTypeTimeline     BlockType = "timeline"
	BlockTypeLogoCloud    BlockType = "logoCloud"
	BlockTypeCTA          BlockType = "cta"
	BlockTypeContactForm  BlockType = "contactForm"
	BlockTypeNewsletter   BlockType = "newsletter"
	BlockTypeMap          BlockType = "map"
	BlockTypeEmbed        BlockType = "embed"
	BlockTypeTable        BlockType = "table"
	BlockTypeCode         BlockType = "code"
	BlockTypeList         BlockType = "list"
)

// Payload is the kind-specific data carried by a Block.
type Payload interface {
	BlockType() BlockType
}

// Shared item shapes.

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type ImageRef struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

type TitledItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type HeroPayload struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	BackgroundImage string `json:"backgroundImage"`
	Align           string `json:"align"`
	CTA             Link   `json:"cta"`
}

type HeadingPayload struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
	Align string `json:"align"`
}

type TextPayload struct {
	Content string `json:"content"`
	Align   string `json:"align"`
}

type RichTextPayload struct {
	HTML string `json:"html"`
}

type ImagePayload struct {
	Image ImageRef `json:"image"`
	Link  string   `json:"link"`
	Fit   string   `json:"fit"`
}

type GalleryPayload struct {
	Images  []ImageRef `json:"images"`
	Columns int        `json:"columns"`
}

type VideoPayload struct {
	URL      string `json:"url"`
	Autoplay bool   `json:"autoplay"`
	Controls bool   `json:"controls"`
}

type ButtonPayload struct {
	Link    Link   `json:"link"`
	Variant string `json:"variant"`
	Align   string `json:"align"`
}

type ButtonGroupPayload struct {
	Buttons []Link `json:"buttons"`
	Align   string `json:"align"`
}

type QuotePayload struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Role   string `json:"role"`
}

type DividerPayload struct {
	Style     string `json:"style"`
	Thickness int    `json:"thickness"`
}

type SpacerPayload struct {
	Height int `json:"height"`
}

type Card struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

type CardsPayload struct {
	Title   string `json:"title"`
	Cards   []Card `json:"cards"`
	Columns int    `json:"columns"`
}

type FeaturesPayload struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle"`
	Items    []TitledItem `json:"items"`
}

type Stat struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type StatsPayload struct {
	Stats []Stat `json:"stats"`
}

type Testimonial struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

type TestimonialsPayload struct {
	Title        string        `json:"title"`
	Testimonials []Testimonial `json:"testimonials"`
}

type PricingTier struct {
	Name      string   `json:"name"`
	Price     string   `json:"price"`
	Period    string   `json:"period"`
	Features  []string `json:"features"`
	CTA       Link     `json:"cta"`
	Highlight bool     `json:"highlight"`
}

type PricingPayload struct {
	Title string        `json:"title"`
	Tiers []PricingTier `json:"tiers"`
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FAQPayload struct {
	Title string    `json:"title"`
	Items []FAQItem `json:"items"`
}

type TeamMember struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Photo  string `json:"photo"`
	Bio    string `json:"bio"`
	Social []Link `json:"social"`
}

type TeamPayload struct {
	Title   string       `json:"title"`
	Members []TeamMember `json:"members"`
}

type TimelineEvent struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type TimelinePayload struct {
	Title  string          `json:"title"`
	Events []TimelineEvent `json:"events"`
}

type LogoCloudPayload struct {
	Title string     `json:"title"`
	Logos []ImageRef `json:"logos"`
}

type CTAPayload struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	Primary   Link   `json:"primary"`
	Secondary Link   `json:"secondary"`
}

type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
}

type ContactFormPayload struct {
	Title       string      `json:"title"`
	Recipient   string      `json:"recipient"`
	SubmitLabel string      `json:"submitLabel"`
	Fields      []FormField `json:"fields"`
}

type NewsletterPayload struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	Placeholder string `json:"placeholder"`
	ButtonLabel string `json:"buttonLabel"`
}

type MapPayload struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Zoom    int     `json:"zoom"`
}

type EmbedPayload struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
}

type TablePayload struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Striped bool       `json:"striped"`
}

type CodePayload struct {
	Language string `json:"language"`
	Source   string `json:"source"`
}

type ListPayload struct {
	Ordered bool     `json:"ordered"`
	Items   []string `json:"items"`
}

func (HeroPayload) BlockType() BlockType         { return BlockTypeHero }
func (HeadingPayload) BlockType() BlockType      { return BlockTypeHeading }
func (TextPayload) BlockType() BlockType         { return BlockTypeText }
func (RichTextPayload) BlockType() BlockType     { return BlockTypeRichText }
func (ImagePayload) BlockType() BlockType        { return BlockTypeImage }
func (GalleryPayload) BlockType() BlockType      { return BlockTypeGallery }
func (VideoPayload) BlockType() BlockType        { return BlockTypeVideo }
func (ButtonPayload) BlockType() BlockType       { return BlockTypeButton }
func (ButtonGroupPayload) BlockType() BlockType  { return BlockTypeButtonGroup }
func (QuotePayload) BlockType() BlockType        { return BlockTypeQuote }
func (DividerPayload) BlockType() BlockType      { return BlockTypeDivider }
func (SpacerPayload) BlockType() BlockType       { return BlockTypeSpacer }
func (CardsPayload) BlockType() BlockType        { return BlockTypeCards }
func (FeaturesPayload) BlockType() BlockType     { return BlockTypeFeatures }
func (StatsPayload) BlockType() BlockType        { return BlockTypeStats }
func (TestimonialsPayload) BlockType() BlockType { return BlockTypeTestimonials }
func (PricingPayload) BlockType() BlockType      { return BlockTypePricing }
func (FAQPayload) BlockType() BlockType          { return BlockTypeFAQ }
func (TeamPayload) BlockType() BlockType         { return BlockTypeTeam }
func (TimelinePayload) BlockType() BlockType     { return BlockTypeTimeline }
func (LogoCloudPayload) BlockType() BlockType    { return BlockTypeLogoCloud }
func (CTAPayload) BlockType() BlockType          { return BlockTypeCTA }
func (ContactFormPayload) BlockType() BlockType  { return BlockTypeContactForm }
func (NewsletterPayload) BlockType() BlockType   { return BlockTypeNewsletter }
func (MapPayload) BlockType() BlockType          { return BlockTypeMap }
func (EmbedPayload) BlockType() BlockType        { return BlockTypeEmbed }
func (TablePayload) BlockType() BlockType        { return BlockTypeTable }
func (CodePayload) BlockType() BlockType         { return BlockTypeCode }
func (ListPayload) BlockType() BlockType         { return BlockTypeList }

// UnknownPayload stands in for a block whose type is not in the catalog.
// Raw keeps whatever object the document carried so it survives a save.
type UnknownPayload struct {
	Kind BlockType
	Raw  map[string]any
}

func (p UnknownPayload) BlockType() BlockType { return p.Kind }

func (p UnknownPayload) MarshalJSON() ([]byte, error) {
	if p.Raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Raw)
}
