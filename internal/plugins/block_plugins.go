package plugins

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

// RegisterDefaults installs the built-in payload plugins.
func RegisterDefaults(r *service.PluginRegistry) {
	r.Register(NewRichTextPlugin())
	r.Register(NewTextPlugin())
	r.Register(NewFAQPlugin())
	r.Register(NewEmbedPlugin())
}

func newRichTextPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// stripTags removes all markup but keeps the text as typed; the strict
// policy escapes entities, which plain text fields do not want.
func stripTags(strict *bluemonday.Policy, s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

func mismatch(want domain.BlockType, got domain.Payload) error {
	return fmt.Errorf("%w: expected %s payload, got %T", domain.ErrInvalidInput, want, got)
}

// ─────────────────────────────────────────────────────────────
// Rich text: user HTML reduced to a safe UGC subset
// ─────────────────────────────────────────────────────────────

type richTextPlugin struct {
	policy *bluemonday.Policy
}

func NewRichTextPlugin() service.PayloadPlugin {
	return &richTextPlugin{policy: newRichTextPolicy()}
}

func (p *richTextPlugin) BlockType() domain.BlockType { return domain.BlockTypeRichText }

func (p *richTextPlugin) Normalize(in domain.Payload) (domain.Payload, error) {
	rt, ok := in.(domain.RichTextPayload)
	if !ok {
		return nil, mismatch(domain.BlockTypeRichText, in)
	}
	rt.HTML = p.policy.Sanitize(rt.HTML)
	return rt, nil
}

// ─────────────────────────────────────────────────────────────
// Plain text: markup stripped entirely
// ─────────────────────────────────────────────────────────────

type textPlugin struct {
	policy *bluemonday.Policy
}

func NewTextPlugin() service.PayloadPlugin {
	return &textPlugin{policy: bluemonday.StrictPolicy()}
}

func (p *textPlugin) BlockType() domain.BlockType { return domain.BlockTypeText }

func (p *textPlugin) Normalize(in domain.Payload) (domain.Payload, error) {
	tp, ok := in.(domain.TextPayload)
	if !ok {
		return nil, mismatch(domain.BlockTypeText, in)
	}
	tp.Content = stripTags(p.policy, tp.Content)
	return tp, nil
}

// ─────────────────────────────────────────────────────────────
// FAQ: answers may carry light formatting, questions may not
// ─────────────────────────────────────────────────────────────

type faqPlugin struct {
	answers   *bluemonday.Policy
	questions *bluemonday.Policy
}

func NewFAQPlugin() service.PayloadPlugin {
	return &faqPlugin{answers: newRichTextPolicy(), questions: bluemonday.StrictPolicy()}
}

func (p *faqPlugin) BlockType() domain.BlockType { return domain.BlockTypeFAQ }

func (p *faqPlugin) Normalize(in domain.Payload) (domain.Payload, error) {
	faq, ok := in.(domain.FAQPayload)
	if !ok {
		return nil, mismatch(domain.BlockTypeFAQ, in)
	}
	items := make([]domain.FAQItem, len(faq.Items))
	for i, it := range faq.Items {
		items[i] = domain.FAQItem{
			Question: stripTags(p.questions, it.Question),
			Answer:   p.answers.Sanitize(it.Answer),
		}
	}
	faq.Items = items
	return faq, nil
}

// ─────────────────────────────────────────────────────────────
// Embed: only https iframes, bounded height
// ─────────────────────────────────────────────────────────────

const (
	defaultEmbedHeight = 400
	maxEmbedHeight     = 2000
)

type embedPlugin struct{}

func NewEmbedPlugin() service.PayloadPlugin { return embedPlugin{} }

func (embedPlugin) BlockType() domain.BlockType { return domain.BlockTypeEmbed }

func (embedPlugin) Normalize(in domain.Payload) (domain.Payload, error) {
	e, ok := in.(domain.EmbedPayload)
	if !ok {
		return nil, mismatch(domain.BlockTypeEmbed, in)
	}
	e.URL = strings.TrimSpace(e.URL)
	if e.URL != "" {
		u, err := url.Parse(e.URL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return nil, fmt.Errorf("%w: embed url must be an absolute https url", domain.ErrInvalidInput)
		}
	}
	switch {
	case e.Height <= 0:
		e.Height = defaultEmbedHeight
	case e.Height > maxEmbedHeight:
		e.Height = maxEmbedHeight
	}
	return e, nil
}
