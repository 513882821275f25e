package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/plugins"
	"pagebuilder/internal/service"
)

func registry() *service.PluginRegistry {
	r := service.NewPluginRegistry()
	plugins.RegisterDefaults(r)
	return r
}

func TestRegisterDefaults(t *testing.T) {
	r := registry()
	assert.ElementsMatch(t, []domain.BlockType{
		domain.BlockTypeRichText, domain.BlockTypeText, domain.BlockTypeFAQ, domain.BlockTypeEmbed,
	}, r.Types())
}

func TestRichText_DropsScripts(t *testing.T) {
	out, err := registry().Normalize(domain.BlockTypeRichText, domain.RichTextPayload{
		HTML: `<p>Hi<script>alert(1)</script></p><a href="https://example.com">x</a>`,
	})
	require.NoError(t, err)

	html := out.(domain.RichTextPayload).HTML
	assert.NotContains(t, html, "script")
	assert.Contains(t, html, "<p>Hi</p>")
	assert.Contains(t, html, `rel="nofollow"`)
}

func TestText_StripsMarkupKeepsEntities(t *testing.T) {
	out, err := registry().Normalize(domain.BlockTypeText, domain.TextPayload{
		Content: "Fish & Chips <i>now</i>",
		Align:   "center",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TextPayload{Content: "Fish & Chips now", Align: "center"}, out)
}

func TestFAQ_QuestionsPlainAnswersFormatted(t *testing.T) {
	in := domain.FAQPayload{
		Title: "Questions",
		Items: []domain.FAQItem{{Question: "<b>Why?</b>", Answer: "<em>Because</em><img src=x onerror=alert(1)>"}},
	}
	out, err := registry().Normalize(domain.BlockTypeFAQ, in)
	require.NoError(t, err)

	faq := out.(domain.FAQPayload)
	assert.Equal(t, "Why?", faq.Items[0].Question)
	assert.Contains(t, faq.Items[0].Answer, "<em>Because</em>")
	assert.NotContains(t, faq.Items[0].Answer, "onerror")
	assert.Equal(t, "<b>Why?</b>", in.Items[0].Question, "input items are not modified")
}

func TestEmbed(t *testing.T) {
	r := registry()

	out, err := r.Normalize(domain.BlockTypeEmbed, domain.EmbedPayload{URL: " https://maps.example.com/x ", Height: 0})
	require.NoError(t, err)
	assert.Equal(t, domain.EmbedPayload{URL: "https://maps.example.com/x", Height: 400}, out)

	out, err = r.Normalize(domain.BlockTypeEmbed, domain.EmbedPayload{Height: 99999})
	require.NoError(t, err)
	assert.Equal(t, 2000, out.(domain.EmbedPayload).Height)

	for _, bad := range []string{"http://example.com", "javascript:alert(1)", "/relative"} {
		_, err := r.Normalize(domain.BlockTypeEmbed, domain.EmbedPayload{URL: bad})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

func TestMismatchedPayload(t *testing.T) {
	_, err := registry().Normalize(domain.BlockTypeEmbed, domain.SpacerPayload{Height: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
