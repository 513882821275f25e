package sections_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/sections"
)

func blocks(ids ...string) []domain.Block {
	out := make([]domain.Block, len(ids))
	for i, id := range ids {
		out[i] = domain.Block{ID: id, Type: domain.BlockTypeText, Data: domain.TextPayload{Content: id}, Width: domain.WidthFull}
	}
	return out
}

func ids(seq []domain.Block) []string {
	out := make([]string, len(seq))
	for i := range seq {
		out[i] = seq[i].ID
	}
	return out
}

func TestAppend(t *testing.T) {
	seq := blocks("a", "b")
	out := sections.Append(seq, blocks("c")[0])
	assert.Equal(t, []string{"a", "b", "c"}, ids(out))
	assert.Equal(t, []string{"a", "b"}, ids(seq))
}

func TestUpdateData_LeavesInputUntouched(t *testing.T) {
	seq := blocks("a", "b")
	out, ok := sections.UpdateData(seq, "b", domain.TextPayload{Content: "new"})
	require.True(t, ok)
	assert.Equal(t, domain.TextPayload{Content: "new"}, out[1].Data)
	assert.Equal(t, domain.TextPayload{Content: "b"}, seq[1].Data)
}

func TestUpdate_MissingID(t *testing.T) {
	seq := blocks("a")
	out, ok := sections.UpdateWidth(seq, "zzz", domain.WidthHalf)
	assert.False(t, ok)
	assert.Equal(t, seq, out)

	_, ok = sections.UpdatePadding(seq, "zzz", domain.PaddingSM)
	assert.False(t, ok)
}

func TestUpdateStyle_CopiesAndClears(t *testing.T) {
	opacity := 30
	style := &domain.BlockStyle{TextColor: "#111", BackgroundOpacity: &opacity}
	out, ok := sections.UpdateStyle(blocks("a"), "a", style)
	require.True(t, ok)

	opacity = 90
	require.NotNil(t, out[0].Style.BackgroundOpacity)
	assert.Equal(t, 30, *out[0].Style.BackgroundOpacity)

	cleared, ok := sections.UpdateStyle(out, "a", nil)
	require.True(t, ok)
	assert.Nil(t, cleared[0].Style)
	assert.NotNil(t, out[0].Style)
}

func TestDelete(t *testing.T) {
	seq := blocks("a", "b", "c")
	out, ok := sections.Delete(seq, "b")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, ids(out))
	assert.Equal(t, []string{"a", "b", "c"}, ids(seq))

	_, ok = sections.Delete(seq, "missing")
	assert.False(t, ok)
}

func TestMove(t *testing.T) {
	seq := blocks("a", "b", "c")

	out, ok := sections.Move(seq, 1, domain.DirectionUp)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c"}, ids(out))

	out, ok = sections.Move(seq, 1, domain.DirectionDown)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c", "b"}, ids(out))

	out, ok = sections.Move(seq, 0, domain.DirectionUp)
	assert.False(t, ok)
	assert.Equal(t, ids(seq), ids(out))

	_, ok = sections.Move(seq, 2, domain.DirectionDown)
	assert.False(t, ok)
}

func TestMove_UpThenDownRestoresOrder(t *testing.T) {
	seq := blocks("a", "b", "c", "d")
	for i := 1; i < len(seq); i++ {
		up, ok := sections.Move(seq, i, domain.DirectionUp)
		require.True(t, ok)
		back, ok := sections.Move(up, i-1, domain.DirectionDown)
		require.True(t, ok)
		assert.Equal(t, ids(seq), ids(back))
	}
}

func TestFindAndIndexOf(t *testing.T) {
	seq := blocks("a", "b")
	assert.Equal(t, 1, sections.IndexOf(seq, "b"))
	assert.Equal(t, -1, sections.IndexOf(seq, "x"))
	b, ok := sections.Find(seq, "a")
	require.True(t, ok)
	assert.Equal(t, "a", b.ID)
}
