// Package sections implements ordered-list operations over one page's
// block sequence. Every function is pure: the input slice is never
// modified and untouched blocks are copied by value into the result.
package sections

import "pagebuilder/internal/domain"

// Append returns seq with b at the end.
func Append(seq []domain.Block, b domain.Block) []domain.Block {
	out := make([]domain.Block, len(seq), len(seq)+1)
	copy(out, seq)
	return append(out, b)
}

func IndexOf(seq []domain.Block, id string) int {
	for i := range seq {
		if seq[i].ID == id {
			return i
		}
	}
	return -1
}

func Find(seq []domain.Block, id string) (domain.Block, bool) {
	if i := IndexOf(seq, id); i >= 0 {
		return seq[i], true
	}
	return domain.Block{}, false
}

// replace applies fn to the block with the given id. The input slice is
// returned unchanged when the id is absent.
func replace(seq []domain.Block, id string, fn func(domain.Block) domain.Block) ([]domain.Block, bool) {
	i := IndexOf(seq, id)
	if i < 0 {
		return seq, false
	}
	out := make([]domain.Block, len(seq))
	copy(out, seq)
	out[i] = fn(out[i])
	return out, true
}

func UpdateData(seq []domain.Block, id string, data domain.Payload) ([]domain.Block, bool) {
	return replace(seq, id, func(b domain.Block) domain.Block {
		b.Data = data
		return b
	})
}

func UpdateWidth(seq []domain.Block, id string, w domain.Width) ([]domain.Block, bool) {
	return replace(seq, id, func(b domain.Block) domain.Block {
		b.Width = w
		return b
	})
}

func UpdatePadding(seq []domain.Block, id string, p domain.Padding) ([]domain.Block, bool) {
	return replace(seq, id, func(b domain.Block) domain.Block {
		b.Padding = p
		return b
	})
}

// UpdateStyle replaces the block's style. A nil style clears it.
func UpdateStyle(seq []domain.Block, id string, style *domain.BlockStyle) ([]domain.Block, bool) {
	return replace(seq, id, func(b domain.Block) domain.Block {
		if style == nil {
			b.Style = nil
			return b
		}
		s := *style
		if style.BackgroundOpacity != nil {
			o := *style.BackgroundOpacity
			s.BackgroundOpacity = &o
		}
		b.Style = &s
		return b
	})
}

func Delete(seq []domain.Block, id string) ([]domain.Block, bool) {
	i := IndexOf(seq, id)
	if i < 0 {
		return seq, false
	}
	out := make([]domain.Block, 0, len(seq)-1)
	out = append(out, seq[:i]...)
	return append(out, seq[i+1:]...), true
}

// Move swaps the block at index with its neighbour in dir. At a boundary, or
// for an index outside the list, seq is returned unchanged with false.
func Move(seq []domain.Block, index int, dir domain.Direction) ([]domain.Block, bool) {
	return domain.Swap(seq, index, dir)
}
