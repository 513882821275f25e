package domain

// Page is a node in the site's navigation tree. A page with one or more
// SubPages is a directory; its Sections are kept but not editable.
type Page struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Sections []Block `json:"sections"`
	SubPages []Page  `json:"subPages"`
	IsOpen   bool    `json:"isOpen,omitempty"`
}

func (p Page) IsDirectory() bool { return len(p.SubPages) > 0 }

// Direction selects the neighbour a move swaps with.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) Valid() bool { return d == DirectionUp || d == DirectionDown }

// Swap exchanges seq[index] with its neighbour in dir, returning a new slice.
// At a boundary, for an out-of-range index or an unknown direction, seq is
// returned unchanged with false.
func Swap[T any](seq []T, index int, dir Direction) ([]T, bool) {
	if index < 0 || index >= len(seq) {
		return seq, false
	}
	var target int
	switch dir {
	case DirectionUp:
		target = index - 1
	case DirectionDown:
		target = index + 1
	default:
		return seq, false
	}
	if target < 0 || target >= len(seq) {
		return seq, false
	}
	out := make([]T, len(seq))
	copy(out, seq)
	out[index], out[target] = out[target], out[index]
	return out, true
}
