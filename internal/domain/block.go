package domain

import (
	"encoding/json"
	"fmt"
)

type BlockType string

// Width is the fractional column width a block occupies in its row.
type Width string

const (
	WidthFull         Width = "full"
	WidthThreeQuarter Width = "3/4"
	WidthTwoThirds    Width = "2/3"
	WidthHalf         Width = "1/2"
	WidthThird        Width = "1/3"
	WidthQuarter      Width = "1/4"
)

var widths = map[Width]bool{
	WidthFull: true, WidthThreeQuarter: true, WidthTwoThirds: true,
	WidthHalf: true, WidthThird: true, WidthQuarter: true,
}

func (w Width) Valid() bool { return widths[w] }

// Padding is the vertical spacing token around a block. Empty means unset.
type Padding string

const (
	PaddingNone Padding = "none"
	PaddingSM   Padding = "sm"
	PaddingMD   Padding = "md"
	PaddingLG   Padding = "lg"
	PaddingXL   Padding = "xl"
)

var paddings = map[Padding]bool{
	PaddingNone: true, PaddingSM: true, PaddingMD: true, PaddingLG: true, PaddingXL: true,
}

// Valid reports whether p is a known token. The empty token is valid (unset).
func (p Padding) Valid() bool { return p == "" || paddings[p] }

// BlockStyle holds optional per-block visual overrides.
type BlockStyle struct {
	BackgroundColor   string `json:"backgroundColor,omitempty"`
	BackgroundImage   string `json:"backgroundImage,omitempty"`
	BackgroundOpacity *int   `json:"backgroundOpacity,omitempty"` // 0-100
	TextColor         string `json:"textColor,omitempty"`
}

func (s *BlockStyle) Validate() error {
	if s == nil || s.BackgroundOpacity == nil {
		return nil
	}
	if o := *s.BackgroundOpacity; o < 0 || o > 100 {
		return fmt.Errorf("%w: background opacity %d out of range 0-100", ErrInvalidInput, o)
	}
	return nil
}

// Block is a single typed content widget in a page's section list.
// Data always holds the payload struct registered for Type.
type Block struct {
	ID      string      `json:"id"`
	Type    BlockType   `json:"type"`
	Data    Payload     `json:"data"`
	Width   Width       `json:"width"`
	Padding Padding     `json:"padding,omitempty"`
	Style   *BlockStyle `json:"style,omitempty"`
}

type blockJSON struct {
	ID      string          `json:"id"`
	Type    BlockType       `json:"type"`
	Data    json.RawMessage `json:"data"`
	Width   Width           `json:"width"`
	Padding Padding         `json:"padding,omitempty"`
	Style   *BlockStyle     `json:"style,omitempty"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	data := b.Data
	if data == nil {
		data, _ = DefaultPayload(b.Type)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal block %s data: %w", b.ID, err)
	}
	return json.Marshal(blockJSON{
		ID:      b.ID,
		Type:    b.Type,
		Data:    raw,
		Width:   b.Width,
		Padding: b.Padding,
		Style:   b.Style,
	})
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := DecodePayload(raw.Type, raw.Data)
	if err != nil {
		return fmt.Errorf("block %s: %w", raw.ID, err)
	}
	*b = Block{
		ID:      raw.ID,
		Type:    raw.Type,
		Data:    payload,
		Width:   raw.Width,
		Padding: raw.Padding,
		Style:   raw.Style,
	}
	return nil
}
