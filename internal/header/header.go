// Package header builds FITS-style keyword cards that describe an observing
// block, for attaching to the frames it produces.
package header

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Card is one FITS header keyword.
type Card struct {
	Key     string
	Value   any
	Comment string
}

// Header is an ordered list of cards.
type Header []Card

// Add appends a card.
func (h *Header) Add(key string, value any, comment string) {
	*h = append(*h, Card{Key: key, Value: value, Comment: comment})
}

// Get returns the value of the first card with key.
func (h Header) Get(key string) (any, bool) {
	for _, c := range h {
		if c.Key == key {
			return c.Value, true
		}
	}
	return nil, false
}

// String renders the card as an 80-column FITS record.
func (c Card) String() string {
	line := fmt.Sprintf("%-8s= %20s", truncate(c.Key, 8), formatValue(c.Value))
	if c.Comment != "" {
		line += " / " + c.Comment
	}
	if len(line) > 80 {
		return line[:80]
	}
	return fmt.Sprintf("%-80s", line)
}

// WriteTo writes one card per line.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, c := range h {
		m, err := fmt.Fprintln(w, c.String())
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "T"
		}
		return "F"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'G', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
