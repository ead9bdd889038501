package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned by a Pager that cannot perform the requested page operation.
var ErrUnsupported = errors.New("page operation not supported")

type Color struct {
	R, G, B uint8
}

// Hex parses "#rrggbb". Invalid input yields black.
func Hex(s string) Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type Font struct {
	Size float64
	Bold bool
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Canvas is the set of drawing primitives the layout engine needs.
// Units are points, the origin is the top-left corner of the current page.
type Canvas interface {
	AddPage()
	FillRect(x, y, w, h float64, fill Color)
	StrokeRect(x, y, w, h float64, stroke Color, lineWidth float64)
	FillRoundedRect(x, y, w, h, r float64, fill Color)
	Line(x1, y1, x2, y2 float64, stroke Color, lineWidth float64)
	// Text draws a single line of text in a box of width w whose top is at y.
	Text(x, y, w float64, s string, font Font, color Color, align Align)
	TextWidth(s string, font Font) float64
}

// Pager exposes the page list of a document. Implementations return ErrUnsupported
// when their backend does not allow an operation.
type Pager interface {
	PageCount() int
	RemoveLastPage() error
	// FocusPage makes page i (1-based) the target of further drawing.
	FocusPage(i int) error
}

// Document is a Canvas that can be serialized once drawing is complete.
type Document interface {
	Canvas
	Pager
	io.WriterTo
}

// DocumentFactory returns a new, empty document. Each render gets its own.
type DocumentFactory func(meta Metadata) Document

// Metadata is embedded in the serialized document.
type Metadata struct {
	Title     string
	Author    string
	CreatedAt time.Time
}
