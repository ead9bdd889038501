package report

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kat-co/vala"
	"github.com/volatiletech/null/v8"
)

const (
	// TitleMaxLen is the number of runes kept from a convocatoria title before it is ellipsized.
	TitleMaxLen = 65
	ellipsis    = "..."

	// project rows
	RowHeightFloor = 40.0
	charsPerLine   = 25
	lineHeight     = 14.0
	linePadding    = 10.0
	cellPadding    = 6.0

	// bars
	minInsideBarWidth = 40.0

	// score thresholds
	scoreSuccess = 70.0
	scoreWarning = 50.0
)

// Cursor is the position of the next drawing operation: the 1-based page and the vertical offset on it.
type Cursor struct {
	Page int
	Y    float64
}

// Geometry holds the page dimensions, in points.
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	MarginTop    float64
	MarginLeft   float64
	MarginRight  float64
	PageBreakY   float64 // no content may end below this line
	FooterHeight float64
}

// A4Geometry is a portrait A4 page with 40pt margins.
func A4Geometry() Geometry {
	const w, h = 595.28, 841.89
	return Geometry{
		PageWidth:    w,
		PageHeight:   h,
		MarginTop:    40,
		MarginLeft:   40,
		MarginRight:  40,
		PageBreakY:   h - 70,
		FooterHeight: 30,
	}
}

func (g Geometry) UsableWidth() float64 { return g.PageWidth - g.MarginLeft - g.MarginRight }

func (g Geometry) Right() float64 { return g.PageWidth - g.MarginRight }

// Validate reports impossible geometries. These are programming errors.
func (g Geometry) Validate() error {
	return vala.BeginValidation().Validate(
		positive(g.PageWidth, "PageWidth"),
		positive(g.PageHeight, "PageHeight"),
		notNegative(g.MarginTop, "MarginTop"),
		notNegative(g.MarginLeft, "MarginLeft"),
		notNegative(g.MarginRight, "MarginRight"),
		notNegative(g.FooterHeight, "FooterHeight"),
		positive(g.UsableWidth(), "UsableWidth"),
		isTrue(
			g.PageBreakY > g.MarginTop && g.PageBreakY <= g.PageHeight-g.FooterHeight,
			fmt.Sprintf("parameter PageBreakY must lie between MarginTop and the footer, got %v", g.PageBreakY),
		),
	).Check()
}

func positive(v float64, name string) vala.Checker {
	return func() (bool, string) {
		return v > 0, fmt.Sprintf("parameter %s must be positive, got %v", name, v)
	}
}

func notNegative(v float64, name string) vala.Checker {
	return func() (bool, string) {
		return v >= 0, fmt.Sprintf("parameter %s must not be negative, got %v", name, v)
	}
}

func isTrue(ok bool, msg string) vala.Checker {
	return func() (bool, string) { return ok, msg }
}

type Theme struct {
	Primary   Color
	Accent    Color
	Secondary Color
	Success   Color
	Warning   Color
	Danger    Color
	Neutral   Color
	Text      Color
	Muted     Color
	White     Color
	Border    Color
	RowAlt    Color
	BoxFill   Color
	Track     Color
}

func DefaultTheme() Theme {
	return Theme{
		Primary:   Hex("#1a237e"),
		Accent:    Hex("#3949ab"),
		Secondary: Hex("#00897b"),
		Success:   Hex("#4caf50"),
		Warning:   Hex("#ff9800"),
		Danger:    Hex("#f44336"),
		Neutral:   Hex("#9e9e9e"),
		Text:      Hex("#333333"),
		Muted:     Hex("#757575"),
		White:     Hex("#ffffff"),
		Border:    Hex("#cfd8dc"),
		RowAlt:    Hex("#f5f7fa"),
		BoxFill:   Hex("#f5f5f5"),
		Track:     Hex("#eceff1"),
	}
}

// ScoreColor maps an evaluation score to its threshold color.
func (t Theme) ScoreColor(score null.Float64) Color {
	switch {
	case !score.Valid:
		return t.Neutral
	case score.Float64 >= scoreSuccess:
		return t.Success
	case score.Float64 >= scoreWarning:
		return t.Warning
	default:
		return t.Danger
	}
}

// Truncate keeps the first `max` runes of `s` followed by an ellipsis when `s` is longer than that.
func Truncate(s string, max int) string {
	if max < 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:max]), " ") + ellipsis
}

// estimateTextHeight is the height of a text of n runes wrapped at charsPerLine.
func estimateTextHeight(n int) float64 {
	lines := math.Ceil(float64(n) / charsPerLine)
	return lines*lineHeight + linePadding
}

// RowHeight is the estimated height of a project row, from the rune counts of its title and convocatoria title.
func RowHeight(titleLen, convocatoriaLen int) float64 {
	return math.Max(RowHeightFloor, math.Max(estimateTextHeight(titleLen), estimateTextHeight(convocatoriaLen)))
}

// BarWidth is the share of `value` in `total`, scaled to maxWidth. A non-positive total gives 0.
func BarWidth(value, total int, maxWidth float64) float64 {
	if total <= 0 || value <= 0 || maxWidth <= 0 {
		return 0
	}
	return float64(value) / float64(total) * maxWidth
}

// columnWidths splits `width` following `proportions`.
func columnWidths(width float64, proportions ...float64) []float64 {
	var sum float64
	for _, p := range proportions {
		sum += p
	}
	widths := make([]float64, len(proportions))
	if sum <= 0 {
		return widths
	}
	for i, p := range proportions {
		widths[i] = width * p / sum
	}
	return widths
}

// wrapText breaks `s` into lines no wider than `width`. Words longer than a line are split.
func wrapText(c Canvas, s string, font Font, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var line string
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if c.TextWidth(candidate, font) <= width {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		// split words that do not fit on a line by themselves
		for c.TextWidth(word, font) > width {
			runes := []rune(word)
			n := 1
			for n < len(runes) && c.TextWidth(string(runes[:n+1]), font) <= width {
				n++
			}
			lines = append(lines, string(runes[:n]))
			word = string(runes[n:])
		}
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
