// Package reporttest provides in-memory doubles of the report collaborators.
package reporttest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/report"
)

// Op kinds recorded by Recorder.
const (
	OpFillRect    = "fill-rect"
	OpStrokeRect  = "stroke-rect"
	OpRoundedRect = "rounded-rect"
	OpLine        = "line"
	OpText        = "text"
)

// Op is one drawing call.
type Op struct {
	Page      int
	Kind      string
	X, Y      float64
	W, H      float64
	X2, Y2    float64
	R         float64
	Color     report.Color
	LineWidth float64
	Text      string
	Font      report.Font
	Align     report.Align
}

func (op Op) String() string {
	switch op.Kind {
	case OpText:
		return fmt.Sprintf("p%d %s x=%.2f y=%.2f w=%.2f size=%.1f bold=%v %s %q", op.Page, op.Kind, op.X, op.Y, op.W, op.Font.Size, op.Font.Bold, op.Color, op.Text)
	case OpLine:
		return fmt.Sprintf("p%d %s %.2f,%.2f-%.2f,%.2f lw=%.2f %s", op.Page, op.Kind, op.X, op.Y, op.X2, op.Y2, op.LineWidth, op.Color)
	default:
		return fmt.Sprintf("p%d %s x=%.2f y=%.2f w=%.2f h=%.2f r=%.2f lw=%.2f %s", op.Page, op.Kind, op.X, op.Y, op.W, op.H, op.R, op.LineWidth, op.Color)
	}
}

// Recorder is a report.Document keeping every drawing call in memory.
// Its serialized form is one line per call.
type Recorder struct {
	Meta report.Metadata

	// CharWidth is the width of a rune, as a ratio of the font size.
	CharWidth float64
	// Immutable makes RemoveLastPage & FocusPage return report.ErrUnsupported.
	Immutable bool
	// TrailingBlankPages are appended the first time PageCount is called.
	TrailingBlankPages int
	WriteErr           error

	pages   [][]Op
	current int
	added   bool
}

var _ report.Document = (*Recorder)(nil)

func NewRecorder(meta report.Metadata) *Recorder {
	return &Recorder{Meta: meta, CharWidth: 0.5}
}

func (r *Recorder) add(op Op) {
	if r.current == 0 {
		r.AddPage()
	}
	op.Page = r.current
	r.pages[r.current-1] = append(r.pages[r.current-1], op)
}

func (r *Recorder) AddPage() {
	r.pages = append(r.pages, nil)
	r.current = len(r.pages)
}

func (r *Recorder) FillRect(x, y, w, h float64, fill report.Color) {
	r.add(Op{Kind: OpFillRect, X: x, Y: y, W: w, H: h, Color: fill})
}

func (r *Recorder) StrokeRect(x, y, w, h float64, stroke report.Color, lineWidth float64) {
	r.add(Op{Kind: OpStrokeRect, X: x, Y: y, W: w, H: h, Color: stroke, LineWidth: lineWidth})
}

func (r *Recorder) FillRoundedRect(x, y, w, h, radius float64, fill report.Color) {
	r.add(Op{Kind: OpRoundedRect, X: x, Y: y, W: w, H: h, R: radius, Color: fill})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, stroke report.Color, lineWidth float64) {
	r.add(Op{Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2, Color: stroke, LineWidth: lineWidth})
}

func (r *Recorder) Text(x, y, w float64, s string, font report.Font, color report.Color, align report.Align) {
	r.add(Op{Kind: OpText, X: x, Y: y, W: w, Text: s, Font: font, Color: color, Align: align})
}

func (r *Recorder) TextWidth(s string, font report.Font) float64 {
	return float64(utf8.RuneCountInString(s)) * font.Size * r.CharWidth
}

func (r *Recorder) PageCount() int {
	if !r.added {
		r.added = true
		for i := 0; i < r.TrailingBlankPages; i++ {
			r.AddPage()
		}
	}
	return len(r.pages)
}

func (r *Recorder) RemoveLastPage() error {
	if r.Immutable {
		return report.ErrUnsupported
	}
	if len(r.pages) <= 1 {
		return errors.New("cannot remove the only page")
	}
	r.pages = r.pages[:len(r.pages)-1]
	if r.current > len(r.pages) {
		r.current = len(r.pages)
	}
	return nil
}

func (r *Recorder) FocusPage(i int) error {
	if r.Immutable {
		return report.ErrUnsupported
	}
	if i < 1 || i > len(r.pages) {
		return errors.Errorf("page %d out of range", i)
	}
	r.current = i
	return nil
}

func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	if r.WriteErr != nil {
		return 0, r.WriteErr
	}
	var n int64
	for _, op := range r.Ops() {
		c, err := fmt.Fprintln(w, op.String())
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Ops returns every recorded call, page by page.
func (r *Recorder) Ops() []Op {
	var ops []Op
	for _, page := range r.pages {
		ops = append(ops, page...)
	}
	return ops
}

// Page returns the calls recorded on page i (1-based).
func (r *Recorder) Page(i int) []Op {
	if i < 1 || i > len(r.pages) {
		return nil
	}
	return r.pages[i-1]
}

// Texts returns the texts drawn on page i, or on every page when i is 0.
func (r *Recorder) Texts(i int) []string {
	ops := r.Ops()
	if i > 0 {
		ops = r.Page(i)
	}
	var texts []string
	for _, op := range ops {
		if op.Kind == OpText {
			texts = append(texts, op.Text)
		}
	}
	return texts
}

// FindText returns the first text op containing `sub`.
func (r *Recorder) FindText(sub string) (Op, bool) {
	for _, op := range r.Ops() {
		if op.Kind == OpText && strings.Contains(op.Text, sub) {
			return op, true
		}
	}
	return Op{}, false
}

// Factory returns a report.DocumentFactory handing out recorders, and the list they are appended to.
func Factory(setup ...func(*Recorder)) (report.DocumentFactory, *[]*Recorder) {
	var mu sync.Mutex
	docs := make([]*Recorder, 0)
	return func(meta report.Metadata) report.Document {
		rec := NewRecorder(meta)
		for _, fn := range setup {
			fn(rec)
		}
		mu.Lock()
		docs = append(docs, rec)
		mu.Unlock()
		return rec
	}, &docs
}

// Repository is a report.Repository serving fixed data.
// Errs makes the named method (e.g. "CountStatistics") fail.
type Repository struct {
	Data      report.Data
	PerConv   []report.ConvocatoriaProjects
	Averages  []report.ConvocatoriaAverage
	Errs      map[string]error
	mu        sync.Mutex
	Periods   []report.Period
	Orderings [][]core.DBOrdering
}

var _ report.Repository = (*Repository)(nil)

func (repo *Repository) call(ctx context.Context, method string, period report.Period) error {
	repo.mu.Lock()
	repo.Periods = append(repo.Periods, period)
	repo.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return repo.Errs[method]
}

func (repo *Repository) ListProjects(ctx context.Context, period report.Period) ([]report.ProjectSummary, error) {
	if err := repo.call(ctx, "ListProjects", period); err != nil {
		return nil, err
	}
	return repo.Data.Projects, nil
}

func (repo *Repository) ListConvocatorias(ctx context.Context, period report.Period) ([]report.ConvocatoriaSummary, error) {
	if err := repo.call(ctx, "ListConvocatorias", period); err != nil {
		return nil, err
	}
	return repo.Data.Convocatorias, nil
}

func (repo *Repository) CountStatistics(ctx context.Context, period report.Period) (report.CountStatistics, error) {
	if err := repo.call(ctx, "CountStatistics", period); err != nil {
		return report.CountStatistics{}, err
	}
	return repo.Data.Counts, nil
}

func (repo *Repository) EvaluationStatus(ctx context.Context, period report.Period) (report.EvaluationStatus, error) {
	if err := repo.call(ctx, "EvaluationStatus", period); err != nil {
		return report.EvaluationStatus{}, err
	}
	return repo.Data.Status, nil
}

func (repo *Repository) ProjectsByKind(ctx context.Context, period report.Period) (report.ProjectsByKind, error) {
	if err := repo.call(ctx, "ProjectsByKind", period); err != nil {
		return report.ProjectsByKind{}, err
	}
	return repo.Data.Kinds, nil
}

func (repo *Repository) ProjectsPerConvocatoria(ctx context.Context, period report.Period, ordering ...core.DBOrdering) ([]report.ConvocatoriaProjects, error) {
	if err := repo.call(ctx, "ProjectsPerConvocatoria", period); err != nil {
		return nil, err
	}
	repo.mu.Lock()
	repo.Orderings = append(repo.Orderings, ordering)
	repo.mu.Unlock()
	return repo.PerConv, nil
}

func (repo *Repository) AverageScores(ctx context.Context, period report.Period) ([]report.ConvocatoriaAverage, error) {
	if err := repo.call(ctx, "AverageScores", period); err != nil {
		return nil, err
	}
	return repo.Averages, nil
}

// Logger is a core.Logger keeping messages by level.
type Logger struct {
	mu       sync.Mutex
	Messages map[string][]string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{Messages: make(map[string][]string)}
}

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages[level] = append(l.Messages[level], msg)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }

// Get returns a sorted copy of the messages logged at `level`.
func (l *Logger) Get(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := append([]string(nil), l.Messages[level]...)
	sort.Strings(msgs)
	return msgs
}

// Notifier is a core.Notifier keeping notifications in memory.
type Notifier struct {
	mu   sync.Mutex
	Sent []core.Notification
}

var _ core.Notifier = (*Notifier)(nil)

func (n *Notifier) Notify(_ context.Context, notifications ...core.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, notifications...)
}
