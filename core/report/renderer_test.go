package report_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/convocatorias/core/report"
	"github.com/trezcool/convocatorias/core/report/reporttest"
)

var (
	fixedNow = time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)
	period   = report.Period{
		Start: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC),
	}
	theme = report.DefaultTheme()
	geo   = report.A4Geometry()
)

func newRenderer(t *testing.T, repo report.Repository, setup ...func(*reporttest.Recorder)) (*report.Renderer, *[]*reporttest.Recorder, *reporttest.Logger) {
	factory, docs := reporttest.Factory(setup...)
	logger := reporttest.NewLogger()
	r, err := report.NewRenderer(repo, factory, logger, report.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("NewRenderer() failed: %v", err)
	}
	return r, docs, logger
}

func render(t *testing.T, repo report.Repository, setup ...func(*reporttest.Recorder)) (*reporttest.Recorder, []byte, *reporttest.Logger) {
	r, docs, logger := newRenderer(t, repo, setup...)
	out, err := r.Render(context.Background(), period)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if len(*docs) != 1 {
		t.Fatalf("failed! documents = %d; want 1", len(*docs))
	}
	return (*docs)[0], out, logger
}

func contains(texts []string, s string) bool {
	for _, txt := range texts {
		if txt == s {
			return true
		}
	}
	return false
}

func project(i int, title string, score null.Float64) report.ProjectSummary {
	return report.ProjectSummary{
		ID:                fmt.Sprintf("p%02d", i),
		Title:             title,
		CreatedAt:         time.Date(2025, time.February, 1, 8, i, 0, 0, time.UTC),
		ConvocatoriaTitle: "Convocatoria de Investigación 2025",
		Kind:              report.KindAula,
		Score:             score,
	}
}

func TestNewRenderer(t *testing.T) {
	factory, _ := reporttest.Factory()
	logger := reporttest.NewLogger()
	repo := &reporttest.Repository{}

	broken := report.A4Geometry()
	broken.MarginRight = -1

	tests := []struct {
		name    string
		repo    report.Repository
		factory report.DocumentFactory
		logger  *reporttest.Logger
		opts    []report.Option
		wantErr bool
	}{
		{name: "ok", repo: repo, factory: factory, logger: logger},
		{name: "no repository", factory: factory, logger: logger, wantErr: true},
		{name: "no factory", repo: repo, logger: logger, wantErr: true},
		{name: "negative margin", repo: repo, factory: factory, logger: logger, opts: []report.Option{report.WithGeometry(broken)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := report.NewRenderer(tt.repo, tt.factory, tt.logger, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRenderer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderer_Render_empty(t *testing.T) {
	doc, out, logger := render(t, &reporttest.Repository{})

	if len(out) == 0 {
		t.Fatal("failed! empty output")
	}
	if doc.PageCount() != 2 {
		t.Errorf("failed! pages = %d; want 2", doc.PageCount())
	}

	first := doc.Texts(1)
	for _, want := range []string{
		"Reporte de Convocatorias y Proyectos",
		"Período: 01/01/2025 - 31/12/2025",
		"Resumen Ejecutivo",
		"No se encontraron convocatorias en el período seleccionado.",
		"Estado de Evaluaciones",
		"Proyectos por Tipo",
	} {
		if !contains(first, want) {
			t.Errorf("failed! page 1 is missing %q", want)
		}
	}

	var zeros int
	for _, op := range doc.Page(1) {
		if op.Kind == reporttest.OpText && op.Font.Size == 22 {
			if op.Text != "0" {
				t.Errorf("failed! summary box = %q; want 0", op.Text)
			}
			zeros++
		}
	}
	if zeros != 3 {
		t.Errorf("failed! summary boxes = %d; want 3", zeros)
	}

	for _, color := range []report.Color{theme.Success, theme.Warning, theme.Accent, theme.Secondary} {
		var found bool
		for _, op := range doc.Page(1) {
			if op.Kind == reporttest.OpFillRect && op.Color == color && op.H == 22 {
				found = true
				if op.W != 0 {
					t.Errorf("failed! bar %v width = %v; want 0", color, op.W)
				}
			}
		}
		if !found {
			t.Errorf("failed! bar %v not drawn", color)
		}
	}

	second := doc.Texts(2)
	if !contains(second, "No se encontraron proyectos en el período seleccionado.") {
		t.Errorf("failed! page 2 = %q; want the no projects message", second)
	}
	if contains(second, "PUNTAJE") {
		t.Error("failed! projects table header drawn without projects")
	}
	if !contains(second, "Generado el 15/03/2025 10:30") {
		t.Errorf("failed! page 2 = %q; want the footer", second)
	}
	if contains(first, "Generado el 15/03/2025 10:30") {
		t.Error("failed! footer drawn on the first page")
	}
	if msgs := logger.Get("warn"); len(msgs) != 0 {
		t.Errorf("failed! warnings = %v; want none", msgs)
	}
}

func TestRenderer_Render_evaluatedProject(t *testing.T) {
	repo := &reporttest.Repository{Data: report.Data{
		Projects: []report.ProjectSummary{project(1, "Huerta escolar", null.Float64From(85))},
		Counts:   report.CountStatistics{Users: 12345, Convocatorias: 1, Projects: 1},
		Status:   report.EvaluationStatus{Graded: 1},
		Kinds:    report.ProjectsByKind{Aula: 1},
	}}
	doc, _, _ := render(t, repo)

	var box reporttest.Op
	for _, op := range doc.Page(2) {
		if op.Kind == reporttest.OpRoundedRect {
			box = op
		}
	}
	if box.Kind == "" {
		t.Fatal("failed! no score box drawn")
	}
	if box.Color != theme.Success {
		t.Errorf("failed! score box color = %v; want %v", box.Color, theme.Success)
	}
	score, ok := doc.FindText("85.00")
	if !ok {
		t.Fatal("failed! score text not drawn")
	}
	if score.Color != theme.White || score.X != box.X || score.W != box.W {
		t.Errorf("failed! score text %v not inside box %v", score, box)
	}
	if score.Y < box.Y || score.Y+score.Font.Size > box.Y+box.H {
		t.Errorf("failed! score text %v overflows box %v", score, box)
	}

	if _, ok := doc.FindText("12.345"); !ok {
		t.Errorf("failed! users count not grouped: %q", doc.Texts(1))
	}

	// a lone graded bar takes the whole width and holds its value
	var graded reporttest.Op
	for _, op := range doc.Page(1) {
		if op.Kind == reporttest.OpFillRect && op.Color == theme.Success && op.H == 22 {
			graded = op
		}
	}
	if graded.W < 40 {
		t.Fatalf("failed! graded bar width = %v", graded.W)
	}
	for _, op := range doc.Page(1) {
		if op.Kind == reporttest.OpText && op.Text == "1" && op.Y > graded.Y && op.Y < graded.Y+graded.H {
			if op.Color != theme.White || op.X != graded.X {
				t.Errorf("failed! graded value %v; want centered inside the bar", op)
			}
		}
	}
}

func TestRenderer_Render_notEvaluated(t *testing.T) {
	repo := &reporttest.Repository{Data: report.Data{
		Projects: []report.ProjectSummary{project(1, "Robótica", null.Float64{})},
		Status:   report.EvaluationStatus{Graded: 0, Ungraded: 1},
	}}
	doc, _, _ := render(t, repo)

	op, ok := doc.FindText("No evaluado")
	if !ok {
		t.Fatal("failed! not evaluated marker missing")
	}
	if op.Color != theme.Neutral {
		t.Errorf("failed! marker color = %v; want %v", op.Color, theme.Neutral)
	}
	for _, op := range doc.Ops() {
		if op.Kind == reporttest.OpRoundedRect {
			t.Errorf("failed! score box drawn for a project without evaluation: %v", op)
		}
	}
	if _, ok := doc.FindText("Aula"); !ok {
		t.Error("failed! kind label missing")
	}
}

func TestRenderer_Render_projectsPageBreak(t *testing.T) {
	longTitle := strings.Repeat("Desarrollo de prototipos sostenibles ", 3)
	projects := make([]report.ProjectSummary, 0, 30)
	for i := 0; i < 30; i++ {
		projects = append(projects, project(i, longTitle, null.Float64From(float64(40+i))))
	}
	doc, _, _ := render(t, &reporttest.Repository{Data: report.Data{Projects: projects}})

	if doc.PageCount() < 3 {
		t.Fatalf("failed! pages = %d; want at least 3", doc.PageCount())
	}

	isRowLine := func(op reporttest.Op) bool {
		return op.Kind == reporttest.OpLine && op.Y == op.Y2 && op.LineWidth == 0.5 &&
			op.X == geo.MarginLeft && op.X2 == geo.Right()
	}

	var rows int
	for page := 2; page <= doc.PageCount(); page++ {
		var lastRowBottom float64
		var border reporttest.Op
		for _, op := range doc.Page(page) {
			if isRowLine(op) {
				rows++
				if border.Kind != "" {
					t.Errorf("failed! page %d: row drawn after the table border", page)
				}
				if op.Y > geo.PageBreakY {
					t.Errorf("failed! page %d: row ends at %v, below %v", page, op.Y, geo.PageBreakY)
				}
				if op.Y > lastRowBottom {
					lastRowBottom = op.Y
				}
			}
			if op.Kind == reporttest.OpStrokeRect && op.LineWidth == 1.5 {
				border = op
			}
		}
		if border.Kind == "" {
			t.Fatalf("failed! page %d: no table border", page)
		}
		if bottom := border.Y + border.H; bottom != lastRowBottom {
			t.Errorf("failed! page %d: border closes at %v; want last row bottom %v", page, bottom, lastRowBottom)
		}

		texts := doc.Texts(page)
		if !contains(texts, "TÍTULO") || !contains(texts, "PUNTAJE") {
			t.Errorf("failed! page %d: table header missing", page)
		}
		continued := contains(texts, "Proyectos en el Período (continuación)")
		if page == 2 && continued {
			t.Error("failed! first projects page is marked as continued")
		}
		if page > 2 && !continued {
			t.Errorf("failed! page %d: continuation heading missing", page)
		}
	}
	if rows != len(projects) {
		t.Errorf("failed! rows = %d; want %d", rows, len(projects))
	}

	// alternating rows restart on every page
	for page := 3; page <= doc.PageCount(); page++ {
		var headerBottom float64
		for _, op := range doc.Page(page) {
			if op.Kind == reporttest.OpFillRect && op.Color == theme.Primary && op.H == 24 {
				headerBottom = op.Y + op.H
			}
			if op.Kind == reporttest.OpFillRect && op.Color == theme.RowAlt && op.Y == headerBottom {
				t.Errorf("failed! page %d: first row has the alternate background", page)
			}
		}
	}
}

func TestRenderer_Render_convocatorias(t *testing.T) {
	title := strings.Repeat("Convocatoria institucional de semilleros ", 3)
	convs := make([]report.ConvocatoriaSummary, 0, 40)
	for i := 0; i < 40; i++ {
		convs = append(convs, report.ConvocatoriaSummary{
			Title:     title,
			CreatedAt: time.Date(2025, time.April, 1+i%28, 12, 0, 0, 0, time.UTC),
		})
	}
	doc, _, _ := render(t, &reporttest.Repository{Data: report.Data{Convocatorias: convs}})

	var titles int
	for _, op := range doc.Ops() {
		if op.Kind == reporttest.OpText && strings.HasPrefix(op.Text, "Convocatoria institucional") {
			titles++
			if !strings.HasSuffix(op.Text, "...") {
				t.Errorf("failed! title %q not ellipsized", op.Text)
			}
			if n := len([]rune(op.Text)); n > report.TitleMaxLen+3 {
				t.Errorf("failed! title length = %d; want <= %d", n, report.TitleMaxLen+3)
			}
		}
	}
	if titles != len(convs) {
		t.Errorf("failed! titles = %d; want %d", titles, len(convs))
	}
	if _, ok := doc.FindText("01/04/2025"); !ok {
		t.Error("failed! creation date missing")
	}

	// the table does not fit on the first page
	var headers int
	for _, op := range doc.Ops() {
		if op.Kind == reporttest.OpText && op.Text == "FECHA DE CREACIÓN" {
			headers++
		}
	}
	if headers < 2 {
		t.Errorf("failed! convocatorias header drawn %d times; want it repeated after the page break", headers)
	}
}

func TestRenderer_Render_aggregationFailure(t *testing.T) {
	for _, method := range []string{"ListProjects", "ListConvocatorias", "CountStatistics", "EvaluationStatus", "ProjectsByKind"} {
		t.Run(method, func(t *testing.T) {
			repoErr := errors.New("connection reset")
			r, docs, _ := newRenderer(t, &reporttest.Repository{Errs: map[string]error{method: repoErr}})

			out, err := r.Render(context.Background(), period)
			if errors.Cause(err) != repoErr {
				t.Errorf("Render() error = %v, want %v", err, repoErr)
			}
			if out != nil {
				t.Errorf("failed! output = %d bytes; want none", len(out))
			}
			if len(*docs) != 0 {
				t.Error("failed! document created despite the failed query")
			}
		})
	}
}

func TestRenderer_Render_serializationFailure(t *testing.T) {
	writeErr := errors.New("disk full")
	r, _, _ := newRenderer(t, &reporttest.Repository{}, func(rec *reporttest.Recorder) { rec.WriteErr = writeErr })

	out, err := r.Render(context.Background(), period)
	if errors.Cause(err) != writeErr {
		t.Errorf("Render() error = %v, want %v", err, writeErr)
	}
	if out != nil {
		t.Errorf("failed! output = %d bytes; want none", len(out))
	}
}

func TestRenderer_Render_trailingBlankPages(t *testing.T) {
	tests := []struct {
		name      string
		immutable bool
		wantPages int
		wantWarns int
	}{
		{name: "removed", wantPages: 2},
		{name: "unsupported", immutable: true, wantPages: 4, wantWarns: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, out, logger := render(t, &reporttest.Repository{}, func(rec *reporttest.Recorder) {
				rec.TrailingBlankPages = 2
				rec.Immutable = tt.immutable
			})
			if len(out) == 0 {
				t.Fatal("failed! empty output")
			}
			if doc.PageCount() != tt.wantPages {
				t.Errorf("failed! pages = %d; want %d", doc.PageCount(), tt.wantPages)
			}
			if warns := logger.Get("warn"); len(warns) != tt.wantWarns {
				t.Errorf("failed! warnings = %v; want %d", warns, tt.wantWarns)
			}
			if !tt.immutable && !contains(doc.Texts(2), "Generado el 15/03/2025 10:30") {
				t.Error("failed! footer not drawn on the last page with content")
			}
		})
	}
}

func TestRenderer_Render_idempotent(t *testing.T) {
	repo := &reporttest.Repository{Data: report.Data{
		Projects: []report.ProjectSummary{
			project(1, "Huerta escolar", null.Float64From(85)),
			project(2, "Robótica educativa", null.Float64From(55.5)),
			project(3, "Reciclaje", null.Float64{}),
		},
		Convocatorias: []report.ConvocatoriaSummary{{Title: "Convocatoria 2025", CreatedAt: fixedNow}},
		Counts:        report.CountStatistics{Users: 10, Convocatorias: 1, Projects: 3},
		Status:        report.EvaluationStatus{Graded: 2, Ungraded: 1},
		Kinds:         report.ProjectsByKind{Aula: 3},
	}}

	factory, _ := reporttest.Factory()
	now := fixedNow
	r, err := report.NewRenderer(repo, factory, reporttest.NewLogger(), report.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewRenderer() failed: %v", err)
	}

	first, err := r.Render(context.Background(), period)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	second, err := r.Render(context.Background(), period)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("failed! renders with the same clock differ")
	}

	now = fixedNow.Add(26 * time.Hour)
	third, err := r.Render(context.Background(), period)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(first)),
		B:        difflib.SplitLines(string(third)),
		FromFile: "first",
		ToFile:   "third",
		Context:  0,
	})
	if err != nil {
		t.Fatalf("GetUnifiedDiffString() failed: %v", err)
	}
	for _, line := range difflib.SplitLines(diff) {
		if !(strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-")) {
			continue
		}
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			continue
		}
		if !strings.Contains(line, "Generado el") {
			t.Errorf("failed! unexpected difference: %s", line)
		}
	}
	if !strings.Contains(diff, "Generado el 16/03/2025 12:30") {
		t.Errorf("failed! timestamp not updated:\n%s", diff)
	}
}

func TestRenderer_RenderReport(t *testing.T) {
	repo := &reporttest.Repository{}
	r, _, _ := newRenderer(t, repo)

	if _, err := r.RenderReport(context.Background(), "2025-01-01", "2025-01-31"); err != nil {
		t.Fatalf("RenderReport() failed: %v", err)
	}
	want := report.Period{
		Start: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
	}
	for _, p := range repo.Periods {
		if !p.Start.Equal(want.Start) || !p.End.Equal(want.End) {
			t.Errorf("failed! queried period = %v; want %v", p, want)
		}
	}

	if _, err := r.RenderReport(context.Background(), "yesterday", "2025-01-31"); err == nil {
		t.Error("RenderReport() accepted an invalid date")
	}
}
