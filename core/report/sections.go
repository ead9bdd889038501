package report

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04"

	bannerHeight       = 90.0
	sectionTitleHeight = 30.0
	sectionGap         = 25.0
	summaryBoxHeight   = 70.0
	summaryBoxGap      = 15.0
	tableHeaderHeight  = 24.0
	convocatoriaRowH   = 22.0
	barHeight          = 22.0
	barGap             = 10.0
	barLabelWidth      = 110.0
	scoreBoxWidth      = 40.0
	scoreBoxHeight     = 20.0
	tableBorderWidth   = 1.5

	textEmptyConvocatorias = "No se encontraron convocatorias en el período seleccionado."
	textEmptyProjects      = "No se encontraron proyectos en el período seleccionado."
	textNotEvaluated       = "No evaluado"
	textContinued          = "(continuación)"
)

var (
	fontTitle    = Font{Size: 20, Bold: true}
	fontSubtitle = Font{Size: 11}
	fontSection  = Font{Size: 14, Bold: true}
	fontBody     = Font{Size: 10}
	fontBold     = Font{Size: 10, Bold: true}
	fontSmall    = Font{Size: 9}
	fontCell     = Font{Size: 9}
	fontHeader   = Font{Size: 9, Bold: true}
	fontBig      = Font{Size: 22, Bold: true}

	convocatoriaColumns = []float64{70, 30}
	projectColumns      = []float64{180, 140, 80, 70, 70}
)

// layout draws the report sections on a Canvas. It holds no position: every method takes the
// current Cursor and returns the one following what it drew.
type layout struct {
	canvas  Canvas
	geo     Geometry
	theme   Theme
	loc     *time.Location
	title   string
	numbers *message.Printer
}

func newLayout(c Canvas, geo Geometry, theme Theme, loc *time.Location, title string) *layout {
	return &layout{
		canvas:  c,
		geo:     geo,
		theme:   theme,
		loc:     loc,
		title:   title,
		numbers: message.NewPrinter(language.Spanish),
	}
}

// draw lays out every section but the footer and returns the final cursor.
func (l *layout) draw(data Data) Cursor {
	cur := l.newPage(Cursor{})
	cur = l.drawBanner(cur, data.Period)
	cur = l.drawSummary(cur, data.Counts)
	cur = l.drawConvocatorias(cur, data.Convocatorias)
	cur = l.drawStatusChart(cur, data.Status)
	cur = l.drawKindChart(cur, data.Kinds)
	return l.drawProjects(cur, data.Projects)
}

func (l *layout) newPage(cur Cursor) Cursor {
	l.canvas.AddPage()
	return Cursor{Page: cur.Page + 1, Y: l.geo.MarginTop}
}

// ensureSpace starts a new page when `height` does not fit below the cursor.
func (l *layout) ensureSpace(cur Cursor, height float64) Cursor {
	if cur.Y+height > l.geo.PageBreakY {
		return l.newPage(cur)
	}
	return cur
}

func (l *layout) formatDate(t time.Time) string {
	return t.In(l.loc).Format(dateLayout)
}

func (l *layout) formatDateTime(t time.Time) string {
	return t.In(l.loc).Format(dateLayout + " " + timeLayout)
}

func (l *layout) drawBanner(cur Cursor, period Period) Cursor {
	l.canvas.FillRect(0, 0, l.geo.PageWidth, bannerHeight, l.theme.Primary)
	l.canvas.Text(0, 24, l.geo.PageWidth, l.title, fontTitle, l.theme.White, AlignCenter)

	// period bounds are calendar dates
	subtitle := fmt.Sprintf("Período: %s - %s", period.Start.UTC().Format(dateLayout), period.End.UTC().Format(dateLayout))
	l.canvas.Text(0, 56, l.geo.PageWidth, subtitle, fontSubtitle, l.theme.White, AlignCenter)

	return Cursor{Page: cur.Page, Y: math.Max(cur.Y, bannerHeight+sectionGap)}
}

func (l *layout) drawSectionTitle(cur Cursor, title string) Cursor {
	x, w := l.geo.MarginLeft, l.geo.UsableWidth()
	l.canvas.Text(x, cur.Y, w, title, fontSection, l.theme.Primary, AlignLeft)
	l.canvas.Line(x, cur.Y+20, x+w, cur.Y+20, l.theme.Accent, 1)
	cur.Y += sectionTitleHeight
	return cur
}

func (l *layout) drawEmptyMessage(cur Cursor, msg string) Cursor {
	l.canvas.Text(l.geo.MarginLeft, cur.Y, l.geo.UsableWidth(), msg, fontBody, l.theme.Muted, AlignLeft)
	cur.Y += sectionTitleHeight
	return cur
}

func (l *layout) drawSummary(cur Cursor, counts CountStatistics) Cursor {
	cur = l.ensureSpace(cur, sectionTitleHeight+summaryBoxHeight)
	cur = l.drawSectionTitle(cur, "Resumen Ejecutivo")

	boxes := []struct {
		label string
		value int
	}{
		{"Proyectos", counts.Projects},
		{"Convocatorias", counts.Convocatorias},
		{"Usuarios", counts.Users},
	}
	boxW := (l.geo.UsableWidth() - summaryBoxGap*float64(len(boxes)-1)) / float64(len(boxes))
	for i, box := range boxes {
		x := l.geo.MarginLeft + float64(i)*(boxW+summaryBoxGap)
		l.canvas.FillRect(x, cur.Y, boxW, summaryBoxHeight, l.theme.BoxFill)
		l.canvas.FillRect(x, cur.Y, 4, summaryBoxHeight, l.theme.Accent)
		l.canvas.StrokeRect(x, cur.Y, boxW, summaryBoxHeight, l.theme.Border, 1)
		l.canvas.Text(x, cur.Y+12, boxW, box.label, fontSmall, l.theme.Muted, AlignCenter)
		l.canvas.Text(x, cur.Y+32, boxW, l.numbers.Sprintf("%d", box.value), fontBig, l.theme.Primary, AlignCenter)
	}

	cur.Y += summaryBoxHeight + sectionGap
	return cur
}

func (l *layout) drawTableHeader(cur Cursor, widths []float64, labels []string) Cursor {
	l.canvas.FillRect(l.geo.MarginLeft, cur.Y, l.geo.UsableWidth(), tableHeaderHeight, l.theme.Primary)
	x := l.geo.MarginLeft
	for i, label := range labels {
		l.canvas.Text(x+cellPadding, cur.Y+(tableHeaderHeight-fontHeader.Size)/2, widths[i]-2*cellPadding, label, fontHeader, l.theme.White, AlignLeft)
		x += widths[i]
	}
	cur.Y += tableHeaderHeight
	return cur
}

// closeTable draws the outer border and the column separators of a table segment spanning top..bottom.
func (l *layout) closeTable(top, bottom float64, widths []float64) {
	x := l.geo.MarginLeft
	for _, w := range widths[:len(widths)-1] {
		x += w
		l.canvas.Line(x, top, x, bottom, l.theme.Border, 0.5)
	}
	l.canvas.StrokeRect(l.geo.MarginLeft, top, l.geo.UsableWidth(), bottom-top, l.theme.Border, tableBorderWidth)
}

func (l *layout) drawConvocatorias(cur Cursor, convocatorias []ConvocatoriaSummary) Cursor {
	cur = l.ensureSpace(cur, sectionTitleHeight+tableHeaderHeight+convocatoriaRowH)
	cur = l.drawSectionTitle(cur, fmt.Sprintf("Convocatorias en el Período (%d)", len(convocatorias)))
	if len(convocatorias) == 0 {
		cur = l.drawEmptyMessage(cur, textEmptyConvocatorias)
		return cur
	}

	widths := columnWidths(l.geo.UsableWidth(), convocatoriaColumns...)
	labels := []string{"TÍTULO", "FECHA DE CREACIÓN"}

	top := cur.Y
	cur = l.drawTableHeader(cur, widths, labels)
	alternate := false
	for i, conv := range convocatorias {
		if i > 0 && cur.Y+convocatoriaRowH > l.geo.PageBreakY {
			l.closeTable(top, cur.Y, widths)
			cur = l.newPage(cur)
			top = cur.Y
			cur = l.drawTableHeader(cur, widths, labels)
			alternate = false
		}

		if alternate {
			l.canvas.FillRect(l.geo.MarginLeft, cur.Y, l.geo.UsableWidth(), convocatoriaRowH, l.theme.RowAlt)
		}
		textY := cur.Y + (convocatoriaRowH-fontCell.Size)/2
		x := l.geo.MarginLeft
		l.canvas.Text(x+cellPadding, textY, widths[0]-2*cellPadding, Truncate(conv.Title, TitleMaxLen), fontCell, l.theme.Text, AlignLeft)
		x += widths[0]
		l.canvas.Text(x+cellPadding, textY, widths[1]-2*cellPadding, l.formatDate(conv.CreatedAt), fontCell, l.theme.Text, AlignLeft)
		l.canvas.Line(l.geo.MarginLeft, cur.Y+convocatoriaRowH, l.geo.Right(), cur.Y+convocatoriaRowH, l.theme.Border, 0.5)

		cur.Y += convocatoriaRowH
		alternate = !alternate
	}
	l.closeTable(top, cur.Y, widths)

	cur.Y += sectionGap
	return cur
}

type bar struct {
	label string
	value int
	color Color
}

// drawBarChart draws one horizontal bar per item, sized by its share of `total`.
func (l *layout) drawBarChart(cur Cursor, title string, bars []bar, total int) Cursor {
	height := sectionTitleHeight + float64(len(bars))*(barHeight+barGap)
	cur = l.ensureSpace(cur, height)
	cur = l.drawSectionTitle(cur, title)

	x := l.geo.MarginLeft + barLabelWidth
	maxBarWidth := l.geo.UsableWidth() - barLabelWidth - 50
	for _, b := range bars {
		textY := cur.Y + (barHeight-fontBold.Size)/2
		l.canvas.Text(l.geo.MarginLeft, textY, barLabelWidth-cellPadding, b.label, fontBody, l.theme.Text, AlignLeft)
		l.canvas.FillRect(x, cur.Y, maxBarWidth, barHeight, l.theme.Track)

		w := BarWidth(b.value, total, maxBarWidth)
		l.canvas.FillRect(x, cur.Y, w, barHeight, b.color)
		value := strconv.Itoa(b.value)
		if w >= minInsideBarWidth {
			l.canvas.Text(x, textY, w, value, fontBold, l.theme.White, AlignCenter)
		} else {
			l.canvas.Text(x+w+cellPadding, textY, 50-cellPadding, value, fontBold, l.theme.Text, AlignLeft)
		}
		cur.Y += barHeight + barGap
	}

	cur.Y += sectionGap - barGap
	return cur
}

func (l *layout) drawStatusChart(cur Cursor, status EvaluationStatus) Cursor {
	return l.drawBarChart(cur, "Estado de Evaluaciones", []bar{
		{label: "Evaluados", value: status.Graded, color: l.theme.Success},
		{label: "Sin evaluar", value: status.Ungraded, color: l.theme.Warning},
	}, status.Total())
}

func (l *layout) drawKindChart(cur Cursor, kinds ProjectsByKind) Cursor {
	total := kinds.Total()
	if total < 1 {
		total = 1
	}
	return l.drawBarChart(cur, "Proyectos por Tipo", []bar{
		{label: KindAula.Label(), value: kinds.Aula, color: l.theme.Accent},
		{label: KindSemillero.Label(), value: kinds.Semillero, color: l.theme.Secondary},
	}, total)
}

// projectRowHeight is the estimated row height, raised to fit the wrapped title and convocatoria if needed.
func (l *layout) projectRowHeight(p ProjectSummary, widths []float64) float64 {
	h := RowHeight(len([]rune(p.Title)), len([]rune(p.ConvocatoriaTitle)))
	titleLines := len(wrapText(l.canvas, p.Title, fontCell, widths[0]-2*cellPadding))
	convLines := len(wrapText(l.canvas, p.ConvocatoriaTitle, fontCell, widths[1]-2*cellPadding))
	measured := float64(maxInt(titleLines, convLines, 2))*lineHeight + 2*cellPadding
	return math.Max(h, measured)
}

func (l *layout) drawProjects(cur Cursor, projects []ProjectSummary) Cursor {
	heading := "Proyectos en el Período"
	cur = l.newPage(cur)
	cur = l.drawSectionTitle(cur, fmt.Sprintf("%s (%d)", heading, len(projects)))
	if len(projects) == 0 {
		cur = l.drawEmptyMessage(cur, textEmptyProjects)
		return cur
	}

	widths := columnWidths(l.geo.UsableWidth(), projectColumns...)
	labels := []string{"TÍTULO", "CONVOCATORIA", "FECHA", "TIPO", "PUNTAJE"}

	top := cur.Y
	cur = l.drawTableHeader(cur, widths, labels)
	alternate := false
	segmentRows := 0
	for _, p := range projects {
		h := l.projectRowHeight(p, widths)
		// a row taller than a whole page is drawn as is rather than breaking forever
		if segmentRows > 0 && cur.Y+h > l.geo.PageBreakY {
			l.closeTable(top, cur.Y, widths)
			cur = l.newPage(cur)
			cur = l.drawSectionTitle(cur, heading+" "+textContinued)
			top = cur.Y
			cur = l.drawTableHeader(cur, widths, labels)
			alternate = false
			segmentRows = 0
		}

		if alternate {
			l.canvas.FillRect(l.geo.MarginLeft, cur.Y, l.geo.UsableWidth(), h, l.theme.RowAlt)
		}
		l.drawProjectRow(cur, p, widths, h)
		l.canvas.Line(l.geo.MarginLeft, cur.Y+h, l.geo.Right(), cur.Y+h, l.theme.Border, 0.5)

		cur.Y += h
		alternate = !alternate
		segmentRows++
	}
	l.closeTable(top, cur.Y, widths)

	cur.Y += sectionGap
	return cur
}

func (l *layout) drawLines(x, y, w float64, lines []string) {
	for i, line := range lines {
		l.canvas.Text(x, y+float64(i)*lineHeight, w, line, fontCell, l.theme.Text, AlignLeft)
	}
}

func (l *layout) drawProjectRow(cur Cursor, p ProjectSummary, widths []float64, h float64) {
	x := l.geo.MarginLeft
	top := cur.Y + cellPadding

	w := widths[0] - 2*cellPadding
	l.drawLines(x+cellPadding, top, w, wrapText(l.canvas, p.Title, fontCell, w))
	x += widths[0]

	w = widths[1] - 2*cellPadding
	l.drawLines(x+cellPadding, top, w, wrapText(l.canvas, p.ConvocatoriaTitle, fontCell, w))
	x += widths[1]

	w = widths[2] - 2*cellPadding
	created := p.CreatedAt.In(l.loc)
	l.drawLines(x+cellPadding, top, w, []string{created.Format(dateLayout), created.Format(timeLayout)})
	x += widths[2]

	w = widths[3] - 2*cellPadding
	l.canvas.Text(x+cellPadding, top, w, p.Kind.Label(), fontCell, l.theme.Text, AlignLeft)
	x += widths[3]

	color := l.theme.ScoreColor(p.Score)
	if p.Score.Valid {
		bx := x + (widths[4]-scoreBoxWidth)/2
		by := cur.Y + (h-scoreBoxHeight)/2
		l.canvas.FillRoundedRect(bx, by, scoreBoxWidth, scoreBoxHeight, 4, color)
		l.canvas.Text(bx, by+(scoreBoxHeight-fontHeader.Size)/2, scoreBoxWidth, fmt.Sprintf("%.2f", p.Score.Float64), fontHeader, l.theme.White, AlignCenter)
	} else {
		l.canvas.Text(x, cur.Y+(h-fontSmall.Size)/2, widths[4], textNotEvaluated, fontSmall, color, AlignCenter)
	}
}

// drawFooter draws the generation band at the bottom of the current page.
func (l *layout) drawFooter(generatedAt time.Time) {
	y := l.geo.PageHeight - l.geo.FooterHeight
	l.canvas.FillRect(0, y, l.geo.PageWidth, l.geo.FooterHeight, l.theme.Primary)
	l.canvas.Text(0, y+(l.geo.FooterHeight-fontSmall.Size)/2, l.geo.PageWidth, "Generado el "+l.formatDateTime(generatedAt), fontSmall, l.theme.White, AlignCenter)
}

func maxInt(values ...int) int {
	var max int
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
