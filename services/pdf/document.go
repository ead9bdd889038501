package pdfsvc

import (
	"bytes"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/trezcool/convocatorias/core/report"
)

const (
	fontFamily = "Helvetica"
	creator    = "Convocatorias"
)

type document struct {
	pdf     *fpdf.Fpdf
	encoder *encoding.Encoder
}

var _ report.Document = (*document)(nil)

// New returns an empty A4 PDF document measured in points.
// Two documents with the same metadata and drawing calls serialize to the same bytes.
func New(meta report.Metadata) report.Document {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCellMargin(0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(meta.CreatedAt)
	pdf.SetModificationDate(meta.CreatedAt)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetCreator(creator, true)
	pdf.SetFont(fontFamily, "", 10)

	return &document{
		pdf:     pdf,
		encoder: encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
	}
}

// encode transcodes s to the Windows-1252 bytes core fonts are indexed by.
func (d *document) encode(s string) string {
	enc, err := d.encoder.String(s)
	if err != nil {
		return s
	}
	return enc
}

func (d *document) setFont(font report.Font) {
	style := ""
	if font.Bold {
		style = "B"
	}
	d.pdf.SetFont(fontFamily, style, font.Size)
}

func (d *document) AddPage() {
	d.pdf.AddPage()
}

func (d *document) FillRect(x, y, w, h float64, fill report.Color) {
	d.pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
	d.pdf.Rect(x, y, math.Max(w, 0), h, "F")
}

func (d *document) StrokeRect(x, y, w, h float64, stroke report.Color, lineWidth float64) {
	d.pdf.SetDrawColor(int(stroke.R), int(stroke.G), int(stroke.B))
	d.pdf.SetLineWidth(lineWidth)
	d.pdf.Rect(x, y, w, h, "D")
}

func (d *document) FillRoundedRect(x, y, w, h, r float64, fill report.Color) {
	d.pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
	d.pdf.RoundedRect(x, y, w, h, r, "1234", "F")
}

func (d *document) Line(x1, y1, x2, y2 float64, stroke report.Color, lineWidth float64) {
	d.pdf.SetDrawColor(int(stroke.R), int(stroke.G), int(stroke.B))
	d.pdf.SetLineWidth(lineWidth)
	d.pdf.Line(x1, y1, x2, y2)
}

func (d *document) Text(x, y, w float64, s string, font report.Font, color report.Color, align report.Align) {
	d.setFont(font)
	d.pdf.SetTextColor(int(color.R), int(color.G), int(color.B))
	d.pdf.SetXY(x, y)
	d.pdf.CellFormat(w, font.Size, d.encode(s), "", 0, alignStr(align), false, 0, "")
}

func (d *document) TextWidth(s string, font report.Font) float64 {
	d.setFont(font)
	return d.pdf.GetStringWidth(d.encode(s))
}

func (d *document) PageCount() int {
	return d.pdf.PageCount()
}

// RemoveLastPage is not supported: fpdf pages cannot be removed once added.
func (d *document) RemoveLastPage() error {
	return report.ErrUnsupported
}

func (d *document) FocusPage(i int) error {
	if i < 1 || i > d.pdf.PageCount() {
		return errors.Errorf("page %d out of range [1, %d]", i, d.pdf.PageCount())
	}
	d.pdf.SetPage(i)
	return nil
}

// WriteTo closes the document and writes it to w. It fails with the first drawing error, if any.
func (d *document) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return 0, errors.Wrap(err, "generating pdf")
	}
	return buf.WriteTo(w)
}

func alignStr(align report.Align) string {
	switch align {
	case report.AlignCenter:
		return "CM"
	case report.AlignRight:
		return "RM"
	default:
		return "LM"
	}
}
