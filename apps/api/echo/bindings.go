package echoapi

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/report"
)

var (
	orderingParam = "ordering"

	endAfterStartTag  = "endafterstart"
	endAfterStartText = "{0} must not precede start"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// PeriodQuery is an optional period: no bounds means all time.
type PeriodQuery struct {
	Start    string `query:"start" validate:"required_with=End,omitempty,isodate"`
	End      string `query:"end" validate:"required_with=Start,omitempty,isodate"`
	Ordering string `query:"ordering" validate:"omitempty,ordering"`
}

func (q PeriodQuery) bounds() (string, string) { return q.Start, q.End }

func (q PeriodQuery) Period() (report.Period, error) {
	if q.Start == "" && q.End == "" {
		return report.AllTime(), nil
	}
	return report.ParsePeriod(q.Start, q.End)
}

// PDFQuery is the mandatory period of an exported report.
type PDFQuery struct {
	Start string `query:"start" validate:"required,isodate"`
	End   string `query:"end" validate:"required,isodate"`
}

func (q PDFQuery) bounds() (string, string) { return q.Start, q.End }

func (q PDFQuery) Period() (report.Period, error) {
	return report.ParsePeriod(q.Start, q.End)
}

type periodBounds interface {
	bounds() (start, end string)
}

// bindPeriod binds the query params into `q` and validates them.
func bindPeriod(ctx echo.Context, validate *validator.Validate, q interface {
	periodBounds
	Period() (report.Period, error)
}) (report.Period, error) {
	if err := ctx.Bind(q); err != nil {
		return report.Period{}, errors.Wrap(err, "binding period")
	}
	if err := validate.Struct(q); err != nil {
		return report.Period{}, err
	}
	period, err := q.Period()
	if err != nil {
		return report.Period{}, core.NewValidationError(err)
	}
	return period, nil
}

// endAfterStart rejects periods ending before they start.
func endAfterStart(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(periodBounds)
	if !ok {
		return
	}
	start, end := q.bounds()
	if start == "" || end == "" {
		return
	}
	period, err := report.ParsePeriod(start, end)
	if err != nil {
		return // reported by the field validators
	}
	if period.End.Before(period.Start) {
		sl.ReportError(end, "end", "End", endAfterStartTag, "")
	}
}

// InitValidators registers the validations of the request bindings.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(endAfterStart, PeriodQuery{}, PDFQuery{})
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartText)
}
