package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/convocatorias/core"
)

// NowFunc is the clock used for the generation timestamp of reports.
var NowFunc = time.Now // mockable

type (
	Option func(*Renderer)

	// Renderer builds the PDF report of a period: it aggregates the data, lays it out then serializes it.
	Renderer struct {
		repo        Repository
		newDocument DocumentFactory
		logger      core.Logger
		geo         Geometry
		theme       Theme
		title       string
		author      string
		loc         *time.Location
		now         func() time.Time
	}
)

func WithTitle(title string) Option { return func(r *Renderer) { r.title = title } }

func WithAuthor(author string) Option { return func(r *Renderer) { r.author = author } }

// WithLocation sets the timezone used to print record dates and the generation timestamp.
func WithLocation(loc *time.Location) Option { return func(r *Renderer) { r.loc = loc } }

func WithClock(now func() time.Time) Option { return func(r *Renderer) { r.now = now } }

func WithGeometry(geo Geometry) Option { return func(r *Renderer) { r.geo = geo } }

func WithTheme(theme Theme) Option { return func(r *Renderer) { r.theme = theme } }

func NewRenderer(repo Repository, newDocument DocumentFactory, logger core.Logger, opts ...Option) (*Renderer, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		isTrue(newDocument != nil, "parameter newDocument must not be nil"),
		vala.IsNotNil(logger, "logger"),
	).Check()
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		repo:        repo,
		newDocument: newDocument,
		logger:      logger,
		geo:         A4Geometry(),
		theme:       DefaultTheme(),
		title:       "Reporte de Convocatorias y Proyectos",
		author:      "Convocatorias",
		loc:         time.UTC,
		now:         func() time.Time { return NowFunc() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	if err = r.geo.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating geometry")
	}
	return r, nil
}

// RenderReport renders the report of the period between two ISO dates.
func (r *Renderer) RenderReport(ctx context.Context, start, end string) ([]byte, error) {
	period, err := ParsePeriod(start, end)
	if err != nil {
		return nil, core.NewValidationError(err)
	}
	return r.Render(ctx, period)
}

// Render returns the complete PDF of `period`, or an error and no bytes at all.
// Query errors are returned wrapped; errors.Cause gives back the repository's error.
func (r *Renderer) Render(ctx context.Context, period Period) ([]byte, error) {
	data, err := aggregate(ctx, r.repo, period)
	if err != nil {
		return nil, err
	}

	generatedAt := r.now()
	doc := r.newDocument(Metadata{Title: r.title, Author: r.author, CreatedAt: generatedAt})

	l := newLayout(doc, r.geo, r.theme, r.loc, r.title)
	cur := l.draw(data)
	r.dropTrailingPages(doc, cur)
	l.drawFooter(generatedAt)

	var buf bytes.Buffer
	if _, err = doc.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "serializing report")
	}
	return buf.Bytes(), nil
}

// dropTrailingPages removes pages added after the last one holding content, then focuses that page.
// Failures only leave a blank page behind, so they are logged and ignored.
func (r *Renderer) dropTrailingPages(doc Pager, cur Cursor) {
	last := cur.Page
	if last > 1 && cur.Y <= r.geo.MarginTop {
		last-- // nothing was drawn on the cursor's page
	}

	for doc.PageCount() > last {
		if err := doc.RemoveLastPage(); err != nil {
			r.logger.Warn(fmt.Sprintf("removing trailing blank page: %v", err), err)
			break
		}
	}
	if err := doc.FocusPage(last); err != nil {
		r.logger.Warn(fmt.Sprintf("focusing page %d: %v", last, err), err)
	}
}
