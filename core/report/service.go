package report

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/convocatorias/core"
)

const (
	Filename    = "reporte.pdf"
	ContentType = "application/pdf"
)

type Service struct {
	repo     Repository
	renderer *Renderer
	notifier core.Notifier
}

func NewService(repo Repository, renderer *Renderer, notifier core.Notifier) *Service {
	return &Service{repo: repo, renderer: renderer, notifier: notifier}
}

func (svc *Service) Render(ctx context.Context, period Period) ([]byte, error) {
	return svc.renderer.Render(ctx, period)
}

// SendReport renders the report of `period` and sends it to `to` as an attachment.
// Rendering errors are returned; delivery happens in the background.
func (svc *Service) SendReport(ctx context.Context, period Period, to mail.Address) error {
	pdf, err := svc.Render(ctx, period)
	if err != nil {
		return err
	}

	at, err := core.NewAttachment(bytes.NewReader(pdf), Filename, ContentType)
	if err != nil {
		return errors.Wrap(err, "attaching report")
	}
	svc.notifier.Notify(ctx, core.Notification{
		Recipient: to,
		Title:     "Reporte de convocatorias y proyectos",
		Message: fmt.Sprintf(
			"Adjunto encontrará el reporte del período %s - %s.",
			period.Start.UTC().Format(dateLayout), period.End.UTC().Format(dateLayout),
		),
		ActionURL:   "/reportes",
		Attachments: []core.Attachment{at},
	})
	return nil
}

func (svc *Service) CountStatistics(ctx context.Context, period Period) (CountStatistics, error) {
	stats, err := svc.repo.CountStatistics(ctx, period)
	return stats, errors.Wrap(err, "counting statistics")
}

func (svc *Service) EvaluationStatus(ctx context.Context, period Period) (EvaluationStatus, error) {
	status, err := svc.repo.EvaluationStatus(ctx, period)
	return status, errors.Wrap(err, "counting evaluation status")
}

func (svc *Service) ProjectsByKind(ctx context.Context, period Period) (ProjectsByKind, error) {
	kinds, err := svc.repo.ProjectsByKind(ctx, period)
	return kinds, errors.Wrap(err, "counting projects by kind")
}

func (svc *Service) ProjectsPerConvocatoria(ctx context.Context, period Period, ordering ...core.DBOrdering) ([]ConvocatoriaProjects, error) {
	res, err := svc.repo.ProjectsPerConvocatoria(ctx, period, ordering...)
	if err != nil {
		return nil, errors.Wrap(err, "counting projects per convocatoria")
	}
	if res == nil {
		res = []ConvocatoriaProjects{}
	}
	return res, nil
}

func (svc *Service) AverageScores(ctx context.Context, period Period) ([]ConvocatoriaAverage, error) {
	res, err := svc.repo.AverageScores(ctx, period)
	if err != nil {
		return nil, errors.Wrap(err, "averaging scores")
	}
	avgs := make([]ConvocatoriaAverage, 0, len(res))
	for _, avg := range res {
		avgs = append(avgs, avg.Round2())
	}
	return avgs, nil
}
