package report

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// aggregate runs the report queries concurrently. Results are only used once all of them succeeded;
// the first failure cancels the others and is returned.
func aggregate(ctx context.Context, repo Repository, period Period) (Data, error) {
	var (
		projects      []ProjectSummary
		convocatorias []ConvocatoriaSummary
		counts        CountStatistics
		status        EvaluationStatus
		kinds         ProjectsByKind
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projects, err = repo.ListProjects(gctx, period)
		return errors.Wrap(err, "listing projects")
	})
	g.Go(func() (err error) {
		convocatorias, err = repo.ListConvocatorias(gctx, period)
		return errors.Wrap(err, "listing convocatorias")
	})
	g.Go(func() (err error) {
		counts, err = repo.CountStatistics(gctx, period)
		return errors.Wrap(err, "counting statistics")
	})
	g.Go(func() (err error) {
		status, err = repo.EvaluationStatus(gctx, period)
		return errors.Wrap(err, "counting evaluation status")
	})
	g.Go(func() (err error) {
		kinds, err = repo.ProjectsByKind(gctx, period)
		return errors.Wrap(err, "counting projects by kind")
	})
	if err := g.Wait(); err != nil {
		return Data{}, err
	}

	return Data{
		Period:        period,
		Projects:      projects,
		Convocatorias: convocatorias,
		Counts:        counts,
		Status:        status,
		Kinds:         kinds,
	}, nil
}
