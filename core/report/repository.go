package report

import (
	"context"

	"github.com/trezcool/convocatorias/core"
)

// Repository is the read side of the persistence layer. Every query is filtered by Period.
type Repository interface {
	ListProjects(ctx context.Context, period Period) ([]ProjectSummary, error)
	ListConvocatorias(ctx context.Context, period Period) ([]ConvocatoriaSummary, error)
	CountStatistics(ctx context.Context, period Period) (CountStatistics, error)
	EvaluationStatus(ctx context.Context, period Period) (EvaluationStatus, error)
	ProjectsByKind(ctx context.Context, period Period) (ProjectsByKind, error)

	// ProjectsPerConvocatoria lists convocatorias having at least one project in the period.
	// Orderable fields: "name" and "value".
	ProjectsPerConvocatoria(ctx context.Context, period Period, ordering ...core.DBOrdering) ([]ConvocatoriaProjects, error)
	// AverageScores averages the evaluation scores of each convocatoria created in the period.
	AverageScores(ctx context.Context, period Period) ([]ConvocatoriaAverage, error)
}
