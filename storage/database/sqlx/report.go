package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/report"
)

const (
	listProjectsQuery = `
SELECT p.id, p.titulo, p.created_at, c.titulo AS convocatoria_titulo,
       CASE
           WHEN pa.id IS NOT NULL THEN 'aula'
           WHEN ps.id IS NOT NULL THEN 'semillero'
           ELSE ''
       END AS tipo,
       e.puntaje_total
FROM proyectos p
JOIN convocatorias c ON c.id = p.convocatoria_id
LEFT JOIN proyectos_aula pa ON pa.proyecto_id = p.id
LEFT JOIN proyectos_semillero ps ON ps.proyecto_id = p.id
LEFT JOIN evaluaciones e ON e.proyecto_id = p.id
WHERE p.created_at BETWEEN ? AND ?
ORDER BY p.created_at, p.id`

	listConvocatoriasQuery = `
SELECT titulo, created_at
FROM convocatorias
WHERE created_at BETWEEN ? AND ?
ORDER BY created_at, id`

	countStatisticsQuery = `
SELECT (SELECT COUNT(*) FROM users WHERE created_at BETWEEN ? AND ?)         AS users,
       (SELECT COUNT(*) FROM convocatorias WHERE created_at BETWEEN ? AND ?) AS convocatorias,
       (SELECT COUNT(*) FROM proyectos WHERE created_at BETWEEN ? AND ?)     AS projects`

	evaluationStatusQuery = `
SELECT COUNT(e.id) AS graded, COUNT(*) - COUNT(e.id) AS ungraded
FROM proyectos p
LEFT JOIN evaluaciones e ON e.proyecto_id = p.id
WHERE p.created_at BETWEEN ? AND ?`

	projectsByKindQuery = `
SELECT COUNT(pa.id) AS aula, COUNT(ps.id) AS semillero
FROM proyectos p
LEFT JOIN proyectos_aula pa ON pa.proyecto_id = p.id
LEFT JOIN proyectos_semillero ps ON ps.proyecto_id = p.id
WHERE p.created_at BETWEEN ? AND ?`

	projectsPerConvocatoriaQuery = `
SELECT c.titulo AS name, COUNT(p.id) AS value
FROM convocatorias c
JOIN proyectos p ON p.convocatoria_id = c.id
WHERE p.created_at BETWEEN ? AND ?
GROUP BY c.id, c.titulo
ORDER BY %s`

	averageScoresQuery = `
SELECT c.titulo AS convocatoria, COUNT(e.id) AS evaluated, AVG(e.puntaje_total) AS average
FROM convocatorias c
LEFT JOIN proyectos p ON p.convocatoria_id = c.id
LEFT JOIN evaluaciones e ON e.proyecto_id = p.id
WHERE c.created_at BETWEEN ? AND ?
GROUP BY c.id, c.titulo, c.created_at
ORDER BY c.created_at, c.id`
)

// orderable fields of ProjectsPerConvocatoria, by json name
var projectsPerConvocatoriaOrdering = map[string]string{
	"name":  "name",
	"value": "value",
}

type reportRepository struct {
	db core.DBExecutor
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db core.DBExecutor) *reportRepository {
	return &reportRepository{db: db}
}

func (repo reportRepository) bounds(period report.Period) []interface{} {
	return []interface{}{period.Start.UTC(), period.End.UTC()}
}

func (repo reportRepository) ListProjects(ctx context.Context, period report.Period) ([]report.ProjectSummary, error) {
	projects := make([]report.ProjectSummary, 0)
	err := sqlx.SelectContext(ctx, repo.db, &projects, repo.db.Rebind(listProjectsQuery), repo.bounds(period)...)
	return projects, errors.Wrap(err, "selecting projects")
}

func (repo reportRepository) ListConvocatorias(ctx context.Context, period report.Period) ([]report.ConvocatoriaSummary, error) {
	convs := make([]report.ConvocatoriaSummary, 0)
	err := sqlx.SelectContext(ctx, repo.db, &convs, repo.db.Rebind(listConvocatoriasQuery), repo.bounds(period)...)
	return convs, errors.Wrap(err, "selecting convocatorias")
}

func (repo reportRepository) CountStatistics(ctx context.Context, period report.Period) (report.CountStatistics, error) {
	var stats report.CountStatistics
	bounds := repo.bounds(period)
	args := append(append(append([]interface{}{}, bounds...), bounds...), bounds...)
	err := sqlx.GetContext(ctx, repo.db, &stats, repo.db.Rebind(countStatisticsQuery), args...)
	return stats, errors.Wrap(err, "counting statistics")
}

func (repo reportRepository) EvaluationStatus(ctx context.Context, period report.Period) (report.EvaluationStatus, error) {
	var status report.EvaluationStatus
	err := sqlx.GetContext(ctx, repo.db, &status, repo.db.Rebind(evaluationStatusQuery), repo.bounds(period)...)
	return status, errors.Wrap(err, "counting evaluation status")
}

func (repo reportRepository) ProjectsByKind(ctx context.Context, period report.Period) (report.ProjectsByKind, error) {
	var kinds report.ProjectsByKind
	err := sqlx.GetContext(ctx, repo.db, &kinds, repo.db.Rebind(projectsByKindQuery), repo.bounds(period)...)
	return kinds, errors.Wrap(err, "counting projects by kind")
}

// orderBy builds an ORDER BY clause from whitelisted fields. The name is always the last tie-breaker.
func orderBy(allowed map[string]string, ordering []core.DBOrdering, fallback string) (string, error) {
	if len(ordering) == 0 {
		return fallback, nil
	}
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			return "", core.NewFieldValidationError("ordering", fmt.Sprintf("unknown field %q", ord.Field))
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	return strings.Join(append(clauses, fallback), ", "), nil
}

func (repo reportRepository) ProjectsPerConvocatoria(ctx context.Context, period report.Period, ordering ...core.DBOrdering) ([]report.ConvocatoriaProjects, error) {
	order, err := orderBy(projectsPerConvocatoriaOrdering, ordering, "name ASC")
	if err != nil {
		return nil, err
	}
	res := make([]report.ConvocatoriaProjects, 0)
	query := repo.db.Rebind(fmt.Sprintf(projectsPerConvocatoriaQuery, order))
	err = sqlx.SelectContext(ctx, repo.db, &res, query, repo.bounds(period)...)
	return res, errors.Wrap(err, "counting projects per convocatoria")
}

func (repo reportRepository) AverageScores(ctx context.Context, period report.Period) ([]report.ConvocatoriaAverage, error) {
	avgs := make([]report.ConvocatoriaAverage, 0)
	err := sqlx.SelectContext(ctx, repo.db, &avgs, repo.db.Rebind(averageScoresQuery), repo.bounds(period)...)
	return avgs, errors.Wrap(err, "averaging scores")
}
