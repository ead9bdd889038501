package report

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/convocatorias/core"
)

// ProjectKind tells which detail record a project has.
type ProjectKind string

const (
	KindUnspecified ProjectKind = ""
	KindAula        ProjectKind = "aula"
	KindSemillero   ProjectKind = "semillero"
)

// Label is the human readable kind, as printed in the report.
func (k ProjectKind) Label() string {
	switch k {
	case KindAula:
		return "Aula"
	case KindSemillero:
		return "Semillero"
	default:
		return "No especificado"
	}
}

// Period bounds are inclusive and apply to the creation timestamp of each record.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParsePeriod parses two ISO dates (YYYY-MM-DD or RFC 3339).
// A date-only end is extended to the end of that day.
// Ordering is not checked here: an inverted period just matches nothing.
func ParsePeriod(start, end string) (Period, error) {
	s, _, err := core.ParseISODate(start)
	if err != nil {
		return Period{}, errors.Wrapf(err, "parsing period start %q", start)
	}
	e, dateOnly, err := core.ParseISODate(end)
	if err != nil {
		return Period{}, errors.Wrapf(err, "parsing period end %q", end)
	}
	if dateOnly {
		e = e.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return Period{Start: s.UTC(), End: e.UTC()}, nil
}

// AllTime is the period matching every record.
func AllTime() Period {
	return Period{
		Start: time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC),
	}
}

type ProjectSummary struct {
	ID                string       `json:"id" db:"id"`
	Title             string       `json:"title" db:"titulo"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	ConvocatoriaTitle string       `json:"convocatoria_title" db:"convocatoria_titulo"`
	Kind              ProjectKind  `json:"kind" db:"tipo"`
	Score             null.Float64 `json:"score" db:"puntaje_total"`
}

type ConvocatoriaSummary struct {
	Title     string    `json:"title" db:"titulo"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CountStatistics struct {
	Users         int `json:"users" db:"users"`
	Convocatorias int `json:"convocatorias" db:"convocatorias"`
	Projects      int `json:"projects" db:"projects"`
}

// EvaluationStatus partitions the projects of a period by whether they have an evaluation.
type EvaluationStatus struct {
	Graded   int `json:"graded" db:"graded"`
	Ungraded int `json:"ungraded" db:"ungraded"`
}

func (s EvaluationStatus) Total() int { return s.Graded + s.Ungraded }

type ProjectsByKind struct {
	Aula      int `json:"aula" db:"aula"`
	Semillero int `json:"semillero" db:"semillero"`
}

func (k ProjectsByKind) Total() int { return k.Aula + k.Semillero }

// ConvocatoriaProjects is the number of projects submitted to a convocatoria.
type ConvocatoriaProjects struct {
	Name  string `json:"name" db:"name"`
	Value int    `json:"value" db:"value"`
}

// ConvocatoriaAverage is the mean evaluation score of a convocatoria. Average is null when nothing was evaluated.
type ConvocatoriaAverage struct {
	Convocatoria string       `json:"convocatoria" db:"convocatoria"`
	Evaluated    int          `json:"evaluated" db:"evaluated"`
	Average      null.Float64 `json:"average" db:"average"`
}

// Round2 rounds averages for display.
func (a ConvocatoriaAverage) Round2() ConvocatoriaAverage {
	if a.Average.Valid {
		a.Average.Float64 = math.Round(a.Average.Float64*100) / 100
	}
	return a
}

// Data is everything a report is built from.
type Data struct {
	Period        Period
	Projects      []ProjectSummary
	Convocatorias []ConvocatoriaSummary
	Counts        CountStatistics
	Status        EvaluationStatus
	Kinds         ProjectsByKind
}
