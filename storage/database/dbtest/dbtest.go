// Package dbtest provides an in-memory SQLite database with the application schema, and fixtures.
package dbtest

import (
	"context"
	"embed"
	"io/fs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/volatiletech/null/v8"
	_ "modernc.org/sqlite"

	"github.com/trezcool/convocatorias/core/report"
	"github.com/trezcool/convocatorias/core/user"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open returns a migrated in-memory database, closed when the test ends.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:?_time_format=sqlite")
	if err != nil {
		t.Fatalf("dbtest.Open() failed: %v", err)
	}
	// every connection to :memory: is a new database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("dbtest.Open() failed: %v", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.DB, migrations)
	if err != nil {
		t.Fatalf("dbtest.Open() failed: %v", err)
	}
	if _, err = provider.Up(context.Background()); err != nil {
		t.Fatalf("dbtest.Open() migrating failed: %v", err)
	}
	return db
}

func exec(t *testing.T, db sqlx.ExtContext, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.ExecContext(context.Background(), db.Rebind(query), args...); err != nil {
		t.Fatalf("dbtest: %v\n%s", err, query)
	}
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func CreateUser(t *testing.T, db sqlx.ExtContext, fullname, email string, roles []string, createdAt time.Time) user.User {
	t.Helper()
	usr := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		Fullname:     fullname,
		Roles:        roles,
		IsActive:     true,
		PasswordHash: []byte("unusable"),
		CreatedAt:    createdAt.UTC(),
		UpdatedAt:    createdAt.UTC(),
	}
	exec(t, db,
		`INSERT INTO users (id, email, fullname, password, roles, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		usr.ID, usr.Email, usr.Fullname, string(usr.PasswordHash), pq.Array(usr.Roles), usr.IsActive, usr.CreatedAt, usr.UpdatedAt,
	)
	return usr
}

// CreateConvocatoria inserts a convocatoria and returns its id.
func CreateConvocatoria(t *testing.T, db sqlx.ExtContext, title string, createdAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db,
		`INSERT INTO convocatorias (id, titulo, fecha_inicio, fecha_fin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, title, createdAt.UTC(), createdAt.UTC().AddDate(0, 6, 0), createdAt.UTC(), createdAt.UTC(),
	)
	return id
}

// CreateProject inserts a project of `kind` in a convocatoria, evaluated when score is valid.
func CreateProject(t *testing.T, db sqlx.ExtContext, convocatoriaID, title string, kind report.ProjectKind, score null.Float64, createdAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db,
		`INSERT INTO proyectos (id, titulo, convocatoria_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, title, convocatoriaID, createdAt.UTC(), createdAt.UTC(),
	)

	switch kind {
	case report.KindAula:
		exec(t, db,
			`INSERT INTO proyectos_aula (id, proyecto_id, curso, docente_orientador) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), id, "Ingeniería Ambiental", "Prof. Rodríguez",
		)
	case report.KindSemillero:
		exec(t, db,
			`INSERT INTO proyectos_semillero (id, proyecto_id, nombre_semillero, director_semillero) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), id, "Semillero Psicología Digital", "Dra. González",
		)
	}

	if score.Valid {
		exec(t, db,
			`INSERT INTO evaluaciones (id, proyecto_id, puntaje_total, created_at) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), id, score.Float64, createdAt.UTC(),
		)
	}
	return id
}
