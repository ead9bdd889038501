package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/user"
)

// tables in deletion order
var seededTables = []string{
	"evaluacion_criterios", "evaluaciones", "proyectos_semillero", "proyectos_aula", "proyecto_estudiantes",
	"proyectos", "convocatorias", "criterios", "rubricas", "users",
}

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// SeedResult holds the ids of the main demo records.
type SeedResult struct {
	Admin         user.User
	Convocatorias []string
	Projects      []string
}

type seedCriterio struct {
	nombre, descripcion string
	min, max            float64
}

// Seeder replaces the content of the database with demo data.
type Seeder struct {
	db    core.DB
	users *userRepository
}

func NewSeeder(db core.DB) *Seeder {
	return &Seeder{db: db, users: NewUserRepository(db)}
}

// Seed deletes every record and inserts the demo data, in one transaction.
func (s *Seeder) Seed(ctx context.Context, opts SeedOptions) (res SeedResult, err error) {
	if opts.AdminEmail == "" {
		opts.AdminEmail = "admin@email.com"
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "admin123"
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range seededTables {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return res, errors.Wrapf(err, "clearing %s", table)
		}
	}

	// users
	res.Admin, err = s.createUser(ctx, tx, "Admin General", opts.AdminEmail, opts.AdminPassword, user.RoleAdmin)
	if err != nil {
		return res, err
	}
	docente, err := s.createUser(ctx, tx, "Docente Ejemplo", "docente@email.com", "docente123", user.RoleTeacher)
	if err != nil {
		return res, err
	}
	est1, err := s.createUser(ctx, tx, "Estudiante 1", "estudiante1@email.com", "estudiante123", user.RoleStudent)
	if err != nil {
		return res, err
	}
	est2, err := s.createUser(ctx, tx, "Estudiante 2", "estudiante2@email.com", "estudiante123", user.RoleStudent)
	if err != nil {
		return res, err
	}

	// rubricas
	rubrica1, criterios1, err := s.createRubrica(ctx, tx, "Rúbrica General", "Rúbrica para evaluación de proyectos",
		seedCriterio{"Originalidad", "Evalúa la originalidad", 5, 10},
		seedCriterio{"Impacto", "Evalúa el impacto del proyecto", 5, 10},
	)
	if err != nil {
		return res, err
	}
	rubrica2, _, err := s.createRubrica(ctx, tx, "Rúbrica Específica", "Rúbrica para evaluación de proyectos específicos",
		seedCriterio{"Viabilidad", "Evalúa la viabilidad del proyecto", 5, 10},
		seedCriterio{"Sostenibilidad", "Evalúa la sostenibilidad del proyecto", 5, 10},
	)
	if err != nil {
		return res, err
	}

	// convocatorias
	now := NowFunc().UTC()
	conv1 := uuid.NewString()
	conv2 := uuid.NewString()
	err = s.exec(ctx, tx, "inserting convocatorias", `
INSERT INTO convocatorias (id, titulo, descripcion, fecha_inicio, fecha_fin, is_active, rubrica_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conv1, "Convocatoria Innovación 2025", "Convocatoria para proyectos innovadores", date(2025, 1, 1), date(2025, 12, 31), true, rubrica1, now, now,
		conv2, "Convocatoria Emprendimiento 2025", "Convocatoria enfocada en startups", date(2025, 3, 1), date(2025, 10, 31), true, rubrica2, now, now,
	)
	if err != nil {
		return res, err
	}
	res.Convocatorias = []string{conv1, conv2}

	// proyectos
	aula := uuid.NewString()
	semillero := uuid.NewString()
	err = s.exec(ctx, tx, "inserting proyectos", `
INSERT INTO proyectos (id, titulo, resumen, convocatoria_id, tiempo_ejecucion, fecha_inicio, fecha_fin, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		aula, "Sistema de Energía Solar", "Proyecto sobre energía solar en comunidades rurales", conv1, 6, date(2025, 2, 1), date(2025, 8, 1), now, now,
		semillero, "App de Salud Mental", "Aplicación para brindar ayuda psicológica gratuita", conv2, 12, date(2025, 3, 15), date(2026, 3, 15), now, now,
	)
	if err != nil {
		return res, err
	}
	res.Projects = []string{aula, semillero}

	err = s.exec(ctx, tx, "linking estudiantes",
		`INSERT INTO proyecto_estudiantes (proyecto_id, estudiante_id) VALUES (?, ?), (?, ?), (?, ?)`,
		aula, est1.ID, aula, est2.ID, semillero, est1.ID,
	)
	if err != nil {
		return res, err
	}
	err = s.exec(ctx, tx, "inserting proyecto de aula", `
INSERT INTO proyectos_aula (id, proyecto_id, curso, docente_orientador, estado_formulacion, estado_ejecucion, estado_terminado)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), aula, "Ingeniería Ambiental", "Prof. Rodríguez", "Aprobado", "En curso", "No",
	)
	if err != nil {
		return res, err
	}
	err = s.exec(ctx, tx, "inserting proyecto de semillero", `
INSERT INTO proyectos_semillero (id, proyecto_id, nombre_semillero, sigla_semillero, director_semillero)
VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), semillero, "Semillero Psicología Digital", "SPD", "Dra. González",
	)
	if err != nil {
		return res, err
	}

	// evaluación of the aula project
	evaluacion := uuid.NewString()
	err = s.exec(ctx, tx, "inserting evaluacion", `
INSERT INTO evaluaciones (id, proyecto_id, rubrica_id, evaluador_id, puntaje_total, observaciones, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		evaluacion, aula, rubrica1, docente.ID, 18, "Buen trabajo, pero necesita más detalles técnicos.", now,
	)
	if err != nil {
		return res, err
	}
	err = s.exec(ctx, tx, "inserting evaluacion criterios",
		`INSERT INTO evaluacion_criterios (id, evaluacion_id, criterio_id, puntaje) VALUES (?, ?, ?, ?), (?, ?, ?, ?)`,
		uuid.NewString(), evaluacion, criterios1[0], 9,
		uuid.NewString(), evaluacion, criterios1[1], 9,
	)
	if err != nil {
		return res, err
	}

	if err = tx.Commit(); err != nil {
		return res, errors.Wrap(err, "committing seed")
	}
	return res, nil
}

func (s *Seeder) exec(ctx context.Context, exe core.DBExecutor, msg, query string, args ...interface{}) error {
	_, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	return errors.Wrap(err, msg)
}

func (s *Seeder) createUser(ctx context.Context, exe core.DBExecutor, fullname, email, pwd, role string) (user.User, error) {
	usr := user.User{
		Email:    email,
		Fullname: fullname,
		Roles:    []string{role},
		IsActive: true,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return user.User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := s.users.CreateUser(ctx, usr, exe)
	return usr, errors.Wrapf(err, "creating user %s", email)
}

func (s *Seeder) createRubrica(ctx context.Context, exe core.DBExecutor, nombre, descripcion string, criterios ...seedCriterio) (string, []string, error) {
	id := uuid.NewString()
	err := s.exec(ctx, exe, "inserting rubrica",
		`INSERT INTO rubricas (id, nombre, descripcion, created_at) VALUES (?, ?, ?, ?)`,
		id, nombre, descripcion, NowFunc().UTC(),
	)
	if err != nil {
		return "", nil, err
	}

	ids := make([]string, 0, len(criterios))
	for _, c := range criterios {
		critID := uuid.NewString()
		err = s.exec(ctx, exe, "inserting criterio",
			`INSERT INTO criterios (id, rubrica_id, nombre, descripcion, puntaje_min, puntaje_max) VALUES (?, ?, ?, ?, ?, ?)`,
			critID, id, c.nombre, c.descripcion, c.min, c.max,
		)
		if err != nil {
			return "", nil, err
		}
		ids = append(ids, critID)
	}
	return id, ids, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
