package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/user"
)

const (
	userColumns = `id, email, fullname, password, roles, is_active, created_at, updated_at`

	insertUserQuery = `
INSERT INTO users (` + userColumns + `)
VALUES (:id, :email, :fullname, :password, :roles, :is_active, :created_at, :updated_at)`

	updateUserQuery = `
UPDATE users
SET email = :email, fullname = :fullname, password = :password, roles = :roles, is_active = :is_active, updated_at = :updated_at
WHERE id = :id`

	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
)

// dbUser is the users row. Roles are a TEXT[] on Postgres.
type dbUser struct {
	ID        string         `db:"id"`
	Email     string         `db:"email"`
	Fullname  string         `db:"fullname"`
	Password  string         `db:"password"`
	Roles     pq.StringArray `db:"roles"`
	IsActive  bool           `db:"is_active"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

// NowFunc stamps created_at/updated_at.
var NowFunc = time.Now // mockable

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo userRepository) toRow(usr user.User) dbUser {
	roles := make(pq.StringArray, 0, len(usr.Roles))
	for _, role := range usr.Roles {
		roles = append(roles, strings.ToUpper(role))
	}
	return dbUser{
		ID:        usr.ID,
		Email:     core.CleanString(usr.Email, true /* lower */),
		Fullname:  core.CleanString(usr.Fullname),
		Password:  string(usr.PasswordHash), // bcrypt hashes are ASCII
		Roles:     roles,
		IsActive:  usr.IsActive,
		CreatedAt: usr.CreatedAt.UTC(),
		UpdatedAt: usr.UpdatedAt.UTC(),
	}
}

func (repo userRepository) fromRow(row dbUser) user.User {
	return user.User{
		ID:           row.ID,
		Email:        row.Email,
		Fullname:     row.Fullname,
		Roles:        []string(row.Roles),
		IsActive:     row.IsActive,
		PasswordHash: []byte(row.Password),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

// trapNoRowsErr maps the "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	exe := repo.getExec(exec)
	if _, err := repo.GetUserByEmail(ctx, usr.Email, exe); err == nil {
		return user.User{}, user.ErrEmailExists
	} else if err != user.ErrNotFound {
		return user.User{}, errors.Wrap(err, "checking email uniqueness")
	}

	usr.ID = uuid.NewString()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = NowFunc()
	}
	usr.UpdatedAt = usr.CreatedAt

	row := repo.toRow(usr)
	if _, err := sqlx.NamedExecContext(ctx, exe, insertUserQuery, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	exe := repo.getExec(exec)
	var row dbUser
	err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(getUserByEmailQuery), core.CleanString(email, true /* lower */))
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by email")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.UpdatedAt = NowFunc()
	row := repo.toRow(usr)
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), updateUserQuery, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}
