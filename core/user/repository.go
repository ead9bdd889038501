package user

import (
	"context"
	"errors"

	"github.com/trezcool/convocatorias/core"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

// Repository persists platform accounts. An optional executor runs the query inside a transaction.
type Repository interface {
	CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
	UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	UpdateOrCreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
}
