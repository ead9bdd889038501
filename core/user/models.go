package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "DOCENTE"
	RoleStudent = "ESTUDIANTE"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

	// ReportRoles may read the reporting views. Only admins may export the PDF report.
	ReportRoles = []string{RoleAdmin, RoleTeacher}

	rolePriorities = map[string]int{
		RoleAdmin:   30,
		RoleTeacher: 20,
		RoleStudent: 10,
	}
)

func RolePriority(role string) int {
	return rolePriorities[strings.ToUpper(role)]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

// User is a platform account, as stored in the database.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Fullname     string    `json:"fullname" db:"fullname"`
	Roles        []string  `json:"roles" db:"-"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	PasswordHash []byte    `json:"-" db:"password"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// CurrentUser is the authenticated caller of a request.
type CurrentUser struct {
	ID    string
	Name  string
	Email string
	Roles []string
}

// HasRole reports whether the user holds `role` (case-insensitive).
func (u CurrentUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// IsAuthorized reports whether the user holds any of `roles`. No roles means any authenticated user.
func (u CurrentUser) IsAuthorized(roles ...string) bool {
	if len(roles) == 0 {
		return u.ID != ""
	}
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

func (u CurrentUser) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}
