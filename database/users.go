package database

import (
	"strconv"
	"time"

	"github.com/Kellerman81/go_case_tables/table"
	"github.com/pkg/errors"
)

// User is an account shown in the admin table.
type User struct {
	ID           int64      `db:"id" json:"id"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	Email        string     `db:"email" json:"email"`
	Jurisdiction string     `db:"jurisdiction" json:"jurisdiction"`
	Role         string     `db:"role" json:"role"`
	APIEnabled   bool       `db:"api_enabled" json:"api_enabled"`
	Locked       bool       `db:"locked" json:"locked"`
	FailedLogins int        `db:"failed_logins" json:"failed_logins"`
	LastSignInAt *time.Time `db:"last_sign_in_at" json:"last_sign_in_at"`
}

var UserRoles = []string{"super_user", "admin", "enroller", "public_health", "public_health_enroller", "analyst"}

func (u User) RowID() string {
	return strconv.FormatInt(u.ID, 10)
}

func (u User) Field(key string) any {
	switch key {
	case "id":
		return u.ID
	case "email":
		return u.Email
	case "jurisdiction":
		return u.Jurisdiction
	case "role":
		return u.Role
	case "api_enabled":
		return u.APIEnabled
	case "locked":
		return u.Locked
	case "failed_logins":
		return u.FailedLogins
	case "last_sign_in_at":
		return u.LastSignInAt
	case "created_at":
		return u.CreatedAt
	}
	return nil
}

var userColumns = "id,created_at,updated_at,email,jurisdiction,role,api_enabled,locked,failed_logins,last_sign_in_at"

var UserSpec = TableSpec{
	Table:   "users",
	Columns: userColumns,
	Sortable: map[string]string{
		"id":              "id",
		"email":           "email collate nocase",
		"jurisdiction":    "jurisdiction collate nocase",
		"role":            "role",
		"api_enabled":     "api_enabled",
		"locked":          "locked",
		"failed_logins":   "failed_logins",
		"last_sign_in_at": "last_sign_in_at",
	},
	Search:       []string{"email", "jurisdiction"},
	DefaultOrder: "id asc",
	Filters: map[string]FilterFunc{
		"role":   roleFilter,
		"locked": boolFilter("locked"),
	},
}

func roleFilter(value string) (string, []interface{}, error) {
	for _, role := range UserRoles {
		if role == value {
			return "role = ?", []interface{}{value}, nil
		}
	}
	return "", nil, errors.Wrapf(ErrInvalidFilter, "role %q", value)
}

func boolFilter(column string) FilterFunc {
	return func(value string) (string, []interface{}, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", nil, errors.Wrapf(ErrInvalidFilter, "%s %q", column, value)
		}
		return column + " = ?", []interface{}{b}, nil
	}
}

func QueryUsers(q table.Query) ([]User, int, error) {
	return queryPage[User](UserSpec, q)
}

func GetUser(id int64) (User, error) {
	return getStruct[User](userColumns, "users", Query{Where: "id = ?", WhereArgs: []interface{}{id}})
}

func InsertUser(u *User) (int64, error) {
	stamp(&u.CreatedAt, &u.UpdatedAt)
	if u.Role == "" {
		u.Role = "enroller"
	}
	id, err := namedInsert(`insert into users (created_at,updated_at,email,jurisdiction,role,api_enabled,locked,failed_logins,last_sign_in_at)
values (:created_at,:updated_at,:email,:jurisdiction,:role,:api_enabled,:locked,:failed_logins,:last_sign_in_at)`, u)
	if err == nil {
		u.ID = id
	}
	return id, err
}
