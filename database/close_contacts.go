package database

import (
	"strconv"
	"time"

	"github.com/Kellerman81/go_case_tables/table"
	"github.com/pkg/errors"
)

type CloseContact struct {
	ID               int64     `db:"id" json:"id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
	PatientID        int64     `db:"patient_id" json:"patient_id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	PrimaryTelephone string    `db:"primary_telephone" json:"primary_telephone"`
	Email            string    `db:"email" json:"email"`
	ContactAttempts  int       `db:"contact_attempts" json:"contact_attempts"`
	Notes            string    `db:"notes" json:"notes"`
	EnrolledID       *int64    `db:"enrolled_id" json:"enrolled_id"`
}

func (c CloseContact) RowID() string {
	return strconv.FormatInt(c.ID, 10)
}

func (c CloseContact) Field(key string) any {
	switch key {
	case "id":
		return c.ID
	case "patient_id":
		return c.PatientID
	case "first_name":
		return c.FirstName
	case "last_name":
		return c.LastName
	case "primary_telephone":
		return c.PrimaryTelephone
	case "email":
		return c.Email
	case "contact_attempts":
		return c.ContactAttempts
	case "notes":
		return c.Notes
	case "enrolled":
		return c.EnrolledID != nil
	case "created_at":
		return c.CreatedAt
	}
	return nil
}

var closeContactColumns = "id,created_at,updated_at,patient_id,first_name,last_name,primary_telephone,email,contact_attempts,notes,enrolled_id"

var CloseContactSpec = TableSpec{
	Table:   "close_contacts",
	Columns: closeContactColumns,
	Sortable: map[string]string{
		"first_name":        "first_name collate nocase",
		"last_name":         "last_name collate nocase",
		"primary_telephone": "primary_telephone",
		"email":             "email collate nocase",
		"contact_attempts":  "contact_attempts",
		"created_at":        "created_at",
	},
	Search:       []string{"first_name", "last_name", "primary_telephone", "email"},
	DefaultOrder: "id asc",
	Filters: map[string]FilterFunc{
		"patient_id": idFilter("patient_id"),
	},
}

// idFilter matches column against a numeric id.
func idFilter(column string) FilterFunc {
	return func(value string) (string, []interface{}, error) {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return "", nil, errors.Wrapf(ErrInvalidFilter, "%s %q", column, value)
		}
		return column + " = ?", []interface{}{id}, nil
	}
}

func QueryCloseContacts(q table.Query) ([]CloseContact, int, error) {
	return queryPage[CloseContact](CloseContactSpec, q)
}

func InsertCloseContact(c *CloseContact) (int64, error) {
	stamp(&c.CreatedAt, &c.UpdatedAt)
	id, err := namedInsert(`insert into close_contacts (created_at,updated_at,patient_id,first_name,last_name,primary_telephone,email,contact_attempts,notes,enrolled_id)
values (:created_at,:updated_at,:patient_id,:first_name,:last_name,:primary_telephone,:email,:contact_attempts,:notes,:enrolled_id)`, c)
	if err == nil {
		c.ID = id
	}
	return id, err
}
