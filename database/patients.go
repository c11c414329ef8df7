package database

import (
	"strconv"
	"time"

	"github.com/Kellerman81/go_case_tables/table"
	"github.com/pkg/errors"
)

const (
	WorkflowExposure  = "exposure"
	WorkflowIsolation = "isolation"
	WorkflowClosed    = "closed"
)

// Patient is one monitoree
type Patient struct {
	ID                 int64      `db:"id" json:"id"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	FirstName          string     `db:"first_name" json:"first_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	StateLocalID       string     `db:"state_local_id" json:"state_local_id"`
	DateOfBirth        *time.Time `db:"date_of_birth" json:"date_of_birth"`
	Sex                string     `db:"sex" json:"sex"`
	Jurisdiction       string     `db:"jurisdiction" json:"jurisdiction"`
	AssignedUser       *int64     `db:"assigned_user" json:"assigned_user"`
	LastDateOfExposure *time.Time `db:"last_date_of_exposure" json:"last_date_of_exposure"`
	SymptomOnset       *time.Time `db:"symptom_onset" json:"symptom_onset"`
	Monitoring         bool       `db:"monitoring" json:"monitoring"`
	Isolation          bool       `db:"isolation" json:"isolation"`
	PublicHealthAction string     `db:"public_health_action" json:"public_health_action"`
	LatestReportAt     *time.Time `db:"latest_report_at" json:"latest_report_at"`
}

// Workflow derives the monitoring workflow from the monitoring and isolation flags.
func (p Patient) Workflow() string {
	switch {
	case !p.Monitoring:
		return WorkflowClosed
	case p.Isolation:
		return WorkflowIsolation
	}
	return WorkflowExposure
}

func (p Patient) Name() string {
	switch {
	case p.LastName == "":
		return p.FirstName
	case p.FirstName == "":
		return p.LastName
	}
	return p.LastName + ", " + p.FirstName
}

func (p Patient) RowID() string {
	return strconv.FormatInt(p.ID, 10)
}

func (p Patient) Field(key string) any {
	switch key {
	case "id":
		return p.ID
	case "name":
		return p.Name()
	case "first_name":
		return p.FirstName
	case "last_name":
		return p.LastName
	case "state_local_id":
		return p.StateLocalID
	case "date_of_birth":
		return p.DateOfBirth
	case "sex":
		return p.Sex
	case "jurisdiction":
		return p.Jurisdiction
	case "assigned_user":
		if p.AssignedUser == nil {
			return nil
		}
		return *p.AssignedUser
	case "last_date_of_exposure":
		return p.LastDateOfExposure
	case "symptom_onset":
		return p.SymptomOnset
	case "monitoring":
		return p.Monitoring
	case "isolation":
		return p.Isolation
	case "workflow":
		return p.Workflow()
	case "public_health_action":
		return p.PublicHealthAction
	case "latest_report_at":
		return p.LatestReportAt
	case "created_at":
		return p.CreatedAt
	}
	return nil
}

var patientColumns = "id,created_at,updated_at,first_name,last_name,state_local_id,date_of_birth,sex,jurisdiction,assigned_user,last_date_of_exposure,symptom_onset,monitoring,isolation,public_health_action,latest_report_at"

// PatientSpec backs the line list.
var PatientSpec = TableSpec{
	Table:   "patients",
	Columns: patientColumns,
	Sortable: map[string]string{
		"name":                  "last_name collate nocase, first_name collate nocase",
		"state_local_id":        "state_local_id",
		"date_of_birth":         "date_of_birth",
		"jurisdiction":          "jurisdiction",
		"assigned_user":         "assigned_user",
		"last_date_of_exposure": "last_date_of_exposure",
		"symptom_onset":         "symptom_onset",
		"public_health_action":  "public_health_action",
		"latest_report_at":      "latest_report_at",
		"created_at":            "created_at",
	},
	Search:       []string{"first_name", "last_name", "state_local_id", "jurisdiction"},
	DefaultOrder: "id asc",
	Filters: map[string]FilterFunc{
		"workflow": workflowFilter,
	},
}

func workflowFilter(value string) (string, []interface{}, error) {
	switch value {
	case WorkflowExposure:
		return "monitoring = 1 and isolation = 0", nil, nil
	case WorkflowIsolation:
		return "monitoring = 1 and isolation = 1", nil, nil
	case WorkflowClosed:
		return "monitoring = 0", nil, nil
	case "all":
		return "", nil, nil
	}
	return "", nil, errors.Wrapf(ErrInvalidFilter, "workflow %q", value)
}

// QueryPatients returns one page of the line list and the number of matching patients.
func QueryPatients(q table.Query) ([]Patient, int, error) {
	return queryPage[Patient](PatientSpec, q)
}

func GetPatient(id int64) (Patient, error) {
	return getStruct[Patient](patientColumns, "patients", Query{Where: "id = ?", WhereArgs: []interface{}{id}})
}

func InsertPatient(p *Patient) (int64, error) {
	stamp(&p.CreatedAt, &p.UpdatedAt)
	if p.PublicHealthAction == "" {
		p.PublicHealthAction = "None"
	}
	id, err := namedInsert(`insert into patients (created_at,updated_at,first_name,last_name,state_local_id,date_of_birth,sex,jurisdiction,assigned_user,last_date_of_exposure,symptom_onset,monitoring,isolation,public_health_action,latest_report_at)
values (:created_at,:updated_at,:first_name,:last_name,:state_local_id,:date_of_birth,:sex,:jurisdiction,:assigned_user,:last_date_of_exposure,:symptom_onset,:monitoring,:isolation,:public_health_action,:latest_report_at)`, p)
	if err == nil {
		p.ID = id
	}
	return id, err
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC().Truncate(time.Second)
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}
