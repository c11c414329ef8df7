package database

import (
	"strconv"
	"time"

	"github.com/Kellerman81/go_case_tables/table"
)

type Laboratory struct {
	ID                 int64      `db:"id" json:"id"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	PatientID          int64      `db:"patient_id" json:"patient_id"`
	PatientName        string     `db:"patient_name" json:"patient_name"`
	LabType            string     `db:"lab_type" json:"lab_type"`
	SpecimenCollection *time.Time `db:"specimen_collection" json:"specimen_collection"`
	Report             *time.Time `db:"report" json:"report"`
	Result             string     `db:"result" json:"result"`
}

func (l Laboratory) RowID() string {
	return strconv.FormatInt(l.ID, 10)
}

func (l Laboratory) Field(key string) any {
	switch key {
	case "id":
		return l.ID
	case "patient_id":
		return l.PatientID
	case "patient_name":
		return l.PatientName
	case "lab_type":
		return l.LabType
	case "specimen_collection":
		return l.SpecimenCollection
	case "report":
		return l.Report
	case "result":
		return l.Result
	}
	return nil
}

// the patient name comes from the joined patients row
var LaboratorySpec = TableSpec{
	Table:     "laboratories",
	Columns:   "laboratories.id,laboratories.created_at,laboratories.updated_at,laboratories.patient_id,patients.last_name || ', ' || patients.first_name as patient_name,laboratories.lab_type,laboratories.specimen_collection,laboratories.report,laboratories.result",
	InnerJoin: "patients on patients.id = laboratories.patient_id",
	Sortable: map[string]string{
		"patient_name":        "patients.last_name collate nocase, patients.first_name collate nocase",
		"lab_type":            "laboratories.lab_type",
		"specimen_collection": "laboratories.specimen_collection",
		"report":              "laboratories.report",
		"result":              "laboratories.result",
	},
	Search:       []string{"laboratories.lab_type", "laboratories.result", "patients.last_name", "patients.first_name"},
	DefaultOrder: "laboratories.id asc",
	Filters: map[string]FilterFunc{
		"patient_id": idFilter("laboratories.patient_id"),
	},
}

func QueryLaboratories(q table.Query) ([]Laboratory, int, error) {
	return queryPage[Laboratory](LaboratorySpec, q)
}

func InsertLaboratory(l *Laboratory) (int64, error) {
	stamp(&l.CreatedAt, &l.UpdatedAt)
	id, err := namedInsert(`insert into laboratories (created_at,updated_at,patient_id,lab_type,specimen_collection,report,result)
values (:created_at,:updated_at,:patient_id,:lab_type,:specimen_collection,:report,:result)`, l)
	if err == nil {
		l.ID = id
	}
	return id, err
}
