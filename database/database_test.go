package database

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kellerman81/go_case_tables/table"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDb(filepath.Join(t.TempDir(), "data.db"), "debug"))
	t.Cleanup(func() { Close() })
	require.NoError(t, UpgradeDB())
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// seedPatients adds 30 patients: 10 exposure, 10 isolation, 10 closed
func seedPatients(t *testing.T) {
	t.Helper()
	for i := 0; i < 30; i++ {
		p := &Patient{
			FirstName:   fmt.Sprintf("First%02d", i),
			LastName:    fmt.Sprintf("Last%02d", 29-i),
			DateOfBirth: date(1980, time.January, 1+i),
			Monitoring:  i < 20,
			Isolation:   i >= 10 && i < 20,
		}
		_, err := InsertPatient(p)
		require.NoError(t, err)
	}
}

func TestUpgradeDB(t *testing.T) {
	openTestDB(t)
	assert.Equal(t, "1", DBVersion)
	require.NoError(t, UpgradeDB(), "running twice is a no-op")

	str, err := DbQuickCheck()
	require.NoError(t, err)
	assert.Equal(t, "ok", str)
}

func TestPageQuery(t *testing.T) {
	q := table.Query{Entries: 10, OrderBy: "name", SortDirection: table.SortDesc, Search: "50%_off"}.WithFilter("workflow", WorkflowIsolation)
	q.Page = 2
	qu, err := PageQuery(PatientSpec, q)
	require.NoError(t, err)

	assert.Equal(t, "last_name collate nocase desc, first_name collate nocase desc, patients.id desc", qu.OrderBy)
	assert.Equal(t, uint64(10), qu.Limit)
	assert.Equal(t, uint64(20), qu.Offset)
	assert.Contains(t, qu.Where, "monitoring = 1 and isolation = 1 and (first_name like ?")
	require.Len(t, qu.WhereArgs, len(PatientSpec.Search))
	assert.Equal(t, `%50\%\_off%`, qu.WhereArgs[0])
}

func TestPageQueryRejectsUnknownSort(t *testing.T) {
	_, err := PageQuery(PatientSpec, table.Query{Entries: 10, OrderBy: "id; drop table patients"})
	assert.True(t, errors.Is(err, ErrInvalidSort))

	_, err = PageQuery(PatientSpec, table.Query{Entries: 10}.WithFilter("workflow", "bogus"))
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	_, err = PageQuery(PatientSpec, table.Query{Entries: 2, Page: math.MaxInt / 2})
	assert.True(t, errors.Is(err, table.ErrInvalidQuery), "offset overflow")
}

func TestPageQueryDefaultOrder(t *testing.T) {
	qu, err := PageQuery(UserSpec, table.NewQuery(25))
	require.NoError(t, err)
	assert.Equal(t, "id asc", qu.OrderBy)
	assert.Empty(t, qu.Where)
	assert.Equal(t, uint64(0), qu.Offset)
}

func TestNormalizeSearch(t *testing.T) {
	assert.Equal(t, "Smith John", NormalizeSearch("  Smith \t John "))
	assert.Equal(t, "A", NormalizeSearch("Ａ"))
}

func TestBuildquery(t *testing.T) {
	assert.Equal(t, "select id from users where id = ? order by id asc limit 20, 10",
		buildquery("id", "users", Query{Where: "id = ?", OrderBy: "id asc", Limit: 10, Offset: 20}, false))
	assert.Equal(t, "select count(*) from laboratories inner join patients on patients.id = laboratories.patient_id",
		buildquery("count(*)", "laboratories", Query{InnerJoin: "patients on patients.id = laboratories.patient_id", OrderBy: "x"}, true))
}

func TestQueryPatientsPaging(t *testing.T) {
	openTestDB(t)
	seedPatients(t)

	rows, total, err := QueryPatients(table.Query{Page: 1, Entries: 10, OrderBy: "name", SortDirection: table.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, 30, total)
	require.Len(t, rows, 10)
	assert.Equal(t, "Last10, First19", rows[0].Name())
	assert.Equal(t, "Last10, First19", rows[0].Field("name"))

	rows, total, err = QueryPatients(table.Query{Page: 2, Entries: 25})
	require.NoError(t, err)
	assert.Equal(t, 30, total)
	assert.Empty(t, rows, "page past the end")
}

func TestQueryPatientsWorkflowAndSearch(t *testing.T) {
	openTestDB(t)
	seedPatients(t)

	for workflow, want := range map[string]int{WorkflowExposure: 10, WorkflowIsolation: 10, WorkflowClosed: 10, "all": 30} {
		rows, total, err := QueryPatients(table.NewQuery(25).WithFilter("workflow", workflow))
		require.NoError(t, err)
		assert.Equal(t, want, total, workflow)
		for _, row := range rows {
			if workflow != "all" {
				assert.Equal(t, workflow, row.Workflow())
			}
		}
	}

	rows, total, err := QueryPatients(table.WithSearch(table.NewQuery(25), "first05"))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "First05", rows[0].FirstName)
	require.NotNil(t, rows[0].DateOfBirth)
	assert.True(t, rows[0].DateOfBirth.Equal(*date(1980, time.January, 6)))
}

func TestQueryCloseContacts(t *testing.T) {
	openTestDB(t)
	p := &Patient{FirstName: "Anna", LastName: "Smith", Monitoring: true}
	_, err := InsertPatient(p)
	require.NoError(t, err)
	other := &Patient{FirstName: "Bob", LastName: "Jones", Monitoring: true}
	_, err = InsertPatient(other)
	require.NoError(t, err)

	for i, name := range []string{"Carl", "anna", "Bert"} {
		_, err := InsertCloseContact(&CloseContact{PatientID: p.ID, FirstName: name, ContactAttempts: i})
		require.NoError(t, err)
	}
	_, err = InsertCloseContact(&CloseContact{PatientID: other.ID, FirstName: "Zed"})
	require.NoError(t, err)

	q := table.NextSort(table.NewQuery(10), "first_name").WithFilter("patient_id", fmt.Sprint(p.ID))
	rows, total, err := QueryCloseContacts(q)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"anna", "Bert", "Carl"}, []string{rows[0].FirstName, rows[1].FirstName, rows[2].FirstName})

	_, _, err = QueryCloseContacts(table.NewQuery(10).WithFilter("patient_id", "abc"))
	assert.True(t, errors.Is(err, ErrInvalidFilter))
}

func TestQueryLaboratoriesJoin(t *testing.T) {
	openTestDB(t)
	a := &Patient{FirstName: "Anna", LastName: "Smith", Monitoring: true}
	b := &Patient{FirstName: "Bob", LastName: "Adams", Monitoring: true}
	for _, p := range []*Patient{a, b} {
		_, err := InsertPatient(p)
		require.NoError(t, err)
	}
	_, err := InsertLaboratory(&Laboratory{PatientID: a.ID, LabType: "PCR", Result: "positive", Report: date(2020, time.May, 2)})
	require.NoError(t, err)
	_, err = InsertLaboratory(&Laboratory{PatientID: b.ID, LabType: "Antigen", Result: "negative"})
	require.NoError(t, err)

	rows, total, err := QueryLaboratories(table.NextSort(table.NewQuery(10), "patient_name"))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Adams, Bob", rows[0].PatientName)
	assert.Nil(t, rows[0].Report)
	assert.Equal(t, "Smith, Anna", rows[1].PatientName)
	require.NotNil(t, rows[1].Report)

	rows, total, err = QueryLaboratories(table.WithSearch(table.NewQuery(10), "smith"))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "PCR", rows[0].LabType)
}

func TestQueryUsers(t *testing.T) {
	openTestDB(t)
	for i, role := range []string{"admin", "enroller", "enroller"} {
		_, err := InsertUser(&User{Email: fmt.Sprintf("user%d@example.com", i), Role: role, Locked: i == 2})
		require.NoError(t, err)
	}

	_, total, err := QueryUsers(table.NewQuery(10).WithFilter("role", "enroller"))
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	rows, total, err := QueryUsers(table.NewQuery(10).WithFilter("locked", "true"))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "user2@example.com", rows[0].Email)

	_, _, err = QueryUsers(table.NewQuery(10).WithFilter("role", "root"))
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	u, err := GetUser(rows[0].ID)
	require.NoError(t, err)
	assert.True(t, u.Locked)
	_, err = GetUser(999)
	assert.True(t, errors.Is(err, ErrNoResult))
}

func TestDeleteRow(t *testing.T) {
	openTestDB(t)
	_, err := InsertUser(&User{Email: "gone@example.com"})
	require.NoError(t, err)
	_, err = DeleteRow("users", Query{Where: "email = ?", WhereArgs: []interface{}{"gone@example.com"}})
	require.NoError(t, err)
	count, err := CountRows("users", Query{})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBackupKeepsNewest(t *testing.T) {
	openTestDB(t)
	dir := filepath.Join(t.TempDir(), "backup")
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, Backup(filepath.Join(dir, BackupName(base.Add(time.Duration(i)*time.Hour))), 2))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	names := []string{entries[0].Name(), entries[1].Name()}
	assert.Contains(t, names, "data.db.20240301_140000")
	assert.Contains(t, names, "data.db.20240301_130000")
}
