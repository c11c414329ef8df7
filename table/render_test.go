package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maragu.dev/gomponents"
)

func render(t *testing.T, node gomponents.Node) string {
	t.Helper()
	var buf strings.Builder
	require.NoError(t, node.Render(&buf))
	return buf.String()
}

func TestRenderEmpty(t *testing.T) {
	tbl := New(Props[Row]{Columns: caseColumns(), Query: NewQuery(10)}, Config[Row]{SelectionSide: SelectLeft, Editable: true}, Handlers[Row]{})
	out := tbl.String()

	assert.Contains(t, out, `colspan="4"`)
	assert.Contains(t, out, EmptyText)
	assert.Contains(t, out, "Showing 0 to 0 of 0 entries")
	assert.NotContains(t, out, "pagination", "no pager without pages")
	assert.Contains(t, out, "disabled", "select all is disabled without rows")
}

func TestRenderHeader(t *testing.T) {
	cols := caseColumns()
	cols[1].Tooltip = "Monitoring state"
	q := NextSort(NewQuery(10), "name")
	tbl := New(Props[Row]{Columns: cols, Rows: []Row{{"id": 1, "name": "Smith", "status": false}}, TotalRows: 1, Query: q}, Config[Row]{}, Handlers[Row]{})
	out := tbl.String()

	assert.Contains(t, out, `aria-sort="ascending"`)
	assert.Contains(t, out, `data-sort-field="name"`)
	assert.Contains(t, out, "sort-icon sort-asc")
	assert.NotContains(t, out, `data-sort-field="status"`, "unsortable columns have no sort control")
	assert.Contains(t, out, `title="Monitoring state"`)
	assert.Contains(t, out, ">Closed</td>")
}

func TestRenderRowsAndSelection(t *testing.T) {
	rows := []Row{{"id": 7, "name": "A"}, {"id": 8, "name": "B"}}
	tbl := New(Props[Row]{
		Columns:   caseColumns(),
		Rows:      rows,
		TotalRows: 12,
		Query:     WithPage(NewQuery(2), 1),
		Selection: Selection{Rows: []int{1}},
	}, Config[Row]{SelectionSide: SelectRight, Editable: true, EditLabel: "Open"}, Handlers[Row]{})
	out := tbl.String()

	assert.Contains(t, out, `data-row-id="7"`)
	assert.Contains(t, out, `class="selected"`)
	assert.Contains(t, out, `aria-label="Select row 2"`)
	assert.Contains(t, out, `aria-label="Open row 1"`)
	assert.Contains(t, out, "Showing 3 to 4 of 12 entries")
	assert.Contains(t, out, `aria-current="page"`)
	assert.Contains(t, out, `data-page="2"`)
}

func TestRenderLoading(t *testing.T) {
	tbl := New(Props[Row]{Columns: caseColumns(), Rows: []Row{{"id": 1}}, TotalRows: 1, Loading: true}, Config[Row]{}, Handlers[Row]{})
	out := tbl.String()
	assert.Contains(t, out, "table-loading-overlay")
	assert.Contains(t, out, `aria-busy="true"`)
	assert.Contains(t, out, `data-row-id="1"`, "rows stay visible while loading")
}

func TestRenderHrefMode(t *testing.T) {
	href := func(q Query) string { return "/patients?" + q.Values().Encode() }
	tbl := New(Props[Row]{
		Columns:   caseColumns(),
		Rows:      []Row{{"id": 1}},
		TotalRows: 30,
		Query:     NewQuery(10),
	}, Config[Row]{Href: href}, Handlers[Row]{})
	out := tbl.String()

	assert.Contains(t, out, `class="sort-link" href="/patients?direction=asc&amp;entries=10&amp;order=name&amp;page=0"`)
	assert.Contains(t, out, `href="/patients?entries=10&amp;page=1"`)
	assert.Contains(t, out, `value="/patients?entries=50&amp;page=0"`)
	assert.NotContains(t, out, "data-page")
}

func TestRenderCaptionAndCheckboxLabel(t *testing.T) {
	tbl := New(Props[Row]{Columns: caseColumns(), Rows: []Row{{"id": 1, "name": "Smith"}}, TotalRows: 1}, Config[Row]{
		ID:            "cases",
		Caption:       "Cases",
		SelectionSide: SelectLeft,
		CheckboxLabel: func(row Row, _ int) string { return "Select " + FormatValue(row.Field("name")) },
	}, Handlers[Row]{})
	out := tbl.String()
	assert.Contains(t, out, `id="cases"`)
	assert.Contains(t, out, "<caption>Cases</caption>")
	assert.Contains(t, out, `aria-label="Select Smith"`)
	assert.Contains(t, out, `id="cases-entries"`)
}
