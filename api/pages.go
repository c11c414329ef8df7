package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Kellerman81/go_case_tables/database"
	"github.com/Kellerman81/go_case_tables/logger"
	"github.com/Kellerman81/go_case_tables/table"
	"github.com/gin-gonic/gin"
	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

const (
	tablePatients = "patients"
	tableUsers    = "users"
)

// pageSpecs are the tables whose settings are remembered.
var pageSpecs = map[string]database.TableSpec{
	tablePatients: database.PatientSpec,
	tableUsers:    database.UserSpec,
}

var boolOptions = map[string]string{"true": "Yes", "false": "No"}

var patientColumns = []table.Column[database.Patient]{
	{Field: "name", Label: "Monitoree", Sortable: true},
	{Field: "state_local_id", Label: "State/Local ID", Sortable: true},
	{Field: "jurisdiction", Label: "Jurisdiction", Sortable: true},
	{Field: "date_of_birth", Label: "Date of Birth", Sortable: true},
	{Field: "workflow", Label: "Workflow", Options: map[string]string{
		database.WorkflowExposure:  "Exposure",
		database.WorkflowIsolation: "Isolation",
		database.WorkflowClosed:    "Closed",
	}},
	{Field: "last_date_of_exposure", Label: "Last Date of Exposure", Sortable: true},
	{Field: "symptom_onset", Label: "Symptom Onset", Sortable: true, Filter: symptomOnsetCell,
		Tooltip: "Date of the first reported symptom"},
	{Field: "public_health_action", Label: "Latest Public Health Action", Sortable: true},
	{Field: "latest_report_at", Label: "Latest Report", Sortable: true},
}

func symptomOnsetCell(p database.Patient) gomponents.Node {
	if p.SymptomOnset == nil {
		return html.Span(html.Class("text-muted"), gomponents.Text("None"))
	}
	return html.Time(
		gomponents.Attr("datetime", p.SymptomOnset.Format(time.RFC3339)),
		gomponents.Text(table.FormatValue(p.SymptomOnset)),
	)
}

var userColumns = []table.Column[database.User]{
	{Field: "id", Label: "ID", Sortable: true},
	{Field: "email", Label: "Email", Sortable: true},
	{Field: "jurisdiction", Label: "Jurisdiction", Sortable: true},
	{Field: "role", Label: "Role", Sortable: true, Options: map[string]string{
		"super_user":             "Super User",
		"admin":                  "Admin",
		"enroller":               "Enroller",
		"public_health":          "Public Health",
		"public_health_enroller": "Public Health Enroller",
		"analyst":                "Analyst",
	}},
	{Field: "api_enabled", Label: "API Enabled", Sortable: true, Options: boolOptions},
	{Field: "locked", Label: "Locked", Sortable: true, Options: boolOptions},
	{Field: "failed_logins", Label: "Failed Logins", Sortable: true},
	{Field: "last_sign_in_at", Label: "Last Sign In", Sortable: true},
}

var workflowTabs = []struct {
	value, label string
}{
	{"", "All"},
	{database.WorkflowExposure, "Exposure"},
	{database.WorkflowIsolation, "Isolation"},
	{database.WorkflowClosed, "Closed"},
}

// pageURL builds the link of a page for q, keeping the apikey.
func pageURL(path string, q table.Query) string {
	v := q.Values()
	if key := cfgMain.General.WebAPIKey; key != "" {
		v.Set("apikey", key)
	}
	return strings.TrimSuffix(basePath(), "/") + path + "?" + v.Encode()
}

// pageQuery resolves the query of a page. Explicit parameters win, explicit
// is true then. Without them the saved settings of the user apply, and then
// the configured table defaults.
func pageQuery(ctx *gin.Context, tableID string, spec database.TableSpec) (q table.Query, explicit bool, err error) {
	tcfg := cfgMain.Table(tableID)
	params := ctx.Request.URL.Query()
	if table.HasQueryParams(params) {
		q, err = table.ParseQuery(params, tcfg.DefaultEntries, spec.FilterKeys()...)
		return q.LimitEntries(maxEntries()), true, err
	}

	q = table.NewQuery(tcfg.DefaultEntries)
	q.OrderBy = tcfg.DefaultOrder
	q.SortDirection = tcfg.DefaultDirection
	for _, key := range spec.FilterKeys() {
		q = q.WithFilter(key, params.Get(key))
	}
	q = q.Normalize(tcfg.DefaultEntries).LimitEntries(maxEntries())
	if settingsStore == nil {
		return q, false, nil
	}
	saved, err := settingsStore.Apply(settingsUser(ctx), tableID, q)
	if err != nil {
		logger.Log.Warnln("Load settings failed:", err)
		return q, false, nil
	}
	saved = saved.Normalize(tcfg.DefaultEntries).LimitEntries(maxEntries())
	if _, err := database.PageQuery(spec, saved); err != nil {
		logger.Log.Warnln("Ignoring saved settings of", tableID, "for", settingsUser(ctx), "error:", err)
		return q, false, nil
	}
	return saved, false, nil
}

// rememberQuery saves page size and sort once a page rendered with them.
func rememberQuery(ctx *gin.Context, tableID string, q table.Query) {
	if settingsStore == nil {
		return
	}
	if err := settingsStore.Save(settingsUser(ctx), tableID, q); err != nil {
		logger.Log.Warnln("Save settings failed:", err)
	}
}

func entryOptions() []int {
	if len(cfgMain.General.EntriesOptions) != 0 {
		return cfgMain.General.EntriesOptions
	}
	return table.DefaultEntryOptions
}

func pageStyle() gomponents.Node {
	return html.StyleEl(gomponents.Raw(`
		.table-wrapper { position: relative; }
		.table-loading-overlay { position: absolute; inset: 0; display: flex; align-items: center; justify-content: center; background: rgba(255,255,255,.6); }
		.sort-icon::after { content: "\2195"; opacity: .3; margin-left: .25rem; }
		.sort-asc::after { content: "\2191"; opacity: 1; }
		.sort-desc::after { content: "\2193"; opacity: 1; }
		.table-tooltip { cursor: help; margin-left: .25rem; }
		tr.selected td { background: #e8f0fe; }
	`))
}

func page(title string, content ...gomponents.Node) gomponents.Node {
	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
				html.Title(title),
				html.Link(html.Href("https://cdn.jsdelivr.net/npm/bootstrap@5.1.3/dist/css/bootstrap.min.css"), html.Rel("stylesheet")),
				pageStyle(),
			),
			html.Body(
				html.Main(html.Class("container-fluid py-3"),
					html.H1(html.Class("h3 mb-3"), gomponents.Text(title)),
					gomponents.Group(content),
				),
			),
		),
	)
}

func renderPage(ctx *gin.Context, status int, node gomponents.Node) {
	var buf strings.Builder
	if err := node.Render(&buf); err != nil {
		logger.Log.Errorln("Render page failed:", err)
		ctx.String(http.StatusInternalServerError, "render failed")
		return
	}
	ctx.Header("Content-Type", "text/html; charset=utf-8")
	ctx.String(status, buf.String())
}

func pageError(ctx *gin.Context, title string, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	if isClientError(err) {
		status = http.StatusBadRequest
		msg = err.Error()
	} else {
		logger.Log.Errorln(title, "failed:", err)
	}
	renderPage(ctx, status, page(title, html.Div(html.Class("alert alert-danger"), html.Role("alert"), gomponents.Text(msg))))
}

// searchForm submits the search text as a new query on the first page.
func searchForm(path string, q table.Query) gomponents.Node {
	hidden := url.Values{}
	hidden.Set("entries", table.FormatValue(q.Entries))
	if q.OrderBy != "" {
		hidden.Set("order", q.OrderBy)
		hidden.Set("direction", q.SortDirection)
	}
	for key, value := range q.Filters {
		hidden.Set(key, value)
	}
	if key := cfgMain.General.WebAPIKey; key != "" {
		hidden.Set("apikey", key)
	}
	inputs := make([]gomponents.Node, 0, len(hidden)+2)
	for key := range hidden {
		inputs = append(inputs, html.Input(html.Type("hidden"), html.Name(key), html.Value(hidden.Get(key))))
	}
	return html.Form(
		html.Method("get"),
		html.Action(strings.TrimSuffix(basePath(), "/")+path),
		html.Class("d-flex mb-3 table-search"),
		html.Role("search"),
		html.Data("search-debounce", strconv.FormatInt(searchDebounce().Milliseconds(), 10)),
		gomponents.Group(inputs),
		html.Label(html.For("search"), html.Class("visually-hidden"), gomponents.Text("Search")),
		html.Input(html.Type("search"), html.ID("search"), html.Name("search"), html.Class("form-control form-control-sm"),
			html.Placeholder("Search"), html.Value(q.Search), gomponents.If(q.Search != "", html.AutoFocus())),
		html.Button(html.Type("submit"), html.Class("btn btn-sm btn-primary ms-2"), gomponents.Text("Search")),
		searchScript(),
	)
}

func searchDebounce() time.Duration {
	if d := cfgMain.General.SearchDebounce(); d > 0 {
		return d
	}
	return table.DefaultSearchDebounce
}

// searchScript submits the search form once typing pauses for data-search-debounce ms.
func searchScript() gomponents.Node {
	return html.Script(gomponents.Raw(`
		(function () {
			var form = document.currentScript.closest('form');
			var input = form.querySelector('input[name=search]');
			var wait = parseInt(form.dataset.searchDebounce, 10);
			var timer;
			input.addEventListener('input', function () {
				clearTimeout(timer);
				timer = setTimeout(function () { form.submit(); }, wait);
			});
		})();
	`))
}

func workflowNav(q table.Query) gomponents.Node {
	current := q.Filter("workflow")
	items := make([]gomponents.Node, 0, len(workflowTabs))
	for _, tab := range workflowTabs {
		active := tab.value == current
		class := "nav-link"
		if active {
			class += " active"
		}
		items = append(items, html.Li(html.Class("nav-item"), html.A(
			html.Class(class),
			html.Href(pageURL("/patients", q.WithFilter("workflow", tab.value))),
			gomponents.If(active, html.Aria("current", "page")),
			gomponents.Text(tab.label),
		)))
	}
	return html.Ul(html.Class("nav nav-tabs mb-3"), gomponents.Group(items))
}

// @Summary      Patient line list
// @Param        apikey query     string    true  "apikey"
// @Success      200    {string}  string  "HTML content"
// @Router       /patients [get]
func patientsPage(ctx *gin.Context) {
	const title = "Monitorees"
	q, explicit, err := pageQuery(ctx, tablePatients, database.PatientSpec)
	if err != nil {
		pageError(ctx, title, err)
		return
	}
	rows, total, err := database.QueryPatients(q)
	if err != nil {
		pageError(ctx, title, err)
		return
	}
	if explicit {
		rememberQuery(ctx, tablePatients, q)
	}
	t := table.New(table.Props[database.Patient]{
		Columns:   patientColumns,
		Rows:      rows,
		TotalRows: total,
		Query:     q,
		Selection: table.Selection{},
	}, table.Config[database.Patient]{
		ID:            "linelist",
		Caption:       cfgMain.Table(tablePatients).Caption,
		SelectionSide: table.SelectLeft,
		CheckboxLabel: func(p database.Patient, _ int) string { return "Select " + p.Name() },
		EntryOptions:  entryOptions(),
		Href:          func(next table.Query) string { return pageURL("/patients", next) },
	}, table.Handlers[database.Patient]{})
	renderPage(ctx, http.StatusOK, page(title, workflowNav(q), searchForm("/patients", q), t.Render()))
}

// @Summary      User administration
// @Param        apikey query     string    true  "apikey"
// @Success      200    {string}  string  "HTML content"
// @Router       /admin/users [get]
func usersPage(ctx *gin.Context) {
	const title = "Users"
	q, explicit, err := pageQuery(ctx, tableUsers, database.UserSpec)
	if err != nil {
		pageError(ctx, title, err)
		return
	}
	rows, total, err := database.QueryUsers(q)
	if err != nil {
		pageError(ctx, title, err)
		return
	}
	if explicit {
		rememberQuery(ctx, tableUsers, q)
	}
	t := table.New(table.Props[database.User]{
		Columns:   userColumns,
		Rows:      rows,
		TotalRows: total,
		Query:     q,
	}, table.Config[database.User]{
		ID:            "user-table",
		Caption:       cfgMain.Table(tableUsers).Caption,
		SelectionSide: table.SelectRight,
		CheckboxLabel: func(u database.User, _ int) string { return "Select " + u.Email },
		Editable:      true,
		EditLabel:     "Edit",
		EntryOptions:  entryOptions(),
		Href:          func(next table.Query) string { return pageURL("/admin/users", next) },
	}, table.Handlers[database.User]{})
	renderPage(ctx, http.StatusOK, page(title, searchForm("/admin/users", q), t.Render()))
}
