package api

import (
	"net/http"
	"strconv"

	"github.com/Kellerman81/go_case_tables/config"
	"github.com/Kellerman81/go_case_tables/database"
	"github.com/Kellerman81/go_case_tables/logger"
	"github.com/Kellerman81/go_case_tables/scheduler"
	"github.com/Kellerman81/go_case_tables/table"
	"github.com/Kellerman81/go_case_tables/tasks"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

var cfgMain config.MainConfig
var settingsStore *config.SettingsStore

// Row keys of the table endpoints.
const (
	RowKeyPatients      = "linelist"
	RowKeyCloseContacts = "close_contacts"
	RowKeyLaboratories  = "laboratories"
	RowKeyUsers         = "user_rows"
)

// AddRoutes registers the api and the pages below the configured base path.
// settings may be nil, then nothing is remembered between page loads.
func AddRoutes(r *gin.Engine, cfg config.MainConfig, settings *config.SettingsStore) {
	cfgMain = cfg
	settingsStore = settings

	base := r.Group(basePath())
	routerapi := base.Group("/api", ApiAuth, requireCSRF)
	{
		addTableRoute(routerapi, "/patients", tableHandler(RowKeyPatients, database.PatientSpec, database.QueryPatients))
		addTableRoute(routerapi, "/close_contacts", tableHandler(RowKeyCloseContacts, database.CloseContactSpec, database.QueryCloseContacts))
		addTableRoute(routerapi, "/laboratories", tableHandler(RowKeyLaboratories, database.LaboratorySpec, database.QueryLaboratories))
		addTableRoute(routerapi, "/admin/users", tableHandler(RowKeyUsers, database.UserSpec, database.QueryUsers))
		routerapi.GET("/admin/users/:id", apiGetUser)
		routerapi.POST("/admin/backup", apiBackup)
		routerapi.GET("/admin/queue", apiQueue)
		routerapi.POST("/settings/:table", apiSaveSettings)
	}

	routerpages := base.Group("/", ApiAuth)
	{
		routerpages.GET("/patients", patientsPage)
		routerpages.GET("/admin/users", usersPage)
	}
}

func basePath() string {
	path := cfgMain.General.BasePath
	if path == "" || path == "/" {
		return "/"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	return path
}

func addTableRoute(group *gin.RouterGroup, path string, handler gin.HandlerFunc) {
	group.GET(path, handler)
	group.POST(path, handler)
}

func defaultEntries() int {
	if cfgMain.General.DefaultEntries > 0 {
		return cfgMain.General.DefaultEntries
	}
	return table.DefaultEntries
}

// maxEntries is the largest page size offered in the entries selector.
func maxEntries() int {
	max := 0
	for _, entries := range entryOptions() {
		if entries > max {
			max = entries
		}
	}
	return max
}

// bindTableQuery reads the table query from the url (GET) or the json body (POST).
// The page size is capped at maxEntries.
func bindTableQuery(ctx *gin.Context, filterKeys []string) (table.Query, error) {
	if ctx.Request.Method != http.MethodPost {
		q, err := table.ParseQuery(ctx.Request.URL.Query(), defaultEntries(), filterKeys...)
		return q.LimitEntries(maxEntries()), err
	}
	var body table.Query
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return table.Query{}, errors.Wrap(table.ErrInvalidQuery, err.Error())
	}
	return checkBodyQuery(body, filterKeys)
}

// checkBodyQuery validates a json query and keeps only the allowed filters.
func checkBodyQuery(body table.Query, filterKeys []string) (table.Query, error) {
	if body.Page < 0 {
		return table.Query{}, errors.Wrapf(table.ErrInvalidQuery, "page %d", body.Page)
	}
	if body.Entries < 0 {
		return table.Query{}, errors.Wrapf(table.ErrInvalidQuery, "entries %d", body.Entries)
	}
	q := body
	q.Filters = nil
	for _, key := range filterKeys {
		if value := body.Filter(key); value != "" {
			if q.Filters == nil {
				q.Filters = make(map[string]string, len(filterKeys))
			}
			q.Filters[key] = value
		}
	}
	q = q.Normalize(defaultEntries())
	if err := q.CheckBounds(); err != nil {
		return table.Query{}, err
	}
	return q.LimitEntries(maxEntries()), nil
}

func isClientError(err error) bool {
	return errors.Is(err, table.ErrInvalidQuery) || errors.Is(err, database.ErrInvalidSort) || errors.Is(err, database.ErrInvalidFilter)
}

// tableHandler answers {<rowKey>: [...], "total": n} for one page of spec.
func tableHandler[R table.Record](rowKey string, spec database.TableSpec, query func(table.Query) ([]R, int, error)) gin.HandlerFunc {
	filterKeys := spec.FilterKeys()
	return func(ctx *gin.Context) {
		q, err := bindTableQuery(ctx, filterKeys)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rows, total, err := query(q)
		if err != nil {
			if isClientError(err) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logger.Log.Errorln("Query", spec.Table, "failed:", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{rowKey: rows, "total": total})
	}
}

// @Summary Get a user
// @Param apikey query string true "apikey"
// @Success 200 {object} database.User
// @Failure 404 {object} string
// @Router /api/admin/users/{id} [get]
func apiGetUser(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	user, err := database.GetUser(id)
	if errors.Is(err, database.ErrNoResult) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// @Summary Backup the database now
// @Param apikey query string true "apikey"
// @Success 202 {object} string
// @Failure 503 {object} string
// @Router /api/admin/backup [post]
func apiBackup(ctx *gin.Context) {
	if scheduler.QueueData == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}
	if err := scheduler.BackupNow(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tasks.ErrQueueFull) || errors.Is(err, tasks.ErrNotActive) {
			status = http.StatusServiceUnavailable
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"data": "queued"})
}

// @Summary List queued jobs
// @Router /api/admin/queue [get]
func apiQueue(ctx *gin.Context) {
	jobs := []tasks.Job{}
	if scheduler.QueueData != nil {
		jobs = scheduler.QueueData.Queue()
	}
	ctx.JSON(http.StatusOK, gin.H{"data": jobs, "rows": len(jobs)})
}

// @Summary Remember page size and sort of a table
// @Failure 400 {object} string
// @Failure 404 {object} string
// @Router /api/settings/{table} [post]
func apiSaveSettings(ctx *gin.Context) {
	if settingsStore == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "settings not available"})
		return
	}
	tableID := ctx.Param("table")
	spec, ok := pageSpecs[tableID]
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown table"})
		return
	}
	var body table.Query
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, err := checkBodyQuery(body, spec.FilterKeys())
	if err == nil {
		_, err = database.PageQuery(spec, q)
	}
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := settingsStore.Save(settingsUser(ctx), tableID, q); err != nil {
		logger.Log.Errorln("Save settings failed:", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": "ok"})
}
