package database

import (
	"sort"
	"strings"

	"github.com/Kellerman81/go_case_tables/table"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidSort   = errors.New("invalid sort field")
	ErrInvalidFilter = errors.New("invalid filter")
)

// FilterFunc turns the value of a filter parameter into a where clause.
type FilterFunc func(value string) (where string, args []interface{}, err error)

// TableSpec describes how a table query maps onto one sql table.
type TableSpec struct {
	Table     string
	Columns   string
	InnerJoin string
	// Sortable maps the client field names to comma separated sql
	// expressions. Nothing else can be sorted.
	Sortable     map[string]string
	Search       []string
	DefaultOrder string
	Filters      map[string]FilterFunc
}

// FilterKeys lists the filter parameters the spec accepts.
func (s TableSpec) FilterKeys() []string {
	keys := make([]string, 0, len(s.Filters))
	for k := range s.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NormalizeSearch folds compatibility characters and collapses whitespace.
func NormalizeSearch(term string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(term)), " ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PageQuery translates a client query into a sql query for spec.
func PageQuery(spec TableSpec, q table.Query) (Query, error) {
	q = q.Normalize(table.DefaultEntries)
	if err := q.CheckBounds(); err != nil {
		return Query{}, err
	}
	qu := Query{InnerJoin: spec.InnerJoin}

	var where []string
	for _, key := range spec.FilterKeys() {
		value := q.Filter(key)
		if value == "" {
			continue
		}
		clause, args, err := spec.Filters[key](value)
		if err != nil {
			return Query{}, err
		}
		if clause == "" {
			continue
		}
		where = append(where, clause)
		qu.WhereArgs = append(qu.WhereArgs, args...)
	}

	if search := NormalizeSearch(q.Search); search != "" && len(spec.Search) != 0 {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		likes := make([]string, 0, len(spec.Search))
		for _, col := range spec.Search {
			likes = append(likes, col+` like ? escape '\'`)
			qu.WhereArgs = append(qu.WhereArgs, pattern)
		}
		where = append(where, "("+strings.Join(likes, " or ")+")")
	}
	qu.Where = strings.Join(where, " and ")

	if q.OrderBy != "" {
		expr, ok := spec.Sortable[q.OrderBy]
		if !ok {
			return Query{}, errors.Wrapf(ErrInvalidSort, "%q", q.OrderBy)
		}
		direction := "asc"
		if q.SortDirection == table.SortDesc {
			direction = "desc"
		}
		parts := strings.Split(expr, ",")
		for idx := range parts {
			parts[idx] = strings.TrimSpace(parts[idx]) + " " + direction
		}
		qu.OrderBy = strings.Join(parts, ", ") + ", " + spec.Table + ".id " + direction
	} else {
		qu.OrderBy = spec.DefaultOrder
	}

	qu.Limit = uint64(q.Entries)
	qu.Offset = uint64(q.Offset())
	return qu, nil
}

// queryPage returns one page of spec's rows plus the number of matching rows.
func queryPage[T any](spec TableSpec, q table.Query) ([]T, int, error) {
	qu, err := PageQuery(spec, q)
	if err != nil {
		return nil, 0, err
	}
	total, err := CountRows(spec.Table, qu)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int(qu.Offset) >= total {
		return []T{}, total, nil
	}
	rows, err := queryStructs[T](spec.Columns, spec.Table, qu)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
