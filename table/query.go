package table

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	SortNone = ""
	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultEntries = 25
)

// DefaultEntryOptions are the page sizes offered in the entries selector.
var DefaultEntryOptions = []int{10, 15, 25, 50, 100}

// ErrInvalidQuery is returned by ParseQuery for parameters which are not numbers.
var ErrInvalidQuery = errors.New("invalid table query")

// reserved wire keys, everything else may be a filter
var queryKeys = map[string]bool{"page": true, "entries": true, "order": true, "direction": true, "search": true}

// Query is the page/sort/search state the parent sends to the server.
// In json the filters sit next to the reserved keys, the same flat shape
// as the url parameters.
type Query struct {
	Page          int
	Entries       int
	OrderBy       string
	SortDirection string
	Search        string
	Filters       map[string]string
}

// NewQuery returns the first page with the given page size.
func NewQuery(entries int) Query {
	if entries <= 0 {
		entries = DefaultEntries
	}
	return Query{Entries: entries}
}

// Normalize clamps the query into a valid state.
func (q Query) Normalize(defaultEntries int) Query {
	if defaultEntries <= 0 {
		defaultEntries = DefaultEntries
	}
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Entries <= 0 {
		q.Entries = defaultEntries
	}
	q.SortDirection = NormalizeDirection(q.SortDirection)
	if q.OrderBy == "" {
		q.SortDirection = SortNone
	} else if q.SortDirection == SortNone {
		q.SortDirection = SortAsc
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// NormalizeDirection maps anything but asc/desc to SortNone.
func NormalizeDirection(direction string) string {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	}
	return SortNone
}

// CheckBounds rejects a page which lies beyond the addressable rows.
func (q Query) CheckBounds() error {
	if q.Entries <= 0 || q.Page < 0 {
		return nil
	}
	if q.Page > (math.MaxInt-q.Entries)/q.Entries {
		return errors.Wrapf(ErrInvalidQuery, "page %d out of range", q.Page)
	}
	return nil
}

// LimitEntries caps the page size at max. max <= 0 leaves q alone.
func (q Query) LimitEntries(max int) Query {
	if max > 0 && q.Entries > max {
		q.Entries = max
	}
	return q
}

// Offset is the index of the first row of the page.
func (q Query) Offset() int {
	return q.Page * q.Entries
}

// Clone returns a copy which does not share the filter map.
func (q Query) Clone() Query {
	if q.Filters != nil {
		filters := make(map[string]string, len(q.Filters))
		for k, v := range q.Filters {
			filters[k] = v
		}
		q.Filters = filters
	}
	return q
}

// Filter returns the value of a resource filter.
func (q Query) Filter(key string) string {
	return q.Filters[key]
}

// WithFilter returns a copy with the filter set. An empty value removes it.
// A changed filter selects a different row set, so the page is reset.
func (q Query) WithFilter(key, value string) Query {
	q = q.Clone()
	if q.Filters[key] == value {
		return q
	}
	if value == "" {
		delete(q.Filters, key)
	} else {
		if q.Filters == nil {
			q.Filters = make(map[string]string, 1)
		}
		q.Filters[key] = value
	}
	q.Page = 0
	return q
}

// Values encodes the query as wire parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("entries", strconv.Itoa(q.Entries))
	if q.OrderBy != "" {
		v.Set("order", q.OrderBy)
		if q.SortDirection != SortNone {
			v.Set("direction", q.SortDirection)
		}
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if queryKeys[k] || q.Filters[k] == "" {
			continue
		}
		v.Set(k, q.Filters[k])
	}
	return v
}

// ParseQuery decodes wire parameters. Only the listed filter keys are kept.
func ParseQuery(v url.Values, defaultEntries int, filterKeys ...string) (Query, error) {
	q := Query{
		OrderBy:       strings.TrimSpace(v.Get("order")),
		SortDirection: v.Get("direction"),
		Search:        v.Get("search"),
	}
	var err error
	if str := v.Get("page"); str != "" {
		if q.Page, err = strconv.Atoi(str); err != nil || q.Page < 0 {
			return Query{}, errors.Wrapf(ErrInvalidQuery, "page %q", str)
		}
	}
	if str := v.Get("entries"); str != "" {
		if q.Entries, err = strconv.Atoi(str); err != nil || q.Entries <= 0 {
			return Query{}, errors.Wrapf(ErrInvalidQuery, "entries %q", str)
		}
	}
	for _, key := range filterKeys {
		if value := v.Get(key); value != "" {
			if q.Filters == nil {
				q.Filters = make(map[string]string, len(filterKeys))
			}
			q.Filters[key] = value
		}
	}
	q = q.Normalize(defaultEntries)
	if err := q.CheckBounds(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// MarshalJSON writes the flat wire shape {page, entries, order, direction, search, ...filters}.
func (q Query) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(queryKeys)+len(q.Filters))
	for k, v := range q.Filters {
		if !queryKeys[k] && v != "" {
			m[k] = v
		}
	}
	m["page"] = q.Page
	m["entries"] = q.Entries
	m["order"] = q.OrderBy
	m["direction"] = q.SortDirection
	m["search"] = q.Search
	return json.Marshal(m)
}

// UnmarshalJSON reads the flat wire shape. Every key that is not reserved
// becomes a filter; numbers and booleans are kept as their literal text.
func (q *Query) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrInvalidQuery, err.Error())
	}
	out := Query{}
	for key, value := range raw {
		if string(value) == "null" {
			continue
		}
		var err error
		switch key {
		case "page":
			err = json.Unmarshal(value, &out.Page)
		case "entries":
			err = json.Unmarshal(value, &out.Entries)
		case "order":
			err = json.Unmarshal(value, &out.OrderBy)
		case "direction":
			err = json.Unmarshal(value, &out.SortDirection)
		case "search":
			err = json.Unmarshal(value, &out.Search)
		default:
			var str string
			if json.Unmarshal(value, &str) != nil {
				str = strings.TrimSpace(string(value))
				if strings.HasPrefix(str, "{") || strings.HasPrefix(str, "[") {
					return errors.Wrapf(ErrInvalidQuery, "filter %q", key)
				}
			}
			if str == "" {
				continue
			}
			if out.Filters == nil {
				out.Filters = make(map[string]string)
			}
			out.Filters[key] = str
		}
		if err != nil {
			return errors.Wrapf(ErrInvalidQuery, "%s: %v", key, err)
		}
	}
	*q = out
	return nil
}

// HasQueryParams reports whether v carries any table parameter.
func HasQueryParams(v url.Values) bool {
	for k := range queryKeys {
		if _, ok := v[k]; ok {
			return true
		}
	}
	return false
}

// NextSort is the query after clicking the header of field.
// A new field starts ascending. The current field toggles between
// ascending and descending and never returns to unsorted.
func NextSort(q Query, field string) Query {
	q = q.Clone()
	if q.OrderBy != field {
		q.OrderBy = field
		q.SortDirection = SortAsc
		return q
	}
	if q.SortDirection == SortAsc {
		q.SortDirection = SortDesc
	} else {
		q.SortDirection = SortAsc
	}
	return q
}

// WithEntries changes the page size and returns to the first page.
func WithEntries(q Query, entries int) Query {
	q = q.Clone()
	q.Entries = entries
	q.Page = 0
	return q
}

// WithPage moves to page.
func WithPage(q Query, page int) Query {
	q = q.Clone()
	q.Page = page
	return q
}

// WithSearch changes the search text and returns to the first page.
func WithSearch(q Query, search string) Query {
	q = q.Clone()
	q.Search = strings.TrimSpace(search)
	q.Page = 0
	return q
}
