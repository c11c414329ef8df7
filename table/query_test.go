package table

import (
	"math"
	"net/url"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNextSort verifies a new field starts ascending and the same field toggles
func TestNextSort(t *testing.T) {
	q := Query{Page: 2, Entries: 10}

	q = NextSort(q, "name")
	assert.Equal(t, "name", q.OrderBy)
	assert.Equal(t, SortAsc, q.SortDirection)
	assert.Equal(t, 2, q.Page, "sorting keeps the page")

	q = NextSort(q, "name")
	assert.Equal(t, SortDesc, q.SortDirection)

	q = NextSort(q, "name")
	assert.Equal(t, SortAsc, q.SortDirection, "never returns to unsorted")

	q = NextSort(q, "status")
	assert.Equal(t, "status", q.OrderBy)
	assert.Equal(t, SortAsc, q.SortDirection)
}

func TestWithEntriesResetsPage(t *testing.T) {
	q := WithEntries(Query{Page: 4, Entries: 10, OrderBy: "name", SortDirection: SortDesc}, 50)
	assert.Equal(t, Query{Page: 0, Entries: 50, OrderBy: "name", SortDirection: SortDesc}, q)
}

func TestWithSearchTrimsAndResetsPage(t *testing.T) {
	q := WithSearch(Query{Page: 3, Entries: 10}, "  smith ")
	assert.Equal(t, "smith", q.Search)
	assert.Equal(t, 0, q.Page)
}

func TestWithPage(t *testing.T) {
	q := WithPage(Query{Entries: 10, Search: "x"}, 2)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, "x", q.Search)
}

func TestWithFilter(t *testing.T) {
	q := Query{Page: 3, Entries: 10}

	same := q.WithFilter("workflow", "")
	assert.Equal(t, 3, same.Page, "unchanged filter keeps the page")

	q = q.WithFilter("workflow", "isolation")
	assert.Equal(t, 0, q.Page)
	assert.Equal(t, "isolation", q.Filter("workflow"))

	cleared := q.WithFilter("workflow", "")
	assert.Empty(t, cleared.Filter("workflow"))
	assert.Equal(t, "isolation", q.Filter("workflow"), "original is not modified")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Query
		want Query
	}{
		{"defaults", Query{Page: -1}, Query{Entries: 15}},
		{"order without direction", Query{Entries: 10, OrderBy: "name"}, Query{Entries: 10, OrderBy: "name", SortDirection: SortAsc}},
		{"direction without order", Query{Entries: 10, SortDirection: SortDesc}, Query{Entries: 10}},
		{"upper case direction", Query{Entries: 10, OrderBy: "name", SortDirection: "DESC"}, Query{Entries: 10, OrderBy: "name", SortDirection: SortDesc}},
		{"search trimmed", Query{Entries: 10, Search: " a "}, Query{Entries: 10, Search: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.in.Normalize(15)); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValuesAndParseQuery(t *testing.T) {
	q := Query{Page: 1, Entries: 10, OrderBy: "name", SortDirection: SortDesc, Search: "smi", Filters: map[string]string{"workflow": "exposure"}}
	v := q.Values()
	assert.Equal(t, "page=1&entries=10&order=name&direction=desc&search=smi&workflow=exposure", encodeOrdered(v, "page", "entries", "order", "direction", "search", "workflow"))

	parsed, err := ParseQuery(v, 25, "workflow")
	require.NoError(t, err)
	assert.Equal(t, q, parsed)

	parsed, err = ParseQuery(v, 25)
	require.NoError(t, err)
	assert.Nil(t, parsed.Filters, "unlisted filters are dropped")
}

func TestValuesOmitsEmpty(t *testing.T) {
	v := NewQuery(0).Values()
	assert.Equal(t, "entries=25&page=0", v.Encode())
}

func TestParseQueryDefaults(t *testing.T) {
	q, err := ParseQuery(url.Values{}, 15)
	require.NoError(t, err)
	assert.Equal(t, Query{Entries: 15}, q)
}

func TestParseQueryInvalid(t *testing.T) {
	for _, raw := range []string{"page=abc", "page=-1", "entries=0", "entries=x", "entries=2&page=4611686018427387904"} {
		v, err := url.ParseQuery(raw)
		require.NoError(t, err)
		_, err = ParseQuery(v, 25)
		assert.True(t, errors.Is(err, ErrInvalidQuery), raw)
	}
}

func TestCheckBounds(t *testing.T) {
	assert.NoError(t, Query{Page: 3, Entries: 10}.CheckBounds())
	assert.NoError(t, Query{Page: math.MaxInt/10 - 1, Entries: 10}.CheckBounds())

	err := Query{Page: math.MaxInt / 2, Entries: 4}.CheckBounds()
	assert.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestLimitEntries(t *testing.T) {
	assert.Equal(t, 100, Query{Entries: 100000000}.LimitEntries(100).Entries)
	assert.Equal(t, 25, Query{Entries: 25}.LimitEntries(100).Entries)
	assert.Equal(t, 500, Query{Entries: 500}.LimitEntries(0).Entries)
}

func TestQueryJSONIsFlat(t *testing.T) {
	q := Query{Page: 1, Entries: 10, OrderBy: "name", SortDirection: SortAsc, Filters: map[string]string{"workflow": "closed", "page": "9"}}
	data, err := json.Marshal(q)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "closed", flat["workflow"])
	assert.Equal(t, float64(1), flat["page"], "a filter never shadows a query key")
	assert.NotContains(t, flat, "filters")

	var back Query
	require.NoError(t, json.Unmarshal(data, &back))
	want := q.Clone()
	delete(want.Filters, "page")
	if diff := cmp.Diff(want, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryUnmarshalJSON(t *testing.T) {
	var q Query
	require.NoError(t, json.Unmarshal([]byte(`{"entries":25,"patient_id":7,"locked":true,"search":null,"role":""}`), &q))
	assert.Equal(t, Query{Entries: 25, Filters: map[string]string{"patient_id": "7", "locked": "true"}}, q)

	for _, body := range []string{`{"page":"x"}`, `{"filters":{"workflow":"closed"}}`, `[1]`} {
		var q Query
		err := json.Unmarshal([]byte(body), &q)
		assert.Error(t, err, body)
	}
}

func TestHasQueryParams(t *testing.T) {
	assert.False(t, HasQueryParams(url.Values{"workflow": {"x"}}))
	assert.True(t, HasQueryParams(url.Values{"page": {"0"}}))
}

func encodeOrdered(v url.Values, keys ...string) string {
	out := ""
	for _, k := range keys {
		if out != "" {
			out += "&"
		}
		out += k + "=" + v.Get(k)
	}
	return out
}
