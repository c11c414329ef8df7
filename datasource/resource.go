package datasource

import (
	"bytes"
	"context"
	"net/http"

	"github.com/Kellerman81/go_case_tables/table"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Resource fetches table pages from one api endpoint. The endpoint answers
// with {<rowKey>: [...], "total": n}.
type Resource[R table.Record] struct {
	client *Client
	path   string
	rowKey string
	method string
}

// NewResource returns a table.Source for path. method is GET or POST;
// GET sends the query as url parameters and POST as a json body.
func NewResource[R table.Record](client *Client, path, rowKey, method string) *Resource[R] {
	if method != http.MethodPost {
		method = http.MethodGet
	}
	return &Resource[R]{client: client, path: path, rowKey: rowKey, method: method}
}

func (r *Resource[R]) Fetch(ctx context.Context, q table.Query) (table.Page[R], error) {
	var raw map[string]json.RawMessage
	var err error
	if r.method == http.MethodPost {
		err = r.client.DoJSON(ctx, r.method, r.path, nil, q, &raw)
	} else {
		err = r.client.DoJSON(ctx, r.method, r.path, q.Values(), nil, &raw)
	}
	if err != nil {
		return table.Page[R]{}, err
	}

	rowsRaw, ok := raw[r.rowKey]
	if !ok || isNull(rowsRaw) {
		return table.Page[R]{}, errors.Wrapf(ErrMalformedResponse, "missing %q", r.rowKey)
	}
	totalRaw, ok := raw["total"]
	if !ok || isNull(totalRaw) {
		return table.Page[R]{}, errors.Wrap(ErrMalformedResponse, "missing \"total\"")
	}
	var page table.Page[R]
	if err := json.Unmarshal(rowsRaw, &page.Rows); err != nil {
		return table.Page[R]{}, errors.Wrapf(ErrMalformedResponse, "%s: %v", r.rowKey, err)
	}
	if err := json.Unmarshal(totalRaw, &page.Total); err != nil || page.Total < 0 {
		return table.Page[R]{}, errors.Wrap(ErrMalformedResponse, "total")
	}
	return page, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
