package table

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Kellerman81/go_case_tables/logger"
)

// Page is one server response: the rows of the requested page and the
// number of rows matching the query.
type Page[R Record] struct {
	Rows  []R
	Total int
}

// Source fetches one page for a query. Implementations must honour ctx.
type Source[R Record] interface {
	Fetch(ctx context.Context, q Query) (Page[R], error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[R Record] func(ctx context.Context, q Query) (Page[R], error)

func (f SourceFunc[R]) Fetch(ctx context.Context, q Query) (Page[R], error) {
	return f(ctx, q)
}

// State is a snapshot of what the controller currently shows.
type State[R Record] struct {
	Query     Query
	Selection Selection
	Rows      []R
	Total     int
	Loading   bool
}

type ControllerConfig[R Record] struct {
	Columns        []Column[R]
	Table          Config[R]
	DefaultEntries int
	SearchDebounce time.Duration

	// OnChange is called after every state change, outside the lock.
	OnChange func(State[R])
	// OnError reports failed fetches. The table itself shows no error.
	OnError func(Query, error)
	OnEdit  func(index int, row R)
}

// Controller owns the query of one table, fetches pages from a Source and
// keeps the rows, total and selection in sync with the latest query.
// Only the response to the most recently issued query is applied.
type Controller[R Record] struct {
	mu        sync.Mutex
	source    Source[R]
	cfg       ControllerConfig[R]
	state     State[R]
	seq       uint64
	cancel    context.CancelFunc
	ctx       context.Context
	stop      context.CancelFunc
	debouncer *Debouncer
	closed    bool
}

func NewController[R Record](source Source[R], initial Query, cfg ControllerConfig[R]) *Controller[R] {
	if cfg.DefaultEntries <= 0 {
		cfg.DefaultEntries = DefaultEntries
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = DefaultSearchDebounce
	}
	if cfg.Table.ID == "" {
		cfg.Table.ID = "table"
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Controller[R]{
		source:    source,
		cfg:       cfg,
		state:     State[R]{Query: initial.Normalize(cfg.DefaultEntries), Selection: Selection{Rows: []int{}}},
		ctx:       ctx,
		stop:      stop,
		debouncer: NewDebouncer(cfg.SearchDebounce),
	}
}

// State returns a snapshot of the current state.
func (c *Controller[R]) State() State[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller[R]) snapshotLocked() State[R] {
	s := c.state
	s.Query = s.Query.Clone()
	s.Selection.Rows = append([]int{}, s.Selection.Rows...)
	return s
}

// SetQuery makes q the current query and fetches its page. A request still
// in flight for an older query is cancelled. The returned channel is closed
// once this request has settled, whether it was applied or discarded.
func (c *Controller[R]) SetQuery(q Query) <-chan struct{} {
	done := make(chan struct{})
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(done)
		return done
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	q = q.Normalize(c.cfg.DefaultEntries)
	c.state.Query = q
	c.state.Loading = true
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.changed(snapshot)

	go func() {
		defer close(done)
		defer cancel()
		page, err := c.source.Fetch(ctx, q)
		c.settle(seq, q, page, err)
	}()
	return done
}

// Refresh fetches the current query again.
func (c *Controller[R]) Refresh() <-chan struct{} {
	c.mu.Lock()
	q := c.state.Query.Clone()
	c.mu.Unlock()
	return c.SetQuery(q)
}

func (c *Controller[R]) settle(seq uint64, q Query, page Page[R], err error) {
	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		logger.Log.Debugln("table", c.cfg.Table.ID, "discarding stale response for", q.Values().Encode())
		return
	}
	c.cancel = nil
	c.state.Loading = false
	if err != nil && errors.Is(err, context.Canceled) {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.changed(snapshot)
		return
	}
	c.state.Selection = Selection{Rows: []int{}}
	if err != nil {
		c.state.Rows = nil
		c.state.Total = 0
	} else {
		c.state.Rows = page.Rows
		c.state.Total = page.Total
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		logger.Log.Warnln("table", c.cfg.Table.ID, "fetch failed for", q.Values().Encode(), "error:", err)
		if c.cfg.OnError != nil {
			c.cfg.OnError(q, err)
		}
	}
	c.changed(snapshot)
}

// Search sets the search text once typing pauses for the debounce duration.
func (c *Controller[R]) Search(term string) {
	c.debouncer.Debounce(func() {
		c.searchNow(term)
	})
}

// SearchNow drops a pending debounced search and searches for term at once.
func (c *Controller[R]) SearchNow(term string) <-chan struct{} {
	var done <-chan struct{}
	c.debouncer.Immediate(func() {
		done = c.searchNow(term)
	})
	return done
}

func (c *Controller[R]) searchNow(term string) <-chan struct{} {
	c.mu.Lock()
	q := WithSearch(c.state.Query, term)
	c.mu.Unlock()
	return c.SetQuery(q)
}

// Select replaces the selection. Indices outside the current page are dropped.
func (c *Controller[R]) Select(sel Selection) {
	c.mu.Lock()
	valid := Selection{Rows: []int{}}
	for _, idx := range sel.Rows {
		valid = valid.Toggle(idx, true, len(c.state.Rows))
	}
	c.state.Selection = valid
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.changed(snapshot)
}

// Table builds the table for the current state with its intents wired
// back into the controller.
func (c *Controller[R]) Table() *Table[R] {
	s := c.State()
	return New(Props[R]{
		Columns:   c.cfg.Columns,
		Rows:      s.Rows,
		TotalRows: s.Total,
		Query:     s.Query,
		Selection: s.Selection,
		Loading:   s.Loading,
	}, c.cfg.Table, Handlers[R]{
		OnQueryChange:     func(q Query) { c.SetQuery(q) },
		OnSelectionChange: c.Select,
		OnEdit:            c.cfg.OnEdit,
	})
}

// Close cancels the request in flight and any pending search. Loading
// is switched off and the last rows stay.
func (c *Controller[R]) Close() {
	c.debouncer.Cancel()
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	wasLoading := c.state.Loading
	c.state.Loading = false
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.stop()
	if wasLoading {
		c.changed(snapshot)
	}
}

func (c *Controller[R]) changed(s State[R]) {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(s)
	}
}
