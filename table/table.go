package table

import (
	"fmt"
	"io"
	"strings"
)

// SelectionSide places the row checkboxes.
type SelectionSide int

const (
	SelectNone SelectionSide = iota
	SelectLeft
	SelectRight
)

// Config switches the optional parts of the table on.
type Config[R Record] struct {
	// ID of the wrapper element, also used as prefix of control ids.
	ID      string
	Caption string

	SelectionSide SelectionSide
	// CheckboxLabel returns the aria label of the checkbox of a row.
	CheckboxLabel func(row R, index int) string

	Editable  bool
	EditLabel string

	EntryOptions []int

	// Href turns the sort, page and entries controls into links for a
	// server rendered page. Without it they render as buttons carrying
	// data attributes.
	Href func(Query) string
}

// Handlers receive the intents of the user. The table never applies them itself.
type Handlers[R Record] struct {
	OnQueryChange     func(Query)
	OnSelectionChange func(Selection)
	OnEdit            func(index int, row R)
}

// Props is everything the parent hands down for one render.
type Props[R Record] struct {
	Columns   []Column[R]
	Rows      []R
	TotalRows int
	Query     Query
	Selection Selection
	Loading   bool
}

// Table projects a page of rows supplied by its parent.
type Table[R Record] struct {
	props    Props[R]
	cfg      Config[R]
	handlers Handlers[R]
}

// New builds a table. Missing config values get their defaults.
func New[R Record](props Props[R], cfg Config[R], handlers Handlers[R]) *Table[R] {
	if cfg.ID == "" {
		cfg.ID = "table"
	}
	if len(cfg.EntryOptions) == 0 {
		cfg.EntryOptions = DefaultEntryOptions
	}
	if cfg.EditLabel == "" {
		cfg.EditLabel = "Edit"
	}
	if props.Query.Entries <= 0 {
		props.Query.Entries = DefaultEntries
	}
	return &Table[R]{props: props, cfg: cfg, handlers: handlers}
}

func (t *Table[R]) Columns() []Column[R] { return t.props.Columns }
func (t *Table[R]) Rows() []R            { return t.props.Rows }
func (t *Table[R]) TotalRows() int       { return t.props.TotalRows }
func (t *Table[R]) Query() Query         { return t.props.Query }
func (t *Table[R]) Selection() Selection { return t.props.Selection }
func (t *Table[R]) Loading() bool        { return t.props.Loading }

// PageCount is the number of pages for the current total and page size.
func (t *Table[R]) PageCount() int {
	return PageCount(t.props.TotalRows, t.props.Query.Entries)
}

// HeaderClick emits the next sort for a sortable column. Other columns are inert.
func (t *Table[R]) HeaderClick(field string) {
	col, ok := FindColumn(t.props.Columns, field)
	if !ok || !col.Sortable {
		return
	}
	t.emitQuery(NextSort(t.props.Query, col.Field))
}

// ToggleRow checks or unchecks the row at index of the current page.
func (t *Table[R]) ToggleRow(index int, checked bool) {
	if index < 0 || index >= len(t.props.Rows) {
		return
	}
	t.emitSelection(t.props.Selection.Toggle(index, checked, len(t.props.Rows)))
}

// ToggleAll selects all rows of the current page, or clears the selection
// when they are all selected already. Rows on other pages are never selected.
func (t *Table[R]) ToggleAll() {
	t.emitSelection(t.props.Selection.ToggleAll(len(t.props.Rows)))
}

// ChangeEntries switches the page size and returns to the first page.
func (t *Table[R]) ChangeEntries(entries int) {
	if entries <= 0 {
		return
	}
	t.emitQuery(WithEntries(t.props.Query, entries))
}

// ChangePage moves to page when it exists.
func (t *Table[R]) ChangePage(page int) {
	if page < 0 || page >= t.PageCount() {
		return
	}
	t.emitQuery(WithPage(t.props.Query, page))
}

// EditRow asks the parent to edit the row at index.
func (t *Table[R]) EditRow(index int) {
	if !t.cfg.Editable || index < 0 || index >= len(t.props.Rows) || t.handlers.OnEdit == nil {
		return
	}
	t.handlers.OnEdit(index, t.props.Rows[index])
}

func (t *Table[R]) emitQuery(q Query) {
	if t.handlers.OnQueryChange != nil {
		t.handlers.OnQueryChange(q)
	}
}

func (t *Table[R]) emitSelection(s Selection) {
	if t.handlers.OnSelectionChange != nil {
		t.handlers.OnSelectionChange(s)
	}
}

// Write renders the table as html into w.
func (t *Table[R]) Write(w io.Writer) error {
	return t.Render().Render(w)
}

// String renders the table as html.
func (t *Table[R]) String() string {
	var buf strings.Builder
	if err := t.Write(&buf); err != nil {
		return fmt.Sprintf("<!-- render failed: %v -->", err)
	}
	return buf.String()
}

func (t *Table[R]) checkboxLabel(index int) string {
	if t.cfg.CheckboxLabel != nil {
		return t.cfg.CheckboxLabel(t.props.Rows[index], index)
	}
	return fmt.Sprintf("Select row %d", index+1)
}
