package table

import (
	"fmt"
	"strconv"

	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// EmptyText is shown in the single body row of a table without rows.
const EmptyText = "No data available in table."

// Render returns the html of the table. It depends only on the props and config.
func (t *Table[R]) Render() gomponents.Node {
	return html.Div(
		html.ID(t.cfg.ID),
		html.Class("table-wrapper"),
		gomponents.If(t.props.Loading, t.renderLoading()),
		html.Table(
			html.Class("table table-striped table-bordered"),
			gomponents.If(t.props.Loading, html.Aria("busy", "true")),
			gomponents.If(t.cfg.Caption != "", html.Caption(gomponents.Text(t.cfg.Caption))),
			t.renderHeader(),
			t.renderBody(),
		),
		t.renderFooter(),
	)
}

// the overlay sits on top of the last rendered rows, the table stays in place
func (t *Table[R]) renderLoading() gomponents.Node {
	return html.Div(
		html.Class("table-loading-overlay"),
		html.Role("status"),
		html.Aria("live", "polite"),
		html.Span(html.Class("spinner-border"), html.Aria("hidden", "true")),
		html.Span(html.Class("visually-hidden"), gomponents.Text("Loading...")),
	)
}

func (t *Table[R]) columnCount() int {
	count := len(t.props.Columns)
	if t.cfg.SelectionSide != SelectNone {
		count++
	}
	if t.cfg.Editable {
		count++
	}
	return count
}

func (t *Table[R]) renderHeader() gomponents.Node {
	cells := make([]gomponents.Node, 0, t.columnCount())
	if t.cfg.SelectionSide == SelectLeft {
		cells = append(cells, t.renderSelectAll())
	}
	for idx := range t.props.Columns {
		cells = append(cells, t.renderHeaderCell(t.props.Columns[idx]))
	}
	if t.cfg.Editable {
		cells = append(cells, html.Th(gomponents.Attr("scope", "col"), html.Class("edit-column"), gomponents.Text(t.cfg.EditLabel)))
	}
	if t.cfg.SelectionSide == SelectRight {
		cells = append(cells, t.renderSelectAll())
	}
	return html.THead(html.Tr(gomponents.Group(cells)))
}

func (t *Table[R]) renderHeaderCell(col Column[R]) gomponents.Node {
	tooltip := gomponents.If(col.Tooltip != "", html.Span(
		html.Class("table-tooltip"),
		html.Role("tooltip"),
		gomponents.Attr("title", col.Tooltip),
		html.Aria("label", col.Tooltip),
		gomponents.Text("?"),
	))
	if !col.Sortable {
		return html.Th(
			gomponents.Attr("scope", "col"),
			html.Data("field", col.Field),
			gomponents.Text(col.Label),
			tooltip,
		)
	}

	direction := SortNone
	if t.props.Query.OrderBy == col.Field {
		direction = t.props.Query.SortDirection
	}
	ariaSort := "none"
	iconClass := "sort-icon sort-none"
	switch direction {
	case SortAsc:
		ariaSort = "ascending"
		iconClass = "sort-icon sort-asc"
	case SortDesc:
		ariaSort = "descending"
		iconClass = "sort-icon sort-desc"
	}
	icon := html.Span(html.Class(iconClass), html.Aria("hidden", "true"))

	var control gomponents.Node
	if t.cfg.Href != nil {
		control = html.A(
			html.Class("sort-link"),
			html.Href(t.cfg.Href(NextSort(t.props.Query, col.Field))),
			gomponents.Text(col.Label),
			icon,
		)
	} else {
		control = html.Button(
			html.Type("button"),
			html.Class("sort-button"),
			html.Data("sort-field", col.Field),
			gomponents.Text(col.Label),
			icon,
		)
	}
	return html.Th(
		gomponents.Attr("scope", "col"),
		html.Class("sortable"),
		html.Aria("sort", ariaSort),
		html.Data("field", col.Field),
		control,
		tooltip,
	)
}

func (t *Table[R]) allSelected() bool {
	return len(t.props.Rows) > 0 && t.props.Selection.Len() == len(t.props.Rows)
}

func (t *Table[R]) renderSelectAll() gomponents.Node {
	return html.Th(
		gomponents.Attr("scope", "col"),
		html.Class("select-column"),
		html.Input(
			html.Type("checkbox"),
			html.ID(t.cfg.ID+"-select-all"),
			html.Class("select-all"),
			html.Aria("label", "Select all rows"),
			gomponents.If(t.allSelected(), html.Checked()),
			gomponents.If(len(t.props.Rows) == 0, html.Disabled()),
		),
	)
}

func (t *Table[R]) renderBody() gomponents.Node {
	if len(t.props.Rows) == 0 {
		return html.TBody(html.Tr(html.Td(
			html.ColSpan(strconv.Itoa(t.columnCount())),
			html.Class("dataTables_empty text-center"),
			gomponents.Text(EmptyText),
		)))
	}
	rows := make([]gomponents.Node, 0, len(t.props.Rows))
	for idx := range t.props.Rows {
		rows = append(rows, t.renderRow(idx))
	}
	return html.TBody(gomponents.Group(rows))
}

func (t *Table[R]) renderRow(index int) gomponents.Node {
	row := t.props.Rows[index]
	selected := t.props.Selection.Has(index)
	cells := make([]gomponents.Node, 0, t.columnCount()+2)
	cells = append(cells, html.Data("row-index", strconv.Itoa(index)))
	if ident, ok := any(row).(Identified); ok {
		if id := ident.RowID(); id != "" {
			cells = append(cells, html.Data("row-id", id))
		}
	}
	if selected {
		cells = append(cells, html.Class("selected"))
	}
	if t.cfg.SelectionSide == SelectLeft {
		cells = append(cells, t.renderRowCheckbox(index, selected))
	}
	for idx := range t.props.Columns {
		col := t.props.Columns[idx]
		cells = append(cells, html.Td(html.Data("field", col.Field), col.Cell(row)))
	}
	if t.cfg.Editable {
		cells = append(cells, html.Td(html.Class("edit-cell"), html.Button(
			html.Type("button"),
			html.Class("btn btn-link btn-edit"),
			html.Data("row-index", strconv.Itoa(index)),
			html.Aria("label", fmt.Sprintf("%s row %d", t.cfg.EditLabel, index+1)),
			gomponents.Text(t.cfg.EditLabel),
		)))
	}
	if t.cfg.SelectionSide == SelectRight {
		cells = append(cells, t.renderRowCheckbox(index, selected))
	}
	return html.Tr(gomponents.Group(cells))
}

func (t *Table[R]) renderRowCheckbox(index int, selected bool) gomponents.Node {
	return html.Td(
		html.Class("select-cell"),
		html.Input(
			html.Type("checkbox"),
			html.Name("selected"),
			html.Value(strconv.Itoa(index)),
			html.Data("row-index", strconv.Itoa(index)),
			html.Aria("label", t.checkboxLabel(index)),
			gomponents.If(selected, html.Checked()),
		),
	)
}

func (t *Table[R]) renderFooter() gomponents.Node {
	return html.Div(
		html.Class("table-footer d-flex justify-content-between align-items-center"),
		t.renderEntries(),
		t.renderInfo(),
		t.renderPager(),
	)
}

func (t *Table[R]) renderEntries() gomponents.Node {
	selectID := t.cfg.ID + "-entries"
	options := make([]gomponents.Node, 0, len(t.cfg.EntryOptions))
	for _, entries := range t.cfg.EntryOptions {
		value := strconv.Itoa(entries)
		if t.cfg.Href != nil {
			value = t.cfg.Href(WithEntries(t.props.Query, entries))
		}
		options = append(options, html.Option(
			html.Value(value),
			gomponents.If(entries == t.props.Query.Entries, html.Selected()),
			gomponents.Text(strconv.Itoa(entries)),
		))
	}
	attrs := []gomponents.Node{html.ID(selectID), html.Class("form-select form-select-sm entries-select")}
	if t.cfg.Href != nil {
		attrs = append(attrs, gomponents.Attr("onchange", "window.location = this.value"))
	} else {
		attrs = append(attrs, html.Name("entries"))
	}
	return html.Div(
		html.Class("table-entries"),
		html.Label(
			html.For(selectID),
			gomponents.Text("Show "),
			html.Select(gomponents.Group(attrs), gomponents.Group(options)),
			gomponents.Text(" entries"),
		),
	)
}

func (t *Table[R]) renderInfo() gomponents.Node {
	from, to := 0, 0
	if t.props.TotalRows > 0 && len(t.props.Rows) > 0 {
		from = t.props.Query.Offset() + 1
		to = t.props.Query.Offset() + len(t.props.Rows)
	}
	return html.Div(
		html.Class("table-info"),
		html.Role("status"),
		gomponents.Textf("Showing %d to %d of %d entries", from, to, t.props.TotalRows),
	)
}

func (t *Table[R]) renderPager() gomponents.Node {
	items := PagerItems(t.props.Query.Page, t.PageCount())
	if len(items) == 0 {
		return gomponents.Group(nil)
	}
	nodes := make([]gomponents.Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, t.renderPagerItem(item))
	}
	return html.Nav(
		html.Aria("label", "Table pagination"),
		html.Ul(html.Class("pagination pagination-sm"), gomponents.Group(nodes)),
	)
}

func (t *Table[R]) renderPagerItem(item PagerItem) gomponents.Node {
	class := "page-item"
	if item.Active {
		class += " active"
	}
	if item.Disabled {
		class += " disabled"
	}
	label := gomponents.Text(item.Label)
	var control gomponents.Node
	switch {
	case item.Ellipsis:
		control = html.Span(html.Class("page-link"), label)
	case t.cfg.Href != nil && !item.Disabled:
		control = html.A(
			html.Class("page-link"),
			html.Href(t.cfg.Href(WithPage(t.props.Query, item.Page))),
			gomponents.If(item.Active, html.Aria("current", "page")),
			label,
		)
	case t.cfg.Href != nil:
		control = html.Span(html.Class("page-link"), html.Aria("disabled", "true"), label)
	default:
		control = html.Button(
			html.Type("button"),
			html.Class("page-link"),
			html.Data("page", strconv.Itoa(item.Page)),
			gomponents.If(item.Active, html.Aria("current", "page")),
			gomponents.If(item.Disabled, html.Disabled()),
			label,
		)
	}
	return html.Li(html.Class(class), control)
}
