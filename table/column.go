package table

import (
	"fmt"
	"strconv"
	"time"

	"maragu.dev/gomponents"
)

// Record is a single displayable row. The table only reads values by field key.
type Record interface {
	Field(key string) any
}

// Identified is implemented by records which carry a stable identifier.
type Identified interface {
	RowID() string
}

// Row is the untyped default record, used for JSON rows from the api.
type Row map[string]any

func (r Row) Field(key string) any {
	return r[key]
}

func (r Row) RowID() string {
	if v, ok := r["id"]; ok && v != nil {
		return FormatValue(v)
	}
	return ""
}

// Column describes how one field of a record is shown in the table.
type Column[R Record] struct {
	Field    string
	Label    string
	Sortable bool
	// Options maps the raw value (as printed by FormatValue) to a display string.
	Options map[string]string
	// Filter renders the cell itself. It wins over Options.
	Filter  func(R) gomponents.Node
	Tooltip string
}

// Cell returns the rendered content of the column for row.
// Precedence: Filter, then Options, then the raw value.
func (c Column[R]) Cell(row R) gomponents.Node {
	if c.Filter != nil {
		return c.Filter(row)
	}
	return gomponents.Text(c.Text(row))
}

// Text is the textual projection of the cell without the Filter step.
func (c Column[R]) Text(row R) string {
	raw := row.Field(c.Field)
	if len(c.Options) != 0 {
		if display, ok := c.Options[optionKey(raw)]; ok {
			return display
		}
	}
	return FormatValue(raw)
}

func optionKey(raw any) string {
	return FormatValue(raw)
}

// FormatValue prints a raw field value the way it is shown in a cell.
func FormatValue(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return formatTime(v)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return formatTime(*v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(raw)
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}

// FindColumn returns the column for field.
func FindColumn[R Record](columns []Column[R], field string) (Column[R], bool) {
	for idx := range columns {
		if columns[idx].Field == field {
			return columns[idx], true
		}
	}
	return Column[R]{}, false
}
