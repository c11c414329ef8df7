package table

import "sort"

// Selection holds the checked row indices of the page currently shown.
// The indices mean nothing once the rows change, so every data refresh
// replaces the selection with an empty one.
type Selection struct {
	Rows      []int `json:"rows"`
	SelectAll bool  `json:"selectAll"`
}

// Has reports whether index is selected.
func (s Selection) Has(index int) bool {
	for _, idx := range s.Rows {
		if idx == index {
			return true
		}
	}
	return false
}

// Len is the number of selected rows.
func (s Selection) Len() int {
	return len(s.Rows)
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return len(s.Rows) == 0
}

// Toggle adds or removes index. Indices outside [0, rowCount) are ignored.
func (s Selection) Toggle(index int, checked bool, rowCount int) Selection {
	if index < 0 || index >= rowCount {
		return s
	}
	rows := make([]int, 0, len(s.Rows)+1)
	for _, idx := range s.Rows {
		if idx != index && idx < rowCount {
			rows = append(rows, idx)
		}
	}
	if checked {
		rows = append(rows, index)
		sort.Ints(rows)
	}
	return Selection{Rows: rows, SelectAll: rowCount > 0 && len(rows) == rowCount}
}

// ToggleAll selects every row of the current page, or clears the selection
// when all of them are already selected.
func (s Selection) ToggleAll(rowCount int) Selection {
	if rowCount == 0 || len(s.Rows) == rowCount {
		return Selection{Rows: []int{}}
	}
	rows := make([]int, rowCount)
	for idx := range rows {
		rows[idx] = idx
	}
	return Selection{Rows: rows, SelectAll: true}
}
