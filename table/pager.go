package table

import "strconv"

const (
	pagerRange  = 5 // page links around the current page
	pagerMargin = 1 // page links kept at each end
)

// PageCount is ceil(total/entries), 0 when there are no rows.
func PageCount(total, entries int) int {
	if total <= 0 || entries <= 0 {
		return 0
	}
	return (total + entries - 1) / entries
}

// PagerItem is one control of the pager.
type PagerItem struct {
	Label    string
	Page     int
	Active   bool
	Disabled bool
	Ellipsis bool
	Previous bool
	Next     bool
}

// PagerItems lays out Previous, the page links (with ellipses) and Next.
// Nothing is returned when there is no page.
func PagerItems(current, count int) []PagerItem {
	if count <= 0 {
		return nil
	}
	if current < 0 {
		current = 0
	}
	if current >= count {
		current = count - 1
	}
	items := make([]PagerItem, 0, pagerRange+2*pagerMargin+4)
	items = append(items, PagerItem{Label: "Previous", Page: current - 1, Disabled: current == 0, Previous: true})

	start := current - pagerRange/2
	end := current + pagerRange/2
	if start < 0 {
		end -= start
		start = 0
	}
	if end > count-1 {
		start -= end - (count - 1)
		end = count - 1
		if start < 0 {
			start = 0
		}
	}
	gap := false
	for page := 0; page < count; page++ {
		inMargin := page < pagerMargin || page >= count-pagerMargin
		if inMargin || (page >= start && page <= end) {
			items = append(items, PagerItem{Label: strconv.Itoa(page + 1), Page: page, Active: page == current})
			gap = false
			continue
		}
		if !gap {
			items = append(items, PagerItem{Label: "…", Page: -1, Disabled: true, Ellipsis: true})
			gap = true
		}
	}

	items = append(items, PagerItem{Label: "Next", Page: current + 1, Disabled: current == count-1, Next: true})
	return items
}
