package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(25, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 2, PageCount(11, 10))
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 0, PageCount(5, 0))
}

func labels(items []PagerItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Label)
	}
	return out
}

func TestPagerItemsSmall(t *testing.T) {
	items := PagerItems(0, 3)
	require.Len(t, items, 5)
	assert.Equal(t, []string{"Previous", "1", "2", "3", "Next"}, labels(items))
	assert.True(t, items[0].Disabled)
	assert.True(t, items[1].Active)
	assert.False(t, items[4].Disabled)

	last := PagerItems(2, 3)
	assert.False(t, last[0].Disabled)
	assert.True(t, last[4].Disabled, "next is disabled on the last page")
	assert.Equal(t, 1, last[0].Page)
}

func TestPagerItemsEllipsis(t *testing.T) {
	assert.Equal(t,
		[]string{"Previous", "1", "…", "9", "10", "11", "12", "13", "…", "20", "Next"},
		labels(PagerItems(10, 20)))
	assert.Equal(t,
		[]string{"Previous", "1", "2", "3", "4", "5", "…", "20", "Next"},
		labels(PagerItems(0, 20)))
	assert.Equal(t,
		[]string{"Previous", "1", "…", "16", "17", "18", "19", "20", "Next"},
		labels(PagerItems(19, 20)))
}

func TestPagerItemsNone(t *testing.T) {
	assert.Nil(t, PagerItems(0, 0))
}

func TestPagerItemsClampsCurrent(t *testing.T) {
	items := PagerItems(9, 2)
	assert.True(t, items[2].Active)
}
