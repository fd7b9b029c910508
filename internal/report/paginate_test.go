package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate_SlicesPages(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	page, total := Paginate(items, 0, 3)
	assert.Equal(t, []int{1, 2, 3}, page)
	assert.Equal(t, 3, total)

	page, _ = Paginate(items, 2, 3)
	assert.Equal(t, []int{7}, page)
}

func TestPaginate_PageNeverExceedsSize(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	for index := 0; index < 5; index++ {
		page, _ := Paginate(items, index, 3)
		assert.LessOrEqual(t, len(page), 3)
	}
}

func TestPaginate_ConcatenationReconstructsList(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	var rebuilt []string
	_, total := Paginate(items, 0, 2)
	for index := 0; index < total; index++ {
		page, _ := Paginate(items, index, 2)
		rebuilt = append(rebuilt, page...)
	}
	assert.Equal(t, items, rebuilt)
}

func TestPaginate_EmptyInputHasOnePage(t *testing.T) {
	page, total := Paginate([]int(nil), 0, 10)
	assert.Empty(t, page)
	assert.Equal(t, 1, total)
}

func TestPaginate_ClampsIndexPastEnd(t *testing.T) {
	items := []int{1, 2, 3}

	page, total := Paginate(items, 99, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, []int{3}, page)

	page, _ = Paginate(items, -5, 2)
	assert.Equal(t, []int{1, 2}, page)
}

func TestPager_NavigationGuards(t *testing.T) {
	p := NewPager(10)
	p.SetCount(25)
	require.Equal(t, 3, p.TotalPages())

	p.Prev()
	assert.Equal(t, 0, p.Index)

	p.Next()
	p.Next()
	assert.Equal(t, 2, p.Index)

	p.Next()
	assert.Equal(t, 2, p.Index, "next on last page is a no-op")
}

func TestPager_ShrinkingResultSetClampsIndex(t *testing.T) {
	p := NewPager(10)
	p.SetCount(50)
	p.GoTo(4)
	require.Equal(t, 4, p.Index)

	p.SetCount(15)
	assert.Equal(t, 1, p.Index)

	p.SetCount(0)
	assert.Equal(t, 0, p.Index)
	assert.Equal(t, 1, p.TotalPages())
}

func TestPager_GoToClamps(t *testing.T) {
	p := NewPager(5)
	p.SetCount(12)

	p.GoTo(99)
	assert.Equal(t, 2, p.Index)

	p.GoTo(-1)
	assert.Equal(t, 0, p.Index)
}
