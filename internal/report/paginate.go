package report

// TotalPages computes the page count for a collection, never less than 1
// so an empty table still renders a single empty page.
func TotalPages(itemCount, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	pages := (itemCount + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Paginate slices one page out of items. A page index beyond the end is
// clamped to the last page rather than rendering empty.
func Paginate[T any](items []T, pageIndex, pageSize int) (pageItems []T, totalPages int) {
	totalPages = TotalPages(len(items), pageSize)

	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageIndex > totalPages-1 {
		pageIndex = totalPages - 1
	}

	lo := pageIndex * pageSize
	if lo > len(items) {
		lo = len(items)
	}
	hi := lo + pageSize
	if hi > len(items) {
		hi = len(items)
	}

	return items[lo:hi], totalPages
}

// Pager tracks pagination state for a view and guards navigation at both
// ends.
type Pager struct {
	Index int
	Size  int

	totalPages int
}

// NewPager creates a pager with the configured page size.
func NewPager(size int) *Pager {
	if size <= 0 {
		size = 1
	}
	return &Pager{Size: size, totalPages: 1}
}

// SetCount recomputes the page count for a new filtered item count and
// clamps the current index so a shrinking result set cannot leave the
// pager pointing past the end.
func (p *Pager) SetCount(itemCount int) {
	p.totalPages = TotalPages(itemCount, p.Size)
	if p.Index > p.totalPages-1 {
		p.Index = p.totalPages - 1
	}
}

// TotalPages returns the current page count.
func (p *Pager) TotalPages() int {
	return p.totalPages
}

// Next advances one page; a no-op on the last page.
func (p *Pager) Next() {
	if p.Index < p.totalPages-1 {
		p.Index++
	}
}

// Prev steps back one page; a no-op on the first page.
func (p *Pager) Prev() {
	if p.Index > 0 {
		p.Index--
	}
}

// GoTo jumps to a page, clamped to the valid range.
func (p *Pager) GoTo(index int) {
	if index < 0 {
		index = 0
	}
	if index > p.totalPages-1 {
		index = p.totalPages - 1
	}
	p.Index = index
}
