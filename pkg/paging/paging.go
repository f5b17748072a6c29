// Package paging implements the offset and page-number windowing shared by
// both repositories.
package paging

// Slice returns the contiguous window [skip, skip+limit) of items. Negative
// arguments are treated as zero; a window past the end is empty.
func Slice[T any](items []T, skip, limit int) []T {
	start, end := Window(len(items), skip, limit)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// Window returns the bounds of the [skip, skip+limit) window clipped to total
func Window(total, skip, limit int) (start, end int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	if skip > total {
		skip = total
	}
	end = skip + limit
	if end > total || end < skip {
		end = total
	}
	return skip, end
}

// TotalPages returns ceil(total/size). A non-positive size yields zero pages.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Page describes a resolved 1-based page
type Page struct {
	Number     int
	Size       int
	TotalPages int
	Total      int
}

// Resolve clamps number into [1, TotalPages]. An empty collection resolves to page 1.
func Resolve(number, size, total int) Page {
	if size < 1 {
		size = 1
	}
	pages := TotalPages(total, size)
	if number > pages {
		number = pages
	}
	if number < 1 {
		number = 1
	}
	return Page{
		Number:     number,
		Size:       size,
		TotalPages: pages,
		Total:      total,
	}
}

// Offset returns the number of items preceding the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasNext reports whether a later page exists
func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

// HasPrev reports whether an earlier page exists
func (p Page) HasPrev() bool {
	return p.Number > 1
}
