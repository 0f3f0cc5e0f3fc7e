// Package folder pages the flat member list of a folder into fixed-size
// pages and keeps the trailing "add" sentinel in place while the folder is
// open for editing.
package folder

// Capacity is the number of members one folder page holds.
func Capacity(rows, cols int) int {
	if rows <= 0 || cols <= 0 {
		return 0
	}
	return rows * cols
}

// Paginate splits items into pages of capacity entries; the last page may
// be short. A non-positive capacity yields a single page. An empty input
// yields one empty page.
func Paginate[T any](items []T, capacity int) [][]T {
	if capacity <= 0 || len(items) <= capacity {
		page := make([]T, len(items))
		copy(page, items)
		return [][]T{page}
	}
	pages := make([][]T, 0, (len(items)+capacity-1)/capacity)
	for start := 0; start < len(items); start += capacity {
		end := min(start+capacity, len(items))
		page := make([]T, end-start)
		copy(page, items[start:end])
		pages = append(pages, page)
	}
	return pages
}

// Flatten concatenates pages back into one ordered list.
func Flatten[T any](pages [][]T) []T {
	var out []T
	for _, page := range pages {
		out = append(out, page...)
	}
	return out
}

// Append adds item after the last member, opening a new page when the last
// one is full. The last page's backing array may be reused.
func Append[T any](pages [][]T, item T, capacity int) [][]T {
	if len(pages) == 0 {
		return [][]T{{item}}
	}
	last := len(pages) - 1
	if capacity > 0 && len(pages[last]) >= capacity {
		return append(pages, []T{item})
	}
	pages[last] = append(pages[last], item)
	return pages
}

// Reorder moves the element at from to index to, shifting the ones in
// between. Out-of-range indices are clamped; the input is not modified.
func Reorder[T any](items []T, from, to int) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) < 2 || from < 0 || from >= len(out) {
		return out
	}
	to = max(0, min(to, len(out)-1))
	if from == to {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out
}

// AddSentinel appends the sentinel after the last member, on a new page if
// the last one is full.
func AddSentinel[T any](pages [][]T, sentinel T, capacity int) [][]T {
	return Append(pages, sentinel, capacity)
}

// StripSentinel removes every element matching isSentinel and re-pages the
// rest.
func StripSentinel[T any](pages [][]T, capacity int, isSentinel func(T) bool) [][]T {
	var kept []T
	for _, it := range Flatten(pages) {
		if !isSentinel(it) {
			kept = append(kept, it)
		}
	}
	return Paginate(kept, capacity)
}
