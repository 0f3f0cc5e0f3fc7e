package grid

import "fmt"

// IsBlank reports whether no item sits on the page.
func IsBlank(s *Snapshot, page int) bool {
	for _, it := range s.Items {
		if it.Position.Page == page {
			return false
		}
	}
	return true
}

// AddBlankPage appends an empty page and returns its index.
func AddBlankPage(s *Snapshot) int {
	s.Geometry.PageCount++
	return s.Geometry.PageCount - 1
}

// DeleteBlankPage drops page if it holds no items and is not the only
// page. Items on later pages move one page down. It reports whether the
// page was deleted.
func DeleteBlankPage(s *Snapshot, page int) bool {
	if page < 0 || page >= s.Geometry.PageCount || s.Geometry.PageCount <= 1 || !IsBlank(s, page) {
		return false
	}
	for i := range s.Items {
		if s.Items[i].Position.Page > page {
			s.Items[i].Position.Page--
		}
	}
	s.Geometry.PageCount--
	return true
}

// Pages buckets items per page, row-major inside a page. The result has
// max(PageCount, highest item page + 1) entries so stray items stay
// visible.
func Pages(s *Snapshot) [][]Item {
	n := s.Geometry.PageCount
	for _, it := range s.Items {
		if it.Position.Page >= n {
			n = it.Position.Page + 1
		}
	}
	out := make([][]Item, n)
	for p := range out {
		out[p] = s.OnPage(p)
		if out[p] == nil {
			out[p] = []Item{}
		}
	}
	return out
}

// Pager tracks the active page and keeps it consistent while pages are
// added and removed.
type Pager struct {
	Active int
	// DragPage is set while a page appended for an in-flight drag exists.
	DragPage bool
}

// Clamp forces Active into [0, PageCount).
func (p *Pager) Clamp(s *Snapshot) {
	if p.Active >= s.Geometry.PageCount {
		p.Active = s.Geometry.PageCount - 1
	}
	if p.Active < 0 {
		p.Active = 0
	}
}

// SetActive moves to page i.
func (p *Pager) SetActive(s *Snapshot, i int) error {
	if i < 0 || i >= s.Geometry.PageCount {
		return fmt.Errorf("%w: %d of %d", ErrBadIndex, i, s.Geometry.PageCount)
	}
	p.Active = i
	return nil
}

// AddBlank appends a page and makes it active.
func (p *Pager) AddBlank(s *Snapshot) {
	p.Active = AddBlankPage(s)
}

// AddForDrag appends a page for a drag that reached the last page. The
// page is dropped again by AfterDrop unless the drop lands on it.
func (p *Pager) AddForDrag(s *Snapshot) {
	p.AddBlank(s)
	p.DragPage = true
}

// DeleteBlank deletes a blank page and shifts the active index when the
// deleted page was at or before it.
func (p *Pager) DeleteBlank(s *Snapshot, page int) bool {
	if !DeleteBlankPage(s, page) {
		return false
	}
	if page <= p.Active {
		p.Active--
	}
	p.Clamp(s)
	return true
}

// Toggle deletes the active page when it is blank and appends a new
// active page otherwise.
func (p *Pager) Toggle(s *Snapshot) {
	if IsBlank(s, p.Active) && p.DeleteBlank(s, p.Active) {
		return
	}
	p.AddBlank(s)
}

// AfterDrop cleans up pages once a drag has finished. start is where the
// dragged item came from; end is where it went, nil when it did not land
// on the grid.
func (p *Pager) AfterDrop(s *Snapshot, start Position, end *Position) {
	if p.DragPage {
		p.DragPage = false
		last := s.Geometry.PageCount - 1
		if (end == nil || end.Page != last) && IsBlank(s, last) && DeleteBlankPage(s, last) {
			if p.Active > last-1 {
				p.Active = last - 1
			}
		}
	}

	deleted := DeleteBlankPage(s, start.Page)
	switch {
	case end == nil:
		p.Active = start.Page
	case deleted && start.Page > end.Page:
		p.Active = end.Page
	case deleted && end.Page > start.Page:
		p.Active = end.Page - 1
	}
	p.Clamp(s)
}
