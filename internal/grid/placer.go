package grid

import (
	"errors"
	"fmt"
)

var (
	ErrNoRoom   = errors.New("grid: no room for item")
	ErrBadArea  = errors.New("grid: item area does not fit the grid")
	ErrBadIndex = errors.New("grid: page index out of range")
)

// Policy selects the page range scanned when placing an item.
type Policy int

const (
	// PolicyInstall scans every page before appending a new last page.
	PolicyInstall Policy = iota
	// PolicyNearActive scans the active page and the one after it. When
	// neither has room a blank page is inserted right after the active one.
	PolicyNearActive
	// PolicyActivePage scans the active page only and falls back to
	// PolicyInstall.
	PolicyActivePage
)

func (p Policy) String() string {
	switch p {
	case PolicyInstall:
		return "install"
	case PolicyNearActive:
		return "near-active"
	case PolicyActivePage:
		return "active-page"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Placement reports where Place put an item.
type Placement struct {
	Position Position
	// NewPage is the index of the page created to hold the item, or -1.
	NewPage int
}

// Fits reports whether an item of area a can sit at pos without leaving
// the grid or covering another item. Items whose key is listed in ignore
// are treated as absent.
func (s *Snapshot) Fits(pos Position, a Area, ignore ...string) bool {
	g := s.Geometry
	if pos.Row < 0 || pos.Column < 0 || pos.Page < 0 {
		return false
	}
	if pos.Row+a.H > g.Rows || pos.Column+a.W > g.Columns {
		return false
	}
	cand := Item{Position: pos, Area: a}
	for _, it := range s.Items {
		if it.Position.Page != pos.Page || contains(ignore, it.Key) {
			continue
		}
		if cand.Overlaps(it) {
			return false
		}
	}
	return true
}

func contains(keys []string, k string) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}

// FindSlot returns the first origin on pages first..last, scanned page by
// page then row-major, where an item of area a fits.
func (s *Snapshot) FindSlot(a Area, first, last int, ignore ...string) (Position, bool) {
	c := NewCursor(s.Geometry.Rows, s.Geometry.Columns, first, last)
	for c.Next() {
		pos := c.Position()
		if s.Fits(pos, a, ignore...) {
			return pos, true
		}
	}
	return Position{}, false
}

// FreeCells counts the cells of a page not covered by any item.
func (s *Snapshot) FreeCells(page int) int {
	g := s.Geometry
	free := g.Rows * g.Columns
	for _, it := range s.Items {
		if it.Position.Page == page {
			free -= it.Area.Cells()
		}
	}
	return free
}

// Place finds a slot for it under the policy, appends it to s.Items and
// grows the page set when no existing page has room. active is only
// consulted by the near-active and active-page policies.
func Place(s *Snapshot, it Item, policy Policy, active int) (Placement, error) {
	g := s.Geometry
	if it.Area.W <= 0 || it.Area.H <= 0 || it.Area.W > g.Columns || it.Area.H > g.Rows {
		return Placement{}, fmt.Errorf("placing %s %q %dx%d: %w", it.Kind, it.Key, it.Area.W, it.Area.H, ErrBadArea)
	}
	if s.Geometry.PageCount < 1 {
		s.Geometry.PageCount = 1
	}
	last := s.Geometry.PageCount - 1
	if active < 0 {
		active = 0
	}
	if active > last {
		active = last
	}

	pl := Placement{NewPage: -1}
	var ok bool
	switch policy {
	case PolicyNearActive:
		pl.Position, ok = s.FindSlot(it.Area, active, min(active+1, last))
		if !ok {
			InsertPage(s, active+1)
			pl.Position = Position{Page: active + 1}
			pl.NewPage = active + 1
			ok = true
		}
	case PolicyActivePage:
		pl.Position, ok = s.FindSlot(it.Area, active, active)
	}
	if !ok {
		pl.Position, ok = s.FindSlot(it.Area, 0, last)
	}
	if !ok {
		pl.Position = Position{Page: s.Geometry.PageCount}
		pl.NewPage = s.Geometry.PageCount
		s.Geometry.PageCount++
	}

	it.Position = pl.Position
	s.Items = append(s.Items, it)
	return pl, nil
}

// InsertPage inserts a blank page at index page, moving every item on that
// page or later one page further.
func InsertPage(s *Snapshot, page int) {
	for i := range s.Items {
		if s.Items[i].Position.Page >= page {
			s.Items[i].Position.Page++
		}
	}
	s.Geometry.PageCount++
}
