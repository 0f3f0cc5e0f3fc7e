package grid

import (
	"errors"
	"fmt"
)

// ErrMoveRejected is returned when a move cannot be carried out without
// overlapping or dropping an item. The input snapshot is left untouched.
var ErrMoveRejected = errors.New("grid: move rejected")

// SqueezeRules are the tunable thresholds of Squeeze.
type SqueezeRules struct {
	// Coverage is the minimum fraction of a pressed block's cells that the
	// dragged footprint must cover for a same-page move to go ahead.
	Coverage float64
	// CrossPageFree is how many free cells, beyond the dragged footprint
	// size, a destination on another page must have.
	CrossPageFree int
}

// DefaultSqueezeRules are the thresholds used by the desktop.
var DefaultSqueezeRules = SqueezeRules{Coverage: 0.5}

const empty = -1

// occupancy is a dense rows x cols map of one page. Each cell holds the
// index in Snapshot.Items of the item covering it, or empty.
type occupancy [][]int

func newOccupancy(s *Snapshot, page int) occupancy {
	g := s.Geometry
	o := make(occupancy, g.Rows)
	for r := range o {
		o[r] = make([]int, g.Columns)
		for c := range o[r] {
			o[r][c] = empty
		}
	}
	for i, it := range s.Items {
		if it.Position.Page != page {
			continue
		}
		o.fill(it.Position.Row, it.Position.Column, it.Area, i)
	}
	return o
}

func (o occupancy) fill(row, col int, a Area, v int) {
	for r := row; r < row+a.H && r < len(o); r++ {
		for c := col; c < col+a.W && c < len(o[r]); c++ {
			o[r][c] = v
		}
	}
}

func (o occupancy) clear(v int) {
	for r := range o {
		for c := range o[r] {
			if o[r][c] == v {
				o[r][c] = empty
			}
		}
	}
}

func (o occupancy) free() int {
	n := 0
	for r := range o {
		for c := range o[r] {
			if o[r][c] == empty {
				n++
			}
		}
	}
	return n
}

func (o occupancy) fits(row, col int, a Area) bool {
	if row+a.H > len(o) || len(o) == 0 || col+a.W > len(o[0]) {
		return false
	}
	for r := row; r < row+a.H; r++ {
		for c := col; c < col+a.W; c++ {
			if o[r][c] != empty {
				return false
			}
		}
	}
	return true
}

// firstFit scans row-major for the first origin where a fits.
func (o occupancy) firstFit(a Area) (int, int, bool) {
	for r := range o {
		for c := range o[r] {
			if o.fits(r, c, a) {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// Squeeze moves s.Items[idx] so that its origin lands on to, relocating
// whatever it covers on the destination page. On success it returns a new
// snapshot; s itself is never modified.
//
// A same-page move is allowed when the dragged footprint covers no
// multi-cell item, when a single app lands on a single widget, or when
// every covered multi-cell item has at least rules.Coverage of its cells
// under the footprint. A move to another page needs as many free cells on
// the destination as the dragged footprint. Covered multi-cell items go to
// the first row-major origin with room for their full footprint and
// covered apps to the first free cell; if any of them finds no room the
// move is rejected.
func Squeeze(s *Snapshot, idx int, to Position, rules SqueezeRules) (*Snapshot, error) {
	if idx < 0 || idx >= len(s.Items) {
		return nil, fmt.Errorf("%w: no item %d", ErrMoveRejected, idx)
	}
	src := s.Items[idx]
	g := s.Geometry
	if to.Page < 0 || to.Page >= g.PageCount || to.Row < 0 || to.Column < 0 ||
		to.Row+src.Area.H > g.Rows || to.Column+src.Area.W > g.Columns {
		return nil, fmt.Errorf("%w: %s %q does not fit at %s", ErrMoveRejected, src.Kind, src.Key, to)
	}

	out := s.Clone()
	cells := newOccupancy(out, to.Page)
	samePage := src.Position.Page == to.Page

	// Distinct items under the destination footprint, in row-major order
	// of first contact, with the number of their cells covered.
	var pressed []int
	covered := make(map[int]int)
	for r := to.Row; r < to.Row+src.Area.H; r++ {
		for c := to.Column; c < to.Column+src.Area.W; c++ {
			v := cells[r][c]
			if v == empty || v == idx {
				continue
			}
			if covered[v] == 0 {
				pressed = append(pressed, v)
			}
			covered[v]++
		}
	}
	var units, blocks []int
	for _, v := range pressed {
		if out.Items[v].IsUnit() {
			units = append(units, v)
		} else {
			blocks = append(blocks, v)
		}
	}

	if samePage {
		if !sameFeasible(out, src, blocks, covered, rules) {
			return nil, fmt.Errorf("%w: %s %q covers too little of its target", ErrMoveRejected, src.Kind, src.Key)
		}
	} else if cells.free() < src.Area.Cells()+rules.CrossPageFree {
		return nil, fmt.Errorf("%w: page %d has %d free cells", ErrMoveRejected, to.Page, cells.free())
	}

	if samePage {
		cells.clear(idx)
	}
	for _, v := range pressed {
		cells.clear(v)
	}
	cells.fill(to.Row, to.Column, src.Area, idx)
	out.Items[idx].Position = to

	for _, v := range blocks {
		it := &out.Items[v]
		r, c, ok := cells.firstFit(it.Area)
		if !ok {
			return nil, fmt.Errorf("%w: no room left for %s %q", ErrMoveRejected, it.Kind, it.Key)
		}
		cells.fill(r, c, it.Area, v)
		it.Position = Position{Page: to.Page, Row: r, Column: c}
	}
	for _, v := range units {
		it := &out.Items[v]
		r, c, ok := cells.firstFit(Unit)
		if !ok {
			return nil, fmt.Errorf("%w: no room left for %s %q", ErrMoveRejected, it.Kind, it.Key)
		}
		cells.fill(r, c, Unit, v)
		it.Position = Position{Page: to.Page, Row: r, Column: c}
	}
	return out, nil
}

func sameFeasible(s *Snapshot, src Item, blocks []int, covered map[int]int, rules SqueezeRules) bool {
	if len(blocks) == 0 {
		return true
	}
	if len(blocks) == 1 && src.Kind == KindApp && s.Items[blocks[0]].Kind == KindWidget {
		return true
	}
	for _, v := range blocks {
		total := s.Items[v].Area.Cells()
		if float64(covered[v]) < rules.Coverage*float64(total) {
			return false
		}
	}
	return true
}
