// Package grid holds the paginated home-screen layout: geometry, placed
// items, the occupancy tests they share, and the solvers that place, move
// and squeeze items across pages.
//
// Every function here is pure with respect to its inputs except where the
// doc says it mutates the snapshot. Callers that need all-or-nothing
// semantics work on a Clone and commit it afterwards.
package grid

import (
	"fmt"
	"sort"
)

// Kind tags the variant carried by an Item. The numeric values are the
// persisted typeId.
type Kind int

const (
	KindApp      Kind = 0
	KindWidget   Kind = 1
	KindFunction Kind = 2
	KindFolder   Kind = 3
	// KindAdd is the "add" sentinel shown at the end of an open folder.
	// It never appears in a committed snapshot.
	KindAdd Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindApp:
		return "app"
	case KindWidget:
		return "widget"
	case KindFunction:
		return "function"
	case KindFolder:
		return "folder"
	case KindAdd:
		return "add"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Geometry is the page/row/column shape of the desktop.
type Geometry struct {
	PageCount int `json:"pageCount"`
	Rows      int `json:"rows"`
	Columns   int `json:"columns"`
}

// Area is an item footprint in cells: W columns wide, H rows tall.
type Area struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Cells returns the number of cells covered by the area.
func (a Area) Cells() int { return a.W * a.H }

// Unit is the 1x1 footprint of apps and function items.
var Unit = Area{W: 1, H: 1}

// Position is the top-left cell of an item.
type Position struct {
	Page   int `json:"page"`
	Row    int `json:"row"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.Page, p.Row, p.Column)
}

// Folder is the payload of a KindFolder item.
type Folder struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Pages [][]Item `json:"pages"`
}

// Widget is the payload of a KindWidget item.
type Widget struct {
	ID        int    `json:"id"`
	Dimension string `json:"dimension,omitempty"`
	// Source is the key of the app that provides the widget.
	Source string `json:"source,omitempty"`
}

// Item is a placed desktop entry.
type Item struct {
	Kind       Kind     `json:"kind"`
	Key        string   `json:"key"`
	BundleName string   `json:"bundleName,omitempty"`
	Name       string   `json:"name,omitempty"`
	Position   Position `json:"position"`
	Area       Area     `json:"area"`
	Badge      int      `json:"badge,omitempty"`
	Folder     *Folder  `json:"folder,omitempty"`
	Widget     *Widget  `json:"widget,omitempty"`
}

// IsUnit reports whether the item is relocated cell by cell during a
// squeeze rather than as a block.
func (it Item) IsUnit() bool {
	return it.Kind == KindApp || it.Kind == KindFunction
}

// Covers reports whether the item's footprint contains the cell.
func (it Item) Covers(page, row, col int) bool {
	p := it.Position
	return p.Page == page &&
		row >= p.Row && row < p.Row+it.Area.H &&
		col >= p.Column && col < p.Column+it.Area.W
}

// Overlaps reports whether two footprints share a cell.
func (it Item) Overlaps(o Item) bool {
	a, b := it.Position, o.Position
	if a.Page != b.Page {
		return false
	}
	return a.Row < b.Row+o.Area.H && b.Row < a.Row+it.Area.H &&
		a.Column < b.Column+o.Area.W && b.Column < a.Column+it.Area.W
}

// Clone returns a deep copy.
func (it Item) Clone() Item {
	if it.Folder != nil {
		f := *it.Folder
		f.Pages = clonePages(it.Folder.Pages)
		it.Folder = &f
	}
	if it.Widget != nil {
		w := *it.Widget
		it.Widget = &w
	}
	return it
}

func clonePages(pages [][]Item) [][]Item {
	if pages == nil {
		return nil
	}
	out := make([][]Item, len(pages))
	for i, page := range pages {
		out[i] = make([]Item, len(page))
		for j, it := range page {
			out[i][j] = it.Clone()
		}
	}
	return out
}

// Apps returns the flattened member list of a folder item, nil otherwise.
func (it Item) Apps() []Item {
	if it.Folder == nil {
		return nil
	}
	var out []Item
	for _, page := range it.Folder.Pages {
		for _, child := range page {
			if child.Kind != KindAdd {
				out = append(out, child)
			}
		}
	}
	return out
}

// Snapshot is the unit that is loaded, validated, mutated and persisted.
//
// Dock is the resident dock in display order. Its entries are apps that
// may also sit on the desktop; they carry no grid position.
type Snapshot struct {
	Geometry Geometry `json:"geometry"`
	Items    []Item   `json:"items"`
	Dock     []Item   `json:"dock,omitempty"`
}

// New returns an empty single-page snapshot.
func New(rows, cols int) *Snapshot {
	return &Snapshot{Geometry: Geometry{PageCount: 1, Rows: rows, Columns: cols}}
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{Geometry: s.Geometry, Items: make([]Item, len(s.Items))}
	for i, it := range s.Items {
		c.Items[i] = it.Clone()
	}
	if s.Dock != nil {
		c.Dock = make([]Item, len(s.Dock))
		copy(c.Dock, s.Dock)
	}
	return c
}

// Index returns the position of the item with the given kind and key in
// s.Items, or -1.
func (s *Snapshot) Index(kind Kind, key string) int {
	for i, it := range s.Items {
		if it.Kind == kind && it.Key == key {
			return i
		}
	}
	return -1
}

// DockIndex returns the position of the app in the dock, or -1.
func (s *Snapshot) DockIndex(appKey string) int {
	for i, it := range s.Dock {
		if it.Key == appKey {
			return i
		}
	}
	return -1
}

// Find returns the top-level item for key regardless of kind.
func (s *Snapshot) Find(key string) (Item, bool) {
	for _, it := range s.Items {
		if it.Key == key {
			return it, true
		}
	}
	return Item{}, false
}

// FolderOf returns the index of the folder holding the app, or -1.
func (s *Snapshot) FolderOf(appKey string) int {
	for i, it := range s.Items {
		if it.Kind != KindFolder {
			continue
		}
		for _, child := range it.Apps() {
			if child.Key == appKey {
				return i
			}
		}
	}
	return -1
}

// Contains reports whether an app is on the desktop, directly or inside a
// folder.
func (s *Snapshot) Contains(appKey string) bool {
	return s.Index(KindApp, appKey) >= 0 || s.FolderOf(appKey) >= 0
}

// Remove deletes s.Items[i] and returns it.
func (s *Snapshot) Remove(i int) Item {
	it := s.Items[i]
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	return it
}

// OnPage returns the items on a page in row-major order of their origin.
func (s *Snapshot) OnPage(page int) []Item {
	var out []Item
	for _, it := range s.Items {
		if it.Position.Page == page {
			out = append(out, it)
		}
	}
	sortRowMajor(out)
	return out
}

func sortRowMajor(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Position, items[j].Position
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Column < b.Column
	})
}

// ItemAt returns the index in s.Items of the item covering the cell, or -1.
// Unit items match on their exact cell; multi-cell items on their rectangle.
func (s *Snapshot) ItemAt(page, row, col int) int {
	for i, it := range s.Items {
		if it.Area == Unit {
			p := it.Position
			if p.Page == page && p.Row == row && p.Column == col {
				return i
			}
			continue
		}
		if it.Covers(page, row, col) {
			return i
		}
	}
	return -1
}
