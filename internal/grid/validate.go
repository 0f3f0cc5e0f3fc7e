package grid

import (
	"errors"
	"fmt"

	"github.com/wcatz/launcher-grid/internal/folder"
)

var (
	ErrEmpty         = errors.New("grid: layout is empty")
	ErrGeometry      = errors.New("grid: geometry mismatch")
	ErrOutOfBounds   = errors.New("grid: item out of bounds")
	ErrOverlap       = errors.New("grid: items overlap")
	ErrDuplicateApp  = errors.New("grid: duplicate app")
	ErrPageCoverage  = errors.New("grid: item beyond page count")
	ErrStraySentinel = errors.New("grid: add sentinel in layout")
	ErrBadDock       = errors.New("grid: invalid dock entry")
)

// Validate checks a loaded layout against the current grid shape. A nil
// result means the snapshot can be used as is; any error means it must be
// rebuilt.
func Validate(s *Snapshot, rows, cols int) error {
	if s == nil || s.Geometry.Rows <= 0 || s.Geometry.Columns <= 0 {
		return ErrEmpty
	}
	if s.Geometry.Rows != rows || s.Geometry.Columns != cols {
		return fmt.Errorf("%w: layout is %dx%d, grid is %dx%d",
			ErrGeometry, s.Geometry.Rows, s.Geometry.Columns, rows, cols)
	}
	return check(s, false)
}

// Check verifies a snapshot produced by a mutation: bounds, overlap,
// unique apps and that every item lies within the page count.
func Check(s *Snapshot) error {
	if s == nil || s.Geometry.Rows <= 0 || s.Geometry.Columns <= 0 {
		return ErrEmpty
	}
	return check(s, true)
}

func check(s *Snapshot, coverage bool) error {
	g := s.Geometry
	apps := make(map[string]bool)
	seeApp := func(key string) error {
		if apps[key] {
			return fmt.Errorf("%w: %q", ErrDuplicateApp, key)
		}
		apps[key] = true
		return nil
	}

	for i, it := range s.Items {
		p := it.Position
		if p.Page < 0 || p.Row < 0 || p.Column < 0 || it.Area.W <= 0 || it.Area.H <= 0 ||
			p.Row+it.Area.H > g.Rows || p.Column+it.Area.W > g.Columns {
			return fmt.Errorf("%w: %s %q at %s", ErrOutOfBounds, it.Kind, it.Key, p)
		}
		if coverage && p.Page >= g.PageCount {
			return fmt.Errorf("%w: %s %q on page %d of %d", ErrPageCoverage, it.Kind, it.Key, p.Page, g.PageCount)
		}
		for _, o := range s.Items[i+1:] {
			if it.Overlaps(o) {
				return fmt.Errorf("%w: %q and %q on page %d", ErrOverlap, it.Key, o.Key, p.Page)
			}
		}
		switch it.Kind {
		case KindAdd:
			return ErrStraySentinel
		case KindApp:
			if err := seeApp(it.Key); err != nil {
				return err
			}
		case KindFolder:
			if it.Folder == nil {
				return fmt.Errorf("%w: folder %q has no contents", ErrEmpty, it.Key)
			}
			for _, page := range it.Folder.Pages {
				for _, child := range page {
					if child.Kind == KindAdd {
						return ErrStraySentinel
					}
					if err := seeApp(child.Key); err != nil {
						return err
					}
				}
			}
		}
	}
	return checkDock(s.Dock)
}

// checkDock requires the dock to hold distinct apps.
func checkDock(dock []Item) error {
	seen := make(map[string]bool, len(dock))
	for _, it := range dock {
		if it.Kind != KindApp || it.Key == "" {
			return fmt.Errorf("%w: %s %q", ErrBadDock, it.Kind, it.Key)
		}
		if seen[it.Key] {
			return fmt.Errorf("%w: %q twice", ErrBadDock, it.Key)
		}
		seen[it.Key] = true
	}
	return nil
}

// Rebuild synthesizes a fresh layout: every entry is placed in order with
// the install policy on a page set sized ceil(len/(rows*cols)). Entries
// that are not unit sized go after the unit ones.
func Rebuild(rows, cols int, entries []Item) *Snapshot {
	s := New(rows, cols)
	units := 0
	for _, it := range entries {
		if it.IsUnit() {
			units++
		}
	}
	if per := rows * cols; per > 0 && units > per {
		s.Geometry.PageCount = (units + per - 1) / per
	}

	var blocks []Item
	for _, it := range entries {
		it.Position = Position{}
		if !it.IsUnit() {
			blocks = append(blocks, it)
			continue
		}
		it.Area = Unit
		Place(s, it, PolicyInstall, 0)
	}
	for _, it := range blocks {
		// Blocks that no longer fit the grid are dropped.
		Place(s, it, PolicyInstall, 0)
	}
	return s
}

// Report lists what Reconcile changed. Every entry is an item key: app
// keys for apps and folder members, widget keys for widgets and folder
// ids for folders.
type Report struct {
	Added     []string
	Removed   []string
	Dissolved []string
	// Undocked are the dock apps dropped because they are gone.
	Undocked []string
	// DeletedPages are the indices of pages dropped because removals
	// emptied them, in the order they were deleted.
	DeletedPages []int
}

// Changed reports whether the reconcile touched the snapshot.
func (r Report) Changed() bool {
	return len(r.Added)+len(r.Removed)+len(r.Dissolved)+len(r.Undocked)+len(r.DeletedPages) > 0
}

// Reconcile brings a valid snapshot in line with the installed app set.
// Apps no longer installed are dropped from the desktop and from folders,
// folders left with one app dissolve into it, widgets whose source is gone
// are removed, pages emptied by those removals are deleted, and installed
// apps missing from the layout are appended with the install policy.
// Folders that lose members are re-paged at folderCapacity apps per page.
// Dock apps that are no longer installed leave the dock.
func Reconcile(s *Snapshot, installed []Item, folderCapacity int) Report {
	var r Report
	known := make(map[string]bool, len(installed))
	for _, it := range installed {
		known[it.Key] = true
	}

	if s.Dock != nil {
		dock := s.Dock[:0]
		for _, it := range s.Dock {
			if known[it.Key] {
				dock = append(dock, it)
			} else {
				r.Undocked = append(r.Undocked, it.Key)
			}
		}
		s.Dock = dock
	}

	emptied := make(map[int]bool)
	kept := s.Items[:0]
	var dissolved []Item
	for _, it := range s.Items {
		switch it.Kind {
		case KindApp:
			if !known[it.Key] {
				r.Removed = append(r.Removed, it.Key)
				emptied[it.Position.Page] = true
				continue
			}
		case KindWidget:
			if it.Widget != nil && it.Widget.Source != "" && !known[it.Widget.Source] {
				r.Removed = append(r.Removed, it.Key)
				emptied[it.Position.Page] = true
				continue
			}
		case KindFolder:
			var left []Item
			for _, child := range it.Apps() {
				if known[child.Key] {
					left = append(left, child)
				} else {
					r.Removed = append(r.Removed, child.Key)
				}
			}
			switch {
			case len(left) == 0:
				r.Dissolved = append(r.Dissolved, it.Key)
				emptied[it.Position.Page] = true
				continue
			case len(left) == 1:
				r.Dissolved = append(r.Dissolved, it.Key)
				app := left[0]
				app.Position = it.Position
				app.Area = Unit
				dissolved = append(dissolved, app)
				continue
			case len(left) < len(it.Apps()):
				it.Folder.Pages = folder.Paginate(left, folderCapacity)
			}
		}
		kept = append(kept, it)
	}
	s.Items = append(kept, dissolved...)

	// Delete emptied pages from the highest index down so lower indices
	// stay valid.
	for p := s.Geometry.PageCount - 1; p >= 0; p-- {
		if emptied[p] && DeleteBlankPage(s, p) {
			r.DeletedPages = append(r.DeletedPages, p)
		}
	}

	CoverPages(s)
	for _, it := range installed {
		if s.Contains(it.Key) {
			continue
		}
		it.Area = Unit
		Place(s, it, PolicyInstall, 0)
		r.Added = append(r.Added, it.Key)
	}
	return r
}

// CoverPages grows PageCount so that every item's page is in range.
func CoverPages(s *Snapshot) {
	for _, it := range s.Items {
		if it.Position.Page >= s.Geometry.PageCount {
			s.Geometry.PageCount = it.Position.Page + 1
		}
	}
	if s.Geometry.PageCount < 1 {
		s.Geometry.PageCount = 1
	}
}
