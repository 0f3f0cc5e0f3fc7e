package desktop

import (
	"fmt"
	"slices"

	"github.com/wcatz/launcher-grid/internal/drag"
	"github.com/wcatz/launcher-grid/internal/folder"
	"github.com/wcatz/launcher-grid/internal/grid"
	"github.com/wcatz/launcher-grid/internal/signal"
)

type dockDrag struct {
	session *drag.Session
	key     string
}

// dockSurface exposes the dock as one row of equal slots, one per app.
type dockSurface struct{ d *Desktop }

func (c dockSurface) RelativeData() []grid.Item {
	return c.d.snap.Dock
}

func (c dockSurface) ItemIndexAt(x, y float64) int {
	area := c.d.dock.session.EffectArea
	if !area.Contains(x, y) {
		return drag.Invalid
	}
	return drag.NewAxes(area, 1, max(1, len(c.d.snap.Dock))).IndexAt(x, y)
}

func (c dockSurface) ItemByIndex(index int, data []grid.Item) (grid.Item, bool) {
	if index < 0 || index >= len(data) {
		return grid.Item{}, false
	}
	return data[index], true
}

// Dock returns a copy of the dock apps in display order.
func (d *Desktop) Dock() []grid.Item {
	return slices.Clone(d.snap.Dock)
}

// lookupApp finds an installed, visible app by key.
func (d *Desktop) lookupApp(key string) (grid.Item, error) {
	if d.hidden[key] {
		return grid.Item{}, fmt.Errorf("%w: %s", ErrHidden, key)
	}
	for _, app := range d.opts.Catalog.List() {
		if app.Key() == key {
			return appItem(app), nil
		}
	}
	return grid.Item{}, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// AddToDock docks an installed app before the app at index; an index out
// of range appends. A full dock or an app already docked is refused with
// a toast.
func (d *Desktop) AddToDock(key string, index int) error {
	app, err := d.lookupApp(key)
	if err != nil {
		return err
	}
	if n := len(d.snap.Dock); n >= d.opts.DockMax {
		d.bus.Toast.Set("No space in the dock")
		return fmt.Errorf("%w: %d of %d", ErrDockFull, n, d.opts.DockMax)
	}
	if d.snap.DockIndex(key) >= 0 {
		d.bus.Toast.Set(fmt.Sprintf("%s is already in the dock", app.Name))
		return fmt.Errorf("%w: %s in dock", ErrDuplicate, key)
	}
	return d.mutate("add to dock", func(s *grid.Snapshot, _ *grid.Pager) error {
		if index < 0 || index >= len(s.Dock) {
			s.Dock = append(s.Dock, app)
		} else {
			s.Dock = slices.Insert(s.Dock, index, app)
		}
		return nil
	})
}

// RemoveFromDock undocks an app. Its desktop entry, if any, stays.
func (d *Desktop) RemoveFromDock(key string) error {
	return d.mutate("remove from dock", func(s *grid.Snapshot, _ *grid.Pager) error {
		i := s.DockIndex(key)
		if i < 0 {
			return fmt.Errorf("%w: %s not in dock", ErrNotFound, key)
		}
		s.Dock = slices.Delete(s.Dock, i, i+1)
		return nil
	})
}

// MoveInDock moves the dock app at from to index to.
func (d *Desktop) MoveInDock(from, to int) error {
	n := len(d.snap.Dock)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("dock move %d->%d of %d: %w", from, to, n, grid.ErrBadIndex)
	}
	if from == to {
		return nil
	}
	return d.mutate("move in dock", func(s *grid.Snapshot, _ *grid.Pager) error {
		s.Dock = folder.Reorder(s.Dock, from, to)
		return nil
	})
}

// SetDockEffectArea sets the screen rectangle of the dock.
func (d *Desktop) SetDockEffectArea(r drag.Rect) {
	d.dock.session.EffectArea = r
}

// HandleDockPointer feeds a pointer event on the dock.
func (d *Desktop) HandleDockPointer(p drag.Pointer) {
	if p.Action == drag.Down {
		d.pressed = d.dock.session
	}
	drag.Handle[grid.Item](d.dock.session, dockSurface{d}, drag.Funcs[grid.Item]{
		Start: func(ev drag.Event[grid.Item]) {
			d.dock.key = ev.Item.Key
			d.bus.Drag.Set(signal.DragState{Active: true, Key: ev.Item.Key, Kind: ev.Item.Kind,
				At: signal.Point{X: ev.X, Y: ev.Y}})
		},
		Move: func(ev drag.Event[grid.Item]) {
			if d.dock.key == "" {
				return
			}
			st := d.bus.Drag.Get()
			st.At = signal.Point{X: ev.X, Y: ev.Y}
			d.bus.Drag.Set(st)
		},
		Drop: d.dockDrop,
		End: func(bool) {
			d.dock.key = ""
			d.bus.Drag.Set(signal.DragState{})
		},
	}, p)
}

// dockDrop reorders the dock when the drop lands inside it. An app dragged
// out leaves the dock, and lands on the desktop when released over it.
func (d *Desktop) dockDrop(ev drag.Event[grid.Item]) bool {
	key := d.dock.key
	if key == "" {
		if !ev.Found {
			return false
		}
		key = ev.Item.Key
	}

	if d.dock.session.EffectArea.Contains(ev.X, ev.Y) {
		from := d.snap.DockIndex(key)
		to := ev.Insert
		if to == drag.Invalid || to >= len(d.snap.Dock) {
			to = len(d.snap.Dock) - 1
		}
		if from < 0 || from == to {
			return false
		}
		if err := d.MoveInDock(from, to); err != nil {
			d.logger.Warn("dock reorder failed", "key", key, "error", err)
			return false
		}
		return true
	}

	var at *grid.Position
	if d.desk.session.EffectArea.Contains(ev.X, ev.Y) {
		row, col := d.desk.axes.CellAt(ev.X, ev.Y)
		at = &grid.Position{Page: d.pager.Active, Row: row, Column: col}
	}
	if err := d.dragOutOfDock(key, at); err != nil {
		d.logger.Info("drag out of dock rejected", "key", key, "error", err)
		return false
	}
	return true
}

// dragOutOfDock undocks key. With a desktop cell, an app not yet on the
// desktop is put there, or near the active page when the cell is taken.
func (d *Desktop) dragOutOfDock(key string, at *grid.Position) error {
	return d.mutate("drag out of dock", func(s *grid.Snapshot, p *grid.Pager) error {
		i := s.DockIndex(key)
		if i < 0 {
			return fmt.Errorf("%w: %s not in dock", ErrNotFound, key)
		}
		app := unplaced(s.Dock[i])
		s.Dock = slices.Delete(s.Dock, i, i+1)
		if at == nil || s.Contains(key) {
			return nil
		}
		if s.ItemAt(at.Page, at.Row, at.Column) < 0 {
			app.Position = *at
			s.Items = append(s.Items, app)
			return nil
		}
		_, err := grid.Place(s, app, grid.PolicyNearActive, p.Active)
		return err
	})
}

// dropIntoDock docks an app dragged from the desktop at the slot under the
// pointer. The desktop side of the drag ends as if nothing moved.
func (d *Desktop) dropIntoDock(it grid.Item, x, y float64) bool {
	d.finishDrag(it.Position, nil)
	if it.Kind != grid.KindApp {
		d.bus.Toast.Set("Only apps can be added to the dock")
		return false
	}
	if err := d.AddToDock(it.Key, dockSurface{d}.ItemIndexAt(x, y)); err != nil {
		d.logger.Info("drop into dock rejected", "key", it.Key, "error", err)
		return false
	}
	return true
}
