package desktop

import (
	"github.com/wcatz/launcher-grid/internal/drag"
	"github.com/wcatz/launcher-grid/internal/grid"
	"github.com/wcatz/launcher-grid/internal/signal"
)

// deskDrag is the drag surface over the active desktop page.
type deskDrag struct {
	session *drag.Session
	axes    drag.Axes

	// Set between DragStart and DragEnd.
	key              string
	grabRow, grabCol int
}

// deskSurface exposes the active page to the drag state machine.
type deskSurface struct{ d *Desktop }

func (c deskSurface) RelativeData() []grid.Item {
	return c.d.snap.OnPage(c.d.pager.Active)
}

func (c deskSurface) ItemIndexAt(x, y float64) int {
	return c.d.desk.axes.IndexAt(x, y)
}

func (c deskSurface) ItemByIndex(index int, data []grid.Item) (grid.Item, bool) {
	if index == drag.Invalid {
		return grid.Item{}, false
	}
	row, col := c.d.desk.axes.Cell(index)
	return itemAt(data, row, col)
}

// itemAt finds the item covering a cell among the items of one page.
func itemAt(items []grid.Item, row, col int) (grid.Item, bool) {
	for _, it := range items {
		p := it.Position
		if it.Area == grid.Unit {
			if p.Row == row && p.Column == col {
				return it, true
			}
			continue
		}
		if it.Covers(p.Page, row, col) {
			return it, true
		}
	}
	return grid.Item{}, false
}

// SetEffectArea sets the screen rectangle of the desktop grid.
func (d *Desktop) SetEffectArea(r drag.Rect) {
	d.desk.session.EffectArea = r
	d.desk.axes = drag.NewAxes(r, d.opts.Grid.Rows, d.opts.Grid.Columns)
}

// SetLongPress raises or clears the long-press flag of the surface in use:
// the open folder if there is one, otherwise the dock or the desktop,
// whichever saw the last pointer down.
func (d *Desktop) SetLongPress(on bool) {
	switch {
	case d.openID != "":
		d.fold.session.LongPress = on
	case d.pressed == d.dock.session:
		d.dock.session.LongPress = on
	default:
		d.desk.session.LongPress = on
	}
	d.bus.LongPress.Set(on)
}

// HandlePointer feeds a pointer event on the desktop grid.
func (d *Desktop) HandlePointer(p drag.Pointer) {
	if p.Action == drag.Down {
		d.pressed = d.desk.session
	}
	drag.Handle[grid.Item](d.desk.session, deskSurface{d}, drag.Funcs[grid.Item]{
		Enter: func(drag.Event[grid.Item]) { d.bus.Overlay.Set(true) },
		Leave: func(drag.Event[grid.Item]) { d.bus.Overlay.Set(false) },
		Start: d.deskDragStart,
		Move:  d.deskDragMove,
		Drop:  d.deskDrop,
		End:   d.deskDragEnd,
	}, p)
}

func (d *Desktop) deskDragStart(ev drag.Event[grid.Item]) {
	row, col := d.desk.axes.Cell(ev.Selected)
	d.desk.key = ev.Item.Key
	d.desk.grabRow = row - ev.Item.Position.Row
	d.desk.grabCol = col - ev.Item.Position.Column
	d.bus.Drag.Set(signal.DragState{
		Active: true,
		Key:    ev.Item.Key,
		Kind:   ev.Item.Kind,
		At:     signal.Point{X: ev.X, Y: ev.Y},
		From:   ev.Item.Position,
	})
}

func (d *Desktop) deskDragMove(ev drag.Event[grid.Item]) {
	if d.desk.key == "" {
		return
	}
	st := d.bus.Drag.Get()
	st.At = signal.Point{X: ev.X, Y: ev.Y}
	d.bus.Drag.Set(st)
}

func (d *Desktop) deskDragEnd(bool) {
	d.desk.key = ""
	d.desk.grabRow, d.desk.grabCol = 0, 0
	d.bus.Drag.Set(signal.DragState{})
	d.bus.Overlay.Set(false)
}

// deskDrop lands the dragged item on the active page. The drop cell is
// shifted back by the grab offset and clamped so the footprint stays on
// the grid. A 1x1 app dropped on another app forms a folder, on a folder
// joins it; anything else goes through the squeeze resolver. An app
// released over the dock is docked and keeps its desktop cell.
func (d *Desktop) deskDrop(ev drag.Event[grid.Item]) bool {
	it, ok := d.draggedItem(ev)
	if !ok {
		return false
	}
	if !d.desk.session.EffectArea.Contains(ev.X, ev.Y) && d.dock.session.EffectArea.Contains(ev.X, ev.Y) {
		return d.dropIntoDock(it, ev.X, ev.Y)
	}

	row, col := d.desk.axes.CellAt(ev.X, ev.Y)
	g := d.opts.Grid
	start := it.Position
	end := grid.Position{
		Page:   d.pager.Active,
		Row:    clamp(row-d.desk.grabRow, 0, g.Rows-it.Area.H),
		Column: clamp(col-d.desk.grabCol, 0, g.Columns-it.Area.W),
	}
	if end == start {
		d.finishDrag(start, &end)
		return false
	}

	err := d.mutate("drop", func(s *grid.Snapshot, p *grid.Pager) error {
		if err := d.applyDrop(s, p, it, end); err != nil {
			return err
		}
		p.AfterDrop(s, start, &end)
		return nil
	})
	if err != nil {
		d.logger.Info("drop rejected", "key", it.Key, "from", start.String(), "to", end.String(), "error", err)
		d.finishDrag(start, nil)
		return false
	}
	return true
}

// draggedItem returns the item being dropped: the one picked up at
// DragStart, or for a tap the one under the press.
func (d *Desktop) draggedItem(ev drag.Event[grid.Item]) (grid.Item, bool) {
	if d.desk.key == "" {
		if !ev.Found {
			return grid.Item{}, false
		}
		row, col := d.desk.axes.Cell(ev.Selected)
		d.desk.grabRow = row - ev.Item.Position.Row
		d.desk.grabCol = col - ev.Item.Position.Column
		return ev.Item, true
	}
	return d.snap.Find(d.desk.key)
}

func (d *Desktop) applyDrop(s *grid.Snapshot, p *grid.Pager, it grid.Item, end grid.Position) error {
	if it.Kind == grid.KindApp {
		if ti := s.ItemAt(end.Page, end.Row, end.Column); ti >= 0 && s.Items[ti].Key != it.Key {
			switch target := s.Items[ti]; target.Kind {
			case grid.KindFolder:
				return d.addToFolder(s, it.Key, target.Key)
			case grid.KindApp:
				_, err := d.createFolder(s, p, target.Key, it.Key)
				return err
			}
		}
	}
	next, err := grid.Squeeze(s, indexOfKey(s, it.Key), end, d.opts.Rules)
	if err != nil {
		return err
	}
	*s = *next
	return nil
}

// finishDrag runs the page cleanup of a drop that changed no item.
func (d *Desktop) finishDrag(start grid.Position, end *grid.Position) {
	if err := d.mutate("end drag", func(s *grid.Snapshot, p *grid.Pager) error {
		p.AfterDrop(s, start, end)
		return nil
	}); err != nil {
		d.logger.Warn("page cleanup after drag failed", "error", err)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
