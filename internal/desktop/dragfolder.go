package desktop

import (
	"github.com/wcatz/launcher-grid/internal/drag"
	"github.com/wcatz/launcher-grid/internal/folder"
	"github.com/wcatz/launcher-grid/internal/grid"
	"github.com/wcatz/launcher-grid/internal/signal"
)

type folderDrag struct {
	session *drag.Session
	axes    drag.Axes
	key     string
}

// folderSurface exposes the shown page of the open folder, sentinel
// included.
type folderSurface struct{ d *Desktop }

func (c folderSurface) RelativeData() []grid.Item {
	v := c.d.folderView()
	if v == nil {
		return nil
	}
	return v.Pages[v.Page]
}

func (c folderSurface) ItemIndexAt(x, y float64) int {
	return c.d.fold.axes.IndexAt(x, y)
}

func (c folderSurface) ItemByIndex(index int, data []grid.Item) (grid.Item, bool) {
	if index < 0 || index >= len(data) || isSentinel(data[index]) {
		return grid.Item{}, false
	}
	return data[index], true
}

// SetFolderEffectArea sets the screen rectangle of the open folder grid.
func (d *Desktop) SetFolderEffectArea(r drag.Rect) {
	d.fold.session.EffectArea = r
	d.fold.axes = drag.NewAxes(r, d.opts.FolderLayout.Rows, d.opts.FolderLayout.Columns)
}

// HandleFolderPointer feeds a pointer event on the open folder. It does
// nothing when no folder is open.
func (d *Desktop) HandleFolderPointer(p drag.Pointer) {
	if d.openID == "" {
		return
	}
	drag.Handle[grid.Item](d.fold.session, folderSurface{d}, drag.Funcs[grid.Item]{
		Start: func(ev drag.Event[grid.Item]) {
			d.fold.key = ev.Item.Key
			d.bus.Drag.Set(signal.DragState{Active: true, Key: ev.Item.Key, Kind: ev.Item.Kind,
				At: signal.Point{X: ev.X, Y: ev.Y}})
		},
		Move: func(ev drag.Event[grid.Item]) {
			if d.fold.key == "" {
				return
			}
			st := d.bus.Drag.Get()
			st.At = signal.Point{X: ev.X, Y: ev.Y}
			d.bus.Drag.Set(st)
		},
		Drop: d.folderDrop,
		End: func(bool) {
			d.fold.key = ""
			d.bus.Drag.Set(signal.DragState{})
		},
	}, p)
}

// folderDrop reorders the folder when the drop lands inside it. Outside,
// the app joins the folder under the pointer on the desktop, or leaves
// for the active page.
func (d *Desktop) folderDrop(ev drag.Event[grid.Item]) bool {
	key := d.fold.key
	if key == "" {
		if !ev.Found {
			return false
		}
		key = ev.Item.Key
	}
	id := d.openID

	if d.fold.session.EffectArea.Contains(ev.X, ev.Y) {
		return d.reorderOpenFolder(id, key, ev.Insert)
	}

	if di := d.desk.axes.IndexAt(ev.X, ev.Y); di != drag.Invalid {
		row, col := d.desk.axes.Cell(di)
		if ti := d.snap.ItemAt(d.pager.Active, row, col); ti >= 0 {
			if t := d.snap.Items[ti]; t.Kind == grid.KindFolder && t.Key != id {
				if err := d.AddToFolder(key, t.Key); err != nil {
					d.logger.Info("move between folders rejected", "key", key, "folder", t.Key, "error", err)
					return false
				}
				return true
			}
		}
	}

	if err := d.DragOutOfFolder(id, key); err != nil {
		d.logger.Info("drag out of folder rejected", "key", key, "folder", id, "error", err)
		return false
	}
	return true
}

func (d *Desktop) reorderOpenFolder(id, key string, insert int) bool {
	v := d.folderView()
	if v == nil {
		return false
	}
	capacity := d.folderCapacity()
	members := folder.Flatten(folder.StripSentinel(v.Pages, capacity, isSentinel))
	from := -1
	for i, m := range members {
		if m.Key == key {
			from = i
		}
	}
	to := len(members) - 1
	if insert != drag.Invalid {
		to = min(v.Page*capacity+insert, len(members)-1)
	}
	if from < 0 || from == to {
		return false
	}
	if err := d.ReorderFolder(id, from, to); err != nil {
		d.logger.Warn("folder reorder failed", "folder", id, "error", err)
		return false
	}
	return true
}
