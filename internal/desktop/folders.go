package desktop

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wcatz/launcher-grid/internal/folder"
	"github.com/wcatz/launcher-grid/internal/grid"
	"github.com/wcatz/launcher-grid/internal/signal"
)

// addKey is the key of the "add" sentinel shown in an open folder.
const addKey = "add"

func isSentinel(it grid.Item) bool { return it.Kind == grid.KindAdd }

// takeApp removes an app from the desktop or from the folder holding it.
// A folder left with one app is replaced by that app at the folder's
// position; a folder left empty is removed. The returned app is a unit
// item at the zero position, ready to be placed or filed.
func takeApp(s *grid.Snapshot, key string, capacity int) (grid.Item, bool) {
	if i := s.Index(grid.KindApp, key); i >= 0 {
		return unplaced(s.Remove(i)), true
	}
	fi := s.FolderOf(key)
	if fi < 0 {
		return grid.Item{}, false
	}
	f := &s.Items[fi]
	var app grid.Item
	var left []grid.Item
	for _, child := range f.Apps() {
		if child.Key == key {
			app = child
		} else {
			left = append(left, child)
		}
	}
	f.Badge = max(0, f.Badge-app.Badge)

	switch len(left) {
	case 0:
		s.Remove(fi)
	case 1:
		pos := f.Position
		s.Remove(fi)
		rest := left[0]
		rest.Position = pos
		rest.Area = grid.Unit
		s.Items = append(s.Items, rest)
	default:
		f.Folder.Pages = folder.Paginate(left, capacity)
	}
	return unplaced(app), true
}

func unplaced(app grid.Item) grid.Item {
	app.Area = grid.Unit
	app.Position = grid.Position{}
	return app
}

func folderIndex(s *grid.Snapshot, id string) (int, error) {
	i := s.Index(grid.KindFolder, id)
	if i < 0 {
		return -1, fmt.Errorf("%w: folder %s", ErrNotFound, id)
	}
	return i, nil
}

// nextFolderName returns "<prefix> <n>" with the smallest n not in use.
func nextFolderName(s *grid.Snapshot, prefix string) string {
	used := make(map[int]bool)
	for _, it := range s.Items {
		if it.Kind != grid.KindFolder || it.Folder == nil {
			continue
		}
		rest, ok := strings.CutPrefix(it.Folder.Name, prefix+" ")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil {
			used[n] = true
		}
	}
	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("%s %d", prefix, n)
}

// createFolder merges two top-level apps into a new folder holding
// [target, dragged]. The folder takes the target's cell when its footprint
// fits there and is placed near the active page otherwise.
func (d *Desktop) createFolder(s *grid.Snapshot, p *grid.Pager, targetKey, draggedKey string) (string, error) {
	if targetKey == draggedKey {
		return "", fmt.Errorf("%w: cannot fold %s into itself", ErrMoveRejected, targetKey)
	}
	ti := s.Index(grid.KindApp, targetKey)
	if ti < 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, targetKey)
	}
	if s.Index(grid.KindApp, draggedKey) < 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, draggedKey)
	}
	pos := s.Items[ti].Position
	target, _ := takeApp(s, targetKey, 0)
	dragged, _ := takeApp(s, draggedKey, 0)

	id := d.opts.IDs.FolderID()
	it := grid.Item{
		Kind:  grid.KindFolder,
		Key:   id,
		Area:  d.opts.FolderArea,
		Badge: target.Badge + dragged.Badge,
		Folder: &grid.Folder{
			ID:    id,
			Name:  nextFolderName(s, d.opts.FolderPrefix),
			Pages: folder.Paginate([]grid.Item{target, dragged}, d.folderCapacity()),
		},
	}
	if s.Fits(pos, it.Area) {
		it.Position = pos
		s.Items = append(s.Items, it)
		return id, nil
	}
	if _, err := grid.Place(s, it, grid.PolicyNearActive, p.Active); err != nil {
		return "", err
	}
	return id, nil
}

// CreateFolder merges the dragged app into a new folder with the target
// app and returns the folder id.
func (d *Desktop) CreateFolder(targetKey, draggedKey string) (string, error) {
	var id string
	err := d.mutate("create folder", func(s *grid.Snapshot, p *grid.Pager) error {
		from, _ := s.Find(draggedKey)
		var err error
		if id, err = d.createFolder(s, p, targetKey, draggedKey); err != nil {
			return err
		}
		p.DeleteBlank(s, from.Position.Page)
		return nil
	})
	if err != nil {
		return "", err
	}
	d.logger.Info("folder created", "id", id, "apps", []string{targetKey, draggedKey})
	return id, nil
}

// addToFolder moves an app, from the desktop or another folder, to the end
// of a folder.
func (d *Desktop) addToFolder(s *grid.Snapshot, appKey, folderID string) error {
	if _, err := folderIndex(s, folderID); err != nil {
		return err
	}
	if fi := s.FolderOf(appKey); fi >= 0 && s.Items[fi].Key == folderID {
		return nil
	}
	app, ok := takeApp(s, appKey, d.folderCapacity())
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, appKey)
	}
	// takeApp may have removed an item before the folder.
	fi, err := folderIndex(s, folderID)
	if err != nil {
		return err
	}
	f := &s.Items[fi]
	f.Folder.Pages = folder.Append(f.Folder.Pages, app, d.folderCapacity())
	f.Badge += app.Badge
	return nil
}

// AddToFolder moves an app into a folder.
func (d *Desktop) AddToFolder(appKey, folderID string) error {
	return d.mutate("add to folder", func(s *grid.Snapshot, p *grid.Pager) error {
		from, onDesk := s.Find(appKey)
		if err := d.addToFolder(s, appKey, folderID); err != nil {
			return err
		}
		if onDesk {
			p.DeleteBlank(s, from.Position.Page)
		}
		return nil
	})
}

// removeFromFolder takes an app out of a folder and puts it on the active
// page, or the first page with room. With checkRoom set the move is
// refused when the folder would stay and the active page is full.
func (d *Desktop) removeFromFolder(s *grid.Snapshot, p *grid.Pager, folderID, appKey string, checkRoom bool) error {
	fi, err := folderIndex(s, folderID)
	if err != nil {
		return err
	}
	if s.FolderOf(appKey) != fi {
		return fmt.Errorf("%w: %s in folder %s", ErrNotFound, appKey, folderID)
	}
	if checkRoom && len(s.Items[fi].Apps()) > 2 {
		if _, ok := s.FindSlot(grid.Unit, p.Active, p.Active); !ok {
			return fmt.Errorf("%w: page %d is full", grid.ErrNoRoom, p.Active)
		}
	}
	app, _ := takeApp(s, appKey, d.folderCapacity())
	_, err = grid.Place(s, app, grid.PolicyActivePage, p.Active)
	return err
}

// RemoveFromFolder moves an app out of a folder onto the active page. A
// folder left with one app is replaced by it.
func (d *Desktop) RemoveFromFolder(folderID, appKey string) error {
	return d.mutate("remove from folder", func(s *grid.Snapshot, p *grid.Pager) error {
		return d.removeFromFolder(s, p, folderID, appKey, false)
	})
}

// DragOutOfFolder is RemoveFromFolder for a drag that leaves an open
// folder: it fails with grid.ErrNoRoom when the folder keeps two or more
// apps and the active page has no free cell.
func (d *Desktop) DragOutOfFolder(folderID, appKey string) error {
	return d.mutate("drag out of folder", func(s *grid.Snapshot, p *grid.Pager) error {
		return d.removeFromFolder(s, p, folderID, appKey, true)
	})
}

// RenameFolder sets a folder's name.
func (d *Desktop) RenameFolder(folderID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBadName
	}
	return d.mutate("rename folder", func(s *grid.Snapshot, _ *grid.Pager) error {
		fi, err := folderIndex(s, folderID)
		if err != nil {
			return err
		}
		s.Items[fi].Folder.Name = name
		return nil
	})
}

// ReorderFolder moves the member at index from to index to, counting
// across folder pages, and re-pages the folder.
func (d *Desktop) ReorderFolder(folderID string, from, to int) error {
	return d.mutate("reorder folder", func(s *grid.Snapshot, _ *grid.Pager) error {
		fi, err := folderIndex(s, folderID)
		if err != nil {
			return err
		}
		f := s.Items[fi].Folder
		apps := s.Items[fi].Apps()
		if from < 0 || from >= len(apps) {
			return fmt.Errorf("%w: member %d of %d", ErrNotFound, from, len(apps))
		}
		f.Pages = folder.Paginate(folder.Reorder(apps, from, to), d.folderCapacity())
		return nil
	})
}

// SetFolderApps replaces a folder's members with keys, in that order.
// Apps are pulled from the desktop or from other folders; members not in
// keys go back to the desktop. With one key or none left the folder
// dissolves.
func (d *Desktop) SetFolderApps(folderID string, keys []string) error {
	return d.mutate("set folder apps", func(s *grid.Snapshot, p *grid.Pager) error {
		fi, err := folderIndex(s, folderID)
		if err != nil {
			return err
		}
		want := make(map[string]bool, len(keys))
		for _, k := range keys {
			if want[k] {
				return fmt.Errorf("%w: %s listed twice", ErrDuplicate, k)
			}
			want[k] = true
			if !s.Contains(k) {
				return fmt.Errorf("%w: %s", ErrNotFound, k)
			}
		}

		pos := s.Items[fi].Position
		current := make(map[string]grid.Item)
		for _, child := range s.Items[fi].Apps() {
			current[child.Key] = child
		}
		// Detach the folder so takeApp cannot dissolve it mid-way.
		f := s.Remove(fi)

		var members []grid.Item
		for _, k := range keys {
			if child, ok := current[k]; ok {
				members = append(members, child)
				continue
			}
			app, _ := takeApp(s, k, d.folderCapacity())
			members = append(members, app)
		}
		var evicted []grid.Item
		for _, child := range f.Apps() {
			if !want[child.Key] {
				child.Area = grid.Unit
				evicted = append(evicted, child)
			}
		}

		switch len(members) {
		case 0:
		case 1:
			app := members[0]
			app.Position = pos
			s.Items = append(s.Items, app)
		default:
			badge := 0
			for _, m := range members {
				badge += m.Badge
			}
			f.Badge = badge
			f.Folder.Pages = folder.Paginate(members, d.folderCapacity())
			s.Items = append(s.Items, f)
		}
		for _, app := range evicted {
			if _, err := grid.Place(s, app, grid.PolicyInstall, p.Active); err != nil {
				return err
			}
		}
		return nil
	})
}

// OpenFolder marks a folder as open for editing and publishes its view,
// with the "add" sentinel after the last member.
func (d *Desktop) OpenFolder(folderID string) (*signal.FolderView, error) {
	if _, err := folderIndex(d.snap, folderID); err != nil {
		return nil, err
	}
	d.openID = folderID
	d.openPage = 0
	v := d.folderView()
	d.bus.OpenFolder.Set(v)
	return v, nil
}

// CloseFolder closes the open folder.
func (d *Desktop) CloseFolder() {
	d.openID = ""
	d.openPage = 0
	d.fold.session.Reset()
	d.bus.OpenFolder.Set(nil)
}

// OpenFolderID returns the id of the open folder, or "".
func (d *Desktop) OpenFolderID() string { return d.openID }

// SetFolderPage switches the page shown by the open folder.
func (d *Desktop) SetFolderPage(page int) error {
	v := d.folderView()
	if v == nil {
		return fmt.Errorf("%w: no open folder", ErrNotFound)
	}
	if page < 0 || page >= len(v.Pages) {
		return fmt.Errorf("%w: folder page %d of %d", grid.ErrBadIndex, page, len(v.Pages))
	}
	d.openPage = page
	d.bus.OpenFolder.Set(d.folderView())
	return nil
}

// folderView renders the open folder. A folder that no longer exists is
// closed.
func (d *Desktop) folderView() *signal.FolderView {
	if d.openID == "" {
		return nil
	}
	fi := d.snap.Index(grid.KindFolder, d.openID)
	if fi < 0 {
		d.openID = ""
		d.openPage = 0
		return nil
	}
	f := d.snap.Items[fi].Clone()
	capacity := d.folderCapacity()
	pages := folder.AddSentinel(folder.Paginate(f.Apps(), capacity),
		grid.Item{Kind: grid.KindAdd, Key: addKey, Area: grid.Unit}, capacity)
	if d.openPage >= len(pages) {
		d.openPage = len(pages) - 1
	}
	return &signal.FolderView{ID: f.Key, Name: f.Folder.Name, Pages: pages, Page: d.openPage}
}
