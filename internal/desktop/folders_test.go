package desktop

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wcatz/launcher-grid/internal/grid"
	"github.com/wcatz/launcher-grid/internal/signal"
)

func folderKeys(t *testing.T, d *Desktop, id string) [][]string {
	t.Helper()
	f, ok := d.Snapshot().Find(id)
	if !ok || f.Folder == nil {
		t.Fatalf("folder %q not on the desktop", id)
	}
	var out [][]string
	for _, page := range f.Folder.Pages {
		var keys []string
		for _, it := range page {
			keys = append(keys, it.Key)
		}
		out = append(out, keys)
	}
	return out
}

func TestCreateAndRemoveFromFolder(t *testing.T) {
	d, _ := newTestDesktop(t, nil, catalogOf("a", "b", "c", "d"))

	id, err := d.CreateFolder("a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if id != "folder-1" {
		t.Errorf("CreateFolder id = %q, want folder-1", id)
	}
	f, _ := d.Snapshot().Find(id)
	want := &grid.Folder{ID: id, Name: "New folder 1", Pages: [][]grid.Item{{child("a"), child("b")}}}
	if diff := cmp.Diff(want, f.Folder); diff != "" {
		t.Errorf("folder mismatch (-want +got):\n%s", diff)
	}
	if f.Position != pos(0, 0, 0) {
		t.Errorf("folder at %s, want the target's cell (0,0,0)", f.Position)
	}

	id2, err := d.CreateFolder("c", "d")
	if err != nil {
		t.Fatal(err)
	}
	if f2, _ := d.Snapshot().Find(id2); f2.Folder.Name != "New folder 2" || f2.Position != pos(0, 0, 2) {
		t.Errorf("second folder = %q at %s, want New folder 2 at (0,0,2)", f2.Folder.Name, f2.Position)
	}

	if err := d.RemoveFromFolder(id, "b"); err != nil {
		t.Fatal(err)
	}
	s := d.Snapshot()
	if s.Index(grid.KindFolder, id) >= 0 {
		t.Error("folder with one app left was not dissolved")
	}
	if got := positionOf(t, d, "a"); got != pos(0, 0, 0) {
		t.Errorf("a at %s, want (0,0,0)", got)
	}
	if got := positionOf(t, d, "b"); got != pos(0, 0, 1) {
		t.Errorf("b at %s, want (0,0,1)", got)
	}
}

func TestFolderMembersPersistWithoutDesktopCells(t *testing.T) {
	d, st := newTestDesktop(t, nil, catalogOf("a", "b", "c", "d", "e", "f"))

	id, err := d.CreateFolder("a", "f")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.AddToFolder("e", id); err != nil {
		t.Fatal(err)
	}

	i := st.snap.Index(grid.KindFolder, id)
	if i < 0 {
		t.Fatalf("folder %q was not persisted", id)
	}
	want := [][]grid.Item{{child("a"), child("f"), child("e")}}
	if diff := cmp.Diff(want, st.snap.Items[i].Folder.Pages); diff != "" {
		t.Errorf("persisted folder pages mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateFolderErrors(t *testing.T) {
	d, st := newTestDesktop(t, nil, catalogOf("a", "b"))
	before := d.Snapshot()
	saves := st.saves

	tests := []struct {
		target, dragged string
		want            error
	}{
		{"a", "a", ErrMoveRejected},
		{"a", "zz", ErrNotFound},
		{"zz", "a", ErrNotFound},
	}
	for _, tt := range tests {
		if _, err := d.CreateFolder(tt.target, tt.dragged); !errors.Is(err, tt.want) {
			t.Errorf("CreateFolder(%s, %s) = %v, want %v", tt.target, tt.dragged, err, tt.want)
		}
	}
	if diff := cmp.Diff(before, d.Snapshot()); diff != "" {
		t.Errorf("failed operations changed the layout (-want +got):\n%s", diff)
	}
	if st.saves != saves {
		t.Error("failed operations were persisted")
	}
}

func TestCreateFolderDeletesDraggedPage(t *testing.T) {
	saved := layout(2, app("a", 0, 0, 0), app("b", 1, 2, 2))
	d, _ := newTestDesktop(t, saved, catalogOf("a", "b"))

	if _, err := d.CreateFolder("a", "b"); err != nil {
		t.Fatal(err)
	}
	if pc := d.Snapshot().Geometry.PageCount; pc != 1 {
		t.Errorf("PageCount = %d, want 1", pc)
	}
}

func TestAddToFolder(t *testing.T) {
	saved := layout(2,
		folderItem("f1", 0, 0, 0, grid.Unit, "a", "b"),
		folderItem("f2", 0, 0, 1, grid.Unit, "c", "d", "e"),
		app("x", 1, 0, 0),
	)
	saved.Items[1].Folder.Pages[0][2].Badge = 4
	saved.Items[1].Badge = 4
	d, _ := newTestDesktop(t, saved, catalogOf("a", "b", "c", "d", "e", "x"))

	if err := d.AddToFolder("e", "f1"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]string{{"a", "b", "e"}}, folderKeys(t, d, "f1")); diff != "" {
		t.Errorf("f1 mismatch (-want +got):\n%s", diff)
	}
	s := d.Snapshot()
	f1, _ := s.Find("f1")
	f2, _ := s.Find("f2")
	if f1.Badge != 4 || f2.Badge != 0 {
		t.Errorf("badges f1=%d f2=%d, want 4 and 0", f1.Badge, f2.Badge)
	}

	// f2 is left with d alone and dissolves into it.
	if err := d.AddToFolder("c", "f1"); err != nil {
		t.Fatal(err)
	}
	if d.Snapshot().Index(grid.KindFolder, "f2") >= 0 {
		t.Error("f2 not dissolved")
	}
	if got := positionOf(t, d, "d"); got != pos(0, 0, 1) {
		t.Errorf("d at %s, want (0,0,1)", got)
	}

	// x was alone on page 1.
	if err := d.AddToFolder("x", "f1"); err != nil {
		t.Fatal(err)
	}
	if pc := d.Snapshot().Geometry.PageCount; pc != 1 {
		t.Errorf("PageCount = %d, want 1", pc)
	}
	if err := d.AddToFolder("a", "f1"); err != nil {
		t.Errorf("AddToFolder of a member = %v, want nil", err)
	}
	if err := d.AddToFolder("a", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddToFolder(a, nope) = %v, want ErrNotFound", err)
	}
}

func TestFolderPaginates(t *testing.T) {
	keys := numbered(11)
	saved := layout(1, folderItem("f", 0, 0, 0, grid.Unit, keys[:9]...), app(keys[9], 0, 0, 1), app(keys[10], 0, 0, 2))
	d, _ := newTestDesktop(t, saved, catalogOf(keys...))

	if err := d.AddToFolder(keys[9], "f"); err != nil {
		t.Fatal(err)
	}
	pages := folderKeys(t, d, "f")
	if len(pages) != 2 || len(pages[0]) != 9 || len(pages[1]) != 1 {
		t.Fatalf("folder pages = %v, want 9 + 1", pages)
	}

	v, err := d.OpenFolder("f")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Pages) != 2 || len(v.Pages[1]) != 2 || v.Pages[1][1].Kind != grid.KindAdd {
		t.Errorf("open view pages = %v, want the add sentinel after the last member", v.Pages)
	}
	if err := d.SetFolderPage(1); err != nil {
		t.Fatal(err)
	}
	if err := d.SetFolderPage(2); !errors.Is(err, grid.ErrBadIndex) {
		t.Errorf("SetFolderPage(2) = %v, want ErrBadIndex", err)
	}
	if err := grid.Check(d.Snapshot()); err != nil {
		t.Errorf("sentinel leaked into the layout: %v", err)
	}
}

func TestOpenFolderFollowsChanges(t *testing.T) {
	saved := layout(1, folderItem("f", 0, 0, 0, grid.Unit, "a", "b", "c"))
	d, _ := newTestDesktop(t, saved, catalogOf("a", "b", "c"))

	var views []*signal.FolderView
	d.Bus().OpenFolder.Subscribe(func(v *signal.FolderView) { views = append(views, v) })

	v, err := d.OpenFolder("f")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]grid.Item{{child("a"), child("b"), child("c"), {Kind: grid.KindAdd, Key: addKey, Area: grid.Unit}}}
	if diff := cmp.Diff(want, v.Pages); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}

	if err := d.DeleteItem("a"); err != nil {
		t.Fatal(err)
	}
	if last := views[len(views)-1]; last == nil || len(last.Pages[0]) != 3 {
		t.Errorf("view after delete = %+v, want two members and the sentinel", last)
	}
	if err := d.DeleteItem("b"); err != nil {
		t.Fatal(err)
	}
	if d.OpenFolderID() != "" {
		t.Error("dissolved folder still open")
	}
	if last := views[len(views)-1]; last != nil {
		t.Errorf("last view = %+v, want nil", last)
	}
	if _, err := d.OpenFolder("f"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenFolder(f) = %v, want ErrNotFound", err)
	}
}

func TestRenameAndReorderFolder(t *testing.T) {
	saved := layout(1, folderItem("f", 0, 0, 0, grid.Unit, "a", "b", "c"))
	d, _ := newTestDesktop(t, saved, catalogOf("a", "b", "c"))

	if err := d.RenameFolder("f", "  Games "); err != nil {
		t.Fatal(err)
	}
	if f, _ := d.Snapshot().Find("f"); f.Folder.Name != "Games" {
		t.Errorf("Name = %q, want Games", f.Folder.Name)
	}
	if err := d.RenameFolder("f", " "); !errors.Is(err, ErrBadName) {
		t.Errorf("RenameFolder(blank) = %v, want ErrBadName", err)
	}

	if err := d.ReorderFolder("f", 0, 2); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]string{{"b", "c", "a"}}, folderKeys(t, d, "f")); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if err := d.ReorderFolder("f", 5, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReorderFolder(5, 0) = %v, want ErrNotFound", err)
	}
}

func TestSetFolderApps(t *testing.T) {
	saved := layout(1,
		folderItem("f", 0, 0, 0, grid.Unit, "a", "b"),
		app("c", 0, 0, 1),
		app("d", 0, 0, 2),
	)
	d, _ := newTestDesktop(t, saved, catalogOf("a", "b", "c", "d"))

	if err := d.SetFolderApps("f", []string{"c", "a"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]string{{"c", "a"}}, folderKeys(t, d, "f")); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
	if got := positionOf(t, d, "b"); got != pos(0, 0, 1) {
		t.Errorf("evicted b at %s, want (0,0,1)", got)
	}

	for _, keys := range [][]string{{"a", "a"}, {"a", "zz"}} {
		if err := d.SetFolderApps("f", keys); err == nil {
			t.Errorf("SetFolderApps(%v) = nil error", keys)
		}
	}

	if err := d.SetFolderApps("f", []string{"d"}); err != nil {
		t.Fatal(err)
	}
	want := map[string]grid.Position{
		"d": pos(0, 0, 0),
		"b": pos(0, 0, 1),
		"c": pos(0, 0, 2),
		"a": pos(0, 0, 3),
	}
	for key, p := range want {
		if got := positionOf(t, d, key); got != p {
			t.Errorf("%s at %s, want %s", key, got, p)
		}
	}
	if d.Snapshot().Index(grid.KindFolder, "f") >= 0 {
		t.Error("folder with one member not dissolved")
	}
}

func TestDragOutOfFullPage(t *testing.T) {
	keys := append([]string{"a", "b", "c"}, numbered(15)...)
	saved := layout(1, folderItem("f", 0, 0, 0, grid.Unit, "a", "b", "c"))
	d, _ := newTestDesktop(t, saved, catalogOf(keys...))
	if n := d.Snapshot().FreeCells(0); n != 0 {
		t.Fatalf("FreeCells(0) = %d, want a full page", n)
	}

	if err := d.DragOutOfFolder("f", "a"); !errors.Is(err, grid.ErrNoRoom) {
		t.Errorf("DragOutOfFolder = %v, want ErrNoRoom", err)
	}
	if diff := cmp.Diff([][]string{{"a", "b", "c"}}, folderKeys(t, d, "f")); diff != "" {
		t.Errorf("folder changed by a refused drag (-want +got):\n%s", diff)
	}

	// The explicit operation falls back to the first page with room.
	if err := d.RemoveFromFolder("f", "a"); err != nil {
		t.Fatal(err)
	}
	if got := positionOf(t, d, "a"); got != pos(1, 0, 0) {
		t.Errorf("a at %s, want (1,0,0)", got)
	}
}
