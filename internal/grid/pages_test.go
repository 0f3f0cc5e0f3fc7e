package grid

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeleteBlankPage(t *testing.T) {
	s := New(2, 2)
	s.Geometry.PageCount = 3
	s.Items = []Item{app("a", 0, 0, 0), app("b", 2, 0, 1), app("c", 2, 1, 1)}

	if DeleteBlankPage(s, 0) {
		t.Error("DeleteBlankPage(0) on a non-empty page = true")
	}
	if !DeleteBlankPage(s, 1) {
		t.Fatal("DeleteBlankPage(1) = false, want true")
	}
	if s.Geometry.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", s.Geometry.PageCount)
	}
	want := []Item{app("a", 0, 0, 0), app("b", 1, 0, 1), app("c", 1, 1, 1)}
	if diff := cmp.Diff(want, s.Items); diff != "" {
		t.Errorf("items after delete (-want +got):\n%s", diff)
	}
}

func TestDeleteLastRemainingPage(t *testing.T) {
	s := New(2, 2)
	if DeleteBlankPage(s, 0) {
		t.Error("DeleteBlankPage on the only page = true")
	}
	if s.Geometry.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", s.Geometry.PageCount)
	}
}

func TestPagesRenderModel(t *testing.T) {
	s := New(2, 2)
	s.Geometry.PageCount = 2
	s.Items = []Item{app("d", 0, 1, 1), app("a", 0, 0, 0), app("stray", 2, 0, 0), app("b", 0, 0, 1)}

	pages := Pages(s)
	if len(pages) != 3 {
		t.Fatalf("len(Pages) = %d, want 3", len(pages))
	}
	var keys []string
	for _, it := range pages[0] {
		keys = append(keys, it.Key)
	}
	if diff := cmp.Diff([]string{"a", "b", "d"}, keys); diff != "" {
		t.Errorf("page 0 order (-want +got):\n%s", diff)
	}
	if len(pages[1]) != 0 || pages[1] == nil {
		t.Errorf("page 1 = %v, want empty non-nil", pages[1])
	}
}

func TestPagerDeleteBlankAdjustsActive(t *testing.T) {
	tests := []struct {
		name   string
		active int
		page   int
		want   int
	}{
		{"before active", 2, 0, 1},
		{"at active", 1, 1, 0},
		{"after active", 0, 1, 0},
		{"at first page", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(1, 1)
			s.Geometry.PageCount = 3
			p := &Pager{Active: tt.active}
			if !p.DeleteBlank(s, tt.page) {
				t.Fatal("DeleteBlank = false")
			}
			if p.Active != tt.want {
				t.Errorf("Active = %d, want %d", p.Active, tt.want)
			}
		})
	}
}

func TestPagerToggle(t *testing.T) {
	s := New(1, 1)
	s.Items = []Item{app("a", 0, 0, 0)}
	p := &Pager{}

	p.Toggle(s)
	if s.Geometry.PageCount != 2 || p.Active != 1 {
		t.Fatalf("after toggle on a full page: PageCount=%d Active=%d, want 2, 1", s.Geometry.PageCount, p.Active)
	}
	p.Toggle(s)
	if s.Geometry.PageCount != 1 || p.Active != 0 {
		t.Errorf("after toggle on a blank page: PageCount=%d Active=%d, want 1, 0", s.Geometry.PageCount, p.Active)
	}
}

func TestPagerSetActive(t *testing.T) {
	s := New(1, 1)
	p := &Pager{}
	if err := p.SetActive(s, 1); !errors.Is(err, ErrBadIndex) {
		t.Errorf("SetActive(1) with one page = %v, want ErrBadIndex", err)
	}
	AddBlankPage(s)
	if err := p.SetActive(s, 1); err != nil || p.Active != 1 {
		t.Errorf("SetActive(1) = %v, Active = %d", err, p.Active)
	}
}

// A page whose only item is dragged to another page is deleted, and items
// on later pages move down.
func TestAfterDropDeletesEmptiedPage(t *testing.T) {
	s := New(2, 2)
	s.Geometry.PageCount = 3
	s.Items = []Item{app("a", 0, 0, 0), app("moved", 1, 0, 0), app("c", 2, 1, 1)}
	start := s.Items[1].Position

	// The drag put "moved" onto page 0.
	s.Items[1].Position = Position{0, 0, 1}
	end := s.Items[1].Position
	p := &Pager{Active: 0}
	p.AfterDrop(s, start, &end)

	if s.Geometry.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", s.Geometry.PageCount)
	}
	if got := s.Items[2].Position; got != (Position{1, 1, 1}) {
		t.Errorf("c at %v, want (1,1,1)", got)
	}
	if p.Active != 0 {
		t.Errorf("Active = %d, want 0", p.Active)
	}
}

func TestAfterDropForwardMove(t *testing.T) {
	s := New(1, 2)
	s.Geometry.PageCount = 3
	s.Items = []Item{app("a", 0, 0, 0), app("b", 2, 0, 0)}
	start := s.Items[0].Position
	s.Items[0].Position = Position{2, 0, 1}
	end := s.Items[0].Position
	p := &Pager{Active: 2}
	p.AfterDrop(s, start, &end)

	if s.Geometry.PageCount != 2 || p.Active != 1 {
		t.Errorf("PageCount=%d Active=%d, want 2, 1", s.Geometry.PageCount, p.Active)
	}
}

func TestAfterDropRemovesDragPage(t *testing.T) {
	s := New(1, 1)
	s.Items = []Item{app("a", 0, 0, 0)}
	p := &Pager{}
	p.AddForDrag(s)
	if s.Geometry.PageCount != 2 || p.Active != 1 {
		t.Fatalf("AddForDrag: PageCount=%d Active=%d", s.Geometry.PageCount, p.Active)
	}

	// Dropped back where it started.
	start := s.Items[0].Position
	p.AfterDrop(s, start, &start)
	if s.Geometry.PageCount != 1 || p.Active != 0 || p.DragPage {
		t.Errorf("PageCount=%d Active=%d DragPage=%v, want 1, 0, false", s.Geometry.PageCount, p.Active, p.DragPage)
	}
}

func TestAfterDropWithoutTarget(t *testing.T) {
	s := New(1, 1)
	s.Geometry.PageCount = 2
	s.Items = []Item{app("a", 1, 0, 0)}
	p := &Pager{Active: 0}
	p.AfterDrop(s, s.Items[0].Position, nil)
	if p.Active != 1 {
		t.Errorf("Active = %d, want the start page 1", p.Active)
	}
}
