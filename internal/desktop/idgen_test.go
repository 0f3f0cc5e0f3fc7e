package desktop

import (
	"testing"

	"github.com/google/uuid"

	"github.com/wcatz/launcher-grid/internal/grid"
)

func TestIDGenerator(t *testing.T) {
	g := NewIDGenerator()

	if id := g.NextCard(); id != 1 {
		t.Errorf("first NextCard() = %d, want 1", id)
	}
	g.Observe(&grid.Snapshot{Items: []grid.Item{
		{Kind: grid.KindWidget, Widget: &grid.Widget{ID: 7}},
		{Kind: grid.KindWidget, Widget: &grid.Widget{ID: 3}},
		{Kind: grid.KindApp, Key: "a"},
	}})
	if id := g.NextCard(); id != 8 {
		t.Errorf("NextCard() after Observe = %d, want 8", id)
	}
	g.Reset()
	if id := g.NextCard(); id != 1 {
		t.Errorf("NextCard() after Reset = %d, want 1", id)
	}

	a, b := g.FolderID(), g.FolderID()
	if a == b {
		t.Errorf("FolderID() repeated %q", a)
	}
	u, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("FolderID() = %q: %v", a, err)
	}
	if u.Version() != 7 {
		t.Errorf("FolderID() version = %d, want 7", u.Version())
	}
}
