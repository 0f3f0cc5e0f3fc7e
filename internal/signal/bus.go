package signal

import "github.com/wcatz/launcher-grid/internal/grid"

// Point is a pointer location.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragState is published while an item is being dragged.
type DragState struct {
	Active bool          `json:"active"`
	Key    string        `json:"key,omitempty"`
	Kind   grid.Kind     `json:"kind"`
	At     Point         `json:"at"`
	From   grid.Position `json:"from"`
}

// FolderView is the folder currently open for editing.
type FolderView struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Pages [][]grid.Item `json:"pages"`
	Page  int           `json:"page"`
}

// Bus groups the signals a desktop publishes. One Bus is owned by the
// composition root and handed to every component that reads or writes UI
// state.
type Bus struct {
	ActivePage Signal[int]
	GridList   Signal[[][]grid.Item]
	Drag       Signal[DragState]
	// Overlay is true while a drag hovers over the grid.
	Overlay    Signal[bool]
	OpenFolder Signal[*FolderView]
	Dock       Signal[[]grid.Item]
	// Toast carries transient user-visible notices.
	Toast     Signal[string]
	LongPress Signal[bool]
}

// NewBus returns a Bus with every signal at its zero value.
func NewBus() *Bus {
	return &Bus{}
}
