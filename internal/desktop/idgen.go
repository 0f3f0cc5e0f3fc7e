package desktop

import (
	"github.com/google/uuid"

	"github.com/wcatz/launcher-grid/internal/grid"
)

// IDGenerator hands out widget card ids and folder ids.
type IDGenerator struct {
	card int
	// NewFolderID returns a fresh folder id. Defaults to a UUIDv7 string.
	NewFolderID func() string
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{NewFolderID: func() string { return uuid.Must(uuid.NewV7()).String() }}
}

// Reset resets the card counter to 0.
func (g *IDGenerator) Reset() {
	g.card = 0
}

// Observe moves the card counter past every widget id in s.
func (g *IDGenerator) Observe(s *grid.Snapshot) {
	for _, it := range s.Items {
		if it.Widget != nil && it.Widget.ID > g.card {
			g.card = it.Widget.ID
		}
	}
}

// NextCard returns the next widget card id.
func (g *IDGenerator) NextCard() int {
	g.card++
	return g.card
}

// FolderID returns a new folder id.
func (g *IDGenerator) FolderID() string {
	if g.NewFolderID == nil {
		return uuid.Must(uuid.NewV7()).String()
	}
	return g.NewFolderID()
}
