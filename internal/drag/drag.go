// Package drag turns a raw pointer stream into drag lifecycle events.
//
// The state machine is shared by every drag surface (desktop grid, open
// folder). A surface supplies a Capability that maps coordinates to items
// and a Listener that reacts to the events; Handle drives both.
package drag

// Action is the pointer event type. The values match the touch types the
// UI layer reports.
type Action int

const (
	Down Action = 0
	Up   Action = 1
	Move Action = 2
)

func (a Action) String() string {
	switch a {
	case Down:
		return "down"
	case Up:
		return "up"
	case Move:
		return "move"
	}
	return "unknown"
}

// Invalid is the index reported when nothing is under the pointer.
const Invalid = -1

// Pointer is one pointer event in surface coordinates.
type Pointer struct {
	Action Action  `json:"action"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Rect is a screen rectangle.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Contains reports whether the point is strictly inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x > r.Left && x < r.Right && y > r.Top && y < r.Bottom
}

// Width returns Right - Left.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Capability is what a drag surface exposes to the state machine.
type Capability[T any] interface {
	// RelativeData returns the items currently shown by the surface.
	RelativeData() []T
	// ItemIndexAt maps a coordinate to a cell index, or Invalid.
	ItemIndexAt(x, y float64) int
	// ItemByIndex returns the item occupying the cell index.
	ItemByIndex(index int, data []T) (T, bool)
}

// Event is passed to every Listener callback.
type Event[T any] struct {
	X, Y float64
	// Selected is the cell index recorded on pointer down.
	Selected int
	// Item is the item under Selected; Found is false when there was none.
	Item  T
	Found bool
	// Insert is the cell index under the current pointer position.
	Insert int
}

// Listener receives drag lifecycle events.
type Listener[T any] interface {
	DragEnter(Event[T])
	DragLeave(Event[T])
	DragStart(Event[T])
	DragMove(Event[T])
	// DragDrop reports whether the drop was applied.
	DragDrop(Event[T]) bool
	DragEnd(ok bool)
}

// Session holds the transient state of one drag surface. The zero value is
// not ready for use; call NewSession.
type Session struct {
	// EffectArea bounds the region where moves count as dragging.
	EffectArea Rect
	// LongPress is raised by the UI once a press has been held long
	// enough to start a drag.
	LongPress bool

	selected int
	dragging bool
	inArea   bool
	moved    bool
}

// NewSession returns an idle session.
func NewSession(area Rect) *Session {
	return &Session{EffectArea: area, selected: Invalid}
}

// Dragging reports whether a drag has started.
func (s *Session) Dragging() bool { return s.dragging }

// Selected returns the cell index pressed on pointer down, or Invalid.
func (s *Session) Selected() int { return s.selected }

// Reset returns the session to idle.
func (s *Session) Reset() {
	s.LongPress = false
	s.selected = Invalid
	s.dragging = false
	s.inArea = false
	s.moved = false
}

// Handle feeds one pointer event through the state machine.
//
// Down records the pressed cell. Moves are ignored until LongPress is set;
// after that, crossing the effect area fires DragEnter or DragLeave, the
// first move inside it with a pressed item fires DragStart and later ones
// DragMove. Up fires DragDrop when the pointer is inside the area or a
// drag is running, then always DragEnd, and resets the session. An Up with
// no move before it is tested against the area at its own position, so a
// tap surfaces as a drop at the press position.
func Handle[T any](s *Session, c Capability[T], l Listener[T], p Pointer) {
	switch p.Action {
	case Down:
		s.selected = c.ItemIndexAt(p.X, p.Y)
		s.moved = false
	case Move:
		if !s.LongPress {
			return
		}
		s.moved = true
		ev := event(s, c, p)
		in := s.EffectArea.Contains(p.X, p.Y)
		switch {
		case in && !s.inArea:
			s.inArea = true
			l.DragEnter(ev)
		case !in && s.inArea:
			s.inArea = false
			l.DragLeave(ev)
		}
		if !in {
			return
		}
		if !s.dragging && ev.Found {
			s.dragging = true
			l.DragStart(ev)
			return
		}
		l.DragMove(ev)
	case Up:
		if !s.moved {
			s.inArea = s.EffectArea.Contains(p.X, p.Y)
		}
		ok := false
		if s.dragging || s.inArea {
			ok = l.DragDrop(event(s, c, p))
		}
		l.DragEnd(ok)
		s.Reset()
	}
}

func event[T any](s *Session, c Capability[T], p Pointer) Event[T] {
	ev := Event[T]{X: p.X, Y: p.Y, Selected: s.selected, Insert: c.ItemIndexAt(p.X, p.Y)}
	if s.selected != Invalid {
		ev.Item, ev.Found = c.ItemByIndex(s.selected, c.RelativeData())
	}
	return ev
}

// Funcs adapts plain functions to a Listener. Nil fields are no-ops; a nil
// Drop reports false.
type Funcs[T any] struct {
	Enter func(Event[T])
	Leave func(Event[T])
	Start func(Event[T])
	Move  func(Event[T])
	Drop  func(Event[T]) bool
	End   func(ok bool)
}

func (f Funcs[T]) DragEnter(ev Event[T]) {
	if f.Enter != nil {
		f.Enter(ev)
	}
}

func (f Funcs[T]) DragLeave(ev Event[T]) {
	if f.Leave != nil {
		f.Leave(ev)
	}
}

func (f Funcs[T]) DragStart(ev Event[T]) {
	if f.Start != nil {
		f.Start(ev)
	}
}

func (f Funcs[T]) DragMove(ev Event[T]) {
	if f.Move != nil {
		f.Move(ev)
	}
}

func (f Funcs[T]) DragDrop(ev Event[T]) bool {
	if f.Drop == nil {
		return false
	}
	return f.Drop(ev)
}

func (f Funcs[T]) DragEnd(ok bool) {
	if f.End != nil {
		f.End(ok)
	}
}
