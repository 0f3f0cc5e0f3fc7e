package drag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// board is a 2x2 surface of 100x100 cells at the origin holding one
// item per occupied cell.
type board struct {
	axes  Axes
	items map[int]string
}

func newBoard() *board {
	return &board{
		axes:  NewAxes(Rect{Left: 0, Top: 0, Right: 200, Bottom: 200}, 2, 2),
		items: map[int]string{0: "a", 3: "d"},
	}
}

func (b *board) RelativeData() []string {
	out := make([]string, 4)
	for i, v := range b.items {
		out[i] = v
	}
	return out
}

func (b *board) ItemIndexAt(x, y float64) int { return b.axes.IndexAt(x, y) }

func (b *board) ItemByIndex(i int, data []string) (string, bool) {
	if i < 0 || i >= len(data) || data[i] == "" {
		return "", false
	}
	return data[i], true
}

// recorder logs every callback as "name:item@insert".
type recorder struct {
	log  []string
	drop bool
}

func (r *recorder) listener() Listener[string] {
	rec := func(name string) func(Event[string]) {
		return func(ev Event[string]) {
			r.log = append(r.log, name+":"+ev.Item+"@"+itoa(ev.Insert))
		}
	}
	return Funcs[string]{
		Enter: rec("enter"),
		Leave: rec("leave"),
		Start: rec("start"),
		Move:  rec("move"),
		Drop: func(ev Event[string]) bool {
			rec("drop")(ev)
			return r.drop
		},
		End: func(ok bool) {
			if ok {
				r.log = append(r.log, "end:ok")
			} else {
				r.log = append(r.log, "end:fail")
			}
		},
	}
}

func itoa(i int) string {
	if i < 0 {
		return "-"
	}
	return string(rune('0' + i))
}

func run(s *Session, r *recorder, events ...Pointer) []string {
	b := newBoard()
	l := r.listener()
	for _, p := range events {
		if p.Action == Down {
			s.LongPress = false
		}
		Handle[string](s, b, l, p)
	}
	return r.log
}

func TestHandleFullDrag(t *testing.T) {
	s := NewSession(Rect{Left: 0, Top: 0, Right: 200, Bottom: 200})
	r := &recorder{drop: true}
	b := newBoard()
	l := r.listener()

	Handle[string](s, b, l, Pointer{Down, 50, 50})
	// Moves before the long press are ignored.
	Handle[string](s, b, l, Pointer{Move, 60, 60})
	s.LongPress = true
	Handle[string](s, b, l, Pointer{Move, 60, 60})
	Handle[string](s, b, l, Pointer{Move, 150, 60})
	Handle[string](s, b, l, Pointer{Up, 150, 60})

	want := []string{"enter:a@0", "start:a@0", "move:a@1", "drop:a@1", "end:ok"}
	if diff := cmp.Diff(want, r.log); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if s.Dragging() || s.Selected() != Invalid || s.LongPress {
		t.Errorf("session not reset: dragging=%v selected=%d longpress=%v", s.Dragging(), s.Selected(), s.LongPress)
	}
}

func TestHandleLeaveAndReenter(t *testing.T) {
	s := NewSession(Rect{Left: 0, Top: 0, Right: 200, Bottom: 200})
	r := &recorder{}
	b := newBoard()
	l := r.listener()

	Handle[string](s, b, l, Pointer{Down, 150, 150})
	s.LongPress = true
	Handle[string](s, b, l, Pointer{Move, 150, 150})
	Handle[string](s, b, l, Pointer{Move, 250, 150})
	Handle[string](s, b, l, Pointer{Move, 150, 50})
	Handle[string](s, b, l, Pointer{Up, 150, 50})

	want := []string{"enter:d@3", "start:d@3", "leave:d@-", "enter:d@1", "move:d@1", "drop:d@1", "end:fail"}
	if diff := cmp.Diff(want, r.log); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestHandleTapIsDropAtPressPosition(t *testing.T) {
	s := NewSession(Rect{Left: 0, Top: 0, Right: 200, Bottom: 200})
	r := &recorder{}
	got := run(s, r, Pointer{Down, 50, 50}, Pointer{Up, 50, 50})
	want := []string{"drop:a@0", "end:fail"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestHandleUpOutsideArea(t *testing.T) {
	s := NewSession(Rect{Left: 0, Top: 0, Right: 200, Bottom: 200})
	r := &recorder{}
	got := run(s, r, Pointer{Down, 250, 250}, Pointer{Up, 250, 250})
	if diff := cmp.Diff([]string{"end:fail"}, got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestHandleEmptyCellNeverStarts(t *testing.T) {
	s := NewSession(Rect{Left: 0, Top: 0, Right: 200, Bottom: 200})
	r := &recorder{}
	b := newBoard()
	l := r.listener()

	Handle[string](s, b, l, Pointer{Down, 150, 50})
	s.LongPress = true
	Handle[string](s, b, l, Pointer{Move, 150, 60})
	Handle[string](s, b, l, Pointer{Move, 150, 70})
	if s.Dragging() {
		t.Error("drag started from an empty cell")
	}
	want := []string{"enter:@1", "move:@1", "move:@1"}
	if diff := cmp.Diff(want, r.log); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestHandleMovesWithoutLongPressIgnored(t *testing.T) {
	// Without the long-press flag nothing fires before Up, whether or not
	// the press selected an item.
	for _, press := range []Pointer{{Down, 50, 50}, {Down, 150, 50}, {Down, 250, 250}} {
		s := NewSession(Rect{Left: 0, Top: 0, Right: 200, Bottom: 200})
		r := &recorder{}
		got := run(s, r, press, Pointer{Move, 150, 150}, Pointer{Move, 250, 150}, Pointer{Move, 50, 150})
		if len(got) != 0 {
			t.Errorf("press at (%v,%v): events %v, want none", press.X, press.Y, got)
		}
	}
}

func TestRectContainsIsStrict(t *testing.T) {
	r := Rect{Left: 0, Top: 0, Right: 10, Bottom: 10}
	tests := []struct {
		x, y float64
		want bool
	}{
		{5, 5, true},
		{0, 5, false},
		{10, 5, false},
		{5, 10, false},
		{-1, -1, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}
