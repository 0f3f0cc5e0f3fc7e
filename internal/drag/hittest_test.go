package drag

import "testing"

func TestNewAxes(t *testing.T) {
	a := NewAxes(Rect{Left: 10, Top: 20, Right: 410, Bottom: 420}, 4, 4)
	wantRows := []float64{120, 220, 320, 420}
	wantCols := []float64{110, 210, 310, 410}
	for i := range wantRows {
		if a.Rows[i] != wantRows[i] {
			t.Errorf("Rows[%d] = %v, want %v", i, a.Rows[i], wantRows[i])
		}
		if a.Columns[i] != wantCols[i] {
			t.Errorf("Columns[%d] = %v, want %v", i, a.Columns[i], wantCols[i])
		}
	}
}

func TestIndexAt(t *testing.T) {
	a := NewAxes(Rect{Left: 0, Top: 0, Right: 400, Bottom: 500}, 5, 4)
	tests := []struct {
		x, y float64
		want int
	}{
		{10, 10, 0},
		{150, 10, 1},
		{399, 10, 3},
		{10, 150, 4},
		{350, 450, 19},
		{100, 10, 1},
		{400, 10, Invalid},
		{10, 500, Invalid},
	}
	for _, tt := range tests {
		if got := a.IndexAt(tt.x, tt.y); got != tt.want {
			t.Errorf("IndexAt(%v, %v) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCellAtClamps(t *testing.T) {
	a := NewAxes(Rect{Left: 0, Top: 0, Right: 400, Bottom: 400}, 4, 4)
	tests := []struct {
		x, y             float64
		wantRow, wantCol int
	}{
		{50, 50, 0, 0},
		{250, 350, 3, 2},
		{900, 50, 0, 3},
		{50, 900, 3, 0},
	}
	for _, tt := range tests {
		row, col := a.CellAt(tt.x, tt.y)
		if row != tt.wantRow || col != tt.wantCol {
			t.Errorf("CellAt(%v, %v) = (%d,%d), want (%d,%d)", tt.x, tt.y, row, col, tt.wantRow, tt.wantCol)
		}
	}
}

func TestCell(t *testing.T) {
	a := NewAxes(Rect{Right: 400, Bottom: 500}, 5, 4)
	if row, col := a.Cell(9); row != 2 || col != 1 {
		t.Errorf("Cell(9) = (%d,%d), want (2,1)", row, col)
	}
	if row, col := a.Cell(Invalid); row != Invalid || col != Invalid {
		t.Errorf("Cell(Invalid) = (%d,%d), want invalid", row, col)
	}
}
