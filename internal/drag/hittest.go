package drag

// Axes holds the precomputed cell boundaries of a grid surface. Rows[i] is
// the bottom edge of row i and Columns[j] the right edge of column j.
type Axes struct {
	Rows    []float64
	Columns []float64
}

// NewAxes splits the area into rows x cols equal cells.
func NewAxes(area Rect, rows, cols int) Axes {
	a := Axes{Rows: make([]float64, rows), Columns: make([]float64, cols)}
	if rows > 0 {
		h := area.Height() / float64(rows)
		for i := range a.Rows {
			a.Rows[i] = h*float64(i+1) + area.Top
		}
	}
	if cols > 0 {
		w := area.Width() / float64(cols)
		for i := range a.Columns {
			a.Columns[i] = w*float64(i+1) + area.Left
		}
	}
	return a
}

// boundary returns the first index whose boundary exceeds v, or Invalid.
func boundary(bounds []float64, v float64) int {
	for i, b := range bounds {
		if b > v {
			return i
		}
	}
	return Invalid
}

// IndexAt returns row*columns+column for the cell under the point, or
// Invalid when the point is past the last row or column.
func (a Axes) IndexAt(x, y float64) int {
	row := boundary(a.Rows, y)
	col := boundary(a.Columns, x)
	if row == Invalid || col == Invalid {
		return Invalid
	}
	return row*len(a.Columns) + col
}

// CellAt returns the row and column under the point, clamped to the last
// row and column.
func (a Axes) CellAt(x, y float64) (row, col int) {
	row = boundary(a.Rows, y)
	if row == Invalid {
		row = len(a.Rows) - 1
	}
	col = boundary(a.Columns, x)
	if col == Invalid {
		col = len(a.Columns) - 1
	}
	return row, col
}

// Cell splits an index returned by IndexAt.
func (a Axes) Cell(index int) (row, col int) {
	if index < 0 || len(a.Columns) == 0 {
		return Invalid, Invalid
	}
	return index / len(a.Columns), index % len(a.Columns)
}
