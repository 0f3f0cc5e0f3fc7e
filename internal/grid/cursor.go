package grid

// Cursor walks the cells of a page range in page, row, column order.
type Cursor struct {
	Rows    int
	Columns int
	first   int
	last    int
	page    int
	row     int
	col     int
	started bool
}

// NewCursor creates a cursor over pages first..last inclusive.
func NewCursor(rows, cols, first, last int) *Cursor {
	c := &Cursor{Rows: rows, Columns: cols, first: first, last: last}
	c.Reset()
	return c
}

// Reset rewinds the cursor to the first cell of the range.
func (c *Cursor) Reset() {
	c.page = c.first
	c.row = 0
	c.col = 0
	c.started = false
}

// Next advances to the following cell and reports whether one exists.
func (c *Cursor) Next() bool {
	if c.Rows <= 0 || c.Columns <= 0 || c.first > c.last {
		return false
	}
	if !c.started {
		c.started = true
		return true
	}
	c.col++
	if c.col >= c.Columns {
		c.col = 0
		c.row++
	}
	if c.row >= c.Rows {
		c.row = 0
		c.page++
	}
	return c.page <= c.last
}

// Position returns the current cell.
func (c *Cursor) Position() Position {
	return Position{Page: c.page, Row: c.row, Column: c.col}
}
