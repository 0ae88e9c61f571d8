package l2frames

import (
	"fmt"
	"image"
)

// Layout is the grid geometry of a motion-vector stream. Cells are
// addressed row-major: cell = row*Columns + column.
type Layout struct {
	Width      int // video width in pixels
	Height     int // video height in pixels
	CellWidth  int
	CellHeight int
	Columns    int
	Rows       int
}

// NewLayout derives cell sizes from the pixel size and the grid dimensions.
func NewLayout(width, height, columns, rows int) (Layout, error) {
	if width <= 0 || height <= 0 {
		return Layout{}, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if columns <= 0 || rows <= 0 {
		return Layout{}, fmt.Errorf("invalid grid %dx%d", columns, rows)
	}
	if columns > width || rows > height {
		return Layout{}, fmt.Errorf("grid %dx%d finer than frame %dx%d", columns, rows, width, height)
	}
	return Layout{
		Width:      width,
		Height:     height,
		CellWidth:  width / columns,
		CellHeight: height / rows,
		Columns:    columns,
		Rows:       rows,
	}, nil
}

// Cells returns the total number of grid cells.
func (l Layout) Cells() int {
	return l.Columns * l.Rows
}

// CellBounds returns the pixel bounding box of a cell.
func (l Layout) CellBounds(cell int) image.Rectangle {
	col := cell % l.Columns
	row := cell / l.Columns
	return image.Rect(col*l.CellWidth, row*l.CellHeight, (col+1)*l.CellWidth, (row+1)*l.CellHeight)
}

// Coarser returns a layout over the same pixels with fewer cells.
func (l Layout) Coarser(columns, rows int) (Layout, error) {
	if columns > l.Columns || rows > l.Rows {
		return Layout{}, fmt.Errorf("target grid %dx%d is finer than %dx%d", columns, rows, l.Columns, l.Rows)
	}
	return NewLayout(l.Width, l.Height, columns, rows)
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d px, %dx%d cells of %dx%d", l.Width, l.Height, l.Columns, l.Rows, l.CellWidth, l.CellHeight)
}
