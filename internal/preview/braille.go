package preview

// grid is a braille raster. Each terminal cell covers a 2x4 block of
// micro-pixels, one bit per dot in the Unicode braille range, with a
// per-cell foreground color where the last writer wins.
type grid struct {
	cols, rows int
	lim        int // micro-coordinate clamp bound
	mask       [][]uint8
	color      [][]string
}

func newGrid(cols, rows int) *grid {
	mask := make([][]uint8, rows)
	color := make([][]string, rows)
	for i := range mask {
		mask[i] = make([]uint8, cols)
		color[i] = make([]string, cols)
	}
	return &grid{
		cols:  cols,
		rows:  rows,
		lim:   4 * max(cols*2, rows*4),
		mask:  mask,
		color: color,
	}
}

// set marks the micro-pixel at (mx, my) on the cols*2 by rows*4 microgrid.
func (g *grid) set(mx, my int, color string) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cx >= g.cols || cy >= g.rows {
		return
	}
	var bit uint8
	if mx%2 == 0 {
		switch my % 4 {
		case 0:
			bit = 0x01
		case 1:
			bit = 0x02
		case 2:
			bit = 0x04
		case 3:
			bit = 0x40
		}
	} else {
		switch my % 4 {
		case 0:
			bit = 0x08
		case 1:
			bit = 0x10
		case 2:
			bit = 0x20
		case 3:
			bit = 0x80
		}
	}
	g.mask[cy][cx] |= bit
	g.color[cy][cx] = color
}

// line walks a Bresenham line across the microgrid. Endpoints are expected
// to be pre-clamped so the walk stays bounded.
func (g *grid) line(x0, y0, x1, y1 int, color string) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		g.set(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// fill sets every micro-pixel in the inclusive rectangle, clipped to the grid.
func (g *grid) fill(x0, y0, x1, y1 int, color string) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	x0 = max(x0, 0)
	y0 = max(y0, 0)
	x1 = min(x1, g.cols*2-1)
	y1 = min(y1, g.rows*4-1)
	for my := y0; my <= y1; my++ {
		for mx := x0; mx <= x1; mx++ {
			g.set(mx, my, color)
		}
	}
}

// cellRune returns the braille rune for a cell, or space when empty.
func (g *grid) cellRune(x, y int) rune {
	mask := g.mask[y][x]
	if mask == 0 {
		return ' '
	}
	return rune(0x2800 + int(mask))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
