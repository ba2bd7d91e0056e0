package engine

// Grid holds the tiles of one board and answers position queries.
// Matched tiles stay in the slice so IDs remain stable; they no longer
// occupy their cell.
type Grid struct {
	width    int
	height   int
	padding  int
	tileSize float64
	pitch    float64
	tiles    []*Tile
	byID     map[int]*Tile
}

func newGrid(config *GameConfig, tiles []*Tile) *Grid {
	g := &Grid{
		width:    config.GridWidth,
		height:   config.GridHeight,
		padding:  config.Padding,
		tileSize: float64(config.TileSize),
		pitch:    config.Pitch(),
		tiles:    tiles,
		byID:     make(map[int]*Tile, len(tiles)),
	}
	for _, t := range tiles {
		g.byID[t.ID] = t
	}
	return g
}

// Width returns the number of columns
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows
func (g *Grid) Height() int { return g.height }

// Pitch returns the pixel distance between neighbouring cells
func (g *Grid) Pitch() float64 { return g.pitch }

// Tiles returns every tile, matched ones included, in ID order
func (g *Grid) Tiles() []*Tile { return g.tiles }

// TileByID returns the tile with the given ID or nil
func (g *Grid) TileByID(id int) *Tile {
	return g.byID[id]
}

// CellOf returns the logical cell of a tile
func (g *Grid) CellOf(t *Tile) Cell {
	return Cell{Col: t.Col, Row: t.Row}
}

// TileAt returns the unmatched tile occupying a cell, or nil
func (g *Grid) TileAt(col, row int) *Tile {
	for _, t := range g.tiles {
		if !t.Matched && t.Col == col && t.Row == row {
			return t
		}
	}
	return nil
}

// Unmatched returns the tiles still in play in ID order
func (g *Grid) Unmatched() []*Tile {
	out := make([]*Tile, 0, len(g.tiles))
	for _, t := range g.tiles {
		if !t.Matched {
			out = append(out, t)
		}
	}
	return out
}

// AllMatched reports whether the board has been cleared
func (g *Grid) AllMatched() bool {
	for _, t := range g.tiles {
		if !t.Matched {
			return false
		}
	}
	return true
}

// Origin returns the top-left pixel of a cell
func (g *Grid) Origin(c Cell) Point {
	return Point{X: float64(c.Col) * g.pitch, Y: float64(c.Row) * g.pitch}
}

// Center returns the pixel center of a cell. Cells in the padding ring
// have negative or out-of-range coordinates and map accordingly.
func (g *Grid) Center(c Cell) Point {
	o := g.Origin(c)
	half := g.tileSize / 2
	return Point{X: o.X + half, Y: o.Y + half}
}

// CellAtPixel maps a pixel coordinate to the cell whose tile covers it.
// The second result is false for gaps and positions off the board.
func (g *Grid) CellAtPixel(p Point) (Cell, bool) {
	if p.X < 0 || p.Y < 0 {
		return Cell{}, false
	}
	col := int(p.X / g.pitch)
	row := int(p.Y / g.pitch)
	if col >= g.width || row >= g.height {
		return Cell{}, false
	}
	if p.X-float64(col)*g.pitch >= g.tileSize || p.Y-float64(row)*g.pitch >= g.tileSize {
		return Cell{}, false
	}
	return Cell{Col: col, Row: row}, true
}

func (g *Grid) inBounds(c Cell) bool {
	return c.Col >= 0 && c.Col < g.width && c.Row >= 0 && c.Row < g.height
}
