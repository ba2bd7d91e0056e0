package engine

// Connection is the result of a connectivity query between two tiles
type Connection struct {
	OK     bool    `json:"ok"`
	Turns  int     `json:"turns"`
	Length int     `json:"length"`
	Cells  []Cell  `json:"cells,omitempty"`
	Path   []Point `json:"path,omitempty"`
}

// occupancy is the padded blocking matrix for one query
type occupancy struct {
	width   int
	height  int
	blocked []bool
}

func (g *Grid) occupancy(a, b *Tile) *occupancy {
	o := &occupancy{
		width:  g.width + 2*g.padding,
		height: g.height + 2*g.padding,
	}
	o.blocked = make([]bool, o.width*o.height)
	for _, t := range g.tiles {
		if t.Matched || t.ID == a.ID || t.ID == b.ID {
			continue
		}
		o.blocked[(t.Row+g.padding)*o.width+t.Col+g.padding] = true
	}
	return o
}

func (o *occupancy) free(c Cell) bool {
	if c.Col < 0 || c.Col >= o.width || c.Row < 0 || c.Row >= o.height {
		return false
	}
	return !o.blocked[c.Row*o.width+c.Col]
}

// clear reports whether a and b share a row or column and every cell
// strictly between them is free
func (o *occupancy) clear(a, b Cell) bool {
	switch {
	case a.Row == b.Row:
		lo, hi := minInt(a.Col, b.Col), maxInt(a.Col, b.Col)
		for col := lo + 1; col < hi; col++ {
			if !o.free(Cell{Col: col, Row: a.Row}) {
				return false
			}
		}
		return true
	case a.Col == b.Col:
		lo, hi := minInt(a.Row, b.Row), maxInt(a.Row, b.Row)
		for row := lo + 1; row < hi; row++ {
			if !o.free(Cell{Col: a.Col, Row: row}) {
				return false
			}
		}
		return true
	}
	return false
}

// route finds the best path from a to b in padded coordinates. Candidates
// are ranked by turns, then Manhattan length, then scan order.
func (o *occupancy) route(a, b Cell) []Cell {
	if o.clear(a, b) {
		return []Cell{a, b}
	}

	if a.Col != b.Col && a.Row != b.Row {
		for _, c := range [2]Cell{{Col: b.Col, Row: a.Row}, {Col: a.Col, Row: b.Row}} {
			if o.free(c) && o.clear(a, c) && o.clear(c, b) {
				return []Cell{a, c, b}
			}
		}
	}

	var best []Cell
	bestLen := 0
	consider := func(c1, c2 Cell) {
		if !o.free(c1) || !o.free(c2) {
			return
		}
		if !o.clear(a, c1) || !o.clear(c1, c2) || !o.clear(c2, b) {
			return
		}
		length := manhattan(a, c1) + manhattan(c1, c2) + manhattan(c2, b)
		if best == nil || length < bestLen {
			best = []Cell{a, c1, c2, b}
			bestLen = length
		}
	}

	// horizontal leg, vertical detour column, horizontal leg
	if a.Row != b.Row {
		for col := 0; col < o.width; col++ {
			if col == a.Col || col == b.Col {
				continue
			}
			consider(Cell{Col: col, Row: a.Row}, Cell{Col: col, Row: b.Row})
		}
	}
	// vertical leg, horizontal detour row, vertical leg
	if a.Col != b.Col {
		for row := 0; row < o.height; row++ {
			if row == a.Row || row == b.Row {
				continue
			}
			consider(Cell{Col: a.Col, Row: row}, Cell{Col: b.Col, Row: row})
		}
	}

	return best
}

// Connect decides whether two tiles can be linked by an orthogonal path
// with at most two turns through empty cells or the padding ring. The
// query is symmetric: Connect(b, a) returns the reverse of Connect(a, b).
// Routes run over logical cells, so while tiles are still sliding the path
// endpoints are the centres of the cells they settle into, not their
// current pixel positions.
func (g *Grid) Connect(a, b *Tile) Connection {
	if a == nil || b == nil || a.ID == b.ID || a.Kind != b.Kind || a.Matched || b.Matched {
		return Connection{}
	}

	from, to := g.CellOf(a), g.CellOf(b)
	reversed := false
	if to.Row < from.Row || (to.Row == from.Row && to.Col < from.Col) {
		from, to = to, from
		reversed = true
	}

	occ := g.occupancy(a, b)
	pad := func(c Cell) Cell { return Cell{Col: c.Col + g.padding, Row: c.Row + g.padding} }
	route := occ.route(pad(from), pad(to))
	if route == nil {
		return Connection{}
	}

	cells := make([]Cell, len(route))
	length := 0
	for i, c := range route {
		cells[i] = Cell{Col: c.Col - g.padding, Row: c.Row - g.padding}
		if i > 0 {
			length += manhattan(route[i-1], c)
		}
	}
	if reversed {
		for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
			cells[i], cells[j] = cells[j], cells[i]
		}
	}

	path := make([]Point, len(cells))
	for i, c := range cells {
		path[i] = g.Center(c)
	}

	return Connection{
		OK:     true,
		Turns:  len(cells) - 2,
		Length: length,
		Cells:  cells,
		Path:   path,
	}
}

// FindPair returns the first connectable pair in ID order
func (g *Grid) FindPair() (HintPair, bool) {
	open := g.Unmatched()
	for i := 0; i < len(open); i++ {
		for j := i + 1; j < len(open); j++ {
			if open[i].Kind != open[j].Kind {
				continue
			}
			if g.Connect(open[i], open[j]).OK {
				return HintPair{A: open[i].ID, B: open[j].ID}, true
			}
		}
	}
	return HintPair{}, false
}

func manhattan(a, b Cell) int {
	return absInt(a.Col-b.Col) + absInt(a.Row-b.Row)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
