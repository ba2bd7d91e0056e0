package engine

import "math"

// direction is the edge a movement region packs toward
type direction int

const (
	stay direction = iota
	toTop
	toBottom
	toLeft
	toRight
)

// regionOf assigns a cell to its movement region. Coordinates are compared
// doubled so the centerline of odd dimensions stays integral. Every region
// is a rectangle reaching the edge it packs toward, so packing never moves a
// tile into another region.
func (g *Grid) regionOf(mode GravityMode, c Cell) direction {
	x, y := 2*c.Col, 2*c.Row
	cx, cy := g.width-1, g.height-1

	switch mode {
	case Down:
		return toBottom
	case Up:
		return toTop
	case Left:
		return toLeft
	case Right:
		return toRight
	case SplitLeftRight:
		if x < cx {
			return toLeft
		}
		return toRight
	case SplitUpDown:
		if y < cy {
			return toTop
		}
		return toBottom
	case Clockwise:
		switch {
		case x >= cx && y < cy:
			return toRight
		case x > cx && y >= cy:
			return toBottom
		case x <= cx && y > cy:
			return toLeft
		case x == cx && y == cy:
			// The column above belongs to the right-moving region, so an
			// upward centre would collide with it
			return stay
		}
		return toTop
	case CounterClockwise:
		switch {
		case x >= cx && y < cy:
			return toTop
		case x > cx && y >= cy:
			return toRight
		case x <= cx && y > cy:
			return toBottom
		}
		return toLeft
	}
	return stay
}

// targets computes the settled cell of every unmatched tile from the current
// logical layout
func (g *Grid) targets(mode GravityMode) map[int]Cell {
	open := g.Unmatched()
	region := make(map[int]direction, len(open))
	for _, t := range open {
		region[t.ID] = g.regionOf(mode, g.CellOf(t))
	}

	out := make(map[int]Cell, len(open))
	for _, t := range open {
		dir := region[t.ID]
		k := 0
		for _, o := range open {
			if o.ID == t.ID || region[o.ID] != dir {
				continue
			}
			switch dir {
			case toBottom:
				if o.Col == t.Col && o.Row > t.Row {
					k++
				}
			case toTop:
				if o.Col == t.Col && o.Row < t.Row {
					k++
				}
			case toRight:
				if o.Row == t.Row && o.Col > t.Col {
					k++
				}
			case toLeft:
				if o.Row == t.Row && o.Col < t.Col {
					k++
				}
			}
		}

		target := g.CellOf(t)
		switch dir {
		case toBottom:
			target.Row = g.height - 1 - k
		case toTop:
			target.Row = k
		case toRight:
			target.Col = g.width - 1 - k
		case toLeft:
			target.Col = k
		}
		out[t.ID] = target
	}
	return out
}

// retarget commits the settled layout to every tile's logical cell. Pixel
// positions are left for step to animate.
func (g *Grid) retarget(mode GravityMode) {
	for id, c := range g.targets(mode) {
		t := g.byID[id]
		t.Col, t.Row = c.Col, c.Row
	}
}

// step advances every unmatched tile one frame toward its cell origin and
// reports whether anything moved
func (g *Grid) step() bool {
	moved := false
	for _, t := range g.tiles {
		if t.Matched {
			continue
		}
		dest := g.Origin(g.CellOf(t))
		var mx, my bool
		t.X, mx = approach(t.X, dest.X)
		t.Y, my = approach(t.Y, dest.Y)
		if mx || my {
			moved = true
		}
	}
	return moved
}

// settled reports whether every unmatched tile rests on its cell origin
func (g *Grid) settled() bool {
	for _, t := range g.tiles {
		if t.Matched {
			continue
		}
		dest := g.Origin(g.CellOf(t))
		if t.X != dest.X || t.Y != dest.Y {
			return false
		}
	}
	return true
}

// approach moves pos toward target by clamp(|d|/12, 2, 8) without overshooting
func approach(pos, target float64) (float64, bool) {
	d := target - pos
	if d == 0 {
		return pos, false
	}
	dist := math.Abs(d)
	step := math.Min(math.Max(dist/settleDivisor, minSettleStep), maxSettleStep)
	if step >= dist {
		return target, true
	}
	if d < 0 {
		return pos - step, true
	}
	return pos + step, true
}
