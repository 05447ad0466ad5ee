package model

// Position is a cell coordinate on the square toroidal grid. Coordinates are
// always interpreted modulo the grid size; Wrap normalizes them into [0, size).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction is one of the four primary axis directions, or None.
// Screen convention: north is y-1, south is y+1, east is x+1, west is x-1.
type Direction uint8

const (
	None Direction = iota
	North
	East
	South
	West
)

// Directions lists the four primary directions in candidate order.
var Directions = [4]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return "-"
}

// Delta returns the single-step offset for the direction.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	}
	return 0, 0
}

// Opposite returns the reverse direction. None stays None.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	}
	return None
}

// Vertical reports whether the direction lies on the north/south axis.
func (d Direction) Vertical() bool { return d == North || d == South }

func mod(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}

// Wrap normalizes p into [0, size) on both axes.
func Wrap(p Position, size int) Position {
	if size <= 0 {
		return p
	}
	return Position{X: mod(p.X, size), Y: mod(p.Y, size)}
}

// Step moves p one cell in direction d, wrapping at the edges.
func Step(p Position, d Direction, size int) Position {
	dx, dy := d.Delta()
	return Wrap(Position{X: p.X + dx, Y: p.Y + dy}, size)
}

// axisDelta returns the signed shortest offset from a to b on one axis.
// When the direct and wraparound offsets are equal (b exactly half a grid
// away) the offset that does not cross the edge wins.
func axisDelta(a, b, size int) int {
	a, b = mod(a, size), mod(b, size)
	raw := b - a
	fwd := mod(raw, size)
	if fwd == 0 {
		return 0
	}
	back := size - fwd
	switch {
	case fwd < back:
		return fwd
	case back < fwd:
		return -back
	case raw > 0:
		return fwd
	default:
		return -back
	}
}

// Delta returns the toroidal offset from a to b per axis: the smaller of the
// direct and wraparound offsets, signed toward the shorter path.
func Delta(a, b Position, size int) (dx, dy int) {
	if size <= 0 {
		return b.X - a.X, b.Y - a.Y
	}
	return axisDelta(a.X, b.X, size), axisDelta(a.Y, b.Y, size)
}

// ManhattanDistance is the minimum number of single-step moves from a to b.
// The axes wrap independently, so the minimum over the four direct/wraparound
// path combinations is the sum of the per-axis minimums.
func ManhattanDistance(a, b Position, size int) int {
	dx, dy := Delta(a, b, size)
	return abs(dx) + abs(dy)
}

// PrimaryDirections returns the direction to travel on each axis to get from
// a to b, or None for an axis on which they coincide.
func PrimaryDirections(a, b Position, size int) (x, y Direction) {
	dx, dy := Delta(a, b, size)
	return axisDirection(dx, East, West), axisDirection(dy, South, North)
}

func axisDirection(delta int, pos, neg Direction) Direction {
	switch {
	case delta > 0:
		return pos
	case delta < 0:
		return neg
	}
	return None
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
