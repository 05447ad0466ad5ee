package survey

import "github.com/damoonsh/Halite/model"

// Leg is the part of a shortest path that runs along one axis: the primary
// direction travelled and how many steps are taken in it. A zero Leg
// (Dir == model.None) means the axis is not travelled at all.
type Leg struct {
	Dir   model.Direction `json:"dir"`
	Steps int             `json:"steps"`
}

// Offset decomposes the shortest toroidal path from a reference cell to a
// target into its horizontal and vertical legs.
type Offset struct {
	X Leg `json:"x"` // East or West
	Y Leg `json:"y"` // North or South
}

// OffsetBetween returns the decomposition of the shortest path from -> to.
func OffsetBetween(from, to model.Position, size int) Offset {
	dx, dy := model.Delta(from, to, size)
	xd, yd := model.PrimaryDirections(from, to, size)
	return Offset{
		X: Leg{Dir: xd, Steps: iabs(dx)},
		Y: Leg{Dir: yd, Steps: iabs(dy)},
	}
}

// PathLength is the number of single-step moves on the shortest path.
func (o Offset) PathLength() int { return o.X.Steps + o.Y.Steps }

// IsZero reports whether the offset points at the reference cell itself.
func (o Offset) IsZero() bool { return o.PathLength() == 0 }

// Adjacent reports whether the target is exactly one move away.
func (o Offset) Adjacent() bool { return o.PathLength() == 1 }

// Step returns the single direction of an adjacent offset, None otherwise.
func (o Offset) Step() model.Direction {
	if !o.Adjacent() {
		return model.None
	}
	if o.X.Steps == 1 {
		return o.X.Dir
	}
	return o.Y.Dir
}

// Weights returns the distance-decay weight per axis:
// 1 / (steps_on_axis^2 * path_length). An axis that is not travelled has
// weight 0, so a cell lying exactly on an axis feeds a single direction.
func (o Offset) Weights() (wx, wy float64) {
	n := float64(o.PathLength())
	if n == 0 {
		return 0, 0
	}
	if o.X.Steps > 0 {
		sx := float64(o.X.Steps)
		wx = 1 / (sx * sx * n)
	}
	if o.Y.Steps > 0 {
		sy := float64(o.Y.Steps)
		wy = 1 / (sy * sy * n)
	}
	return wx, wy
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
