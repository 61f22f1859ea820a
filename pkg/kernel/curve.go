package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	_ Curve = Line{}
	_ Curve = Circle{}
	_ Curve = Ellipse{}
)

// Line is an infinite straight line; the parameter is arc length from
// Point0 along Dir. Edge ranges clip it to a segment.
type Line struct {
	Point0 v3.Vec
	Dir    v3.Vec // unit
}

// NewLine builds a line through p with direction d (normalized).
func NewLine(p, d v3.Vec) Line {
	return Line{Point0: p, Dir: d.Normalize()}
}

func (c Line) Bounds() Interval {
	return Interval{Min: math.Inf(-1), Max: math.Inf(1)}
}

func (c Line) Point(t float64) v3.Vec {
	return c.Point0.Add(c.Dir.MulScalar(t))
}

func (c Line) Tangent(t float64) v3.Vec { return c.Dir }

func (c Line) Project(p v3.Vec) float64 {
	return p.Sub(c.Point0).Dot(c.Dir)
}

// Circle lies in the XY plane of its frame; the parameter is the
// angle from XDir, periodic over 2*pi.
type Circle struct {
	Frame  Frame
	Radius float64
}

func (c Circle) Bounds() Interval {
	return Interval{Min: 0, Max: 2 * math.Pi}
}

func (c Circle) Point(t float64) v3.Vec {
	return c.Frame.Origin.Add(c.Frame.radial(t).MulScalar(c.Radius))
}

func (c Circle) Tangent(t float64) v3.Vec {
	return c.Frame.YDir.MulScalar(math.Cos(t)).Sub(c.Frame.XDir.MulScalar(math.Sin(t)))
}

func (c Circle) Project(p v3.Vec) float64 {
	x, y, _ := c.Frame.local(p)
	return WrapPeriodic(math.Atan2(y, x), 0, 2*math.Pi)
}

// Ellipse lies in the XY plane of its frame with semi-axes Major
// along XDir and Minor along YDir.
type Ellipse struct {
	Frame Frame
	Major float64
	Minor float64
}

func (c Ellipse) Bounds() Interval {
	return Interval{Min: 0, Max: 2 * math.Pi}
}

func (c Ellipse) Point(t float64) v3.Vec {
	return c.Frame.Origin.
		Add(c.Frame.XDir.MulScalar(c.Major * math.Cos(t))).
		Add(c.Frame.YDir.MulScalar(c.Minor * math.Sin(t)))
}

func (c Ellipse) Tangent(t float64) v3.Vec {
	d := c.Frame.YDir.MulScalar(c.Minor * math.Cos(t)).
		Sub(c.Frame.XDir.MulScalar(c.Major * math.Sin(t)))
	return d.Normalize()
}

func (c Ellipse) Project(p v3.Vec) float64 {
	x, y, _ := c.Frame.local(p)
	// Parametric angle, not polar angle.
	return WrapPeriodic(math.Atan2(y/c.Minor, x/c.Major), 0, 2*math.Pi)
}
