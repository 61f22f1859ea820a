package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Frame is a right-handed placement: origin, unit Z axis and unit X
// reference direction. It locates every analytic surface and curve.
type Frame struct {
	Origin v3.Vec
	Axis   v3.Vec // unit Z
	XDir   v3.Vec // unit X
	YDir   v3.Vec // Axis cross XDir
}

// NewFrame builds an orthonormal frame from an origin, an axis and a
// reference direction. The reference direction is re-orthogonalized
// against the axis; a reference (anti)parallel to the axis falls back
// to an arbitrary perpendicular.
func NewFrame(origin, axis, ref v3.Vec) Frame {
	z := axis.Normalize()
	x := ref.Sub(z.MulScalar(ref.Dot(z)))
	if x.Length() < 1e-12 {
		x = perpendicular(z)
	}
	x = x.Normalize()
	return Frame{Origin: origin, Axis: z, XDir: x, YDir: z.Cross(x)}
}

// perpendicular returns a unit vector perpendicular to z.
func perpendicular(z v3.Vec) v3.Vec {
	c := v3.Vec{X: 1}
	if math.Abs(z.X) > 0.9 {
		c = v3.Vec{Y: 1}
	}
	return z.Cross(c).Normalize()
}

// local returns the coordinates of p in the frame basis.
func (f Frame) local(p v3.Vec) (x, y, z float64) {
	d := p.Sub(f.Origin)
	return d.Dot(f.XDir), d.Dot(f.YDir), d.Dot(f.Axis)
}

// radial returns the unit vector cos(u)*X + sin(u)*Y.
func (f Frame) radial(u float64) v3.Vec {
	return f.XDir.MulScalar(math.Cos(u)).Add(f.YDir.MulScalar(math.Sin(u)))
}

// Compile-time variant set checks.
var (
	_ Surface = Plane{}
	_ Surface = Cylinder{}
	_ Surface = Cone{}
	_ Surface = Sphere{}
	_ Surface = Torus{}
	_ Surface = (*BSplineSurface)(nil)
	_ Surface = flipped{}
)

// Plane is an unbounded plane; U and V run along XDir and YDir.
type Plane struct {
	Frame Frame
}

func (s Plane) Type() SurfaceType { return SurfacePlane }

func (s Plane) Point(u, v float64) v3.Vec {
	return s.Frame.Origin.Add(s.Frame.XDir.MulScalar(u)).Add(s.Frame.YDir.MulScalar(v))
}

func (s Plane) Normal(u, v float64) v3.Vec { return s.Frame.Axis }

func (s Plane) Project(p v3.Vec) (float64, float64) {
	x, y, _ := s.Frame.local(p)
	return x, y
}

func (s Plane) Periods() (float64, float64) { return 0, 0 }

// Cylinder is a right circular cylinder. U is the angle around the
// axis (periodic), V the signed distance along it.
type Cylinder struct {
	Frame  Frame
	Radius float64
}

func (s Cylinder) Type() SurfaceType { return SurfaceCylinder }

func (s Cylinder) Point(u, v float64) v3.Vec {
	return s.Frame.Origin.
		Add(s.Frame.radial(u).MulScalar(s.Radius)).
		Add(s.Frame.Axis.MulScalar(v))
}

func (s Cylinder) Normal(u, v float64) v3.Vec { return s.Frame.radial(u) }

func (s Cylinder) Project(p v3.Vec) (float64, float64) {
	x, y, z := s.Frame.local(p)
	return math.Atan2(y, x), z
}

func (s Cylinder) Periods() (float64, float64) { return 2 * math.Pi, 0 }

// Cone is a right circular cone with apex half-angle SemiAngle and
// radius Radius in the placement plane. U is the angle around the
// axis (periodic), V the distance along the slant.
type Cone struct {
	Frame     Frame
	Radius    float64
	SemiAngle float64
}

func (s Cone) Type() SurfaceType { return SurfaceCone }

func (s Cone) radiusAt(v float64) float64 {
	return s.Radius + v*math.Sin(s.SemiAngle)
}

func (s Cone) Point(u, v float64) v3.Vec {
	return s.Frame.Origin.
		Add(s.Frame.radial(u).MulScalar(s.radiusAt(v))).
		Add(s.Frame.Axis.MulScalar(v * math.Cos(s.SemiAngle)))
}

func (s Cone) Normal(u, v float64) v3.Vec {
	cosA := math.Cos(s.SemiAngle)
	sinA := math.Sin(s.SemiAngle)
	return s.Frame.radial(u).MulScalar(cosA).Sub(s.Frame.Axis.MulScalar(sinA))
}

func (s Cone) Project(p v3.Vec) (float64, float64) {
	x, y, z := s.Frame.local(p)
	return math.Atan2(y, x), z / math.Cos(s.SemiAngle)
}

func (s Cone) Periods() (float64, float64) { return 2 * math.Pi, 0 }

// Sphere is a full sphere. U is the azimuth (periodic), V the
// latitude in [-pi/2, pi/2].
type Sphere struct {
	Frame  Frame
	Radius float64
}

func (s Sphere) Type() SurfaceType { return SurfaceSphere }

func (s Sphere) Point(u, v float64) v3.Vec {
	cv := math.Cos(v)
	return s.Frame.Origin.
		Add(s.Frame.radial(u).MulScalar(s.Radius * cv)).
		Add(s.Frame.Axis.MulScalar(s.Radius * math.Sin(v)))
}

func (s Sphere) Normal(u, v float64) v3.Vec {
	cv := math.Cos(v)
	return s.Frame.radial(u).MulScalar(cv).Add(s.Frame.Axis.MulScalar(math.Sin(v)))
}

func (s Sphere) Project(p v3.Vec) (float64, float64) {
	x, y, z := s.Frame.local(p)
	r := math.Sqrt(x*x + y*y + z*z)
	if r < 1e-12 {
		return 0, 0
	}
	return math.Atan2(y, x), math.Asin(clamp(z/r, -1, 1))
}

func (s Sphere) Periods() (float64, float64) { return 2 * math.Pi, 0 }

// Torus has major radius Major around the axis and tube radius Minor.
// Both axes are periodic: U around the axis, V around the tube.
type Torus struct {
	Frame Frame
	Major float64
	Minor float64
}

func (s Torus) Type() SurfaceType { return SurfaceTorus }

func (s Torus) Point(u, v float64) v3.Vec {
	rad := s.Frame.radial(u)
	return s.Frame.Origin.
		Add(rad.MulScalar(s.Major + s.Minor*math.Cos(v))).
		Add(s.Frame.Axis.MulScalar(s.Minor * math.Sin(v)))
}

func (s Torus) Normal(u, v float64) v3.Vec {
	rad := s.Frame.radial(u)
	return rad.MulScalar(math.Cos(v)).Add(s.Frame.Axis.MulScalar(math.Sin(v)))
}

func (s Torus) Project(p v3.Vec) (float64, float64) {
	x, y, z := s.Frame.local(p)
	u := math.Atan2(y, x)
	rho := math.Sqrt(x*x + y*y)
	return u, math.Atan2(z, rho-s.Major)
}

func (s Torus) Periods() (float64, float64) { return 2 * math.Pi, 2 * math.Pi }

// flipped negates the normal of a wrapped surface. Backends apply it
// when a face uses its surface with reversed orientation.
type flipped struct {
	Surface
}

func (s flipped) Normal(u, v float64) v3.Vec {
	return s.Surface.Normal(u, v).Neg()
}

// Flipped returns s with its normal orientation reversed. Flipping
// twice unwraps.
func Flipped(s Surface) Surface {
	if f, ok := s.(flipped); ok {
		return f.Surface
	}
	return flipped{s}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
