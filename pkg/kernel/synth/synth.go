// Package synth constructs boundary-representation models
// programmatically. It is the second kernel backend next to step,
// used for reference solids and the synthetic fixtures exercised by
// tests and benchmarks.
package synth

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brepgraph/pkg/kernel"
)

func uv(u, v float64) v2.Vec { return v2.Vec{X: u, Y: v} }

// Builder incrementally assembles a kernel.Model. Edge-use orientation
// is derived from geometry, so callers only state which faces an edge
// bounds.
type Builder struct {
	m *kernel.Model
}

// NewBuilder starts a model with the given source name.
func NewBuilder(name string) *Builder {
	return &Builder{m: kernel.NewModel(name)}
}

// Model returns the assembled model.
func (b *Builder) Model() *kernel.Model { return b.m }

// AddFace appends a face whose UV bounds are the bounding box of its
// trim loops. A face with no loops has a zero-area domain and is
// flagged degenerate.
func (b *Builder) AddFace(s kernel.Surface, loops ...kernel.TrimLoop) kernel.FaceID {
	return b.m.AddFace(s, kernel.LoopBounds(loops), loops)
}

// AddEdge appends a topological edge over the given parameter range.
func (b *Builder) AddEdge(c kernel.Curve, rng kernel.Interval) kernel.EdgeID {
	return b.m.AddEdge(c, rng)
}

// Connect records that face is bounded by edge, deriving the traversal
// orientation from geometry: the boundary must run with the face
// interior on its left when viewed from the outward normal side.
func (b *Builder) Connect(face kernel.FaceID, edge kernel.EdgeID) {
	b.m.AddEdgeUse(face, edge, !b.alongBoundary(face, edge))
}

// alongBoundary reports whether the edge curve's parameter direction
// agrees with the face's boundary traversal direction at the curve
// midpoint.
func (b *Builder) alongBoundary(face kernel.FaceID, edge kernel.EdgeID) bool {
	f := b.m.Face(face)
	e := b.m.Edge(edge)

	tm := e.Range.Mid()
	p := e.Curve.Point(tm)
	tan := e.Curve.Tangent(tm)

	pu, pv := f.Surface.Periods()
	uc := (f.Bounds.UMin + f.Bounds.UMax) / 2
	vc := (f.Bounds.VMin + f.Bounds.VMax) / 2

	u, v := f.Surface.Project(p)
	u = kernel.UnwrapNear(u, uc, pu)
	v = kernel.UnwrapNear(v, vc, pv)

	eps := 1e-6 * (1 + p.Length())
	u2, v2 := f.Surface.Project(p.Add(tan.MulScalar(eps)))
	u2 = kernel.UnwrapNear(u2, u, pu)
	v2 = kernel.UnwrapNear(v2, v, pv)

	du, dv := u2-u, v2-v

	// Interior lies toward the domain center; the left side of the
	// traversal direction in UV is (-dv, du).
	interiorLeft := -dv*(uc-u)+du*(vc-v) > 0

	// With the natural parametrization (normal = Pu x Pv) the boundary
	// runs counter-clockwise in UV; a flipped face runs clockwise.
	hu := 1e-6 * (1 + f.Bounds.Width())
	hv := 1e-6 * (1 + f.Bounds.Height())
	fdu := f.Surface.Point(u+hu, v).Sub(f.Surface.Point(u-hu, v))
	fdv := f.Surface.Point(u, v+hv).Sub(f.Surface.Point(u, v-hv))
	natural := fdu.Cross(fdv).Dot(f.Surface.Normal(u, v)) > 0

	return interiorLeft == natural
}

// planeFace adds a planar face whose trim loop is the polygon of the
// given corner points, projected into the plane's UV space.
func (b *Builder) planeFace(origin, normal, ref v3.Vec, corners []v3.Vec) kernel.FaceID {
	s := kernel.Plane{Frame: kernel.NewFrame(origin, normal, ref)}
	loop := make(kernel.TrimLoop, 0, len(corners))
	for _, c := range corners {
		u, v := s.Project(c)
		loop = append(loop, uv(u, v))
	}
	return b.AddFace(s, loop)
}

// segment adds a straight edge between two points.
func (b *Builder) segment(p0, p1 v3.Vec) kernel.EdgeID {
	d := p1.Sub(p0)
	return b.AddEdge(kernel.NewLine(p0, d), kernel.Interval{Min: 0, Max: d.Length()})
}
