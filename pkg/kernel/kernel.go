// Package kernel defines the abstract geometry kernel adapter.
// Backends (step, synth) parse or construct boundary-representation
// models and expose them through a flat, index-addressed topology
// table. The adapter abstraction keeps the sampling and graph layers
// independent of any particular CAD kernel's object model.
package kernel

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// FaceID indexes a face in a Model's face table.
type FaceID int

// EdgeID indexes a topological edge in a Model's edge table.
type EdgeID int

// NoFace marks an absent face reference (the open side of a sheet edge).
const NoFace FaceID = -1

// SurfaceType classifies the underlying parametric surface of a face.
type SurfaceType int

const (
	SurfacePlane SurfaceType = iota
	SurfaceCylinder
	SurfaceCone
	SurfaceSphere
	SurfaceTorus
	SurfaceFreeform
	SurfaceOther
)

func (t SurfaceType) String() string {
	switch t {
	case SurfacePlane:
		return "plane"
	case SurfaceCylinder:
		return "cylinder"
	case SurfaceCone:
		return "cone"
	case SurfaceSphere:
		return "sphere"
	case SurfaceTorus:
		return "torus"
	case SurfaceFreeform:
		return "freeform"
	case SurfaceOther:
		return "other"
	default:
		return fmt.Sprintf("SurfaceType(%d)", int(t))
	}
}

// NumSurfaceTypes is the size of the closed SurfaceType variant set.
const NumSurfaceTypes = 7

// UVBounds is the rectangular extent of a face's visible parameter domain.
type UVBounds struct {
	UMin, UMax float64
	VMin, VMax float64
}

// Width returns the U extent.
func (b UVBounds) Width() float64 { return b.UMax - b.UMin }

// Height returns the V extent.
func (b UVBounds) Height() float64 { return b.VMax - b.VMin }

// Degenerate reports whether the domain has (near) zero area.
func (b UVBounds) Degenerate(tol float64) bool {
	return b.Width() < tol || b.Height() < tol
}

// Interval is a 1D parameter range of an edge curve.
type Interval struct {
	Min, Max float64
}

// Mid returns the interval midpoint.
func (i Interval) Mid() float64 { return (i.Min + i.Max) / 2 }

// Surface is the evaluation contract for a face's underlying surface.
// Concrete implementations form a closed variant set identified by Type.
type Surface interface {
	// Type returns the surface classification tag.
	Type() SurfaceType
	// Point evaluates the 3D position at (u, v).
	Point(u, v float64) v3.Vec
	// Normal evaluates the unit surface normal at (u, v), oriented
	// outward with respect to the owning face.
	Normal(u, v float64) v3.Vec
	// Project returns the (u, v) parameters of the surface point
	// nearest to p. Exact for the analytic surfaces, iterative for
	// splines.
	Project(p v3.Vec) (u, v float64)
	// Periods returns the parametric periods of the U and V axes.
	// A zero period means the axis is not periodic.
	Periods() (pu, pv float64)
}

// Curve is the evaluation contract for an edge's underlying 3D curve.
type Curve interface {
	// Bounds returns the natural parameter range of the curve.
	Bounds() Interval
	// Point evaluates the 3D position at parameter t.
	Point(t float64) v3.Vec
	// Tangent evaluates the unit tangent at parameter t.
	Tangent(t float64) v3.Vec
	// Project returns the parameter of the curve point nearest to p.
	Project(p v3.Vec) float64
}

// TrimLoop is a closed polygon in UV space bounding the visible region
// of a face. The first loop of a face is its outer boundary; any
// further loops are holes.
type TrimLoop []v2.Vec

// EdgeUse is one traversal of an edge by a face's bounding loop.
type EdgeUse struct {
	Edge     EdgeID
	Reversed bool // traversal runs against the curve's parameter direction
}

// Face is a read-only view of one entry in a Model's face table.
type Face struct {
	ID         FaceID
	Surface    Surface
	Bounds     UVBounds
	Loops      []TrimLoop
	Degenerate bool
}

// Edge is a read-only view of one entry in a Model's edge table.
// Faces holds the (up to two) adjacent faces; an open side is NoFace.
// Seam marks an edge bounding the same face twice (periodic seam).
type Edge struct {
	ID    EdgeID
	Curve Curve
	Range Interval
	Faces [2]FaceID
	Seam  bool
}

// Model is a flat arena of faces and edges produced by one backend
// load. Handles are plain indices; the arena is owned by the active
// conversion and carries no back-references into backend state.
// Face order is the backend's native enumeration order and is the
// ordering contract for everything downstream.
type Model struct {
	name  string
	faces []faceRecord
	edges []edgeRecord
}

type faceRecord struct {
	surface    Surface
	bounds     UVBounds
	loops      []TrimLoop
	uses       []EdgeUse
	degenerate bool
}

type edgeRecord struct {
	curve Curve
	rng   Interval
	faces [2]FaceID
	seam  bool
}

// NewModel creates an empty model named after its source.
func NewModel(name string) *Model {
	return &Model{name: name}
}

// Name returns the source identity of the model.
func (m *Model) Name() string { return m.name }

// NumFaces returns the number of faces in native order.
func (m *Model) NumFaces() int { return len(m.faces) }

// NumEdges returns the number of topological edges.
func (m *Model) NumEdges() int { return len(m.edges) }

// Face returns the face view for id.
func (m *Model) Face(id FaceID) Face {
	r := &m.faces[id]
	return Face{
		ID:         id,
		Surface:    r.surface,
		Bounds:     r.bounds,
		Loops:      r.loops,
		Degenerate: r.degenerate,
	}
}

// Edge returns the edge view for id.
func (m *Model) Edge(id EdgeID) Edge {
	r := &m.edges[id]
	return Edge{
		ID:    id,
		Curve: r.curve,
		Range: r.rng,
		Faces: r.faces,
		Seam:  r.seam,
	}
}

// FaceEdges returns the edge uses bounding face id, in loop order.
func (m *Model) FaceEdges(id FaceID) []EdgeUse {
	return m.faces[id].uses
}

// AddFace appends a face and returns its handle. A zero-area domain
// marks the face degenerate; degenerate faces stay in the table so
// native indices remain stable, and the graph layer excludes them.
func (m *Model) AddFace(s Surface, bounds UVBounds, loops []TrimLoop) FaceID {
	id := FaceID(len(m.faces))
	m.faces = append(m.faces, faceRecord{
		surface:    s,
		bounds:     bounds,
		loops:      loops,
		degenerate: bounds.Degenerate(DegenerateTol),
	})
	return id
}

// MarkDegenerate flags a face the backend could not evaluate.
func (m *Model) MarkDegenerate(id FaceID) {
	m.faces[id].degenerate = true
}

// AddEdge appends a topological edge with no adjacency yet.
func (m *Model) AddEdge(c Curve, rng Interval) EdgeID {
	id := EdgeID(len(m.edges))
	m.edges = append(m.edges, edgeRecord{
		curve: c,
		rng:   rng,
		faces: [2]FaceID{NoFace, NoFace},
	})
	return id
}

// AddEdgeUse records that face traverses edge in its bounding loop and
// resolves the edge's adjacency. The first two distinct faces become
// the edge's neighbors; a repeat of the same face marks a seam; any
// further face is ignored (non-manifold input keeps its first pair).
func (m *Model) AddEdgeUse(face FaceID, edge EdgeID, reversed bool) {
	m.faces[face].uses = append(m.faces[face].uses, EdgeUse{Edge: edge, Reversed: reversed})

	e := &m.edges[edge]
	switch {
	case e.faces[0] == NoFace:
		e.faces[0] = face
	case e.faces[0] == face && e.faces[1] == NoFace:
		e.seam = true
	case e.faces[1] == NoFace:
		e.faces[1] = face
	}
}

// DegenerateTol is the parametric area tolerance below which a face
// domain counts as zero-area.
const DegenerateTol = 1e-9

// NormalTol is the unit-length tolerance for evaluated normals.
const NormalTol = 1e-6

// WrapPeriodic maps t into [min, min+period) for a periodic axis.
func WrapPeriodic(t, min, period float64) float64 {
	if period <= 0 {
		return t
	}
	w := math.Mod(t-min, period)
	if w < 0 {
		w += period
	}
	return min + w
}

// Loop builds a rectangular trim loop covering bounds. Backends use it
// for faces whose visible region is the whole parametric box.
func (b UVBounds) Loop() TrimLoop {
	return TrimLoop{
		{X: b.UMin, Y: b.VMin},
		{X: b.UMax, Y: b.VMin},
		{X: b.UMax, Y: b.VMax},
		{X: b.UMin, Y: b.VMax},
	}
}
