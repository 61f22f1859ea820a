// Package facegraph assembles face-adjacency graphs from kernel
// models: one node per face carrying its UV feature grid, one edge per
// shared topological edge carrying curve samples and a convexity
// label.
package facegraph

import (
	"fmt"

	"github.com/chazu/brepgraph/pkg/kernel"
	"github.com/chazu/brepgraph/pkg/uvgrid"
)

// SchemaVersion is the on-disk graph format version.
const SchemaVersion = 1

// Convexity classifies a shared edge by the dihedral angle between its
// two adjacent faces at the curve midpoint.
type Convexity uint8

const (
	ConvexitySmooth Convexity = iota // near-tangent faces
	ConvexityConvex
	ConvexityConcave
)

func (c Convexity) String() string {
	switch c {
	case ConvexitySmooth:
		return "smooth"
	case ConvexityConvex:
		return "convex"
	case ConvexityConcave:
		return "concave"
	default:
		return fmt.Sprintf("Convexity(%d)", int(c))
	}
}

// Node is one face: sequential identifier, surface classification,
// sampled feature grid, and the fraction of the grid inside the trim
// region.
type Node struct {
	ID          int
	SurfaceType kernel.SurfaceType
	Grid        uvgrid.Grid
	Visibility  float64
}

// Edge connects two distinct nodes sharing a topological edge. A and B
// are ordered A < B. Two faces sharing several edges get one Edge per
// shared edge.
type Edge struct {
	A, B      int
	Samples   []uvgrid.CurveSample
	Convexity Convexity
}

// Graph is the complete conversion artifact for one source file. Nodes
// follow the kernel's native face order; edges follow its native edge
// order. Once built a graph is never mutated.
type Graph struct {
	SchemaVersion  int
	Source         string
	GridResolution int
	EdgeSamples    int
	Nodes          []Node
	Edges          []Edge
}

// SurfaceHistogram counts nodes per surface type.
func (g *Graph) SurfaceHistogram() [kernel.NumSurfaceTypes]int {
	var h [kernel.NumSurfaceTypes]int
	for _, n := range g.Nodes {
		h[n.SurfaceType]++
	}
	return h
}
