package facegraph

import (
	"fmt"
	"math"
)

// Validate checks the structural invariants every well-formed graph
// carries: uniform grid shapes, sequential node ids, and edge
// endpoints that index real, distinct nodes. Read-only.
func (g *Graph) Validate() error {
	if g.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema version %d, expected %d", g.SchemaVersion, SchemaVersion)
	}
	if g.GridResolution < 2 {
		return fmt.Errorf("grid resolution %d, expected >= 2", g.GridResolution)
	}
	if g.EdgeSamples < 2 {
		return fmt.Errorf("edge sample count %d, expected >= 2", g.EdgeSamples)
	}
	// Source is stored with a 16-bit length prefix.
	if len(g.Source) > math.MaxUint16 {
		return fmt.Errorf("source name %d bytes, limit %d", len(g.Source), math.MaxUint16)
	}
	want := g.GridResolution * g.GridResolution
	for i, n := range g.Nodes {
		if n.ID != i {
			return fmt.Errorf("node %d carries id %d", i, n.ID)
		}
		if n.Grid.Res != g.GridResolution || len(n.Grid.Samples) != want {
			return fmt.Errorf("node %d grid is %dx%d (%d samples), expected %d samples of %dx%d",
				i, n.Grid.Res, n.Grid.Res, len(n.Grid.Samples), want,
				g.GridResolution, g.GridResolution)
		}
	}
	for i, e := range g.Edges {
		if e.A < 0 || e.B >= len(g.Nodes) || e.A >= e.B {
			return fmt.Errorf("edge %d endpoints (%d,%d) invalid for %d nodes",
				i, e.A, e.B, len(g.Nodes))
		}
		if len(e.Samples) != g.EdgeSamples {
			return fmt.Errorf("edge %d has %d samples, expected %d",
				i, len(e.Samples), g.EdgeSamples)
		}
		if e.Convexity > ConvexityConcave {
			return fmt.Errorf("edge %d convexity %d out of range", i, e.Convexity)
		}
	}
	return nil
}
