package facegraph

import (
	"context"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"

	"github.com/chazu/brepgraph/pkg/kernel"
	"github.com/chazu/brepgraph/pkg/uvgrid"
)

// smoothAngle is the dihedral-angle threshold below which a shared
// edge is labeled smooth rather than convex or concave.
const smoothAngle = 0.1 // radians

// Options configures a graph build.
type Options struct {
	GridResolution int
	EdgeSamples    int
	Logger         *zap.Logger
}

// BuildStats reports what the builder skipped: non-fatal findings a
// caller may want to surface or aggregate.
type BuildStats struct {
	DegenerateFaces int // faces excluded from the node set
	OpenEdges       int // edges bounding a single face, no graph edge
	SeamEdges       int // self-adjacent periodic seams, no graph edge
	DroppedEdges    int // edges touching an excluded face
}

// Build converts a kernel model into a face-adjacency graph. Node
// identifiers follow the kernel's native face enumeration order, so
// repeated builds of the same model are identical. Cancellation is
// checked between faces; a canceled build returns ctx.Err() and no
// graph.
func Build(ctx context.Context, m *kernel.Model, opts Options) (*Graph, *BuildStats, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	stats := &BuildStats{}
	g := &Graph{
		SchemaVersion:  SchemaVersion,
		Source:         m.Name(),
		GridResolution: opts.GridResolution,
		EdgeSamples:    opts.EdgeSamples,
	}

	// Face pass. nodeOf maps kernel face index to node id, -1 for
	// excluded faces.
	nodeOf := make([]int, m.NumFaces())
	for i := 0; i < m.NumFaces(); i++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		f := m.Face(kernel.FaceID(i))
		if f.Degenerate {
			nodeOf[i] = -1
			stats.DegenerateFaces++
			log.Warn("excluding degenerate face",
				zap.String("source", m.Name()),
				zap.Int("face", i))
			continue
		}
		grid := uvgrid.SampleFace(f, opts.GridResolution)
		nodeOf[i] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{
			ID:          len(g.Nodes),
			SurfaceType: f.Surface.Type(),
			Grid:        grid,
			Visibility:  grid.Visibility(),
		})
	}

	// Adjacency pass, in native edge order.
	for i := 0; i < m.NumEdges(); i++ {
		e := m.Edge(kernel.EdgeID(i))
		// Seams carry NoFace in the second slot too, so they must be
		// classified before open edges.
		switch {
		case e.Seam || e.Faces[0] == e.Faces[1]:
			stats.SeamEdges++
			continue
		case e.Faces[1] == kernel.NoFace:
			stats.OpenEdges++
			continue
		}
		a, b := nodeOf[e.Faces[0]], nodeOf[e.Faces[1]]
		if a < 0 || b < 0 {
			stats.DroppedEdges++
			continue
		}
		faceA, faceB := e.Faces[0], e.Faces[1]
		if a > b {
			a, b = b, a
			faceA, faceB = faceB, faceA
		}
		g.Edges = append(g.Edges, Edge{
			A:         a,
			B:         b,
			Samples:   uvgrid.SampleCurve(e, opts.EdgeSamples),
			Convexity: classify(m, e, faceA, faceB),
		})
	}
	return g, stats, nil
}

// classify labels the dihedral angle at the edge's curve midpoint.
// faceA is the edge's lower-id endpoint; the sign convention takes the
// curve tangent in faceA's traversal direction, so (nA x nB) . t > 0
// means the surfaces fold outward (convex).
func classify(m *kernel.Model, e kernel.Edge, faceA, faceB kernel.FaceID) Convexity {
	tm := e.Range.Mid()
	p := e.Curve.Point(tm)

	nA := normalAt(m.Face(faceA).Surface, p)
	nB := normalAt(m.Face(faceB).Surface, p)

	dot := clamp(nA.Dot(nB), -1, 1)
	if math.Acos(dot) < smoothAngle {
		return ConvexitySmooth
	}

	t := e.Curve.Tangent(tm)
	if useReversed(m, faceA, e.ID) {
		t = t.Neg()
	}
	if nA.Cross(nB).Dot(t) > 0 {
		return ConvexityConvex
	}
	return ConvexityConcave
}

// normalAt evaluates the surface normal at the UV preimage of a 3D
// point on the surface.
func normalAt(s kernel.Surface, p v3.Vec) v3.Vec {
	u, v := s.Project(p)
	return s.Normal(u, v)
}

func useReversed(m *kernel.Model, f kernel.FaceID, e kernel.EdgeID) bool {
	for _, u := range m.FaceEdges(f) {
		if u.Edge == e {
			return u.Reversed
		}
	}
	return false
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
