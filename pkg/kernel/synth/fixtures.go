package synth

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brepgraph/pkg/kernel"
)

// Box builds a rectangular solid spanning [0,dx] x [0,dy] x [0,dz]:
// six planar faces and twelve convex edges. Face order is -x, +x, -y,
// +y, -z, +z.
func Box(dx, dy, dz float64) *kernel.Model {
	b := NewBuilder(fmt.Sprintf("box-%g-%g-%g", dx, dy, dz))

	// Corner index: bit 0 = x, bit 1 = y, bit 2 = z.
	c := func(i int) v3.Vec {
		p := v3.Vec{}
		if i&1 != 0 {
			p.X = dx
		}
		if i&2 != 0 {
			p.Y = dy
		}
		if i&4 != 0 {
			p.Z = dz
		}
		return p
	}

	faces := []struct {
		origin, normal, ref v3.Vec
		corners             [4]int
	}{
		{c(0), v3.Vec{X: -1}, v3.Vec{Y: 1}, [4]int{0, 2, 6, 4}},
		{c(1), v3.Vec{X: 1}, v3.Vec{Y: 1}, [4]int{1, 3, 7, 5}},
		{c(0), v3.Vec{Y: -1}, v3.Vec{X: 1}, [4]int{0, 1, 5, 4}},
		{c(2), v3.Vec{Y: 1}, v3.Vec{X: 1}, [4]int{2, 3, 7, 6}},
		{c(0), v3.Vec{Z: -1}, v3.Vec{X: 1}, [4]int{0, 1, 3, 2}},
		{c(4), v3.Vec{Z: 1}, v3.Vec{X: 1}, [4]int{4, 5, 7, 6}},
	}
	ids := make([]kernel.FaceID, len(faces))
	for i, f := range faces {
		corners := []v3.Vec{c(f.corners[0]), c(f.corners[1]), c(f.corners[2]), c(f.corners[3])}
		ids[i] = b.planeFace(f.origin, f.normal, f.ref, corners)
	}

	// Each edge joins two corners and bounds two faces (indices into
	// the face table above).
	edges := []struct {
		a, b   int
		fa, fb int
	}{
		{0, 1, 2, 4}, {2, 3, 3, 4}, {0, 2, 0, 4}, {1, 3, 1, 4}, // bottom ring
		{4, 5, 2, 5}, {6, 7, 3, 5}, {4, 6, 0, 5}, {5, 7, 1, 5}, // top ring
		{0, 4, 0, 2}, {1, 5, 1, 2}, {2, 6, 0, 3}, {3, 7, 1, 3}, // verticals
	}
	for _, e := range edges {
		id := b.segment(c(e.a), c(e.b))
		b.Connect(ids[e.fa], id)
		b.Connect(ids[e.fb], id)
	}
	return b.Model()
}

// Cylinder builds a solid cylinder of height h and radius r centered
// on the Z axis with its base at z=0. The wall is a periodic face
// whose seam edge bounds it twice; the caps are trimmed planes.
// Face order: wall, bottom cap, top cap.
func Cylinder(h, r float64) *kernel.Model {
	b := NewBuilder(fmt.Sprintf("cylinder-%g-%g", h, r))

	axis := v3.Vec{Z: 1}
	refX := v3.Vec{X: 1}

	wallSurf := kernel.Cylinder{Frame: kernel.NewFrame(v3.Vec{}, axis, refX), Radius: r}
	wallBounds := kernel.UVBounds{UMin: 0, UMax: 2 * math.Pi, VMin: 0, VMax: h}
	wall := b.Model().AddFace(wallSurf, wallBounds, []kernel.TrimLoop{wallBounds.Loop()})

	bottomCircle := kernel.Circle{Frame: kernel.NewFrame(v3.Vec{}, axis, refX), Radius: r}
	topCircle := kernel.Circle{Frame: kernel.NewFrame(v3.Vec{Z: h}, axis, refX), Radius: r}
	full := kernel.Interval{Min: 0, Max: 2 * math.Pi}

	bottomSurf := kernel.Plane{Frame: kernel.NewFrame(v3.Vec{}, v3.Vec{Z: -1}, refX)}
	bottomLoop := kernel.SampleLoopUV(bottomSurf, []kernel.CurveSegment{{Curve: bottomCircle, Range: full}}, 64)
	bottom := b.AddFace(bottomSurf, bottomLoop)

	topSurf := kernel.Plane{Frame: kernel.NewFrame(v3.Vec{Z: h}, axis, refX)}
	topLoop := kernel.SampleLoopUV(topSurf, []kernel.CurveSegment{{Curve: topCircle, Range: full}}, 64)
	top := b.AddFace(topSurf, topLoop)

	eBottom := b.AddEdge(bottomCircle, full)
	b.Connect(wall, eBottom)
	b.Connect(bottom, eBottom)

	eTop := b.AddEdge(topCircle, full)
	b.Connect(wall, eTop)
	b.Connect(top, eTop)

	// The wall's periodic seam bounds the wall on both sides.
	eSeam := b.segment(v3.Vec{X: r}, v3.Vec{X: r, Z: h})
	b.Connect(wall, eSeam)
	b.Connect(wall, eSeam)

	return b.Model()
}

// SlitPlate builds two coplanar rectangular faces separated by a
// partial slit: the faces share two distinct topological edges (above
// and below the slit), and each face keeps one open edge along the
// slit lip. The shared-edge pair makes the face pair a multigraph
// case.
func SlitPlate() *kernel.Model {
	b := NewBuilder("slit-plate")

	up := v3.Vec{Z: 1}
	refX := v3.Vec{X: 1}

	left := b.planeFace(v3.Vec{}, up, refX, []v3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 2}, {X: 0, Y: 2},
	})
	right := b.planeFace(v3.Vec{}, up, refX, []v3.Vec{
		{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 1, Y: 2},
	})

	lower := b.segment(v3.Vec{X: 1, Y: 0}, v3.Vec{X: 1, Y: 0.8})
	b.Connect(left, lower)
	b.Connect(right, lower)

	upper := b.segment(v3.Vec{X: 1, Y: 1.2}, v3.Vec{X: 1, Y: 2})
	b.Connect(left, upper)
	b.Connect(right, upper)

	// Slit lips: geometrically coincident but topologically distinct,
	// each bounding a single face.
	lipLeft := b.segment(v3.Vec{X: 1, Y: 0.8}, v3.Vec{X: 1, Y: 1.2})
	b.Connect(left, lipLeft)
	lipRight := b.segment(v3.Vec{X: 1, Y: 0.8}, v3.Vec{X: 1, Y: 1.2})
	b.Connect(right, lipRight)

	return b.Model()
}

// Sheet builds a single rectangular face whose four bounding edges
// are all open (a non-manifold sheet body).
func Sheet() *kernel.Model {
	b := NewBuilder("sheet")

	f := b.planeFace(v3.Vec{}, v3.Vec{Z: 1}, v3.Vec{X: 1}, []v3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	})
	corners := []v3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	for i := range corners {
		e := b.segment(corners[i], corners[(i+1)%len(corners)])
		b.Connect(f, e)
	}
	return b.Model()
}

// InteriorCorner builds a floor face and a wall face meeting along a
// concave edge (normals facing into the corner).
func InteriorCorner() *kernel.Model {
	b := NewBuilder("interior-corner")

	floor := b.planeFace(v3.Vec{}, v3.Vec{Z: 1}, v3.Vec{X: 1}, []v3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	})
	wall := b.planeFace(v3.Vec{Y: 1}, v3.Vec{Y: -1}, v3.Vec{X: 1}, []v3.Vec{
		{X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	})

	e := b.segment(v3.Vec{X: 0, Y: 1}, v3.Vec{X: 1, Y: 1})
	b.Connect(floor, e)
	b.Connect(wall, e)

	return b.Model()
}

// WithDegenerateFace builds a box plus one appended zero-area face.
// The extra face carries no loops and must be excluded by the graph
// layer.
func WithDegenerateFace() *kernel.Model {
	m := Box(1, 1, 1)
	s := kernel.Plane{Frame: kernel.NewFrame(v3.Vec{}, v3.Vec{Z: 1}, v3.Vec{X: 1})}
	m.AddFace(s, kernel.UVBounds{}, nil)
	return m
}

// Grid builds an n x n sheet of coplanar unit squares with shared
// interior edges, row-major face order. Useful as an arbitrarily
// large model: n*n faces, 2n(n-1) edges.
func Grid(n int) *kernel.Model {
	b := NewBuilder(fmt.Sprintf("grid-%d", n))

	up := v3.Vec{Z: 1}
	refX := v3.Vec{X: 1}
	id := func(i, j int) kernel.FaceID { return kernel.FaceID(j*n + i) }

	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x, y := float64(i), float64(j)
			b.planeFace(v3.Vec{}, up, refX, []v3.Vec{
				{X: x, Y: y}, {X: x + 1, Y: y}, {X: x + 1, Y: y + 1}, {X: x, Y: y + 1},
			})
		}
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n-1; i++ {
			e := b.segment(v3.Vec{X: float64(i + 1), Y: float64(j)}, v3.Vec{X: float64(i + 1), Y: float64(j + 1)})
			b.Connect(id(i, j), e)
			b.Connect(id(i+1, j), e)
		}
	}
	for j := 0; j < n-1; j++ {
		for i := 0; i < n; i++ {
			e := b.segment(v3.Vec{X: float64(i), Y: float64(j + 1)}, v3.Vec{X: float64(i + 1), Y: float64(j + 1)})
			b.Connect(id(i, j), e)
			b.Connect(id(i, j+1), e)
		}
	}
	return b.Model()
}

// DisjointPlates builds n unconnected unit-square faces stacked along
// Z: a model with n shells and no adjacencies.
func DisjointPlates(n int) *kernel.Model {
	b := NewBuilder(fmt.Sprintf("plates-%d", n))
	for k := 0; k < n; k++ {
		z := float64(k)
		b.planeFace(v3.Vec{Z: z}, v3.Vec{Z: 1}, v3.Vec{X: 1}, []v3.Vec{
			{X: 0, Y: 0, Z: z}, {X: 1, Y: 0, Z: z}, {X: 1, Y: 1, Z: z}, {X: 0, Y: 1, Z: z},
		})
	}
	return b.Model()
}
