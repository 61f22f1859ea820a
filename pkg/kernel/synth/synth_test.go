package synth

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brepgraph/pkg/kernel"
)

func TestBoxTopology(t *testing.T) {
	m := Box(2, 3, 4)

	if m.NumFaces() != 6 {
		t.Fatalf("faces = %d, want 6", m.NumFaces())
	}
	if m.NumEdges() != 12 {
		t.Fatalf("edges = %d, want 12", m.NumEdges())
	}
	for i := 0; i < m.NumEdges(); i++ {
		e := m.Edge(kernel.EdgeID(i))
		if e.Faces[0] == kernel.NoFace || e.Faces[1] == kernel.NoFace {
			t.Errorf("edge %d has open side: %v", i, e.Faces)
		}
		if e.Seam {
			t.Errorf("edge %d wrongly marked seam", i)
		}
	}
	for i := 0; i < m.NumFaces(); i++ {
		f := m.Face(kernel.FaceID(i))
		if f.Surface.Type() != kernel.SurfacePlane {
			t.Errorf("face %d type = %v, want plane", i, f.Surface.Type())
		}
		if f.Degenerate {
			t.Errorf("face %d wrongly degenerate", i)
		}
		if got := len(m.FaceEdges(f.ID)); got != 4 {
			t.Errorf("face %d bounded by %d edges, want 4", i, got)
		}
	}
}

func TestBoxNormalsOutward(t *testing.T) {
	m := Box(2, 2, 2)
	center := v3.Vec{X: 1, Y: 1, Z: 1}

	for i := 0; i < m.NumFaces(); i++ {
		f := m.Face(kernel.FaceID(i))
		u := (f.Bounds.UMin + f.Bounds.UMax) / 2
		v := (f.Bounds.VMin + f.Bounds.VMax) / 2
		p := f.Surface.Point(u, v)
		n := f.Surface.Normal(u, v)
		if n.Dot(p.Sub(center)) <= 0 {
			t.Errorf("face %d normal %+v not outward at %+v", i, n, p)
		}
	}
}

func TestCylinderTopology(t *testing.T) {
	m := Cylinder(4, 1)

	if m.NumFaces() != 3 {
		t.Fatalf("faces = %d, want 3", m.NumFaces())
	}
	if m.NumEdges() != 3 {
		t.Fatalf("edges = %d, want 3", m.NumEdges())
	}

	wall := m.Face(0)
	if wall.Surface.Type() != kernel.SurfaceCylinder {
		t.Errorf("wall type = %v, want cylinder", wall.Surface.Type())
	}
	if pu, _ := wall.Surface.Periods(); pu != 2*math.Pi {
		t.Errorf("wall u period = %g", pu)
	}

	seams := 0
	for i := 0; i < m.NumEdges(); i++ {
		if m.Edge(kernel.EdgeID(i)).Seam {
			seams++
		}
	}
	if seams != 1 {
		t.Errorf("seam edges = %d, want 1", seams)
	}
}

func TestSlitPlateSharedEdges(t *testing.T) {
	m := SlitPlate()

	if m.NumFaces() != 2 {
		t.Fatalf("faces = %d, want 2", m.NumFaces())
	}

	shared, open := 0, 0
	for i := 0; i < m.NumEdges(); i++ {
		e := m.Edge(kernel.EdgeID(i))
		switch {
		case e.Faces[0] != kernel.NoFace && e.Faces[1] != kernel.NoFace:
			shared++
		default:
			open++
		}
	}
	if shared != 2 {
		t.Errorf("shared edges = %d, want 2", shared)
	}
	if open != 2 {
		t.Errorf("open edges = %d, want 2", open)
	}
}

func TestSheetAllOpen(t *testing.T) {
	m := Sheet()
	if m.NumFaces() != 1 || m.NumEdges() != 4 {
		t.Fatalf("topology = (%d, %d), want (1, 4)", m.NumFaces(), m.NumEdges())
	}
	for i := 0; i < m.NumEdges(); i++ {
		if m.Edge(kernel.EdgeID(i)).Faces[1] != kernel.NoFace {
			t.Errorf("edge %d not open", i)
		}
	}
}

func TestWithDegenerateFace(t *testing.T) {
	m := WithDegenerateFace()
	if m.NumFaces() != 7 {
		t.Fatalf("faces = %d, want 7", m.NumFaces())
	}
	if !m.Face(6).Degenerate {
		t.Error("appended face not degenerate")
	}
}

func TestGridTopology(t *testing.T) {
	n := 4
	m := Grid(n)
	if m.NumFaces() != n*n {
		t.Errorf("faces = %d, want %d", m.NumFaces(), n*n)
	}
	if want := 2 * n * (n - 1); m.NumEdges() != want {
		t.Errorf("edges = %d, want %d", m.NumEdges(), want)
	}
}

func TestConnectOrientationBoxEdgeUses(t *testing.T) {
	// Every box face is a closed rectangle; walking its four edge uses
	// with their orientation flags must produce a connected loop.
	m := Box(1, 1, 1)
	for i := 0; i < m.NumFaces(); i++ {
		uses := m.FaceEdges(kernel.FaceID(i))
		if len(uses) != 4 {
			t.Fatalf("face %d uses = %d", i, len(uses))
		}
		// Endpoints of each directed use.
		type pt = v3.Vec
		starts := make([]pt, 0, 4)
		ends := make([]pt, 0, 4)
		for _, u := range uses {
			e := m.Edge(u.Edge)
			a := e.Curve.Point(e.Range.Min)
			b := e.Curve.Point(e.Range.Max)
			if u.Reversed {
				a, b = b, a
			}
			starts = append(starts, a)
			ends = append(ends, b)
		}
		// Each use's end must be some other use's start.
		for j, e := range ends {
			found := false
			for _, s := range starts {
				if e.Sub(s).Length() < 1e-9 {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("face %d: use %d end %+v matches no start", i, j, e)
			}
		}
	}
}
