package uvgrid

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brepgraph/pkg/kernel"
	"github.com/chazu/brepgraph/pkg/kernel/synth"
)

func TestGridShape(t *testing.T) {
	m := synth.Box(1, 1, 1)
	for res := 2; res <= 10; res++ {
		g := SampleFace(m.Face(0), res)
		if g.Res != res || len(g.Samples) != res*res {
			t.Fatalf("res %d: got %d samples", res, len(g.Samples))
		}
	}
}

func TestGridPlanarFace(t *testing.T) {
	m := synth.Box(2, 3, 4)
	g := SampleFace(m.Face(5), 5) // +z face
	want := v3.Vec{Z: 1}
	for j := 0; j < 5; j++ {
		for i := 0; i < 5; i++ {
			s := g.At(i, j)
			if s.Trimmed {
				t.Fatalf("sample (%d,%d) trimmed on a full rectangular face", i, j)
			}
			if math.Abs(s.Point.Z-4) > 1e-9 {
				t.Errorf("sample (%d,%d) z = %g, want 4", i, j, s.Point.Z)
			}
			if !s.Normal.Equals(want, 1e-9) {
				t.Errorf("sample (%d,%d) normal = %v", i, j, s.Normal)
			}
		}
	}
	if v := g.Visibility(); v != 1 {
		t.Errorf("visibility = %g, want 1", v)
	}
}

func TestGridPeriodicWall(t *testing.T) {
	m := synth.Cylinder(2, 1)
	g := SampleFace(m.Face(0), 8)
	// Full period split into 8 steps: the seam column appears once.
	for j := 0; j < 8; j++ {
		first := g.At(0, j).Point
		last := g.At(7, j).Point
		if first.Equals(last, 1e-9) {
			t.Fatalf("row %d duplicates the seam column", j)
		}
	}
	for _, s := range g.Samples {
		r := math.Hypot(s.Point.X, s.Point.Y)
		if math.Abs(r-1) > 1e-9 {
			t.Errorf("wall sample radius = %g, want 1", r)
		}
		if math.Abs(s.Normal.Length()-1) > 1e-6 {
			t.Errorf("normal length = %g", s.Normal.Length())
		}
	}
}

func TestGridTrimmedHole(t *testing.T) {
	b := synth.NewBuilder("holed")
	plane := kernel.Plane{Frame: kernel.NewFrame(v3.Vec{}, v3.Vec{Z: 1}, v3.Vec{X: 1})}
	outer := kernel.TrimLoop{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4},
	}
	hole := kernel.TrimLoop{
		{X: 1.5, Y: 1.5}, {X: 2.5, Y: 1.5}, {X: 2.5, Y: 2.5}, {X: 1.5, Y: 2.5},
	}
	b.AddFace(plane, outer, hole)
	g := SampleFace(b.Model().Face(0), 9)

	// Grid spans [0,4]^2 so index 4 lands at u=v=2, inside the hole.
	center := g.At(4, 4)
	if !center.Trimmed {
		t.Fatal("center sample should fall inside the hole")
	}
	if !center.Point.Equals(v3.Vec{}, 0) || !center.Normal.Equals(v3.Vec{}, 0) {
		t.Errorf("trimmed sample carries geometry: %+v", center)
	}
	if corner := g.At(0, 0); corner.Trimmed {
		t.Error("corner sample should be visible")
	}
	if v := g.Visibility(); v >= 1 || v <= 0 {
		t.Errorf("visibility = %g, want in (0,1)", v)
	}
}

func TestInLoops(t *testing.T) {
	square := []kernel.TrimLoop{{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}}
	cases := []struct {
		u, v   float64
		pu, pv float64
		want   bool
	}{
		{0.5, 0.5, 0, 0, true},
		{1.5, 0.5, 0, 0, false},
		{0.5, -0.2, 0, 0, false},
		{0, 0.5, 0, 0, true},       // on the boundary
		{0.5 - 2, 0.5, 2, 0, true}, // one period below
		{0.5 + 2, 0.5, 2, 0, true},
		{0.5, 0.5 + 3, 0, 3, true},
	}
	for _, c := range cases {
		if got := InLoops(square, c.u, c.v, c.pu, c.pv); got != c.want {
			t.Errorf("InLoops(%g,%g, periods %g,%g) = %v, want %v",
				c.u, c.v, c.pu, c.pv, got, c.want)
		}
	}
}

func TestInLoopsSeamStraddle(t *testing.T) {
	// Loop sits at the far end of a 2pi-periodic axis; points near 0
	// wrap into it.
	period := 2 * math.Pi
	loop := []kernel.TrimLoop{{
		{X: period - 0.5, Y: 0}, {X: period + 0.5, Y: 0},
		{X: period + 0.5, Y: 1}, {X: period - 0.5, Y: 1},
	}}
	if !InLoops(loop, 0.2, 0.5, period, 0) {
		t.Error("wrapped point should be inside the seam-straddling loop")
	}
	if InLoops(loop, 2.0, 0.5, period, 0) {
		t.Error("point far from the loop reported inside")
	}
}

func TestSampleCurve(t *testing.T) {
	m := synth.Box(1, 2, 3)
	e := m.Edge(0)
	samples := SampleCurve(e, 5)
	if len(samples) != 5 {
		t.Fatalf("got %d samples, want 5", len(samples))
	}
	if got, want := samples[0].Point, e.Curve.Point(e.Range.Min); !got.Equals(want, 1e-9) {
		t.Errorf("first sample = %v, want curve start %v", got, want)
	}
	if got, want := samples[4].Point, e.Curve.Point(e.Range.Max); !got.Equals(want, 1e-9) {
		t.Errorf("last sample = %v, want curve end %v", got, want)
	}
	for i, s := range samples {
		if math.Abs(s.Tangent.Length()-1) > 1e-9 {
			t.Errorf("sample %d tangent length = %g", i, s.Tangent.Length())
		}
	}
}
