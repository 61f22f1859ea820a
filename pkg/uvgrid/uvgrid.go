// Package uvgrid samples face parameter domains into fixed-resolution
// feature grids and edge curves into fixed-length sample runs. Both are
// pure functions of the geometry; all state lives in the returned
// values.
package uvgrid

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brepgraph/pkg/kernel"
)

// Sample is one grid cell: surface position and unit normal at a UV
// coordinate. Trimmed samples carry zero sentinel vectors instead of
// geometry so consumers can mask them out.
type Sample struct {
	Point   v3.Vec
	Normal  v3.Vec
	Trimmed bool
}

// Grid is a res x res block of samples in row-major order (u varies
// fastest).
type Grid struct {
	Res     int
	Samples []Sample
}

// At returns the sample at u-index i, v-index j.
func (g Grid) At(i, j int) Sample {
	return g.Samples[j*g.Res+i]
}

// Visibility is the fraction of samples inside the trimmed region.
func (g Grid) Visibility() float64 {
	if len(g.Samples) == 0 {
		return 0
	}
	in := 0
	for _, s := range g.Samples {
		if !s.Trimmed {
			in++
		}
	}
	return float64(in) / float64(len(g.Samples))
}

// CurveSample is one point along an edge: position and unit tangent.
type CurveSample struct {
	Point   v3.Vec
	Tangent v3.Vec
}

// SampleFace evaluates a face's surface on a res x res grid mapped
// over its UV bounding box. Periodic axes that span a full period are
// spaced period/res apart so the seam column is not duplicated; other
// axes include both endpoints. Samples outside the trim loops, and
// samples the surface cannot evaluate, are flagged Trimmed.
func SampleFace(f kernel.Face, res int) Grid {
	pu, pv := f.Surface.Periods()
	us := axisCoords(f.Bounds.UMin, f.Bounds.UMax, pu, res)
	vs := axisCoords(f.Bounds.VMin, f.Bounds.VMax, pv, res)

	g := Grid{Res: res, Samples: make([]Sample, res*res)}
	cu := (f.Bounds.UMin + f.Bounds.UMax) / 2
	cv := (f.Bounds.VMin + f.Bounds.VMax) / 2
	for j, v := range vs {
		for i, u := range us {
			idx := j*res + i
			if len(f.Loops) > 0 && !InLoops(f.Loops, u, v, pu, pv) {
				g.Samples[idx] = Sample{Trimmed: true}
				continue
			}
			g.Samples[idx] = evalSample(f.Surface, u, v, cu, cv)
		}
	}
	return g
}

// axisCoords spreads n coordinates over one parametric axis.
func axisCoords(min, max, period float64, n int) []float64 {
	out := make([]float64, n)
	width := max - min
	if period > 0 && width >= period-kernel.DegenerateTol {
		for i := range out {
			out[i] = min + period*float64(i)/float64(n)
		}
		return out
	}
	for i := range out {
		out[i] = min + width*float64(i)/float64(n-1)
	}
	return out
}

// evalSample evaluates position and normal at (u,v), retrying nearer
// the domain center (cu,cv) when the surface is singular there. A
// sample that cannot be recovered is flagged Trimmed with sentinel
// zeros.
func evalSample(s kernel.Surface, u, v, cu, cv float64) Sample {
	p := s.Point(u, v)
	n := s.Normal(u, v)
	if finite(p) && unit(n) {
		return Sample{Point: p, Normal: n}
	}
	// Nudge toward the center to step off poles and seams.
	ru := u + (cu-u)*1e-3
	rv := v + (cv-v)*1e-3
	p2 := s.Point(ru, rv)
	n2 := s.Normal(ru, rv)
	if finite(p2) && unit(n2) {
		return Sample{Point: p2, Normal: n2, Trimmed: true}
	}
	return Sample{Trimmed: true}
}

func finite(p v3.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

func unit(n v3.Vec) bool {
	if !finite(n) {
		return false
	}
	return math.Abs(n.Length()-1) <= kernel.NormalTol
}

// SampleCurve evaluates an edge's curve at n evenly spaced parameters
// across its range, endpoints included. Tangents are unit length.
func SampleCurve(e kernel.Edge, n int) []CurveSample {
	out := make([]CurveSample, n)
	span := e.Range.Max - e.Range.Min
	for i := range out {
		t := e.Range.Min + span*float64(i)/float64(n-1)
		tan := e.Curve.Tangent(t)
		if l := tan.Length(); l > kernel.DegenerateTol {
			tan = tan.DivScalar(l)
		}
		out[i] = CurveSample{Point: e.Curve.Point(t), Tangent: tan}
	}
	return out
}
