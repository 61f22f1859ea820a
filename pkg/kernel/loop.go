package kernel

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// CurveSegment is one bounded, directed piece of a face's boundary.
type CurveSegment struct {
	Curve    Curve
	Range    Interval
	Reversed bool
}

// SampleLoopUV projects a chain of boundary segments into a face
// surface's UV space, producing a trim loop polygon. Periodic
// parameters are unwrapped for continuity: each projected point is
// shifted by whole periods to stay nearest its predecessor, so a loop
// crossing a seam stays a simple polygon instead of jumping across
// the domain.
func SampleLoopUV(s Surface, segs []CurveSegment, perSeg int) TrimLoop {
	if perSeg < 2 {
		perSeg = 2
	}
	pu, pv := s.Periods()

	var loop TrimLoop
	for _, seg := range segs {
		for i := 0; i < perSeg; i++ {
			// Sample [Min, Max) per segment; the next segment's start
			// supplies the closing point.
			f := float64(i) / float64(perSeg)
			if seg.Reversed {
				f = 1 - f
			}
			t := seg.Range.Min + f*(seg.Range.Max-seg.Range.Min)
			u, v := s.Project(seg.Curve.Point(t))
			if len(loop) > 0 {
				prev := loop[len(loop)-1]
				u = UnwrapNear(u, prev.X, pu)
				v = UnwrapNear(v, prev.Y, pv)
			}
			loop = append(loop, v2.Vec{X: u, Y: v})
		}
	}
	return loop
}

// UnwrapNear shifts t by whole periods so it lies within half a
// period of ref. Non-periodic axes (period 0) pass through.
func UnwrapNear(t, ref, period float64) float64 {
	if period <= 0 {
		return t
	}
	for t-ref > period/2 {
		t -= period
	}
	for ref-t > period/2 {
		t += period
	}
	return t
}

// LoopBounds returns the UV bounding box of one or more trim loops.
// The zero UVBounds is returned for empty input (a degenerate domain).
func LoopBounds(loops []TrimLoop) UVBounds {
	b := UVBounds{
		UMin: math.Inf(1), UMax: math.Inf(-1),
		VMin: math.Inf(1), VMax: math.Inf(-1),
	}
	any := false
	for _, loop := range loops {
		for _, p := range loop {
			any = true
			b.UMin = math.Min(b.UMin, p.X)
			b.UMax = math.Max(b.UMax, p.X)
			b.VMin = math.Min(b.VMin, p.Y)
			b.VMax = math.Max(b.VMax, p.Y)
		}
	}
	if !any {
		return UVBounds{}
	}
	return b
}
