package uvgrid

import "github.com/chazu/brepgraph/pkg/kernel"

// InLoops reports whether UV point (u,v) lies inside the region
// bounded by the trim loops, by even-odd crossing count over all
// loops. On periodic axes the point is also tested shifted by one
// period either way, so loops crossing a seam still claim their
// wrapped samples.
func InLoops(loops []kernel.TrimLoop, u, v, periodU, periodV float64) bool {
	uCands := shifts(u, periodU)
	vCands := shifts(v, periodV)
	for _, uu := range uCands {
		for _, vv := range vCands {
			if inLoopsAt(loops, uu, vv) {
				return true
			}
		}
	}
	return false
}

func shifts(t, period float64) []float64 {
	if period <= 0 {
		return []float64{t}
	}
	return []float64{t, t - period, t + period}
}

// boundaryTol pulls samples sitting exactly on a trim curve into the
// visible region; ray crossing counts are unstable there.
const boundaryTol = 1e-7

func inLoopsAt(loops []kernel.TrimLoop, u, v float64) bool {
	crossings := 0
	for _, loop := range loops {
		if nearLoop(loop, u, v, boundaryTol) {
			return true
		}
		crossings += rayCrossings(loop, u, v)
	}
	return crossings%2 == 1
}

// nearLoop reports whether (u,v) lies within tol of any loop segment.
func nearLoop(loop kernel.TrimLoop, u, v, tol float64) bool {
	for i := range loop {
		a := loop[i]
		b := loop[(i+1)%len(loop)]
		dx, dy := b.X-a.X, b.Y-a.Y
		px, py := u-a.X, v-a.Y
		l2 := dx*dx + dy*dy
		t := 0.0
		if l2 > 0 {
			t = (px*dx + py*dy) / l2
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
		}
		ex, ey := px-t*dx, py-t*dy
		if ex*ex+ey*ey <= tol*tol {
			return true
		}
	}
	return false
}

// rayCrossings counts crossings of the ray from (u,v) toward +u with
// the loop's segments.
func rayCrossings(loop kernel.TrimLoop, u, v float64) int {
	n := 0
	for i := range loop {
		a := loop[i]
		b := loop[(i+1)%len(loop)]
		if (a.Y > v) == (b.Y > v) {
			continue
		}
		x := a.X + (v-a.Y)/(b.Y-a.Y)*(b.X-a.X)
		if x > u {
			n++
		}
	}
	return n
}
