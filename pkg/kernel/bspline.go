package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// findSpan locates the knot span index containing t (NURBS-book style).
func findSpan(n, degree int, t float64, knots []float64) int {
	if t >= knots[n+1] {
		return n
	}
	if t <= knots[degree] {
		return degree
	}
	lo, hi := degree, n+1
	mid := (lo + hi) / 2
	for t < knots[mid] || t >= knots[mid+1] {
		if t < knots[mid] {
			hi = mid
		} else {
			lo = mid
		}
		mid = (lo + hi) / 2
	}
	return mid
}

// basisFuncs evaluates the degree+1 nonvanishing B-spline basis
// functions at t for the given span.
func basisFuncs(span, degree int, t float64, knots []float64) []float64 {
	out := make([]float64, degree+1)
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)
	out[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = t - knots[span+1-j]
		right[j] = knots[span+j] - t
		saved := 0.0
		for r := 0; r < j; r++ {
			tmp := out[r] / (right[r+1] + left[j-r])
			out[r] = saved + right[r+1]*tmp
			saved = left[j-r] * tmp
		}
		out[j] = saved
	}
	return out
}

// BSplineSurface is a non-rational B-spline (freeform) surface.
type BSplineSurface struct {
	Ctrl    [][]v3.Vec // control net, indexed [u][v]
	DegU    int
	DegV    int
	KnotsU  []float64 // full knot vectors, repetitions expanded
	KnotsV  []float64
	domainU Interval
	domainV Interval
}

// NewBSplineSurface builds a freeform surface from its control net and
// expanded knot vectors.
func NewBSplineSurface(ctrl [][]v3.Vec, degU, degV int, knotsU, knotsV []float64) *BSplineSurface {
	return &BSplineSurface{
		Ctrl:    ctrl,
		DegU:    degU,
		DegV:    degV,
		KnotsU:  knotsU,
		KnotsV:  knotsV,
		domainU: Interval{Min: knotsU[degU], Max: knotsU[len(knotsU)-1-degU]},
		domainV: Interval{Min: knotsV[degV], Max: knotsV[len(knotsV)-1-degV]},
	}
}

// Domain returns the natural knot domain of the surface.
func (s *BSplineSurface) Domain() UVBounds {
	return UVBounds{
		UMin: s.domainU.Min, UMax: s.domainU.Max,
		VMin: s.domainV.Min, VMax: s.domainV.Max,
	}
}

func (s *BSplineSurface) Type() SurfaceType { return SurfaceFreeform }

func (s *BSplineSurface) Point(u, v float64) v3.Vec {
	u = clamp(u, s.domainU.Min, s.domainU.Max)
	v = clamp(v, s.domainV.Min, s.domainV.Max)

	nu := len(s.Ctrl) - 1
	nv := len(s.Ctrl[0]) - 1
	spanU := findSpan(nu, s.DegU, u, s.KnotsU)
	spanV := findSpan(nv, s.DegV, v, s.KnotsV)
	bu := basisFuncs(spanU, s.DegU, u, s.KnotsU)
	bv := basisFuncs(spanV, s.DegV, v, s.KnotsV)

	var p v3.Vec
	for i := 0; i <= s.DegU; i++ {
		var row v3.Vec
		for j := 0; j <= s.DegV; j++ {
			row = row.Add(s.Ctrl[spanU-s.DegU+i][spanV-s.DegV+j].MulScalar(bv[j]))
		}
		p = p.Add(row.MulScalar(bu[i]))
	}
	return p
}

// Normal uses central differences; one-sided at domain boundaries.
// Unit length within NormalTol after normalization.
func (s *BSplineSurface) Normal(u, v float64) v3.Vec {
	hu := (s.domainU.Max - s.domainU.Min) * 1e-5
	hv := (s.domainV.Max - s.domainV.Min) * 1e-5

	du := s.Point(clamp(u+hu, s.domainU.Min, s.domainU.Max), v).
		Sub(s.Point(clamp(u-hu, s.domainU.Min, s.domainU.Max), v))
	dv := s.Point(u, clamp(v+hv, s.domainV.Min, s.domainV.Max)).
		Sub(s.Point(u, clamp(v-hv, s.domainV.Min, s.domainV.Max)))

	n := du.Cross(dv)
	if n.Length() < 1e-15 {
		// Singular parametrization (collapsed control points).
		return v3.Vec{Z: 1}
	}
	return n.Normalize()
}

// Project runs a coarse grid search over the knot domain followed by
// shrinking-neighborhood refinement.
func (s *BSplineSurface) Project(p v3.Vec) (float64, float64) {
	const grid = 24
	stepU := (s.domainU.Max - s.domainU.Min) / grid
	stepV := (s.domainV.Max - s.domainV.Min) / grid

	bestU, bestV := s.domainU.Min, s.domainV.Min
	bestD := math.Inf(1)
	for i := 0; i <= grid; i++ {
		for j := 0; j <= grid; j++ {
			u := s.domainU.Min + float64(i)*stepU
			v := s.domainV.Min + float64(j)*stepV
			if d := s.Point(u, v).Sub(p).Length(); d < bestD {
				bestD, bestU, bestV = d, u, v
			}
		}
	}

	for iter := 0; iter < 24; iter++ {
		stepU /= 2
		stepV /= 2
		for _, du := range [3]float64{-stepU, 0, stepU} {
			for _, dv := range [3]float64{-stepV, 0, stepV} {
				u := clamp(bestU+du, s.domainU.Min, s.domainU.Max)
				v := clamp(bestV+dv, s.domainV.Min, s.domainV.Max)
				if d := s.Point(u, v).Sub(p).Length(); d < bestD {
					bestD, bestU, bestV = d, u, v
				}
			}
		}
	}
	return bestU, bestV
}

func (s *BSplineSurface) Periods() (float64, float64) { return 0, 0 }

// BSplineCurve is a non-rational B-spline curve.
type BSplineCurve struct {
	Ctrl   []v3.Vec
	Degree int
	Knots  []float64
	domain Interval
}

var _ Curve = (*BSplineCurve)(nil)

// NewBSplineCurve builds a freeform curve from its control points and
// expanded knot vector.
func NewBSplineCurve(ctrl []v3.Vec, degree int, knots []float64) *BSplineCurve {
	return &BSplineCurve{
		Ctrl:   ctrl,
		Degree: degree,
		Knots:  knots,
		domain: Interval{Min: knots[degree], Max: knots[len(knots)-1-degree]},
	}
}

func (c *BSplineCurve) Bounds() Interval { return c.domain }

func (c *BSplineCurve) Point(t float64) v3.Vec {
	t = clamp(t, c.domain.Min, c.domain.Max)
	n := len(c.Ctrl) - 1
	span := findSpan(n, c.Degree, t, c.Knots)
	b := basisFuncs(span, c.Degree, t, c.Knots)

	var p v3.Vec
	for i := 0; i <= c.Degree; i++ {
		p = p.Add(c.Ctrl[span-c.Degree+i].MulScalar(b[i]))
	}
	return p
}

func (c *BSplineCurve) Tangent(t float64) v3.Vec {
	h := (c.domain.Max - c.domain.Min) * 1e-5
	d := c.Point(clamp(t+h, c.domain.Min, c.domain.Max)).
		Sub(c.Point(clamp(t-h, c.domain.Min, c.domain.Max)))
	if d.Length() < 1e-15 {
		return v3.Vec{X: 1}
	}
	return d.Normalize()
}

func (c *BSplineCurve) Project(p v3.Vec) float64 {
	const grid = 64
	step := (c.domain.Max - c.domain.Min) / grid

	best := c.domain.Min
	bestD := math.Inf(1)
	for i := 0; i <= grid; i++ {
		t := c.domain.Min + float64(i)*step
		if d := c.Point(t).Sub(p).Length(); d < bestD {
			bestD, best = d, t
		}
	}
	for iter := 0; iter < 24; iter++ {
		step /= 2
		for _, dt := range [2]float64{-step, step} {
			t := clamp(best+dt, c.domain.Min, c.domain.Max)
			if d := c.Point(t).Sub(p).Length(); d < bestD {
				bestD, best = d, t
			}
		}
	}
	return best
}
