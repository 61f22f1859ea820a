package step

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brepgraph/pkg/kernel"
)

// loopSamplesPerEdge is the boundary sampling density used when
// projecting trim loops into UV space.
const loopSamplesPerEdge = 12

// Load reads a STEP file into a kernel model. Unreadable or malformed
// input returns a *kernel.LoadError; faces the reader cannot evaluate
// are flagged degenerate instead of failing the load.
func Load(path string) (*kernel.Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &kernel.LoadError{Path: path, Err: err}
	}
	m, err := Decode(src, filepath.Base(path))
	if err != nil {
		return nil, &kernel.LoadError{Path: path, Err: err}
	}
	return m, nil
}

// Decode parses STEP source bytes into a model named name.
func Decode(src []byte, name string) (*kernel.Model, error) {
	f, err := parse(src)
	if err != nil {
		return nil, err
	}
	b := &builder{
		file:  f,
		model: kernel.NewModel(name),
		edges: make(map[int]kernel.EdgeID),
	}
	if err := b.build(); err != nil {
		return nil, err
	}
	return b.model, nil
}

// builder walks the entity graph shell by shell, face by face.
type builder struct {
	file  *stepFile
	model *kernel.Model
	edges map[int]kernel.EdgeID // EDGE_CURVE entity id -> arena edge
}

func (b *builder) build() error {
	faces := b.faceOrder()
	if len(faces) == 0 {
		return fmt.Errorf("no faces in file")
	}
	for _, fe := range faces {
		b.buildFace(fe)
	}
	return nil
}

// faceOrder returns ADVANCED_FACE entities in the file's native
// enumeration order: shells in file order, then each shell's face
// list order. Files without shells fall back to bare face order.
func (b *builder) faceOrder() []*entity {
	var out []*entity
	seen := make(map[int]bool)
	for _, id := range b.file.order {
		e := b.file.entities[id]
		if e.typ != "CLOSED_SHELL" && e.typ != "OPEN_SHELL" {
			continue
		}
		if len(e.args) < 2 || e.args[1].kind != argList {
			continue
		}
		for _, fref := range e.args[1].list {
			if fe := b.file.ref(fref); fe != nil && isFaceType(fe.typ) && !seen[fe.id] {
				seen[fe.id] = true
				out = append(out, fe)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, id := range b.file.order {
		if e := b.file.entities[id]; isFaceType(e.typ) {
			out = append(out, e)
		}
	}
	return out
}

func isFaceType(typ string) bool {
	return typ == "ADVANCED_FACE" || typ == "FACE_SURFACE"
}

// buildFace adds one face to the arena. Whatever goes wrong, a face
// record is always appended so native indices stay stable; failures
// only mark it degenerate.
func (b *builder) buildFace(fe *entity) {
	// ADVANCED_FACE(name, (bounds), surface, same_sense)
	if len(fe.args) < 4 {
		b.addBroken()
		return
	}
	surfEnt := b.file.ref(fe.args[2])
	if surfEnt == nil {
		b.addBroken()
		return
	}
	surf, err := b.buildSurface(surfEnt)
	if err != nil {
		b.addBroken()
		return
	}
	if fe.args[3].kind == argEnum && fe.args[3].str == "F" {
		surf = kernel.Flipped(surf)
	}

	type boundInfo struct {
		segs  []kernel.CurveSegment
		uses  []useInfo
		outer bool
	}
	var bounds []boundInfo
	if fe.args[1].kind == argList {
		for _, bref := range fe.args[1].list {
			be := b.file.ref(bref)
			if be == nil {
				continue
			}
			segs, uses, ok := b.buildBound(be)
			if !ok {
				continue
			}
			bounds = append(bounds, boundInfo{
				segs:  segs,
				uses:  uses,
				outer: be.typ == "FACE_OUTER_BOUND",
			})
		}
	}
	// Outer bound first so the first loop is the visible-region hull.
	for i, bd := range bounds {
		if bd.outer && i != 0 {
			bounds[0], bounds[i] = bounds[i], bounds[0]
			break
		}
	}

	var loops []kernel.TrimLoop
	for _, bd := range bounds {
		loops = append(loops, kernel.SampleLoopUV(surf, bd.segs, loopSamplesPerEdge))
	}

	id := b.model.AddFace(surf, kernel.LoopBounds(loops), loops)
	for _, bd := range bounds {
		for _, u := range bd.uses {
			b.model.AddEdgeUse(id, u.edge, u.reversed)
		}
	}
}

// addBroken appends a placeholder face flagged degenerate.
func (b *builder) addBroken() {
	ph := kernel.Plane{Frame: kernel.NewFrame(v3.Vec{}, v3.Vec{Z: 1}, v3.Vec{X: 1})}
	id := b.model.AddFace(ph, kernel.UVBounds{}, nil)
	b.model.MarkDegenerate(id)
}

type useInfo struct {
	edge     kernel.EdgeID
	reversed bool
}

// buildBound resolves FACE_BOUND -> EDGE_LOOP -> ORIENTED_EDGE chain
// into curve segments (for trim-loop sampling) and edge uses (for
// adjacency).
func (b *builder) buildBound(be *entity) ([]kernel.CurveSegment, []useInfo, bool) {
	// FACE_BOUND(name, loop, orientation)
	if len(be.args) < 3 {
		return nil, nil, false
	}
	loopEnt := b.file.ref(be.args[1])
	if loopEnt == nil || loopEnt.typ != "EDGE_LOOP" || len(loopEnt.args) < 2 {
		return nil, nil, false
	}
	boundForward := enumBool(be.args[2])

	var segs []kernel.CurveSegment
	var uses []useInfo
	oriented := loopEnt.args[1].list
	for i := range oriented {
		// A reversed bound walks its loop backwards.
		oe := b.file.ref(oriented[i])
		if !boundForward {
			oe = b.file.ref(oriented[len(oriented)-1-i])
		}
		if oe == nil || oe.typ != "ORIENTED_EDGE" || len(oe.args) < 5 {
			return nil, nil, false
		}
		ec := b.file.ref(oe.args[3])
		if ec == nil || ec.typ != "EDGE_CURVE" {
			return nil, nil, false
		}
		id, ok := b.edge(ec)
		if !ok {
			return nil, nil, false
		}
		forward := enumBool(oe.args[4])
		if !boundForward {
			forward = !forward
		}
		e := b.model.Edge(id)
		segs = append(segs, kernel.CurveSegment{
			Curve:    e.Curve,
			Range:    e.Range,
			Reversed: !forward,
		})
		uses = append(uses, useInfo{edge: id, reversed: !forward})
	}
	return segs, uses, true
}

// edge resolves an EDGE_CURVE entity to its arena edge, building the
// curve and its vertex-clipped parameter range on first encounter.
func (b *builder) edge(ec *entity) (kernel.EdgeID, bool) {
	if id, ok := b.edges[ec.id]; ok {
		return id, true
	}
	// EDGE_CURVE(name, start_vertex, end_vertex, curve, same_sense)
	if len(ec.args) < 5 {
		return 0, false
	}
	curveEnt := b.file.ref(ec.args[3])
	if curveEnt == nil {
		return 0, false
	}
	curve, err := b.buildCurve(curveEnt)
	if err != nil {
		return 0, false
	}

	p0, ok0 := b.vertexPoint(b.file.ref(ec.args[1]))
	p1, ok1 := b.vertexPoint(b.file.ref(ec.args[2]))
	if !ok0 || !ok1 {
		return 0, false
	}
	if !enumBool(ec.args[4]) {
		p0, p1 = p1, p0
	}

	t0 := curve.Project(p0)
	t1 := curve.Project(p1)
	if period := curvePeriod(curve); period > 0 {
		// Periodic curves run forward from t0; a coincident start and
		// end means the full closed curve.
		for t1 <= t0+1e-9 {
			t1 += period
		}
	}
	id := b.model.AddEdge(curve, kernel.Interval{Min: t0, Max: t1})
	b.edges[ec.id] = id
	return id, true
}

// curvePeriod returns the closed-curve period, or 0 for open curves.
func curvePeriod(c kernel.Curve) float64 {
	switch c.(type) {
	case kernel.Circle, kernel.Ellipse:
		return 2 * math.Pi
	}
	return 0
}

func (b *builder) vertexPoint(ve *entity) (v3.Vec, bool) {
	if ve == nil || ve.typ != "VERTEX_POINT" || len(ve.args) < 2 {
		return v3.Vec{}, false
	}
	return b.point(b.file.ref(ve.args[1]))
}

func (b *builder) point(pe *entity) (v3.Vec, bool) {
	if pe == nil || pe.typ != "CARTESIAN_POINT" || len(pe.args) < 2 || pe.args[1].kind != argList {
		return v3.Vec{}, false
	}
	return vecFromList(pe.args[1].list)
}

func (b *builder) direction(de *entity) (v3.Vec, bool) {
	if de == nil || de.typ != "DIRECTION" || len(de.args) < 2 || de.args[1].kind != argList {
		return v3.Vec{}, false
	}
	return vecFromList(de.args[1].list)
}

func vecFromList(list []arg) (v3.Vec, bool) {
	var p v3.Vec
	for i, a := range list {
		if a.kind != argNum || i > 2 {
			return v3.Vec{}, false
		}
		switch i {
		case 0:
			p.X = a.num
		case 1:
			p.Y = a.num
		case 2:
			p.Z = a.num
		}
	}
	return p, len(list) >= 2
}

// placement resolves AXIS2_PLACEMENT_3D into a frame. A missing axis
// or reference direction takes the STEP defaults (+Z, +X).
func (b *builder) placement(pe *entity) (kernel.Frame, bool) {
	if pe == nil || pe.typ != "AXIS2_PLACEMENT_3D" || len(pe.args) < 4 {
		return kernel.Frame{}, false
	}
	origin, ok := b.point(b.file.ref(pe.args[1]))
	if !ok {
		return kernel.Frame{}, false
	}
	axis := v3.Vec{Z: 1}
	if d, ok := b.direction(b.file.ref(pe.args[2])); ok {
		axis = d
	}
	ref := v3.Vec{X: 1}
	if d, ok := b.direction(b.file.ref(pe.args[3])); ok {
		ref = d
	}
	return kernel.NewFrame(origin, axis, ref), true
}

func (b *builder) buildSurface(se *entity) (kernel.Surface, error) {
	fail := func() (kernel.Surface, error) {
		return nil, fmt.Errorf("#%d %s: bad surface definition", se.id, se.typ)
	}
	frameAt := func(i int) (kernel.Frame, bool) {
		if len(se.args) <= i {
			return kernel.Frame{}, false
		}
		return b.placement(b.file.ref(se.args[i]))
	}

	switch se.typ {
	case "PLANE":
		f, ok := frameAt(1)
		if !ok {
			return fail()
		}
		return kernel.Plane{Frame: f}, nil

	case "CYLINDRICAL_SURFACE":
		f, ok := frameAt(1)
		if !ok || len(se.args) < 3 || se.args[2].kind != argNum {
			return fail()
		}
		return kernel.Cylinder{Frame: f, Radius: se.args[2].num}, nil

	case "CONICAL_SURFACE":
		f, ok := frameAt(1)
		if !ok || len(se.args) < 4 || se.args[2].kind != argNum || se.args[3].kind != argNum {
			return fail()
		}
		return kernel.Cone{Frame: f, Radius: se.args[2].num, SemiAngle: se.args[3].num}, nil

	case "SPHERICAL_SURFACE":
		f, ok := frameAt(1)
		if !ok || len(se.args) < 3 || se.args[2].kind != argNum {
			return fail()
		}
		return kernel.Sphere{Frame: f, Radius: se.args[2].num}, nil

	case "TOROIDAL_SURFACE":
		f, ok := frameAt(1)
		if !ok || len(se.args) < 4 || se.args[2].kind != argNum || se.args[3].kind != argNum {
			return fail()
		}
		return kernel.Torus{Frame: f, Major: se.args[2].num, Minor: se.args[3].num}, nil

	case "B_SPLINE_SURFACE_WITH_KNOTS":
		return b.buildBSplineSurface(se)

	default:
		return nil, fmt.Errorf("#%d: unsupported surface %s", se.id, se.typ)
	}
}

// buildBSplineSurface expands B_SPLINE_SURFACE_WITH_KNOTS:
// (name, deg_u, deg_v, ((#p,...),...), form, u_closed, v_closed,
//  self_intersect, u_mults, v_mults, u_knots, v_knots, spec)
func (b *builder) buildBSplineSurface(se *entity) (kernel.Surface, error) {
	if len(se.args) < 12 {
		return nil, fmt.Errorf("#%d: truncated b-spline surface", se.id)
	}
	degU, okU := intArg(se.args[1])
	degV, okV := intArg(se.args[2])
	if !okU || !okV || se.args[3].kind != argList {
		return nil, fmt.Errorf("#%d: bad b-spline degrees", se.id)
	}

	var ctrl [][]v3.Vec
	for _, row := range se.args[3].list {
		if row.kind != argList {
			return nil, fmt.Errorf("#%d: bad control net", se.id)
		}
		var pts []v3.Vec
		for _, pref := range row.list {
			p, ok := b.point(b.file.ref(pref))
			if !ok {
				return nil, fmt.Errorf("#%d: bad control point", se.id)
			}
			pts = append(pts, p)
		}
		ctrl = append(ctrl, pts)
	}
	if len(ctrl) == 0 || len(ctrl[0]) == 0 {
		return nil, fmt.Errorf("#%d: empty control net", se.id)
	}

	knotsU, err := expandKnots(se.args[8], se.args[10])
	if err != nil {
		return nil, fmt.Errorf("#%d: %w", se.id, err)
	}
	knotsV, err := expandKnots(se.args[9], se.args[11])
	if err != nil {
		return nil, fmt.Errorf("#%d: %w", se.id, err)
	}
	return kernel.NewBSplineSurface(ctrl, degU, degV, knotsU, knotsV), nil
}

func (b *builder) buildCurve(ce *entity) (kernel.Curve, error) {
	switch ce.typ {
	case "LINE":
		// LINE(name, point, vector); VECTOR(name, direction, magnitude)
		if len(ce.args) < 3 {
			return nil, fmt.Errorf("#%d: truncated line", ce.id)
		}
		p, ok := b.point(b.file.ref(ce.args[1]))
		ve := b.file.ref(ce.args[2])
		if !ok || ve == nil || ve.typ != "VECTOR" || len(ve.args) < 2 {
			return nil, fmt.Errorf("#%d: bad line", ce.id)
		}
		d, ok := b.direction(b.file.ref(ve.args[1]))
		if !ok {
			return nil, fmt.Errorf("#%d: bad line direction", ce.id)
		}
		return kernel.NewLine(p, d), nil

	case "CIRCLE":
		if len(ce.args) < 3 || ce.args[2].kind != argNum {
			return nil, fmt.Errorf("#%d: bad circle", ce.id)
		}
		f, ok := b.placement(b.file.ref(ce.args[1]))
		if !ok {
			return nil, fmt.Errorf("#%d: bad circle placement", ce.id)
		}
		return kernel.Circle{Frame: f, Radius: ce.args[2].num}, nil

	case "ELLIPSE":
		if len(ce.args) < 4 || ce.args[2].kind != argNum || ce.args[3].kind != argNum {
			return nil, fmt.Errorf("#%d: bad ellipse", ce.id)
		}
		f, ok := b.placement(b.file.ref(ce.args[1]))
		if !ok {
			return nil, fmt.Errorf("#%d: bad ellipse placement", ce.id)
		}
		return kernel.Ellipse{Frame: f, Major: ce.args[2].num, Minor: ce.args[3].num}, nil

	case "B_SPLINE_CURVE_WITH_KNOTS":
		// (name, degree, (#p,...), form, closed, self_intersect,
		//  mults, knots, spec)
		if len(ce.args) < 8 || ce.args[2].kind != argList {
			return nil, fmt.Errorf("#%d: truncated b-spline curve", ce.id)
		}
		deg, ok := intArg(ce.args[1])
		if !ok {
			return nil, fmt.Errorf("#%d: bad b-spline degree", ce.id)
		}
		var ctrl []v3.Vec
		for _, pref := range ce.args[2].list {
			p, ok := b.point(b.file.ref(pref))
			if !ok {
				return nil, fmt.Errorf("#%d: bad control point", ce.id)
			}
			ctrl = append(ctrl, p)
		}
		knots, err := expandKnots(ce.args[6], ce.args[7])
		if err != nil {
			return nil, fmt.Errorf("#%d: %w", ce.id, err)
		}
		return kernel.NewBSplineCurve(ctrl, deg, knots), nil

	case "SURFACE_CURVE", "SEAM_CURVE":
		// Delegate to the underlying 3D curve.
		if len(ce.args) < 2 {
			return nil, fmt.Errorf("#%d: truncated surface curve", ce.id)
		}
		inner := b.file.ref(ce.args[1])
		if inner == nil {
			return nil, fmt.Errorf("#%d: bad surface curve", ce.id)
		}
		return b.buildCurve(inner)

	default:
		return nil, fmt.Errorf("#%d: unsupported curve %s", ce.id, ce.typ)
	}
}

// expandKnots repeats each knot value by its multiplicity.
func expandKnots(mults, knots arg) ([]float64, error) {
	if mults.kind != argList || knots.kind != argList || len(mults.list) != len(knots.list) {
		return nil, fmt.Errorf("knot/multiplicity mismatch")
	}
	var out []float64
	for i, ka := range knots.list {
		m, ok := intArg(mults.list[i])
		if !ok || ka.kind != argNum {
			return nil, fmt.Errorf("bad knot vector")
		}
		for j := 0; j < m; j++ {
			out = append(out, ka.num)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty knot vector")
	}
	return out, nil
}

func intArg(a arg) (int, bool) {
	if a.kind != argNum {
		return 0, false
	}
	return int(a.num), true
}

// enumBool reads a .T./.F. logical argument, defaulting to true.
func enumBool(a arg) bool {
	if a.kind == argEnum && a.str == "F" {
		return false
	}
	return true
}
