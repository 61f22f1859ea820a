package step

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/brepgraph/pkg/kernel"
)

// plateStep is a minimal AP214-style file: one rectangular planar
// face (2 x 1 at z=0) in an open shell.
const plateStep = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('plate'),'2;1');
FILE_NAME('plate.step','2026-01-01',(''),(''),'','','');
FILE_SCHEMA(('AUTOMOTIVE_DESIGN'));
ENDSEC;
DATA;
#1=CARTESIAN_POINT('',(0.,0.,0.));
#2=CARTESIAN_POINT('',(2.,0.,0.));
#3=CARTESIAN_POINT('',(2.,1.,0.));
#4=CARTESIAN_POINT('',(0.,1.,0.));
#5=VERTEX_POINT('',#1);
#6=VERTEX_POINT('',#2);
#7=VERTEX_POINT('',#3);
#8=VERTEX_POINT('',#4);
#10=DIRECTION('',(1.,0.,0.));
#11=DIRECTION('',(0.,1.,0.));
#12=DIRECTION('',(0.,0.,1.));
#13=DIRECTION('',(-1.,0.,0.));
#14=DIRECTION('',(0.,-1.,0.));
#15=VECTOR('',#10,1.);
#16=VECTOR('',#11,1.);
#17=VECTOR('',#13,1.);
#18=VECTOR('',#14,1.);
#20=LINE('',#1,#15);
#21=LINE('',#2,#16);
#22=LINE('',#3,#17);
#23=LINE('',#4,#18);
#30=EDGE_CURVE('',#5,#6,#20,.T.);
#31=EDGE_CURVE('',#6,#7,#21,.T.);
#32=EDGE_CURVE('',#7,#8,#22,.T.);
#33=EDGE_CURVE('',#8,#5,#23,.T.);
#40=ORIENTED_EDGE('',*,*,#30,.T.);
#41=ORIENTED_EDGE('',*,*,#31,.T.);
#42=ORIENTED_EDGE('',*,*,#32,.T.);
#43=ORIENTED_EDGE('',*,*,#33,.T.);
#44=EDGE_LOOP('',(#40,#41,#42,#43));
#45=FACE_OUTER_BOUND('',#44,.T.);
#50=AXIS2_PLACEMENT_3D('',#1,#12,#10);
#51=PLANE('',#50);
#52=ADVANCED_FACE('',(#45),#51,.T.);
#53=OPEN_SELL_PLACEHOLDER;
ENDSEC;
END-ISO-10303-21;
`

func fixPlate() string {
	// The shell line is kept out of the raw literal so tests can swap
	// it; default is a plain open shell.
	return replaceShell(`#53=OPEN_SHELL('',(#52));`)
}

func replaceShell(shell string) string {
	const marker = "#53=OPEN_SELL_PLACEHOLDER;"
	out := ""
	for i := 0; i+len(marker) <= len(plateStep); i++ {
		if plateStep[i:i+len(marker)] == marker {
			out = plateStep[:i] + shell + plateStep[i+len(marker):]
			break
		}
	}
	return out
}

func TestParsePlate(t *testing.T) {
	f, err := parse([]byte(fixPlate()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := f.entities[30]
	if e == nil || e.typ != "EDGE_CURVE" {
		t.Fatalf("entity #30 = %+v, want EDGE_CURVE", e)
	}
	if len(e.args) != 5 {
		t.Fatalf("EDGE_CURVE args = %d, want 5", len(e.args))
	}
	if e.args[4].kind != argEnum || e.args[4].str != "T" {
		t.Errorf("same_sense = %+v, want .T.", e.args[4])
	}
	p := f.entities[2]
	if p.args[1].kind != argList || p.args[1].list[0].num != 2.0 {
		t.Errorf("cartesian point args = %+v", p.args[1])
	}
	oe := f.entities[40]
	if oe.args[1].kind != argStar || oe.args[2].kind != argStar {
		t.Errorf("oriented edge vertices should be *, got %+v", oe.args[1:3])
	}
}

func TestDecodePlate(t *testing.T) {
	m, err := Decode([]byte(fixPlate()), "plate")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.NumFaces() != 1 {
		t.Fatalf("faces = %d, want 1", m.NumFaces())
	}
	if m.NumEdges() != 4 {
		t.Fatalf("edges = %d, want 4", m.NumEdges())
	}

	face := m.Face(0)
	if face.Degenerate {
		t.Fatal("plate face marked degenerate")
	}
	if got := face.Surface.Type(); got != kernel.SurfacePlane {
		t.Errorf("surface type = %v, want plane", got)
	}
	b := face.Bounds
	if math.Abs(b.UMin) > 1e-6 || math.Abs(b.UMax-2) > 1e-6 ||
		math.Abs(b.VMin) > 1e-6 || math.Abs(b.VMax-1) > 1e-6 {
		t.Errorf("uv bounds = %+v, want [0,2]x[0,1]", b)
	}
	if len(face.Loops) != 1 {
		t.Fatalf("loops = %d, want 1", len(face.Loops))
	}

	// A lone face owns every edge once; nothing is shared.
	for i := 0; i < m.NumEdges(); i++ {
		e := m.Edge(kernel.EdgeID(i))
		if e.Faces[0] != 0 || e.Faces[1] != kernel.NoFace {
			t.Errorf("edge %d faces = %v, want [0 -1]", i, e.Faces)
		}
		if e.Seam {
			t.Errorf("edge %d flagged seam", i)
		}
	}
	uses := m.FaceEdges(0)
	if len(uses) != 4 {
		t.Fatalf("edge uses = %d, want 4", len(uses))
	}
}

func TestDecodeEdgeRanges(t *testing.T) {
	m, err := Decode([]byte(fixPlate()), "plate")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Every line direction was chosen to match edge traversal, so
	// each range runs 0 to the edge length.
	wantLen := []float64{2, 1, 2, 1}
	for i, want := range wantLen {
		r := m.Edge(kernel.EdgeID(i)).Range
		if math.Abs(r.Min) > 1e-9 || math.Abs(r.Max-want) > 1e-9 {
			t.Errorf("edge %d range = %+v, want [0,%g]", i, r, want)
		}
	}
}

func TestDecodeNoShellFallback(t *testing.T) {
	// Dropping the shell entirely should still pick up the bare face.
	m, err := Decode([]byte(replaceShell("")), "plate")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.NumFaces() != 1 {
		t.Errorf("faces = %d, want 1", m.NumFaces())
	}
}

func TestDecodeUnsupportedSurface(t *testing.T) {
	src := `ISO-10303-21;
HEADER;
ENDSEC;
DATA;
#1=OFFSET_SURFACE('',$,1.0,.T.);
#2=ADVANCED_FACE('',(),#1,.T.);
#3=OPEN_SHELL('',(#2));
ENDSEC;
END-ISO-10303-21;
`
	m, err := Decode([]byte(src), "weird")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.NumFaces() != 1 {
		t.Fatalf("faces = %d, want 1", m.NumFaces())
	}
	if !m.Face(0).Degenerate {
		t.Error("unsupported surface should yield a degenerate face")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, src := range []string{"", "not a step file", "ISO-10303-21;\nDATA;\nENDSEC;"} {
		if _, err := Decode([]byte(src), "bad"); err == nil {
			t.Errorf("decode(%q) succeeded, want error", src)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plate.step")
	if err := os.WriteFile(path, []byte(fixPlate()), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Name() != "plate.step" {
		t.Errorf("name = %q, want plate.step", m.Name())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.step"))
	if err == nil {
		t.Fatal("load succeeded on missing file")
	}
	var le *kernel.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error type = %T, want *kernel.LoadError", err)
	}
}
