// Package export renders kernel models into exchange formats used
// outside the graph pipeline: binary STL meshes and plain-text point
// clouds. Both reuse the UV sampler, so trimmed regions are respected.
package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brepgraph/pkg/kernel"
	"github.com/chazu/brepgraph/pkg/uvgrid"
)

// resolutionFor maps the user-facing quality knob (1..10, clamped)
// onto a per-face sampling resolution.
func resolutionFor(quality int) int {
	if quality < 1 {
		quality = 1
	}
	if quality > 10 {
		quality = 10
	}
	return 2 + 2*quality
}

// Triangles tessellates every non-degenerate face on a res x res
// sample grid. Cells touching trimmed samples are dropped; periodic
// axes spanning a full period are stitched closed across the seam.
func Triangles(m *kernel.Model, res int) []sdf.Triangle3 {
	var tris []sdf.Triangle3
	for i := 0; i < m.NumFaces(); i++ {
		f := m.Face(kernel.FaceID(i))
		if f.Degenerate {
			continue
		}
		tris = append(tris, faceTriangles(f, res)...)
	}
	return tris
}

func faceTriangles(f kernel.Face, res int) []sdf.Triangle3 {
	g := uvgrid.SampleFace(f, res)
	pu, pv := f.Surface.Periods()
	nu := cellCount(f.Bounds.UMin, f.Bounds.UMax, pu, res)
	nv := cellCount(f.Bounds.VMin, f.Bounds.VMax, pv, res)

	var tris []sdf.Triangle3
	for j := 0; j < nv; j++ {
		for i := 0; i < nu; i++ {
			i2, j2 := (i+1)%res, (j+1)%res
			s00 := g.At(i, j)
			s10 := g.At(i2, j)
			s01 := g.At(i, j2)
			s11 := g.At(i2, j2)
			if s00.Trimmed || s10.Trimmed || s01.Trimmed || s11.Trimmed {
				continue
			}
			tris = append(tris,
				orient(sdf.Triangle3{s00.Point, s10.Point, s11.Point}, s00.Normal),
				orient(sdf.Triangle3{s00.Point, s11.Point, s01.Point}, s00.Normal),
			)
		}
	}
	return tris
}

// cellCount is res-1 cells for a clamped axis, res for a periodic
// axis spanning its full period (the extra cell closes the seam).
func cellCount(min, max, period float64, res int) int {
	if period > 0 && max-min >= period-kernel.DegenerateTol {
		return res
	}
	return res - 1
}

// orient flips the triangle when its winding disagrees with the
// sampled surface normal.
func orient(t sdf.Triangle3, n v3.Vec) sdf.Triangle3 {
	e1 := t[1].Sub(t[0])
	e2 := t[2].Sub(t[0])
	if e1.Cross(e2).Dot(n) < 0 {
		t[1], t[2] = t[2], t[1]
	}
	return t
}

// WriteSTL emits binary STL: 80-byte header, triangle count, then 50
// bytes per triangle.
func WriteSTL(w io.Writer, tris []sdf.Triangle3) error {
	bw := bufio.NewWriter(w)

	var header [80]byte
	copy(header[:], "brepgraph stl export")
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(tris))); err != nil {
		return err
	}
	for i := range tris {
		t := &tris[i]
		n := t.Normal()
		rec := [12]float32{
			float32(n.X), float32(n.Y), float32(n.Z),
			float32(t[0].X), float32(t[0].Y), float32(t[0].Z),
			float32(t[1].X), float32(t[1].Y), float32(t[1].Z),
			float32(t[2].X), float32(t[2].Y), float32(t[2].Z),
		}
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(0)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSTLFile tessellates the model at the given quality (1..10) and
// writes it to path.
func WriteSTLFile(path string, m *kernel.Model, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSTL(f, Triangles(m, resolutionFor(quality))); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePointCloud emits one "x y z nx ny nz" line per visible sample
// of every non-degenerate face.
func WritePointCloud(w io.Writer, m *kernel.Model, res int) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < m.NumFaces(); i++ {
		f := m.Face(kernel.FaceID(i))
		if f.Degenerate {
			continue
		}
		g := uvgrid.SampleFace(f, res)
		for _, s := range g.Samples {
			if s.Trimmed {
				continue
			}
			if _, err := fmt.Fprintf(bw, "%.6f %.6f %.6f %.6f %.6f %.6f\n",
				s.Point.X, s.Point.Y, s.Point.Z,
				s.Normal.X, s.Normal.Y, s.Normal.Z); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WritePointCloudFile samples the model at the given quality (1..10)
// and writes the cloud to path.
func WritePointCloudFile(path string, m *kernel.Model, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePointCloud(f, m, resolutionFor(quality)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
