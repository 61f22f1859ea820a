package facegraph

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/brepgraph/pkg/kernel"
	"github.com/chazu/brepgraph/pkg/kernel/synth"
)

func testOpts() Options {
	return Options{GridResolution: 4, EdgeSamples: 5}
}

func mustBuild(t *testing.T, m *kernel.Model) (*Graph, *BuildStats) {
	t.Helper()
	g, stats, err := Build(context.Background(), m, testOpts())
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	return g, stats
}

func TestBuildBox(t *testing.T) {
	g, stats := mustBuild(t, synth.Box(1, 2, 3))

	require.Len(t, g.Nodes, 6)
	require.Len(t, g.Edges, 12)
	assert.Zero(t, stats.DegenerateFaces)
	assert.Zero(t, stats.OpenEdges)
	assert.Zero(t, stats.SeamEdges)

	for i, n := range g.Nodes {
		assert.Equal(t, i, n.ID)
		assert.Equal(t, kernel.SurfacePlane, n.SurfaceType)
		assert.Equal(t, 1.0, n.Visibility)
	}
	for _, e := range g.Edges {
		assert.Less(t, e.A, e.B)
		assert.Equal(t, ConvexityConvex, e.Convexity, "edge %d-%d", e.A, e.B)
		assert.Len(t, e.Samples, 5)
	}
}

func TestBuildCylinderSeamExcluded(t *testing.T) {
	g, stats := mustBuild(t, synth.Cylinder(2, 1))

	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 2)
	assert.Equal(t, 1, stats.SeamEdges)
	assert.Equal(t, 0, stats.OpenEdges, "a seam is not an open edge")
	assert.Equal(t, kernel.SurfaceCylinder, g.Nodes[0].SurfaceType)
	for _, e := range g.Edges {
		assert.Equal(t, 0, e.A, "cap edges attach to the wall node")
		assert.Equal(t, ConvexityConvex, e.Convexity)
	}
}

func TestBuildSlitPlateMultigraph(t *testing.T) {
	g, stats := mustBuild(t, synth.SlitPlate())

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 2, "two shared edges keep two distinct graph edges")
	assert.Equal(t, 2, stats.OpenEdges, "slit lips are open edges")
	for _, e := range g.Edges {
		assert.Equal(t, 0, e.A)
		assert.Equal(t, 1, e.B)
		assert.Equal(t, ConvexitySmooth, e.Convexity, "coplanar faces meet smoothly")
	}
}

func TestBuildInteriorCornerConcave(t *testing.T) {
	g, _ := mustBuild(t, synth.InteriorCorner())

	require.Len(t, g.Edges, 1)
	assert.Equal(t, ConvexityConcave, g.Edges[0].Convexity)
}

func TestBuildSheetAllOpen(t *testing.T) {
	g, stats := mustBuild(t, synth.Sheet())

	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
	assert.Equal(t, 4, stats.OpenEdges)
}

func TestBuildExcludesDegenerateFace(t *testing.T) {
	g, stats := mustBuild(t, synth.WithDegenerateFace())

	assert.Len(t, g.Nodes, 6, "node count is total faces minus degenerate faces")
	assert.Equal(t, 1, stats.DegenerateFaces)
	for i, n := range g.Nodes {
		assert.Equal(t, i, n.ID)
	}
}

func TestBuildDisjointComponents(t *testing.T) {
	g, _ := mustBuild(t, synth.DisjointPlates(3))

	assert.Len(t, g.Nodes, 3)
	assert.Empty(t, g.Edges)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, _, err := Build(ctx, synth.Box(1, 1, 1), testOpts())
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, g)
}

func TestRoundTrip(t *testing.T) {
	g, _ := mustBuild(t, synth.Box(1, 2, 3))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))
	got, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, g, got)
}

func TestDeterministicBytes(t *testing.T) {
	m := synth.Cylinder(2, 1)
	g1, _ := mustBuild(t, m)
	g2, _ := mustBuild(t, synth.Cylinder(2, 1))

	var b1, b2 bytes.Buffer
	require.NoError(t, Encode(&b1, g1))
	require.NoError(t, Encode(&b2, g2))
	assert.True(t, bytes.Equal(b1.Bytes(), b2.Bytes()),
		"independent builds of the same model must serialize identically")
}

func TestWriteReadFile(t *testing.T) {
	g, _ := mustBuild(t, synth.Box(1, 1, 1))
	path := filepath.Join(t.TempDir(), "box.bgrf")

	require.NoError(t, WriteFile(path, g))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	// The write is staged: no stray temp files remain.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteFileUnwritable(t *testing.T) {
	g, _ := mustBuild(t, synth.Box(1, 1, 1))
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "box.bgrf"), g)
	var se *SerializationError
	require.ErrorAs(t, err, &se)
}

func TestDecodeCorrupt(t *testing.T) {
	g, _ := mustBuild(t, synth.Box(1, 1, 1))
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))
	good := buf.Bytes()

	t.Run("bad magic", func(t *testing.T) {
		mangled := append([]byte{}, good...)
		mangled[0] = 'X'
		_, err := Decode(bytes.NewReader(mangled))
		require.ErrorIs(t, err, ErrCorruptGraph)
	})
	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(good[:len(good)/2]))
		require.ErrorIs(t, err, ErrCorruptGraph)
	})
	t.Run("trailing data", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(append(append([]byte{}, good...), 0)))
		require.ErrorIs(t, err, ErrCorruptGraph)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(nil))
		require.ErrorIs(t, err, ErrCorruptGraph)
	})
	t.Run("oversized grid resolution", func(t *testing.T) {
		// A header declaring a huge grid must be rejected before any
		// tensor allocation, not blow up in make.
		var raw bytes.Buffer
		raw.Write(graphMagic[:])
		binary.Write(&raw, binary.LittleEndian, uint16(SchemaVersion))
		binary.Write(&raw, binary.LittleEndian, uint16(0)) // empty source
		binary.Write(&raw, binary.LittleEndian, uint32(math.MaxInt32))
		binary.Write(&raw, binary.LittleEndian, uint32(5))
		binary.Write(&raw, binary.LittleEndian, uint32(1))
		binary.Write(&raw, binary.LittleEndian, uint32(0))
		_, err := Decode(bytes.NewReader(raw.Bytes()))
		require.ErrorIs(t, err, ErrCorruptGraph)
	})
	t.Run("oversized edge samples", func(t *testing.T) {
		var raw bytes.Buffer
		raw.Write(graphMagic[:])
		binary.Write(&raw, binary.LittleEndian, uint16(SchemaVersion))
		binary.Write(&raw, binary.LittleEndian, uint16(0))
		binary.Write(&raw, binary.LittleEndian, uint32(4))
		binary.Write(&raw, binary.LittleEndian, uint32(math.MaxInt32))
		binary.Write(&raw, binary.LittleEndian, uint32(0))
		binary.Write(&raw, binary.LittleEndian, uint32(1))
		_, err := Decode(bytes.NewReader(raw.Bytes()))
		require.ErrorIs(t, err, ErrCorruptGraph)
	})
}

func TestEncodeRejectsOversizedSource(t *testing.T) {
	g, _ := mustBuild(t, synth.Box(1, 1, 1))
	g.Source = strings.Repeat("x", math.MaxUint16+1)

	require.Error(t, g.Validate(), "source must fit its 16-bit length prefix")
	var buf bytes.Buffer
	require.Error(t, Encode(&buf, g))
}

func TestValidateRejectsBadEdges(t *testing.T) {
	g, _ := mustBuild(t, synth.Box(1, 1, 1))

	bad := *g
	bad.Edges = append([]Edge{}, g.Edges...)
	bad.Edges[0].B = len(g.Nodes)
	require.Error(t, bad.Validate())

	loop := *g
	loop.Edges = append([]Edge{}, g.Edges...)
	loop.Edges[0].A = loop.Edges[0].B
	require.Error(t, loop.Validate(), "self-loops are invalid")
}

func TestOverview(t *testing.T) {
	g, _ := mustBuild(t, synth.Cylinder(2, 1))
	o := g.Overview()

	assert.Equal(t, 3, o.NodeCount)
	assert.Equal(t, 2, o.EdgeCount)
	assert.Equal(t, 1, o.SurfaceTypes["cylinder"])
	assert.Equal(t, 2, o.SurfaceTypes["plane"])

	data, err := o.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"grid_resolution": 4`)
}
