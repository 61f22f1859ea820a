package stats

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/brepgraph/pkg/facegraph"
	"github.com/chazu/brepgraph/pkg/kernel"
	"github.com/chazu/brepgraph/pkg/kernel/synth"
)

// writeGraph persists a synthetic model with n disconnected faces.
func writeGraph(t *testing.T, path string, m *kernel.Model) {
	t.Helper()
	g, _, err := facegraph.Build(context.Background(), m, facegraph.Options{
		GridResolution: 3,
		EdgeSamples:    3,
	})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, facegraph.WriteFile(path, g))
}

func TestAnalyzeCorpus(t *testing.T) {
	root := t.TempDir()
	writeGraph(t, filepath.Join(root, "bracket", "a.bgrf"), synth.DisjointPlates(5))
	writeGraph(t, filepath.Join(root, "bracket", "b.bgrf"), synth.DisjointPlates(12))
	writeGraph(t, filepath.Join(root, "gear", "c.bgrf"), synth.DisjointPlates(8))

	r, err := Analyze(root, nil)
	require.NoError(t, err)

	require.Len(t, r.Summaries, 3)
	assert.Equal(t, 25, r.TotalFaces)
	assert.Equal(t, 12, r.MaxFaceCount)
	assert.Equal(t, filepath.Join(root, "bracket", "b.bgrf"), r.MaxFaceFile)
	assert.Zero(t, r.Excluded)

	require.Len(t, r.Categories, 2)
	bracket := r.Categories[0]
	assert.Equal(t, "bracket", bracket.Category)
	assert.Equal(t, 2, bracket.Count)
	assert.InDelta(t, 8.5, bracket.MeanFaces, 1e-9)
	assert.InDelta(t, 3.5, bracket.StdFaces, 1e-9)
	assert.Equal(t, 5, bracket.MinFaces)
	assert.Equal(t, 12, bracket.MaxFaces)

	gear := r.Categories[1]
	assert.Equal(t, "gear", gear.Category)
	assert.Equal(t, 1, gear.Count)
	assert.Zero(t, gear.StdFaces)
}

func TestAnalyzeEmptyCorpus(t *testing.T) {
	r, err := Analyze(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, r.Summaries)
	assert.Zero(t, r.TotalFaces)
	assert.Zero(t, r.TotalEdges)
	assert.Empty(t, r.Categories)
}

func TestAnalyzeSkipsUnreadable(t *testing.T) {
	root := t.TempDir()
	writeGraph(t, filepath.Join(root, "ok", "a.bgrf"), synth.Box(1, 1, 1))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bad"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad", "junk.bgrf"), []byte("not a graph"), 0o644))

	r, err := Analyze(root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Excluded)
	require.Len(t, r.Summaries, 1)
	assert.Equal(t, 6, r.TotalFaces)
	assert.Equal(t, 12, r.MaxEdgeCount)
}

func TestAnalyzeUncategorized(t *testing.T) {
	root := t.TempDir()
	writeGraph(t, filepath.Join(root, "loose.bgrf"), synth.Sheet())

	r, err := Analyze(root, nil)
	require.NoError(t, err)
	require.Len(t, r.Summaries, 1)
	assert.Equal(t, "uncategorized", r.Summaries[0].Category)
}

func TestSummarizeHistogram(t *testing.T) {
	g, _, err := facegraph.Build(context.Background(), synth.Cylinder(2, 1), facegraph.Options{
		GridResolution: 3,
		EdgeSamples:    3,
	})
	require.NoError(t, err)
	s := Summarize(g, "cyl.bgrf", "demo")
	assert.Equal(t, 3, s.Faces)
	assert.Equal(t, 1, s.SurfaceHist[kernel.SurfaceCylinder])
	assert.Equal(t, 2, s.SurfaceHist[kernel.SurfacePlane])
}

func TestWriteCSV(t *testing.T) {
	root := t.TempDir()
	writeGraph(t, filepath.Join(root, "bracket", "a.bgrf"), synth.DisjointPlates(5))
	writeGraph(t, filepath.Join(root, "gear", "c.bgrf"), synth.DisjointPlates(8))

	r, err := Analyze(root, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "category,count,mean_faces"))
	assert.True(t, strings.HasPrefix(lines[1], "bracket,1,5.0000"))
	assert.True(t, strings.HasPrefix(lines[2], "gear,1,8.0000"))
}
