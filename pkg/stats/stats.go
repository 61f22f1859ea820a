// Package stats computes aggregate structural metrics over persisted
// face-adjacency graphs: per-graph summaries, per-category
// distributions for dataset balance checks, and the outlier files
// attaining maximum face or edge counts. All passes are read-only.
package stats

import (
	"io/fs"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/brepgraph/pkg/facegraph"
	"github.com/chazu/brepgraph/pkg/kernel"
)

// GraphExt is the file suffix persisted graphs carry.
const GraphExt = ".bgrf"

// Summary is one graph's scalar profile.
type Summary struct {
	Path        string
	Category    string
	Faces       int
	Edges       int
	SurfaceHist [kernel.NumSurfaceTypes]int
}

// Summarize profiles a single in-memory graph.
func Summarize(g *facegraph.Graph, path, category string) Summary {
	return Summary{
		Path:        path,
		Category:    category,
		Faces:       len(g.Nodes),
		Edges:       len(g.Edges),
		SurfaceHist: g.SurfaceHistogram(),
	}
}

// Aggregate is the distribution of face and edge counts within one
// category.
type Aggregate struct {
	Category  string
	Count     int
	MeanFaces float64
	StdFaces  float64
	MinFaces  int
	MaxFaces  int
	MeanEdges float64
	StdEdges  float64
	MinEdges  int
	MaxEdges  int
}

// Report aggregates a corpus of graph files.
type Report struct {
	Summaries  []Summary
	Categories []Aggregate // sorted by category name
	TotalFaces int
	TotalEdges int
	Excluded   int // unreadable graph files skipped

	MaxFaceFile  string
	MaxFaceCount int
	MaxEdgeFile  string
	MaxEdgeCount int
}

// Analyze walks root for graph files and reduces them into a report.
// The category label of a file is its first directory component under
// root; files directly under root are labeled "uncategorized". Files
// that fail to load are counted as excluded, never fatal. An empty
// corpus yields a zero-valued report.
func Analyze(root string, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Report{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, GraphExt) {
			return nil
		}
		g, err := facegraph.ReadFile(path)
		if err != nil {
			r.Excluded++
			log.Warn("excluding unreadable graph",
				zap.String("path", path), zap.Error(err))
			return nil
		}
		r.add(Summarize(g, path, categoryOf(root, path)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.Categories = aggregate(r.Summaries)
	return r, nil
}

func categoryOf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "uncategorized"
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "uncategorized"
	}
	return parts[0]
}

func (r *Report) add(s Summary) {
	r.Summaries = append(r.Summaries, s)
	r.TotalFaces += s.Faces
	r.TotalEdges += s.Edges
	if s.Faces > r.MaxFaceCount || r.MaxFaceFile == "" {
		r.MaxFaceCount = s.Faces
		r.MaxFaceFile = s.Path
	}
	if s.Edges > r.MaxEdgeCount || r.MaxEdgeFile == "" {
		r.MaxEdgeCount = s.Edges
		r.MaxEdgeFile = s.Path
	}
}

func aggregate(summaries []Summary) []Aggregate {
	byCat := make(map[string][]Summary)
	for _, s := range summaries {
		byCat[s.Category] = append(byCat[s.Category], s)
	}
	names := make([]string, 0, len(byCat))
	for name := range byCat {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Aggregate, 0, len(names))
	for _, name := range names {
		group := byCat[name]
		a := Aggregate{Category: name, Count: len(group)}
		a.MeanFaces, a.StdFaces, a.MinFaces, a.MaxFaces = distribution(group, func(s Summary) int { return s.Faces })
		a.MeanEdges, a.StdEdges, a.MinEdges, a.MaxEdges = distribution(group, func(s Summary) int { return s.Edges })
		out = append(out, a)
	}
	return out
}

// distribution computes population mean/std and range of one counter
// over a non-empty group.
func distribution(group []Summary, counter func(Summary) int) (mean, std float64, min, max int) {
	min = counter(group[0])
	max = min
	sum, sumSq := 0.0, 0.0
	for _, s := range group {
		c := counter(s)
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
		sum += float64(c)
		sumSq += float64(c) * float64(c)
	}
	n := float64(len(group))
	mean = sum / n
	variance := sumSq/n - mean*mean
	if variance > 0 {
		std = math.Sqrt(variance)
	}
	return mean, std, min, max
}
