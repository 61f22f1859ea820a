// Package pipeline drives file conversions end to end: load a CAD
// model, build its face-adjacency graph, and persist it. Batches run
// the per-file pipeline across a bounded worker pool; every failure is
// contained to its own file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/brepgraph/pkg/config"
	"github.com/chazu/brepgraph/pkg/facegraph"
	"github.com/chazu/brepgraph/pkg/kernel"
	"github.com/chazu/brepgraph/pkg/kernel/step"
	"github.com/chazu/brepgraph/pkg/manifest"
)

// ErrTimeout marks a conversion that exceeded the per-file limit.
var ErrTimeout = errors.New("conversion timed out")

// Loader parses one CAD file into a kernel model.
type Loader func(path string) (*kernel.Model, error)

// Pipeline converts CAD files into graph files.
type Pipeline struct {
	cfg   *config.Config
	log   *zap.Logger
	load  Loader
	store *manifest.Store
}

// Option adjusts a pipeline at construction.
type Option func(*Pipeline)

// WithLoader swaps the CAD reader, used by synthetic-model tests.
func WithLoader(l Loader) Option {
	return func(p *Pipeline) { p.load = l }
}

// WithManifest records per-file outcomes in a run manifest.
func WithManifest(s *manifest.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// New builds a pipeline reading STEP files by default.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{cfg: cfg, log: log, load: step.Load}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type loadResult struct {
	model *kernel.Model
	err   error
}

// Convert runs one file through load, build, and write under the
// configured timeout. On any failure, including timeout, no output
// file exists afterwards; the write itself is staged and renamed.
func (p *Pipeline) Convert(ctx context.Context, src, dst string) (*facegraph.Graph, *facegraph.BuildStats, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ConversionTimeout())
	defer cancel()

	// The loader has no cancellation hook, so it runs aside and the
	// deadline abandons it. A stale result is dropped with its
	// goroutine.
	ch := make(chan loadResult, 1)
	go func() {
		m, err := p.load(src)
		ch <- loadResult{model: m, err: err}
	}()

	var m *kernel.Model
	select {
	case <-ctx.Done():
		return nil, nil, p.timeoutErr(ctx, src)
	case r := <-ch:
		if r.err != nil {
			return nil, nil, r.err
		}
		m = r.model
	}

	g, stats, err := facegraph.Build(ctx, m, facegraph.Options{
		GridResolution: p.cfg.GridResolution,
		EdgeSamples:    p.cfg.EdgeSampleCount,
		Logger:         p.log,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, p.timeoutErr(ctx, src)
		}
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, p.timeoutErr(ctx, src)
	}

	if err := facegraph.WriteFile(dst, g); err != nil {
		return nil, nil, err
	}
	return g, stats, nil
}

func (p *Pipeline) timeoutErr(ctx context.Context, src string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %s", ErrTimeout, p.cfg.ConversionTimeout(), src)
	}
	return ctx.Err()
}

// Input is one file queued for conversion.
type Input struct {
	Path     string
	Category string
}

// Result is one input's outcome.
type Result struct {
	Input    Input
	Output   string
	Faces    int
	Edges    int
	Duration time.Duration
	Err      error
}

// Status maps the result onto a manifest status.
func (r Result) Status() string {
	switch {
	case r.Err == nil:
		return manifest.StatusOK
	case errors.Is(r.Err, ErrTimeout):
		return manifest.StatusTimeout
	default:
		return manifest.StatusFailed
	}
}

// RunReport summarizes one batch.
type RunReport struct {
	RunID     string
	Results   []Result
	Succeeded int
	Failed    int
}

// Batch converts inputs into outDir with a bounded worker pool.
// Outputs land in outDir/<category>/<name>.bgrf. A file's failure is
// recorded and never aborts its siblings; cancelling ctx stops
// in-flight conversions at face granularity and skips the rest. The
// returned error covers batch bookkeeping only, never per-file
// failures.
func (p *Pipeline) Batch(ctx context.Context, inputs []Input, outDir string) (*RunReport, error) {
	report := &RunReport{Results: make([]Result, len(inputs))}
	if p.store != nil {
		runID, err := p.store.BeginRun(ctx, p.cfg.GridResolution, p.cfg.EdgeSampleCount)
		if err != nil {
			return nil, err
		}
		report.RunID = runID
	}

	var eg errgroup.Group
	eg.SetLimit(p.cfg.WorkerCount)
	for i, in := range inputs {
		eg.Go(func() error {
			report.Results[i] = p.convertOne(ctx, in, outDir)
			return nil
		})
	}
	eg.Wait()

	for _, r := range report.Results {
		if r.Err == nil {
			report.Succeeded++
		} else {
			report.Failed++
		}
		if p.store != nil {
			rec := manifest.FileRecord{
				RunID:    report.RunID,
				Source:   r.Input.Path,
				Category: r.Input.Category,
				Output:   r.Output,
				Status:   r.Status(),
				Faces:    r.Faces,
				Edges:    r.Edges,
				Duration: r.Duration,
			}
			if r.Err != nil {
				rec.Error = r.Err.Error()
				rec.Output = ""
			}
			if err := p.store.RecordFile(context.WithoutCancel(ctx), rec); err != nil {
				p.log.Warn("recording file outcome", zap.Error(err))
			}
		}
	}
	if p.store != nil {
		if err := p.store.FinishRun(context.WithoutCancel(ctx), report.RunID,
			report.Succeeded, report.Failed); err != nil {
			p.log.Warn("finishing run", zap.Error(err))
		}
	}
	p.log.Info("batch complete",
		zap.String("run", report.RunID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (p *Pipeline) convertOne(ctx context.Context, in Input, outDir string) (res Result) {
	res = Result{Input: in}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	dir := filepath.Join(outDir, in.Category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Err = err
		return res
	}
	res.Output = filepath.Join(dir, graphName(in.Path))

	g, _, err := p.Convert(ctx, in.Path, res.Output)
	if err != nil {
		res.Err = err
		res.Output = ""
		p.log.Warn("conversion failed",
			zap.String("source", in.Path), zap.Error(err))
		return res
	}
	res.Faces = len(g.Nodes)
	res.Edges = len(g.Edges)
	p.log.Info("converted",
		zap.String("source", in.Path),
		zap.Int("faces", res.Faces),
		zap.Int("edges", res.Edges),
		zap.Duration("took", res.Duration))
	return res
}

// graphName swaps a CAD file name's extension for the graph suffix.
func graphName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".bgrf"
}
