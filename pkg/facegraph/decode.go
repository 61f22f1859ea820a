package facegraph

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brepgraph/pkg/kernel"
	"github.com/chazu/brepgraph/pkg/uvgrid"
)

// ErrCorruptGraph marks a graph file whose contents disagree with its
// own metadata, or that cannot be read at all.
var ErrCorruptGraph = errors.New("corrupt graph file")

// maxElements caps the counts and per-tensor sizes read from headers
// before allocation, so a corrupt header cannot exhaust memory.
const maxElements = 1 << 24

type binReader struct {
	r   *bufio.Reader
	err error
}

func (b *binReader) bytes(p []byte) {
	if b.err == nil {
		_, b.err = io.ReadFull(b.r, p)
	}
}

func (b *binReader) u8() uint8 {
	var buf [1]byte
	b.bytes(buf[:])
	return buf[0]
}

func (b *binReader) u16() uint16 {
	var buf [2]byte
	b.bytes(buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

func (b *binReader) u32() uint32 {
	var buf [4]byte
	b.bytes(buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

func (b *binReader) f64() float64 {
	var buf [8]byte
	b.bytes(buf[:])
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:]))
}

func (b *binReader) str() string {
	n := b.u16()
	buf := make([]byte, n)
	b.bytes(buf)
	return string(buf)
}

func (b *binReader) vec() v3.Vec {
	return v3.Vec{X: b.f64(), Y: b.f64(), Z: b.f64()}
}

// Decode reads a graph written by Encode, verifying that the declared
// grid-resolution and sample-count metadata match the tensors actually
// present. Any disagreement returns an error wrapping ErrCorruptGraph.
func Decode(r io.Reader) (*Graph, error) {
	b := &binReader{r: bufio.NewReader(r)}

	var magic [4]byte
	b.bytes(magic[:])
	if b.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptGraph, b.err)
	}
	if !bytes.Equal(magic[:], graphMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptGraph, magic)
	}
	version := int(b.u16())
	if version != SchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrCorruptGraph, version)
	}

	g := &Graph{
		SchemaVersion:  version,
		Source:         b.str(),
		GridResolution: int(b.u32()),
		EdgeSamples:    int(b.u32()),
	}
	numNodes := int(b.u32())
	numEdges := int(b.u32())
	if b.err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrCorruptGraph)
	}
	if g.GridResolution < 2 || g.EdgeSamples < 2 ||
		g.GridResolution*g.GridResolution > maxElements ||
		g.EdgeSamples > maxElements ||
		numNodes > maxElements || numEdges > maxElements {
		return nil, fmt.Errorf("%w: implausible header (res=%d samples=%d nodes=%d edges=%d)",
			ErrCorruptGraph, g.GridResolution, g.EdgeSamples, numNodes, numEdges)
	}

	res := g.GridResolution
	if numNodes > 0 {
		g.Nodes = make([]Node, numNodes)
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		n.ID = i
		st := kernel.SurfaceType(b.u8())
		if st >= kernel.NumSurfaceTypes {
			return nil, fmt.Errorf("%w: node %d surface type %d", ErrCorruptGraph, i, st)
		}
		n.SurfaceType = st
		n.Visibility = b.f64()
		n.Grid = uvgrid.Grid{Res: res, Samples: make([]uvgrid.Sample, res*res)}
		for k := range n.Grid.Samples {
			n.Grid.Samples[k].Point = b.vec()
			n.Grid.Samples[k].Normal = b.vec()
		}
		for k := range n.Grid.Samples {
			n.Grid.Samples[k].Trimmed = b.u8() != 0
		}
	}

	if numEdges > 0 {
		g.Edges = make([]Edge, numEdges)
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		e.A = int(b.u32())
		e.B = int(b.u32())
		e.Convexity = Convexity(b.u8())
		e.Samples = make([]uvgrid.CurveSample, g.EdgeSamples)
		for k := range e.Samples {
			e.Samples[k].Point = b.vec()
			e.Samples[k].Tangent = b.vec()
		}
	}

	if b.err != nil {
		return nil, fmt.Errorf("%w: truncated body", ErrCorruptGraph)
	}
	// One extra byte means the shapes in the header undercount what
	// was written.
	if _, err := b.r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrCorruptGraph)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptGraph, err)
	}
	return g, nil
}

// ReadFile loads a serialized graph from disk.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
