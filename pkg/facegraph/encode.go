package facegraph

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// graphMagic heads every serialized graph file.
var graphMagic = [4]byte{'B', 'G', 'R', 'F'}

// SerializationError reports a failed graph write.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize graph to %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// binWriter accumulates the first write error so encoding reads as a
// straight-line field list.
type binWriter struct {
	w   *bufio.Writer
	err error
}

func (b *binWriter) u8(v uint8) {
	if b.err == nil {
		b.err = b.w.WriteByte(v)
	}
}

func (b *binWriter) u16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	b.bytes(buf[:])
}

func (b *binWriter) u32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.bytes(buf[:])
}

func (b *binWriter) f64(v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	b.bytes(buf[:])
}

func (b *binWriter) bytes(p []byte) {
	if b.err == nil {
		_, b.err = b.w.Write(p)
	}
}

func (b *binWriter) str(s string) {
	b.u16(uint16(len(s)))
	b.bytes([]byte(s))
}

func (b *binWriter) bool(v bool) {
	if v {
		b.u8(1)
	} else {
		b.u8(0)
	}
}

// Encode writes the graph in its versioned little-endian layout.
// Float fields are written bit-exact, so encoding is deterministic:
// equal graphs produce equal bytes.
func Encode(w io.Writer, g *Graph) error {
	if len(g.Source) > math.MaxUint16 {
		return fmt.Errorf("source name %d bytes, limit %d", len(g.Source), math.MaxUint16)
	}
	b := &binWriter{w: bufio.NewWriter(w)}

	b.bytes(graphMagic[:])
	b.u16(uint16(g.SchemaVersion))
	b.str(g.Source)
	b.u32(uint32(g.GridResolution))
	b.u32(uint32(g.EdgeSamples))
	b.u32(uint32(len(g.Nodes)))
	b.u32(uint32(len(g.Edges)))

	for _, n := range g.Nodes {
		b.u8(uint8(n.SurfaceType))
		b.f64(n.Visibility)
		for _, s := range n.Grid.Samples {
			b.f64(s.Point.X)
			b.f64(s.Point.Y)
			b.f64(s.Point.Z)
			b.f64(s.Normal.X)
			b.f64(s.Normal.Y)
			b.f64(s.Normal.Z)
		}
		for _, s := range n.Grid.Samples {
			b.bool(s.Trimmed)
		}
	}
	for _, e := range g.Edges {
		b.u32(uint32(e.A))
		b.u32(uint32(e.B))
		b.u8(uint8(e.Convexity))
		for _, s := range e.Samples {
			b.f64(s.Point.X)
			b.f64(s.Point.Y)
			b.f64(s.Point.Z)
			b.f64(s.Tangent.X)
			b.f64(s.Tangent.Y)
			b.f64(s.Tangent.Z)
		}
	}

	if b.err != nil {
		return b.err
	}
	return b.w.Flush()
}

// WriteFile serializes the graph to path with write-then-rename, so a
// failed or interrupted write never leaves a partial graph file behind.
func WriteFile(path string, g *Graph) error {
	if err := g.Validate(); err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".graph-*")
	if err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, g); err != nil {
		tmp.Close()
		return &SerializationError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	return nil
}
