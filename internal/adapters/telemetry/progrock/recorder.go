// Package progrock records per-download progress with vito/progrock.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/modman/internal/core/ports"
)

// Recorder implements ports.Progress. Every vertex it records lives in one progrock group.
type Recorder struct {
	rec *progrock.Recorder
}

// New returns a Recorder writing to an in-memory tape.
func New() ports.Progress {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder returns a Recorder writing to w.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{rec: progrock.NewRecorder(w)}
}

// Record starts a vertex. The name doubles as its identity, so it should carry the mod id.
func (r *Recorder) Record(_ context.Context, name string) ports.Vertex {
	return vertex{r.rec.Vertex(digest.FromString("modman:"+name), name)}
}

// Close implements ports.Progress.
func (r *Recorder) Close() error {
	return r.rec.Close()
}

type vertex struct {
	*progrock.VertexRecorder
}

// Complete fails the vertex when err is non-nil.
func (v vertex) Complete(err error) { v.Done(err) }
