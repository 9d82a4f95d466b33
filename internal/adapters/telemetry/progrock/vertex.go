package progrock

import (
	"fmt"
	"io"
	"sync"

	"github.com/vito/progrock"
	"go.trai.ch/canarist/internal/core/domain"
)

// Vertex is one stage of a run. Warnings and errors go to the stage's stderr,
// everything else to its stdout.
type Vertex struct {
	vertex *progrock.VertexRecorder
	once   sync.Once
}

func newVertex(v *progrock.VertexRecorder) *Vertex {
	return &Vertex{vertex: v}
}

// Stdout returns the stage's output stream.
func (v *Vertex) Stdout() io.Writer {
	return v.vertex.Stdout()
}

// Stderr returns the stage's error stream.
func (v *Vertex) Stderr() io.Writer {
	return v.vertex.Stderr()
}

// Log appends a leveled line to the stage output.
func (v *Vertex) Log(level domain.LogLevel, msg string) {
	w := v.vertex.Stdout()
	if level >= domain.LogLevelWarn {
		w = v.vertex.Stderr()
	}
	_, _ = fmt.Fprintf(w, "[%s] %s\n", level, msg)
}

// Complete finishes the stage. The failure, if any, is also written to the
// stage's stderr. Only the first call has an effect.
func (v *Vertex) Complete(err error) {
	v.once.Do(func() {
		if err != nil {
			_, _ = fmt.Fprintf(v.vertex.Stderr(), "[%s] %v\n", domain.LogLevelError, err)
		}
		v.vertex.Done(err)
	})
}

// Cached marks the stage as having had nothing to change.
func (v *Vertex) Cached() {
	v.vertex.Cached()
}
