package ports

import (
	"context"
	"io"

	"go.trai.ch/canarist/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records the stages of a run.
type Telemetry interface {
	// Record starts a new vertex for the named stage.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close flushes the recording session.
	Close() error
}

// Vertex is one recorded stage.
type Vertex interface {
	// Stdout returns a writer for the stage's standard output.
	Stdout() io.Writer
	// Stderr returns a writer for the stage's error output.
	Stderr() io.Writer
	// Log records a message on the stage.
	Log(level domain.LogLevel, msg string)
	// Complete marks the stage as finished, failed if err is not nil.
	Complete(err error)
	// Cached marks the stage as having nothing to do.
	Cached()
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex stored in ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
