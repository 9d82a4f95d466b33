package progrock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canarist/internal/adapters/telemetry/progrock"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/core/ports"
	"go.trai.ch/zerr"
)

func TestRecorder_Record(t *testing.T) {
	recorder := progrock.New()

	ctx, vertex := recorder.Record(context.Background(), "install")
	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, vertex, fromCtx)

	_, err := vertex.Stdout().Write([]byte("yarn install v1.22.19\n"))
	require.NoError(t, err)
	_, err = vertex.Stderr().Write([]byte("warning package.json: No license field\n"))
	require.NoError(t, err)
	vertex.Log(domain.LogLevelDebug, "debug msg")
	vertex.Log(domain.LogLevelWarn, "resolution conflict")
	vertex.Complete(nil)

	assert.NoError(t, recorder.Close())
}

func TestRecorder_SameStageTwice(t *testing.T) {
	recorder := progrock.New()

	_, first := recorder.Record(context.Background(), "clone")
	_, second := recorder.Record(context.Background(), "clone")
	assert.NotSame(t, first, second)

	first.Complete(nil)
	second.Complete(nil)
	assert.NoError(t, recorder.Close())
}

func TestVertex_Complete(t *testing.T) {
	recorder := progrock.New()

	_, failed := recorder.Record(context.Background(), "commands")
	failed.Complete(zerr.New("command failed"))
	assert.NotPanics(t, func() { failed.Complete(nil) })

	_, cached := recorder.Record(context.Background(), "persist")
	cached.Cached()
	cached.Complete(nil)

	assert.NoError(t, recorder.Close())
}
