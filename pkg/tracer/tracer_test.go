package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledReturnsNoopShutdown(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "test", Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	shutdown, err = Init(context.Background(), Config{Enabled: true})
	require.NoError(t, err, "no endpoint means tracing stays off")
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_RequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{Enabled: true, Endpoint: "localhost:4317"})
	assert.Error(t, err)
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased")
}
