package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4317", stripScheme("http://collector:4317"))
	assert.Equal(t, "collector:4317", stripScheme("https://collector:4317"))
	assert.Equal(t, "collector:4317", stripScheme("collector:4317"))
}

func TestSetupTracerDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracer(context.Background(), "", "svc", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
