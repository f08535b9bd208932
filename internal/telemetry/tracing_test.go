package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadicards/concierge/backend/internal/config"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, Tracer())
}

func TestExporterOptions(t *testing.T) {
	opts, err := exporterOptions("localhost:4318")
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	opts, err = exporterOptions("https://otel.example.com/v1/traces")
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	opts, err = exporterOptions("http://collector:4318")
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	_, err = exporterOptions("http://%zz")
	assert.Error(t, err)
}
