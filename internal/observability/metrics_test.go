package observability

import (
	"context"
	"testing"

	"tutorapp/internal/config"
	contextutils "tutorapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_UnsupportedProtocol(t *testing.T) {
	_, err := InitMetrics(&config.OpenTelemetryConfig{
		Endpoint:    "localhost:4317",
		Protocol:    "carrier-pigeon",
		ServiceName: "tutorapp-test",
	})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInternalError))
}

func TestInitMetrics_GRPCProviderCreated(t *testing.T) {
	// The gRPC exporter dials lazily, so construction succeeds without a
	// collector listening.
	mp, err := InitMetrics(&config.OpenTelemetryConfig{
		Endpoint:    "localhost:4317",
		Protocol:    "grpc",
		ServiceName: "tutorapp-test",
		Insecure:    true,
	})
	require.NoError(t, err)
	require.NotNil(t, mp)
	_ = mp.Shutdown(context.Background())
}

func TestSetupObservability_MetricsDisabled(t *testing.T) {
	_, mp, logger, err := SetupObservability(&config.OpenTelemetryConfig{
		Protocol: "grpc",
	}, "tutorapp-test")
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Nil(t, mp)
}

func TestSetupObservability_MetricsEnabled(t *testing.T) {
	_, mp, _, err := SetupObservability(&config.OpenTelemetryConfig{
		Endpoint:      "localhost:4317",
		Protocol:      "grpc",
		Insecure:      true,
		EnableMetrics: true,
	}, "tutorapp-test")
	require.NoError(t, err)
	require.NotNil(t, mp)
	_ = mp.Shutdown(context.Background())
}
