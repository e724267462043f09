package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupOTelSDKIfConfigured(t *testing.T) {
	t.Parallel()

	t.Run("no endpoint keeps the no-op providers", func(t *testing.T) {
		t.Parallel()

		shutdown, err := SetupOTelSDKIfConfigured(t.Context(), "riftstats", "")
		require.NoError(t, err)
		require.NoError(t, shutdown(t.Context()))
	})

	t.Run("resource carries the service name", func(t *testing.T) {
		t.Parallel()

		res, err := newResource("riftstats")
		require.NoError(t, err)

		value, ok := res.Set().Value("service.name")
		require.True(t, ok)
		require.Equal(t, "riftstats", value.AsString())
	})
}
