package routing_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fulfillment/internal/adapters/out/routing"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locations(t *testing.T) (kernel.Location, kernel.Location) {
	t.Helper()
	origin, err := kernel.NewLocation(40.7128, -74.0060)
	require.NoError(t, err)
	dest, err := kernel.NewLocation(40.7306, -73.9352)
	require.NoError(t, err)
	return origin, dest
}

func TestGoogleRoutesProvider_Route(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directions/v2:computeRoutes", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "routes.distanceMeters")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"routes":[{"distanceMeters":7420,"duration":"1123.6s","polyline":{"encodedPolyline":"abc"}}]}`))
	}))
	defer server.Close()

	provider, err := routing.NewGoogleRoutesProvider("test-key", routing.WithBaseURL(server.URL))
	require.NoError(t, err)
	origin, dest := locations(t)

	route, err := provider.Route(t.Context(), origin, dest)

	require.NoError(t, err)
	assert.Equal(t, 7420, route.DistanceMeters)
	assert.Equal(t, 1124, route.DurationSeconds)
	assert.Equal(t, "abc", route.Polyline)
	assert.False(t, route.Fallback)
	assert.Equal(t, "DRIVE", received["travelMode"])
}

func TestGoogleRoutesProvider_FailuresAreRoutingUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"quota exceeded", http.StatusTooManyRequests, `{}`},
		{"no routes", http.StatusOK, `{}`},
		{"malformed duration", http.StatusOK, `{"routes":[{"distanceMeters":1,"duration":"soon"}]}`},
		{"malformed body", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider, err := routing.NewGoogleRoutesProvider("test-key", routing.WithBaseURL(server.URL))
			require.NoError(t, err)
			origin, dest := locations(t)

			_, err = provider.Route(t.Context(), origin, dest)

			require.ErrorIs(t, err, errs.ErrRoutingUnavailable)
		})
	}
}

func TestNewGoogleRoutesProvider_RequiresKey(t *testing.T) {
	_, err := routing.NewGoogleRoutesProvider("  ")
	require.Error(t, err)
}
