//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/german-heritage-map/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, 5, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "Fredericksburg", "Texas")
	require.NoError(t, err)

	assert.InDelta(t, 30.27, result.Lat, 0.1, "lat should be near Fredericksburg")
	assert.InDelta(t, -98.87, result.Lon, 0.1, "lon should be near Fredericksburg")
	assert.Contains(t, result.FormattedAddress, "Fredericksburg")
	assert.Greater(t, result.Confidence, 0.5)
}

func TestSmoke_ForwardGeocode_Unknown(t *testing.T) {
	c := smokeClient(t)

	// Fuzzy matching may still return something; only require no error.
	_, err := c.ForwardGeocode(context.Background(), "XYZNONEXISTENT99", "Texas")
	require.NoError(t, err)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	cached := NewCachedGeocoder(smokeClient(t), 10, observability.NewMetricsForTesting())

	r1, err := cached.ForwardGeocode(context.Background(), "New Braunfels", "Texas")
	require.NoError(t, err)
	assert.Contains(t, r1.FormattedAddress, "New Braunfels")

	r2, err := cached.ForwardGeocode(context.Background(), "New Braunfels", "Texas")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
