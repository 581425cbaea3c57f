package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/german-heritage-map/internal/domain"
)

// MarkerTransformer implements Transformer using the domain normalizer with
// an optional geocoding fallback.
type MarkerTransformer struct {
	normalizer *domain.Normalizer
}

// NewTransformer creates a MarkerTransformer. Pass a nil geocoder to disable
// the geocoding fallback.
func NewTransformer(opts domain.Options, geocoder domain.Geocoder, logger *slog.Logger) *MarkerTransformer {
	return &MarkerTransformer{
		normalizer: domain.NewNormalizer(opts, geocoder, logger),
	}
}

func (t *MarkerTransformer) Transform(ctx context.Context, rows []domain.RawRow) ([]domain.Marker, domain.LoadReport) {
	return t.normalizer.Normalize(ctx, rows)
}
