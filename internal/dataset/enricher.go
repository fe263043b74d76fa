package dataset

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kampungspirit/kampung-insights/internal/domain"
)

// Enricher geocodes submissions with a bounded worker group. Failures
// degrade gracefully: the row keeps a nil Geo and the error is logged, never
// surfaced.
type Enricher struct {
	geocoder domain.Geocoder
	workers  int
	logger   *slog.Logger
}

// NewEnricher creates an Enricher running at most workers lookups at once.
func NewEnricher(geocoder domain.Geocoder, workers int, logger *slog.Logger) *Enricher {
	if workers < 1 {
		workers = 1
	}
	return &Enricher{
		geocoder: geocoder,
		workers:  workers,
		logger:   logger,
	}
}

// Enrich attaches coordinates to every submission whose postal code
// resolves. The input slice is mutated in place and returned; each worker
// writes only its own index.
func (e *Enricher) Enrich(ctx context.Context, subs []domain.Submission) []domain.Submission {
	if e.geocoder == nil {
		return subs
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range subs {
		g.Go(func() error {
			postal := subs[i].PostalCode
			if postal == "" {
				return nil
			}
			geo, found, err := e.geocoder.Geocode(ctx, postal)
			if err != nil {
				e.logger.Warn("geocoding failed",
					"row", subs[i].Row,
					"postal_code", postal,
					"error", err,
				)
				return nil
			}
			if found {
				subs[i].Geo = &geo
			}
			return nil
		})
	}

	// Workers never return errors; Wait only orders the writes above.
	_ = g.Wait()
	return subs
}
