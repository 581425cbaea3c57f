package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/german-heritage-map/internal/domain"
	"github.com/couchcryptid/german-heritage-map/internal/observability"
	"github.com/couchcryptid/german-heritage-map/internal/source"
	"github.com/couchcryptid/german-heritage-map/internal/store"
)

// Extractor reads the marker export.
type Extractor interface {
	Extract(ctx context.Context) (source.Document, error)
}

// Transformer converts raw export rows into markers.
type Transformer interface {
	Transform(ctx context.Context, rows []domain.RawRow) ([]domain.Marker, domain.LoadReport)
}

// Publisher receives every freshly built store. Publishing is best effort.
type Publisher interface {
	PublishSnapshot(ctx context.Context, s *store.Store) error
}

// Loader builds marker stores from the source and publishes them atomically.
// Builds are cached by source content digest.
type Loader struct {
	extractor   Extractor
	transformer Transformer
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock

	mu      sync.Mutex // serializes loads
	current atomic.Pointer[store.Store]
}

// New creates a Loader. Pass a nil publisher to skip snapshot publishing.
func New(e Extractor, t Transformer, p Publisher, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		extractor:   e,
		transformer: t,
		publisher:   p,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
}

// WithClock swaps the time source used for load timestamps and polling.
func (l *Loader) WithClock(c clockwork.Clock) *Loader {
	l.clock = c
	return l
}

// Current returns the published store, or nil before the first successful load.
func (l *Loader) Current() *store.Store {
	return l.current.Load()
}

// CheckReadiness returns nil once a store has been published.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if l.current.Load() == nil {
		return errors.New("marker store has not been loaded yet")
	}
	return nil
}

// Load returns the current store when the source content is unchanged,
// otherwise it rebuilds and publishes a new one.
func (l *Loader) Load(ctx context.Context) (*store.Store, error) {
	return l.load(ctx, false)
}

// Reload rebuilds and publishes a new store regardless of the source digest.
func (l *Loader) Reload(ctx context.Context) (*store.Store, error) {
	return l.load(ctx, true)
}

func (l *Loader) load(ctx context.Context, force bool) (*store.Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := l.clock.Now()

	doc, err := l.extractor.Extract(ctx)
	if err != nil {
		return nil, l.fail(err)
	}

	if cur := l.current.Load(); !force && cur != nil && cur.Digest() == doc.Digest {
		l.metrics.Loads.WithLabelValues("cached").Inc()
		l.logger.Debug("source unchanged, reusing store", "digest", doc.Digest, "markers", cur.Count())
		return cur, nil
	}

	rows, err := doc.Rows()
	if err != nil {
		return nil, l.fail(err)
	}

	markers, report := l.transformer.Transform(ctx, rows)
	s := store.New(markers, store.Meta{
		Digest:   doc.Digest,
		LoadedAt: l.clock.Now(),
		Report:   report,
	})
	l.current.Store(s)

	l.metrics.Loads.WithLabelValues("fresh").Inc()
	l.metrics.LoadDuration.Observe(l.clock.Since(start).Seconds())
	l.recordReport(report)

	l.logger.Info("marker store published",
		"source", doc.Path,
		"digest", doc.Digest,
		"rows", report.RowsRead,
		"markers", s.Count(),
		"excluded", report.ExcludedTotal(),
		"unknown_years", report.UnknownYears,
		"forced", force,
	)

	l.publish(ctx, s)
	return s, nil
}

// Run polls the source every interval until the context is cancelled. Load
// errors back off exponentially before the next attempt; the previously
// published store stays live throughout.
func (l *Loader) Run(ctx context.Context, interval time.Duration) error {
	l.logger.Info("source polling started", "interval", interval)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if _, err := l.Load(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Error("source load failed", "error", err)
			if !l.sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		if !l.sleep(ctx, interval) {
			l.logger.Info("source polling stopped", "reason", ctx.Err())
			return nil
		}
	}
}

func (l *Loader) fail(err error) error {
	l.metrics.Loads.WithLabelValues("error").Inc()
	return err
}

func (l *Loader) recordReport(report domain.LoadReport) {
	l.metrics.SourceRows.Set(float64(report.RowsRead))
	l.metrics.MarkersLoaded.Set(float64(report.Retained))
	l.metrics.YearsUnknown.Set(float64(report.UnknownYears))
	l.metrics.OverridesApplied.Set(float64(report.OverridesApplied))
	for _, reason := range []domain.ExclusionReason{
		domain.ExcludedMissingTitle,
		domain.ExcludedDuplicate,
		domain.ExcludedOffTopic,
		domain.ExcludedUnresolvable,
	} {
		l.metrics.RecordsExcluded.WithLabelValues(string(reason)).Set(float64(report.Excluded[reason]))
	}
}

// publish hands the store to the publisher. Failures are logged, never returned.
func (l *Loader) publish(ctx context.Context, s *store.Store) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishSnapshot(ctx, s); err != nil {
		l.metrics.SnapshotsPublished.WithLabelValues("error").Inc()
		l.logger.Warn("snapshot publish failed", "error", err, "digest", s.Digest())
		return
	}
	l.metrics.SnapshotsPublished.WithLabelValues("success").Inc()
}

func (l *Loader) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := l.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
