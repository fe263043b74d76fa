// Package dataset turns workbook worksheets into cached, geocoded snapshots.
//
// A snapshot is immutable once built. The store caches one snapshot per
// worksheet and reuses it until the workbook file's modification time
// changes or Invalidate is called, so filter changes in the UI never re-read
// the workbook or re-geocode rows.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kampungspirit/kampung-insights/internal/adapter/workbook"
	"github.com/kampungspirit/kampung-insights/internal/domain"
	"github.com/kampungspirit/kampung-insights/internal/observability"
	"github.com/kampungspirit/kampung-insights/internal/schema"
)

// WorkbookReader is the part of the workbook adapter the store needs.
type WorkbookReader interface {
	SheetNames() ([]string, error)
	ReadSheet(name string) (workbook.Sheet, error)
	ModTime() (time.Time, error)
}

// RowEnricher attaches coordinates to submissions. A nil enricher skips
// geocoding entirely.
type RowEnricher interface {
	Enrich(ctx context.Context, subs []domain.Submission) []domain.Submission
}

// Snapshot is one fully loaded worksheet: parsed, geocoded, and frozen.
type Snapshot struct {
	ID              uuid.UUID
	Sheet           string
	Columns         []string
	Submissions     []domain.Submission
	LoadedAt        time.Time
	WorkbookModTime time.Time
}

// Store loads and caches worksheet snapshots.
type Store struct {
	reader   WorkbookReader
	enricher RowEnricher
	schema   schema.Schema
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu        sync.Mutex
	snapshots map[string]*Snapshot
	opened    bool
}

// NewStore creates a snapshot store over a workbook reader. enricher may be
// nil when geocoding is disabled.
func NewStore(reader WorkbookReader, enricher RowEnricher, sch schema.Schema, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		reader:    reader,
		enricher:  enricher,
		schema:    sch,
		logger:    logger,
		metrics:   metrics,
		snapshots: make(map[string]*Snapshot),
	}
}

// SheetNames lists the workbook's worksheets for the dataset selector.
func (s *Store) SheetNames() ([]string, error) {
	names, err := s.reader.SheetNames()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.opened = true
	s.mu.Unlock()
	return names, nil
}

// Load returns the snapshot for a worksheet, building it if the cache is
// cold or the workbook file has changed since the cached copy was built.
func (s *Store) Load(ctx context.Context, sheet string) (*Snapshot, error) {
	modTime, err := s.reader.ModTime()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if snap, ok := s.snapshots[sheet]; ok && snap.WorkbookModTime.Equal(modTime) {
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	snap, err := s.build(ctx, sheet, modTime)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snapshots[sheet] = snap
	s.opened = true
	s.metrics.SnapshotsCached.Set(float64(len(s.snapshots)))
	s.mu.Unlock()

	return snap, nil
}

func (s *Store) build(ctx context.Context, sheet string, modTime time.Time) (*Snapshot, error) {
	start := time.Now()

	ws, err := s.reader.ReadSheet(sheet)
	if err != nil {
		return nil, err
	}

	subs := domain.ParseRows(s.schema, ws.Header, ws.Rows)
	if s.enricher != nil {
		subs = s.enricher.Enrich(ctx, subs)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("load worksheet %q: %w", sheet, ctx.Err())
	}

	snap := &Snapshot{
		ID:              uuid.New(),
		Sheet:           sheet,
		Columns:         ws.Header,
		Submissions:     subs,
		LoadedAt:        domain.Now(),
		WorkbookModTime: modTime,
	}

	s.metrics.SheetLoads.Inc()
	s.metrics.SheetLoadDuration.Observe(time.Since(start).Seconds())
	s.metrics.RowsLoaded.Observe(float64(len(subs)))

	geocoded := 0
	for _, sub := range subs {
		if sub.Geo != nil {
			geocoded++
		}
	}
	s.logger.Info("worksheet loaded",
		"sheet", sheet,
		"snapshot_id", snap.ID,
		"rows", len(subs),
		"geocoded", geocoded,
		"duration", time.Since(start),
	)

	return snap, nil
}

// Invalidate drops every cached snapshot. The next Load rebuilds from the
// workbook on disk.
func (s *Store) Invalidate() {
	s.mu.Lock()
	n := len(s.snapshots)
	s.snapshots = make(map[string]*Snapshot)
	s.mu.Unlock()

	s.metrics.SnapshotsCached.Set(0)
	s.metrics.WorkbookReloads.Inc()
	s.logger.Info("snapshot cache invalidated", "dropped", n)
}

// CheckReadiness reports whether the workbook has been opened successfully
// at least once, attempting an open if it has not.
func (s *Store) CheckReadiness(_ context.Context) error {
	s.mu.Lock()
	opened := s.opened
	s.mu.Unlock()
	if opened {
		return nil
	}
	if _, err := s.SheetNames(); err != nil {
		return errors.New("workbook has not been opened yet")
	}
	return nil
}
