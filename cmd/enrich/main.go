// Command enrich geocodes every row of a survey workbook and writes a copy
// with Latitude and Longitude columns appended, one output file per
// worksheet. It shares the dashboard's OneMap client, cache, and worker
// pool, and prints per-outcome counts plus lookup latency percentiles.
//
// Usage:
//
//	go run ./cmd/enrich \
//	  -workbook KS.xlsx \
//	  -out enriched \
//	  -workers 8
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/kampungspirit/kampung-insights/internal/adapter/onemap"
	"github.com/kampungspirit/kampung-insights/internal/adapter/workbook"
	"github.com/kampungspirit/kampung-insights/internal/dataset"
	"github.com/kampungspirit/kampung-insights/internal/domain"
	"github.com/kampungspirit/kampung-insights/internal/observability"
	"github.com/kampungspirit/kampung-insights/internal/schema"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	workbookPath := flag.String("workbook", "KS.xlsx", "path to the survey workbook")
	sheet := flag.String("sheet", "", "worksheet to enrich (default: all worksheets)")
	outDir := flag.String("out", "enriched", "output directory for enriched workbooks")
	schemaPath := flag.String("schema", "", "optional schema YAML (default: built-in survey schema)")
	baseURL := flag.String("base-url", onemap.DefaultBaseURL, "OneMap API base URL")
	workers := flag.Int("workers", 8, "concurrent geocoding lookups")
	timeout := flag.Duration("timeout", 5*time.Second, "per-lookup HTTP timeout")
	cacheSize := flag.Int("cache", 1000, "geocoding cache entries")
	flag.Parse()

	sch := schema.Default()
	if *schemaPath != "" {
		var err error
		if sch, err = schema.LoadFile(*schemaPath); err != nil {
			return err
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	client := onemap.NewClient(*baseURL, *timeout, metrics, logger)
	cached := onemap.NewCachedGeocoder(client, *cacheSize, metrics)
	timed := newTimedGeocoder(cached)
	enricher := dataset.NewEnricher(timed, *workers, logger)

	reader := workbook.NewReader(*workbookPath)
	sheets, err := reader.SheetNames()
	if err != nil {
		return err
	}
	if *sheet != "" {
		sheets = []string{*sheet}
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx := context.Background()
	for _, name := range sheets {
		ws, err := reader.ReadSheet(name)
		if err != nil {
			return err
		}

		subs := domain.ParseRows(sch, ws.Header, ws.Rows)
		subs = enricher.Enrich(ctx, subs)

		outPath := filepath.Join(*outDir, sanitize(name)+".xlsx")
		if err := workbook.WriteEnriched(outPath, ws, subs); err != nil {
			return err
		}

		geocoded, missing := 0, 0
		for _, s := range subs {
			if s.Geo != nil {
				geocoded++
			} else {
				missing++
			}
		}
		fmt.Printf("%s: %d rows, %d geocoded, %d without coordinates -> %s\n",
			name, len(subs), geocoded, missing, outPath)
	}

	timed.printLatencies(os.Stdout)
	return nil
}

// timedGeocoder records per-lookup latency into an HDR histogram.
type timedGeocoder struct {
	inner domain.Geocoder
	mu    sync.Mutex
	hist  *hdrhistogram.Histogram
}

func newTimedGeocoder(inner domain.Geocoder) *timedGeocoder {
	// 1µs to 60s at 3 significant figures covers cache hits and slow
	// API calls alike.
	return &timedGeocoder{
		inner: inner,
		hist:  hdrhistogram.New(1, 60_000_000, 3),
	}
}

func (t *timedGeocoder) Geocode(ctx context.Context, postalCode string) (domain.Geo, bool, error) {
	start := time.Now()
	geo, found, err := t.inner.Geocode(ctx, postalCode)

	t.mu.Lock()
	_ = t.hist.RecordValue(time.Since(start).Microseconds())
	t.mu.Unlock()

	return geo, found, err
}

func (t *timedGeocoder) printLatencies(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hist.TotalCount() == 0 {
		return
	}
	fmt.Fprintf(w, "geocode latency over %d lookups (cache hits included):\n", t.hist.TotalCount())
	for _, q := range []float64{50, 95, 99} {
		fmt.Fprintf(w, "  p%-3.0f %s\n", q, time.Duration(t.hist.ValueAtQuantile(q))*time.Microsecond)
	}
	fmt.Fprintf(w, "  max  %s\n", time.Duration(t.hist.Max())*time.Microsecond)
}

// sanitize makes a worksheet name safe to use as a file name.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
}
