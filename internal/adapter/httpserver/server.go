// Package httpserver exposes the dashboard page, its JSON API, and the
// health/readiness/metrics endpoints.
package httpserver

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kampungspirit/kampung-insights/internal/adapter/workbook"
	"github.com/kampungspirit/kampung-insights/internal/report"
)

//go:embed assets
var assets embed.FS

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Store is the part of the dataset store the server needs.
type Store interface {
	SheetNames() ([]string, error)
	CheckReadiness(ctx context.Context) error
}

// ReportBuilder assembles dashboard payloads.
type ReportBuilder interface {
	Build(ctx context.Context, sheet string, r report.DateRange) (*report.Report, error)
}

// Server exposes the dashboard over HTTP.
type Server struct {
	httpServer *http.Server
	store      Store
	builder    ReportBuilder
	page       *template.Template
	mapView    report.MapView
	logger     *slog.Logger
}

// NewServer creates the dashboard HTTP server.
func NewServer(addr string, store Store, builder ReportBuilder, mapView report.MapView, logger *slog.Logger) *Server {
	s := &Server{
		store:   store,
		builder: builder,
		page:    template.Must(template.ParseFS(assets, "assets/dashboard.html")),
		mapView: mapView,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/sheets", s.handleSheets)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/report/export.xlsx", s.handleExport)
	mux.HandleFunc("GET /api/charts/{chart}", s.handleChart)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(store))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      requestLogger(mux, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	initial, err := json.Marshal(map[string]any{
		"map": map[string]any{
			"center_lat": s.mapView.CenterLat,
			"center_lon": s.mapView.CenterLon,
			"zoom":       s.mapView.Zoom,
		},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Initial template.JS
	}{
		Initial: template.JS(initial), //nolint:gosec // marshaled from typed config, not user input
	}
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render dashboard page", "error", err)
	}
}

func (s *Server) handleSheets(w http.ResponseWriter, _ *http.Request) {
	names, err := s.store.SheetNames()
	if err != nil {
		s.logger.Error("list worksheets", "error", err)
		writeError(w, http.StatusInternalServerError, "could not read the workbook")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sheets": names})
}

// buildFromQuery parses sheet/start/end and builds the report, writing the
// HTTP error itself when anything fails.
func (s *Server) buildFromQuery(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	sheet := r.URL.Query().Get("sheet")
	if sheet == "" {
		writeError(w, http.StatusBadRequest, "sheet is required")
		return nil, false
	}

	dateRange, err := report.ParseDateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	rep, err := s.builder.Build(r.Context(), sheet, dateRange)
	if err != nil {
		if errors.Is(err, workbook.ErrSheetNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("worksheet %q not found", sheet))
			return nil, false
		}
		s.logger.Error("build report", "sheet", sheet, "error", err)
		writeError(w, http.StatusInternalServerError, "could not build the report")
		return nil, false
	}
	return rep, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.buildFromQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.buildFromQuery(w, r)
	if !ok {
		return
	}

	tbl := report.SelectColumns(rep.Table, splitColumns(r.URL.Query()["columns"]))

	var buf bytes.Buffer
	if err := workbook.WriteTable(&buf, rep.Sheet, tbl.Columns, tbl.Rows); err != nil {
		s.logger.Error("write export workbook", "sheet", rep.Sheet, "error", err)
		writeError(w, http.StatusInternalServerError, "could not build the export")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Sheet+"-export.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("chart")
	key, ok := strings.CutSuffix(name, ".png")
	if !ok {
		writeError(w, http.StatusNotFound, "charts are served as .png")
		return
	}

	rep, ok := s.buildFromQuery(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.RenderChartPNG(rep, key, &buf); err != nil {
		switch {
		case errors.Is(err, report.ErrUnknownChart):
			writeError(w, http.StatusNotFound, fmt.Sprintf("no chart %q", key))
		case errors.Is(err, report.ErrNoChartData):
			writeError(w, http.StatusNotFound, fmt.Sprintf("chart %q has no data for this selection", key))
		default:
			s.logger.Error("render chart", "chart", key, "error", err)
			writeError(w, http.StatusInternalServerError, "could not render the chart")
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// splitColumns accepts both repeated columns params and comma-separated
// values.
func splitColumns(params []string) []string {
	var out []string
	for _, p := range params {
		for _, c := range strings.Split(p, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
