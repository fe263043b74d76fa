// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	WorkbookPath string
	SchemaPath   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// OneMap geocoding configuration.
	OneMapBaseURL    string
	OneMapTimeout    time.Duration
	GeocodeEnabled   bool
	GeocodeCacheSize int
	GeocodeWorkers   int

	// Default map viewport (Singapore).
	MapCenterLat float64
	MapCenterLon float64
	MapZoom      int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	onemapTimeout, err := parseDuration("ONEMAP_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("GEOCODE_WORKERS", 8)
	if err != nil {
		return nil, err
	}

	zoom, err := parsePositiveInt("MAP_ZOOM", 12)
	if err != nil {
		return nil, err
	}

	centerLat, err := parseFloat("MAP_CENTER_LAT", 1.3521)
	if err != nil {
		return nil, err
	}

	centerLon, err := parseFloat("MAP_CENTER_LON", 103.8198)
	if err != nil {
		return nil, err
	}

	geocodeEnabled := true
	if v := os.Getenv("GEOCODE_ENABLED"); v != "" {
		geocodeEnabled = v == "true"
	}

	cfg := &Config{
		WorkbookPath: envOrDefault("WORKBOOK_PATH", "KS.xlsx"),
		SchemaPath:   os.Getenv("SCHEMA_PATH"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8050"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OneMapBaseURL:    envOrDefault("ONEMAP_BASE_URL", "https://www.onemap.gov.sg"),
		OneMapTimeout:    onemapTimeout,
		GeocodeEnabled:   geocodeEnabled,
		GeocodeCacheSize: cacheSize,
		GeocodeWorkers:   workers,

		MapCenterLat: centerLat,
		MapCenterLon: centerLon,
		MapZoom:      zoom,
	}

	if cfg.WorkbookPath == "" {
		return nil, errors.New("WORKBOOK_PATH is required")
	}
	if cfg.OneMapBaseURL == "" {
		return nil, errors.New("ONEMAP_BASE_URL is required")
	}
	if cfg.MapZoom > 19 {
		return nil, errors.New("MAP_ZOOM must be between 1 and 19")
	}
	if cfg.MapCenterLat < -90 || cfg.MapCenterLat > 90 {
		return nil, errors.New("MAP_CENTER_LAT must be between -90 and 90")
	}
	if cfg.MapCenterLon < -180 || cfg.MapCenterLon > 180 {
		return nil, errors.New("MAP_CENTER_LON must be between -180 and 180")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
