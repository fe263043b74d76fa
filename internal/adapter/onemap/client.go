// Package onemap implements domain.Geocoder against the OneMap Singapore
// public search API.
package onemap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kampungspirit/kampung-insights/internal/domain"
	"github.com/kampungspirit/kampung-insights/internal/observability"
)

// DefaultBaseURL is the public OneMap endpoint. No API key is required for
// the search route.
const DefaultBaseURL = "https://www.onemap.gov.sg"

// Client implements domain.Geocoder using the OneMap elastic search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a OneMap geocoding client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode resolves a Singapore postal code to coordinates. found is false
// when OneMap reports zero matches.
func (c *Client) Geocode(ctx context.Context, postalCode string) (domain.Geo, bool, error) {
	params := url.Values{
		"searchVal":      {postalCode},
		"returnGeom":     {"Y"},
		"getAddrDetails": {"N"},
	}
	fullURL := fmt.Sprintf("%s/api/common/elastic/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Geo{}, false, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Geo{}, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return domain.Geo{}, false, fmt.Errorf("onemap API error: status %d: %s", resp.StatusCode, body)
	}

	var searchResp response
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Geo{}, false, fmt.Errorf("decode response: %w", err)
	}

	if searchResp.Found == 0 || len(searchResp.Results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.Geo{}, false, nil
	}

	// OneMap returns coordinates as decimal strings.
	first := searchResp.Results[0]
	lat, err := strconv.ParseFloat(first.Latitude, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Geo{}, false, fmt.Errorf("parse latitude %q: %w", first.Latitude, err)
	}
	lon, err := strconv.ParseFloat(first.Longitude, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Geo{}, false, fmt.Errorf("parse longitude %q: %w", first.Longitude, err)
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return domain.Geo{Lat: lat, Lon: lon}, true, nil
}

// OneMap API response types.

type response struct {
	Found   int      `json:"found"`
	Results []result `json:"results"`
}

type result struct {
	Latitude  string `json:"LATITUDE"`
	Longitude string `json:"LONGITUDE"`
}
