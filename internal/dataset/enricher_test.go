package dataset

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kampungspirit/kampung-insights/internal/domain"
)

// stubGeocoder is a thread-safe fake that serves canned coordinates.
type stubGeocoder struct {
	mu      sync.Mutex
	calls   int
	active  int
	peak    int
	results map[string]domain.Geo
	err     error
}

func (s *stubGeocoder) Geocode(_ context.Context, postalCode string) (domain.Geo, bool, error) {
	s.mu.Lock()
	s.calls++
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if s.err != nil {
		return domain.Geo{}, false, s.err
	}
	s.mu.Lock()
	geo, ok := s.results[postalCode]
	s.mu.Unlock()
	return geo, ok, nil
}

func TestEnricher_AttachesCoordinates(t *testing.T) {
	defer goleak.VerifyNone(t)

	stub := &stubGeocoder{results: map[string]domain.Geo{
		"560123": {Lat: 1.3691, Lon: 103.8454},
		"238801": {Lat: 1.3006, Lon: 103.8390},
	}}
	e := NewEnricher(stub, 4, testLogger())

	subs := []domain.Submission{
		{Row: 2, PostalCode: "560123"},
		{Row: 3, PostalCode: "238801"},
		{Row: 4, PostalCode: "999999"}, // unknown
		{Row: 5},                       // empty postal code: no lookup
	}

	got := e.Enrich(context.Background(), subs)
	require.Len(t, got, 4)

	require.NotNil(t, got[0].Geo)
	assert.Equal(t, 1.3691, got[0].Geo.Lat)
	require.NotNil(t, got[1].Geo)
	assert.Equal(t, 103.8390, got[1].Geo.Lon)
	assert.Nil(t, got[2].Geo)
	assert.Nil(t, got[3].Geo)
	assert.Equal(t, 3, stub.calls, "empty postal codes should not reach the geocoder")
}

func TestEnricher_ErrorsDegradeGracefully(t *testing.T) {
	defer goleak.VerifyNone(t)

	stub := &stubGeocoder{err: errors.New("onemap down")}
	e := NewEnricher(stub, 2, testLogger())

	subs := []domain.Submission{
		{Row: 2, PostalCode: "560123"},
		{Row: 3, PostalCode: "238801"},
	}

	got := e.Enrich(context.Background(), subs)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Geo)
	assert.Nil(t, got[1].Geo)
}

func TestEnricher_RespectsWorkerLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	stub := &stubGeocoder{results: map[string]domain.Geo{}}
	e := NewEnricher(stub, 2, testLogger())

	subs := make([]domain.Submission, 40)
	for i := range subs {
		subs[i] = domain.Submission{Row: i + 2, PostalCode: "560123"}
	}

	e.Enrich(context.Background(), subs)
	assert.LessOrEqual(t, stub.peak, 2)
	assert.Equal(t, 40, stub.calls)
}

func TestEnricher_NilGeocoderIsNoop(t *testing.T) {
	e := NewEnricher(nil, 4, testLogger())
	subs := []domain.Submission{{Row: 2, PostalCode: "560123"}}

	got := e.Enrich(context.Background(), subs)
	assert.Nil(t, got[0].Geo)
}
