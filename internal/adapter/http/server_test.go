package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/stormbuster/hailrisk/internal/adapter/http"
	"github.com/stormbuster/hailrisk/internal/domain"
)

type mockAnalyzer struct {
	readyErr error
	one      domain.ZipcodeAnalysis
	oneErr   error
	all      []domain.ZipcodeAnalysis
	leads    []domain.Lead
}

func (m *mockAnalyzer) AnalyzeOne(_ context.Context, zipcode string) (domain.ZipcodeAnalysis, error) {
	if m.oneErr != nil {
		return domain.ZipcodeAnalysis{}, m.oneErr
	}
	out := m.one
	out.Zipcode = zipcode
	return out, nil
}

func (m *mockAnalyzer) AnalyzeAll(_ context.Context) []domain.ZipcodeAnalysis { return m.all }

func (m *mockAnalyzer) GenerateLeads(_ context.Context, zipcode string, _ float64) ([]domain.Lead, error) {
	if zipcode == "" {
		return nil, fmt.Errorf("zipcode required")
	}
	return m.leads, nil
}

func (m *mockAnalyzer) CheckReadiness(_ context.Context) error { return m.readyErr }

type mockGeocoder struct {
	addr     domain.Address
	enriched domain.EnrichedLookupResult
	err      error
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.Address, error) {
	return m.addr, m.err
}

func (m *mockGeocoder) EnhancedReverseGeocode(_ context.Context, _, _ float64) (domain.EnrichedLookupResult, error) {
	return m.enriched, m.err
}

func newTestServer(analyzer *mockAnalyzer, geocoder *mockGeocoder) *httpadapter.Server {
	if analyzer == nil {
		analyzer = &mockAnalyzer{}
	}
	if geocoder == nil {
		geocoder = &mockGeocoder{}
	}
	return httpadapter.NewServer(":0", analyzer, geocoder, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{readyErr: fmt.Errorf("snapshot not loaded")}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "snapshot not loaded", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAnalyzeOneReturnsAnalysis(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{
		one: domain.ZipcodeAnalysis{RiskScore: 87.5, RiskLevel: domain.RiskVeryHigh, HailFrequency: 12},
	}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/75201", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body domain.ZipcodeAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "75201", body.Zipcode)
	assert.Equal(t, domain.RiskVeryHigh, body.RiskLevel)
	assert.InDelta(t, 87.5, body.RiskScore, 0.0001)
}

func TestAnalyzeOneRejectsBadZipcode(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{oneErr: fmt.Errorf("zipcode must not be empty")}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/%20", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeAllReturnsRankedList(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{
		all: []domain.ZipcodeAnalysis{
			{Zipcode: "75201", RiskScore: 90},
			{Zipcode: "76102", RiskScore: 40},
		},
	}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body []domain.ZipcodeAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "75201", body[0].Zipcode)
}

func TestLeadsReturnsScoredEvents(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{
		leads: []domain.Lead{
			{Event: domain.HailEvent{Zipcode: "75201", Magnitude: 2.25}, Score: 75, Priority: "high", PropertyValue: 300_000},
			{Event: domain.HailEvent{Zipcode: "75201", Magnitude: 1.0}, Score: 20, Priority: "low", PropertyValue: 300_000},
		},
	}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads/75201", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body []domain.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "high", body[0].Priority)
	assert.Equal(t, 75, body[0].Score)
}

func TestLeadsRejectsBadPropertyValue(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads/75201?property_value=lots", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeocodeReturnsAddress(t *testing.T) {
	srv := newTestServer(nil, &mockGeocoder{
		addr: domain.Address{City: "Dallas", State: "TX", Provider: "offline"},
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/geocode?lat=32.7767&lon=-96.7970", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body domain.Address
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Dallas", body.City)
	assert.Equal(t, "offline", body.Provider)
}

func TestGeocodeEnhancedReturnsSupplementary(t *testing.T) {
	srv := newTestServer(nil, &mockGeocoder{
		enriched: domain.EnrichedLookupResult{
			Address: domain.Address{City: "Fort Worth", State: "TX"},
			Supplementary: map[string]json.RawMessage{
				"whitepages": json.RawMessage(`{"resident_count":3}`),
			},
		},
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/geocode?lat=32.7555&lon=-97.3308&enhanced=true", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body domain.EnrichedLookupResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Fort Worth", body.Address.City)
	assert.Contains(t, body.Supplementary, "whitepages")
}

func TestGeocodeRequiresCoordinates(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/geocode?lat=32.7", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeocodeInvalidCoordinatesReturns400(t *testing.T) {
	srv := newTestServer(nil, &mockGeocoder{err: domain.ErrInvalidCoordinates})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/geocode?lat=95&lon=10", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeocodeProviderFailureReturns502(t *testing.T) {
	srv := newTestServer(nil, &mockGeocoder{err: fmt.Errorf("all geocode providers failed")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/geocode?lat=32.7&lon=-96.7", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
