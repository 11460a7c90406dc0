package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"currency-rates-service/internal/adapter/cache"
	"currency-rates-service/internal/adapter/repository"
	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/internal/service"
	"currency-rates-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_RequestMetrics(t *testing.T) {
	log := logger.NewNullLogger()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	router := NewRouter(NewHandler(&MockExchangeService{}, nil, log, m), nil, log, m).SetupRoutes()

	testCases := []struct {
		name           string
		method         string
		target         string
		expectedStatus int
		expectedPath   string
		expectedClass  string
	}{
		{
			name:           "matched route uses its template",
			method:         http.MethodGet,
			target:         "/api/currencies-list",
			expectedStatus: http.StatusOK,
			expectedPath:   "/api/currencies-list",
			expectedClass:  "2xx",
		},
		{
			name:           "unknown path",
			method:         http.MethodGet,
			target:         "/api/unknown/path",
			expectedStatus: http.StatusNotFound,
			expectedPath:   "unmatched",
			expectedClass:  "4xx",
		},
		{
			name:           "wrong method",
			method:         http.MethodDelete,
			target:         "/api/currencies-list",
			expectedStatus: http.StatusMethodNotAllowed,
			expectedPath:   "unmatched",
			expectedClass:  "4xx",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			counter := m.HTTPRequestsTotal.WithLabelValues(tc.expectedPath, tc.method, tc.expectedClass)
			before := testutil.ToFloat64(counter)

			rec := serve(router, tc.method, tc.target, "")

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestRouter_HungProviderServesStaleBeforeWriteTimeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer upstream.Close()
	defer close(release)

	log := logger.NewNullLogger()
	m := metrics.NewMetrics(prometheus.NewRegistry())

	store := cache.NewMemoryStore(log)
	stale := testEnvelope()
	require.NoError(t, store.Write(context.Background(), stale))

	api := repository.NewExchangeAPI(upstream.URL, time.Second, 200*time.Millisecond, 3, log)
	clock := func() time.Time { return time.Date(2024, 7, 24, 10, 0, 0, 0, time.UTC) }
	exchange := service.NewExchangeService(api, store, 30, m, log, service.WithClock(clock))

	server := httptest.NewUnstartedServer(NewRouter(NewHandler(exchange, nil, log, m), nil, log, m).SetupRoutes())
	server.Config.WriteTimeout = 2 * time.Second
	server.Start()
	defer server.Close()

	start := time.Now()
	resp, err := server.Client().Get(server.URL + "/api/rates")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Less(t, time.Since(start), server.Config.WriteTimeout)

	var got model.CacheEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, *stale, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponsesTotal))
}
