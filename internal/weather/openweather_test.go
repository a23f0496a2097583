package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/riskcast-api/pkg/circuitbreaker"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
)

const forecastBody = `{
  "cod": "200",
  "list": [
    {"dt_txt": "2025-03-10 00:00:00", "main": {"temp": 24.1, "humidity": 83}, "wind": {"speed": 3.2},
     "visibility": 9000, "weather": [{"description": "light rain"}, {"description": "mist"}]},
    {"dt_txt": "2025-03-10 03:00:00", "main": {"temp": 23.5, "humidity": 88}, "wind": {"speed": 4.0},
     "weather": [{"description": "overcast clouds"}]}
  ]
}`

type testServer struct {
	*httptest.Server
	hits  atomic.Int32
	query atomic.Value
}

func newTestServer(t *testing.T, status int, body string) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		ts.query.Store(r.URL.RawQuery)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		APIKey:          "secret-key",
		Latitude:        18.4861,
		Longitude:       -69.9312,
		Timeout:         time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  time.Minute,
	}
}

func TestForecastDecodes(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, forecastBody)
	c := NewClient(testConfig(ts.URL), metrics.NewNop())

	samples, err := c.Forecast(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, "2025-03-10 00:00:00", samples[0].Time)
	assert.Equal(t, 24.1, samples[0].Temperature)
	assert.Equal(t, 83.0, samples[0].Humidity)
	assert.Equal(t, 3.2, samples[0].WindSpeed)
	require.NotNil(t, samples[0].Visibility)
	assert.Equal(t, 9000.0, *samples[0].Visibility)
	assert.Equal(t, "light rain", samples[0].Description)
	assert.Nil(t, samples[1].Visibility)

	q := ts.query.Load().(string)
	assert.Contains(t, q, "lat=18.4861")
	assert.Contains(t, q, "lon=-69.9312")
	assert.Contains(t, q, "appid=secret-key")
	assert.Contains(t, q, "units=metric")
}

func TestForecastMissingListIsEmpty(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, `{"cod":"200"}`)
	samples, err := NewClient(testConfig(ts.URL), metrics.NewNop()).Forecast(context.Background())
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestForecastCache(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, forecastBody)
	cfg := testConfig(ts.URL)
	cfg.CacheTTL = time.Minute
	m := metrics.NewNop()
	c := NewClient(cfg, m)

	for i := 0; i < 3; i++ {
		_, err := c.Forecast(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), ts.hits.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ForecastCacheHits))
}

func TestForecastErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"non-200", http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`, "status 401"},
		{"malformed json", http.StatusOK, `{"list": [`, "forecast decode"},
		{"missing readings", http.StatusOK, `{"list":[{"dt_txt":"2025-03-10 00:00:00","weather":[{"description":"x"}]}]}`, "missing main/wind"},
		{"missing description", http.StatusOK, `{"list":[{"dt_txt":"2025-03-10 00:00:00","main":{"temp":1,"humidity":1},"wind":{"speed":1},"weather":[]}]}`, "missing weather description"},
		{"oversize", http.StatusOK, strings.Repeat(" ", maxBodyBytes+10), "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.status, tt.body)
			m := metrics.NewNop()
			_, err := NewClient(testConfig(ts.URL), m).Forecast(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.ForecastFetchFailed.WithLabelValues("fetch")))
		})
	}
}

func TestForecastTimeoutDoesNotLeakKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.Timeout = 20 * time.Millisecond

	_, err := NewClient(cfg, metrics.NewNop()).Forecast(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestForecastBreakerOpens(t *testing.T) {
	ts := newTestServer(t, http.StatusInternalServerError, "down")
	cfg := testConfig(ts.URL)
	cfg.BreakerFailures = 2
	m := metrics.NewNop()
	c := NewClient(cfg, m)

	for i := 0; i < 2; i++ {
		_, err := c.Forecast(context.Background())
		require.Error(t, err)
	}

	_, err := c.Forecast(context.Background())
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(2), ts.hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForecastFetchFailed.WithLabelValues("breaker_open")))
}

func TestForecastCallerCancelDoesNotTripBreaker(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer ts.Close()
	defer close(release)

	cfg := testConfig(ts.URL)
	cfg.BreakerFailures = 2
	c := NewClient(cfg, metrics.NewNop())

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := c.Forecast(ctx)
		cancel()
		require.Error(t, err)
		assert.NotErrorIs(t, err, circuitbreaker.ErrOpen)
	}

	samples, err := c.Forecast(context.Background())
	require.NoError(t, err)
	assert.Len(t, samples, 2)
	assert.Equal(t, int32(4), hits.Load())
}
