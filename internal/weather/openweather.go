package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/pkg/circuitbreaker"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
)

const maxBodyBytes = 2 << 20

// Provider returns the raw 3-hourly forecast for the configured location.
type Provider interface {
	Forecast(ctx context.Context) ([]model.ForecastSample, error)
}

type Config struct {
	BaseURL         string
	APIKey          string
	Latitude        float64
	Longitude       float64
	Units           string
	Timeout         time.Duration
	CacheTTL        time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client talks to the OpenWeather 5 day / 3 hour forecast API.
type Client struct {
	cfg     Config
	http    *http.Client
	cache   *cache.Cache
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

func NewClient(cfg Config, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Units == "" {
		cfg.Units = "metric"
	}

	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache.New(cfg.CacheTTL, 2*cfg.CacheTTL+time.Minute),
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:                "weather-provider",
			MaxRequests:         1,
			Timeout:             cfg.BreakerTimeout,
			ConsecutiveFailures: cfg.BreakerFailures,
		}),
		metrics: m,
	}
}

type forecastResponse struct {
	List []forecastItem `json:"list"`
}

type forecastItem struct {
	DtTxt string `json:"dt_txt"`
	Main  struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Visibility *float64 `json:"visibility"`
	Weather    []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(c.cfg.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.cfg.Longitude, 'f', -1, 64))
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", c.cfg.Units)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Forecast fetches the forecast once, without retry. Successful results are
// cached for CacheTTL when it is positive.
func (c *Client) Forecast(ctx context.Context) ([]model.ForecastSample, error) {
	u, err := c.requestURL()
	if err != nil {
		return nil, err
	}

	if c.cfg.CacheTTL > 0 {
		if cached, ok := c.cache.Get(u); ok {
			c.metrics.ForecastCacheHits.Inc()
			return cached.([]model.ForecastSample), nil
		}
	}

	var samples []model.ForecastSample
	start := time.Now()
	err = c.cb.ExecuteContext(ctx, func(ctx context.Context) error {
		var fetchErr error
		samples, fetchErr = c.fetch(ctx, u)
		return fetchErr
	})
	c.metrics.ForecastFetchLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		reason := "fetch"
		if errors.Is(err, circuitbreaker.ErrOpen) {
			reason = "breaker_open"
		}
		c.metrics.ForecastFetchFailed.WithLabelValues(reason).Inc()
		log.Error().Err(err).Str("reason", reason).Msg("forecast fetch failed")
		return nil, err
	}

	if c.cfg.CacheTTL > 0 {
		c.cache.Set(u, samples, c.cfg.CacheTTL)
	}
	return samples, nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]model.ForecastSample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the API key.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading forecast response: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("forecast response exceeds %d bytes", maxBodyBytes)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("forecast provider returned status %d: %s", resp.StatusCode, snippet)
	}

	return decodeForecast(body)
}

func decodeForecast(body []byte) ([]model.ForecastSample, error) {
	var result forecastResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("forecast decode: %w", err)
	}

	samples := make([]model.ForecastSample, 0, len(result.List))
	for i, item := range result.List {
		if item.DtTxt == "" {
			return nil, fmt.Errorf("forecast item %d: missing dt_txt", i)
		}
		if item.Main.Temp == nil || item.Main.Humidity == nil || item.Wind.Speed == nil {
			return nil, fmt.Errorf("forecast item %d (%s): missing main/wind readings", i, item.DtTxt)
		}
		if len(item.Weather) == 0 {
			return nil, fmt.Errorf("forecast item %d (%s): missing weather description", i, item.DtTxt)
		}

		samples = append(samples, model.ForecastSample{
			Time:        item.DtTxt,
			Temperature: *item.Main.Temp,
			Humidity:    *item.Main.Humidity,
			WindSpeed:   *item.Wind.Speed,
			Visibility:  item.Visibility,
			Description: item.Weather[0].Description,
		})
	}
	return samples, nil
}
