package accident

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/internal/service/forecast"
	"github.com/jwalitptl/riskcast-api/internal/weather"
	"github.com/jwalitptl/riskcast-api/pkg/errors"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
	"github.com/jwalitptl/riskcast-api/pkg/scoring"
)

const (
	DefaultHorizonDays = 5

	rateScale = "0-10"
	minRate   = 0.0
	maxRate   = 10.0
	note      = "Daily features use mean temperature and humidity with worst-case wind (daily peak) and visibility (daily minimum)."
)

type AccidentService interface {
	Assess(ctx context.Context, date string) (*model.AccidentRiskAssessment, error)
}

type Config struct {
	Location    *time.Location
	HorizonDays int
}

type Service struct {
	provider weather.Provider
	model    scoring.Regressor
	metrics  *metrics.Metrics
	cfg      Config
	now      func() time.Time
}

// NewService builds the accident service. A nil model means the accident
// artifact is unavailable and every assessment reports tier "unavailable".
func NewService(provider weather.Provider, m scoring.Regressor, met *metrics.Metrics, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = DefaultHorizonDays
	}
	return &Service{
		provider: provider,
		model:    m,
		metrics:  met,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *Service) Assess(ctx context.Context, date string) (*model.AccidentRiskAssessment, error) {
	if _, err := ValidateTargetDate(date, s.now(), s.cfg.Location, s.cfg.HorizonDays); err != nil {
		return nil, err
	}

	samples, err := s.provider.Forecast(ctx)
	if err != nil {
		return nil, errors.NewUpstream("weather forecast unavailable", err)
	}

	summary, err := forecast.Summarize(samples, date)
	if err != nil {
		return nil, err
	}

	prediction := s.score(summary)
	s.metrics.AccidentAssessments.WithLabelValues(string(prediction.Tier)).Inc()

	summary.MeanTemperature = round(summary.MeanTemperature, 1)
	summary.MeanHumidity = round(summary.MeanHumidity, 1)
	summary.MaxWindSpeed = round(summary.MaxWindSpeed, 1)
	summary.MinVisibilityKm = round(summary.MinVisibilityKm, 1)

	return &model.AccidentRiskAssessment{
		TargetDate: date,
		Weather:    summary,
		Prediction: prediction,
		Note:       note,
	}, nil
}

func (s *Service) score(summary model.DailyWeatherSummary) model.AccidentPrediction {
	unavailable := model.AccidentPrediction{
		Tier:      model.TierUnavailable,
		TierLabel: model.TierUnavailable.Label(),
		Scale:     rateScale,
	}
	if s.model == nil {
		return unavailable
	}

	rate, err := s.model.Predict(scoring.Features{
		Numeric: map[string]float64{
			"temp":       summary.MeanTemperature,
			"humidity":   summary.MeanHumidity,
			"windspeed":  summary.MaxWindSpeed,
			"visibility": summary.MinVisibilityKm,
		},
	})
	if err != nil {
		log.Error().Err(errors.NewModelRuntime("accident", err)).Str("date", summary.Date).Msg("accident scoring failed")
		return unavailable
	}

	// Artifacts without a clip can score outside the published scale.
	rate = math.Max(minRate, math.Min(maxRate, rate))

	tier := Classify(rate)
	return model.AccidentPrediction{
		Tier:      tier,
		TierLabel: tier.Label(),
		Rate:      round(rate, 2),
		Scale:     rateScale,
	}
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
