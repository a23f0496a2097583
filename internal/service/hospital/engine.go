package hospital

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
	"github.com/jwalitptl/riskcast-api/pkg/scoring"
)

type Config struct {
	DemoBypass bool
}

// NewEngine picks the predictor chain once, from what was loaded at startup:
// the model path guarded by the rule fallback when both hospital artifacts
// loaded, the rule path alone otherwise.
func NewEngine(models scoring.Set, cfg Config, m *metrics.Metrics) Predictor {
	rules := NewRulePredictor()

	var p Predictor = rules
	if models.HospitalLoaded() {
		p = NewFallbackPredictor(NewMLPredictor(models.StayDays, models.StayBlock), rules, m)
	}

	if cfg.DemoBypass {
		log.Warn().Float64("deposit", DemoDeposit).Msg("hospital demo bypass enabled")
		p = NewDemoBypass(p)
	}

	return &instrumented{next: p, metrics: m}
}

type instrumented struct {
	next    Predictor
	metrics *metrics.Metrics
}

func (i *instrumented) Predict(ctx context.Context, in model.PatientAdmission) (model.HospitalPrediction, error) {
	out, err := i.next.Predict(ctx, in)
	if err != nil {
		return out, err
	}
	if i.metrics != nil {
		i.metrics.HospitalPredictions.WithLabelValues(string(out.Mode)).Inc()
	}
	return out, nil
}
