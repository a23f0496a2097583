package hospital

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/pkg/errors"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
)

// FallbackPredictor calls primary and, when it fails or panics, answers the
// same call from secondary. A failure affects only the call it happened in.
type FallbackPredictor struct {
	primary   Predictor
	secondary Predictor
	metrics   *metrics.Metrics
}

func NewFallbackPredictor(primary, secondary Predictor, m *metrics.Metrics) *FallbackPredictor {
	return &FallbackPredictor{primary: primary, secondary: secondary, metrics: m}
}

func (p *FallbackPredictor) Predict(ctx context.Context, in model.PatientAdmission) (model.HospitalPrediction, error) {
	out, err := p.tryPrimary(ctx, in)
	if err == nil {
		return out, nil
	}

	log.Warn().Err(err).Str("department", in.Department).Msg("hospital model failed, answering from rules")
	if p.metrics != nil {
		p.metrics.HospitalFallbacks.Inc()
	}
	return p.secondary.Predict(ctx, in)
}

func (p *FallbackPredictor) tryPrimary(ctx context.Context, in model.PatientAdmission) (out model.HospitalPrediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewModelRuntime("hospital", fmt.Errorf("panic: %v", r))
		}
	}()
	return p.primary.Predict(ctx, in)
}
