// Package hospital predicts length of stay and bed-block risk for an
// admission. A trained model is used when available; a rule path covers the
// rest with the same response shape.
package hospital

import (
	"context"
	"math"

	"github.com/jwalitptl/riskcast-api/internal/model"
)

// Predictor produces a HospitalPrediction for one admission.
type Predictor interface {
	Predict(ctx context.Context, in model.PatientAdmission) (model.HospitalPrediction, error)
}

// PredictorFunc adapts a plain function to Predictor.
type PredictorFunc func(ctx context.Context, in model.PatientAdmission) (model.HospitalPrediction, error)

func (f PredictorFunc) Predict(ctx context.Context, in model.PatientAdmission) (model.HospitalPrediction, error) {
	return f(ctx, in)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
