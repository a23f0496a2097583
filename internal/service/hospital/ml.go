package hospital

import (
	"context"
	"fmt"
	"math"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/pkg/errors"
	"github.com/jwalitptl/riskcast-api/pkg/scoring"
)

// MLPredictor runs the trained duration regressor and block classifier.
type MLPredictor struct {
	days  scoring.Regressor
	block scoring.Classifier
}

func NewMLPredictor(days scoring.Regressor, block scoring.Classifier) *MLPredictor {
	return &MLPredictor{days: days, block: block}
}

func (p *MLPredictor) Predict(_ context.Context, in model.PatientAdmission) (model.HospitalPrediction, error) {
	features := in.Features()

	rawDays, err := p.days.Predict(features)
	if err != nil {
		return model.HospitalPrediction{}, errors.NewModelRuntime("stay-days", err)
	}
	if math.IsNaN(rawDays) || math.IsInf(rawDays, 0) {
		return model.HospitalPrediction{}, errors.NewModelRuntime("stay-days", fmt.Errorf("invalid day estimate %v", rawDays))
	}
	// Halves go to the even neighbour: 2.5 is 2 days, 3.5 is 4.
	days := int(math.RoundToEven(rawDays))
	if days < 0 {
		return model.HospitalPrediction{}, errors.NewModelRuntime("stay-days", fmt.Errorf("negative day estimate %v", rawDays))
	}

	risk, err := p.block.Predict(features)
	if err != nil {
		return model.HospitalPrediction{}, errors.NewModelRuntime("stay-block", err)
	}
	if risk != model.RiskNormal && risk != model.RiskBlock {
		return model.HospitalPrediction{}, errors.NewModelRuntime("stay-block", fmt.Errorf("unexpected label %d", risk))
	}

	proba, err := p.block.PredictProba(features)
	if err != nil {
		return model.HospitalPrediction{}, errors.NewModelRuntime("stay-block", err)
	}
	if len(proba) != 2 || !(proba[1] >= 0 && proba[1] <= 1) {
		return model.HospitalPrediction{}, errors.NewModelRuntime("stay-block", fmt.Errorf("invalid probabilities %v", proba))
	}

	out := model.HospitalPrediction{
		EstimatedDays:   days,
		RiskLevel:       risk,
		Alert:           model.AlertNormalFlow,
		Confidence:      round1(proba[1] * 100),
		ClinicalMessage: fmt.Sprintf("Model forecast: standard stay (~%d days).", days),
		Mode:            model.ModeML,
	}
	if risk == model.RiskBlock {
		out.Alert = model.AlertBlock
		out.ClinicalMessage = fmt.Sprintf("Model forecast: long stay (~%d days). Requires bed management.", days)
	}
	return out, nil
}
