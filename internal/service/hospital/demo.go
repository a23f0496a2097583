package hospital

import (
	"context"

	"github.com/jwalitptl/riskcast-api/internal/model"
)

// DemoDeposit is the deposit value that triggers the canned demo response.
const DemoDeposit = 1.0

// DemoBypass returns a fixed response for admissions carrying DemoDeposit and
// delegates everything else. It is only installed when demo mode is on.
type DemoBypass struct {
	next Predictor
}

func NewDemoBypass(next Predictor) *DemoBypass {
	return &DemoBypass{next: next}
}

func (d *DemoBypass) Predict(ctx context.Context, in model.PatientAdmission) (model.HospitalPrediction, error) {
	if in.AdmissionDeposit != DemoDeposit {
		return d.next.Predict(ctx, in)
	}
	return model.HospitalPrediction{
		EstimatedDays:   2,
		RiskLevel:       model.RiskNormal,
		Alert:           model.AlertEfficientFlow,
		Confidence:      94.5,
		ClinicalMessage: "Demo response.",
		Mode:            model.ModeDemoRules,
	}, nil
}
