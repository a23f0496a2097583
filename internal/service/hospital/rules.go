package hospital

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jwalitptl/riskcast-api/internal/model"
)

const (
	fastTrackDays       = 1
	fastTrackConfidence = 98.5

	baseDays        = 2
	blockScore      = 6
	blockDays       = 7
	baseConfidence  = 72.0
	confidenceStep  = 3.0
	maxConfidenceUp = 25.0
)

var ambulatoryDepartments = map[string]bool{
	"radiotherapy": true,
	"anesthesia":   true,
}

// RulePredictor scores an admission from its attributes alone. It never
// fails; unrecognised categorical values simply add nothing to the score.
type RulePredictor struct{}

func NewRulePredictor() *RulePredictor {
	return &RulePredictor{}
}

func (RulePredictor) Predict(_ context.Context, in model.PatientAdmission) (model.HospitalPrediction, error) {
	return Rules(in), nil
}

// Rules is the rule path as a pure function.
func Rules(in model.PatientAdmission) model.HospitalPrediction {
	if ambulatoryDepartments[strings.ToLower(in.Department)] && in.IllnessSeverity == model.SeverityMinor {
		return model.HospitalPrediction{
			EstimatedDays:   fastTrackDays,
			RiskLevel:       model.RiskNormal,
			Alert:           model.AlertFastTrack,
			Confidence:      fastTrackConfidence,
			ClinicalMessage: "Minor ambulatory case. Early discharge suggested.",
			Mode:            model.ModeDemoRules,
		}
	}

	score := Score(in)
	days := baseDays + score/2

	risk := model.RiskNormal
	if score >= blockScore || days >= blockDays {
		risk = model.RiskBlock
	}

	alert := model.AlertNormalFlow
	outlook := "Stable flow."
	if risk == model.RiskBlock {
		alert = model.AlertBlock
		outlook = "Possible bed block, plan capacity."
	}

	return model.HospitalPrediction{
		EstimatedDays:   days,
		RiskLevel:       risk,
		Alert:           alert,
		Confidence:      round1(baseConfidence + math.Min(maxConfidenceUp, float64(score)*confidenceStep)),
		ClinicalMessage: fmt.Sprintf("Rule-based estimate: score=%d. Stay ~%d days. %s", score, days, outlook),
		Mode:            model.ModeDemoRules,
	}
}

// Score is the weighted rule score. It is never negative.
func Score(in model.PatientAdmission) int {
	score := 0
	switch in.IllnessSeverity {
	case model.SeverityModerate:
		score += 2
	case model.SeveritySevere:
		score += 4
	}
	if in.AvailableExtraRooms <= 1 {
		score += 3
	}
	if in.PatientVisitors >= 4 {
		score++
	}
	if in.AdmissionDeposit >= 8000 {
		score += 2
	}
	if in.BedGrade >= 3.5 {
		score++
	}
	return score
}
