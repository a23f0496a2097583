package model

// AlertLabel is the bed-management alert attached to a hospital prediction.
type AlertLabel string

const (
	AlertEfficientFlow AlertLabel = "efficient-flow"
	AlertNormalFlow    AlertLabel = "normal-flow"
	AlertBlock         AlertLabel = "block-alert"
	AlertFastTrack     AlertLabel = "fast-track"
)

// PredictionMode tells which path produced a prediction.
type PredictionMode string

const (
	ModeML        PredictionMode = "ML"
	ModeDemoRules PredictionMode = "DEMO_RULES"
)

const (
	RiskNormal = 0
	RiskBlock  = 1
)

type HospitalPrediction struct {
	EstimatedDays   int            `json:"estimated_days"`
	RiskLevel       int            `json:"risk_level"`
	Alert           AlertLabel     `json:"alert"`
	Confidence      float64        `json:"confidence"`
	ClinicalMessage string         `json:"clinical_message"`
	Mode            PredictionMode `json:"mode"`
}
