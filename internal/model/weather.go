package model

// DefaultVisibilityMeters is assumed for samples that omit visibility.
const DefaultVisibilityMeters = 10000.0

// ForecastSample is one 3-hour reading from the weather provider.
type ForecastSample struct {
	// Time is the provider's "YYYY-MM-DD HH:MM:SS" stamp.
	Time        string   `json:"time"`
	Temperature float64  `json:"temperature"`
	Humidity    float64  `json:"humidity"`
	WindSpeed   float64  `json:"wind_speed"`
	Visibility  *float64 `json:"visibility,omitempty"` // meters
	Description string   `json:"description"`
}

// DailyWeatherSummary condenses one calendar day of samples.
type DailyWeatherSummary struct {
	Date              string  `json:"date"`
	DominantCondition string  `json:"dominant_condition"`
	MeanTemperature   float64 `json:"mean_temperature"`
	MeanHumidity      float64 `json:"mean_humidity"`
	MaxWindSpeed      float64 `json:"max_wind_speed"`
	MinVisibilityKm   float64 `json:"min_visibility_km"`
	SampleCount       int     `json:"sample_count"`
}

// RiskTier is the road-accident risk band.
type RiskTier string

const (
	TierLow         RiskTier = "low"
	TierMedium      RiskTier = "medium"
	TierHigh        RiskTier = "high"
	TierUnavailable RiskTier = "unavailable"
)

// Label returns the human readable tier name shown on dashboards.
func (t RiskTier) Label() string {
	switch t {
	case TierHigh:
		return "HIGH (CRITICAL)"
	case TierMedium:
		return "MEDIUM (CAUTION)"
	case TierLow:
		return "LOW (OPTIMAL)"
	default:
		return "N/A"
	}
}

type AccidentPrediction struct {
	Tier      RiskTier `json:"tier"`
	TierLabel string   `json:"tier_label"`
	Rate      float64  `json:"estimated_rate"`
	Scale     string   `json:"scale"`
}

type AccidentRiskAssessment struct {
	TargetDate string              `json:"target_date"`
	Weather    DailyWeatherSummary `json:"weather"`
	Prediction AccidentPrediction  `json:"prediction"`
	Note       string              `json:"note"`
}

// AccidentRiskRequest carries the target date. "fecha" is the field name
// existing clients send; "date" is accepted as well.
type AccidentRiskRequest struct {
	Fecha string `json:"fecha" binding:"omitempty,isodate"`
	Date  string `json:"date" binding:"omitempty,isodate"`
}

// TargetDate returns whichever of the two fields was provided.
func (r AccidentRiskRequest) TargetDate() string {
	if r.Fecha != "" {
		return r.Fecha
	}
	return r.Date
}
