package hospital

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
	"github.com/jwalitptl/riskcast-api/pkg/scoring"
)

func baseAdmission() model.PatientAdmission {
	return model.PatientAdmission{
		HospitalType:        2,
		HospitalCity:        3,
		HospitalRegion:      1,
		AvailableExtraRooms: 3,
		BedGrade:            2.0,
		PatientVisitors:     2,
		CityCodePatient:     7,
		AdmissionDeposit:    4500,
		Department:          "gynecology",
		WardType:            "R",
		WardFacility:        "F",
		TypeOfAdmission:     "Trauma",
		IllnessSeverity:     model.SeverityMinor,
		Age:                 "31-40",
	}
}

func TestRulesFastTrack(t *testing.T) {
	for _, dept := range []string{"radiotherapy", "anesthesia", "Radiotherapy", "ANESTHESIA"} {
		in := baseAdmission()
		in.Department = dept
		// Fields that would otherwise push the score up are ignored.
		in.AvailableExtraRooms = 0
		in.AdmissionDeposit = 12000
		in.BedGrade = 4

		got := Rules(in)
		assert.Equal(t, 1, got.EstimatedDays, dept)
		assert.Equal(t, model.RiskNormal, got.RiskLevel, dept)
		assert.Equal(t, 98.5, got.Confidence, dept)
		assert.Equal(t, model.AlertFastTrack, got.Alert, dept)
		assert.Equal(t, model.ModeDemoRules, got.Mode, dept)
	}

	in := baseAdmission()
	in.Department = "radiotherapy"
	in.IllnessSeverity = "minor"
	assert.NotEqual(t, model.AlertFastTrack, Rules(in).Alert, "severity match is exact")
}

func TestRulesScoring(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*model.PatientAdmission)
		score      int
		days       int
		risk       int
		confidence float64
		alert      model.AlertLabel
	}{
		{"baseline", func(*model.PatientAdmission) {}, 0, 2, 0, 72.0, model.AlertNormalFlow},
		{"moderate", func(a *model.PatientAdmission) { a.IllnessSeverity = model.SeverityModerate }, 2, 3, 0, 78.0, model.AlertNormalFlow},
		{"severe few rooms", func(a *model.PatientAdmission) {
			a.IllnessSeverity = model.SeveritySevere
			a.AvailableExtraRooms = 1
		}, 7, 5, 1, 93.0, model.AlertBlock},
		{"everything", func(a *model.PatientAdmission) {
			a.IllnessSeverity = model.SeveritySevere
			a.AvailableExtraRooms = 0
			a.PatientVisitors = 4
			a.AdmissionDeposit = 8000
			a.BedGrade = 3.5
		}, 11, 7, 1, 97.0, model.AlertBlock},
		{"unknown severity passes through", func(a *model.PatientAdmission) {
			a.IllnessSeverity = "Extreme"
			a.Department = "unknown-dept"
		}, 0, 2, 0, 72.0, model.AlertNormalFlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseAdmission()
			tt.mutate(&in)

			assert.Equal(t, tt.score, Score(in))
			got := Rules(in)
			assert.Equal(t, tt.days, got.EstimatedDays)
			assert.Equal(t, tt.risk, got.RiskLevel)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, tt.alert, got.Alert)
			assert.Equal(t, model.ModeDemoRules, got.Mode)
			assert.Contains(t, got.ClinicalMessage, "score=")
		})
	}
}

func TestRulesConfidenceBounds(t *testing.T) {
	severities := []string{model.SeverityMinor, model.SeverityModerate, model.SeveritySevere, "Other"}
	for _, sev := range severities {
		for rooms := 0; rooms <= 3; rooms++ {
			for _, deposit := range []float64{0, 7999, 8000, 20000} {
				for _, grade := range []float64{1, 3.5, 4} {
					in := baseAdmission()
					in.IllnessSeverity = sev
					in.AvailableExtraRooms = rooms
					in.AdmissionDeposit = deposit
					in.BedGrade = grade
					in.PatientVisitors = rooms * 2

					got := Rules(in)
					assert.Equal(t, model.ModeDemoRules, got.Mode)
					assert.GreaterOrEqual(t, got.Confidence, 72.0)
					assert.LessOrEqual(t, got.Confidence, 97.0)
					assert.GreaterOrEqual(t, got.EstimatedDays, 0)
				}
			}
		}
	}
}

func TestRulesSeverityMonotonic(t *testing.T) {
	for rooms := 0; rooms <= 2; rooms++ {
		prev := model.HospitalPrediction{}
		for _, sev := range []string{model.SeverityMinor, model.SeverityModerate, model.SeveritySevere} {
			in := baseAdmission()
			in.AvailableExtraRooms = rooms
			in.IllnessSeverity = sev

			got := Rules(in)
			assert.GreaterOrEqual(t, got.EstimatedDays, prev.EstimatedDays)
			assert.GreaterOrEqual(t, got.RiskLevel, prev.RiskLevel)
			prev = got
		}
	}
}

type stubRegressor struct {
	value float64
	err   error
}

func (s stubRegressor) Predict(scoring.Features) (float64, error) { return s.value, s.err }

type stubClassifier struct {
	label int
	proba []float64
	err   error
}

func (s stubClassifier) Predict(scoring.Features) (int, error) { return s.label, s.err }

func (s stubClassifier) PredictProba(scoring.Features) ([]float64, error) { return s.proba, s.err }

func TestMLPredictor(t *testing.T) {
	p := NewMLPredictor(stubRegressor{value: 8.6}, stubClassifier{label: 1, proba: []float64{0.1234, 0.8766}})

	got, err := p.Predict(context.Background(), baseAdmission())
	require.NoError(t, err)
	assert.Equal(t, 9, got.EstimatedDays)
	assert.Equal(t, model.RiskBlock, got.RiskLevel)
	assert.Equal(t, model.AlertBlock, got.Alert)
	assert.Equal(t, 87.7, got.Confidence)
	assert.Equal(t, model.ModeML, got.Mode)

	p = NewMLPredictor(stubRegressor{value: 2.5}, stubClassifier{label: 0, proba: []float64{0.7, 0.3}})
	got, err = p.Predict(context.Background(), baseAdmission())
	require.NoError(t, err)
	assert.Equal(t, 2, got.EstimatedDays, "half rounds to even")
	assert.Equal(t, model.AlertNormalFlow, got.Alert)

	tests := []struct {
		raw  float64
		want int
	}{
		{3.5, 4},
		{0.5, 0},
		{-0.4, 0},
		{-0.5, 0},
		{4.49, 4},
	}
	for _, tt := range tests {
		p = NewMLPredictor(stubRegressor{value: tt.raw}, stubClassifier{label: 0, proba: []float64{0.7, 0.3}})
		got, err = p.Predict(context.Background(), baseAdmission())
		require.NoError(t, err, "raw %v", tt.raw)
		assert.Equal(t, tt.want, got.EstimatedDays, "raw %v", tt.raw)
	}
}

func TestMLPredictorRejectsBadOutput(t *testing.T) {
	tests := []struct {
		name  string
		days  stubRegressor
		block stubClassifier
	}{
		{"regressor error", stubRegressor{err: stderrors.New("boom")}, stubClassifier{proba: []float64{1, 0}}},
		{"negative days", stubRegressor{value: -3}, stubClassifier{proba: []float64{1, 0}}},
		{"rounds below zero", stubRegressor{value: -0.6}, stubClassifier{proba: []float64{1, 0}}},
		{"nan days", stubRegressor{value: math.NaN()}, stubClassifier{proba: []float64{1, 0}}},
		{"bad label", stubRegressor{value: 3}, stubClassifier{label: 2, proba: []float64{1, 0}}},
		{"bad proba", stubRegressor{value: 3}, stubClassifier{proba: []float64{-0.5, 1.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMLPredictor(tt.days, tt.block).Predict(context.Background(), baseAdmission())
			assert.Error(t, err)
		})
	}
}

func TestFallbackOnErrorAndPanic(t *testing.T) {
	m := metrics.NewNop()
	in := baseAdmission()

	failing := PredictorFunc(func(context.Context, model.PatientAdmission) (model.HospitalPrediction, error) {
		return model.HospitalPrediction{}, stderrors.New("model broke")
	})
	panicking := PredictorFunc(func(context.Context, model.PatientAdmission) (model.HospitalPrediction, error) {
		panic("index out of range")
	})

	for name, primary := range map[string]Predictor{"error": failing, "panic": panicking} {
		t.Run(name, func(t *testing.T) {
			got, err := NewFallbackPredictor(primary, NewRulePredictor(), m).Predict(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, Rules(in), got)
		})
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HospitalFallbacks))
}

func TestFallbackIsPerCall(t *testing.T) {
	calls := 0
	flaky := PredictorFunc(func(context.Context, model.PatientAdmission) (model.HospitalPrediction, error) {
		calls++
		if calls == 1 {
			return model.HospitalPrediction{}, stderrors.New("transient")
		}
		return model.HospitalPrediction{Mode: model.ModeML}, nil
	})
	p := NewFallbackPredictor(flaky, NewRulePredictor(), nil)

	first, err := p.Predict(context.Background(), baseAdmission())
	require.NoError(t, err)
	assert.Equal(t, model.ModeDemoRules, first.Mode)

	second, err := p.Predict(context.Background(), baseAdmission())
	require.NoError(t, err)
	assert.Equal(t, model.ModeML, second.Mode)
}

func TestNewEngineSelection(t *testing.T) {
	in := baseAdmission()
	loaded := scoring.Set{
		StayDays:  stubRegressor{value: 4},
		StayBlock: stubClassifier{proba: []float64{0.6, 0.4}},
	}

	t.Run("models loaded", func(t *testing.T) {
		m := metrics.NewNop()
		got, err := NewEngine(loaded, Config{}, m).Predict(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, model.ModeML, got.Mode)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HospitalPredictions.WithLabelValues("ML")))
	})

	t.Run("models missing", func(t *testing.T) {
		got, err := NewEngine(scoring.Set{}, Config{}, metrics.NewNop()).Predict(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, model.ModeDemoRules, got.Mode)
	})

	t.Run("half loaded uses rules", func(t *testing.T) {
		half := scoring.Set{StayDays: stubRegressor{value: 4}}
		got, err := NewEngine(half, Config{}, metrics.NewNop()).Predict(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, model.ModeDemoRules, got.Mode)
	})
}

func TestDemoBypassToggle(t *testing.T) {
	in := baseAdmission()
	in.AdmissionDeposit = 1.0

	got, err := NewEngine(scoring.Set{}, Config{}, metrics.NewNop()).Predict(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.AlertNormalFlow, got.Alert, "bypass is off by default")

	got, err = NewEngine(scoring.Set{}, Config{DemoBypass: true}, metrics.NewNop()).Predict(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, got.EstimatedDays)
	assert.Equal(t, 94.5, got.Confidence)
	assert.Equal(t, model.AlertEfficientFlow, got.Alert)

	in.AdmissionDeposit = 1.5
	got, err = NewEngine(scoring.Set{}, Config{DemoBypass: true}, metrics.NewNop()).Predict(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, model.AlertEfficientFlow, got.Alert)
}
