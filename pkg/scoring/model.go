// Package scoring loads pre-built scoring artifacts and evaluates them.
//
// Artifacts are opaque to the rest of the service: callers only see the
// Regressor and Classifier interfaces, which mirror predict / predict_proba.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	KindLinear   = "linear"
	KindLogistic = "logistic"
)

// Features is one input row. Numeric and categorical columns are kept apart
// so categorical values never need to be encoded by the caller.
type Features struct {
	Numeric     map[string]float64
	Categorical map[string]string
}

// Regressor returns a continuous estimate for a feature row.
type Regressor interface {
	Predict(f Features) (float64, error)
}

// Classifier returns a binary label and the class probabilities [p0, p1].
type Classifier interface {
	Predict(f Features) (int, error)
	PredictProba(f Features) ([]float64, error)
}

// Artifact is the on-disk description of a trained model.
type Artifact struct {
	Name        string                        `json:"name"`
	Kind        string                        `json:"kind"`
	Intercept   float64                       `json:"intercept"`
	Numeric     map[string]float64            `json:"numeric"`
	Categorical map[string]map[string]float64 `json:"categorical"`
	Threshold   float64                       `json:"threshold"`
	Clip        []float64                     `json:"clip"`
}

// Validate checks the artifact is internally consistent.
func (a *Artifact) Validate() error {
	if a.Kind != KindLinear && a.Kind != KindLogistic {
		return fmt.Errorf("unsupported model kind %q", a.Kind)
	}
	if math.IsNaN(a.Intercept) || math.IsInf(a.Intercept, 0) {
		return fmt.Errorf("intercept is not finite")
	}
	for name, w := range a.Numeric {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("weight for %q is not finite", name)
		}
	}
	if len(a.Clip) != 0 && (len(a.Clip) != 2 || a.Clip[0] > a.Clip[1]) {
		return fmt.Errorf("clip must be [min, max]")
	}
	if a.Threshold < 0 || a.Threshold > 1 {
		return fmt.Errorf("threshold %v outside [0, 1]", a.Threshold)
	}
	return nil
}

// linearTerm evaluates intercept + w·x over the artifact's columns.
type linearTerm struct {
	intercept   float64
	columns     []string
	weights     []float64
	categorical map[string]map[string]float64
}

func newLinearTerm(a *Artifact) linearTerm {
	columns := make([]string, 0, len(a.Numeric))
	for name := range a.Numeric {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	weights := make([]float64, len(columns))
	for i, name := range columns {
		weights[i] = a.Numeric[name]
	}

	return linearTerm{
		intercept:   a.Intercept,
		columns:     columns,
		weights:     weights,
		categorical: a.Categorical,
	}
}

func (t linearTerm) eval(f Features) (float64, error) {
	x := make([]float64, len(t.columns))
	for i, name := range t.columns {
		v, ok := f.Numeric[name]
		if !ok {
			return 0, fmt.Errorf("missing numeric feature %q", name)
		}
		x[i] = v
	}

	z := t.intercept
	if len(x) > 0 {
		z += floats.Dot(t.weights, x)
	}

	// Unseen categorical values contribute nothing, like an all-zero one-hot row.
	for column, levels := range t.categorical {
		value, ok := f.Categorical[column]
		if !ok {
			return 0, fmt.Errorf("missing categorical feature %q", column)
		}
		z += levels[value]
	}

	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, fmt.Errorf("score is not finite")
	}
	return z, nil
}

// LinearModel is a Regressor.
type LinearModel struct {
	name string
	term linearTerm
	clip []float64
}

func NewLinearModel(a *Artifact) (*LinearModel, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if a.Kind != KindLinear {
		return nil, fmt.Errorf("model %q is %s, want %s", a.Name, a.Kind, KindLinear)
	}
	return &LinearModel{name: a.Name, term: newLinearTerm(a), clip: a.Clip}, nil
}

func (m *LinearModel) Predict(f Features) (float64, error) {
	z, err := m.term.eval(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", m.name, err)
	}
	if len(m.clip) == 2 {
		z = math.Max(m.clip[0], math.Min(m.clip[1], z))
	}
	return z, nil
}

// LogisticModel is a Classifier.
type LogisticModel struct {
	name      string
	term      linearTerm
	threshold float64
}

func NewLogisticModel(a *Artifact) (*LogisticModel, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if a.Kind != KindLogistic {
		return nil, fmt.Errorf("model %q is %s, want %s", a.Name, a.Kind, KindLogistic)
	}
	threshold := a.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	return &LogisticModel{name: a.Name, term: newLinearTerm(a), threshold: threshold}, nil
}

func (m *LogisticModel) PredictProba(f Features) ([]float64, error) {
	z, err := m.term.eval(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}

func (m *LogisticModel) Predict(f Features) (int, error) {
	proba, err := m.PredictProba(f)
	if err != nil {
		return 0, err
	}
	if proba[1] >= m.threshold {
		return 1, nil
	}
	return 0, nil
}
