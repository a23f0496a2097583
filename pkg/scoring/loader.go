package scoring

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Paths locates the three artifacts the service can use.
type Paths struct {
	StayDays  string
	StayBlock string
	Accident  string
}

// Set holds the loaded models. A nil field means the artifact is unavailable.
// A Set is built once at startup and never mutated afterwards.
type Set struct {
	StayDays  Regressor
	StayBlock Classifier
	Accident  Regressor
}

// HospitalLoaded reports whether both hospital artifacts are usable.
func (s Set) HospitalLoaded() bool {
	return s.StayDays != nil && s.StayBlock != nil
}

// AccidentLoaded reports whether the accident artifact is usable.
func (s Set) AccidentLoaded() bool {
	return s.Accident != nil
}

// ReadArtifact decodes and validates an artifact file.
func ReadArtifact(path string) (*Artifact, error) {
	if path == "" {
		return nil, fmt.Errorf("no artifact path configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if a.Name == "" {
		a.Name = path
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact %s: %w", path, err)
	}
	return &a, nil
}

func LoadRegressor(path string) (Regressor, error) {
	a, err := ReadArtifact(path)
	if err != nil {
		return nil, err
	}
	m, err := NewLinearModel(a)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func LoadClassifier(path string) (Classifier, error) {
	a, err := ReadArtifact(path)
	if err != nil {
		return nil, err
	}
	m, err := NewLogisticModel(a)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads every artifact independently. A failure is logged and leaves the
// corresponding handle nil; it never aborts startup. The hospital pair is
// all-or-nothing.
func Load(paths Paths) Set {
	var set Set

	days, daysErr := LoadRegressor(paths.StayDays)
	block, blockErr := LoadClassifier(paths.StayBlock)
	switch {
	case daysErr != nil:
		log.Warn().Err(daysErr).Str("path", paths.StayDays).Msg("hospital duration model unavailable, rule fallback active")
	case blockErr != nil:
		log.Warn().Err(blockErr).Str("path", paths.StayBlock).Msg("hospital block-risk model unavailable, rule fallback active")
	default:
		set.StayDays = days
		set.StayBlock = block
		log.Info().Msg("hospital models loaded")
	}

	accident, err := LoadRegressor(paths.Accident)
	if err != nil {
		log.Warn().Err(err).Str("path", paths.Accident).Msg("accident model unavailable")
	} else {
		set.Accident = accident
		log.Info().Msg("accident model loaded")
	}

	return set
}
