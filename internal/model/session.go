package model

import "time"

// LastPredictionRecord is the single most recent ingest. All fields are nil
// until the first ingest.
type LastPredictionRecord struct {
	LastInput  *PatientAdmission   `json:"last_input"`
	LastOutput *HospitalPrediction `json:"last_output"`
	UpdatedAt  *time.Time          `json:"updated_at"`
}

// ModelAvailability is fixed at startup.
type ModelAvailability struct {
	HospitalLoaded bool `json:"hospital_loaded"`
	AccidentLoaded bool `json:"accident_loaded"`
}
