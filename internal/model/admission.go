package model

import "github.com/jwalitptl/riskcast-api/pkg/scoring"

// Illness severities recognised by the rule path. Other values pass through.
const (
	SeverityMinor    = "Minor"
	SeverityModerate = "Moderate"
	SeveritySevere   = "Severe"
)

// AdmissionRequest is the wire form of a patient admission. Numeric fields are
// pointers so that a missing field fails binding while an explicit 0 passes.
type AdmissionRequest struct {
	HospitalType        *int     `json:"Hospital_type" binding:"required"`
	HospitalCity        *int     `json:"Hospital_city" binding:"required"`
	HospitalRegion      *int     `json:"Hospital_region" binding:"required"`
	AvailableExtraRooms *int     `json:"Available_Extra_Rooms_in_Hospital" binding:"required"`
	BedGrade            *float64 `json:"Bed_Grade" binding:"required"`
	PatientVisitors     *int     `json:"Patient_Visitors" binding:"required"`
	CityCodePatient     *float64 `json:"City_Code_Patient" binding:"required"`
	AdmissionDeposit    *float64 `json:"Admission_Deposit" binding:"required"`
	Department          string   `json:"Department" binding:"required"`
	WardType            string   `json:"Ward_Type" binding:"required"`
	WardFacility        string   `json:"Ward_Facility" binding:"required"`
	TypeOfAdmission     string   `json:"Type_of_Admission" binding:"required"`
	IllnessSeverity     string   `json:"Illness_Severity" binding:"required"`
	Age                 string   `json:"Age" binding:"required"`
}

// ToAdmission converts a bound request. Call only after binding succeeded.
func (r AdmissionRequest) ToAdmission() PatientAdmission {
	return PatientAdmission{
		HospitalType:        *r.HospitalType,
		HospitalCity:        *r.HospitalCity,
		HospitalRegion:      *r.HospitalRegion,
		AvailableExtraRooms: *r.AvailableExtraRooms,
		BedGrade:            *r.BedGrade,
		PatientVisitors:     *r.PatientVisitors,
		CityCodePatient:     *r.CityCodePatient,
		AdmissionDeposit:    *r.AdmissionDeposit,
		Department:          r.Department,
		WardType:            r.WardType,
		WardFacility:        r.WardFacility,
		TypeOfAdmission:     r.TypeOfAdmission,
		IllnessSeverity:     r.IllnessSeverity,
		Age:                 r.Age,
	}
}

// PatientAdmission is a validated admission.
type PatientAdmission struct {
	HospitalType        int     `json:"Hospital_type"`
	HospitalCity        int     `json:"Hospital_city"`
	HospitalRegion      int     `json:"Hospital_region"`
	AvailableExtraRooms int     `json:"Available_Extra_Rooms_in_Hospital"`
	BedGrade            float64 `json:"Bed_Grade"`
	PatientVisitors     int     `json:"Patient_Visitors"`
	CityCodePatient     float64 `json:"City_Code_Patient"`
	AdmissionDeposit    float64 `json:"Admission_Deposit"`
	Department          string  `json:"Department"`
	WardType            string  `json:"Ward_Type"`
	WardFacility        string  `json:"Ward_Facility"`
	TypeOfAdmission     string  `json:"Type_of_Admission"`
	IllnessSeverity     string  `json:"Illness_Severity"`
	Age                 string  `json:"Age"`
}

// Features renders the admission with the column names the trained hospital
// artifacts were fitted on. Note "Type of Admission" is spaced there.
func (a PatientAdmission) Features() scoring.Features {
	return scoring.Features{
		Numeric: map[string]float64{
			"Hospital_type":                     float64(a.HospitalType),
			"Hospital_city":                     float64(a.HospitalCity),
			"Hospital_region":                   float64(a.HospitalRegion),
			"Available_Extra_Rooms_in_Hospital": float64(a.AvailableExtraRooms),
			"Bed_Grade":                         a.BedGrade,
			"Patient_Visitors":                  float64(a.PatientVisitors),
			"City_Code_Patient":                 a.CityCodePatient,
			"Admission_Deposit":                 a.AdmissionDeposit,
		},
		Categorical: map[string]string{
			"Department":        a.Department,
			"Ward_Type":         a.WardType,
			"Ward_Facility":     a.WardFacility,
			"Type of Admission": a.TypeOfAdmission,
			"Illness_Severity":  a.IllnessSeverity,
			"Age":               a.Age,
		},
	}
}
