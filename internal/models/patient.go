package models

import (
	"time"

	"gorm.io/gorm"
)

// Patient represents a patient record in the clinic directory
type Patient struct {
	gorm.Model

	PatientID string    `json:"patient_id" gorm:"uniqueIndex"`
	FullName  string    `json:"full_name"`
	PhoneE164 string    `json:"phone_e164" gorm:"index"` // +1XXXXXXXXXX
	DOB       time.Time `json:"dob"`                     // date of birth, midnight clinic time
}

// PatientPublic is the masked, safe-to-send projection of a patient record.
// It never carries raw phone, DOB, or full name and is only produced by the
// masking functions.
type PatientPublic struct {
	PatientID   string `json:"patient_id,omitempty"`
	NameMasked  string `json:"name_masked,omitempty"`
	PhoneMasked string `json:"phone_masked,omitempty"`
	DOBMasked   string `json:"dob_masked,omitempty"`
}
