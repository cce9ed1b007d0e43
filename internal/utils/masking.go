package utils

import (
	"strings"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/models"
)

// MaskPhone keeps only the last 4 digits of a phone number
func MaskPhone(phoneE164 string) string {
	if len(phoneE164) >= 4 {
		return "***-***-" + phoneE164[len(phoneE164)-4:]
	}
	return "***-***-****"
}

// MaskDOB keeps only the year and month of a date of birth
func MaskDOB(dob time.Time) string {
	return dob.Format("2006-01")
}

// MaskName reduces a full name to first initial plus last token, e.g.
// "John Adam Doe" -> "J. Doe". Single-token names reduce to the initial.
func MaskName(fullName string) string {
	parts := strings.Fields(fullName)
	switch {
	case len(parts) >= 2:
		return parts[0][:1] + ". " + parts[len(parts)-1]
	case len(parts) == 1:
		return parts[0][:1] + "."
	default:
		return "***"
	}
}

// NewPatientPublic builds the masked projection of a patient record. The
// result replaces any previous projection wholesale; callers never patch
// individual fields.
func NewPatientPublic(p *models.Patient) models.PatientPublic {
	return models.PatientPublic{
		PatientID:   p.PatientID,
		NameMasked:  MaskName(p.FullName),
		PhoneMasked: MaskPhone(p.PhoneE164),
		DOBMasked:   MaskDOB(p.DOB),
	}
}
