package storage

import (
	"errors"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/models"
)

// ErrNotFound is returned when a looked-up record does not exist
var ErrNotFound = errors.New("not found")

// Store defines the interface for storage operations
type Store interface {
	// Patient directory
	FindPatientsByPhoneAndDOB(phoneE164 string, dob time.Time) ([]*models.Patient, error)
	FindPatientsByPhone(phoneE164 string) ([]*models.Patient, error)
	GetPatientByID(patientID string) (*models.Patient, error)

	// Appointment operations
	ListUpcomingAppointments(patientID string, now time.Time) ([]*models.Appointment, error)
	GetAppointment(appointmentID string) (*models.Appointment, error)
	UpdateAppointmentStatus(appointmentID string, status models.AppointmentStatus) (*models.Appointment, error)

	// OTP operations; each SetOTP supersedes any previous challenge for the session
	SetOTP(sessionID, codeHash string, expiresAt time.Time) error
	GetOTP(sessionID string) (*models.OTPChallenge, error)
	ClearOTP(sessionID string) error
	DeleteExpiredOTPs(now time.Time) error

	// Session operations
	GetSession(sessionID string) (*models.SessionState, error)
	SetSession(state *models.SessionState) error
	DeleteSession(sessionID string) error
	DeleteExpiredSessions(now time.Time) error
}
