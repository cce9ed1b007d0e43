package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/humpydonkey/patient-appointment-management/internal/models"
)

// DatabaseStore implements Store backed by PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Patient operations

func (d *DatabaseStore) FindPatientsByPhoneAndDOB(phoneE164 string, dob time.Time) ([]*models.Patient, error) {
	var candidates []*models.Patient
	if err := d.db.Where("phone_e164 = ?", phoneE164).Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}

	// DOB is compared as a calendar date, not an instant
	var matches []*models.Patient
	for _, p := range candidates {
		if sameDate(p.DOB, dob) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (d *DatabaseStore) FindPatientsByPhone(phoneE164 string) ([]*models.Patient, error) {
	var patients []*models.Patient
	if err := d.db.Where("phone_e164 = ?", phoneE164).Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	return patients, nil
}

func (d *DatabaseStore) GetPatientByID(patientID string) (*models.Patient, error) {
	var patient models.Patient
	err := d.db.Where("patient_id = ?", patientID).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patient: %w", err)
	}
	return &patient, nil
}

// Appointment operations

func (d *DatabaseStore) ListUpcomingAppointments(patientID string, now time.Time) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := d.db.
		Where("patient_id = ? AND start_time > ? AND status <> ?", patientID, now, models.StatusCanceled).
		Order("start_time asc").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	return appointments, nil
}

func (d *DatabaseStore) GetAppointment(appointmentID string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := d.db.Where("appointment_id = ?", appointmentID).First(&appointment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query appointment: %w", err)
	}
	return &appointment, nil
}

func (d *DatabaseStore) UpdateAppointmentStatus(appointmentID string, status models.AppointmentStatus) (*models.Appointment, error) {
	appointment, err := d.GetAppointment(appointmentID)
	if err != nil {
		return nil, err
	}
	appointment.Status = status
	if err := d.db.Save(appointment).Error; err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return appointment, nil
}

// OTP operations

func (d *DatabaseStore) SetOTP(sessionID, codeHash string, expiresAt time.Time) error {
	// Single-writer per session: a new challenge supersedes the old one
	if err := d.db.Where("session_id = ?", sessionID).Delete(&models.OTPChallenge{}).Error; err != nil {
		return fmt.Errorf("failed to clear previous OTP: %w", err)
	}
	challenge := models.OTPChallenge{
		SessionID: sessionID,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
	}
	if err := d.db.Create(&challenge).Error; err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	return nil
}

func (d *DatabaseStore) GetOTP(sessionID string) (*models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	err := d.db.Where("session_id = ?", sessionID).First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query OTP: %w", err)
	}
	return &challenge, nil
}

func (d *DatabaseStore) ClearOTP(sessionID string) error {
	if err := d.db.Where("session_id = ?", sessionID).Delete(&models.OTPChallenge{}).Error; err != nil {
		return fmt.Errorf("failed to clear OTP: %w", err)
	}
	return nil
}

func (d *DatabaseStore) DeleteExpiredOTPs(now time.Time) error {
	if err := d.db.Where("expires_at < ?", now).Delete(&models.OTPChallenge{}).Error; err != nil {
		return fmt.Errorf("failed to delete expired OTPs: %w", err)
	}
	return nil
}

// Session operations

func (d *DatabaseStore) GetSession(sessionID string) (*models.SessionState, error) {
	var row models.ChatSession
	err := d.db.Where("session_id = ?", sessionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	var state models.SessionState
	if err := json.Unmarshal([]byte(row.State), &state); err != nil {
		return nil, fmt.Errorf("corrupt session state for %s: %w", sessionID, err)
	}
	return &state, nil
}

func (d *DatabaseStore) SetSession(state *models.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize session state: %w", err)
	}

	var row models.ChatSession
	err = d.db.Where("session_id = ?", state.SessionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.ChatSession{SessionID: state.SessionID}
	} else if err != nil {
		return fmt.Errorf("failed to query session: %w", err)
	}

	row.State = string(payload)
	row.ExpiresAt = state.ExpiresAt
	if err := d.db.Save(&row).Error; err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (d *DatabaseStore) DeleteSession(sessionID string) error {
	if err := d.db.Where("session_id = ?", sessionID).Delete(&models.ChatSession{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (d *DatabaseStore) DeleteExpiredSessions(now time.Time) error {
	if err := d.db.Where("expires_at < ?", now).Delete(&models.ChatSession{}).Error; err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
