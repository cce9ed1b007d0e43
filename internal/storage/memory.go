package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/models"
	"github.com/humpydonkey/patient-appointment-management/internal/utils"
)

// MemoryStore holds all data in memory for local development and tests
type MemoryStore struct {
	patients     map[string]*models.Patient
	appointments map[string]*models.Appointment
	otps         map[string]*models.OTPChallenge
	sessions     map[string]*models.SessionState

	patientMu     sync.RWMutex
	appointmentMu sync.RWMutex
	otpMu         sync.RWMutex
	sessionMu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients:     make(map[string]*models.Patient),
		appointments: make(map[string]*models.Appointment),
		otps:         make(map[string]*models.OTPChallenge),
		sessions:     make(map[string]*models.SessionState),
	}
}

// Patient operations

func (m *MemoryStore) AddPatient(p *models.Patient) {
	m.patientMu.Lock()
	defer m.patientMu.Unlock()
	m.patients[p.PatientID] = p
}

func (m *MemoryStore) FindPatientsByPhoneAndDOB(phoneE164 string, dob time.Time) ([]*models.Patient, error) {
	m.patientMu.RLock()
	defer m.patientMu.RUnlock()

	var matches []*models.Patient
	for _, p := range m.patients {
		if p.PhoneE164 == phoneE164 && sameDate(p.DOB, dob) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (m *MemoryStore) FindPatientsByPhone(phoneE164 string) ([]*models.Patient, error) {
	m.patientMu.RLock()
	defer m.patientMu.RUnlock()

	var matches []*models.Patient
	for _, p := range m.patients {
		if p.PhoneE164 == phoneE164 {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (m *MemoryStore) GetPatientByID(patientID string) (*models.Patient, error) {
	m.patientMu.RLock()
	defer m.patientMu.RUnlock()

	p, exists := m.patients[patientID]
	if !exists {
		return nil, ErrNotFound
	}
	return p, nil
}

// Appointment operations

func (m *MemoryStore) AddAppointment(a *models.Appointment) {
	m.appointmentMu.Lock()
	defer m.appointmentMu.Unlock()
	m.appointments[a.AppointmentID] = a
}

func (m *MemoryStore) ListUpcomingAppointments(patientID string, now time.Time) ([]*models.Appointment, error) {
	m.appointmentMu.RLock()
	defer m.appointmentMu.RUnlock()

	var upcoming []*models.Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID && a.StartTime.After(now) && a.Status != models.StatusCanceled {
			upcoming = append(upcoming, a)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartTime.Before(upcoming[j].StartTime)
	})
	return upcoming, nil
}

func (m *MemoryStore) GetAppointment(appointmentID string) (*models.Appointment, error) {
	m.appointmentMu.RLock()
	defer m.appointmentMu.RUnlock()

	a, exists := m.appointments[appointmentID]
	if !exists {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) UpdateAppointmentStatus(appointmentID string, status models.AppointmentStatus) (*models.Appointment, error) {
	m.appointmentMu.Lock()
	defer m.appointmentMu.Unlock()

	a, exists := m.appointments[appointmentID]
	if !exists {
		return nil, ErrNotFound
	}
	a.Status = status
	return a, nil
}

// OTP operations

func (m *MemoryStore) SetOTP(sessionID, codeHash string, expiresAt time.Time) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	m.otps[sessionID] = &models.OTPChallenge{
		SessionID: sessionID,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (m *MemoryStore) GetOTP(sessionID string) (*models.OTPChallenge, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	otp, exists := m.otps[sessionID]
	if !exists {
		return nil, ErrNotFound
	}
	return otp, nil
}

func (m *MemoryStore) ClearOTP(sessionID string) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	delete(m.otps, sessionID)
	return nil
}

func (m *MemoryStore) DeleteExpiredOTPs(now time.Time) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	for id, otp := range m.otps {
		if now.After(otp.ExpiresAt) {
			delete(m.otps, id)
		}
	}
	return nil
}

// Session operations

func (m *MemoryStore) GetSession(sessionID string) (*models.SessionState, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	s, exists := m.sessions[sessionID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *MemoryStore) SetSession(state *models.SessionState) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	copied := *state
	m.sessions[state.SessionID] = &copied
	return nil
}

func (m *MemoryStore) DeleteSession(sessionID string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) DeleteExpiredSessions(now time.Time) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
	return nil
}

// SeedDemoData loads the demo patients and appointments used for local
// development. Appointment a_004 starts about three hours out so the
// within-24-hour cancellation warning can be exercised.
func (m *MemoryStore) SeedDemoData(now time.Time) {
	m.AddPatient(&models.Patient{
		PatientID: "p_001",
		FullName:  "John Adam Doe",
		PhoneE164: "+14155550123",
		DOB:       time.Date(1985, 7, 14, 0, 0, 0, 0, utils.ClinicTZ),
	})
	m.AddPatient(&models.Patient{
		PatientID: "p_002",
		FullName:  "Maria G. Santos",
		PhoneE164: "+14155550999",
		DOB:       time.Date(1990, 2, 1, 0, 0, 0, 0, utils.ClinicTZ),
	})

	m.AddAppointment(&models.Appointment{
		AppointmentID: "a_001",
		PatientID:     "p_001",
		ProviderName:  "Dr. Lee",
		StartTime:     now.Add(14*24*time.Hour + 10*time.Hour),
		Location:      "Main Clinic",
		Status:        models.StatusScheduled,
	})
	m.AddAppointment(&models.Appointment{
		AppointmentID: "a_002",
		PatientID:     "p_001",
		ProviderName:  "Dr. Kim",
		StartTime:     now.Add(21*24*time.Hour + 14*time.Hour),
		Location:      "Main Clinic",
		Status:        models.StatusScheduled,
	})
	m.AddAppointment(&models.Appointment{
		AppointmentID: "a_003",
		PatientID:     "p_001",
		ProviderName:  "Dr. Lee",
		StartTime:     now.Add(-45 * time.Hour),
		Location:      "Main Clinic",
		Status:        models.StatusPast,
	})
	m.AddAppointment(&models.Appointment{
		AppointmentID: "a_004",
		PatientID:     "p_002",
		ProviderName:  "Dr. Patel",
		StartTime:     now.Add(3 * time.Hour),
		Location:      "Main Clinic",
		Status:        models.StatusScheduled,
	})
	m.AddAppointment(&models.Appointment{
		AppointmentID: "a_005",
		PatientID:     "p_002",
		ProviderName:  "Dr. Kim",
		StartTime:     now.Add(6*24*time.Hour + 9*time.Hour + 30*time.Minute),
		Location:      "Main Clinic",
		Status:        models.StatusConfirmed,
	})
}

func sameDate(a, b time.Time) bool {
	a, b = a.In(utils.ClinicTZ), b.In(utils.ClinicTZ)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
