package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/models"
	"github.com/humpydonkey/patient-appointment-management/internal/storage"
	"github.com/humpydonkey/patient-appointment-management/internal/utils"
)

// ErrInvalidStatus is returned when a requested status transition is not
// allowed from the appointment's current status.
var ErrInvalidStatus = errors.New("invalid status transition")

// AppointmentService enforces the appointment status transition contract on
// top of the store.
type AppointmentService struct {
	store storage.Store
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(store storage.Store) *AppointmentService {
	return &AppointmentService{store: store}
}

// ListUpcoming returns the patient's future, non-canceled appointments in
// chronological order.
func (a *AppointmentService) ListUpcoming(patientID string, now time.Time) ([]*models.Appointment, error) {
	appointments, err := a.store.ListUpcomingAppointments(patientID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Confirm transitions a scheduled appointment to confirmed. Confirming an
// already-confirmed appointment returns it unchanged; any other status is
// rejected.
func (a *AppointmentService) Confirm(appointmentID string) (*models.Appointment, error) {
	appointment, err := a.store.GetAppointment(appointmentID)
	if err != nil {
		return nil, err
	}

	if appointment.Status == models.StatusConfirmed {
		return appointment, nil
	}
	if appointment.Status != models.StatusScheduled {
		return nil, fmt.Errorf("%w: cannot confirm appointment with status %s", ErrInvalidStatus, appointment.Status)
	}

	return a.store.UpdateAppointmentStatus(appointmentID, models.StatusConfirmed)
}

// Cancel cancels an appointment from any non-canceled status and reports
// whether its start time is within 24 hours of now so the caller can warn
// the user. The cancellation proceeds regardless of the warning.
func (a *AppointmentService) Cancel(appointmentID string, now time.Time) (*models.Appointment, bool, error) {
	appointment, err := a.store.GetAppointment(appointmentID)
	if err != nil {
		return nil, false, err
	}

	if appointment.Status == models.StatusCanceled {
		return nil, false, fmt.Errorf("%w: appointment is already canceled", ErrInvalidStatus)
	}

	within24h := utils.IsWithin24Hours(appointment.StartTime, now)

	updated, err := a.store.UpdateAppointmentStatus(appointmentID, models.StatusCanceled)
	if err != nil {
		return nil, false, err
	}
	return updated, within24h, nil
}
