package services

import (
	"errors"
	"testing"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/models"
	"github.com/humpydonkey/patient-appointment-management/internal/storage"
)

func seededAppointments(t *testing.T) (*storage.MemoryStore, *AppointmentService, time.Time) {
	t.Helper()
	now := testTime()
	store := storage.NewMemoryStore()
	store.SeedDemoData(now)
	return store, NewAppointmentService(store), now
}

func TestConfirmTransitions(t *testing.T) {
	_, svc, _ := seededAppointments(t)

	// scheduled -> confirmed
	appt, err := svc.Confirm("a_001")
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if appt.Status != models.StatusConfirmed {
		t.Errorf("status = %s, want %s", appt.Status, models.StatusConfirmed)
	}

	// confirming twice is idempotent
	again, err := svc.Confirm("a_001")
	if err != nil {
		t.Fatalf("second Confirm error: %v", err)
	}
	if again.Status != models.StatusConfirmed {
		t.Errorf("status after repeat = %s, want %s", again.Status, models.StatusConfirmed)
	}

	// canceled appointments cannot be confirmed
	if _, _, err := svc.Cancel("a_002", testTime()); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if _, err := svc.Confirm("a_002"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Confirm on canceled = %v, want ErrInvalidStatus", err)
	}

	if _, err := svc.Confirm("a_404"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Confirm on missing = %v, want ErrNotFound", err)
	}
}

func TestCancelTransitions(t *testing.T) {
	_, svc, now := seededAppointments(t)

	// a_001 is more than 24 hours out
	appt, within24h, err := svc.Cancel("a_001", now)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if appt.Status != models.StatusCanceled {
		t.Errorf("status = %s, want %s", appt.Status, models.StatusCanceled)
	}
	if within24h {
		t.Error("within24h = true for an appointment days away")
	}

	// repeat cancel is rejected
	if _, _, err := svc.Cancel("a_001", now); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("repeat Cancel = %v, want ErrInvalidStatus", err)
	}

	// a_004 starts three hours from now, cancellation still proceeds but
	// is flagged for the late-notice warning
	appt, within24h, err = svc.Cancel("a_004", now)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if appt.Status != models.StatusCanceled {
		t.Errorf("status = %s, want %s", appt.Status, models.StatusCanceled)
	}
	if !within24h {
		t.Error("within24h = false for an appointment three hours away")
	}
}

func TestCancelConfirmedAppointment(t *testing.T) {
	_, svc, now := seededAppointments(t)

	// a_005 is seeded confirmed; canceling a confirmed appointment is allowed
	appt, _, err := svc.Cancel("a_005", now)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if appt.Status != models.StatusCanceled {
		t.Errorf("status = %s, want %s", appt.Status, models.StatusCanceled)
	}
}

func TestListUpcomingExcludesCanceled(t *testing.T) {
	_, svc, now := seededAppointments(t)

	if _, _, err := svc.Cancel("a_001", now); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	appts, err := svc.ListUpcoming("p_001", now)
	if err != nil {
		t.Fatalf("ListUpcoming error: %v", err)
	}
	for _, a := range appts {
		if a.AppointmentID == "a_001" {
			t.Error("canceled appointment still listed")
		}
	}
}
