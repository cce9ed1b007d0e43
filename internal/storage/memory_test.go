package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/models"
	"github.com/humpydonkey/patient-appointment-management/internal/utils"
)

func TestMemoryStorePatientLookup(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, utils.ClinicTZ)
	store.SeedDemoData(now)

	dob := time.Date(1985, 7, 14, 0, 0, 0, 0, utils.ClinicTZ)
	matches, err := store.FindPatientsByPhoneAndDOB("+14155550123", dob)
	if err != nil {
		t.Fatalf("FindPatientsByPhoneAndDOB error: %v", err)
	}
	if len(matches) != 1 || matches[0].PatientID != "p_001" {
		t.Fatalf("unexpected matches: %+v", matches)
	}

	wrongDOB := time.Date(1985, 7, 15, 0, 0, 0, 0, utils.ClinicTZ)
	matches, err = store.FindPatientsByPhoneAndDOB("+14155550123", wrongDOB)
	if err != nil {
		t.Fatalf("FindPatientsByPhoneAndDOB error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches for wrong DOB, got %+v", matches)
	}

	if _, err := store.GetPatientByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPatientByID on missing id = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreUpcomingAppointments(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, utils.ClinicTZ)
	store.SeedDemoData(now)

	upcoming, err := store.ListUpcomingAppointments("p_001", now)
	if err != nil {
		t.Fatalf("ListUpcomingAppointments error: %v", err)
	}

	// a_003 is in the past and must be excluded
	if len(upcoming) != 2 {
		t.Fatalf("upcoming count = %d, want 2", len(upcoming))
	}
	if upcoming[0].AppointmentID != "a_001" || upcoming[1].AppointmentID != "a_002" {
		t.Errorf("appointments not in chronological order: %s, %s",
			upcoming[0].AppointmentID, upcoming[1].AppointmentID)
	}

	// Canceled appointments disappear from listings
	if _, err := store.UpdateAppointmentStatus("a_001", models.StatusCanceled); err != nil {
		t.Fatalf("UpdateAppointmentStatus error: %v", err)
	}
	upcoming, err = store.ListUpcomingAppointments("p_001", now)
	if err != nil {
		t.Fatalf("ListUpcomingAppointments error: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].AppointmentID != "a_002" {
		t.Errorf("expected only a_002 after cancellation, got %+v", upcoming)
	}
}

func TestMemoryStoreOTPLifecycle(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, utils.ClinicTZ)

	if _, err := store.GetOTP("s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetOTP before set = %v, want ErrNotFound", err)
	}

	if err := store.SetOTP("s1", "hash-1", now.Add(5*time.Minute)); err != nil {
		t.Fatalf("SetOTP error: %v", err)
	}
	otp, err := store.GetOTP("s1")
	if err != nil {
		t.Fatalf("GetOTP error: %v", err)
	}
	if otp.CodeHash != "hash-1" {
		t.Errorf("CodeHash = %q, want hash-1", otp.CodeHash)
	}

	// A new challenge supersedes the previous one
	if err := store.SetOTP("s1", "hash-2", now.Add(5*time.Minute)); err != nil {
		t.Fatalf("SetOTP error: %v", err)
	}
	otp, _ = store.GetOTP("s1")
	if otp.CodeHash != "hash-2" {
		t.Errorf("CodeHash after supersede = %q, want hash-2", otp.CodeHash)
	}

	if err := store.ClearOTP("s1"); err != nil {
		t.Fatalf("ClearOTP error: %v", err)
	}
	if _, err := store.GetOTP("s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetOTP after clear = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpiredCleanup(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, utils.ClinicTZ)

	store.SetOTP("expired", "h", now.Add(-time.Minute))
	store.SetOTP("live", "h", now.Add(time.Minute))
	if err := store.DeleteExpiredOTPs(now); err != nil {
		t.Fatalf("DeleteExpiredOTPs error: %v", err)
	}
	if _, err := store.GetOTP("expired"); !errors.Is(err, ErrNotFound) {
		t.Error("expired OTP survived cleanup")
	}
	if _, err := store.GetOTP("live"); err != nil {
		t.Error("live OTP removed by cleanup")
	}

	store.SetSession(&models.SessionState{SessionID: "old", ExpiresAt: now.Add(-time.Minute)})
	store.SetSession(&models.SessionState{SessionID: "current", ExpiresAt: now.Add(time.Minute)})
	if err := store.DeleteExpiredSessions(now); err != nil {
		t.Fatalf("DeleteExpiredSessions error: %v", err)
	}
	if _, err := store.GetSession("old"); !errors.Is(err, ErrNotFound) {
		t.Error("expired session survived cleanup")
	}
	if _, err := store.GetSession("current"); err != nil {
		t.Error("live session removed by cleanup")
	}
}

func TestMemoryStoreSessionCopySemantics(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, utils.ClinicTZ)

	original := &models.SessionState{SessionID: "s1", Verified: true, ExpiresAt: now.Add(time.Hour)}
	if err := store.SetSession(original); err != nil {
		t.Fatalf("SetSession error: %v", err)
	}

	// Mutating the caller's copy must not reach the stored snapshot
	original.Verified = false

	loaded, err := store.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}
	if !loaded.Verified {
		t.Error("stored session shares memory with the caller's copy")
	}
}
