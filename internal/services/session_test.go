package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/models"
	"github.com/humpydonkey/patient-appointment-management/internal/storage"
)

func verifiedSession(id string, now time.Time) *models.SessionState {
	return &models.SessionState{
		SessionID: id,
		Verified:  true,
		PatientID: "p_001",
		PatientPublic: models.PatientPublic{
			PatientID:   "p_001",
			NameMasked:  "J. Doe",
			PhoneMasked: "***-***-0123",
			DOBMasked:   "1985-07",
		},
		LastListSnapshot: []models.SnapshotEntry{{Ordinal: 1, AppointmentID: "a_001"}},
		LastActivity:     now,
		ExpiresAt:        now.Add(SessionTTL),
	}
}

func TestLoadOrCreateNewSession(t *testing.T) {
	store := storage.NewMemoryStore()
	clock := newTestClock(testTime())
	sm := NewSessionManager(store, clock.Now)

	sess, err := sm.LoadOrCreate("s1")
	if err != nil {
		t.Fatalf("LoadOrCreate error: %v", err)
	}
	if sess.SessionID != "s1" {
		t.Errorf("SessionID = %q, want s1", sess.SessionID)
	}
	if sess.Verified {
		t.Error("new session starts verified")
	}
	if !sess.ExpiresAt.Equal(clock.Now().Add(SessionTTL)) {
		t.Errorf("ExpiresAt = %v, want creation + %v", sess.ExpiresAt, SessionTTL)
	}
}

func TestIdleTimeoutResetsVerification(t *testing.T) {
	store := storage.NewMemoryStore()
	clock := newTestClock(testTime())
	sm := NewSessionManager(store, clock.Now)

	if err := sm.Save(verifiedSession("s1", clock.Now())); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	clock.Advance(16 * time.Minute)

	sess, err := sm.LoadOrCreate("s1")
	if err != nil {
		t.Fatalf("LoadOrCreate error: %v", err)
	}
	if sess.Verified {
		t.Error("session still verified after idle timeout")
	}
	if sess.PatientID != "" {
		t.Errorf("PatientID = %q after reset, want empty", sess.PatientID)
	}
	if len(sess.LastListSnapshot) != 0 {
		t.Error("snapshot survived idle reset")
	}
	if sess.SessionID != "s1" {
		t.Error("session id changed on reset")
	}
	if !sess.LastActivity.Equal(clock.Now()) {
		t.Error("LastActivity not refreshed on load")
	}
}

func TestIdleActivityKeepsVerification(t *testing.T) {
	store := storage.NewMemoryStore()
	clock := newTestClock(testTime())
	sm := NewSessionManager(store, clock.Now)

	if err := sm.Save(verifiedSession("s1", clock.Now())); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	clock.Advance(14 * time.Minute)

	sess, err := sm.LoadOrCreate("s1")
	if err != nil {
		t.Fatalf("LoadOrCreate error: %v", err)
	}
	if !sess.Verified {
		t.Error("session lost verification under the idle timeout")
	}
}

func TestAbsoluteTimeoutResetsDespiteActivity(t *testing.T) {
	store := storage.NewMemoryStore()
	clock := newTestClock(testTime())
	sm := NewSessionManager(store, clock.Now)

	if err := sm.Save(verifiedSession("s1", clock.Now())); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	// Keep the session warm past the absolute lifetime
	for i := 0; i < 3; i++ {
		clock.Advance(10 * time.Minute)
		sess, err := sm.LoadOrCreate("s1")
		if err != nil {
			t.Fatalf("LoadOrCreate error: %v", err)
		}
		if err := sm.Save(sess); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	clock.Advance(time.Minute)
	sess, err := sm.LoadOrCreate("s1")
	if err != nil {
		t.Fatalf("LoadOrCreate error: %v", err)
	}
	if sess.Verified {
		t.Error("session survived the absolute timeout")
	}
}

func TestResetDeletesSessionAndOTP(t *testing.T) {
	store := storage.NewMemoryStore()
	clock := newTestClock(testTime())
	sm := NewSessionManager(store, clock.Now)

	if err := sm.Save(verifiedSession("s1", clock.Now())); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	store.SetOTP("s1", "hash", clock.Now().Add(5*time.Minute))

	if err := sm.Reset("s1"); err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if _, err := sm.Get("s1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get after reset = %v, want ErrNotFound", err)
	}
	if _, err := store.GetOTP("s1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetOTP after reset = %v, want ErrNotFound", err)
	}
}

func TestConversationHistoryBounded(t *testing.T) {
	sess := &models.SessionState{SessionID: "s1"}
	for i := 0; i < models.MaxConversationTurns+10; i++ {
		sess.AppendTurn(models.ConversationTurn{UserMessage: fmt.Sprintf("turn %d", i)})
	}
	if len(sess.ConversationHistory) != models.MaxConversationTurns {
		t.Fatalf("history length = %d, want %d", len(sess.ConversationHistory), models.MaxConversationTurns)
	}
	// Oldest turns are evicted first
	if sess.ConversationHistory[0].UserMessage != "turn 10" {
		t.Errorf("oldest retained turn = %q, want %q", sess.ConversationHistory[0].UserMessage, "turn 10")
	}
}
