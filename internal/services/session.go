package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/models"
	"github.com/humpydonkey/patient-appointment-management/internal/storage"
	"github.com/humpydonkey/patient-appointment-management/internal/utils"
)

const (
	// IdleTimeout resets verification when no turn arrives within it
	IdleTimeout = 15 * time.Minute
	// SessionTTL is the absolute lifetime fixed at session creation
	SessionTTL = 30 * time.Minute
)

// SessionManager owns session creation, expiry policy, and persistence
type SessionManager struct {
	store storage.Store
	now   func() time.Time
}

// NewSessionManager creates a new session manager
func NewSessionManager(store storage.Store, now func() time.Time) *SessionManager {
	if now == nil {
		now = utils.Now
	}
	return &SessionManager{store: store, now: now}
}

// LoadOrCreate loads the session for the given id, creating one on first
// contact. Two independent expiry policies apply on load: the idle timeout
// and the absolute timeout. Either firing resets verification state but
// keeps the session id; lastActivity is refreshed unconditionally.
func (sm *SessionManager) LoadOrCreate(sessionID string) (*models.SessionState, error) {
	now := sm.now()

	sess, err := sm.store.GetSession(sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		sess = &models.SessionState{
			SessionID:    sessionID,
			LastActivity: now,
			ExpiresAt:    now.Add(SessionTTL),
		}
		return sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if now.After(sess.ExpiresAt) || now.Sub(sess.LastActivity) > IdleTimeout {
		sess.ResetVerification()
	}
	sess.LastActivity = now
	return sess, nil
}

// Save persists the updated session snapshot
func (sm *SessionManager) Save(sess *models.SessionState) error {
	if err := sm.store.SetSession(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Reset deletes the session and any pending OTP challenge
func (sm *SessionManager) Reset(sessionID string) error {
	if err := sm.store.DeleteSession(sessionID); err != nil {
		return err
	}
	return sm.store.ClearOTP(sessionID)
}

// Get returns the stored session without lifecycle side effects
func (sm *SessionManager) Get(sessionID string) (*models.SessionState, error) {
	return sm.store.GetSession(sessionID)
}
