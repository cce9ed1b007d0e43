package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxConversationTurns bounds the per-session conversation history; the
// oldest turns are evicted first.
const MaxConversationTurns = 50

// VerificationState tracks identity-verification progress within a session.
// FailedAttempts counts direct phone+DOB mismatches; OTPAttempts counts
// wrong codes while OTPRequired is set. The two counters are independent.
type VerificationState struct {
	FailedAttempts int        `json:"failed_attempts"`
	OTPRequired    bool       `json:"otp_required"`
	OTPAttempts    int        `json:"otp_attempts"`
	OTPExpiresAt   *time.Time `json:"otp_expires_at,omitempty"`
	LockoutUntil   *time.Time `json:"lockout_until,omitempty"`
}

// SnapshotEntry maps a 1-based display ordinal to an appointment id. The
// snapshot is replaced wholesale each time appointments are listed.
type SnapshotEntry struct {
	Ordinal       int    `json:"ordinal"`
	AppointmentID string `json:"appointment_id"`
}

// ConversationTurn is one completed user/assistant exchange
type ConversationTurn struct {
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
	Timestamp        time.Time `json:"timestamp"`
}

// SessionState is the durable per-session unit. It is owned by the session
// store between turns; the conversation orchestrator borrows it for one turn
// and hands back an updated copy.
type SessionState struct {
	SessionID           string             `json:"session_id"`
	Verified            bool               `json:"verified"`
	PatientID           string             `json:"patient_id,omitempty"`
	PatientPublic       PatientPublic      `json:"patient_public"`
	Verification        VerificationState  `json:"verification"`
	LastListSnapshot    []SnapshotEntry    `json:"last_list_snapshot"`
	LastIntent          string             `json:"last_intent,omitempty"`
	LastActivity        time.Time          `json:"last_activity"`
	ExpiresAt           time.Time          `json:"expires_at"`
	PhoneInput          string             `json:"phone_input,omitempty"`
	DOBInput            string             `json:"dob_input,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversation_history"`
}

// AppendTurn records a completed turn, evicting the oldest entries beyond
// MaxConversationTurns.
func (s *SessionState) AppendTurn(turn ConversationTurn) {
	s.ConversationHistory = append(s.ConversationHistory, turn)
	if len(s.ConversationHistory) > MaxConversationTurns {
		s.ConversationHistory = s.ConversationHistory[len(s.ConversationHistory)-MaxConversationTurns:]
	}
}

// ResetVerification clears everything tied to a verified identity while
// keeping the session id. Called when either expiry policy fires.
func (s *SessionState) ResetVerification() {
	s.Verified = false
	s.PatientID = ""
	s.PatientPublic = PatientPublic{}
	s.Verification = VerificationState{}
	s.LastListSnapshot = nil
	s.PhoneInput = ""
	s.DOBInput = ""
	s.ConversationHistory = nil
}

// ChatSession is the gorm row wrapping a JSON-serialized SessionState, the
// same shape the session store hands out via the Store interface.
type ChatSession struct {
	gorm.Model
	SessionID string    `json:"session_id" gorm:"uniqueIndex"`
	State     string    `json:"state"` // JSON-serialized SessionState
	ExpiresAt time.Time `json:"expires_at"`
}
