package models

import (
	"time"

	"gorm.io/gorm"
)

// OTPChallenge stores the one-way hash of an issued verification code, keyed
// by session id. Each new issuance supersedes the previous row for the
// session; the plaintext code is never persisted.
type OTPChallenge struct {
	gorm.Model
	SessionID string    `gorm:"uniqueIndex"`
	CodeHash  string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
}
