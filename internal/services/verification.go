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
	// MaxDirectAttempts is the number of phone+DOB mismatches before the
	// flow escalates to OTP.
	MaxDirectAttempts = 3
	// MaxOTPAttempts is the number of wrong codes before lockout.
	MaxOTPAttempts = 3

	otpTTL          = 5 * time.Minute
	lockoutDuration = 5 * time.Minute
)

// VerificationService owns the phone+DOB matching flow, OTP issuance and
// verification, and the lockout policy.
type VerificationService struct {
	store storage.Store
	sms   SMSSender
	now   func() time.Time
}

// NewVerificationService creates a new verification service
func NewVerificationService(store storage.Store, sms SMSSender, now func() time.Time) *VerificationService {
	if now == nil {
		now = utils.Now
	}
	return &VerificationService{store: store, sms: sms, now: now}
}

// AttemptMatch looks up candidates by exact phone+DOB. A match is returned
// only when exactly one candidate exists; an ambiguous multi-match is
// treated as no-match, never guessed.
func (v *VerificationService) AttemptMatch(phoneE164 string, dob time.Time) (*models.Patient, error) {
	matches, err := v.store.FindPatientsByPhoneAndDOB(phoneE164, dob)
	if err != nil {
		return nil, fmt.Errorf("patient lookup failed: %w", err)
	}
	if len(matches) != 1 {
		return nil, nil
	}
	return matches[0], nil
}

// ResolveByPhone returns the patient holding the claimed phone number, with
// the same exactly-one semantics as AttemptMatch. Used after a successful
// OTP to bind the session to a patient record.
func (v *VerificationService) ResolveByPhone(phoneE164 string) (*models.Patient, error) {
	matches, err := v.store.FindPatientsByPhone(phoneE164)
	if err != nil {
		return nil, fmt.Errorf("patient lookup failed: %w", err)
	}
	if len(matches) != 1 {
		return nil, nil
	}
	return matches[0], nil
}

// SendOTP generates a 6-digit code, stores only its hash keyed by the
// session id, flips the session into OTP mode, and delivers the plaintext
// out-of-band to the phone number claimed in this session.
func (v *VerificationService) SendOTP(phoneE164 string, sess *models.SessionState) error {
	code, err := utils.GenerateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	expiresAt := v.now().Add(otpTTL)
	if err := v.store.SetOTP(sess.SessionID, utils.HashOTPCode(code), expiresAt); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	sess.Verification.OTPRequired = true
	sess.Verification.OTPAttempts = 0
	sess.Verification.OTPExpiresAt = &expiresAt

	if err := v.sms.SendSMS(phoneE164, fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)); err != nil {
		// Delivery problems are the carrier's to retry; the challenge stays valid
		return fmt.Errorf("failed to deliver OTP: %w", err)
	}
	return nil
}

// VerifyOTP checks the supplied code against the stored hash. A missing or
// expired challenge fails without counting an attempt; a mismatch counts one
// and the third consecutive mismatch triggers a timed lockout and discards
// the challenge so a post-lockout retry cannot reuse a stale code.
func (v *VerificationService) VerifyOTP(sess *models.SessionState, code string) (bool, error) {
	challenge, err := v.store.GetOTP(sess.SessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("OTP lookup failed: %w", err)
	}

	now := v.now()
	if now.After(challenge.ExpiresAt) {
		if err := v.store.ClearOTP(sess.SessionID); err != nil {
			return false, fmt.Errorf("failed to clear expired OTP: %w", err)
		}
		return false, nil
	}

	if utils.HashOTPCode(code) == challenge.CodeHash {
		if err := v.store.ClearOTP(sess.SessionID); err != nil {
			return false, fmt.Errorf("failed to clear OTP: %w", err)
		}
		sess.Verification.OTPRequired = false
		sess.Verification.FailedAttempts = 0
		sess.Verification.OTPAttempts = 0
		sess.Verification.OTPExpiresAt = nil
		sess.Verification.LockoutUntil = nil
		return true, nil
	}

	sess.Verification.OTPAttempts++
	if sess.Verification.OTPAttempts >= MaxOTPAttempts {
		lockoutUntil := now.Add(lockoutDuration)
		sess.Verification.LockoutUntil = &lockoutUntil
		// Drop the pending challenge entirely; once the lockout lifts the
		// collection flow issues a fresh code instead of replaying this one.
		sess.Verification.OTPRequired = false
		sess.Verification.OTPExpiresAt = nil
		if err := v.store.ClearOTP(sess.SessionID); err != nil {
			return false, fmt.Errorf("failed to clear OTP on lockout: %w", err)
		}
	}
	return false, nil
}

// IsLockedOut reports whether the session is inside a lockout window
func (v *VerificationService) IsLockedOut(sess *models.SessionState) bool {
	if sess.Verification.LockoutUntil == nil {
		return false
	}
	return v.now().Before(*sess.Verification.LockoutUntil)
}

// LockoutRemaining returns how long until the lockout lifts, zero when not
// locked out.
func (v *VerificationService) LockoutRemaining(sess *models.SessionState) time.Duration {
	if sess.Verification.LockoutUntil == nil {
		return 0
	}
	remaining := sess.Verification.LockoutUntil.Sub(v.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MaskIdentifiers produces the display-safe projection of a patient record
func (v *VerificationService) MaskIdentifiers(patient *models.Patient) models.PatientPublic {
	return utils.NewPatientPublic(patient)
}
