package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/llm"
	"github.com/humpydonkey/patient-appointment-management/internal/models"
	"github.com/humpydonkey/patient-appointment-management/internal/utils"
)

const formatHelpMessage = `I'm having trouble with that format. Please provide your information in these formats:

**Phone Number:**
- (415) 555-0123
- 415-555-0123
- 415.555.0123
- 4155550123

**Date of Birth:**
- MM/DD/YYYY (07/14/1985)
- MM-DD-YYYY (07-14-1985)
- YYYY-MM-DD (1985-07-14)

Please try again with both your phone number and date of birth.`

const askBothMessage = `To verify your identity, I'll need your phone number and date of birth.

Please provide them in one message, for example:
"My phone is (415) 555-0123 and DOB is 07/14/1985"

Or you can provide them separately - what's your phone number?`

const storageApologyMessage = "I'm sorry, something went wrong on my end. Please try again in a moment."

// guard routes the turn to verification or intent routing depending on
// whether the session is verified.
func (o *Orchestrator) guard(ts *turnState) {
	if !ts.Session.Verified {
		ts.next = ActionVerify
	} else {
		ts.next = ActionRoute
	}
}

// verify runs one step of the identity verification flow: lockout notice,
// OTP check, or phone+DOB collection and matching with name confirmation.
func (o *Orchestrator) verify(ctx context.Context, ts *turnState) {
	sess := ts.Session

	if o.verification.IsLockedOut(sess) {
		until := sess.Verification.LockoutUntil.In(utils.ClinicTZ).Format("03:04 PM")
		prompt := fmt.Sprintf("%s\n\nThe user's account is temporarily locked until %s for security. Explain this professionally and empathetically.", llm.SystemPrompt, until)
		reply, err := o.llm.Respond(ctx, prompt, "Account locked")
		if err != nil {
			reply = "Your account is temporarily locked for security. Please try again later."
		}
		ts.AssistantMessage = reply
		return
	}

	if sess.Verification.OTPRequired {
		o.verifyOTPStep(ts)
		return
	}

	lower := strings.ToLower(ts.UserMessage)

	// Collected inputs are sticky across turns until both are present
	if sess.PhoneInput == "" {
		if raw := utils.ExtractPhone(ts.UserMessage); raw != "" {
			normalized, err := utils.NormalizePhoneE164(raw)
			if err != nil {
				ts.AssistantMessage = formatHelpMessage
				return
			}
			sess.PhoneInput = normalized
		}
	}
	if sess.DOBInput == "" {
		if raw := utils.ExtractDOB(ts.UserMessage); raw != "" {
			dob, err := utils.ParseDOB(raw)
			if err != nil {
				ts.AssistantMessage = formatHelpMessage
				return
			}
			sess.DOBInput = dob.Format("2006-01-02")
		}
	}

	if sess.PhoneInput != "" && sess.DOBInput != "" {
		dob, err := time.ParseInLocation("2006-01-02", sess.DOBInput, utils.ClinicTZ)
		if err != nil {
			// Corrupt stored input; start collection over rather than guessing
			log.Printf("corrupt dob input for session %s: %v", sess.SessionID, err)
			sess.DOBInput = ""
			ts.AssistantMessage = formatHelpMessage
			return
		}

		patient, err := o.verification.AttemptMatch(sess.PhoneInput, dob)
		if err != nil {
			log.Printf("verification lookup failed for session %s: %v", sess.SessionID, err)
			ts.AssistantMessage = storageApologyMessage
			return
		}

		if patient != nil {
			if isAffirmative(lower) {
				sess.Verified = true
				sess.PatientID = patient.PatientID
				sess.PatientPublic = o.verification.MaskIdentifiers(patient)
				ts.AssistantMessage = fmt.Sprintf("Perfect! I've confirmed your identity. Your phone ends in **%s**. How can I help with your appointments?", lastFour(sess.PatientPublic.PhoneMasked))
				ts.Suggestions = []string{"List my appointments", "Get help"}
				ts.next = ActionRoute
			} else {
				ts.AssistantMessage = fmt.Sprintf("I found your record. Is your name **%s**? Please say yes to confirm.", patient.FullName)
			}
			return
		}

		sess.Verification.FailedAttempts++
		if sess.Verification.FailedAttempts >= MaxDirectAttempts {
			if err := o.verification.SendOTP(sess.PhoneInput, sess); err != nil {
				log.Printf("failed to send OTP for session %s: %v", sess.SessionID, err)
				ts.AssistantMessage = storageApologyMessage
				return
			}
			ts.AssistantMessage = fmt.Sprintf("For security, I've sent a 6-digit verification code to your phone ending in **%s**. Please enter the code to continue.", lastFour(sess.PhoneInput))
		} else {
			remaining := MaxDirectAttempts - sess.Verification.FailedAttempts
			ts.AssistantMessage = fmt.Sprintf("I couldn't find a match. Please double-check your information. %d attempts remaining.", remaining)
		}
		return
	}

	if sess.PhoneInput == "" {
		ts.AssistantMessage = askBothMessage
	} else {
		ts.AssistantMessage = "Thanks! Now what's your date of birth? Please use MM/DD/YYYY format (example: 07/14/1985)."
	}
}

// verifyOTPStep handles a turn while an OTP challenge is pending
func (o *Orchestrator) verifyOTPStep(ts *turnState) {
	sess := ts.Session

	code := utils.ExtractOTPCode(ts.UserMessage)
	if code == "" {
		ts.AssistantMessage = "Please enter the 6-digit verification code sent to your phone."
		return
	}

	ok, err := o.verification.VerifyOTP(sess, code)
	if err != nil {
		log.Printf("otp verification failed for session %s: %v", sess.SessionID, err)
		ts.AssistantMessage = storageApologyMessage
		return
	}

	if ok {
		patient, err := o.verification.ResolveByPhone(sess.PhoneInput)
		if err != nil {
			log.Printf("patient resolution failed for session %s: %v", sess.SessionID, err)
			ts.AssistantMessage = storageApologyMessage
			return
		}
		if patient == nil {
			ts.AssistantMessage = "I verified your code, but I couldn't locate a unique record for your phone number. Please contact the clinic directly to finish verification."
			return
		}

		sess.Verified = true
		sess.PatientID = patient.PatientID
		sess.PatientPublic = o.verification.MaskIdentifiers(patient)
		ts.AssistantMessage = "Thank you! Your identity has been verified. How can I help you with your appointments?"
		ts.Suggestions = []string{"List my appointments", "Get help"}
		ts.next = ActionRoute
		return
	}

	remaining := MaxOTPAttempts - sess.Verification.OTPAttempts
	if remaining > 0 {
		ts.AssistantMessage = fmt.Sprintf("That code isn't correct. You have %d attempts remaining. Please enter the 6-digit code sent to your phone.", remaining)
	} else {
		ts.AssistantMessage = "Too many failed attempts. Your account is temporarily locked for 5 minutes for security."
	}
}

// route classifies the turn's intent and dispatches to the matching action
func (o *Orchestrator) route(ctx context.Context, ts *turnState) {
	sess := ts.Session

	classification, err := o.llm.ClassifyIntent(ctx, ts.UserMessage, classifierHistory(sess))
	if err != nil {
		log.Printf("intent classification failed for session %s: %v", sess.SessionID, err)
		classification = llm.Classification{Intent: llm.IntentFallback}
	}

	if classification.Entities.Ordinal > 0 {
		ts.Ordinal = classification.Entities.Ordinal
	}

	sess.LastIntent = string(classification.Intent)
	switch classification.Intent {
	case llm.IntentList:
		ts.next = ActionList
	case llm.IntentConfirm:
		ts.next = ActionConfirm
	case llm.IntentCancel:
		ts.next = ActionCancel
	case llm.IntentHelp:
		ts.next = ActionHelp
	case llm.IntentSmalltalk:
		ts.next = ActionSmalltalk
	default:
		ts.next = ActionFallback
	}
}

// list shows upcoming appointments and replaces the reference snapshot
func (o *Orchestrator) list(ts *turnState) {
	sess := ts.Session

	appointments, err := o.appointments.ListUpcoming(sess.PatientID, ts.Now)
	if err != nil {
		log.Printf("appointment listing failed for session %s: %v", sess.SessionID, err)
		ts.AssistantMessage = "I'm having trouble retrieving your appointments right now. Please try again in a moment."
		ts.next = ActionRoute
		return
	}

	if len(appointments) == 0 {
		ts.AssistantMessage = "You don't have any upcoming appointments. Is there anything else I can help you with?"
		ts.Suggestions = []string{"Get help"}
		ts.next = ActionRoute
		return
	}

	lines := make([]string, 0, len(appointments))
	snapshot := make([]models.SnapshotEntry, 0, len(appointments))
	for i, appt := range appointments {
		lines = append(lines, fmt.Sprintf("%d. **%s** — %s — **%s**",
			i+1, utils.FormatAppointmentTime(appt.StartTime), appt.ProviderName, titleStatus(appt.Status)))
		snapshot = append(snapshot, models.SnapshotEntry{Ordinal: i + 1, AppointmentID: appt.AppointmentID})
	}
	sess.LastListSnapshot = snapshot

	var examples string
	switch len(appointments) {
	case 1:
		examples = fmt.Sprintf("You can say 'Confirm #1' or 'Cancel my appointment with %s.'", appointments[0].ProviderName)
		ts.Suggestions = []string{"Confirm #1", "Cancel #1", "Get help"}
	case 2:
		examples = fmt.Sprintf("You can say 'Confirm #1' or 'Confirm #2' or 'Cancel my appointment with %s.'", appointments[1].ProviderName)
		ts.Suggestions = []string{"Confirm #1", "Confirm #2", "Cancel #1", "Cancel #2", "Get help"}
	default:
		examples = "You can say 'Confirm #1', 'Cancel #2', or reference by provider name."
		ts.Suggestions = []string{"Confirm #1", "Cancel #1", "Get help"}
	}

	ts.AssistantMessage = fmt.Sprintf("Here are your upcoming appointments (PST):\n\n%s\n\n%s", strings.Join(lines, "\n"), examples)
	ts.next = ActionRoute
}

// confirm resolves the reference and applies the confirm transition
func (o *Orchestrator) confirm(ts *turnState) {
	appointmentID := resolveReference(ts)
	if appointmentID == "" {
		ts.AssistantMessage = "I'm not sure which appointment you'd like to confirm. Could you be more specific? For example, 'Confirm #1' or 'Confirm my Oct 2 appointment'."
		ts.next = ActionRoute
		return
	}

	appointment, err := o.appointments.Confirm(appointmentID)
	if err != nil {
		log.Printf("confirm failed for session %s, appointment %s: %v", ts.Session.SessionID, appointmentID, err)
		ts.AssistantMessage = "I encountered an error confirming that appointment. Please try again or contact the clinic directly."
		ts.next = ActionRoute
		return
	}

	ts.AssistantMessage = fmt.Sprintf("Confirmed! Your **%s** appointment with **%s** is now confirmed. Would you like to see your updated appointment list?",
		utils.FormatAppointmentTime(appointment.StartTime), appointment.ProviderName)
	ts.Suggestions = []string{"List my appointments", "Cancel an appointment", "Get help"}
	ts.next = ActionRoute
}

// cancel resolves the reference and applies the cancel transition, warning
// when the appointment starts within 24 hours.
func (o *Orchestrator) cancel(ts *turnState) {
	appointmentID := resolveReference(ts)
	if appointmentID == "" {
		ts.AssistantMessage = "I'm not sure which appointment you'd like to cancel. Could you be more specific? For example, 'Cancel #1' or 'Cancel my Oct 2 appointment'."
		ts.next = ActionRoute
		return
	}

	appointment, within24h, err := o.appointments.Cancel(appointmentID, ts.Now)
	if err != nil {
		log.Printf("cancel failed for session %s, appointment %s: %v", ts.Session.SessionID, appointmentID, err)
		ts.AssistantMessage = "I encountered an error cancelling that appointment. Please try again or contact the clinic directly."
		ts.next = ActionRoute
		return
	}

	timeStr := utils.FormatAppointmentTime(appointment.StartTime)
	if within24h {
		ts.AssistantMessage = fmt.Sprintf("**Note:** This appointment with **%s** on **%s** is within 24 hours. I've cancelled it, but please consider calling the clinic to ensure proper handling.\n\nAppointment cancelled successfully.",
			appointment.ProviderName, timeStr)
	} else {
		ts.AssistantMessage = fmt.Sprintf("Cancelled! Your **%s** appointment with **%s** has been cancelled. Would you like to see your updated appointment list?",
			timeStr, appointment.ProviderName)
	}
	ts.Suggestions = []string{"List my appointments", "Get help"}
	ts.next = ActionRoute
}

// help delegates phrasing to the language capability
func (o *Orchestrator) help(ctx context.Context, ts *turnState) {
	prompt := llm.SystemPrompt + "\n\nThe user is asking for help. Provide a concise, friendly overview of what you can help them with regarding their appointments. Keep it brief and actionable."
	ts.AssistantMessage = o.respond(ctx, prompt, ts.UserMessage)
	ts.Suggestions = []string{"List my appointments", "Confirm an appointment", "Cancel an appointment"}
	ts.next = ActionRoute
}

func (o *Orchestrator) smalltalk(ctx context.Context, ts *turnState) {
	prompt := llm.SystemPrompt + "\n\nThe user is making casual conversation. Respond warmly but briefly, then gently guide them toward appointment management tasks. Keep the response concise and professional."
	ts.AssistantMessage = o.respond(ctx, prompt, ts.UserMessage)
	ts.Suggestions = []string{"List my appointments", "Get help"}
	ts.next = ActionRoute
}

func (o *Orchestrator) fallback(ctx context.Context, ts *turnState) {
	prompt := llm.SystemPrompt + "\n\nThe user's request is unclear or doesn't match appointment management tasks. Politely clarify what you can help with and provide guidance. Keep it concise and helpful."
	ts.AssistantMessage = o.respond(ctx, prompt, ts.UserMessage)
	ts.Suggestions = []string{"List my appointments", "Confirm an appointment", "Cancel an appointment", "Get help"}
	ts.next = ActionRoute
}

func (o *Orchestrator) respond(ctx context.Context, systemPrompt, userMessage string) string {
	reply, err := o.llm.Respond(ctx, systemPrompt, userMessage)
	if err != nil || reply == "" {
		return "I can help you with your appointments. You can ask me to list, confirm, or cancel appointments."
	}
	return reply
}

// resolveReference maps the turn's ordinal (or absence thereof) against the
// last-shown snapshot. An explicit ordinal must match exactly; it is never
// reinterpreted as another entry. A missing ordinal falls back to the first
// entry. Both failure modes return "" and the caller asks for clarification.
func resolveReference(ts *turnState) string {
	snapshot := ts.Session.LastListSnapshot

	if ts.Ordinal > 0 {
		for _, entry := range snapshot {
			if entry.Ordinal == ts.Ordinal {
				return entry.AppointmentID
			}
		}
		return ""
	}

	if len(snapshot) > 0 {
		return snapshot[0].AppointmentID
	}
	return ""
}

func classifierHistory(sess *models.SessionState) []llm.Turn {
	turns := make([]llm.Turn, 0, len(sess.ConversationHistory))
	for _, turn := range sess.ConversationHistory {
		turns = append(turns, llm.Turn{
			UserMessage:      turn.UserMessage,
			AssistantMessage: turn.AssistantMessage,
		})
	}
	return turns
}

func isAffirmative(lower string) bool {
	return strings.Contains(lower, "yes") ||
		strings.Contains(lower, "correct") ||
		strings.Contains(lower, "that's me")
}

func lastFour(s string) string {
	if len(s) >= 4 {
		return s[len(s)-4:]
	}
	return s
}

func titleStatus(status models.AppointmentStatus) string {
	s := string(status)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
