package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/humpydonkey/patient-appointment-management/internal/llm"
	"github.com/humpydonkey/patient-appointment-management/internal/models"
	"github.com/humpydonkey/patient-appointment-management/internal/utils"
)

// Action identifies a node of the conversation state machine. The set is
// closed; the driver loops over it until a node produces an assistant
// message.
type Action int

const (
	ActionDone Action = iota
	ActionGuard
	ActionVerify
	ActionRoute
	ActionList
	ActionConfirm
	ActionCancel
	ActionHelp
	ActionSmalltalk
	ActionFallback
)

func (a Action) String() string {
	switch a {
	case ActionGuard:
		return "guard"
	case ActionVerify:
		return "verify"
	case ActionRoute:
		return "route"
	case ActionList:
		return "list"
	case ActionConfirm:
		return "confirm"
	case ActionCancel:
		return "cancel"
	case ActionHelp:
		return "help"
	case ActionSmalltalk:
		return "smalltalk"
	case ActionFallback:
		return "fallback"
	default:
		return "done"
	}
}

// turnState is the ephemeral working state for one turn. It carries the
// transient fields that are never persisted across turns and is discarded
// after its results are folded back into the session snapshot.
type turnState struct {
	Session *models.SessionState
	Now     time.Time

	UserMessage      string
	AssistantMessage string
	Suggestions      []string

	Ordinal int

	next  Action
	trace []string
}

// TurnResult is the outcome of one processed turn
type TurnResult struct {
	Session     *models.SessionState
	Message     string
	Suggestions []string
	TurnID      string
	Timestamp   time.Time
	Trace       []string
}

// LockoutError is returned when a turn arrives during an active lockout
// window; the turn is rejected before the state machine runs.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("session locked out, retry after %s", e.RetryAfter)
}

// Orchestrator drives the per-turn control loop: guard, verify-or-route,
// action node. All collaborators are constructor-injected.
type Orchestrator struct {
	verification *VerificationService
	appointments *AppointmentService
	sessions     *SessionManager
	llm          llm.Client
	now          func() time.Time
}

// NewOrchestrator creates a new conversation orchestrator
func NewOrchestrator(
	verification *VerificationService,
	appointments *AppointmentService,
	sessions *SessionManager,
	llmClient llm.Client,
	now func() time.Time,
) *Orchestrator {
	if now == nil {
		now = utils.Now
	}
	return &Orchestrator{
		verification: verification,
		appointments: appointments,
		sessions:     sessions,
		llm:          llmClient,
		now:          now,
	}
}

// ProcessTurn handles one inbound user message: load and normalize the
// session, fail fast on lockout, run the state machine to a terminal node,
// then fold the working state back into the session snapshot and persist it.
// Callers must serialize turns per session id; verification counters are
// read-modify-write on shared session data.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	sess, err := o.sessions.LoadOrCreate(sessionID)
	if err != nil {
		return nil, err
	}

	if o.verification.IsLockedOut(sess) {
		return nil, &LockoutError{RetryAfter: o.verification.LockoutRemaining(sess)}
	}

	now := o.now()
	ts := &turnState{
		Session:     sess,
		Now:         now,
		UserMessage: message,
		next:        ActionGuard,
	}

	for ts.next != ActionDone && ts.AssistantMessage == "" {
		ts.trace = append(ts.trace, ts.next.String())
		current := ts.next
		ts.next = ActionDone

		switch current {
		case ActionGuard:
			o.guard(ts)
		case ActionVerify:
			o.verify(ctx, ts)
		case ActionRoute:
			o.route(ctx, ts)
		case ActionList:
			o.list(ts)
		case ActionConfirm:
			o.confirm(ts)
		case ActionCancel:
			o.cancel(ts)
		case ActionHelp:
			o.help(ctx, ts)
		case ActionSmalltalk:
			o.smalltalk(ctx, ts)
		case ActionFallback:
			o.fallback(ctx, ts)
		}
	}

	sess.AppendTurn(models.ConversationTurn{
		UserMessage:      message,
		AssistantMessage: ts.AssistantMessage,
		Timestamp:        now,
	})

	// A failed save discards the turn's partial state rather than persisting
	// a half-updated snapshot.
	if err := o.sessions.Save(sess); err != nil {
		return nil, err
	}

	return &TurnResult{
		Session:     sess,
		Message:     ts.AssistantMessage,
		Suggestions: ts.Suggestions,
		TurnID:      uuid.NewString(),
		Timestamp:   now,
		Trace:       ts.trace,
	}, nil
}
