package handlers

import (
	"errors"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/humpydonkey/patient-appointment-management/internal/services"
	"github.com/humpydonkey/patient-appointment-management/internal/storage"
)

// ChatHandler handles the conversational endpoints
type ChatHandler struct {
	orchestrator *services.Orchestrator
	sessions     *services.SessionManager

	// Turns for one session must be processed strictly sequentially;
	// verification counters are read-modify-write on shared session data.
	locks sync.Map // session id -> *sync.Mutex
}

// NewChatHandler creates a new chat handler
func NewChatHandler(orchestrator *services.Orchestrator, sessions *services.SessionManager) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator, sessions: sessions}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Trace     bool   `json:"trace"`
}

// Chat processes one conversation turn
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.SessionID == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id and message are required",
		})
	}

	mu := h.sessionLock(req.SessionID)
	mu.Lock()
	defer mu.Unlock()

	result, err := h.orchestrator.ProcessTurn(c.Context(), req.SessionID, req.Message)
	if err != nil {
		var lockout *services.LockoutError
		if errors.As(err, &lockout) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":               "locked_out",
				"retry_after_seconds": int(lockout.RetryAfter.Seconds()),
			})
		}
		log.Printf("turn processing failed for session %s: %v", req.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	sess := result.Session
	response := fiber.Map{
		"assistant": fiber.Map{
			"message":     result.Message,
			"suggestions": result.Suggestions,
		},
		"state": fiber.Map{
			"verified":           sess.Verified,
			"verification":       sess.Verification,
			"patient":            sess.PatientPublic,
			"last_list_snapshot": sess.LastListSnapshot,
			"session": fiber.Map{
				"last_activity": sess.LastActivity,
				"expires_at":    sess.ExpiresAt,
			},
		},
		"meta": fiber.Map{
			"session_id": req.SessionID,
			"turn_id":    result.TurnID,
			"timestamp":  result.Timestamp,
		},
	}
	if req.Trace {
		response["trace"] = fiber.Map{"path": result.Trace}
	}

	return c.JSON(response)
}

// ResetSession is a dev endpoint that deletes a session and its OTP state
func (h *ChatHandler) ResetSession(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	if err := h.sessions.Reset(req.SessionID); err != nil {
		log.Printf("session reset failed for %s: %v", req.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reset session",
		})
	}
	return c.JSON(fiber.Map{"status": "reset"})
}

// SessionState is a dev endpoint that returns the raw stored session state
func (h *ChatHandler) SessionState(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	sess, err := h.sessions.Get(sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load session",
		})
	}
	return c.JSON(sess)
}

func (h *ChatHandler) sessionLock(sessionID string) *sync.Mutex {
	mu, _ := h.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
