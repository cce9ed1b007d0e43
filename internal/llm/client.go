package llm

import (
	"context"
)

// Intent is the normalized intent label the router acts on. Classifier
// output that does not map onto one of these values normalizes to
// IntentFallback; raw labels never leave this package.
type Intent string

const (
	IntentList      Intent = "list"
	IntentConfirm   Intent = "confirm"
	IntentCancel    Intent = "cancel"
	IntentHelp      Intent = "help"
	IntentSmalltalk Intent = "smalltalk"
	IntentFallback  Intent = "fallback"
)

// Entities are values extracted alongside intent classification. Ordinal is
// 0 when no ordinal reference was present.
type Entities struct {
	Ordinal  int    `json:"ordinal"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Classification is the structured result of intent classification
type Classification struct {
	Intent   Intent
	Entities Entities
}

// Turn is one prior user/assistant exchange supplied as classification context
type Turn struct {
	UserMessage      string
	AssistantMessage string
}

// Client is the language capability the conversation machine consumes.
// Implementations must degrade to rule-based behavior on transport or parse
// failures rather than surfacing errors to the end user.
type Client interface {
	ClassifyIntent(ctx context.Context, message string, history []Turn) (Classification, error)
	Respond(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// HistoryWindow is the maximum number of recent turns passed to the
// classifier for disambiguating short replies.
const HistoryWindow = 5

// RecentTurns returns at most HistoryWindow trailing entries of history
func RecentTurns(history []Turn) []Turn {
	if len(history) > HistoryWindow {
		return history[len(history)-HistoryWindow:]
	}
	return history
}
