package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var hashOrdinalPattern = regexp.MustCompile(`#(\d+)`)

// RuleBasedClient is a keyword-matching implementation of Client. It serves
// as the local fallback when the hosted model is unreachable or returns
// malformed output, and as the standalone client when no API key is set.
type RuleBasedClient struct{}

// NewRuleBasedClient creates a rule-based language client
func NewRuleBasedClient() *RuleBasedClient {
	return &RuleBasedClient{}
}

// ClassifyIntent classifies the message with keyword rules and extracts an
// ordinal from "#N" or ordinal words. Bare affirmations are resolved against
// the previous assistant message.
func (r *RuleBasedClient) ClassifyIntent(_ context.Context, message string, history []Turn) (Classification, error) {
	lower := strings.ToLower(message)
	ordinal := extractOrdinal(message)

	var intent Intent
	trimmed := strings.TrimSpace(lower)
	switch {
	case isAffirmation(trimmed) && len(history) > 0:
		last := strings.ToLower(history[len(history)-1].AssistantMessage)
		if strings.Contains(last, "updated appointment list") || strings.Contains(last, "see your updated") {
			intent = IntentList
		} else {
			intent = IntentSmalltalk
		}
	case strings.Contains(lower, "list") || strings.Contains(lower, "show") || strings.Contains(lower, "appointments"):
		intent = IntentList
	case strings.Contains(lower, "confirm"):
		intent = IntentConfirm
	case strings.Contains(lower, "cancel"):
		intent = IntentCancel
	case strings.Contains(lower, "help"):
		intent = IntentHelp
	case containsAny(lower, "hello", "hi", "thanks", "thank you", "good") && !strings.Contains(lower, "random"):
		intent = IntentSmalltalk
	default:
		intent = IntentFallback
	}

	return Classification{
		Intent:   intent,
		Entities: Entities{Ordinal: ordinal},
	}, nil
}

// Respond produces a canned reply appropriate to the prompt. It never
// errors; this is the floor the assistant degrades to.
func (r *RuleBasedClient) Respond(_ context.Context, systemPrompt, userMessage string) (string, error) {
	promptLower := strings.ToLower(systemPrompt)
	userLower := strings.ToLower(userMessage)

	switch {
	case strings.Contains(promptLower, "locked"):
		return "Your account is temporarily locked for security. Please try again later.", nil
	case strings.Contains(promptLower, "asking for help"):
		return "I can help you manage your appointments! You can list, confirm, or cancel your appointments. What would you like to do?", nil
	case strings.Contains(promptLower, "casual conversation"):
		if containsAny(userLower, "hello", "hi") {
			return "Hello! I'm here to help you manage your appointments. How can I assist you today?", nil
		}
		if containsAny(userLower, "thank", "thanks") {
			return "You're welcome! Is there anything else I can help you with regarding your appointments?", nil
		}
		return "I'm here to help with your appointments. What would you like to do?", nil
	case strings.Contains(promptLower, "unclear"):
		return "I'm not sure how to help with that. I can assist you with listing, confirming, or cancelling your appointments. What would you like to do?", nil
	default:
		return "I can help you with your appointments. You can ask me to list, confirm, or cancel appointments.", nil
	}
}

func extractOrdinal(message string) int {
	if m := hashOrdinalPattern.FindStringSubmatch(message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}

	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "first", "1st"):
		return 1
	case containsAny(lower, "second", "2nd"):
		return 2
	case containsAny(lower, "third", "3rd"):
		return 3
	}
	return 0
}

func isAffirmation(trimmed string) bool {
	switch trimmed {
	case "yes", "sure", "okay", "ok":
		return true
	}
	return false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
