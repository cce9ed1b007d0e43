package llm

import (
	"context"
	"testing"
)

func TestRuleBasedClassifyIntent(t *testing.T) {
	client := NewRuleBasedClient()

	tests := []struct {
		name        string
		message     string
		wantIntent  Intent
		wantOrdinal int
	}{
		{"list keyword", "list my appointments", IntentList, 0},
		{"show keyword", "show me what I have", IntentList, 0},
		{"confirm with hash ordinal", "confirm #2", IntentConfirm, 2},
		{"cancel with hash ordinal", "cancel #1", IntentCancel, 1},
		{"ordinal word first", "confirm the first one", IntentConfirm, 1},
		{"ordinal word 2nd", "cancel the 2nd appointment", IntentCancel, 2},
		{"ordinal word third", "confirm the third", IntentConfirm, 3},
		{"help", "help me please", IntentHelp, 0},
		{"greeting", "hello there", IntentSmalltalk, 0},
		{"thanks", "thanks a lot", IntentSmalltalk, 0},
		{"gibberish", "asdf qwerty", IntentFallback, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.ClassifyIntent(context.Background(), tt.message, nil)
			if err != nil {
				t.Fatalf("ClassifyIntent error: %v", err)
			}
			if got.Intent != tt.wantIntent {
				t.Errorf("intent = %q, want %q", got.Intent, tt.wantIntent)
			}
			if got.Entities.Ordinal != tt.wantOrdinal {
				t.Errorf("ordinal = %d, want %d", got.Entities.Ordinal, tt.wantOrdinal)
			}
		})
	}
}

func TestRuleBasedContextAwareAffirmation(t *testing.T) {
	client := NewRuleBasedClient()

	offered := []Turn{{
		UserMessage:      "confirm #1",
		AssistantMessage: "Confirmed! Would you like to see your updated appointment list?",
	}}
	got, err := client.ClassifyIntent(context.Background(), "yes", offered)
	if err != nil {
		t.Fatalf("ClassifyIntent error: %v", err)
	}
	if got.Intent != IntentList {
		t.Errorf("affirmation after list offer = %q, want %q", got.Intent, IntentList)
	}

	neutral := []Turn{{
		UserMessage:      "hi",
		AssistantMessage: "Hello! How can I help?",
	}}
	got, err = client.ClassifyIntent(context.Background(), "yes", neutral)
	if err != nil {
		t.Fatalf("ClassifyIntent error: %v", err)
	}
	if got.Intent != IntentSmalltalk {
		t.Errorf("bare affirmation without offer = %q, want %q", got.Intent, IntentSmalltalk)
	}
}

func TestParseClassification(t *testing.T) {
	got, ok := parseClassification(`{"intent": "confirm_appointment", "entities": {"ordinal": 2, "date": null, "time": null, "provider": null}}`)
	if !ok {
		t.Fatal("expected valid parse")
	}
	if got.Intent != IntentConfirm || got.Entities.Ordinal != 2 {
		t.Errorf("unexpected classification: %+v", got)
	}

	// Unknown labels normalize to fallback rather than propagating raw values
	got, ok = parseClassification(`{"intent": "reschedule_everything", "entities": {}}`)
	if !ok {
		t.Fatal("expected structural parse to succeed")
	}
	if got.Intent != IntentFallback {
		t.Errorf("unknown intent = %q, want %q", got.Intent, IntentFallback)
	}

	if _, ok := parseClassification("I would classify this as a confirmation."); ok {
		t.Error("free text must not parse as a classification")
	}
}

func TestRecentTurnsWindow(t *testing.T) {
	history := make([]Turn, 8)
	for i := range history {
		history[i].UserMessage = string(rune('a' + i))
	}

	recent := RecentTurns(history)
	if len(recent) != HistoryWindow {
		t.Fatalf("window size = %d, want %d", len(recent), HistoryWindow)
	}
	if recent[0].UserMessage != "d" {
		t.Errorf("window should keep the trailing turns, got first = %q", recent[0].UserMessage)
	}
}
