package llm

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// defaultTimeout bounds every hosted-model call; on expiry the client
// degrades to rule-based behavior instead of blocking the turn.
const defaultTimeout = 10 * time.Second

// intentLabels maps the classifier's wire labels onto normalized intents
var intentLabels = map[string]Intent{
	"list_appointments":   IntentList,
	"confirm_appointment": IntentConfirm,
	"cancel_appointment":  IntentCancel,
	"help":                IntentHelp,
	"smalltalk":           IntentSmalltalk,
	"fallback":            IntentFallback,
}

// OpenAIClient calls the OpenAI API for intent classification and response
// generation, falling back to rule-based behavior on any failure.
type OpenAIClient struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	fallback *RuleBasedClient
}

// NewOpenAIClient constructs an OpenAI-backed language client. The API key
// and model name come from the environment.
func NewOpenAIClient() *OpenAIClient {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIClient{
		client:   openai.NewClient(os.Getenv("OPENAI_API_KEY")),
		model:    model,
		timeout:  defaultTimeout,
		fallback: NewRuleBasedClient(),
	}
}

// ClassifyIntent asks the model for a structured intent classification with
// a bounded window of recent turns as context. Malformed or unparseable
// output degrades to the rule-based classifier.
func (c *OpenAIClient) ClassifyIntent(ctx context.Context, message string, history []Turn) (Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildClassifierPrompt(message, history)},
		},
		Temperature: 0.1,
		MaxTokens:   150,
	})
	if err != nil {
		log.Printf("openai classification error: %v", err)
		return c.fallback.ClassifyIntent(ctx, message, history)
	}
	if len(resp.Choices) == 0 {
		return c.fallback.ClassifyIntent(ctx, message, history)
	}

	classification, ok := parseClassification(resp.Choices[0].Message.Content)
	if !ok {
		return c.fallback.ClassifyIntent(ctx, message, history)
	}
	return classification, nil
}

// Respond generates a free-text assistant reply framed by systemPrompt. On
// any API failure the rule-based canned response is returned instead.
func (c *OpenAIClient) Respond(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		log.Printf("openai chat error: %v", err)
		return c.fallback.Respond(ctx, systemPrompt, userMessage)
	}
	if len(resp.Choices) == 0 {
		return c.fallback.Respond(ctx, systemPrompt, userMessage)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// parseClassification decodes the model's JSON reply, normalizing the intent
// label. Unknown labels and structural problems report !ok so the caller can
// fall back.
func parseClassification(content string) (Classification, bool) {
	var wire struct {
		Intent   string `json:"intent"`
		Entities struct {
			Ordinal  *int   `json:"ordinal"`
			Date     string `json:"date"`
			Time     string `json:"time"`
			Provider string `json:"provider"`
		} `json:"entities"`
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &wire); err != nil {
		return Classification{}, false
	}

	intent, known := intentLabels[wire.Intent]
	if !known {
		intent = IntentFallback
	}

	result := Classification{
		Intent: intent,
		Entities: Entities{
			Date:     wire.Entities.Date,
			Time:     wire.Entities.Time,
			Provider: wire.Entities.Provider,
		},
	}
	if wire.Entities.Ordinal != nil {
		result.Entities.Ordinal = *wire.Entities.Ordinal
	}
	return result, true
}
