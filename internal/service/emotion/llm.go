package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/MohamedImran7868/Mira/internal/analysis/emotion"
)

// LLMCapability classifies text by asking a chat model for strict JSON over
// the shared emotion vocabulary. The chat model instance is reused from the
// generation stack; weights load once per process.
type LLMCapability struct {
	classifier compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMCapability compiles the classification chain. A nil chat model is an
// error; callers fall back to the heuristic capability instead.
func NewLLMCapability(ctx context.Context, chatModel model.ChatModel) (*LLMCapability, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required for LLM classification")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage("{text}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile classifier chain: %w", err)
	}

	return &LLMCapability{classifier: runnable}, nil
}

// Classify implements Capability.
func (c *LLMCapability) Classify(ctx context.Context, text string) ([]analysis.Score, error) {
	msg, err := c.classifier.Invoke(ctx, map[string]any{"text": text})
	if err != nil {
		return nil, fmt.Errorf("classifier invoke failed: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("classifier returned empty content")
	}

	return parseClassifierOutput(msg.Content)
}

// parseClassifierOutput digs the JSON array out of the model reply. Models
// occasionally wrap JSON in prose or code fences, so it scans for the
// outermost brackets rather than unmarshaling the raw content.
func parseClassifierOutput(content string) ([]analysis.Score, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json array in classifier output")
	}

	var payload []scorePayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return nil, err
	}

	scores := make([]analysis.Score, 0, len(payload))
	for _, item := range payload {
		label := strings.ToLower(strings.TrimSpace(item.Label))
		if label == "" {
			continue
		}
		scores = append(scores, analysis.Score{Label: label, Value: item.Score})
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("classifier output held no labels")
	}
	return scores, nil
}

type scorePayload struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

var classifierSystemPrompt = "You are a multi-label emotion classifier. " +
	"Read the user's message and score it against this fixed label set: " +
	strings.Join(analysis.Vocabulary, ", ") + ". " +
	"Scores are independent per label in [0,1]; do not normalize them to sum to 1. " +
	"Reply with only a JSON array ordered by descending score, each element " +
	`shaped as {"label": "...", "score": 0.0}. Include only labels that apply. No extra text.`
