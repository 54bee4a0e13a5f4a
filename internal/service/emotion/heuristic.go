package emotion

import (
	"context"

	analysis "github.com/MohamedImran7868/Mira/internal/analysis/emotion"
)

// HeuristicCapability scores text with the in-process keyword analyzer.
// It is the default classification capability when no LLM classifier is
// configured and the fallback when one fails to initialize.
type HeuristicCapability struct{}

// Classify implements Capability.
func (HeuristicCapability) Classify(_ context.Context, text string) ([]analysis.Score, error) {
	return analysis.ScoreText(text), nil
}
