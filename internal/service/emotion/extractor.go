package emotion

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	analysis "github.com/MohamedImran7868/Mira/internal/analysis/emotion"
	"github.com/MohamedImran7868/Mira/internal/model/chat"
)

// Capability is the classification capability the extractor consumes. It
// returns raw per-label scores over a fixed vocabulary; ordering is the
// classifier's own and is preserved on ties.
type Capability interface {
	Classify(ctx context.Context, text string) ([]analysis.Score, error)
}

// TopSignals caps how many ranked signals a turn carries.
const TopSignals = 2

// Extractor normalizes raw classifier output into the ranked, capped signal
// list the rest of the pipeline consumes. Classification failures are not
// retried; they collapse to the sentinel signal and flow onward as data.
type Extractor struct {
	capability Capability
}

// NewExtractor wraps a classification capability.
func NewExtractor(capability Capability) *Extractor {
	return &Extractor{capability: capability}
}

// Extract classifies one utterance and returns at most TopSignals signals
// sorted by descending confidence, ties keeping the classifier's order.
// It never returns an error: any failure yields the sentinel list.
func (e *Extractor) Extract(ctx context.Context, text string) []chat.EmotionSignal {
	if e == nil || e.capability == nil {
		return chat.SentinelSignals()
	}

	scores, err := e.capability.Classify(ctx, text)
	if err != nil {
		log.Printf("[emotion] classification failed: %v", err)
		return chat.SentinelSignals()
	}

	ranked := make([]chat.EmotionSignal, 0, len(scores))
	for _, s := range scores {
		label := strings.TrimSpace(s.Label)
		if label == "" {
			continue
		}
		confidence := s.Value
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		ranked = append(ranked, chat.EmotionSignal{Label: label, Confidence: confidence})
	}

	if len(ranked) == 0 {
		log.Printf("[emotion] classifier returned no usable labels")
		return chat.SentinelSignals()
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	if len(ranked) > TopSignals {
		ranked = ranked[:TopSignals]
	}
	return ranked
}

// Summary renders signals as a human-readable line, e.g.
// "joy (92%), excitement (81%)". An empty list reads as "unclear".
func Summary(signals []chat.EmotionSignal) string {
	if len(signals) == 0 {
		return "unclear"
	}

	parts := make([]string, 0, len(signals))
	for _, s := range signals {
		parts = append(parts, fmt.Sprintf("%s (%.0f%%)", s.Label, s.Confidence*100))
	}
	return strings.Join(parts, ", ")
}
