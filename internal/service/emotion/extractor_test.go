package emotion

import (
	"context"
	"errors"
	"testing"

	analysis "github.com/MohamedImran7868/Mira/internal/analysis/emotion"
	"github.com/MohamedImran7868/Mira/internal/model/chat"
)

type stubCapability struct {
	scores []analysis.Score
	err    error
}

func (s *stubCapability) Classify(_ context.Context, _ string) ([]analysis.Score, error) {
	return s.scores, s.err
}

func TestExtractTopTwoDescending(t *testing.T) {
	e := NewExtractor(&stubCapability{scores: []analysis.Score{
		{Label: "surprise", Value: 0.4},
		{Label: "joy", Value: 0.92},
		{Label: "excitement", Value: 0.81},
	}})

	signals := e.Extract(context.Background(), "I just got a promotion!")
	if len(signals) != 2 {
		t.Fatalf("expected exactly 2 signals, got %d", len(signals))
	}
	if signals[0].Label != "joy" || signals[1].Label != "excitement" {
		t.Fatalf("wrong ranking: %v", signals)
	}
	if signals[0].Confidence != 0.92 {
		t.Fatalf("confidence must not be re-normalized: %f", signals[0].Confidence)
	}
}

func TestExtractTiePreservesClassifierOrder(t *testing.T) {
	e := NewExtractor(&stubCapability{scores: []analysis.Score{
		{Label: "fear", Value: 0.5},
		{Label: "nervousness", Value: 0.5},
	}})

	signals := e.Extract(context.Background(), "uh oh")
	if signals[0].Label != "fear" || signals[1].Label != "nervousness" {
		t.Fatalf("tie order not preserved: %v", signals)
	}
}

func TestExtractSingleLabel(t *testing.T) {
	e := NewExtractor(&stubCapability{scores: []analysis.Score{{Label: "neutral", Value: 0.35}}})

	signals := e.Extract(context.Background(), "ok")
	if len(signals) != 1 || signals[0].Label != "neutral" {
		t.Fatalf("unexpected signals: %v", signals)
	}
}

func TestExtractFailureModesYieldSentinel(t *testing.T) {
	cases := map[string]Capability{
		"capability error": &stubCapability{err: errors.New("boom")},
		"empty result":     &stubCapability{},
		"malformed labels": &stubCapability{scores: []analysis.Score{{Label: "  "}}},
		"nil capability":   nil,
	}

	for name, capability := range cases {
		signals := NewExtractor(capability).Extract(context.Background(), "anything")
		if !chat.IsSentinel(signals) {
			t.Errorf("%s: expected sentinel, got %v", name, signals)
		}
	}
}

func TestExtractClampsConfidence(t *testing.T) {
	e := NewExtractor(&stubCapability{scores: []analysis.Score{
		{Label: "joy", Value: 1.7},
		{Label: "fear", Value: -0.2},
	}})

	signals := e.Extract(context.Background(), "!")
	if signals[0].Confidence != 1 || signals[1].Confidence != 0 {
		t.Fatalf("confidence not clamped: %v", signals)
	}
}

func TestSummaryFormatting(t *testing.T) {
	signals := []chat.EmotionSignal{
		{Label: "joy", Confidence: 0.92},
		{Label: "excitement", Confidence: 0.81},
	}
	if got := Summary(signals); got != "joy (92%), excitement (81%)" {
		t.Fatalf("unexpected summary: %q", got)
	}

	if got := Summary(nil); got != "unclear" {
		t.Fatalf("empty signals should read unclear, got %q", got)
	}

	if got := Summary(chat.SentinelSignals()); got != "error (0%)" {
		t.Fatalf("sentinel renders literally: %q", got)
	}
}

func TestParseClassifierOutput(t *testing.T) {
	scores, err := parseClassifierOutput("Here you go:\n```json\n[{\"label\":\"Joy\",\"score\":0.8}]\n```")
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(scores) != 1 || scores[0].Label != "joy" {
		t.Fatalf("unexpected scores: %v", scores)
	}

	if _, err := parseClassifierOutput("no json here"); err == nil {
		t.Fatal("expected error for missing array")
	}
	if _, err := parseClassifierOutput("[]"); err == nil {
		t.Fatal("expected error for empty array")
	}
}
