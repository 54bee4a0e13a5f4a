package emotion

import "testing"

func TestScoreTextJoyful(t *testing.T) {
	scores := ScoreText("I just got a promotion and I'm so happy!")
	if len(scores) == 0 {
		t.Fatal("expected at least one score")
	}
	if scores[0].Label != "joy" {
		t.Fatalf("expected joy on top, got %s", scores[0].Label)
	}
	for _, s := range scores {
		if s.Value <= 0 || s.Value > 1 {
			t.Fatalf("score out of range for %s: %f", s.Label, s.Value)
		}
	}
}

func TestScoreTextNoMatchFallsBackToNeutral(t *testing.T) {
	scores := ScoreText("the meeting is at three")
	if len(scores) != 1 {
		t.Fatalf("expected single neutral score, got %d", len(scores))
	}
	if scores[0].Label != "neutral" {
		t.Fatalf("expected neutral, got %s", scores[0].Label)
	}
}

func TestScoreTextEmptyInput(t *testing.T) {
	if scores := ScoreText("   "); scores != nil {
		t.Fatalf("expected nil for blank input, got %v", scores)
	}
}

func TestScoreTextDescendingOrder(t *testing.T) {
	scores := ScoreText("I'm scared and worried but also a little relieved")
	for i := 1; i < len(scores); i++ {
		if scores[i].Value > scores[i-1].Value {
			t.Fatalf("scores not descending at %d: %v", i, scores)
		}
	}
}

func TestScoreTextExclamationBoost(t *testing.T) {
	plain := ScoreText("I am excited")
	shouted := ScoreText("I am excited!!!")

	find := func(scores []Score) float64 {
		for _, s := range scores {
			if s.Label == "excitement" {
				return s.Value
			}
		}
		return 0
	}

	if find(shouted) <= find(plain) {
		t.Fatalf("expected exclamation boost: plain=%f shouted=%f", find(plain), find(shouted))
	}
}
