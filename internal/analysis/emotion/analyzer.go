package emotion

import (
	"sort"
	"strings"
)

// Score is one label with its raw classifier score. Scores are independent
// per-label values, not a probability distribution.
type Score struct {
	Label string
	Value float64
}

// Vocabulary is the curated subset of the GoEmotions label set the heuristic
// scorer can produce. The LLM classifier is prompted with the same set so
// both capabilities speak one vocabulary.
var Vocabulary = []string{
	"joy", "sadness", "anger", "fear", "surprise", "disgust",
	"excitement", "gratitude", "love", "nervousness", "disappointment",
	"annoyance", "curiosity", "relief", "neutral",
}

var keywordBuckets = map[string][]string{
	"joy": {
		"happy", "glad", "great", "wonderful", "joy", "delight", "smile",
		"haha", "lol", "awesome", "amazing", "promotion", "celebrate", "yay",
	},
	"sadness": {
		"sad", "unhappy", "cry", "depressed", "down", "miserable", "lonely",
		"heartbroken", "grief", "hopeless",
	},
	"anger": {
		"angry", "furious", "rage", "mad", "pissed", "hate", "outrage",
		"fed up", "sick of", "infuriating",
	},
	"fear": {
		"afraid", "scared", "terrified", "fear", "panic", "dread",
		"frightened", "horror",
	},
	"surprise": {
		"wow", "whoa", "unexpected", "surprised", "can't believe",
		"no way", "shocking",
	},
	"disgust": {
		"gross", "disgusting", "revolting", "nasty", "yuck",
	},
	"excitement": {
		"excited", "can't wait", "thrilled", "hyped", "pumped", "stoked",
		"let's go",
	},
	"gratitude": {
		"thank", "thanks", "grateful", "appreciate", "thankful",
	},
	"love": {
		"love", "adore", "cherish", "fond of", "sweetheart",
	},
	"nervousness": {
		"nervous", "anxious", "worried", "uneasy", "on edge", "jitters",
	},
	"disappointment": {
		"disappointed", "let down", "bummed", "expected better",
	},
	"annoyance": {
		"annoyed", "annoying", "irritating", "bothers me", "ugh",
	},
	"curiosity": {
		"curious", "wonder", "what if", "how does", "why does",
	},
	"relief": {
		"relieved", "relief", "phew", "finally over",
	},
}

// Exclamation marks push the energetic labels, mirroring how emphasis reads
// in short chat messages.
var punctuationBoost = map[string]float64{
	"joy":        0.05,
	"excitement": 0.08,
}

const (
	baseHitScore  = 0.45
	extraHitScore = 0.15
	maxScore      = 0.97
)

// ScoreText runs the keyword heuristic over one utterance and returns every
// label that matched, strongest first. An utterance with no matches scores
// as neutral with a low floor so the capability never returns an empty set.
func ScoreText(text string) []Score {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil
	}

	totals := make(map[string]float64)
	for label, keywords := range keywordBuckets {
		hits := 0
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				hits++
			}
		}
		if hits > 0 {
			totals[label] = baseHitScore + extraHitScore*float64(hits-1)
		}
	}

	if exclamations := strings.Count(text, "!"); exclamations > 0 {
		for label, boost := range punctuationBoost {
			if _, ok := totals[label]; ok {
				totals[label] += boost * float64(exclamations)
			}
		}
	}

	if len(totals) == 0 {
		return []Score{{Label: "neutral", Value: 0.35}}
	}

	scores := make([]Score, 0, len(totals))
	for label, value := range totals {
		if value > maxScore {
			value = maxScore
		}
		scores = append(scores, Score{Label: label, Value: value})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].Label < scores[j].Label
	})

	return scores
}
