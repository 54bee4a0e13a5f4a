package prompting

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/MohamedImran7868/Mira/internal/model/chat"
	"github.com/MohamedImran7868/Mira/internal/service/emotion"
)

// StopToken ends each role block in the flat rendering and doubles as the
// generation stop sequence for completion-style backends.
const StopToken = "<|eot_id|>"

const (
	personaDescription = "You are Mira, an emotionally intelligent assistant. " +
		"You read the user's mood and respond with warmth and genuine attention."
	toneInstruction = "Use a cheerful and casual tone."
)

// Temperature policy: keyed by the single most recently observed emotion,
// not a weighted history, so behavior stays predictable and explainable.
var temperatureByEmotion = map[string]float32{
	"sadness": 0.6,
	"fear":    0.6,
	"joy":     0.9,
	"anger":   0.9,
}

const defaultTemperature = 0.75

// TemperatureFor maps a dominant emotion label to a generation temperature.
func TemperatureFor(label string) float32 {
	if t, ok := temperatureByEmotion[label]; ok {
		return t
	}
	return defaultTemperature
}

// Prompt is the fully assembled generation input: one system block, up to
// TurnWindowCap prior exchanges oldest first, then the current user message.
type Prompt struct {
	System      string
	History     []*schema.Message
	UserText    string
	Temperature float32
}

// Assemble renders the prompt for one turn. It is pure: identical context
// and signals always produce an identical Prompt.
func Assemble(win chat.ContextWindow, userText string, signals []chat.EmotionSignal) Prompt {
	var system strings.Builder
	system.WriteString(personaDescription)
	system.WriteString("\n")
	system.WriteString(toneInstruction)
	system.WriteString("\nUser emotion summary: ")
	system.WriteString(emotion.Summary(signals))

	history := make([]*schema.Message, 0, len(win.RecentTurns)*2)
	for _, turn := range win.RecentTurns {
		history = append(history,
			schema.UserMessage(turn.UserText),
			schema.AssistantMessage(turn.BotText, nil),
		)
	}

	return Prompt{
		System:      system.String(),
		History:     history,
		UserText:    userText,
		Temperature: TemperatureFor(win.LastEmotion()),
	}
}

// Messages renders the prompt as the chat-model message sequence.
func (p Prompt) Messages() []*schema.Message {
	messages := make([]*schema.Message, 0, len(p.History)+2)
	messages = append(messages, schema.SystemMessage(p.System))
	messages = append(messages, p.History...)
	messages = append(messages, schema.UserMessage(p.UserText))
	return messages
}

// Text renders the prompt as a Llama-3 role-tagged string ending with an
// open assistant header, for completion-style backends.
func (p Prompt) Text() string {
	var b strings.Builder
	writeBlock := func(role, content string) {
		b.WriteString("<|start_header_id|>")
		b.WriteString(role)
		b.WriteString("<|end_header_id|>\n")
		b.WriteString(content)
		b.WriteString("\n")
		b.WriteString(StopToken)
		b.WriteString("\n")
	}

	writeBlock("system", p.System)
	for _, msg := range p.History {
		switch msg.Role {
		case schema.User:
			writeBlock("user", msg.Content)
		case schema.Assistant:
			writeBlock("assistant", msg.Content)
		}
	}
	writeBlock("user", p.UserText)
	b.WriteString("<|start_header_id|>assistant<|end_header_id|>\n")
	return b.String()
}
