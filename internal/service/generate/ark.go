package generate

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/MohamedImran7868/Mira/internal/service/prompting"
)

// ArkCompleter adapts an eino chat model (Ark-backed in production) to the
// Completer interface.
type ArkCompleter struct {
	chatModel model.ChatModel
}

// NewArkCompleter wraps an already-initialized chat model.
func NewArkCompleter(chatModel model.ChatModel) (*ArkCompleter, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	return &ArkCompleter{chatModel: chatModel}, nil
}

func requestOptions(p prompting.Prompt) []model.Option {
	return []model.Option{
		model.WithMaxTokens(MaxTokens),
		model.WithTemperature(p.Temperature),
		model.WithTopP(TopP),
		model.WithStop([]string{prompting.StopToken}),
	}
}

// Complete implements Completer.
func (c *ArkCompleter) Complete(ctx context.Context, p prompting.Prompt) (string, error) {
	msg, err := c.chatModel.Generate(ctx, p.Messages(), requestOptions(p)...)
	if err != nil {
		return "", fmt.Errorf("chat model generate failed: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("chat model returned nil message")
	}
	return msg.Content, nil
}

// StreamComplete implements Completer.
func (c *ArkCompleter) StreamComplete(ctx context.Context, p prompting.Prompt) (TokenStream, error) {
	reader, err := c.chatModel.Stream(ctx, p.Messages(), requestOptions(p)...)
	if err != nil {
		return nil, fmt.Errorf("chat model stream failed: %w", err)
	}
	return &arkTokenStream{reader: reader}, nil
}

type arkTokenStream struct {
	reader *schema.StreamReader[*schema.Message]
}

func (s *arkTokenStream) Recv() (string, error) {
	for {
		msg, err := s.reader.Recv()
		if err != nil {
			return "", err
		}
		if msg == nil {
			continue
		}
		return msg.Content, nil
	}
}

func (s *arkTokenStream) Close() {
	s.reader.Close()
}
