package generate

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/MohamedImran7868/Mira/internal/service/prompting"
)

// OpenAICompleter is the alternate generation capability, talking to the
// OpenAI chat-completions API with the same fixed parameters as the Ark
// backend.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter builds a client from the supplied credentials.
func NewOpenAICompleter(apiKey, modelName string) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("openai model name is required")
	}
	return &OpenAICompleter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  modelName,
	}, nil
}

func (c *OpenAICompleter) params(p prompting.Prompt) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(p.History)+2)
	for _, msg := range p.Messages() {
		switch msg.Role {
		case schema.System:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		MaxTokens:   openai.Int(MaxTokens),
		Temperature: openai.Float(float64(p.Temperature)),
		TopP:        openai.Float(TopP),
		Stop: openai.ChatCompletionNewParamsStopUnion{
			OfString: openai.String(prompting.StopToken),
		},
	}
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, p prompting.Prompt) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(p))
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamComplete implements Completer.
func (c *OpenAICompleter) StreamComplete(ctx context.Context, p prompting.Prompt) (TokenStream, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(p))
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai stream failed to open: %w", err)
	}
	return &openaiTokenStream{stream: stream}, nil
}

type openaiTokenStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *openaiTokenStream) Recv() (string, error) {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}
	if err := s.stream.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *openaiTokenStream) Close() {
	_ = s.stream.Close()
}
