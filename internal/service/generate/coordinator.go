package generate

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/MohamedImran7868/Mira/internal/service/prompting"
)

// Fixed generation parameters applied to every request.
const (
	MaxTokens = 256
	TopP      = 0.9
)

// User-facing degradation messages. Both flow to the caller as ordinary
// chunks, never as raised faults.
const (
	UnavailableMessage = "Sorry, my generative brain isn't working right now."
	TroubleMessage     = "I'm having trouble responding right now."
)

// TokenStream is a single-pass fragment source. Recv returns io.EOF once
// the underlying stream is exhausted.
type TokenStream interface {
	Recv() (string, error)
	Close()
}

// Completer is the narrow generation capability interface. Its weights are
// loaded once per process and shared read-only across sessions.
type Completer interface {
	Complete(ctx context.Context, p prompting.Prompt) (string, error)
	StreamComplete(ctx context.Context, p prompting.Prompt) (TokenStream, error)
}

// Chunk is one unit of streamed output. The terminal chunk of a reply has
// Done set; a reply yields exactly one terminal chunk.
type Chunk struct {
	Content string `json:"chunk"`
	Done    bool   `json:"done"`
}

// Coordinator drives the generation capability and enforces the fallback
// contract: a missing or failing capability degrades to fixed messages, and
// partial output already delivered is never retracted.
type Coordinator struct {
	completer      Completer
	streamResponse bool
}

// NewCoordinator accepts a nil completer; generation then degrades to the
// apology path instead of failing at startup. With streamResponse false the
// backend is asked for the whole reply in one call and the result flows to
// callers as a single terminal chunk.
func NewCoordinator(completer Completer, streamResponse bool) *Coordinator {
	return &Coordinator{completer: completer, streamResponse: streamResponse}
}

// Ready reports whether a generation capability is attached.
func (c *Coordinator) Ready() bool {
	return c != nil && c.completer != nil
}

// Generate starts one reply. The returned stream is lazy, finite and not
// restartable; it never surfaces capability faults as errors, only context
// cancellation.
func (c *Coordinator) Generate(ctx context.Context, p prompting.Prompt) *Stream {
	if !c.Ready() {
		return singleChunkStream(UnavailableMessage)
	}

	if !c.streamResponse {
		reply, err := c.completer.Complete(ctx, p)
		if err != nil {
			log.Printf("[generate] completion failed: %v", err)
			return singleChunkStream(UnavailableMessage)
		}
		return singleChunkStream(reply)
	}

	tokens, err := c.completer.StreamComplete(ctx, p)
	if err != nil {
		log.Printf("[generate] failed to open stream: %v", err)
		return singleChunkStream(UnavailableMessage)
	}

	return &Stream{ctx: ctx, tokens: tokens}
}

// GenerateSync collapses Generate to one blocking call. Its result is the
// exact concatenation of the non-empty chunks the streaming path yields for
// the same inputs. The only error it returns is context cancellation.
func (c *Coordinator) GenerateSync(ctx context.Context, p prompting.Prompt) (string, error) {
	stream := c.Generate(ctx, p)
	defer stream.Close()

	var b strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		b.WriteString(chunk.Content)
		if chunk.Done {
			return b.String(), nil
		}
	}
}

// Stream yields reply chunks one at a time. After the terminal chunk every
// Recv returns io.EOF.
type Stream struct {
	ctx      context.Context
	tokens   TokenStream
	single   *Chunk
	finished bool
}

func singleChunkStream(message string) *Stream {
	return &Stream{single: &Chunk{Content: message, Done: true}}
}

// Recv returns the next chunk. A capability fault mid-stream converts to a
// terminal trouble chunk; cancellation of the request context surfaces as
// that context's error and stops all further pulling.
func (s *Stream) Recv() (Chunk, error) {
	if s.finished {
		return Chunk{}, io.EOF
	}

	if s.single != nil {
		s.finished = true
		return *s.single, nil
	}

	if err := s.ctx.Err(); err != nil {
		s.finished = true
		s.tokens.Close()
		return Chunk{}, err
	}

	token, err := s.tokens.Recv()
	if errors.Is(err, io.EOF) {
		s.finished = true
		return Chunk{Done: true}, nil
	}
	if err != nil {
		s.finished = true
		s.tokens.Close()
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return Chunk{}, ctxErr
		}
		log.Printf("[generate] stream failed mid-reply: %v", err)
		return Chunk{Content: TroubleMessage, Done: true}, nil
	}

	return Chunk{Content: token}, nil
}

// Close releases the underlying token stream. Safe to call at any point and
// after exhaustion.
func (s *Stream) Close() {
	s.finished = true
	if s.tokens != nil {
		s.tokens.Close()
	}
}
