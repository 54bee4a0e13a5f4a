package orchestrator

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedImran7868/Mira/internal/model/chat"
	"github.com/MohamedImran7868/Mira/internal/service/emotion"
	"github.com/MohamedImran7868/Mira/internal/service/generate"
	"github.com/MohamedImran7868/Mira/internal/service/prompting"
	"github.com/MohamedImran7868/Mira/internal/service/session"
	"github.com/MohamedImran7868/Mira/internal/service/transcript"
)

// ErrEmptyInput guards the contract that blank input is rejected at the
// transport boundary and never drives a turn.
var ErrEmptyInput = errors.New("input text is empty")

// Service runs one conversational turn end to end: context read, emotion
// extraction, prompt assembly, streamed generation, then context append and
// transcript persistence. All turns of one session are serialized in the
// order they were accepted; turns of different sessions run concurrently.
type Service struct {
	extractor   *emotion.Extractor
	store       session.Store
	coordinator *generate.Coordinator
	transcripts *transcript.Persister

	locks sync.Map // sessionID -> *sync.Mutex
}

// New wires the orchestrator from its collaborators.
func New(extractor *emotion.Extractor, store session.Store, coordinator *generate.Coordinator, transcripts *transcript.Persister) *Service {
	return &Service{
		extractor:   extractor,
		store:       store,
		coordinator: coordinator,
		transcripts: transcripts,
	}
}

func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// HandleTurn starts one turn and returns its stream. The session stays
// locked until the stream settles (terminal chunk consumed, or Close), so a
// turn's context mutation lands before the next turn of the same session
// reads context.
func (s *Service) HandleTurn(ctx context.Context, sessionID, text string) (*TurnStream, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()

	win, err := s.store.Context(ctx, sessionID)
	if err != nil {
		// A context-store outage degrades to an empty window rather than
		// dropping the turn; the reply just loses its history.
		log.Printf("[orchestrator] context read failed for session=%s: %v", sessionID, err)
		win = chat.ContextWindow{}
	}

	signals := s.extractor.Extract(ctx, text)
	prompt := prompting.Assemble(win, text, signals)

	return &TurnStream{
		SessionID:      sessionID,
		Emotions:       signals,
		EmotionSummary: emotion.Summary(signals),
		svc:            s,
		ctx:            ctx,
		lock:           lock,
		userText:       text,
		stream:         s.coordinator.Generate(ctx, prompt),
	}, nil
}

// TurnResult is the collapsed whole-response form of a turn.
type TurnResult struct {
	Reply          string
	Emotions       []chat.EmotionSignal
	EmotionSummary string
}

// HandleTurnSync drives the turn to completion and returns the full reply.
func (s *Service) HandleTurnSync(ctx context.Context, sessionID, text string) (TurnResult, error) {
	stream, err := s.HandleTurn(ctx, sessionID, text)
	if err != nil {
		return TurnResult{}, err
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return TurnResult{}, recvErr
		}
		reply.WriteString(chunk.Content)
		if chunk.Done {
			break
		}
	}

	return TurnResult{
		Reply:          reply.String(),
		Emotions:       stream.Emotions,
		EmotionSummary: stream.EmotionSummary,
	}, nil
}

// CloseSession seals the session, tags the transcript with the dominant
// emotion exactly once and writes a final snapshot. Closing an already
// closed or never-seen session returns nil without touching the transcript.
func (s *Service) CloseSession(ctx context.Context, sessionID string) (*chat.SessionSummary, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	dominant, ok, err := s.store.Close(ctx, sessionID)
	if errors.Is(err, session.ErrSessionClosed) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	if !s.transcripts.AppendSummary(sessionID, dominant) {
		log.Printf("[orchestrator] summary already recorded for session=%s", sessionID)
	}
	if err := s.transcripts.Snapshot(sessionID); err != nil {
		log.Printf("[orchestrator] final snapshot failed for session=%s: %v", sessionID, err)
	}

	return &chat.SessionSummary{Tag: chat.SummaryTag, Value: dominant}, nil
}

// TurnStream is the lazy reply of one turn. The emotion fields are available
// immediately; the reply arrives chunk by chunk. It is single-pass and not
// restartable.
type TurnStream struct {
	SessionID      string
	Emotions       []chat.EmotionSignal
	EmotionSummary string

	svc      *Service
	ctx      context.Context
	lock     *sync.Mutex
	userText string
	stream   *generate.Stream
	reply    strings.Builder
	settled  sync.Once
}

// Recv forwards the next chunk. Consuming the terminal chunk commits the
// turn: the exchange is appended to the session context and logged to the
// transcript. A cancellation before that point discards the turn instead.
func (t *TurnStream) Recv() (generate.Chunk, error) {
	chunk, err := t.stream.Recv()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			t.settle(false)
		}
		return generate.Chunk{}, err
	}

	t.reply.WriteString(chunk.Content)
	if chunk.Done {
		t.settle(true)
	}
	return chunk, nil
}

// Close releases the stream and the session. If the terminal chunk was
// never consumed the turn is discarded, not recorded as completed.
func (t *TurnStream) Close() {
	t.stream.Close()
	t.settle(false)
}

func (t *TurnStream) settle(completed bool) {
	t.settled.Do(func() {
		defer t.lock.Unlock()

		if !completed {
			log.Printf("[orchestrator] discarding aborted turn for session=%s", t.SessionID)
			return
		}

		turn := chat.ConversationTurn{
			ID:        uuid.NewString(),
			SessionID: t.SessionID,
			Timestamp: time.Now().UTC(),
			UserText:  t.userText,
			Emotions:  t.Emotions,
			BotText:   t.reply.String(),
		}

		// The request context may already be done; bookkeeping still has to
		// land, so it runs on a fresh context.
		if err := t.svc.store.AppendTurn(context.Background(), t.SessionID, turn); err != nil {
			log.Printf("[orchestrator] failed to append turn for session=%s: %v", t.SessionID, err)
		}

		t.svc.transcripts.Log(t.SessionID, turn)
		if err := t.svc.transcripts.Snapshot(t.SessionID); err != nil {
			log.Printf("[orchestrator] snapshot failed for session=%s: %v", t.SessionID, err)
		}
	})
}
