package orchestrator

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	analysis "github.com/MohamedImran7868/Mira/internal/analysis/emotion"
	"github.com/MohamedImran7868/Mira/internal/model/chat"
	"github.com/MohamedImran7868/Mira/internal/service/emotion"
	"github.com/MohamedImran7868/Mira/internal/service/generate"
	"github.com/MohamedImran7868/Mira/internal/service/prompting"
	"github.com/MohamedImran7868/Mira/internal/service/session"
	"github.com/MohamedImran7868/Mira/internal/service/transcript"
)

type fakeClassifier struct {
	scores []analysis.Score
	err    error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) ([]analysis.Score, error) {
	return f.scores, f.err
}

type fakeCompleter struct {
	tokens []string
	block  chan struct{} // when set, Recv waits here before each token
}

func (f *fakeCompleter) Complete(_ context.Context, _ prompting.Prompt) (string, error) {
	var all string
	for _, t := range f.tokens {
		all += t
	}
	return all, nil
}

func (f *fakeCompleter) StreamComplete(_ context.Context, _ prompting.Prompt) (generate.TokenStream, error) {
	return &fakeTokens{tokens: f.tokens, block: f.block}, nil
}

type fakeTokens struct {
	tokens []string
	block  chan struct{}
	pos    int
}

func (f *fakeTokens) Recv() (string, error) {
	if f.block != nil {
		<-f.block
	}
	if f.pos >= len(f.tokens) {
		return "", io.EOF
	}
	token := f.tokens[f.pos]
	f.pos++
	return token, nil
}

func (f *fakeTokens) Close() {}

func newTestService(t *testing.T, classifier emotion.Capability, completer generate.Completer) (*Service, session.Store, *transcript.Persister) {
	t.Helper()
	store := session.NewMemoryStore()
	transcripts := transcript.NewPersister(t.TempDir())
	svc := New(emotion.NewExtractor(classifier), store, generate.NewCoordinator(completer, true), transcripts)
	return svc, store, transcripts
}

func TestHandleTurnSyncHappyPath(t *testing.T) {
	classifier := &fakeClassifier{scores: []analysis.Score{
		{Label: "joy", Value: 0.92},
		{Label: "excitement", Value: 0.81},
		{Label: "surprise", Value: 0.4},
	}}
	completer := &fakeCompleter{tokens: []string{"Congrats", "!"}}
	svc, store, transcripts := newTestService(t, classifier, completer)

	result, err := svc.HandleTurnSync(context.Background(), "s1", "I just got a promotion!")
	if err != nil {
		t.Fatalf("HandleTurnSync err: %v", err)
	}

	if result.Reply != "Congrats!" {
		t.Fatalf("unexpected reply: %q", result.Reply)
	}
	if result.EmotionSummary != "joy (92%), excitement (81%)" {
		t.Fatalf("unexpected summary: %q", result.EmotionSummary)
	}
	if len(result.Emotions) != 2 {
		t.Fatalf("expected top-2 signals, got %d", len(result.Emotions))
	}

	win, _ := store.Context(context.Background(), "s1")
	if len(win.RecentEmotions) != 2 || win.RecentEmotions[0] != "joy" {
		t.Fatalf("context not updated: %v", win.RecentEmotions)
	}
	if len(win.RecentTurns) != 1 || win.RecentTurns[0].BotText != "Congrats!" {
		t.Fatalf("turn window not updated: %v", win.RecentTurns)
	}

	turns, _ := transcripts.Turns("s1")
	if len(turns) != 1 || turns[0].UserText != "I just got a promotion!" {
		t.Fatalf("transcript not updated: %v", turns)
	}
}

func TestHandleTurnRejectsBlankInput(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeClassifier{}, &fakeCompleter{})
	if _, err := svc.HandleTurn(context.Background(), "s1", "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestClassifierFailureYieldsSentinelTurn(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("capability outage")}
	svc, store, _ := newTestService(t, classifier, &fakeCompleter{tokens: []string{"still here"}})

	result, err := svc.HandleTurnSync(context.Background(), "s1", "hello there")
	if err != nil {
		t.Fatalf("HandleTurnSync err: %v", err)
	}
	if !chat.IsSentinel(result.Emotions) {
		t.Fatalf("expected sentinel signals, got %v", result.Emotions)
	}

	win, _ := store.Context(context.Background(), "s1")
	if len(win.RecentEmotions) != 1 || win.RecentEmotions[0] != chat.SentinelLabel {
		t.Fatalf("sentinel label must enter the window: %v", win.RecentEmotions)
	}
}

func TestGenerationUnavailableStillCompletesTurn(t *testing.T) {
	classifier := &fakeClassifier{scores: []analysis.Score{{Label: "joy", Value: 0.9}}}
	svc, _, transcripts := newTestService(t, classifier, nil)

	result, err := svc.HandleTurnSync(context.Background(), "s1", "hi!")
	if err != nil {
		t.Fatalf("HandleTurnSync err: %v", err)
	}
	if result.Reply != generate.UnavailableMessage {
		t.Fatalf("expected apology reply, got %q", result.Reply)
	}

	turns, _ := transcripts.Turns("s1")
	if len(turns) != 1 || turns[0].BotText != generate.UnavailableMessage {
		t.Fatalf("apology turn must still be logged: %v", turns)
	}
}

func TestAbortedTurnIsDiscarded(t *testing.T) {
	classifier := &fakeClassifier{scores: []analysis.Score{{Label: "joy", Value: 0.9}}}
	block := make(chan struct{}, 8)
	completer := &fakeCompleter{tokens: []string{"one", "two", "three"}, block: block}
	svc, store, transcripts := newTestService(t, classifier, completer)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := svc.HandleTurn(ctx, "s1", "hello")
	if err != nil {
		t.Fatalf("HandleTurn err: %v", err)
	}

	block <- struct{}{}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("first Recv err: %v", err)
	}

	cancel()
	if _, err := stream.Recv(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	stream.Close()
	close(block) // release the fake so the follow-up turn can stream freely

	win, _ := store.Context(context.Background(), "s1")
	if len(win.RecentTurns) != 0 {
		t.Fatalf("aborted turn must not enter the context: %v", win.RecentTurns)
	}
	turns, _ := transcripts.Turns("s1")
	if len(turns) != 0 {
		t.Fatalf("aborted turn must not be logged: %v", turns)
	}

	// The session lock must be released so the next turn proceeds.
	if _, err := svc.HandleTurnSync(context.Background(), "s1", "hello again"); err != nil {
		t.Fatalf("follow-up turn err: %v", err)
	}
}

func TestCloseSessionOnce(t *testing.T) {
	classifier := &fakeClassifier{scores: []analysis.Score{{Label: "joy", Value: 0.9}}}
	svc, _, transcripts := newTestService(t, classifier, &fakeCompleter{tokens: []string{"hi"}})
	ctx := context.Background()

	if _, err := svc.HandleTurnSync(ctx, "s1", "good news!"); err != nil {
		t.Fatalf("turn err: %v", err)
	}

	summary, err := svc.CloseSession(ctx, "s1")
	if err != nil {
		t.Fatalf("CloseSession err: %v", err)
	}
	if summary == nil || summary.Value != "joy" || summary.Tag != chat.SummaryTag {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	again, err := svc.CloseSession(ctx, "s1")
	if err != nil {
		t.Fatalf("second CloseSession err: %v", err)
	}
	if again != nil {
		t.Fatalf("second close must not produce a summary: %+v", again)
	}

	_, recorded := transcripts.Turns("s1")
	if recorded == nil || recorded.Value != "joy" {
		t.Fatalf("transcript summary missing: %+v", recorded)
	}
}

func TestCloseSessionWithoutTurns(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeClassifier{}, &fakeCompleter{})

	summary, err := svc.CloseSession(context.Background(), "never-used")
	if err != nil {
		t.Fatalf("CloseSession err: %v", err)
	}
	if summary != nil {
		t.Fatalf("expected no summary for empty session, got %+v", summary)
	}
}

func TestConcurrentSessionsDoNotInterleaveState(t *testing.T) {
	svc, store, _ := newTestService(t,
		&fakeClassifier{scores: []analysis.Score{{Label: "joy", Value: 0.9}}},
		&fakeCompleter{tokens: []string{"ok"}})
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"A", "B"} {
		wg.Add(1)
		go func(sessionID string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if _, err := svc.HandleTurnSync(ctx, sessionID, "message from "+sessionID); err != nil {
					t.Errorf("turn err for %s: %v", sessionID, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"A", "B"} {
		win, _ := store.Context(ctx, id)
		for _, turn := range win.RecentTurns {
			if turn.UserText != "message from "+id {
				t.Fatalf("session %s holds foreign turn %q", id, turn.UserText)
			}
		}
	}
}
