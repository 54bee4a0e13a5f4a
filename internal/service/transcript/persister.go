package transcript

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MohamedImran7868/Mira/internal/model/chat"
)

// Persister owns the append-only transcript logs and their durable
// snapshots. Write failures are logged and reported but must never block or
// corrupt a live conversation, so callers treat Snapshot errors as
// operational noise.
type Persister struct {
	dir string

	mu   sync.RWMutex
	logs map[string]*sessionLog
}

type sessionLog struct {
	mu      sync.Mutex
	turns   []chat.ConversationTurn
	summary *chat.SessionSummary
}

// NewPersister writes snapshots under dir, created on demand.
func NewPersister(dir string) *Persister {
	return &Persister{dir: dir, logs: make(map[string]*sessionLog)}
}

func (p *Persister) sessionLogFor(sessionID string) *sessionLog {
	p.mu.RLock()
	l, ok := p.logs[sessionID]
	p.mu.RUnlock()
	if ok {
		return l
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok = p.logs[sessionID]; ok {
		return l
	}
	l = &sessionLog{}
	p.logs[sessionID] = l
	return l
}

// Log appends a completed turn. Prior entries are never mutated.
func (p *Persister) Log(sessionID string, turn chat.ConversationTurn) {
	l := p.sessionLogFor(sessionID)
	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()
}

// AppendSummary attaches the closing dominant-emotion tag. It reports false
// without touching the log when the session is already tagged, which keeps
// repeated close calls from stacking duplicate summaries.
func (p *Persister) AppendSummary(sessionID, dominant string) bool {
	l := p.sessionLogFor(sessionID)
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.summary != nil {
		return false
	}
	l.summary = &chat.SessionSummary{Tag: chat.SummaryTag, Value: dominant}
	return true
}

// Turns returns a copy of the session's logged turns plus its summary, if
// any.
func (p *Persister) Turns(sessionID string) ([]chat.ConversationTurn, *chat.SessionSummary) {
	l := p.sessionLogFor(sessionID)
	l.mu.Lock()
	defer l.mu.Unlock()

	turns := append([]chat.ConversationTurn(nil), l.turns...)
	if l.summary == nil {
		return turns, nil
	}
	summary := *l.summary
	return turns, &summary
}

// Snapshot serializes the session's ordered log to a timestamp-named file
// and overwrites the fixed "latest" file with identical content.
func (p *Persister) Snapshot(sessionID string) error {
	l := p.sessionLogFor(sessionID)
	l.mu.Lock()
	records := make([]any, 0, len(l.turns)+1)
	for _, turn := range l.turns {
		records = append(records, turn)
	}
	if l.summary != nil {
		records = append(records, *l.summary)
	}
	l.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create transcript dir: %w", err)
	}

	stamp := time.Now().Format("20060102_1504")
	timestamped := filepath.Join(p.dir, fmt.Sprintf("conversation_%s_%s.json", sessionID, stamp))
	latest := filepath.Join(p.dir, fmt.Sprintf("conversation_%s_latest.json", sessionID))

	if err := os.WriteFile(timestamped, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript %s: %w", timestamped, err)
	}
	if err := os.WriteFile(latest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript %s: %w", latest, err)
	}

	log.Printf("[transcript] snapshot saved to %s and %s", timestamped, latest)
	return nil
}
