package server

import (
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/pokerlite/pokerlite/pkg/poker"
)

func createTestLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("TEST")
	log.SetLevel(slog.LevelOff)
	return log
}

// recordingBroadcaster keeps everything sent to players.
type recordingBroadcaster struct {
	mu        sync.Mutex
	notes     map[string][]string
	states    map[string]poker.TableState
	showdowns map[string][]*poker.ShowdownResult
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{
		notes:     make(map[string][]string),
		states:    make(map[string]poker.TableState),
		showdowns: make(map[string][]*poker.ShowdownResult),
	}
}

func (b *recordingBroadcaster) Notify(tableID, playerID, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notes[playerID] = append(b.notes[playerID], message)
}

func (b *recordingBroadcaster) SendState(tableID, playerID string, state poker.TableState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[playerID] = state
}

func (b *recordingBroadcaster) SendShowdown(tableID, playerID string, result *poker.ShowdownResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.showdowns[playerID] = append(b.showdowns[playerID], result)
}

func (b *recordingBroadcaster) notesFor(playerID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.notes[playerID]...)
}

func (b *recordingBroadcaster) stateFor(playerID string) (poker.TableState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[playerID]
	return st, ok
}

func (b *recordingBroadcaster) showdownsFor(playerID string) []*poker.ShowdownResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*poker.ShowdownResult(nil), b.showdowns[playerID]...)
}

// waitForNote waits for a narration line for playerID containing substr.
func (b *recordingBroadcaster) waitForNote(t *testing.T, playerID, substr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, n := range b.notesFor(playerID) {
			if strings.Contains(n, substr) {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "no note %q for %s; got %q", substr, playerID, b.notesFor(playerID))
}

// InMemoryDB is a Database kept in memory for tests.
type InMemoryDB struct {
	mu    sync.Mutex
	hands []*HandRecord
}

func NewInMemoryDB() *InMemoryDB {
	return &InMemoryDB{}
}

func (m *InMemoryDB) SaveHand(h *HandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = append(m.hands, h)
	return nil
}

func (m *InMemoryDB) RecentHands(tableID string, limit int) ([]*HandRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*HandRecord
	for _, h := range m.hands {
		if h.TableID == tableID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HandNumber > out[j].HandNumber })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *InMemoryDB) Close() error {
	return nil
}

func (m *InMemoryDB) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hands)
}

// newTestServer returns a server with a fast timer and no runout pause.
func newTestServer(t *testing.T) (*Server, *recordingBroadcaster, *InMemoryDB) {
	t.Helper()
	b := newRecordingBroadcaster()
	db := NewInMemoryDB()
	s := NewServer(&Config{
		TickInterval: 5 * time.Millisecond,
		RunoutDelay:  -1,
		EventWorkers: 2,
		Seed:         1,
	}, db, b)
	t.Cleanup(s.Stop)
	return s, b, db
}
