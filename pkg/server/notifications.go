package server

import (
	"sync"

	"github.com/decred/slog"

	"github.com/pokerlite/pokerlite/pkg/poker"
)

// Broadcaster delivers table output to connected players. It is the boundary
// to whatever transport carries messages; calls happen on event workers, off
// any table lock, and may block only that worker.
type Broadcaster interface {
	// Notify sends a narration line to one player.
	Notify(tableID, playerID, message string)
	// SendState sends the player their own view of the table.
	SendState(tableID, playerID string, state poker.TableState)
	// SendShowdown sends the result of a finished hand. The result is shared
	// between recipients and must not be modified.
	SendShowdown(tableID, playerID string, result *poker.ShowdownResult)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Notify(string, string, string)                      {}
func (nopBroadcaster) SendState(string, string, poker.TableState)         {}
func (nopBroadcaster) SendShowdown(string, string, *poker.ShowdownResult) {}

// NotificationHandler fans narration and showdown events out to every
// recipient of the event.
type NotificationHandler struct {
	log slog.Logger
	b   Broadcaster
}

// NewNotificationHandler creates a handler sending through b.
func NewNotificationHandler(log slog.Logger, b Broadcaster) *NotificationHandler {
	return &NotificationHandler{log: log, b: b}
}

// HandleEvent implements EventHandler.
func (h *NotificationHandler) HandleEvent(event *GameEvent) {
	switch p := event.Payload.(type) {
	case NarrationPayload:
		for _, id := range event.PlayerIDs {
			h.b.Notify(event.TableID, id, p.Message)
		}
	case ShowdownPayload:
		for _, id := range event.PlayerIDs {
			h.b.SendShowdown(event.TableID, id, p.Result)
		}
	case PlayerJoinedPayload:
		h.log.Debugf("table %s: %s joined as %s", event.TableID, p.PlayerID, p.Role)
	case PlayerLeftPayload:
		h.log.Debugf("table %s: %s left", event.TableID, p.PlayerID)
	}
}

// GameStateHandler sends each viewer the view collected for them. A view
// older than one the viewer already received is dropped; two updates may be
// collected in one order and queued in the other.
type GameStateHandler struct {
	b Broadcaster

	mu   sync.Mutex
	sent map[string]map[string]uint64 // table -> viewer -> last Seq sent
}

// NewGameStateHandler creates a handler sending through b.
func NewGameStateHandler(b Broadcaster) *GameStateHandler {
	return &GameStateHandler{b: b, sent: make(map[string]map[string]uint64)}
}

// HandleEvent implements EventHandler.
func (h *GameStateHandler) HandleEvent(event *GameEvent) {
	p, ok := event.Payload.(TableStatePayload)
	if !ok {
		return
	}
	for _, id := range event.PlayerIDs {
		st, ok := p.States[id]
		if !ok || !h.newer(event.TableID, id, st.Seq) {
			continue
		}
		h.b.SendState(event.TableID, id, st)
	}
}

// newer records seq for the viewer and reports whether it is later than
// anything sent to them before.
func (h *GameStateHandler) newer(tableID, viewerID string, seq uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	viewers, ok := h.sent[tableID]
	if !ok {
		viewers = make(map[string]uint64)
		h.sent[tableID] = viewers
	}
	if seq <= viewers[viewerID] {
		return false
	}
	viewers[viewerID] = seq
	return true
}

// ForgetTable drops the sequence state of a deleted table so a new table
// with the same id starts fresh.
func (h *GameStateHandler) ForgetTable(tableID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sent, tableID)
}
