package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/pokerlite/pokerlite/pkg/poker"
)

// SnapshotCollector turns a payload into a GameEvent, reading whatever table
// state the event needs. Collectors take the table lock only through the
// table's own accessors and never hold it while the event is delivered.
type SnapshotCollector interface {
	CollectSnapshot(tbl *poker.Table, payload EventPayload) (*GameEvent, error)
	EventType() GameEventType
}

// SnapshotRegistry manages snapshot collectors
type SnapshotRegistry struct {
	collectors map[GameEventType]SnapshotCollector
	mu         sync.RWMutex
}

// NewSnapshotRegistry creates a registry with every collector registered.
func NewSnapshotRegistry() *SnapshotRegistry {
	registry := &SnapshotRegistry{
		collectors: make(map[GameEventType]SnapshotCollector),
	}
	registry.Register(&NarrationCollector{})
	registry.Register(&TableStateCollector{})
	registry.Register(&ShowdownCollector{})
	registry.Register(&PlayerJoinedCollector{})
	registry.Register(&PlayerLeftCollector{})
	return registry
}

// Register registers a snapshot collector
func (sr *SnapshotRegistry) Register(collector SnapshotCollector) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.collectors[collector.EventType()] = collector
}

// CollectSnapshot builds the event for payload with the collector registered
// for its kind.
func (sr *SnapshotRegistry) CollectSnapshot(tbl *poker.Table, payload EventPayload) (*GameEvent, error) {
	if payload == nil {
		return nil, fmt.Errorf("nil event payload")
	}
	sr.mu.RLock()
	collector, exists := sr.collectors[payload.Kind()]
	sr.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no collector registered for event type: %s", payload.Kind())
	}
	return collector.CollectSnapshot(tbl, payload)
}

// Global snapshot registry
var defaultSnapshotRegistry = NewSnapshotRegistry()

// CollectGameEventSnapshot is a convenience function to collect snapshots
func CollectGameEventSnapshot(tbl *poker.Table, payload EventPayload) (*GameEvent, error) {
	return defaultSnapshotRegistry.CollectSnapshot(tbl, payload)
}

// buildGameEvent addresses an event to the table's connected players.
func buildGameEvent(tbl *poker.Table, payload EventPayload) *GameEvent {
	return &GameEvent{
		Type:      payload.Kind(),
		TableID:   tbl.ID(),
		PlayerIDs: tbl.ConnectedPlayerIDs(),
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NarrationCollector handles snapshot collection for narration events
type NarrationCollector struct{}

func (c *NarrationCollector) EventType() GameEventType { return GameEventTypeNarration }

func (c *NarrationCollector) CollectSnapshot(tbl *poker.Table, payload EventPayload) (*GameEvent, error) {
	if _, ok := payload.(NarrationPayload); !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", payload, c.EventType())
	}
	return buildGameEvent(tbl, payload), nil
}

// TableStateCollector renders one view per connected viewer. Each view only
// carries the hole cards its viewer may see.
type TableStateCollector struct{}

func (c *TableStateCollector) EventType() GameEventType { return GameEventTypeTableState }

func (c *TableStateCollector) CollectSnapshot(tbl *poker.Table, payload EventPayload) (*GameEvent, error) {
	viewers := tbl.ConnectedPlayerIDs()
	states := make(map[string]poker.TableState, len(viewers))
	for _, id := range viewers {
		states[id] = tbl.StateFor(id)
	}
	return &GameEvent{
		Type:      GameEventTypeTableState,
		TableID:   tbl.ID(),
		PlayerIDs: viewers,
		Payload:   TableStatePayload{States: states},
		Timestamp: time.Now(),
	}, nil
}

// ShowdownCollector handles snapshot collection for finished hands
type ShowdownCollector struct{}

func (c *ShowdownCollector) EventType() GameEventType { return GameEventTypeShowdown }

func (c *ShowdownCollector) CollectSnapshot(tbl *poker.Table, payload EventPayload) (*GameEvent, error) {
	p, ok := payload.(ShowdownPayload)
	if !ok || p.Result == nil {
		return nil, fmt.Errorf("showdown event without a result")
	}
	return buildGameEvent(tbl, payload), nil
}

// PlayerJoinedCollector handles snapshot collection for player joined events
type PlayerJoinedCollector struct{}

func (c *PlayerJoinedCollector) EventType() GameEventType { return GameEventTypePlayerJoined }

func (c *PlayerJoinedCollector) CollectSnapshot(tbl *poker.Table, payload EventPayload) (*GameEvent, error) {
	return buildGameEvent(tbl, payload), nil
}

// PlayerLeftCollector handles snapshot collection for player left events
type PlayerLeftCollector struct{}

func (c *PlayerLeftCollector) EventType() GameEventType { return GameEventTypePlayerLeft }

func (c *PlayerLeftCollector) CollectSnapshot(tbl *poker.Table, payload EventPayload) (*GameEvent, error) {
	return buildGameEvent(tbl, payload), nil
}
