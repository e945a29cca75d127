package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/pokerlite/pokerlite/pkg/poker"
)

var (
	// ErrTableNotFound is returned for operations on an unknown table id.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableExists is returned when creating a table whose id is taken.
	ErrTableExists = errors.New("table already exists")
)

// TableOptions override the configured table defaults for one table. Zero
// fields keep the default.
type TableOptions struct {
	ID            string // generated when empty
	SmallBlind    int64
	BigBlind      int64
	StartingStack int64
	MaxPlayers    int
	TurnTimeout   time.Duration
	Seed          int64
	Now           func() time.Time
}

// MessageType names an inbound player message.
type MessageType string

const (
	MessageStart         MessageType = "start"
	MessageAction        MessageType = "action"
	MessageJoinWaitlist  MessageType = "join_waitlist"
	MessageLeaveWaitlist MessageType = "leave_waitlist"
)

// Message is an inbound player message.
type Message struct {
	Type   MessageType `json:"type"`
	Action string      `json:"action,omitempty"`
	Amount int64       `json:"amount,omitempty"`
}

// ParseMessage decodes a JSON player message.
func ParseMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("invalid message: %w", err)
	}
	return msg, nil
}

// tableEntry is a registered table with its timer and open connections.
type tableEntry struct {
	table  *poker.Table
	runner *tableRunner
	conns  map[string]bool
}

// Server owns the table registry. It routes player messages to tables, runs
// each table's timer while anyone is connected, and publishes the resulting
// narration, views and hand results through the event processor.
type Server struct {
	log      slog.Logger
	tableLog slog.Logger
	cfg      Config
	db       Database

	mu     sync.RWMutex
	tables map[string]*tableEntry

	eventProcessor *EventProcessor
	states         *GameStateHandler
}

// NewServer creates a server. db and b may be nil, in which case hands are
// not recorded and output is discarded.
func NewServer(cfg *Config, db Database, b Broadcaster) *Server {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	c.setDefaults()
	if b == nil {
		b = nopBroadcaster{}
	}

	s := &Server{
		log:      c.LogBackend.Logger("SRVR"),
		tableLog: c.LogBackend.Logger("TABL"),
		cfg:      c,
		db:       db,
		tables:   make(map[string]*tableEntry),
		states:   NewGameStateHandler(b),
	}

	s.eventProcessor = NewEventProcessor(c.LogBackend.Logger("EVNT"), c.EventQueueSize, c.EventWorkers,
		NewNotificationHandler(s.log, b),
		s.states,
		NewPersistenceHandler(s.log, db),
	)
	s.eventProcessor.Start()
	return s
}

// Stop halts every table timer and flushes pending events.
func (s *Server) Stop() {
	s.mu.RLock()
	runners := make([]*tableRunner, 0, len(s.tables))
	for _, e := range s.tables {
		runners = append(runners, e.runner)
	}
	s.mu.RUnlock()

	for _, r := range runners {
		r.Stop()
	}
	s.eventProcessor.Stop()
}

// CreateTable registers a new table.
func (s *Server) CreateTable(opts TableOptions) (*poker.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.createTableLocked(opts)
	if err != nil {
		return nil, err
	}
	return e.table, nil
}

func (s *Server) createTableLocked(opts TableOptions) (*tableEntry, error) {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := s.tables[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, id)
	}

	tc := s.cfg.tableConfig(id, opts)
	tc.Log = s.tableLog
	tbl := poker.NewTable(tc)

	e := &tableEntry{table: tbl, conns: make(map[string]bool)}
	e.runner = newTableRunner(s.log, tbl, s.cfg.TickInterval, s.cfg.RunoutDelay, func(res poker.TickResult) {
		s.publishTableUpdate(tbl, res.Narration)
	})
	s.tables[id] = e

	cfg := tbl.Config()
	s.log.Infof("Created table %s (blinds %d/%d, %d seats)", id, cfg.SmallBlind, cfg.BigBlind, cfg.MaxPlayers)
	return e, nil
}

// Table returns a registered table.
func (s *Server) Table(id string) (*poker.Table, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	return e.table, nil
}

// GetOrCreateTable returns the table with id, creating it with the default
// options when missing.
func (s *Server) GetOrCreateTable(id string) (*poker.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.tables[id]; ok {
		return e.table, nil
	}
	e, err := s.createTableLocked(TableOptions{ID: id})
	if err != nil {
		return nil, err
	}
	return e.table, nil
}

// DeleteTable unregisters a table and stops its timer.
func (s *Server) DeleteTable(id string) error {
	s.mu.Lock()
	e, ok := s.tables[id]
	delete(s.tables, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	e.runner.Stop()
	s.states.ForgetTable(id)
	s.log.Infof("Deleted table %s", id)
	return nil
}

// TableIDs returns the ids of all registered tables, sorted.
func (s *Server) TableIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.tables))
	for id := range s.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Server) entry(id string) (*tableEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	return e, nil
}

// Connect attaches a player to a table. New players are seated when a seat
// is free and no hand is running; returning players keep their place. The
// table timer starts with the first connection.
func (s *Server) Connect(tableID, playerID, name string) (poker.Role, error) {
	s.mu.Lock()
	e, ok := s.tables[tableID]
	if !ok {
		s.mu.Unlock()
		return poker.RoleSpectator, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	role := e.table.UpsertPlayer(playerID, name)
	e.conns[playerID] = true
	// Runners never take s.mu.
	e.runner.Start()
	s.mu.Unlock()

	s.log.Debugf("Player %s connected to table %s as %s", playerID, tableID, role)

	s.publish(e.table, PlayerJoinedPayload{PlayerID: playerID, Name: name, Role: role})
	s.publishTableUpdate(e.table, "")
	return role, nil
}

// Disconnect detaches a player. A player in the hand is folded. When the
// last connection goes the timer stops and empty is true; the caller may
// then delete the table.
func (s *Server) Disconnect(tableID, playerID string) (empty bool, err error) {
	s.mu.Lock()
	e, ok := s.tables[tableID]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	delete(e.conns, playerID)
	empty = len(e.conns) == 0
	if empty {
		e.runner.Stop()
	}
	// Marked disconnected before s.mu is released so a racing Connect
	// for the same player always lands after it.
	narration := e.table.HandleDisconnect(playerID)
	s.mu.Unlock()

	s.log.Debugf("Player %s disconnected from table %s", playerID, tableID)

	s.publish(e.table, PlayerLeftPayload{PlayerID: playerID})
	s.publishTableUpdate(e.table, narration)
	return empty, nil
}

// RemovePlayer drops a player from a table entirely, folding them if they
// are in the hand.
func (s *Server) RemovePlayer(tableID, playerID string) error {
	s.mu.Lock()
	e, ok := s.tables[tableID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	delete(e.conns, playerID)
	if len(e.conns) == 0 {
		e.runner.Stop()
	}
	narration := e.table.RemovePlayer(playerID)
	s.mu.Unlock()

	s.publish(e.table, PlayerLeftPayload{PlayerID: playerID})
	s.publishTableUpdate(e.table, narration)
	return nil
}

// HandleMessage applies a player message to a table. Messages the table
// rejects (out of turn, unknown action, illegal check, start from a
// non-seated player) change nothing and are not errors; unknown message
// types are ignored.
func (s *Server) HandleMessage(tableID, playerID string, msg Message) error {
	e, err := s.entry(tableID)
	if err != nil {
		return err
	}
	tbl := e.table

	var (
		narration string
		ok        bool
	)
	switch msg.Type {
	case MessageStart:
		if role, known := tbl.Role(playerID); !known || role != poker.RoleSeated {
			s.log.Debugf("table %s: ignoring start from non-seated %s", tableID, playerID)
			return nil
		}
		narration, ok = tbl.StartHand()
	case MessageAction:
		narration, ok = tbl.HandleAction(playerID, msg.Action, msg.Amount)
	case MessageJoinWaitlist:
		narration, ok = tbl.JoinWaitlist(playerID)
	case MessageLeaveWaitlist:
		narration, ok = tbl.LeaveWaitlist(playerID)
	default:
		s.log.Debugf("table %s: ignoring unknown message %q from %s", tableID, msg.Type, playerID)
		return nil
	}

	if !ok {
		s.log.Debugf("table %s: rejected %s %s from %s", tableID, msg.Type, msg.Action, playerID)
	}
	// A rejected action may still have applied an expired turn's timeout.
	if ok || narration != "" {
		s.publishTableUpdate(tbl, narration)
	}
	return nil
}

// State returns the table as seen by playerID.
func (s *Server) State(tableID, playerID string) (poker.TableState, error) {
	tbl, err := s.Table(tableID)
	if err != nil {
		return poker.TableState{}, err
	}
	return tbl.StateFor(playerID), nil
}

// RecentHands returns the stored history of a table, newest first.
func (s *Server) RecentHands(tableID string, limit int) ([]*HandRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	hands, err := s.db.RecentHands(tableID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load hands of table %s: %w", tableID, err)
	}
	return hands, nil
}

// publishTableUpdate publishes narration, fresh views for every viewer and
// the results of any hands that finished. Called without any table lock.
func (s *Server) publishTableUpdate(tbl *poker.Table, narration string) {
	if narration != "" {
		s.publish(tbl, NarrationPayload{Message: narration})
	}
	s.publish(tbl, TableStatePayload{})
	for _, res := range tbl.DrainCompletedHands() {
		s.publish(tbl, ShowdownPayload{Result: res})
	}
}

func (s *Server) publish(tbl *poker.Table, payload EventPayload) {
	event, err := CollectGameEventSnapshot(tbl, payload)
	if err != nil {
		s.log.Errorf("Failed to collect %s event for table %s: %v", payload.Kind(), tbl.ID(), err)
		return
	}
	s.eventProcessor.PublishEvent(event)
}
