package poker

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/pokerlite/pokerlite/pkg/statemachine"
)

// Table defaults.
const (
	DefaultSmallBlind    = 5
	DefaultBigBlind      = 10
	DefaultStartingStack = 1000
	DefaultMaxPlayers    = 8
	DefaultTurnTimeout   = 30 * time.Second

	// MaxSeats is the most players one deck can deal a full board to.
	MaxSeats = 22
)

// TableConfig holds configuration for a new poker table
type TableConfig struct {
	ID            string
	Log           slog.Logger
	SmallBlind    int64
	BigBlind      int64
	StartingStack int64 // chips a new arrival sits down with
	MaxPlayers    int
	TurnTimeout   time.Duration
	Seed          int64            // deck seed; zero seeds from the clock
	Now           func() time.Time // clock used for turn deadlines
}

func (cfg *TableConfig) setDefaults() {
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	if cfg.SmallBlind <= 0 {
		cfg.SmallBlind = DefaultSmallBlind
	}
	if cfg.BigBlind <= 0 {
		cfg.BigBlind = DefaultBigBlind
	}
	if cfg.StartingStack <= 0 {
		cfg.StartingStack = DefaultStartingStack
	}
	if cfg.MaxPlayers <= 1 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	if cfg.MaxPlayers > MaxSeats {
		cfg.MaxPlayers = MaxSeats
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
}

// LastAction is the most recent player action of the current street.
type LastAction struct {
	PlayerID string     `json:"player_id"`
	Action   ActionKind `json:"action"`
	Amount   int64      `json:"amount"`
}

// Table is one game instance. All hand, betting and roster state lives here
// and is only touched while holding mu.
type Table struct {
	log    slog.Logger
	config TableConfig
	rng    *rand.Rand
	mu     sync.Mutex

	players  map[string]*Player
	arrivals []string // player ids in arrival order
	waitlist []string // FIFO of player ids

	// Hand state, reset by startHand.
	handInProgress bool
	handID         string
	handNumber     int
	street         Street
	dealerSeat     int
	smallBlindID   string
	bigBlindID     string
	deck           *Deck
	stacked        []Card // deck order for the next hand, when set
	participants   []string
	holeCards      map[string][]Card
	community      []Card
	folded         map[string]bool
	acted          map[string]bool
	currentBet     int64
	pots           *PotManager
	currentTurn    string
	turnDeadline   time.Time
	runout         bool
	streets        *statemachine.StateMachine[Table]
	lastAction     *LastAction

	// lastShowdown survives until the next hand starts.
	lastShowdown *ShowdownResult
	completed    []*ShowdownResult

	// viewSeq numbers the views handed out by StateFor.
	viewSeq uint64

	narration []string
}

// NewTable creates a new poker table
func NewTable(cfg TableConfig) *Table {
	cfg.setDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Table{
		log:       cfg.Log,
		config:    cfg,
		rng:       rand.New(rand.NewSource(seed)),
		players:   make(map[string]*Player),
		holeCards: make(map[string][]Card),
		folded:    make(map[string]bool),
		acted:     make(map[string]bool),
		pots:      NewPotManager(),
	}
}

// ID returns the table id.
func (t *Table) ID() string {
	return t.config.ID
}

// Config returns the table configuration.
func (t *Table) Config() TableConfig {
	return t.config
}

// say queues a narration line for the operation in progress.
func (t *Table) say(format string, args ...interface{}) {
	t.narration = append(t.narration, fmt.Sprintf(format, args...))
}

// flushNarration returns and clears the queued narration.
func (t *Table) flushNarration() string {
	msg := strings.Join(t.narration, "\n")
	t.narration = nil
	return msg
}

// UpsertPlayer registers an arrival. A new player is seated when a seat is
// free and no hand is running; otherwise they watch. A known player keeps
// their role, seat and stack and is marked connected again.
func (t *Table) UpsertPlayer(id, name string) Role {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.players[id]; ok {
		p.Connected = true
		if name != "" {
			p.Name = name
		}
		t.log.Debugf("table %s: %s reconnected as %s", t.config.ID, id, p.Role)
		return p.Role
	}

	if name == "" {
		name = id
	}
	p := NewPlayer(id, name, t.config.StartingStack)
	if !t.handInProgress && t.seatedCount() < t.config.MaxPlayers {
		p.seat(t.freeSeat())
	}
	t.players[id] = p
	t.arrivals = append(t.arrivals, id)
	t.log.Debugf("table %s: %s joined as %s (seat %d)", t.config.ID, id, p.Role, p.Seat)
	return p.Role
}

// RemovePlayer drops a player from every roster. A player still in the hand
// is folded first. It returns any narration produced.
func (t *Table) RemovePlayer(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.players[id]; !ok {
		return ""
	}
	t.disconnect(id)
	delete(t.players, id)
	t.arrivals = removeID(t.arrivals, id)
	t.waitlist = removeID(t.waitlist, id)
	return t.flushNarration()
}

// JoinWaitlist puts a spectator at the back of the waitlist.
func (t *Table) JoinWaitlist(id string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.players[id]
	if !ok || p.Role != RoleSpectator {
		return "", false
	}
	p.Role = RoleWaitlist
	t.waitlist = append(t.waitlist, id)
	return fmt.Sprintf("%s joined the waitlist", p.Name), true
}

// LeaveWaitlist returns a waitlisted player to spectating.
func (t *Table) LeaveWaitlist(id string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.players[id]
	if !ok || p.Role != RoleWaitlist {
		return "", false
	}
	p.Role = RoleSpectator
	t.waitlist = removeID(t.waitlist, id)
	return fmt.Sprintf("%s left the waitlist", p.Name), true
}

// Role returns the player's role and whether they are known to the table.
func (t *Table) Role(id string) (Role, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.players[id]
	if !ok {
		return RoleSpectator, false
	}
	return p.Role, true
}

// IsEmpty reports whether nobody is left at the table.
func (t *Table) IsEmpty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.players) == 0
}

// HasConnectedPlayers reports whether anyone is still connected.
func (t *Table) HasConnectedPlayers() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.players {
		if p.Connected {
			return true
		}
	}
	return false
}

// IsHandInProgress reports whether a hand is being played.
func (t *Table) IsHandInProgress() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handInProgress
}

// SetDeck stacks the deck for the next hand: cards are dealt in the given
// order, hole cards first, then burns and board cards.
func (t *Table) SetDeck(cards []Card) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stacked = append([]Card(nil), cards...)
}

// LastShowdown returns a copy of the most recent showdown summary, if any.
func (t *Table) LastShowdown() *ShowdownResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastShowdown.clone()
}

// DrainCompletedHands returns the results of hands finished since the last
// call.
func (t *Table) DrainCompletedHands() []*ShowdownResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	done := t.completed
	t.completed = nil
	return done
}

// GetStatus returns the current status of the table
func (t *Table) GetStatus() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := fmt.Sprintf("Table %s: %d/%d seated, blinds %d/%d\n",
		t.config.ID, t.seatedCount(), t.config.MaxPlayers, t.config.SmallBlind, t.config.BigBlind)
	if t.handInProgress {
		status += fmt.Sprintf("Hand %d on the %s, pot %d\n", t.handNumber, t.street, t.pots.GetTotalPot())
	} else {
		status += "Waiting for next hand\n"
	}
	for _, p := range t.seatedPlayers() {
		status += p.GetStatus()
	}
	return status
}

// seatedPlayers returns seated players ordered by seat.
func (t *Table) seatedPlayers() []*Player {
	var seated []*Player
	for _, p := range t.players {
		if p.Role == RoleSeated {
			seated = append(seated, p)
		}
	}
	sort.Slice(seated, func(i, j int) bool { return seated[i].Seat < seated[j].Seat })
	return seated
}

func (t *Table) seatedCount() int {
	n := 0
	for _, p := range t.players {
		if p.Role == RoleSeated {
			n++
		}
	}
	return n
}

// freeSeat returns the smallest unoccupied seat number.
func (t *Table) freeSeat() int {
	used := make(map[int]bool)
	for _, p := range t.players {
		if p.Role == RoleSeated {
			used[p.Seat] = true
		}
	}
	seat := 1
	for used[seat] {
		seat++
	}
	return seat
}

// eligiblePlayers returns seated, connected players with chips, by seat.
func (t *Table) eligiblePlayers() []*Player {
	var out []*Player
	for _, p := range t.seatedPlayers() {
		if p.Connected && p.Stack > 0 {
			out = append(out, p)
		}
	}
	return out
}

// bustToSpectators unseats seated players who have run out of chips.
func (t *Table) bustToSpectators() {
	for _, p := range t.seatedPlayers() {
		if p.Stack == 0 {
			p.unseat()
			t.log.Debugf("table %s: %s is out of chips and now spectating", t.config.ID, p.ID)
		}
	}
}

// promoteWaitlist seats waitlisted players in FIFO order while seats are
// free. Disconnected or chipless entries are dropped from the list.
func (t *Table) promoteWaitlist() {
	if t.handInProgress {
		return
	}
	for len(t.waitlist) > 0 && t.seatedCount() < t.config.MaxPlayers {
		id := t.waitlist[0]
		t.waitlist = t.waitlist[1:]
		p, ok := t.players[id]
		if !ok {
			continue
		}
		if !p.Connected || p.Stack == 0 {
			p.Role = RoleSpectator
			continue
		}
		p.seat(t.freeSeat())
		t.log.Debugf("table %s: promoted %s from waitlist to seat %d", t.config.ID, id, p.Seat)
	}
}

// waitlistPosition is 1-based; 0 means not waiting.
func (t *Table) waitlistPosition(id string) int {
	for i, w := range t.waitlist {
		if w == id {
			return i + 1
		}
	}
	return 0
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
