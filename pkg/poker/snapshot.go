package poker

import (
	"sort"
	"time"
)

// PlayerView is the public view of one player.
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Stack     int64  `json:"stack"`
	Seat      int    `json:"seat"`
	Connected bool   `json:"connected"`
	Role      Role   `json:"role"`
	Folded    bool   `json:"folded"`
	InHand    bool   `json:"in_hand"`
	Bet       int64  `json:"bet"`
}

// TableState is a point-in-time view of a table for one viewer. It shares
// no memory with the table. Seq grows with every view the table renders, so
// of two views of the same table the one with the higher Seq is newer.
type TableState struct {
	TableID            string           `json:"table_id"`
	Seq                uint64           `json:"seq"`
	HandInProgress     bool             `json:"hand_in_progress"`
	HandID             string           `json:"hand_id,omitempty"`
	HandNumber         int              `json:"hand_number"`
	Street             Street           `json:"street"`
	DealerSeat         int              `json:"dealer_seat"`
	SmallBlindID       string           `json:"small_blind_id,omitempty"`
	BigBlindID         string           `json:"big_blind_id,omitempty"`
	SmallBlind         int64            `json:"small_blind"`
	BigBlind           int64            `json:"big_blind"`
	CurrentTurn        string           `json:"current_turn,omitempty"`
	TurnDeadline       time.Time        `json:"turn_deadline"`
	TurnTimeoutSeconds int              `json:"turn_timeout_seconds"`
	Pot                int64            `json:"pot"`
	Board              []Card           `json:"board"`
	CurrentBet         int64            `json:"current_bet"`
	PlayerBets         map[string]int64 `json:"player_bets"`
	Runout             bool             `json:"runout"`
	Players            []PlayerView     `json:"players"`
	Spectators         []PlayerView     `json:"spectators"`
	Waitlist           []PlayerView     `json:"waitlist"`
	LastAction         *LastAction      `json:"last_action,omitempty"`
	Showdown           *ShowdownResult  `json:"showdown,omitempty"`

	// Viewer-scoped.
	ViewerID         string `json:"viewer_id"`
	HoleCards        []Card `json:"hole_cards,omitempty"`
	MyRole           Role   `json:"my_role"`
	WaitlistPosition int    `json:"waitlist_position"`
}

// StateFor returns the table as seen by viewerID. Hole cards are included
// only for the viewer's own seat in the current or just-finished hand; a
// showdown or runout reveal is shown to everyone.
func (t *Table) StateFor(viewerID string) TableState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.viewSeq++
	st := TableState{
		TableID:            t.config.ID,
		Seq:                t.viewSeq,
		HandInProgress:     t.handInProgress,
		HandNumber:         t.handNumber,
		Street:             t.street,
		DealerSeat:         t.dealerSeat,
		SmallBlind:         t.config.SmallBlind,
		BigBlind:           t.config.BigBlind,
		CurrentTurn:        t.currentTurn,
		TurnDeadline:       t.turnDeadline,
		TurnTimeoutSeconds: int(t.config.TurnTimeout / time.Second),
		Pot:                t.pots.GetTotalPot(),
		Board:              append([]Card(nil), t.community...),
		CurrentBet:         t.currentBet,
		PlayerBets:         copyAmounts(t.pots.CurrentBets),
		Runout:             t.runout,
		Showdown:           t.lastShowdown.clone(),
		ViewerID:           viewerID,
		MyRole:             RoleSpectator,
		WaitlistPosition:   t.waitlistPosition(viewerID),
	}
	if t.handInProgress {
		st.HandID = t.handID
		st.SmallBlindID = t.smallBlindID
		st.BigBlindID = t.bigBlindID
	}
	if t.lastAction != nil {
		la := *t.lastAction
		st.LastAction = &la
	}

	for _, p := range t.seatedPlayers() {
		st.Players = append(st.Players, t.viewOf(p))
	}
	for _, id := range t.arrivals {
		p, ok := t.players[id]
		if ok && p.Role == RoleSpectator {
			st.Spectators = append(st.Spectators, t.viewOf(p))
		}
	}
	for _, id := range t.waitlist {
		if p, ok := t.players[id]; ok {
			st.Waitlist = append(st.Waitlist, t.viewOf(p))
		}
	}

	if viewer, ok := t.players[viewerID]; ok {
		st.MyRole = viewer.Role
		if viewer.Role == RoleSeated {
			st.HoleCards = append([]Card(nil), t.holeCards[viewerID]...)
		}
	}
	return st
}

func (t *Table) viewOf(p *Player) PlayerView {
	return PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Stack:     p.Stack,
		Seat:      p.Seat,
		Connected: p.Connected,
		Role:      p.Role,
		Folded:    t.folded[p.ID],
		InHand:    t.handInProgress && containsID(t.participants, p.ID),
		Bet:       t.pots.GetCurrentBet(p.ID),
	}
}

// PlayerIDs returns the ids of everyone at the table, sorted.
func (t *Table) PlayerIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.players))
	for id := range t.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ConnectedPlayerIDs returns the ids of connected players, sorted.
func (t *Table) ConnectedPlayerIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []string
	for id, p := range t.players {
		if p.Connected {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
