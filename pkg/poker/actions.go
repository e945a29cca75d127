package poker

import (
	"fmt"
	"strings"
	"time"
)

// ActionKind is a betting decision.
type ActionKind int

const (
	ActionFold ActionKind = iota
	ActionCheck
	ActionCall
	ActionRaise
	ActionAllIn
)

// String returns the wire name of the action.
func (k ActionKind) String() string {
	switch k {
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionRaise:
		return "raise"
	case ActionAllIn:
		return "all_in"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseActionKind maps a wire name to an ActionKind.
func ParseActionKind(s string) (ActionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold":
		return ActionFold, true
	case "check":
		return ActionCheck, true
	case "call":
		return ActionCall, true
	case "raise":
		return ActionRaise, true
	case "all_in", "allin", "all-in":
		return ActionAllIn, true
	}
	return 0, false
}

// HandleAction applies a betting action for the player. It reports false,
// changing nothing, when it is not the player's turn, the kind is unknown or
// a check is attempted while a bet is owed. If the current turn has already
// expired the timeout is applied instead and the action is dropped; the
// returned narration then describes the timeout.
func (t *Table) HandleAction(playerID, kind string, amount int64) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.handInProgress || t.runout {
		return "", false
	}
	if t.turnExpired(t.config.Now()) {
		t.applyTimeout()
		return t.flushNarration(), false
	}

	action, ok := ParseActionKind(kind)
	if !ok || t.currentTurn != playerID {
		return "", false
	}
	p := t.players[playerID]
	already := t.pots.GetCurrentBet(playerID)
	owed := t.currentBet - already

	var recorded int64
	switch action {
	case ActionFold:
		t.folded[playerID] = true
		t.say("%s folds", p.Name)

	case ActionCheck:
		if owed > 0 {
			return "", false
		}
		t.say("%s checks", p.Name)

	case ActionCall:
		if owed <= 0 {
			t.say("%s checks", p.Name)
			break
		}
		recorded = t.processCall(playerID)
		if p.Stack == 0 {
			t.say("%s goes all-in for $%d", p.Name, t.pots.GetCurrentBet(playerID))
		} else {
			t.say("%s calls $%d", p.Name, recorded)
		}

	case ActionRaise:
		bet, raised := t.processRaise(playerID, amount)
		recorded = bet
		switch {
		case p.Stack == 0:
			t.say("%s goes all-in for $%d", p.Name, bet)
		case raised:
			t.say("%s raises to $%d", p.Name, bet)
		default:
			t.say("%s calls $%d", p.Name, bet-already)
		}

	case ActionAllIn:
		total := p.Stack + already
		if total <= t.currentBet {
			// Matching or short of the bet is a call, not a raise.
			t.processCall(playerID)
		} else {
			t.processRaise(playerID, total)
		}
		recorded = total
		t.say("%s goes all-in for $%d", p.Name, total)
	}

	t.acted[playerID] = true
	t.lastAction = &LastAction{PlayerID: playerID, Action: action, Amount: recorded}
	t.log.Tracef("table %s: %s %s %d (pot %d, current bet %d)", t.config.ID,
		playerID, action, recorded, t.pots.GetTotalPot(), t.currentBet)

	t.continueHand()
	return t.flushNarration(), true
}

// turnExpired reports whether the player on the clock has run out of time.
func (t *Table) turnExpired(now time.Time) bool {
	return t.handInProgress && !t.runout && t.currentTurn != "" &&
		!t.turnDeadline.IsZero() && !now.Before(t.turnDeadline)
}

// applyTimeout acts for the player on the clock: fold if a bet is owed,
// check otherwise.
func (t *Table) applyTimeout() {
	id := t.currentTurn
	p := t.players[id]
	action := ActionCheck
	if t.currentBet > t.pots.GetCurrentBet(id) {
		action = ActionFold
		t.folded[id] = true
	}
	t.acted[id] = true
	t.lastAction = &LastAction{PlayerID: id, Action: action}
	t.say("%s timed out - auto %s", p.Name, action)
	t.log.Debugf("table %s: %s timed out, auto %s", t.config.ID, id, action)
	t.continueHand()
}

// HandleDisconnect marks the player disconnected. A player still in the hand
// is folded; if it was their turn play moves on, and the hand ends when fewer
// than two players remain in it.
func (t *Table) HandleDisconnect(playerID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disconnect(playerID)
	return t.flushNarration()
}

func (t *Table) disconnect(id string) {
	p, ok := t.players[id]
	if !ok {
		return
	}
	p.Connected = false
	if !t.handInProgress || t.folded[id] || !containsID(t.participants, id) {
		return
	}

	t.folded[id] = true
	t.say("%s disconnected and folds", p.Name)
	t.log.Debugf("table %s: %s disconnected mid-hand", t.config.ID, id)

	if len(t.activeIDs()) < 2 || t.currentTurn == id {
		t.continueHand()
	}
}
