package poker

// Betting ledger. Every method here assumes the table lock is held.

// postBlinds posts the small and big blind for the hand. Heads-up the dealer
// posts the small blind; otherwise the two seats after the dealer do. Short
// stacks post what they have and the amount owed stays at what was posted.
func (t *Table) postBlinds(players []*Player) {
	if len(players) < 2 {
		return
	}
	d := seatIndex(players, t.dealerSeat)
	var sb, bb *Player
	if len(players) == 2 {
		sb = players[d]
		bb = players[(d+1)%2]
	} else {
		sb = players[(d+1)%len(players)]
		bb = players[(d+2)%len(players)]
	}
	t.smallBlindID = sb.ID
	t.bigBlindID = bb.ID

	t.pots.AddBet(sb.ID, sb.pay(t.config.SmallBlind))
	t.pots.AddBet(bb.ID, bb.pay(t.config.BigBlind))
	t.currentBet = t.pots.GetCurrentBet(bb.ID)
	if sbBet := t.pots.GetCurrentBet(sb.ID); sbBet > t.currentBet {
		t.currentBet = sbBet
	}
	t.log.Tracef("table %s: blinds posted %s=%d %s=%d", t.config.ID,
		sb.ID, t.pots.GetCurrentBet(sb.ID), bb.ID, t.pots.GetCurrentBet(bb.ID))
}

// processCall pays what the player owes, capped at their stack. A short call
// is an all-in and leaves the current bet untouched. Returns the chips paid.
func (t *Table) processCall(id string) int64 {
	p := t.players[id]
	owed := t.currentBet - t.pots.GetCurrentBet(id)
	paid := p.pay(owed)
	t.pots.AddBet(id, paid)
	return paid
}

// minRaiseTo is the smallest legal raise target for the player.
func (t *Table) minRaiseTo(id string) int64 {
	to := t.currentBet*2 - t.pots.GetCurrentBet(id)
	if to < t.config.BigBlind {
		to = t.config.BigBlind
	}
	return to
}

// processRaise raises the player's round bet to amount, or to the minimum
// raise when amount is not positive or below it. The target is capped at the
// player's chips, so an all-in below the minimum is legal. A raise that lifts
// the current bet reopens the action for everybody else. It returns the
// player's round bet afterwards and whether the current bet went up.
func (t *Table) processRaise(id string, amount int64) (int64, bool) {
	p := t.players[id]
	already := t.pots.GetCurrentBet(id)

	target := t.minRaiseTo(id)
	if amount > target {
		target = amount
	}
	if most := p.Stack + already; target > most {
		target = most
	}
	if target <= t.currentBet {
		// Not enough chips to raise; this is a call for what they have.
		t.processCall(id)
		return t.pots.GetCurrentBet(id), false
	}

	t.pots.AddBet(id, p.pay(target-already))
	t.currentBet = target
	t.acted = map[string]bool{id: true}
	return target, true
}

// isRoundComplete reports whether the betting round is over: every active
// player who still has chips has acted and matched the current bet. All-in
// players are exempt from both.
func (t *Table) isRoundComplete(active []string) bool {
	for _, id := range active {
		p := t.players[id]
		if p.Stack == 0 {
			continue
		}
		if !t.acted[id] {
			return false
		}
		if t.pots.GetCurrentBet(id) < t.currentBet {
			return false
		}
	}
	return true
}

// seatIndex returns the index of the player in seat, or 0 when absent.
func seatIndex(players []*Player, seat int) int {
	for i, p := range players {
		if p.Seat == seat {
			return i
		}
	}
	return 0
}
