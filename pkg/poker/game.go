package poker

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Street is a betting phase of a hand.
type Street int

const (
	StreetIdle Street = iota
	StreetPreflop
	StreetFlop
	StreetTurn
	StreetRiver
)

// String returns the wire name of the street.
func (s Street) String() string {
	switch s {
	case StreetIdle:
		return "idle"
	case StreetPreflop:
		return "preflop"
	case StreetFlop:
		return "flop"
	case StreetTurn:
		return "turn"
	case StreetRiver:
		return "river"
	default:
		return fmt.Sprintf("street(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Street) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// title is the street name used in narration.
func (s Street) title() string {
	switch s {
	case StreetFlop:
		return "Flop"
	case StreetTurn:
		return "Turn"
	case StreetRiver:
		return "River"
	default:
		return s.String()
	}
}

// StartHand begins a new hand if none is running and at least two seated,
// connected players have chips. Otherwise it does nothing and reports false.
func (t *Table) StartHand() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.startHand() {
		t.narration = nil
		return "", false
	}
	return t.flushNarration(), true
}

// startHand sets up and deals a hand. Players who busted last hand leave
// their seats first, then the waitlist fills any free seats.
func (t *Table) startHand() bool {
	if t.handInProgress {
		return false
	}
	t.bustToSpectators()
	t.promoteWaitlist()

	players := t.eligiblePlayers()
	if len(players) < 2 {
		return false
	}

	t.lastShowdown = nil
	t.lastAction = nil
	t.runout = false
	t.streets = nil

	t.rotateDealer(players)
	t.handInProgress = true
	t.handNumber++
	t.handID = uuid.NewString()
	t.street = StreetPreflop
	t.community = nil
	t.folded = make(map[string]bool)
	t.acted = make(map[string]bool)
	t.currentBet = 0
	t.pots = NewPotManager()
	t.participants = make([]string, 0, len(players))
	for _, p := range players {
		t.participants = append(t.participants, p.ID)
	}

	t.deck = t.newDeck()
	t.streets = newStreetMachine(t)
	t.dealHoleCards(players)
	t.postBlinds(players)

	t.log.Debugf("table %s: hand %d (%s) started, dealer seat %d, %d players",
		t.config.ID, t.handNumber, t.handID, t.dealerSeat, len(players))
	t.say("New hand started")

	first := t.firstToAct(players)
	t.setTurn(first)
	if t.players[first].Stack == 0 {
		t.advanceTurn()
	}
	if t.currentTurn == "" {
		// Everyone is all-in from the blinds.
		t.continueHand()
	}
	return true
}

// newDeck returns the deck for the next hand, honoring a stacked deck.
func (t *Table) newDeck() *Deck {
	if t.stacked == nil {
		return NewDeck(t.rng)
	}
	cards := t.stacked
	t.stacked = nil

	used := make(map[Card]bool, len(cards))
	for _, c := range cards {
		used[c] = true
	}
	var rest []Card
	for _, c := range NewDeck(t.rng).cards {
		if !used[c] {
			rest = append(rest, c)
		}
	}
	return NewDeckFromCards(append(cards, rest...), t.rng)
}

func (t *Table) draw() Card {
	c, ok := t.deck.Draw()
	if !ok {
		panic(fmt.Sprintf("poker: table %s ran out of cards", t.config.ID))
	}
	return c
}

// rotateDealer moves the button to the next occupied seat after the current
// one; the first hand puts it on the lowest seat.
func (t *Table) rotateDealer(players []*Player) {
	if t.dealerSeat == 0 {
		t.dealerSeat = players[0].Seat
		return
	}
	for _, p := range players {
		if p.Seat > t.dealerSeat {
			t.dealerSeat = p.Seat
			return
		}
	}
	t.dealerSeat = players[0].Seat
}

func (t *Table) dealHoleCards(players []*Player) {
	t.holeCards = make(map[string][]Card, len(players))
	for _, p := range players {
		t.holeCards[p.ID] = []Card{t.draw(), t.draw()}
	}
}

// firstToAct returns who opens preflop action: the dealer heads-up,
// otherwise the seat three past the dealer.
func (t *Table) firstToAct(players []*Player) string {
	d := seatIndex(players, t.dealerSeat)
	if len(players) == 2 {
		return players[d].ID
	}
	return players[(d+3)%len(players)].ID
}

// setTurn hands the action to id and starts their clock. An empty id clears
// the turn.
func (t *Table) setTurn(id string) {
	t.currentTurn = id
	if id == "" {
		t.turnDeadline = time.Time{}
		return
	}
	t.turnDeadline = t.config.Now().Add(t.config.TurnTimeout)
}

// activeIDs returns hand participants who are connected and have not
// folded, in seat order.
func (t *Table) activeIDs() []string {
	var out []string
	for _, id := range t.participants {
		p, ok := t.players[id]
		if !ok || !p.Connected || t.folded[id] {
			continue
		}
		out = append(out, id)
	}
	return out
}

// nextActorAfter returns the first active player with chips whose seat comes
// strictly after seat, wrapping around. Empty when nobody can act.
func (t *Table) nextActorAfter(seat int) string {
	var first string
	for _, id := range t.activeIDs() {
		p := t.players[id]
		if p.Stack == 0 {
			continue
		}
		if first == "" {
			first = id
		}
		if p.Seat > seat {
			return id
		}
	}
	return first
}

// advanceTurn passes the action to the next player by seat. The search
// starts from the seat of whoever held the turn, even if they just folded
// or left.
func (t *Table) advanceTurn() {
	seat := 0
	if p, ok := t.players[t.currentTurn]; ok {
		seat = p.Seat
	}
	t.setTurn(t.nextActorAfter(seat))
}

// continueHand moves the hand on after any change to betting state: it ends
// the hand when one or no player remains, passes the turn while the round
// is open, and otherwise deals the next street, starts a runout or goes to
// showdown.
func (t *Table) continueHand() {
	active := t.activeIDs()
	switch len(active) {
	case 0:
		t.refundAll()
		return
	case 1:
		t.awardFoldWin(active[0])
		return
	}

	if !t.isRoundComplete(active) {
		t.advanceTurn()
		return
	}

	withChips := 0
	for _, id := range active {
		if t.players[id].Stack > 0 {
			withChips++
		}
	}
	if withChips <= 1 {
		t.startRunout(active)
		return
	}

	t.advanceStreet()
}

// startRunout stops betting for the rest of the hand and reveals every
// remaining player's cards. Tick then steps the street machine.
func (t *Table) startRunout(active []string) {
	t.runout = true
	t.setTurn("")

	reveal := &ShowdownResult{HandID: t.handID, Runout: true}
	for _, id := range active {
		reveal.Players = append(reveal.Players, ShowdownPlayer{
			PlayerID:  id,
			Name:      t.players[id].Name,
			HoleCards: append([]Card(nil), t.holeCards[id]...),
		})
	}
	t.lastShowdown = reveal

	t.log.Debugf("table %s: runout from the %s with %d players", t.config.ID, t.street, len(active))
}

// showdown evaluates every remaining hand and settles the pots.
func (t *Table) showdown() {
	active := t.activeIDs()
	switch len(active) {
	case 0:
		t.refundAll()
		return
	case 1:
		t.awardFoldWin(active[0])
		return
	}

	res := &ShowdownResult{}
	hands := make(map[string]HandValue, len(active))
	for _, id := range active {
		hv, best := BestFive(append(append([]Card(nil), t.holeCards[id]...), t.community...))
		hands[id] = hv
		res.Players = append(res.Players, ShowdownPlayer{
			PlayerID:       id,
			Name:           t.players[id].Name,
			HoleCards:      append([]Card(nil), t.holeCards[id]...),
			BestHand:       best,
			HighlightCards: KeyCards(best, hv.Rank),
			HandName:       hv.HandDescription,
		})
	}

	notIn := make(map[string]bool)
	for _, id := range t.participants {
		if _, ok := hands[id]; !ok {
			notIn[id] = true
		}
	}
	contributions := t.pots.TotalBets
	side := BuildSidePots(t.participants, contributions, notIn)
	results, awards := SettlePots(side, contributions, hands)

	res.Pots = results
	res.Winnings = awards
	t.payOut(awards)

	var best *HandValue
	for _, pr := range results {
		if pr.Refunded {
			continue
		}
		for _, id := range pr.Winners {
			if !containsID(res.WinnerIDs, id) {
				res.WinnerIDs = append(res.WinnerIDs, id)
			}
			if hv := hands[id]; best == nil || CompareHands(hv, *best) > 0 {
				best = &hv
			}
		}
	}
	if best != nil {
		res.WinningHandName = best.HandDescription
	}
	t.narrateShowdown(res, contributions)
	t.finishHand(res)
}

// awardFoldWin gives the whole pot to the last player standing.
func (t *Table) awardFoldWin(id string) {
	pot := t.pots.GetTotalPot()
	res := &ShowdownResult{
		WinnerIDs: []string{id},
		Winnings:  map[string]int64{id: pot},
		FoldWin:   true,
	}
	t.payOut(res.Winnings)
	t.say("%s wins $%d (others folded)", t.players[id].Name, pot)
	t.finishHand(res)
}

// refundAll returns every contribution when nobody is left to win the pot.
func (t *Table) refundAll() {
	res := &ShowdownResult{Winnings: make(map[string]int64)}
	for _, id := range t.participants {
		if c := t.pots.GetTotalBet(id); c > 0 {
			res.Winnings[id] = c
		}
	}
	t.payOut(res.Winnings)
	t.say("Hand ended - all players disconnected")
	t.finishHand(res)
}

// payOut credits awards to stacks. The awards must add up to the pot.
func (t *Table) payOut(awards map[string]int64) {
	var total int64
	for id, amt := range awards {
		total += amt
		if p, ok := t.players[id]; ok {
			p.Stack += amt
		}
	}
	if pot := t.pots.GetTotalPot(); total != pot {
		panic(fmt.Sprintf("poker: table %s paid out %d from a pot of %d", t.config.ID, total, pot))
	}
}

// finishHand records the result and returns the table to idle. Busted
// players keep their seats until the next hand starts.
func (t *Table) finishHand(res *ShowdownResult) {
	res.HandID = t.handID
	res.HandNumber = t.handNumber
	res.TableID = t.config.ID
	res.PotWon = t.pots.GetTotalPot()
	res.Board = append([]Card(nil), t.community...)
	res.Contributions = make(map[string]int64, len(t.pots.TotalBets))
	for id, c := range t.pots.TotalBets {
		res.Contributions[id] = c
	}
	res.Narration = t.lastNarration()
	t.lastShowdown = res
	t.completed = append(t.completed, res.clone())

	t.handInProgress = false
	t.street = StreetIdle
	t.setTurn("")
	t.runout = false
	t.streets = nil
	t.currentBet = 0
	t.community = nil
	t.pots = NewPotManager()
	t.log.Debugf("table %s: hand %d finished, pot %d to %v", t.config.ID, res.HandNumber, res.PotWon, res.WinnerIDs)
}

// lastNarration returns the most recent queued narration line.
func (t *Table) lastNarration() string {
	if len(t.narration) == 0 {
		return ""
	}
	return t.narration[len(t.narration)-1]
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
