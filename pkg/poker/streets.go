package poker

import (
	"github.com/pokerlite/pokerlite/pkg/statemachine"
)

// TableStateFn is a street state following Rob Pike's pattern. Each state
// deals its street when stepped and returns the state for the next one.
type TableStateFn = statemachine.StateFn[Table]

// newStreetMachine returns the machine for a freshly dealt hand. The
// preflop is dealt by startHand, so the first step deals the flop.
func newStreetMachine(t *Table) *statemachine.StateMachine[Table] {
	return statemachine.NewStateMachine(t, stateFlop)
}

func stateFlop(t *Table) TableStateFn {
	t.dealStreet(StreetFlop, 3)
	return stateTurn
}

func stateTurn(t *Table) TableStateFn {
	t.dealStreet(StreetTurn, 1)
	return stateRiver
}

func stateRiver(t *Table) TableStateFn {
	t.dealStreet(StreetRiver, 1)
	return stateShowdown
}

// stateShowdown settles the hand once the board is complete.
func stateShowdown(t *Table) TableStateFn {
	t.showdown()
	return nil
}

// dealStreet burns and deals n board cards for street and resets round
// betting.
func (t *Table) dealStreet(street Street, n int) {
	t.street = street
	t.deck.Burn()
	for i := 0; i < n; i++ {
		t.community = append(t.community, t.draw())
	}

	t.acted = make(map[string]bool)
	t.lastAction = nil
	t.currentBet = 0
	t.pots.ResetCurrentBets()
	if t.runout {
		t.setTurn("")
	} else {
		t.setTurn(t.nextActorAfter(t.dealerSeat))
	}
	t.say("Dealing %s: %s", t.street.title(), formatCards(t.community))
}

// advanceStreet steps the hand to its next street, or to showdown once the
// river betting is done.
func (t *Table) advanceStreet() {
	if t.streets == nil || t.streets.Done() {
		return
	}
	t.streets.Step()
}
