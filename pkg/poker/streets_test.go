package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreetMachineDrivesBettingRounds(t *testing.T) {
	tbl, _ := newTestTable(t, "p1", "p2")
	stackDeck(t, tbl, "As Ah Ks Kh", "2c 7d 9h 3s 4d")
	_, ok := tbl.StartHand()
	require.True(t, ok)
	require.NotNil(t, tbl.streets)
	assert.False(t, tbl.streets.Done())

	act(t, tbl, "p1", "call", 0)
	msg := act(t, tbl, "p2", "check", 0)
	assert.Contains(t, msg, "Dealing Flop: "+formatCards(MustParseCards("2c 7d 9h")))

	for _, street := range []Street{StreetTurn, StreetRiver} {
		act(t, tbl, "p2", "check", 0)
		act(t, tbl, "p1", "check", 0)
		st := tbl.StateFor("p1")
		assert.Equal(t, street, st.Street)
		assert.Equal(t, "p2", st.CurrentTurn)
	}

	act(t, tbl, "p2", "check", 0)
	msg = act(t, tbl, "p1", "check", 0)
	assert.Contains(t, msg, "P1 wins $20")
	assert.False(t, tbl.IsHandInProgress())
	assert.Nil(t, tbl.streets, "the machine is dropped with the hand")
}

func TestRunoutContinuesFromCurrentStreet(t *testing.T) {
	tbl, clock := newTestTable(t, "p1", "p2")
	stackDeck(t, tbl, "As Ah Ks Kh", "2c 7d 9h 3s 4d")
	_, ok := tbl.StartHand()
	require.True(t, ok)

	act(t, tbl, "p1", "call", 0)
	act(t, tbl, "p2", "check", 0)
	require.Equal(t, StreetFlop, tbl.StateFor("p1").Street)

	act(t, tbl, "p2", "all_in", 0)
	act(t, tbl, "p1", "call", 0)
	require.True(t, tbl.InRunout())

	res := tbl.Tick(clock.Now())
	assert.True(t, res.RunoutPending)
	assert.Contains(t, res.Narration, "Dealing Turn")
	assert.Len(t, tbl.StateFor("p1").Board, 4)

	res = tbl.Tick(clock.Now())
	assert.True(t, res.RunoutPending)
	assert.Contains(t, res.Narration, "Dealing River")

	res = tbl.Tick(clock.Now())
	assert.False(t, res.RunoutPending)
	assert.Contains(t, res.Narration, "P1 wins $2000")
	assert.Equal(t, int64(2000), totalChips(tbl))
}

func TestAdvanceStreetWithoutHandIsNoop(t *testing.T) {
	tbl, _ := newTestTable(t, "p1", "p2")
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	tbl.advanceStreet()
	assert.Equal(t, StreetIdle, tbl.street)
	assert.Empty(t, tbl.community)
}
