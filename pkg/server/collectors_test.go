package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerlite/pokerlite/pkg/poker"
)

type unknownPayload struct{}

func (unknownPayload) Kind() GameEventType { return "unknown" }

func newCollectorTable(t *testing.T) *poker.Table {
	t.Helper()
	tbl := poker.NewTable(poker.TableConfig{ID: "t", Log: createTestLogger(), Seed: 3, MaxPlayers: 2})
	tbl.UpsertPlayer("p1", "Alice")
	tbl.UpsertPlayer("p2", "Bob")
	tbl.UpsertPlayer("p3", "Carol")
	return tbl
}

func TestCollectSnapshotErrors(t *testing.T) {
	tbl := newCollectorTable(t)

	_, err := CollectGameEventSnapshot(tbl, nil)
	assert.Error(t, err)

	_, err = CollectGameEventSnapshot(tbl, unknownPayload{})
	assert.Error(t, err)

	_, err = CollectGameEventSnapshot(tbl, ShowdownPayload{})
	assert.Error(t, err, "showdown without a result")
}

func TestNarrationEventAddressesConnectedPlayers(t *testing.T) {
	tbl := newCollectorTable(t)
	tbl.HandleDisconnect("p3")

	event, err := CollectGameEventSnapshot(tbl, NarrationPayload{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, GameEventTypeNarration, event.Type)
	assert.Equal(t, "t", event.TableID)
	assert.ElementsMatch(t, []string{"p1", "p2"}, event.PlayerIDs)
	assert.Equal(t, NarrationPayload{Message: "hi"}, event.Payload)
}

func TestTableStateEventHasOneViewPerViewer(t *testing.T) {
	tbl := newCollectorTable(t)
	_, ok := tbl.StartHand()
	require.True(t, ok)

	event, err := CollectGameEventSnapshot(tbl, TableStatePayload{})
	require.NoError(t, err)
	p, ok := event.Payload.(TableStatePayload)
	require.True(t, ok)
	require.Len(t, p.States, 3)

	for id, st := range p.States {
		assert.Equal(t, id, st.ViewerID)
	}
	assert.Len(t, p.States["p1"].HoleCards, 2)
	assert.Len(t, p.States["p2"].HoleCards, 2)
	assert.Empty(t, p.States["p3"].HoleCards)
}
