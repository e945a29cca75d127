package server

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerlite/pokerlite/pkg/poker"
)

func TestCreateTable(t *testing.T) {
	s, _, _ := newTestServer(t)

	tbl, err := s.CreateTable(TableOptions{ID: "main"})
	require.NoError(t, err)
	assert.Equal(t, "main", tbl.ID())

	_, err = s.CreateTable(TableOptions{ID: "main"})
	assert.True(t, errors.Is(err, ErrTableExists))

	anon, err := s.CreateTable(TableOptions{})
	require.NoError(t, err)
	_, err = uuid.Parse(anon.ID())
	assert.NoError(t, err, "generated table id should be a uuid")

	assert.Len(t, s.TableIDs(), 2)
	assert.Contains(t, s.TableIDs(), "main")

	got, err := s.Table("main")
	require.NoError(t, err)
	assert.Same(t, tbl, got)

	_, err = s.Table("nope")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestTableOptionsOverrideDefaults(t *testing.T) {
	s := NewServer(&Config{
		Table: TableDefaults{SmallBlind: 1, BigBlind: 2, StartingStack: 200},
	}, nil, nil)
	t.Cleanup(s.Stop)

	tbl, err := s.CreateTable(TableOptions{ID: "t", BigBlind: 50, MaxPlayers: 4})
	require.NoError(t, err)

	cfg := tbl.Config()
	assert.Equal(t, int64(1), cfg.SmallBlind)
	assert.Equal(t, int64(50), cfg.BigBlind)
	assert.Equal(t, int64(200), cfg.StartingStack)
	assert.Equal(t, 4, cfg.MaxPlayers)
}

func TestGetOrCreateAndDeleteTable(t *testing.T) {
	s, _, _ := newTestServer(t)

	a, err := s.GetOrCreateTable("x")
	require.NoError(t, err)
	b, err := s.GetOrCreateTable("x")
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, s.DeleteTable("x"))
	assert.Empty(t, s.TableIDs())
	assert.True(t, errors.Is(s.DeleteTable("x"), ErrTableNotFound))
}

func TestConnectSeatsPlayersAndStartsTimer(t *testing.T) {
	s, _, _ := newTestServer(t)
	_, err := s.CreateTable(TableOptions{ID: "t", MaxPlayers: 2})
	require.NoError(t, err)

	role, err := s.Connect("t", "p1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, poker.RoleSeated, role)

	role, err = s.Connect("t", "p2", "Bob")
	require.NoError(t, err)
	assert.Equal(t, poker.RoleSeated, role)

	role, err = s.Connect("t", "p3", "Carol")
	require.NoError(t, err)
	assert.Equal(t, poker.RoleSpectator, role, "table is full")

	e, err := s.entry("t")
	require.NoError(t, err)
	assert.True(t, e.runner.Running())

	_, err = s.Connect("nope", "p1", "Alice")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestFoldWinIsBroadcastAndRecorded(t *testing.T) {
	s, b, db := newTestServer(t)
	_, err := s.CreateTable(TableOptions{ID: "t"})
	require.NoError(t, err)
	_, err = s.Connect("t", "p1", "Alice")
	require.NoError(t, err)
	_, err = s.Connect("t", "p2", "Bob")
	require.NoError(t, err)

	require.NoError(t, s.HandleMessage("t", "p1", Message{Type: MessageStart}))
	st, err := s.State("t", "p1")
	require.NoError(t, err)
	require.True(t, st.HandInProgress)
	require.Equal(t, "p1", st.CurrentTurn, "heads-up dealer acts first")

	require.NoError(t, s.HandleMessage("t", "p1", Message{Type: MessageAction, Action: "fold"}))

	b.waitForNote(t, "p1", "Bob wins $15 (others folded)")
	b.waitForNote(t, "p2", "Bob wins $15 (others folded)")

	require.Eventually(t, func() bool { return db.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	hands, err := s.RecentHands("t", 10)
	require.NoError(t, err)
	require.Len(t, hands, 1)
	assert.True(t, hands[0].FoldWin)
	assert.Equal(t, []string{"p2"}, hands[0].Winners)
	assert.Equal(t, int64(15), hands[0].Pot)

	require.Eventually(t, func() bool {
		return len(b.showdownsFor("p1")) == 1 && len(b.showdownsFor("p2")) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStartIgnoredFromSpectator(t *testing.T) {
	s, _, _ := newTestServer(t)
	tbl, err := s.CreateTable(TableOptions{ID: "t", MaxPlayers: 2})
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := s.Connect("t", id, id)
		require.NoError(t, err)
	}

	require.NoError(t, s.HandleMessage("t", "p3", Message{Type: MessageStart}))
	assert.False(t, tbl.IsHandInProgress())

	require.NoError(t, s.HandleMessage("t", "p2", Message{Type: MessageStart}))
	assert.True(t, tbl.IsHandInProgress())
}

func TestHandleMessageRejectionsAreNotErrors(t *testing.T) {
	s, _, _ := newTestServer(t)
	tbl, err := s.CreateTable(TableOptions{ID: "t"})
	require.NoError(t, err)
	_, _ = s.Connect("t", "p1", "Alice")
	_, _ = s.Connect("t", "p2", "Bob")
	require.NoError(t, s.HandleMessage("t", "p1", Message{Type: MessageStart}))

	// Out of turn, unknown action and an unknown message type.
	assert.NoError(t, s.HandleMessage("t", "p2", Message{Type: MessageAction, Action: "call"}))
	assert.NoError(t, s.HandleMessage("t", "p1", Message{Type: MessageAction, Action: "dance"}))
	assert.NoError(t, s.HandleMessage("t", "p1", Message{Type: "shuffle"}))

	st := tbl.StateFor("p1")
	assert.Equal(t, "p1", st.CurrentTurn)
	assert.Nil(t, st.LastAction)

	err = s.HandleMessage("nope", "p1", Message{Type: MessageStart})
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestViewersOnlySeeTheirOwnHoleCards(t *testing.T) {
	s, b, _ := newTestServer(t)
	_, err := s.CreateTable(TableOptions{ID: "t", MaxPlayers: 2})
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := s.Connect("t", id, id)
		require.NoError(t, err)
	}
	require.NoError(t, s.HandleMessage("t", "p1", Message{Type: MessageStart}))

	// Views go out in viewer order; p3 is last.
	require.Eventually(t, func() bool {
		st, ok := b.stateFor("p3")
		return ok && st.HandInProgress
	}, 2*time.Second, 5*time.Millisecond)

	p1, _ := b.stateFor("p1")
	p2, _ := b.stateFor("p2")
	p3, _ := b.stateFor("p3")
	assert.Len(t, p1.HoleCards, 2)
	assert.Len(t, p2.HoleCards, 2)
	assert.NotEqual(t, p1.HoleCards, p2.HoleCards)
	assert.Empty(t, p3.HoleCards, "spectators see no hole cards")
	assert.Equal(t, poker.RoleSpectator, p3.MyRole)
}

func TestWaitlistMessages(t *testing.T) {
	s, _, _ := newTestServer(t)
	tbl, err := s.CreateTable(TableOptions{ID: "t", MaxPlayers: 2})
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := s.Connect("t", id, id)
		require.NoError(t, err)
	}

	require.NoError(t, s.HandleMessage("t", "p3", Message{Type: MessageJoinWaitlist}))
	role, _ := tbl.Role("p3")
	assert.Equal(t, poker.RoleWaitlist, role)
	assert.Equal(t, 1, tbl.StateFor("p3").WaitlistPosition)

	require.NoError(t, s.HandleMessage("t", "p3", Message{Type: MessageLeaveWaitlist}))
	role, _ = tbl.Role("p3")
	assert.Equal(t, poker.RoleSpectator, role)
}

func TestDisconnectStopsTimerWhenEmpty(t *testing.T) {
	s, _, _ := newTestServer(t)
	tbl, err := s.CreateTable(TableOptions{ID: "t"})
	require.NoError(t, err)
	_, _ = s.Connect("t", "p1", "Alice")
	_, _ = s.Connect("t", "p2", "Bob")
	require.NoError(t, s.HandleMessage("t", "p1", Message{Type: MessageStart}))

	e, err := s.entry("t")
	require.NoError(t, err)

	empty, err := s.Disconnect("t", "p1")
	require.NoError(t, err)
	assert.False(t, empty)
	assert.True(t, e.runner.Running())
	assert.False(t, tbl.IsHandInProgress(), "last opponent left, hand is over")

	empty, err = s.Disconnect("t", "p2")
	require.NoError(t, err)
	assert.True(t, empty)
	assert.False(t, e.runner.Running())
	assert.False(t, tbl.HasConnectedPlayers())

	// Reconnecting restarts the timer.
	_, err = s.Connect("t", "p1", "Alice")
	require.NoError(t, err)
	assert.True(t, e.runner.Running())
}

func TestRemovePlayer(t *testing.T) {
	s, _, _ := newTestServer(t)
	tbl, err := s.CreateTable(TableOptions{ID: "t"})
	require.NoError(t, err)
	_, _ = s.Connect("t", "p1", "Alice")
	_, _ = s.Connect("t", "p2", "Bob")

	require.NoError(t, s.RemovePlayer("t", "p2"))
	_, known := tbl.Role("p2")
	assert.False(t, known)
	assert.Equal(t, []string{"p1"}, tbl.PlayerIDs())
	assert.True(t, errors.Is(s.RemovePlayer("nope", "p1"), ErrTableNotFound))
}

func TestReconnectRacingDisconnectKeepsTableInSync(t *testing.T) {
	s, _, _ := newTestServer(t)
	tbl, err := s.CreateTable(TableOptions{ID: "t"})
	require.NoError(t, err)
	_, _ = s.Connect("t", "p1", "Alice")
	_, _ = s.Connect("t", "p2", "Bob")
	e, err := s.entry("t")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Disconnect("t", "p2")
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Connect("t", "p2", "Bob")
		}()
		wg.Wait()

		s.mu.RLock()
		registered := e.conns["p2"]
		s.mu.RUnlock()

		var connected bool
		for _, p := range tbl.StateFor("").Players {
			if p.ID == "p2" {
				connected = p.Connected
			}
		}
		require.Equal(t, registered, connected, "iteration %d", i)
	}

	_, err = s.Connect("t", "p2", "Bob")
	require.NoError(t, err)
	role, _ := tbl.Role("p2")
	assert.Equal(t, poker.RoleSeated, role)
}

func TestTimerAutoFoldsExpiredTurn(t *testing.T) {
	s, b, db := newTestServer(t)
	tbl, err := s.CreateTable(TableOptions{ID: "t", TurnTimeout: 30 * time.Millisecond})
	require.NoError(t, err)
	_, _ = s.Connect("t", "p1", "Alice")
	_, _ = s.Connect("t", "p2", "Bob")
	require.NoError(t, s.HandleMessage("t", "p1", Message{Type: MessageStart}))

	b.waitForNote(t, "p2", "Alice timed out - auto fold")
	assert.False(t, tbl.IsHandInProgress())
	require.Eventually(t, func() bool { return db.count() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestAllInRunoutPlaysOutOnTimer(t *testing.T) {
	s, b, db := newTestServer(t)
	tbl, err := s.CreateTable(TableOptions{ID: "t"})
	require.NoError(t, err)
	_, _ = s.Connect("t", "p1", "Alice")
	_, _ = s.Connect("t", "p2", "Bob")
	require.NoError(t, s.HandleMessage("t", "p1", Message{Type: MessageStart}))

	require.NoError(t, s.HandleMessage("t", "p1", Message{Type: MessageAction, Action: "all_in"}))
	require.NoError(t, s.HandleMessage("t", "p2", Message{Type: MessageAction, Action: "call"}))

	b.waitForNote(t, "p1", "Dealing River")
	require.Eventually(t, func() bool { return db.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, tbl.IsHandInProgress())

	hands, err := s.RecentHands("t", 1)
	require.NoError(t, err)
	require.Len(t, hands, 1)
	h := hands[0]
	assert.Len(t, h.Board, 5)
	assert.Equal(t, int64(2000), h.Pot)

	var won int64
	for _, p := range h.Players {
		won += p.Won
		assert.Len(t, p.HoleCards, 2, "both hands are shown")
	}
	assert.Equal(t, int64(2000), won)
}

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"action","action":"raise","amount":40}`))
	require.NoError(t, err)
	assert.Equal(t, Message{Type: MessageAction, Action: "raise", Amount: 40}, msg)

	msg, err = ParseMessage([]byte(`{"type":"start"}`))
	require.NoError(t, err)
	assert.Equal(t, MessageStart, msg.Type)

	_, err = ParseMessage([]byte(`{"type":`))
	assert.Error(t, err)
}
