package bot

import (
	"context"
	"math/rand"
	"time"

	"github.com/decred/slog"

	"github.com/pokerlite/pokerlite/pkg/poker"
	"github.com/pokerlite/pokerlite/pkg/server"
)

// Default auto-player timings.
const (
	DefaultThinkTime = 500 * time.Millisecond
	DefaultHandPause = 3 * time.Second
)

// Decide picks a move for the viewer of st. It reports false when it is not
// the viewer's turn. A check is only chosen when nothing is owed.
func Decide(st poker.TableState, rng *rand.Rand) (server.Message, bool) {
	if !st.HandInProgress || st.Runout || st.CurrentTurn == "" || st.CurrentTurn != st.ViewerID {
		return server.Message{}, false
	}

	var stack int64
	for _, p := range st.Players {
		if p.ID == st.ViewerID {
			stack = p.Stack
			break
		}
	}

	act := func(kind string, amount int64) (server.Message, bool) {
		return server.Message{Type: server.MessageAction, Action: kind, Amount: amount}, true
	}
	raiseTo := st.CurrentBet + st.BigBlind*int64(1+rng.Intn(3))

	owed := st.CurrentBet - st.PlayerBets[st.ViewerID]
	r := rng.Intn(100)
	switch {
	case owed <= 0:
		if r < 20 && stack > 0 {
			return act("raise", raiseTo)
		}
		return act("check", 0)
	case owed >= stack:
		if r < 40 {
			return act("call", 0)
		}
		return act("fold", 0)
	case r < 15:
		return act("fold", 0)
	case r < 30:
		return act("raise", raiseTo)
	default:
		return act("call", 0)
	}
}

// AutoPlayer plays one seat on its own: it acts on its turn and asks for the
// next hand when the table is idle.
type AutoPlayer struct {
	log       slog.Logger
	srv       *server.Server
	tableID   string
	playerID  string
	rng       *rand.Rand
	thinkTime time.Duration
	handPause time.Duration
}

// NewAutoPlayer creates an auto-player for playerID, which must already be
// connected to tableID.
func NewAutoPlayer(log slog.Logger, srv *server.Server, tableID, playerID string, seed int64) *AutoPlayer {
	if log == nil {
		log = slog.Disabled
	}
	return &AutoPlayer{
		log:       log,
		srv:       srv,
		tableID:   tableID,
		playerID:  playerID,
		rng:       rand.New(rand.NewSource(seed)),
		thinkTime: DefaultThinkTime,
		handPause: DefaultHandPause,
	}
}

// SetTimings changes how long the player waits before acting and before
// starting the next hand.
func (a *AutoPlayer) SetTimings(think, handPause time.Duration) {
	a.thinkTime = think
	a.handPause = handPause
}

// Run plays until ctx is done.
func (a *AutoPlayer) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.thinkTime)
	defer ticker.Stop()

	var idleSince time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		st, err := a.srv.State(a.tableID, a.playerID)
		if err != nil {
			return err
		}

		if !st.HandInProgress {
			if st.MyRole != poker.RoleSeated {
				continue
			}
			if idleSince.IsZero() {
				idleSince = time.Now()
			}
			if time.Since(idleSince) < a.handPause {
				continue
			}
			idleSince = time.Time{}
			if err := a.srv.HandleMessage(a.tableID, a.playerID, server.Message{Type: server.MessageStart}); err != nil {
				return err
			}
			continue
		}
		idleSince = time.Time{}

		msg, ok := Decide(st, a.rng)
		if !ok {
			continue
		}
		a.log.Tracef("%s: %s %d", a.playerID, msg.Action, msg.Amount)
		if err := a.srv.HandleMessage(a.tableID, a.playerID, msg); err != nil {
			return err
		}
	}
}
