package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/decred/slog"

	"github.com/pokerlite/pokerlite/pkg/server"
)

const defaultHandsShown = 5

const helpMsg = `Available commands:
- tables: List all tables
- status: Show the table you are at
- hands [n]: Show the last n hands of the table
- start: Start the next hand
- fold, check, call, allin: Act on your turn
- raise <amount>: Raise to amount (0 for the minimum raise)
- waitlist: Join the waitlist for a seat
- leave: Leave the waitlist
- help: Show this help message`

// State answers text commands sent by players. Table output (narration,
// views, results) reaches players through the server's Broadcaster; replies
// here only cover the command itself.
type State struct {
	srv *server.Server
	log slog.Logger
}

// NewState creates a command handler for srv.
func NewState(srv *server.Server, log slog.Logger) *State {
	if log == nil {
		log = slog.Disabled
	}
	return &State{srv: srv, log: log}
}

// HandleCommand runs one command line for playerID at tableID and returns the
// reply, which is empty when there is nothing to say.
func (s *State) HandleCommand(tableID, playerID, line string) string {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return ""
	}

	cmd := strings.ToLower(tokens[0])
	switch cmd {
	case "help":
		return helpMsg

	case "tables":
		return s.handleListTables()

	case "status":
		tbl, err := s.srv.Table(tableID)
		if err != nil {
			return "Error: " + err.Error()
		}
		return strings.TrimRight(tbl.GetStatus(), "\n")

	case "hands":
		return s.handleRecentHands(tableID, tokens)

	case "start":
		return s.send(tableID, playerID, server.Message{Type: server.MessageStart})

	case "fold", "check", "call", "allin", "all_in", "all-in":
		return s.handleAction(tableID, playerID, cmd, 0)

	case "raise":
		var amount int64
		if len(tokens) > 1 {
			v, err := strconv.ParseInt(tokens[1], 10, 64)
			if err != nil || v < 0 {
				return "Usage: raise <amount>"
			}
			amount = v
		}
		return s.handleAction(tableID, playerID, cmd, amount)

	case "waitlist":
		return s.send(tableID, playerID, server.Message{Type: server.MessageJoinWaitlist})

	case "leave":
		return s.send(tableID, playerID, server.Message{Type: server.MessageLeaveWaitlist})

	default:
		return "Unknown command. Type 'help' for available commands."
	}
}

func (s *State) handleAction(tableID, playerID, kind string, amount int64) string {
	st, err := s.srv.State(tableID, playerID)
	if err != nil {
		return "Error: " + err.Error()
	}
	switch {
	case !st.HandInProgress:
		return "No hand in progress."
	case st.CurrentTurn != playerID:
		return "It's not your turn."
	case kind == "check" && st.CurrentBet > st.PlayerBets[playerID]:
		return fmt.Sprintf("You can't check, $%d to call.", st.CurrentBet-st.PlayerBets[playerID])
	}
	return s.send(tableID, playerID, server.Message{Type: server.MessageAction, Action: kind, Amount: amount})
}

func (s *State) send(tableID, playerID string, msg server.Message) string {
	if err := s.srv.HandleMessage(tableID, playerID, msg); err != nil {
		s.log.Debugf("command %s from %s failed: %v", msg.Type, playerID, err)
		return "Error: " + err.Error()
	}
	return ""
}

func (s *State) handleListTables() string {
	ids := s.srv.TableIDs()
	if len(ids) == 0 {
		return "No active tables."
	}

	msg := "Active tables:"
	for _, id := range ids {
		tbl, err := s.srv.Table(id)
		if err != nil {
			continue
		}
		st := tbl.StateFor("")
		status := "waiting"
		if st.HandInProgress {
			status = fmt.Sprintf("hand %d", st.HandNumber)
		}
		msg += fmt.Sprintf("\n%s: %d/%d seated, blinds %d/%d, %s", id, len(st.Players),
			tbl.Config().MaxPlayers, st.SmallBlind, st.BigBlind, status)
	}
	return msg
}

func (s *State) handleRecentHands(tableID string, tokens []string) string {
	limit := defaultHandsShown
	if len(tokens) > 1 {
		n, err := strconv.Atoi(tokens[1])
		if err != nil || n <= 0 {
			return "Usage: hands [n]"
		}
		limit = n
	}

	hands, err := s.srv.RecentHands(tableID, limit)
	if err != nil {
		return "Error: " + err.Error()
	}
	if len(hands) == 0 {
		return "No hands played yet."
	}

	var b strings.Builder
	b.WriteString("Recent hands:")
	for _, h := range hands {
		how := h.WinningHand
		if h.FoldWin {
			how = "others folded"
		}
		fmt.Fprintf(&b, "\n#%d: pot $%d to %s", h.HandNumber, h.Pot, strings.Join(h.Winners, ", "))
		if how != "" {
			fmt.Fprintf(&b, " (%s)", how)
		}
		if len(h.Board) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(h.Board, " "))
		}
	}
	return b.String()
}
