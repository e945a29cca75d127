package main

import (
	"fmt"

	"github.com/decred/slog"

	"github.com/pokerlite/pokerlite/pkg/poker"
	"github.com/pokerlite/pokerlite/pkg/utils"
)

// logBroadcaster writes the table feed of one watched player to the log and,
// for the console player, to stdout.
type logBroadcaster struct {
	log     slog.Logger
	watch   string
	console bool
}

func (b *logBroadcaster) Notify(tableID, playerID, message string) {
	if playerID != b.watch {
		return
	}
	b.log.Infof("[%s] %s", tableID, message)
	if b.console {
		fmt.Println(message)
	}
}

func (b *logBroadcaster) SendState(tableID, playerID string, st poker.TableState) {
	if !b.console || playerID != b.watch || st.CurrentTurn != playerID || st.Runout {
		return
	}
	owed := st.CurrentBet - st.PlayerBets[playerID]
	fmt.Printf("Your turn. Hand: %s  Board: %s  Pot: $%d  To call: $%d\n",
		utils.FormatCards(st.HoleCards), utils.FormatCards(st.Board), st.Pot, owed)
}

func (b *logBroadcaster) SendShowdown(tableID, playerID string, res *poker.ShowdownResult) {
	if playerID != b.watch {
		return
	}
	b.log.Debugf("[%s] hand %d finished: pot %d to %v", tableID, res.HandNumber, res.PotWon, res.WinnerIDs)
}
