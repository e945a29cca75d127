package poker

import (
	"fmt"
	"strings"

	"github.com/pokerlite/pokerlite/pkg/utils"
)

// ShowdownPlayer is one player's revealed hand.
type ShowdownPlayer struct {
	PlayerID       string `json:"player_id"`
	Name           string `json:"name"`
	HoleCards      []Card `json:"hole_cards"`
	BestHand       []Card `json:"best_hand,omitempty"`
	HighlightCards []Card `json:"highlight_cards,omitempty"`
	HandName       string `json:"hand_name,omitempty"`
}

// ShowdownResult summarizes how a hand ended. It stays visible until the
// next hand starts. During a runout it only carries the revealed cards.
type ShowdownResult struct {
	TableID         string           `json:"table_id"`
	HandID          string           `json:"hand_id"`
	HandNumber      int              `json:"hand_number"`
	Players         []ShowdownPlayer `json:"players"`
	WinnerIDs       []string         `json:"winner_ids"`
	Winnings        map[string]int64 `json:"winnings"`
	Contributions   map[string]int64 `json:"contributions"`
	WinningHandName string           `json:"winning_hand_name,omitempty"`
	PotWon          int64            `json:"pot_won"`
	Board           []Card           `json:"board"`
	Pots            []PotResult      `json:"pots,omitempty"`
	FoldWin         bool             `json:"fold_win"`
	Runout          bool             `json:"runout"`
	Narration       string           `json:"narration,omitempty"`
}

// Profit returns what the player won minus what they put in.
func (r *ShowdownResult) Profit(id string) int64 {
	return r.Winnings[id] - r.Contributions[id]
}

// clone returns a deep copy safe to hand out of the table lock.
func (r *ShowdownResult) clone() *ShowdownResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = make([]ShowdownPlayer, len(r.Players))
	for i, p := range r.Players {
		p.HoleCards = append([]Card(nil), p.HoleCards...)
		p.BestHand = append([]Card(nil), p.BestHand...)
		p.HighlightCards = append([]Card(nil), p.HighlightCards...)
		c.Players[i] = p
	}
	c.WinnerIDs = append([]string(nil), r.WinnerIDs...)
	c.Board = append([]Card(nil), r.Board...)
	c.Winnings = copyAmounts(r.Winnings)
	c.Contributions = copyAmounts(r.Contributions)
	c.Pots = make([]PotResult, len(r.Pots))
	for i, p := range r.Pots {
		p.Eligible = append([]string(nil), p.Eligible...)
		p.Winners = append([]string(nil), p.Winners...)
		c.Pots[i] = p
	}
	return &c
}

func copyAmounts(m map[string]int64) map[string]int64 {
	if m == nil {
		return nil
	}
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// narrateShowdown queues the result line, with a per-pot breakdown when
// there were side pots. "Split pot" is only used when a single pot was
// shared; winners of different pots are each named with their own amount.
func (t *Table) narrateShowdown(res *ShowdownResult, contributions map[string]int64) {
	var b strings.Builder
	switch {
	case len(res.WinnerIDs) == 1:
		id := res.WinnerIDs[0]
		won := res.Winnings[id]
		fmt.Fprintf(&b, "%s wins $%d ($%d profit) with %s",
			t.nameOf(id), won, won-contributions[id], res.WinningHandName)
	case potWasSplit(res.Pots):
		parts := make([]string, 0, len(res.WinnerIDs))
		for _, id := range res.WinnerIDs {
			won := res.Winnings[id]
			parts = append(parts, fmt.Sprintf("%s ($%d, +$%d)", t.nameOf(id), won, won-contributions[id]))
		}
		fmt.Fprintf(&b, "Split pot: %s with %s", strings.Join(parts, ", "), res.WinningHandName)
	default:
		handNames := make(map[string]string, len(res.Players))
		for _, p := range res.Players {
			handNames[p.PlayerID] = p.HandName
		}
		parts := make([]string, 0, len(res.WinnerIDs))
		for _, id := range res.WinnerIDs {
			parts = append(parts, fmt.Sprintf("%s wins $%d with %s", t.nameOf(id), res.Winnings[id], handNames[id]))
		}
		b.WriteString(strings.Join(parts, ", "))
	}

	if len(res.Pots) > 1 {
		for _, pr := range res.Pots {
			names := make([]string, 0, len(pr.Winners))
			for _, id := range pr.Winners {
				names = append(names, t.nameOf(id))
			}
			if pr.Refunded {
				fmt.Fprintf(&b, "\n  • %s: $%d returned to %s", pr.Label, pr.Amount, strings.Join(names, ", "))
				continue
			}
			fmt.Fprintf(&b, "\n  • %s: $%d → %s", pr.Label, pr.Amount, strings.Join(names, ", "))
		}
	}
	t.say("%s", b.String())
}

// potWasSplit reports whether any contested pot had more than one winner.
func potWasSplit(pots []PotResult) bool {
	for _, pr := range pots {
		if !pr.Refunded && len(pr.Winners) > 1 {
			return true
		}
	}
	return false
}

func (t *Table) nameOf(id string) string {
	if p, ok := t.players[id]; ok {
		return p.Name
	}
	return id
}

func formatCards(cards []Card) string {
	return utils.FormatCards(cards)
}
