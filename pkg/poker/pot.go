package poker

import (
	"fmt"
	"sort"
)

// PotManager tracks chip contributions for a hand: what each player has put
// in during the current betting round and across the whole hand.
type PotManager struct {
	CurrentBets map[string]int64 // Current bet for each player in this round
	TotalBets   map[string]int64 // Total bet for each player across all rounds
}

// NewPotManager returns an empty ledger.
func NewPotManager() *PotManager {
	return &PotManager{
		CurrentBets: make(map[string]int64),
		TotalBets:   make(map[string]int64),
	}
}

// AddBet records chips moved from a player's stack into the pot.
func (pm *PotManager) AddBet(playerID string, amount int64) {
	if amount < 0 {
		panic(fmt.Sprintf("poker: negative bet %d for %s", amount, playerID))
	}
	pm.CurrentBets[playerID] += amount
	pm.TotalBets[playerID] += amount
}

// ResetCurrentBets resets the current bets for a new betting round
func (pm *PotManager) ResetCurrentBets() {
	pm.CurrentBets = make(map[string]int64)
}

// GetTotalPot returns the total amount of chips in the pot.
func (pm *PotManager) GetTotalPot() int64 {
	var total int64
	for _, b := range pm.TotalBets {
		total += b
	}
	return total
}

// GetCurrentBet returns the current bet for a player
func (pm *PotManager) GetCurrentBet(playerID string) int64 {
	return pm.CurrentBets[playerID]
}

// GetTotalBet returns the total bet for a player across all rounds
func (pm *PotManager) GetTotalBet(playerID string) int64 {
	return pm.TotalBets[playerID]
}

// SidePot is one eligibility tier of a settled pot.
type SidePot struct {
	Floor        int64 // contribution range (Floor, Ceiling] this tier covers
	Ceiling      int64
	Amount       int64
	Eligible     []string // non-folded players who can win it, in seat order
	Contributors []string // everyone who paid into it, in seat order
}

// BuildSidePots partitions the lifetime contributions of a hand into tiers.
// order lists every player dealt into the hand in seat order; folded marks
// those no longer contesting. Each distinct contribution level forms a tier
// paid by every player who reached it, and only non-folded players who
// reached a level may win its tier. Adjacent tiers with the same eligible
// players are merged, so equal contributions collapse to a single pot.
func BuildSidePots(order []string, contributions map[string]int64, folded map[string]bool) []SidePot {
	seen := make(map[int64]bool)
	for _, id := range order {
		if c := contributions[id]; c > 0 {
			seen[c] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	levels := make([]int64, 0, len(seen))
	for lvl := range seen {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var pots []SidePot
	prev := int64(0)
	for _, lvl := range levels {
		pot := SidePot{Floor: prev, Ceiling: lvl}
		for _, id := range order {
			c := contributions[id]
			if c <= prev {
				continue
			}
			part := c
			if part > lvl {
				part = lvl
			}
			pot.Amount += part - prev
			pot.Contributors = append(pot.Contributors, id)
			if !folded[id] && c >= lvl {
				pot.Eligible = append(pot.Eligible, id)
			}
		}
		prev = lvl

		if n := len(pots); n > 0 && sameIDs(pots[n-1].Eligible, pot.Eligible) && len(pot.Eligible) > 0 {
			pots[n-1].Amount += pot.Amount
			pots[n-1].Ceiling = pot.Ceiling
			continue
		}
		pots = append(pots, pot)
	}
	return pots
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PotResult describes how one pot was paid out.
type PotResult struct {
	Label    string   `json:"label"` // "Main Pot", "Side Pot 1", ...
	Amount   int64    `json:"amount"`
	Eligible []string `json:"eligible"`
	Winners  []string `json:"winners"`
	HandName string   `json:"hand_name,omitempty"`
	Refunded bool     `json:"refunded"` // nobody eligible; returned to its contributors
}

// SettlePots awards every pot to the best eligible hand. hands must hold an
// evaluation for each eligible player. Ties split evenly and any remainder
// goes to the first winner in seat order. A pot with no eligible player is
// returned to its contributors in proportion to what they put in. The
// returned map holds the total each player receives.
func SettlePots(pots []SidePot, contributions map[string]int64, hands map[string]HandValue) ([]PotResult, map[string]int64) {
	awards := make(map[string]int64)
	results := make([]PotResult, 0, len(pots))

	for i, pot := range pots {
		res := PotResult{
			Label:    potLabel(i),
			Amount:   pot.Amount,
			Eligible: append([]string(nil), pot.Eligible...),
		}

		if len(pot.Eligible) == 0 {
			res.Refunded = true
			res.Winners = refundTier(pot, contributions, awards)
			results = append(results, res)
			continue
		}

		var best HandValue
		for _, id := range pot.Eligible {
			hv, ok := hands[id]
			if !ok {
				panic(fmt.Sprintf("poker: no hand evaluation for eligible player %s", id))
			}
			switch {
			case len(res.Winners) == 0:
				best = hv
				res.Winners = []string{id}
			case CompareHands(hv, best) > 0:
				best = hv
				res.Winners = []string{id}
			case CompareHands(hv, best) == 0:
				res.Winners = append(res.Winners, id)
			}
		}
		res.HandName = best.HandDescription

		share := pot.Amount / int64(len(res.Winners))
		rem := pot.Amount % int64(len(res.Winners))
		for j, id := range res.Winners {
			add := share
			if j == 0 {
				add += rem
			}
			awards[id] += add
		}
		results = append(results, res)
	}
	return results, awards
}

// refundTier returns an uncontested pot to the players who paid into it.
func refundTier(pot SidePot, contributions map[string]int64, awards map[string]int64) []string {
	var paid int64
	var ids []string
	for _, id := range pot.Contributors {
		c := contributions[id]
		if c > pot.Ceiling {
			c = pot.Ceiling
		}
		part := c - pot.Floor
		if part <= 0 {
			continue
		}
		awards[id] += part
		paid += part
		ids = append(ids, id)
	}
	if paid != pot.Amount {
		panic(fmt.Sprintf("poker: refund of %d does not match pot of %d", paid, pot.Amount))
	}
	return ids
}

func potLabel(i int) string {
	if i == 0 {
		return "Main Pot"
	}
	return fmt.Sprintf("Side Pot %d", i)
}
