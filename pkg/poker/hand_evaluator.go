package poker

import (
	"fmt"
	"sort"

	chpoker "github.com/chehsunliu/poker"
)

// HandRank represents the category of a poker hand. Higher is better.
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the display name of the hand category.
func (r HandRank) String() string {
	switch r {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandValue represents a complete evaluation of a hand: its category, the
// rank values used to break ties inside that category, and the cards that
// make up the hand.
type HandValue struct {
	Rank HandRank
	// RankValue is the chehsunliu rank of a 5-card hand, 1 (royal flush) to
	// 7462; lower is better. Zero for hands of fewer than five cards.
	RankValue       int32
	Tiebreakers     []int  // compared lexicographically, most significant first
	BestHand        []Card // the 5 cards that make up the best hand
	HandDescription string
}

// toChehsunliu converts cards to the chehsunliu/poker representation.
func toChehsunliu(cards []Card) []chpoker.Card {
	out := make([]chpoker.Card, len(cards))
	for i, c := range cards {
		out[i] = chpoker.NewCard(c.Code())
	}
	return out
}

// rankFromClass maps a chehsunliu rank class to a hand category. The library
// folds royal flushes into straight flushes; its best rank is the royal.
func rankFromClass(rank, class int32) HandRank {
	switch class {
	case 1:
		if rank == 1 {
			return RoyalFlush
		}
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return Pair
	default:
		return HighCard
	}
}

// valueToInt converts a card Value to its integer representation
func valueToInt(value Value) int {
	switch value {
	case Ace:
		return 14
	case King:
		return 13
	case Queen:
		return 12
	case Jack:
		return 11
	case Ten:
		return 10
	case Nine:
		return 9
	case Eight:
		return 8
	case Seven:
		return 7
	case Six:
		return 6
	case Five:
		return 5
	case Four:
		return 4
	case Three:
		return 3
	case Two:
		return 2
	default:
		return 0
	}
}

// rankName returns the singular and plural spoken names of a rank value.
func rankName(v int) (string, string) {
	switch v {
	case 14:
		return "Ace", "Aces"
	case 13:
		return "King", "Kings"
	case 12:
		return "Queen", "Queens"
	case 11:
		return "Jack", "Jacks"
	case 10:
		return "Ten", "Tens"
	case 9:
		return "Nine", "Nines"
	case 8:
		return "Eight", "Eights"
	case 7:
		return "Seven", "Sevens"
	case 6:
		return "Six", "Sixes"
	case 5:
		return "Five", "Fives"
	case 4:
		return "Four", "Fours"
	case 3:
		return "Three", "Threes"
	case 2:
		return "Two", "Twos"
	default:
		return "?", "?"
	}
}

// EvaluateHand evaluates a player's best hand from their hole cards and the
// community cards.
func EvaluateHand(holeCards []Card, communityCards []Card) HandValue {
	allCards := make([]Card, 0, len(holeCards)+len(communityCards))
	allCards = append(allCards, holeCards...)
	allCards = append(allCards, communityCards...)
	return Evaluate(allCards)
}

// Evaluate ranks 2 to 7 cards. With more than five cards every 5-card subset
// is evaluated and the strongest one wins; the result never depends on the
// order the cards were given in.
func Evaluate(cards []Card) HandValue {
	hv, _ := BestFive(cards)
	return hv
}

// BestFive returns the evaluation of the strongest 5-card subset of cards
// together with that subset. Every subset is ranked by chehsunliu/poker.
// Inputs of fewer than five cards are graded by their rank groups only.
func BestFive(cards []Card) (HandValue, []Card) {
	if len(cards) < 5 {
		hv := evaluateCards(cards)
		return hv, hv.BestHand
	}

	var (
		bestCombo []Card
		bestRank  int32
	)
	for _, combo := range generateCombinations(cards, 5) {
		r := chpoker.Evaluate(toChehsunliu(combo))
		if bestCombo == nil || r < bestRank {
			bestCombo, bestRank = combo, r
		}
	}

	hv := evaluateCards(bestCombo)
	hv.RankValue = bestRank
	hv.Rank = rankFromClass(bestRank, chpoker.RankClass(bestRank))
	hv.HandDescription = describeHand(hv)
	return hv, hv.BestHand
}

// rankGroup is a set of cards sharing a rank.
type rankGroup struct {
	rank  int
	cards []Card
}

// groupByRank groups cards by rank, largest group first and higher rank
// first within groups of equal size.
func groupByRank(cards []Card) []rankGroup {
	byRank := make(map[int][]Card)
	for _, c := range cards {
		byRank[c.Rank()] = append(byRank[c.Rank()], c)
	}
	groups := make([]rankGroup, 0, len(byRank))
	for r, cs := range byRank {
		groups = append(groups, rankGroup{rank: r, cards: cs})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].cards) != len(groups[j].cards) {
			return len(groups[i].cards) > len(groups[j].cards)
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}

// straightHigh reports the high card of a 5-card straight formed by the
// given distinct ranks (sorted descending), or 0 when there is none. The
// wheel A-2-3-4-5 is a five-high straight.
func straightHigh(ranks []int) int {
	if len(ranks) != 5 {
		return 0
	}
	if ranks[0]-ranks[4] == 4 {
		return ranks[0]
	}
	if ranks[0] == 14 && ranks[1] == 5 && ranks[4] == 2 {
		return 5
	}
	return 0
}

// evaluateCards groups a hand of at most five cards into its category,
// tiebreakers and display order.
func evaluateCards(cards []Card) HandValue {
	groups := groupByRank(cards)

	ordered := make([]Card, 0, len(cards))
	distinct := make([]int, 0, len(groups))
	for _, g := range groups {
		sortCardsBySuit(g.cards)
		ordered = append(ordered, g.cards...)
		distinct = append(distinct, g.rank)
	}

	isFlush := len(cards) == 5
	for _, c := range cards {
		if c.suit != cards[0].suit {
			isFlush = false
			break
		}
	}

	high := 0
	if len(groups) == 5 {
		sorted := append([]int(nil), distinct...)
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		high = straightHigh(sorted)
		if high == 5 {
			// Ace plays low in the wheel.
			ordered = append(ordered[1:], ordered[0])
		}
	}

	hv := HandValue{BestHand: ordered}
	switch {
	case high > 0 && isFlush && high == 14:
		hv.Rank = RoyalFlush
		hv.Tiebreakers = []int{high}
	case high > 0 && isFlush:
		hv.Rank = StraightFlush
		hv.Tiebreakers = []int{high}
	case len(groups[0].cards) == 4:
		hv.Rank = FourOfAKind
		hv.Tiebreakers = distinct
	case len(groups) >= 2 && len(groups[0].cards) == 3 && len(groups[1].cards) == 2:
		hv.Rank = FullHouse
		hv.Tiebreakers = distinct
	case isFlush:
		hv.Rank = Flush
		hv.Tiebreakers = distinct
	case high > 0:
		hv.Rank = Straight
		hv.Tiebreakers = []int{high}
	case len(groups[0].cards) == 3:
		hv.Rank = ThreeOfAKind
		hv.Tiebreakers = distinct
	case len(groups) >= 2 && len(groups[0].cards) == 2 && len(groups[1].cards) == 2:
		hv.Rank = TwoPair
		hv.Tiebreakers = distinct
	case len(groups[0].cards) == 2:
		hv.Rank = Pair
		hv.Tiebreakers = distinct
	default:
		hv.Rank = HighCard
		hv.Tiebreakers = distinct
	}
	hv.HandDescription = describeHand(hv)
	return hv
}

// describeHand builds a human readable description such as
// "Full House, Kings over Nines".
func describeHand(hv HandValue) string {
	if len(hv.Tiebreakers) == 0 {
		return hv.Rank.String()
	}
	one, many := rankName(hv.Tiebreakers[0])
	switch hv.Rank {
	case RoyalFlush:
		return hv.Rank.String()
	case StraightFlush, Straight, Flush:
		return fmt.Sprintf("%s, %s high", hv.Rank, one)
	case FourOfAKind, ThreeOfAKind:
		return fmt.Sprintf("%s, %s", hv.Rank, many)
	case FullHouse:
		_, over := rankName(hv.Tiebreakers[1])
		return fmt.Sprintf("Full House, %s over %s", many, over)
	case TwoPair:
		_, low := rankName(hv.Tiebreakers[1])
		return fmt.Sprintf("Two Pair, %s and %s", many, low)
	case Pair:
		return fmt.Sprintf("Pair of %s", many)
	default:
		return fmt.Sprintf("High Card, %s", one)
	}
}

// generateCombinations generates all possible k-combinations from a slice of cards
func generateCombinations(cards []Card, k int) [][]Card {
	var combinations [][]Card

	if k > len(cards) || k <= 0 {
		return combinations
	}

	if k == len(cards) {
		return [][]Card{cards}
	}

	var generate func(start int, current []Card)
	generate = func(start int, current []Card) {
		if len(current) == k {
			combination := make([]Card, k)
			copy(combination, current)
			combinations = append(combinations, combination)
			return
		}

		for i := start; i <= len(cards)-(k-len(current)); i++ {
			generate(i+1, append(current, cards[i]))
		}
	}

	generate(0, make([]Card, 0, k))
	return combinations
}

// sortCardsBySuit orders same-rank cards so output is stable.
func sortCardsBySuit(cards []Card) {
	order := map[Suit]int{Spades: 0, Hearts: 1, Diamonds: 2, Clubs: 3}
	sort.SliceStable(cards, func(i, j int) bool {
		return order[cards[i].suit] < order[cards[j].suit]
	})
}

// CompareHands compares two hand values and returns:
// -1 if handA < handB (handA is worse)
// 0 if handA == handB (tie)
// 1 if handA > handB (handA is better)
// Five-card hands are ordered by their chehsunliu rank.
func CompareHands(handA, handB HandValue) int {
	if handA.RankValue > 0 && handB.RankValue > 0 {
		switch {
		case handA.RankValue < handB.RankValue:
			return 1
		case handA.RankValue > handB.RankValue:
			return -1
		}
		return 0
	}

	if handA.Rank != handB.Rank {
		if handA.Rank > handB.Rank {
			return 1
		}
		return -1
	}

	n := len(handA.Tiebreakers)
	if len(handB.Tiebreakers) > n {
		n = len(handB.Tiebreakers)
	}
	for i := 0; i < n; i++ {
		var a, b int
		if i < len(handA.Tiebreakers) {
			a = handA.Tiebreakers[i]
		}
		if i < len(handB.Tiebreakers) {
			b = handB.Tiebreakers[i]
		}
		if a > b {
			return 1
		}
		if a < b {
			return -1
		}
	}
	return 0
}

// KeyCards returns the cards of a best hand that make up the made hand, for
// highlighting: all five for full houses, flushes and straights, only the
// matched cards for quads, trips and pairs, and the single top card for a
// high-card hand.
func KeyCards(bestHand []Card, rank HandRank) []Card {
	if len(bestHand) == 0 {
		return nil
	}
	switch rank {
	case RoyalFlush, StraightFlush, FullHouse, Flush, Straight:
		return append([]Card(nil), bestHand...)
	case FourOfAKind, ThreeOfAKind, TwoPair, Pair:
		counts := make(map[int]int)
		for _, c := range bestHand {
			counts[c.Rank()]++
		}
		var key []Card
		for _, c := range bestHand {
			if counts[c.Rank()] >= 2 {
				key = append(key, c)
			}
		}
		return key
	default:
		top := bestHand[0]
		for _, c := range bestHand[1:] {
			if c.Rank() > top.Rank() {
				top = c
			}
		}
		return []Card{top}
	}
}
