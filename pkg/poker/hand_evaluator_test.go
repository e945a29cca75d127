package poker

import (
	"math/rand"
	"testing"

	chpoker "github.com/chehsunliu/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateHand(t *testing.T) {
	tests := []struct {
		name      string
		hole      string
		community string
		wantRank  HandRank
		wantTie   []int
		wantDesc  string
	}{
		{"Royal Flush", "Ah Kh", "Qh Jh Th 3c 4d", RoyalFlush, []int{14}, "Royal Flush"},
		{"Straight Flush", "9s 8s", "7s 6s 5s 2h 3d", StraightFlush, []int{9}, "Straight Flush, Nine high"},
		{"Four of a Kind", "Ah As", "Ac Ad Kh Qc Js", FourOfAKind, []int{14, 13}, "Four of a Kind, Aces"},
		{"Full House", "Kh Ks", "Kc 9h 9s 2h 3c", FullHouse, []int{13, 9}, "Full House, Kings over Nines"},
		{"Flush", "Ah Th", "8h 6h 4h Jc Qd", Flush, []int{14, 10, 8, 6, 4}, "Flush, Ace high"},
		{"Straight", "9h 8s", "7c 6d 5s 2h 3c", Straight, []int{9}, "Straight, Nine high"},
		{"Three of a Kind", "Qh Qs", "Qc 6d 4s 2h 9c", ThreeOfAKind, []int{12, 9, 6}, "Three of a Kind, Queens"},
		{"Two Pair", "Jh Js", "4c 4d As 2h 9c", TwoPair, []int{11, 4, 14}, "Two Pair, Jacks and Fours"},
		{"Pair", "Th Ts", "Ac 8d 5s 2h 3c", Pair, []int{10, 14, 8, 5}, "Pair of Tens"},
		{"High Card", "Ah 9s", "Kc 7d 5s 2h 3c", HighCard, []int{14, 13, 9, 7, 5}, "High Card, Ace"},
		{"Wheel", "Ah 2s", "3c 4d 5s Kh Qc", Straight, []int{5}, "Straight, Five high"},
		{"Steel Wheel", "Ad 2d", "3d 4d 5d Kh Kc", StraightFlush, []int{5}, "Straight Flush, Five high"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hv := EvaluateHand(MustParseCards(tc.hole), MustParseCards(tc.community))
			assert.Equal(t, tc.wantRank, hv.Rank)
			assert.Equal(t, tc.wantTie, hv.Tiebreakers)
			assert.Equal(t, tc.wantDesc, hv.HandDescription)
			assert.Len(t, hv.BestHand, 5)
		})
	}
}

func TestWheelIsLowestStraight(t *testing.T) {
	wheel := Evaluate(MustParseCards("Ah 2s 3c 4d 5s"))
	sixHigh := Evaluate(MustParseCards("2h 3s 4c 5d 6s"))

	require.Equal(t, Straight, wheel.Rank)
	require.Equal(t, []int{5}, wheel.Tiebreakers)
	assert.Equal(t, -1, CompareHands(wheel, sixHigh))
	assert.Equal(t, 1, CompareHands(sixHigh, wheel))

	// The ace plays low, so it is listed last.
	assert.Equal(t, Five, wheel.BestHand[0].value)
	assert.Equal(t, Ace, wheel.BestHand[4].value)

	// A-K-Q-J-T is not a wrapped straight with 2-3.
	broken := Evaluate(MustParseCards("Qh Ks As 2c 3d"))
	assert.Equal(t, HighCard, broken.Rank)
}

func TestConcealedFlushFoundInSevenCards(t *testing.T) {
	// The first five cards read as a pair; the flush only shows across all seven.
	cards := MustParseCards("7c 7d 2h 9h Jh Kh 4h")
	hv, best := BestFive(cards)

	require.Equal(t, Flush, hv.Rank)
	assert.Equal(t, []int{13, 11, 9, 4, 2}, hv.Tiebreakers)
	for _, c := range best {
		assert.Equal(t, Hearts, c.suit)
	}
}

func TestEvaluateIgnoresCardOrder(t *testing.T) {
	cards := MustParseCards("Ks 9d 9c 4h Kd 2s 9h")
	want := Evaluate(cards)
	require.Equal(t, FullHouse, want.Rank)
	require.Equal(t, []int{9, 13}, want.Tiebreakers)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]Card(nil), cards...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Evaluate(shuffled)
		assert.Equal(t, want.Rank, got.Rank)
		assert.Equal(t, want.Tiebreakers, got.Tiebreakers)
	}
}

func TestKickerOrdering(t *testing.T) {
	board := MustParseCards("Ah Ad 9c 6s 2d")
	kingKicker := EvaluateHand(MustParseCards("Kc 3h"), board)
	queenKicker := EvaluateHand(MustParseCards("Qc Jh"), board)

	assert.Equal(t, Pair, kingKicker.Rank)
	assert.Equal(t, []int{14, 13, 9, 6}, kingKicker.Tiebreakers)
	assert.Equal(t, 1, CompareHands(kingKicker, queenKicker))

	// Both play the board: exact tie.
	a := EvaluateHand(MustParseCards("3c 4h"), MustParseCards("Ah Ad Kc Qs Jd"))
	b := EvaluateHand(MustParseCards("2c 5h"), MustParseCards("Ah Ad Kc Qs Jd"))
	assert.Equal(t, 0, CompareHands(a, b))
}

func TestEvaluateFewerThanFiveCards(t *testing.T) {
	hv := Evaluate(MustParseCards("As Ad"))
	assert.Equal(t, Pair, hv.Rank)
	assert.Equal(t, []int{14}, hv.Tiebreakers)

	// Four suited connectors are neither a flush nor a straight.
	hv = Evaluate(MustParseCards("9h 8h 7h 6h"))
	assert.Equal(t, HighCard, hv.Rank)
}

func TestGenerateCombinations(t *testing.T) {
	cards := MustParseCards("As Kd Qc Jh Ts 9d 8c")
	assert.Len(t, generateCombinations(cards, 5), 21)
	assert.Len(t, generateCombinations(cards, 7), 1)
	assert.Empty(t, generateCombinations(cards, 8))
	assert.Empty(t, generateCombinations(cards, 0))
}

func TestKeyCards(t *testing.T) {
	tests := []struct {
		name  string
		cards string
		want  string
	}{
		{"pair highlights only the pair", "Th Ts Ac 8d 5s", "Ts Th"},
		{"two pair", "Jh Js 4c 4d As", "Js Jh 4d 4c"},
		{"trips", "Qh Qs Qc 6d 4s", "Qs Qh Qc"},
		{"quads", "9h 9s 9c 9d Ks", "9s 9h 9d 9c"},
		{"full house highlights all", "Kh Ks Kc 9h 9s", "Ks Kh Kc 9s 9h"},
		{"high card highlights the top card", "Ah 9s Kc 7d 5s", "Ah"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hv, best := BestFive(MustParseCards(tc.cards))
			key := KeyCards(best, hv.Rank)
			assert.ElementsMatch(t, MustParseCards(tc.want), key)
		})
	}
	assert.Nil(t, KeyCards(nil, Pair))
}

func TestCompareHandsIsTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 300; i++ {
		deck := NewDeck(rng)
		a := Evaluate(deck.cards[:7])
		b := Evaluate(deck.cards[7:14])

		assert.Equal(t, 0, CompareHands(a, a))
		assert.Equal(t, -CompareHands(b, a), CompareHands(a, b))
		if a.Rank != b.Rank {
			assert.Equal(t, a.Rank > b.Rank, CompareHands(a, b) > 0)
		}
	}
}

// The chehsunliu evaluator ranks hands with lower numbers being stronger.
// Our ordering must agree with it on every pair of random 7-card hands.
func TestCompareHandsAgreesWithReferenceEvaluator(t *testing.T) {
	sign := func(n int32) int {
		switch {
		case n > 0:
			return 1
		case n < 0:
			return -1
		}
		return 0
	}

	rng := rand.New(rand.NewSource(2024))
	for i := 0; i < 2000; i++ {
		deck := NewDeck(rng)
		board := deck.cards[4:9]
		a := append(append([]Card(nil), deck.cards[0:2]...), board...)
		b := append(append([]Card(nil), deck.cards[2:4]...), board...)

		got := CompareHands(Evaluate(a), Evaluate(b))
		want := sign(chpoker.Evaluate(toChehsunliu(b)) - chpoker.Evaluate(toChehsunliu(a)))
		if got != want {
			t.Fatalf("hand %d: compare(%v, %v) = %d, reference says %d", i, a, b, got, want)
		}
	}
}

func TestBestFiveCarriesReferenceRank(t *testing.T) {
	cards := MustParseCards("Ah Kh Qh Jh Th 3c 4d")
	hv, best := BestFive(cards)
	assert.Equal(t, RoyalFlush, hv.Rank)
	assert.Equal(t, int32(1), hv.RankValue)
	assert.ElementsMatch(t, MustParseCards("Ah Kh Qh Jh Th"), best)

	hv, best = BestFive(MustParseCards("9s 8s 7s 6s 5s 2h 3d"))
	assert.Equal(t, StraightFlush, hv.Rank)
	assert.Equal(t, chpoker.Evaluate(toChehsunliu(best)), hv.RankValue)

	// Too few cards for the reference evaluator.
	hv, _ = BestFive(MustParseCards("As Ad Kc"))
	assert.Zero(t, hv.RankValue)
	assert.Equal(t, Pair, hv.Rank)
}

// Every category the reference evaluator reports maps onto ours.
func TestRankFromClass(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		deck := NewDeck(rng)
		hv := Evaluate(deck.cards[:7])
		require.NotZero(t, hv.RankValue)
		grouped := evaluateCards(hv.BestHand)
		assert.Equal(t, grouped.Rank, hv.Rank, "hand %v", hv.BestHand)
	}
}

func TestHandRankString(t *testing.T) {
	assert.Equal(t, "Royal Flush", RoyalFlush.String())
	assert.Equal(t, "High Card", HighCard.String())
	assert.Equal(t, "Unknown", HandRank(42).String())
	assert.True(t, RoyalFlush > StraightFlush)
}
