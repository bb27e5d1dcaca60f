// internal/deck/deck_test.go
package deck

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumDecksForPlayers(t *testing.T) {
	cases := map[int]int{2: 1, 3: 2, 4: 2, 5: 3, 6: 3, 7: 4, 8: 4, 9: 5, 10: 5}
	for players, want := range cases {
		got, err := NumDecksForPlayers(players)
		require.NoError(t, err)
		assert.Equal(t, want, got, "players=%d", players)
	}
	_, err := NumDecksForPlayers(11)
	assert.Error(t, err)
	_, err = NumDecksForPlayers(0)
	assert.Error(t, err)
}

func TestNewDeckComposition(t *testing.T) {
	d, err := NewDeck(4)
	require.NoError(t, err)
	// Two decks: 2*52 + 2*2 jokers.
	assert.Equal(t, 108, d.Len())

	jokers := 0
	for _, c := range d.Cards {
		if c.IsJoker() {
			jokers++
		}
	}
	assert.Equal(t, 4, jokers)

	// Every physical card carries a distinct identity, even exact
	// rank+suit duplicates across decks.
	cids := map[int]bool{}
	for _, c := range d.Cards {
		assert.False(t, cids[c.Cid])
		cids[c.Cid] = true
	}
}

func TestDeal(t *testing.T) {
	d, err := NewDeck(2)
	require.NoError(t, err)
	total := d.Len()

	hand, err := d.Deal(7)
	require.NoError(t, err)
	assert.Len(t, hand, 7)
	assert.Equal(t, total-7, d.Len())

	_, err = d.Deal(total) // more than remains
	assert.Error(t, err)
}

func TestShuffleDeterministic(t *testing.T) {
	a, _ := NewDeck(2)
	b, _ := NewDeck(2)
	a.Shuffle(rand.New(rand.NewSource(42)))
	b.Shuffle(rand.New(rand.NewSource(42)))
	for i := range a.Cards {
		assert.Equal(t, a.Cards[i].Rank, b.Cards[i].Rank)
		assert.Equal(t, a.Cards[i].Suit, b.Cards[i].Suit)
	}
}

func TestPoints(t *testing.T) {
	assert.Equal(t, 20, New("2", Hearts).Points())
	assert.Equal(t, 20, NewJoker().Points())
	assert.Equal(t, 10, New("10", Spades).Points())
	assert.Equal(t, 10, New("A", Clubs).Points())
	assert.Equal(t, 10, New("K", Diamonds).Points())
	assert.Equal(t, 5, New("9", Hearts).Points())
	assert.Equal(t, 5, New("3", Spades).Points())
}

func TestNotation(t *testing.T) {
	assert.Equal(t, "7H", New("7", Hearts).Notation())
	assert.Equal(t, "10D", New("10", Diamonds).Notation())
	assert.Equal(t, "QS", New("Q", Spades).Notation())
	assert.Equal(t, "JK", NewJoker().Notation())

	card, err := ParseNotation("7h")
	require.NoError(t, err)
	assert.Equal(t, Rank("7"), card.Rank)
	assert.Equal(t, Hearts, card.Suit)

	card, err = ParseNotation("TD")
	require.NoError(t, err)
	assert.Equal(t, Rank("10"), card.Rank)

	_, err = ParseNotation("XX")
	assert.Error(t, err)
	_, err = ParseNotation("")
	assert.Error(t, err)
}

func TestMatchNotation(t *testing.T) {
	hand := []Card{New("7", Hearts), New("Q", Spades), NewJoker()}
	got, ok := MatchNotation(hand, "QS")
	require.True(t, ok)
	assert.Equal(t, hand[1].Cid, got.Cid)

	got, ok = MatchNotation(hand, "JK")
	require.True(t, ok)
	assert.True(t, got.IsJoker())

	_, ok = MatchNotation(hand, "QD")
	assert.False(t, ok)
}
