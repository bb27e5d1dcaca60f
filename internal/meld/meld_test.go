// internal/meld/meld_test.go
package meld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrummy/server/internal/deck"
)

func c(rank deck.Rank, suit deck.Suit) deck.Card {
	return deck.New(rank, suit)
}

func jk() deck.Card {
	return deck.NewJoker()
}

func TestIsLegalSet(t *testing.T) {
	t.Run("three naturals", func(t *testing.T) {
		rank, ok := IsLegalSet([]deck.Card{c("7", deck.Spades), c("7", deck.Hearts), c("7", deck.Clubs)}, true)
		require.True(t, ok)
		assert.Equal(t, deck.Rank("7"), rank)
	})

	t.Run("mixed ranks rejected", func(t *testing.T) {
		_, ok := IsLegalSet([]deck.Card{c("7", deck.Spades), c("8", deck.Hearts), c("7", deck.Clubs)}, true)
		assert.False(t, ok)
	})

	t.Run("wilds substitute up to the floor", func(t *testing.T) {
		// Two naturals + one wild meets ceil(3/2)=2.
		rank, ok := IsLegalSet([]deck.Card{c("9", deck.Spades), c("9", deck.Hearts), jk()}, true)
		require.True(t, ok)
		assert.Equal(t, deck.Rank("9"), rank)

		// One natural + two wilds is under the floor.
		_, ok = IsLegalSet([]deck.Card{c("9", deck.Spades), jk(), c("2", deck.Hearts)}, true)
		assert.False(t, ok)
	})

	t.Run("floor skipped for extensions", func(t *testing.T) {
		_, ok := IsLegalSet([]deck.Card{c("9", deck.Spades), jk(), c("2", deck.Hearts)}, false)
		assert.True(t, ok)
	})
}

func TestIsLegalRun(t *testing.T) {
	t.Run("plain consecutive", func(t *testing.T) {
		suit, ok := IsLegalRun([]deck.Card{c("5", deck.Hearts), c("6", deck.Hearts), c("7", deck.Hearts), c("8", deck.Hearts)}, true)
		require.True(t, ok)
		assert.Equal(t, deck.Hearts, suit)
	})

	t.Run("order in the slice is irrelevant", func(t *testing.T) {
		_, ok := IsLegalRun([]deck.Card{c("8", deck.Hearts), c("5", deck.Hearts), c("7", deck.Hearts), c("6", deck.Hearts)}, true)
		assert.True(t, ok)
	})

	t.Run("wild fills the gap", func(t *testing.T) {
		_, ok := IsLegalRun([]deck.Card{c("5", deck.Hearts), jk(), c("7", deck.Hearts), c("8", deck.Hearts)}, true)
		assert.True(t, ok)
	})

	t.Run("off-suit two is wild", func(t *testing.T) {
		_, ok := IsLegalRun([]deck.Card{c("5", deck.Hearts), c("2", deck.Clubs), c("7", deck.Hearts), c("8", deck.Hearts)}, true)
		assert.True(t, ok)
	})

	t.Run("off-suit natural rejected", func(t *testing.T) {
		_, ok := IsLegalRun([]deck.Card{c("5", deck.Hearts), c("6", deck.Clubs), c("7", deck.Hearts), c("8", deck.Hearts)}, true)
		assert.False(t, ok)
	})

	t.Run("duplicate value rejected", func(t *testing.T) {
		_, ok := IsLegalRun([]deck.Card{c("5", deck.Hearts), c("5", deck.Hearts), c("6", deck.Hearts), c("7", deck.Hearts)}, true)
		assert.False(t, ok)
	})

	t.Run("gap wider than wilds rejected", func(t *testing.T) {
		_, ok := IsLegalRun([]deck.Card{c("3", deck.Hearts), c("8", deck.Hearts), c("9", deck.Hearts), jk()}, true)
		assert.False(t, ok)
	})
}

// Ace-run symmetry: Q-K-A and A-2-3 are both legal, K-A-2 is not legal
// under either window.
func TestAceWindows(t *testing.T) {
	t.Run("ace high", func(t *testing.T) {
		_, ok := IsLegalRun([]deck.Card{c("Q", deck.Spades), c("K", deck.Spades), c("A", deck.Spades)}, true)
		assert.True(t, ok)
	})

	t.Run("ace low", func(t *testing.T) {
		// The on-suit 2 plays as the natural 2 here, not as a wild.
		_, ok := IsLegalRun([]deck.Card{c("A", deck.Spades), c("2", deck.Spades), c("3", deck.Spades)}, true)
		assert.True(t, ok)
	})

	t.Run("no wraparound", func(t *testing.T) {
		_, ok := IsLegalRun([]deck.Card{c("K", deck.Spades), c("A", deck.Spades), c("2", deck.Spades)}, true)
		assert.False(t, ok)
	})

	t.Run("ace low window extends upward", func(t *testing.T) {
		_, ok := IsLegalRun([]deck.Card{c("A", deck.Diamonds), c("2", deck.Diamonds), c("3", deck.Diamonds), c("4", deck.Diamonds)}, true)
		assert.True(t, ok)
	})
}

func TestCanAdd(t *testing.T) {
	t.Run("set accepts matching rank and wilds", func(t *testing.T) {
		m, ok := NewFromCards(KindSet, []deck.Card{c("7", deck.Spades), c("7", deck.Hearts), c("7", deck.Clubs)})
		require.True(t, ok)
		assert.True(t, m.CanAdd(c("7", deck.Diamonds)))
		assert.True(t, m.CanAdd(jk()))
		assert.True(t, m.CanAdd(c("2", deck.Hearts)))
		assert.False(t, m.CanAdd(c("8", deck.Spades)))
	})

	t.Run("run grows at both ends", func(t *testing.T) {
		m, ok := NewFromCards(KindRun, []deck.Card{c("5", deck.Hearts), c("6", deck.Hearts), c("7", deck.Hearts), c("8", deck.Hearts)})
		require.True(t, ok)
		assert.True(t, m.CanAdd(c("4", deck.Hearts)))
		assert.True(t, m.CanAdd(c("9", deck.Hearts)))
		assert.False(t, m.CanAdd(c("9", deck.Clubs)))
		assert.False(t, m.CanAdd(c("J", deck.Hearts)))
	})

	t.Run("run extension skips the floor", func(t *testing.T) {
		// A fourth wild onto a 2-natural run would fail the new-meld floor;
		// extensions do not re-check it.
		m, ok := NewFromCards(KindRun, []deck.Card{c("5", deck.Hearts), c("6", deck.Hearts), jk()})
		require.True(t, ok)
		assert.True(t, m.CanAdd(jk()))
	})

	t.Run("run extension never wraps past the ace", func(t *testing.T) {
		m, ok := NewFromCards(KindRun, []deck.Card{c("Q", deck.Spades), c("K", deck.Spades), c("A", deck.Spades)})
		require.True(t, ok)
		assert.True(t, m.CanAdd(c("J", deck.Spades)))
		// The on-suit 2 is the natural 2 and cannot sit above the ace.
		assert.False(t, m.CanAdd(c("2", deck.Spades)))
	})
}

func TestMinNaturals(t *testing.T) {
	assert.Equal(t, 2, MinNaturals(3))
	assert.Equal(t, 2, MinNaturals(4))
	assert.Equal(t, 3, MinNaturals(5))
	assert.Equal(t, 4, MinNaturals(7))
}
