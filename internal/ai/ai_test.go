// internal/ai/ai_test.go
package ai

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrummy/server/internal/deck"
	"github.com/chrummy/server/internal/game"
	"github.com/chrummy/server/internal/meld"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupGame(t *testing.T) *game.Game {
	t.Helper()
	g, err := game.New([]string{"bot-a", "bot-b"}, testLogger())
	require.NoError(t, err)
	g.SeedRNG(7)
	require.NoError(t, g.StartRound())
	return g
}

func c(rank deck.Rank, suit deck.Suit) deck.Card {
	return deck.New(rank, suit)
}

// setHand replaces a seat's hand, parking the old cards in the dead pile.
func setHand(g *game.Game, seat int, cards []deck.Card) {
	p := g.Players[seat]
	g.DeadPile = append(g.DeadPile, p.Hand...)
	p.Hand = append([]deck.Card(nil), cards...)
}

// setTopDiscard swaps the reclaimable discard for a known card.
func setTopDiscard(g *game.Game, card deck.Card) {
	g.DeadPile = append(g.DeadPile, g.DiscardPile...)
	g.DiscardPile = []deck.Card{card}
}

func TestChooseDrawSource(t *testing.T) {
	t.Run("wild discard is always taken", func(t *testing.T) {
		g := setupGame(t)
		setTopDiscard(g, deck.NewJoker())
		assert.Equal(t, DrawDiscard, ChooseDrawSource(g, 0))
	})

	t.Run("completing discard is taken", func(t *testing.T) {
		g := setupGame(t)
		setHand(g, 0, []deck.Card{
			c("3", deck.Spades), c("3", deck.Hearts), c("3", deck.Diamonds),
			c("7", deck.Clubs), c("7", deck.Diamonds),
			c("9", deck.Spades), c("Q", deck.Hearts),
		})
		setTopDiscard(g, c("7", deck.Spades))
		assert.Equal(t, DrawDiscard, ChooseDrawSource(g, 0))
	})

	t.Run("meld-extending discard is taken after laydown", func(t *testing.T) {
		g := setupGame(t)
		trio, ok := meld.NewFromCards(meld.KindSet, []deck.Card{
			c("K", deck.Spades), c("K", deck.Hearts), c("K", deck.Diamonds),
		})
		require.True(t, ok)
		g.Players[0].Melds = []*meld.Meld{trio}
		g.Players[0].HasLaidDown = true
		setHand(g, 0, []deck.Card{c("4", deck.Clubs), c("9", deck.Spades)})
		setTopDiscard(g, c("K", deck.Clubs))
		assert.Equal(t, DrawDiscard, ChooseDrawSource(g, 0))
	})

	t.Run("useless discard means stock", func(t *testing.T) {
		g := setupGame(t)
		setHand(g, 0, []deck.Card{c("4", deck.Clubs), c("9", deck.Spades), c("J", deck.Hearts)})
		setTopDiscard(g, c("6", deck.Diamonds))
		assert.Equal(t, DrawStock, ChooseDrawSource(g, 0))
	})

	t.Run("own discard is not chased around the table", func(t *testing.T) {
		g := setupGame(t)
		setHand(g, 0, []deck.Card{c("9", deck.Clubs), c("4", deck.Spades), c("J", deck.Hearts)})
		nine := c("9", deck.Diamonds)
		setTopDiscard(g, nine)
		g.Players[0].LastDiscardCid = nine.Cid
		assert.Equal(t, DrawStock, ChooseDrawSource(g, 0))
	})

	t.Run("run-adjacent discard is taken when a run is required", func(t *testing.T) {
		g := setupGame(t)
		g.RoundIndex = 1 // set3 + run4
		setHand(g, 0, []deck.Card{c("5", deck.Hearts), c("9", deck.Clubs), c("K", deck.Spades)})
		setTopDiscard(g, c("6", deck.Hearts))
		assert.Equal(t, DrawDiscard, ChooseDrawSource(g, 0))
	})

	t.Run("speculation sours with no progress", func(t *testing.T) {
		g := setupGame(t)
		setHand(g, 0, []deck.Card{c("9", deck.Clubs), c("4", deck.Spades), c("J", deck.Hearts)})
		setTopDiscard(g, c("9", deck.Diamonds)) // pairs with the held 9

		g.Players[0].NoProgressTurns = 0
		assert.Equal(t, DrawDiscard, ChooseDrawSource(g, 0))

		g.Players[0].NoProgressTurns = speculationLimit
		assert.Equal(t, DrawStock, ChooseDrawSource(g, 0))
	})
}

func TestChooseDiscard(t *testing.T) {
	t.Run("protects pairs", func(t *testing.T) {
		g := setupGame(t)
		setHand(g, 0, []deck.Card{
			c("9", deck.Clubs), c("9", deck.Spades),
			c("4", deck.Hearts),
		})
		got := ChooseDiscard(g, 0, nil)
		assert.Equal(t, deck.Rank("4"), got.Rank)
	})

	t.Run("prefers ranks the opponent melded", func(t *testing.T) {
		g := setupGame(t)
		trio, ok := meld.NewFromCards(meld.KindSet, []deck.Card{
			c("K", deck.Spades), c("K", deck.Hearts), c("K", deck.Diamonds),
		})
		require.True(t, ok)
		g.Players[1].Melds = []*meld.Meld{trio}

		setHand(g, 0, []deck.Card{c("K", deck.Clubs), c("4", deck.Hearts), c("6", deck.Spades)})
		got := ChooseDiscard(g, 0, nil)
		assert.Equal(t, deck.Rank("K"), got.Rank)
	})

	t.Run("otherwise sheds the cheapest card", func(t *testing.T) {
		g := setupGame(t)
		setHand(g, 0, []deck.Card{c("4", deck.Hearts), c("Q", deck.Spades), c("8", deck.Clubs)})
		got := ChooseDiscard(g, 0, nil)
		assert.Equal(t, deck.Rank("4"), got.Rank)
	})

	t.Run("holds wilds to the bitter end", func(t *testing.T) {
		g := setupGame(t)
		setHand(g, 0, []deck.Card{deck.NewJoker(), c("A", deck.Spades)})
		got := ChooseDiscard(g, 0, nil)
		assert.Equal(t, deck.Rank("A"), got.Rank)
	})
}

// vetoStrategy blocks a fixed set of ranks and leaves priorities alone.
type vetoStrategy struct {
	banned map[deck.Rank]bool
}

func (v vetoStrategy) VetoDiscard(_ *game.Game, _ int, card deck.Card) bool {
	return v.banned[card.Rank]
}

func (v vetoStrategy) AdjustPriority(_ *game.Game, _ int, _ deck.Card, base float64) float64 {
	return base
}

func TestStrategyHook(t *testing.T) {
	t.Run("veto reroutes the discard", func(t *testing.T) {
		g := setupGame(t)
		setHand(g, 0, []deck.Card{c("4", deck.Hearts), c("Q", deck.Spades)})
		strat := vetoStrategy{banned: map[deck.Rank]bool{"4": true}}
		got := ChooseDiscard(g, 0, strat)
		assert.Equal(t, deck.Rank("Q"), got.Rank)
	})

	t.Run("total veto falls back to base ordering", func(t *testing.T) {
		g := setupGame(t)
		setHand(g, 0, []deck.Card{c("4", deck.Hearts), c("Q", deck.Spades)})
		strat := vetoStrategy{banned: map[deck.Rank]bool{"4": true, "Q": true}}
		got := ChooseDiscard(g, 0, strat)
		assert.Equal(t, deck.Rank("4"), got.Rank)
	})
}

func TestPlayTurnCompletesAndConserves(t *testing.T) {
	g := setupGame(t)
	total := g.TotalCards()

	for turn := 0; turn < 30; turn++ {
		seat := g.CurrentPlayerIndex
		summary := PlayTurn(g, seat, nil, testLogger())
		assert.NotZero(t, summary.Discarded.Cid)
		assert.Equal(t, total, g.TotalCards(), "turn %d", turn)
		if summary.Won {
			break
		}
		g.AdvanceTurn()
	}
}

func TestPlayTurnLaysDownWhenPossible(t *testing.T) {
	g := setupGame(t)
	seat := g.CurrentPlayerIndex
	setHand(g, seat, []deck.Card{
		c("3", deck.Spades), c("3", deck.Hearts), c("3", deck.Diamonds),
		c("7", deck.Clubs), c("7", deck.Diamonds), c("7", deck.Spades),
		c("Q", deck.Hearts),
	})
	setTopDiscard(g, c("6", deck.Diamonds))

	summary := PlayTurn(g, seat, nil, testLogger())
	assert.True(t, summary.LaidDown)
	assert.Len(t, g.Players[seat].Melds, 2)
	// Trios committed, queen and the drawn card remain; one got discarded.
	assert.Len(t, g.Players[seat].Hand, 1)
}

func TestPlayTurnWinsWhenMeldsSwallowTheHand(t *testing.T) {
	g := setupGame(t)
	seat := g.CurrentPlayerIndex
	// Seven cards that become two quads once the top discard joins them.
	// The lay-down must hold one card back so the turn can still end
	// with a discard — which here is the winning one.
	setHand(g, seat, []deck.Card{
		c("3", deck.Spades), c("3", deck.Hearts), c("3", deck.Diamonds), c("3", deck.Clubs),
		c("7", deck.Clubs), c("7", deck.Diamonds), c("7", deck.Spades),
	})
	setTopDiscard(g, c("7", deck.Hearts))

	summary := PlayTurn(g, seat, nil, testLogger())
	assert.Equal(t, DrawDiscard, summary.Source)
	assert.True(t, summary.LaidDown)
	assert.NotZero(t, summary.Discarded.Cid)
	assert.True(t, summary.Won)
	assert.Empty(t, g.Players[seat].Hand)
}

func TestWouldBuy(t *testing.T) {
	g := setupGame(t)
	setHand(g, 0, []deck.Card{
		c("3", deck.Spades), c("3", deck.Hearts), c("3", deck.Diamonds),
		c("7", deck.Clubs), c("7", deck.Diamonds),
		c("9", deck.Spades), c("Q", deck.Hearts),
	})
	assert.True(t, WouldBuy(g, 0, c("7", deck.Spades)))
	assert.False(t, WouldBuy(g, 0, c("5", deck.Clubs)))

	trio, ok := meld.NewFromCards(meld.KindSet, []deck.Card{
		c("K", deck.Spades), c("K", deck.Hearts), c("K", deck.Diamonds),
	})
	require.True(t, ok)
	g.Players[1].Melds = []*meld.Meld{trio}
	g.Players[1].HasLaidDown = true
	setHand(g, 1, []deck.Card{c("4", deck.Clubs)})
	assert.True(t, WouldBuy(g, 1, c("K", deck.Clubs)))
	assert.False(t, WouldBuy(g, 1, c("5", deck.Clubs)))
}
