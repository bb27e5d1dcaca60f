// internal/deck/deck.go
package deck

import (
	"fmt"
	"math/rand"
)

// JokersPerDeck is the number of jokers shuffled into each physical deck.
const JokersPerDeck = 2

// Suits lists the four real suits in deal order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// NumDecksForPlayers scales the shoe with the table size: one deck per two
// players, capped at ten seats.
func NumDecksForPlayers(players int) (int, error) {
	switch {
	case players <= 0:
		return 0, fmt.Errorf("players must be >= 1, got %d", players)
	case players <= 2:
		return 1, nil
	case players <= 4:
		return 2, nil
	case players <= 6:
		return 3, nil
	case players <= 8:
		return 4, nil
	case players <= 10:
		return 5, nil
	default:
		return 0, fmt.Errorf("max 10 players supported, got %d", players)
	}
}

// Deck is an ordered pile of cards; the front of the slice is the top.
type Deck struct {
	Cards []Card
}

// NewDeck composes the multi-deck shoe for the given player count.
func NewDeck(players int) (*Deck, error) {
	decks, err := NumDecksForPlayers(players)
	if err != nil {
		return nil, err
	}
	d := &Deck{}
	for i := 0; i < decks; i++ {
		for _, suit := range Suits {
			for _, rank := range Ranks {
				d.Cards = append(d.Cards, New(rank, suit))
			}
		}
		for j := 0; j < JokersPerDeck; j++ {
			d.Cards = append(d.Cards, NewJoker())
		}
	}
	return d, nil
}

// Shuffle randomizes the deck in place.
func (d *Deck) Shuffle(r *rand.Rand) {
	r.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Deal removes and returns the top n cards.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > len(d.Cards) {
		return nil, fmt.Errorf("invalid deal size %d (deck has %d)", n, len(d.Cards))
	}
	hand := d.Cards[:n:n]
	d.Cards = d.Cards[n:]
	return hand, nil
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int {
	return len(d.Cards)
}
