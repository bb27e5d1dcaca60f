// internal/deck/card.go
package deck

import (
	"fmt"
	"sync/atomic"
)

// Suit identifies one of the four French suits. The zero value (SuitNone)
// is reserved for jokers.
type Suit int

const (
	SuitNone Suit = iota
	Spades
	Hearts
	Diamonds
	Clubs
)

// String returns the lowercase suit name used in wire payloads.
func (s Suit) String() string {
	switch s {
	case Spades:
		return "spades"
	case Hearts:
		return "hearts"
	case Diamonds:
		return "diamonds"
	case Clubs:
		return "clubs"
	default:
		return "joker"
	}
}

// Rank is the card rank as a string ("A", "2".."10", "J", "Q", "K") or
// RankJoker. String ranks keep the wire format identical to the client's.
type Rank string

// RankJoker is the rank carried by joker cards.
const RankJoker Rank = "JOKER"

// Ranks lists the thirteen standard ranks in ascending ace-high order
// starting from 2 for window math; the ace sits last at value 14.
var Ranks = []Rank{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// rankValues maps ranks to ace-high values (2..14). Jokers have no value.
var rankValues = map[Rank]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9,
	"10": 10, "J": 11, "Q": 12, "K": 13, "A": 14,
}

// Value returns the ace-high ordering value of the rank (2..14), or 0 for
// jokers. Ace-low windows treat the ace as 1 at the call site.
func (r Rank) Value() int {
	return rankValues[r]
}

// AceLowValue is the value of an ace inside the low-wrap run window.
const AceLowValue = 1

// nextCid hands out process-unique card identities. Value equality is
// useless across multi-deck games, so every physical card gets its own id.
var nextCid atomic.Int64

// Card is an immutable rank+suit pair with a process-unique identity.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"-"`
	Cid  int  `json:"cid"`
}

// New mints a card with a fresh cid.
func New(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit, Cid: int(nextCid.Add(1))}
}

// NewJoker mints a joker card.
func NewJoker() Card {
	return New(RankJoker, SuitNone)
}

// IsWild reports whether the card substitutes freely in melds: all 2s and
// jokers. Run legality may still treat an on-suit 2 as a natural 2.
func (c Card) IsWild() bool {
	return c.Rank == "2" || c.Rank == RankJoker
}

// IsJoker reports whether the card is a joker.
func (c Card) IsJoker() bool {
	return c.Rank == RankJoker
}

// Points is the round-scoring value of a card left in hand: wilds 20,
// ten-through-ace 10, everything else 5.
func (c Card) Points() int {
	if c.IsWild() {
		return 20
	}
	switch c.Rank {
	case "10", "J", "Q", "K", "A":
		return 10
	}
	return 5
}

// String renders the card for logs, e.g. "7hearts" or "JOKER".
func (c Card) String() string {
	if c.IsJoker() {
		return string(RankJoker)
	}
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// RemoveByCid deletes the card with the given cid from a slice, returning
// the shortened slice and whether the card was present.
func RemoveByCid(cards []Card, cid int) ([]Card, bool) {
	for i, c := range cards {
		if c.Cid == cid {
			return append(cards[:i:i], cards[i+1:]...), true
		}
	}
	return cards, false
}

// FindByCid returns the card with the given cid, if present.
func FindByCid(cards []Card, cid int) (Card, bool) {
	for _, c := range cards {
		if c.Cid == cid {
			return c, true
		}
	}
	return Card{}, false
}
