// internal/deck/notation.go
//
// Compact two-character card notation used only at the bot API boundary:
// "7H" = 7 of hearts, "QS" = queen of spades, "10D" = ten of diamonds,
// "JK" = joker.
package deck

import (
	"fmt"
	"strings"
)

var suitLetters = map[Suit]string{
	Spades:   "S",
	Hearts:   "H",
	Diamonds: "D",
	Clubs:    "C",
}

var lettersToSuit = map[string]Suit{
	"S": Spades,
	"H": Hearts,
	"D": Diamonds,
	"C": Clubs,
}

// Notation renders the card in compact rank+suit form.
func (c Card) Notation() string {
	if c.IsJoker() {
		return "JK"
	}
	return string(c.Rank) + suitLetters[c.Suit]
}

// ParseNotation reads a compact card code. The returned card carries a
// fresh cid; callers matching against a hand should compare rank and suit.
func ParseNotation(code string) (Card, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "JK" {
		return NewJoker(), nil
	}
	if len(code) < 2 {
		return Card{}, fmt.Errorf("invalid card notation %q", code)
	}
	rank := Rank(code[:len(code)-1])
	if _, ok := rankValues[rank]; !ok {
		// Accept "T" as a ten for permissive bot input.
		if rank == "T" {
			rank = "10"
		} else {
			return Card{}, fmt.Errorf("invalid rank in card notation %q", code)
		}
	}
	suit, ok := lettersToSuit[code[len(code)-1:]]
	if !ok {
		return Card{}, fmt.Errorf("invalid suit in card notation %q", code)
	}
	return New(rank, suit), nil
}

// MatchNotation finds the first card in the slice matching a compact code
// by rank and suit.
func MatchNotation(cards []Card, code string) (Card, bool) {
	want, err := ParseNotation(code)
	if err != nil {
		return Card{}, false
	}
	for _, c := range cards {
		if c.Rank == want.Rank && (c.IsJoker() || c.Suit == want.Suit) {
			return c, true
		}
	}
	return Card{}, false
}
