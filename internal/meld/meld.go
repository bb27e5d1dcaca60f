// internal/meld/meld.go
//
// Meld legality for sets (same-rank groups) and runs (same-suit
// consecutive sequences). Wildcards (2s and jokers) substitute freely,
// with one wrinkle: a 2 suited with a run's naturals plays as the natural
// rank 2, not as a wild, which is what makes A-2-3 legal and K-A-2 not.
package meld

import (
	"github.com/chrummy/server/internal/deck"
)

// Kind discriminates the two meld shapes.
type Kind string

const (
	KindSet Kind = "set"
	KindRun Kind = "run"
)

// Meld is a committed or staged group of cards. Rank is canonical for
// sets, Suit for runs; both are zero-valued while a staged group is still
// ambiguous (e.g. only wilds staged so far).
type Meld struct {
	Kind   Kind        `json:"type"`
	Rank   deck.Rank   `json:"rank,omitempty"`
	Suit   deck.Suit   `json:"-"`
	Cards  []deck.Card `json:"cards"`
	Staged bool        `json:"staged,omitempty"`
}

// MinNaturals is the half-natural floor: a brand-new meld of n cards needs
// at least ceil(n/2) non-wild members.
func MinNaturals(size int) int {
	return (size + 1) / 2
}

// setNaturals splits a candidate set into naturals and wilds. In sets,
// every 2 and joker is wild.
func setNaturals(cards []deck.Card) (naturals, wilds []deck.Card) {
	for _, c := range cards {
		if c.IsWild() {
			wilds = append(wilds, c)
		} else {
			naturals = append(naturals, c)
		}
	}
	return naturals, wilds
}

// IsLegalSet reports whether the group forms a legal set, and its
// canonical rank. A new meld (one being formed from a hand) must meet the
// half-natural floor; extension checks skip it.
func IsLegalSet(cards []deck.Card, newMeld bool) (deck.Rank, bool) {
	if len(cards) == 0 {
		return "", false
	}
	naturals, _ := setNaturals(cards)
	if newMeld && len(naturals) < MinNaturals(len(cards)) {
		return "", false
	}
	var rank deck.Rank
	for _, c := range naturals {
		if rank == "" {
			rank = c.Rank
		} else if c.Rank != rank {
			return "", false
		}
	}
	return rank, true
}

// runMembers splits a candidate run into naturals and wilds given the run
// suit. Jokers and off-suit 2s are wild; an on-suit 2 is the natural 2.
func runMembers(cards []deck.Card, suit deck.Suit) (naturalValues []int, wildCount int, ok bool) {
	for _, c := range cards {
		if c.IsJoker() {
			wildCount++
			continue
		}
		if c.Rank == "2" && c.Suit != suit {
			wildCount++
			continue
		}
		if c.Suit != suit {
			return nil, 0, false
		}
		naturalValues = append(naturalValues, c.Rank.Value())
	}
	return naturalValues, wildCount, true
}

// runSuit determines the canonical suit of a candidate run from its
// non-wild members (2s excluded: a lone 2 could be either side of the
// wild/natural split). Returns false if naturals disagree.
func runSuit(cards []deck.Card) (deck.Suit, bool) {
	var suit deck.Suit
	for _, c := range cards {
		if c.IsWild() {
			continue
		}
		if suit == deck.SuitNone {
			suit = c.Suit
		} else if c.Suit != suit {
			return deck.SuitNone, false
		}
	}
	return suit, true
}

// fitsWindow checks that the natural values are pairwise distinct and all
// land inside some contiguous window of exactly len(cards) ranks — either
// a standard ace-high window inside 2..14 or, when an ace is present, the
// ace-low window 1..size (ace counted as 1).
func fitsWindow(naturalValues []int, size int) bool {
	seen := map[int]bool{}
	for _, v := range naturalValues {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	// Standard windows, ace high.
	for start := 2; start+size-1 <= 14; start++ {
		inside := true
		for _, v := range naturalValues {
			if v < start || v > start+size-1 {
				inside = false
				break
			}
		}
		if inside {
			return true
		}
	}
	// Low-wrap window: ace plays as 1, everything else keeps its value.
	hasAce := seen[14]
	if !hasAce {
		return false
	}
	if seen[deck.AceLowValue] {
		return false // both an ace-as-one and a natural... cannot happen, guard anyway
	}
	for _, v := range naturalValues {
		low := v
		if v == 14 {
			low = deck.AceLowValue
		}
		if low < deck.AceLowValue || low > size {
			return false
		}
	}
	return true
}

// IsLegalRun reports whether the group forms a legal run, and its
// canonical suit. Same floor rule as sets for new melds.
func IsLegalRun(cards []deck.Card, newMeld bool) (deck.Suit, bool) {
	if len(cards) == 0 {
		return deck.SuitNone, false
	}
	suit, ok := runSuit(cards)
	if !ok {
		return deck.SuitNone, false
	}
	naturalValues, _, ok := runMembers(cards, suit)
	if !ok {
		return deck.SuitNone, false
	}
	if newMeld && len(naturalValues) < MinNaturals(len(cards)) {
		return deck.SuitNone, false
	}
	if !fitsWindow(naturalValues, len(cards)) {
		return deck.SuitNone, false
	}
	return suit, true
}

// NewFromCards builds a meld of the given kind from a candidate group,
// applying new-meld legality (including the half-natural floor). Returns
// false when the group is not legal for the kind.
func NewFromCards(kind Kind, cards []deck.Card) (*Meld, bool) {
	switch kind {
	case KindSet:
		rank, ok := IsLegalSet(cards, true)
		if !ok {
			return nil, false
		}
		return &Meld{Kind: KindSet, Rank: rank, Cards: append([]deck.Card(nil), cards...)}, true
	case KindRun:
		suit, ok := IsLegalRun(cards, true)
		if !ok {
			return nil, false
		}
		return &Meld{Kind: KindRun, Suit: suit, Cards: append([]deck.Card(nil), cards...)}, true
	}
	return nil, false
}

// CanAdd reports whether a single card may extend this committed meld.
// Extensions never re-check the half-natural floor.
func (m *Meld) CanAdd(card deck.Card) bool {
	switch m.Kind {
	case KindSet:
		return card.IsWild() || card.Rank == m.Rank
	case KindRun:
		combined := append(append([]deck.Card(nil), m.Cards...), card)
		_, ok := IsLegalRun(combined, false)
		return ok
	}
	return false
}

// Add appends a card. Callers must have validated with CanAdd.
func (m *Meld) Add(card deck.Card) {
	m.Cards = append(m.Cards, card)
}

// Remove deletes a card by cid, used when unstaging. Reports whether the
// card was a member.
func (m *Meld) Remove(cid int) bool {
	cards, ok := deck.RemoveByCid(m.Cards, cid)
	if ok {
		m.Cards = cards
	}
	return ok
}

// Clone copies the meld, sharing no card slices with the original.
func (m *Meld) Clone() *Meld {
	return &Meld{
		Kind:   m.Kind,
		Rank:   m.Rank,
		Suit:   m.Suit,
		Cards:  append([]deck.Card(nil), m.Cards...),
		Staged: m.Staged,
	}
}
