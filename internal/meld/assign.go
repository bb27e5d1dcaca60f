// internal/meld/assign.go
//
// Requirement assignment: partition a subset of a hand into one legal
// group per round requirement. Candidates are enumerated largest-first so
// a player laying down can fold extra same-shape cards into a meld, and
// the search backtracks across requirements on card identity (cid), never
// on value equality.
package meld

import (
	"github.com/chrummy/server/internal/deck"
)

// Requirement is one required meld shape for a round.
type Requirement struct {
	Kind Kind `json:"type"`
	Size int  `json:"size"`
}

// MinCards sums the minimum sizes of a requirement list.
func MinCards(reqs []Requirement) int {
	total := 0
	for _, r := range reqs {
		total += r.Size
	}
	return total
}

// FindAssignment searches for a disjoint partition of a subset of the hand
// into one legal group per requirement, each at least the required size.
// Returns nil when no assignment exists; never partially assigns.
func FindAssignment(hand []deck.Card, reqs []Requirement) []*Meld {
	return findAssignment(hand, reqs, len(hand), false)
}

// FindAssignmentKeeping is FindAssignment with a one-card reserve: the
// selected groups may consume at most len(hand)-1 cards. Lay-down goes
// through it because a win comes only by discarding the last card, so an
// arrangement that swallows the whole hand would strand the turn.
func FindAssignmentKeeping(hand []deck.Card, reqs []Requirement) []*Meld {
	return findAssignment(hand, reqs, len(hand)-1, false)
}

// FindAssignmentUseAll is the strict variant: the selected groups must
// consume every input card. Used to validate manually staged melds, where
// a leftover staged card makes the whole attempt illegal.
func FindAssignmentUseAll(cards []deck.Card, reqs []Requirement) []*Meld {
	return findAssignment(cards, reqs, len(cards), true)
}

// CanLayDownWith reports whether the hand plus one extra card could lay
// down while keeping a card back to discard. The draw heuristic uses it
// to spot a discard that completes the round.
func CanLayDownWith(hand []deck.Card, extra deck.Card, reqs []Requirement) bool {
	combined := append(append([]deck.Card(nil), hand...), extra)
	return FindAssignmentKeeping(combined, reqs) != nil
}

func findAssignment(cards []deck.Card, reqs []Requirement, budget int, useAll bool) []*Meld {
	if len(reqs) == 0 {
		if useAll && len(cards) > 0 {
			return nil
		}
		return []*Meld{}
	}
	req := reqs[0]
	rest := reqs[1:]

	// Largest usable size first: later requirements still need their
	// minimum card counts out of what remains, and the whole selection
	// stays within the caller's card budget.
	maxSize := len(cards) - MinCards(rest)
	if b := budget - MinCards(rest); b < maxSize {
		maxSize = b
	}
	for size := maxSize; size >= req.Size; size-- {
		var result []*Meld
		forEachCombination(cards, size, func(group, remainder []deck.Card) bool {
			m, ok := NewFromCards(req.Kind, group)
			if !ok {
				return false
			}
			tail := findAssignment(remainder, rest, budget-size, useAll)
			if tail == nil {
				return false
			}
			result = append([]*Meld{m}, tail...)
			return true
		})
		if result != nil {
			return result
		}
	}
	return nil
}

// forEachCombination invokes fn for every size-k combination of cards,
// passing the chosen group and the untouched remainder. Iteration stops
// early when fn returns true. Both slices are freshly allocated per call
// so recursive callers can hold them without aliasing.
func forEachCombination(cards []deck.Card, k int, fn func(group, remainder []deck.Card) bool) bool {
	if k < 0 || k > len(cards) {
		return false
	}
	idx := make([]int, k)
	var walk func(start, depth int) bool
	walk = func(start, depth int) bool {
		if depth == k {
			group := make([]deck.Card, 0, k)
			remainder := make([]deck.Card, 0, len(cards)-k)
			sel := 0
			for i, c := range cards {
				if sel < k && idx[sel] == i {
					group = append(group, c)
					sel++
				} else {
					remainder = append(remainder, c)
				}
			}
			return fn(group, remainder)
		}
		for i := start; i <= len(cards)-(k-depth); i++ {
			idx[depth] = i
			if walk(i+1, depth+1) {
				return true
			}
		}
		return false
	}
	return walk(0, 0)
}
