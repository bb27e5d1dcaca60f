// internal/game/round.go
package game

import (
	"fmt"
	"strings"

	"github.com/chrummy/server/internal/meld"
)

// Round defines one round of the match: how many cards each player is
// dealt and which meld shapes must be laid down together.
type Round struct {
	HandSize     int                `json:"handSize"`
	Requirements []meld.Requirement `json:"requirements"`
}

// Rounds is the fixed seven-round escalation. Hand size is always one
// more than the cards the requirements consume, so a clean deal leaves
// exactly the winning discard.
var Rounds = []Round{
	{HandSize: 7, Requirements: []meld.Requirement{{Kind: meld.KindSet, Size: 3}, {Kind: meld.KindSet, Size: 3}}},
	{HandSize: 8, Requirements: []meld.Requirement{{Kind: meld.KindSet, Size: 3}, {Kind: meld.KindRun, Size: 4}}},
	{HandSize: 9, Requirements: []meld.Requirement{{Kind: meld.KindRun, Size: 4}, {Kind: meld.KindRun, Size: 4}}},
	{HandSize: 10, Requirements: []meld.Requirement{{Kind: meld.KindSet, Size: 3}, {Kind: meld.KindSet, Size: 3}, {Kind: meld.KindSet, Size: 3}}},
	{HandSize: 11, Requirements: []meld.Requirement{{Kind: meld.KindSet, Size: 3}, {Kind: meld.KindSet, Size: 3}, {Kind: meld.KindRun, Size: 4}}},
	{HandSize: 12, Requirements: []meld.Requirement{{Kind: meld.KindSet, Size: 3}, {Kind: meld.KindRun, Size: 4}, {Kind: meld.KindRun, Size: 4}}},
	{HandSize: 13, Requirements: []meld.Requirement{{Kind: meld.KindRun, Size: 4}, {Kind: meld.KindRun, Size: 4}, {Kind: meld.KindRun, Size: 4}}},
}

// FormatRequirements renders a round's requirements for logs and AI chat,
// e.g. "two 3-of-a-kinds" or "a 3-of-a-kind and a 4-card run".
func FormatRequirements(reqs []meld.Requirement) string {
	counts := map[string]int{}
	order := []string{}
	for _, r := range reqs {
		var label string
		if r.Kind == meld.KindSet {
			label = fmt.Sprintf("%d-of-a-kind", r.Size)
		} else {
			label = fmt.Sprintf("%d-card run", r.Size)
		}
		if counts[label] == 0 {
			order = append(order, label)
		}
		counts[label]++
	}
	parts := make([]string, 0, len(order))
	for _, label := range order {
		switch counts[label] {
		case 1:
			parts = append(parts, "a "+label)
		case 2:
			parts = append(parts, "two "+label+"s")
		case 3:
			parts = append(parts, "three "+label+"s")
		default:
			parts = append(parts, fmt.Sprintf("%d %ss", counts[label], label))
		}
	}
	return strings.Join(parts, " and ")
}
