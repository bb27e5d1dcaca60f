// internal/game/staging.go
//
// Staged melds: scratch groups a player assembles before committing a
// lay-down. Staged groups may be incomplete or outright illegal until
// the commit, which validates the whole arrangement at once.
package game

import (
	"fmt"

	"github.com/chrummy/server/internal/deck"
	"github.com/chrummy/server/internal/meld"
)

// Stage moves a hand card into a staged meld. meldIndex -1 opens a new
// staged group of the given kind; otherwise the card joins the existing
// group and kind is ignored. No legality check happens here.
func (g *Game) Stage(seat int, cid int, meldIndex int, kind meld.Kind) error {
	p := g.Players[seat]
	if p.HasLaidDown {
		return fmt.Errorf("already laid down")
	}
	card, ok := deck.FindByCid(p.Hand, cid)
	if !ok {
		return fmt.Errorf("card %d not in hand", cid)
	}
	if meldIndex == -1 {
		if kind != meld.KindSet && kind != meld.KindRun {
			return fmt.Errorf("unknown meld type %q", kind)
		}
		p.StagedMelds = append(p.StagedMelds, &meld.Meld{Kind: kind, Staged: true})
		meldIndex = len(p.StagedMelds) - 1
	}
	if meldIndex < 0 || meldIndex >= len(p.StagedMelds) {
		return fmt.Errorf("no staged meld %d", meldIndex)
	}
	p.Hand, _ = deck.RemoveByCid(p.Hand, cid)
	p.StagedMelds[meldIndex].Add(card)
	return nil
}

// Unstage returns one staged card to the hand, dropping its group if
// that leaves the group empty.
func (g *Game) Unstage(seat int, cid int) error {
	p := g.Players[seat]
	for i, m := range p.StagedMelds {
		card, ok := deck.FindByCid(m.Cards, cid)
		if !ok {
			continue
		}
		m.Remove(cid)
		p.Hand = append(p.Hand, card)
		if len(m.Cards) == 0 {
			p.StagedMelds = append(p.StagedMelds[:i], p.StagedMelds[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("card %d not staged", cid)
}

// ClearStaged rolls every staged card back to the hand.
func (g *Game) ClearStaged(seat int) {
	p := g.Players[seat]
	for _, m := range p.StagedMelds {
		p.Hand = append(p.Hand, m.Cards...)
	}
	p.StagedMelds = nil
}

// AutoStage runs the requirement search against the hand plus anything
// already staged and, on success, replaces the staged groups with the
// matched arrangement for the player to review. Like a direct lay-down
// it reserves one card for the eventual discard. Returns false (leaving
// everything where it was) when no combination exists.
func (g *Game) AutoStage(seat int) bool {
	p := g.Players[seat]
	if p.HasLaidDown {
		return false
	}
	pool := append([]deck.Card(nil), p.Hand...)
	for _, m := range p.StagedMelds {
		pool = append(pool, m.Cards...)
	}
	melds := meld.FindAssignmentKeeping(pool, g.CurrentRound().Requirements)
	if melds == nil {
		return false
	}
	g.ClearStaged(seat)
	for _, m := range melds {
		m.Staged = true
		for _, c := range m.Cards {
			p.Hand, _ = deck.RemoveByCid(p.Hand, c.Cid)
		}
		p.StagedMelds = append(p.StagedMelds, m)
	}
	return true
}

// TryLayDownStaged validates the staged groups as a whole: every staged
// card must be consumed by a legal arrangement of the round's
// requirements. On success the arrangement is committed; on failure all
// staged cards roll back to the hand and the game state is otherwise
// unchanged.
func (g *Game) TryLayDownStaged(seat int) bool {
	p := g.Players[seat]
	if p.HasLaidDown || len(p.StagedMelds) == 0 {
		return false
	}
	if len(p.Hand) == 0 {
		// Every card is staged; committing would leave nothing to
		// discard, and a win comes only by discarding the last card.
		g.ClearStaged(seat)
		return false
	}
	var staged []deck.Card
	for _, m := range p.StagedMelds {
		staged = append(staged, m.Cards...)
	}
	melds := meld.FindAssignmentUseAll(staged, g.CurrentRound().Requirements)
	if melds == nil {
		g.ClearStaged(seat)
		return false
	}
	p.StagedMelds = nil
	g.commitMelds(p, melds)
	return true
}

// HasWon reports whether the seat has gone out: nothing left in hand or
// staged. Checked by the room after each discard.
func (g *Game) HasWon(seat int) bool {
	p := g.Players[seat]
	return len(p.Hand) == 0 && p.stagedCount() == 0
}
