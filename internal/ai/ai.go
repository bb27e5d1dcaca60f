// internal/ai/ai.go
//
// Built-in turn heuristic. Pure per invocation: every choice is
// re-derived from the game snapshot, with the seat's no-progress counter
// as the only carried state (it breaks indecision loops by souring the
// AI on speculative discard pickups).
package ai

import (
	"github.com/sirupsen/logrus"

	"github.com/chrummy/server/internal/deck"
	"github.com/chrummy/server/internal/game"
	"github.com/chrummy/server/internal/meld"
)

// DrawSource is where the AI takes its draw from.
type DrawSource string

const (
	DrawStock   DrawSource = "stock"
	DrawDiscard DrawSource = "discard"
)

// speculationLimit is how many no-progress turns the AI tolerates before
// it stops picking up discards on a hunch and draws fresh stock instead.
const speculationLimit = 6

// Strategy tunes the base heuristic without changing its control flow.
// VetoDiscard forbids throwing a specific card; AdjustPriority rescales a
// discard candidate's desirability (higher means discarded sooner).
type Strategy interface {
	VetoDiscard(g *game.Game, seat int, card deck.Card) bool
	AdjustPriority(g *game.Game, seat int, card deck.Card, base float64) float64
}

// defaultStrategy is the identity tuning.
type defaultStrategy struct{}

func (defaultStrategy) VetoDiscard(*game.Game, int, deck.Card) bool { return false }
func (defaultStrategy) AdjustPriority(_ *game.Game, _ int, _ deck.Card, base float64) float64 {
	return base
}

// TurnSummary reports what one AI turn did, for logging and broadcast.
type TurnSummary struct {
	Source    DrawSource
	Drew      deck.Card
	LaidDown  bool
	LaidOff   int
	Discarded deck.Card
	Won       bool
}

// ChooseDrawSource decides between the visible top discard and a blind
// stock card. The discard is taken when it is wild, completes the
// round's requirements outright, extends a meld this seat already laid
// down, or (while patience lasts) pairs up with cards already held.
func ChooseDrawSource(g *game.Game, seat int) DrawSource {
	top, ok := g.TopDiscard()
	if !ok {
		return DrawStock
	}
	p := g.Players[seat]

	if !p.HasLaidDown && meld.CanLayDownWith(p.Hand, top, g.CurrentRound().Requirements) {
		return DrawDiscard
	}
	if p.HasLaidDown {
		for _, m := range p.Melds {
			if m.CanAdd(top) {
				return DrawDiscard
			}
		}
	}
	// Never chase your own discard back around the table.
	if top.Cid == p.LastDiscardCid {
		return DrawStock
	}
	if top.IsWild() {
		return DrawDiscard
	}
	// Speculative pickup: the card supports a partial combination held in
	// hand. Willingness decays to nothing once the seat has spun its
	// wheels too long.
	if p.NoProgressTurns < speculationLimit && !p.HasLaidDown && supportsHand(g, p, top) {
		return DrawDiscard
	}
	return DrawStock
}

// supportsHand reports whether the card pairs with a held rank or, when
// the round requires a run, lands within two steps of a held card of the
// same suit.
func supportsHand(g *game.Game, p *game.Player, card deck.Card) bool {
	needsRun := false
	for _, req := range g.CurrentRound().Requirements {
		if req.Kind == meld.KindRun {
			needsRun = true
		}
	}
	for _, c := range p.Hand {
		if c.IsWild() {
			continue
		}
		if c.Rank == card.Rank {
			return true
		}
		if needsRun && c.Suit == card.Suit {
			d := c.Rank.Value() - card.Rank.Value()
			if d < 0 {
				d = -d
			}
			if d <= 2 {
				return true
			}
		}
	}
	return false
}

// opponentMeldedRanks collects ranks committed in other seats' sets.
// Discarding one of those is safe: it cannot seed a new meld for them.
func opponentMeldedRanks(g *game.Game, seat int) map[deck.Rank]bool {
	ranks := map[deck.Rank]bool{}
	for _, tm := range g.AllMelds() {
		if tm.Seat == seat || tm.Meld.Kind != meld.KindSet {
			continue
		}
		ranks[tm.Meld.Rank] = true
	}
	return ranks
}

// ChooseDiscard picks the least useful hand card to throw. Cascade:
// protect pairs-or-better, prefer ranks opponents already melded, then
// lower point value. The strategy hook may veto candidates or rescale
// priorities; if everything is vetoed the base ordering stands, since
// the engine requires a discard to end the turn.
func ChooseDiscard(g *game.Game, seat int, strat Strategy) deck.Card {
	if strat == nil {
		strat = defaultStrategy{}
	}
	p := g.Players[seat]

	rankCounts := map[deck.Rank]int{}
	for _, c := range p.Hand {
		if !c.IsWild() {
			rankCounts[c.Rank]++
		}
	}
	oppRanks := opponentMeldedRanks(g, seat)

	score := func(c deck.Card) float64 {
		// Higher scores get discarded first.
		base := 100.0
		if c.IsWild() {
			base -= 1000 // wilds are nearly always worth holding
		}
		if rankCounts[c.Rank] >= 2 {
			base -= 500 // never break a pair if avoidable
		}
		if oppRanks[c.Rank] {
			base += 200 // dead rank for us, safe against them
		}
		base -= float64(c.Points()) // shed cheap cards before dear ones
		return strat.AdjustPriority(g, seat, c, base)
	}

	pick := func(allowVetoed bool) (deck.Card, bool) {
		var best deck.Card
		bestScore := 0.0
		found := false
		for _, c := range p.Hand {
			if !allowVetoed && strat.VetoDiscard(g, seat, c) {
				continue
			}
			s := score(c)
			if !found || s > bestScore {
				best, bestScore, found = c, s, true
			}
		}
		return best, found
	}

	if best, ok := pick(false); ok {
		return best
	}
	best, _ := pick(true)
	return best
}

// PlayTurn runs one complete built-in AI turn: draw, lay down when the
// hand allows, lay off everything that fits, discard. The caller owns
// win handling and turn advancement.
func PlayTurn(g *game.Game, seat int, strat Strategy, log *logrus.Logger) TurnSummary {
	p := g.Players[seat]
	summary := TurnSummary{Source: ChooseDrawSource(g, seat)}

	var ok bool
	if summary.Source == DrawDiscard {
		summary.Drew, ok = g.DrawFromDiscard(seat)
	}
	if summary.Source == DrawStock || !ok {
		summary.Source = DrawStock
		summary.Drew, _ = g.DrawFromStock(seat)
	}

	if !p.HasLaidDown {
		summary.LaidDown = g.TryLayDown(seat)
	}
	summary.LaidOff = g.LayOffAll(seat)

	// Lay-down and lay-off both guarantee at least one card stays in
	// hand, so there is always a discard to end the turn. The guard
	// keeps a surprise empty hand from becoming a panic.
	if len(p.Hand) > 0 {
		summary.Discarded = ChooseDiscard(g, seat, strat)
		if _, err := g.Discard(seat, summary.Discarded.Cid); err != nil {
			summary.Discarded = p.Hand[0]
			g.Discard(seat, summary.Discarded.Cid)
		}
	}
	summary.Won = g.HasWon(seat)

	if !summary.LaidDown && summary.LaidOff == 0 {
		p.NoProgressTurns++
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"seat":      seat,
			"player":    p.Name,
			"source":    summary.Source,
			"laid_down": summary.LaidDown,
			"laid_off":  summary.LaidOff,
			"discarded": summary.Discarded.String(),
			"won":       summary.Won,
		}).Debug("AI turn complete")
	}
	return summary
}

// WouldBuy reports whether a discard is worth a buy request for this
// seat: it completes the round's lay-down or extends a meld the seat has
// already committed. Used to auto-enroll AI seats in buy negotiation.
func WouldBuy(g *game.Game, seat int, card deck.Card) bool {
	p := g.Players[seat]
	if !p.HasLaidDown {
		return meld.CanLayDownWith(p.Hand, card, g.CurrentRound().Requirements)
	}
	for _, m := range p.Melds {
		if m.CanAdd(card) {
			return true
		}
	}
	return false
}
