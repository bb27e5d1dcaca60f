// internal/game/game.go
package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chrummy/server/internal/deck"
	"github.com/chrummy/server/internal/meld"
)

// Phase is the per-turn engine state. The orchestrator layers its own
// room states (waiting, round_over) on top.
type Phase string

const (
	PhaseAwaitingDraw    Phase = "awaiting_draw"
	PhaseAwaitingDiscard Phase = "awaiting_discard"
	PhaseRoundOver       Phase = "round_over"
)

// Player is one seat's game-visible state. Connection identity lives in
// the room layer; the engine only knows seats by index.
type Player struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Hand        []deck.Card  `json:"hand"`
	Melds       []*meld.Meld `json:"melds"`
	StagedMelds []*meld.Meld `json:"stagedMelds"`
	HasLaidDown bool         `json:"hasLaidDown"`
	TotalScore  int          `json:"totalScore"`

	// NoProgressTurns feeds the AI's desperation decay; reset whenever the
	// seat lays down, lays off, or wins a buy.
	NoProgressTurns int `json:"-"`

	// LastDiscardCid remembers the seat's own most recent discard so the
	// draw heuristic does not chase it back around the table.
	LastDiscardCid int `json:"-"`
}

// HandPoints is the seat's round score if someone else wins now.
func (p *Player) HandPoints() int {
	total := 0
	for _, c := range p.Hand {
		total += c.Points()
	}
	return total
}

// stagedCount sums cards currently parked in staged melds.
func (p *Player) stagedCount() int {
	n := 0
	for _, m := range p.StagedMelds {
		n += len(m.Cards)
	}
	return n
}

// TableMeld is a committed meld with its owning seat, for table scans.
type TableMeld struct {
	Seat int
	Meld *meld.Meld
}

// Game is the rules engine for one table across all rounds. It performs
// no locking: the owning room serializes all access, so the engine is
// never reached from two flows at once.
type Game struct {
	ID      uuid.UUID `json:"id"`
	Players []*Player `json:"players"`

	RoundIndex         int   `json:"roundIndex"`
	DealerIndex        int   `json:"dealerIndex"`
	CurrentPlayerIndex int   `json:"currentPlayerIndex"`
	Phase              Phase `json:"phase"`

	DrawPile    []deck.Card `json:"-"`
	DiscardPile []deck.Card `json:"-"`
	DeadPile    []deck.Card `json:"-"`

	rng *rand.Rand
	log *logrus.Logger
}

// New creates a game for the given seat names and deals the first round.
func New(names []string, log *logrus.Logger) (*Game, error) {
	if len(names) < 2 || len(names) > 10 {
		return nil, fmt.Errorf("need 2-10 players, got %d", len(names))
	}
	if log == nil {
		log = logrus.New()
	}
	g := &Game{
		ID:  uuid.New(),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: log,
	}
	for _, name := range names {
		g.Players = append(g.Players, &Player{ID: uuid.New(), Name: name})
	}
	if err := g.StartRound(); err != nil {
		return nil, err
	}
	return g, nil
}

// SeedRNG swaps in a deterministic source, for tests.
func (g *Game) SeedRNG(seed int64) {
	g.rng = rand.New(rand.NewSource(seed))
}

// CurrentRound returns the active round definition.
func (g *Game) CurrentRound() Round {
	return Rounds[g.RoundIndex]
}

// CurrentPlayer returns the seat whose turn it is.
func (g *Game) CurrentPlayer() *Player {
	return g.Players[g.CurrentPlayerIndex]
}

// IsFinalRound reports whether this is the last defined round.
func (g *Game) IsFinalRound() bool {
	return g.RoundIndex >= len(Rounds)-1
}

// StartRound builds a fresh shoe, deals the current round's hand size to
// every seat starting left of the dealer, flips one card to start the
// discard pile, and hands the first turn to the dealer's left.
func (g *Game) StartRound() error {
	shoe, err := deck.NewDeck(len(g.Players))
	if err != nil {
		return err
	}
	shoe.Shuffle(g.rng)

	round := g.CurrentRound()
	for _, p := range g.Players {
		p.Hand = nil
		p.Melds = nil
		p.StagedMelds = nil
		p.HasLaidDown = false
		p.NoProgressTurns = 0
		p.LastDiscardCid = 0
	}
	for i := 0; i < round.HandSize; i++ {
		for off := 1; off <= len(g.Players); off++ {
			p := g.Players[(g.DealerIndex+off)%len(g.Players)]
			dealt, err := shoe.Deal(1)
			if err != nil {
				return err
			}
			p.Hand = append(p.Hand, dealt...)
		}
	}
	flip, err := shoe.Deal(1)
	if err != nil {
		return err
	}
	g.DiscardPile = flip
	g.DeadPile = nil
	g.DrawPile = shoe.Cards
	g.CurrentPlayerIndex = (g.DealerIndex + 1) % len(g.Players)
	g.Phase = PhaseAwaitingDraw

	g.log.WithFields(logrus.Fields{
		"game_id":  g.ID,
		"round":    g.RoundIndex + 1,
		"dealer":   g.DealerIndex,
		"need":     FormatRequirements(round.Requirements),
		"draw_len": len(g.DrawPile),
	}).Info("Round dealt")
	return nil
}

// DrawFromStock pops the top stock card for the given seat, reshuffling
// the dead pile and discard-minus-top back into the stock when empty.
// Fails only if the combined pool is structurally empty.
func (g *Game) DrawFromStock(seat int) (deck.Card, bool) {
	if len(g.DrawPile) == 0 {
		g.reshuffleStock()
	}
	if len(g.DrawPile) == 0 {
		return deck.Card{}, false
	}
	card := g.DrawPile[0]
	g.DrawPile = g.DrawPile[1:]
	g.Players[seat].Hand = append(g.Players[seat].Hand, card)
	g.Phase = PhaseAwaitingDiscard
	return card, true
}

// DrawFromDiscard takes the reclaimable top discard. Fails if the
// discard pile is empty.
func (g *Game) DrawFromDiscard(seat int) (deck.Card, bool) {
	if len(g.DiscardPile) == 0 {
		return deck.Card{}, false
	}
	card := g.DiscardPile[len(g.DiscardPile)-1]
	g.DiscardPile = g.DiscardPile[:len(g.DiscardPile)-1]
	g.Players[seat].Hand = append(g.Players[seat].Hand, card)
	g.Phase = PhaseAwaitingDiscard
	return card, true
}

// reshuffleStock rebuilds the draw pile from the dead pile plus every
// discard except the reclaimable top card.
func (g *Game) reshuffleStock() {
	pool := append([]deck.Card(nil), g.DeadPile...)
	if len(g.DiscardPile) > 1 {
		pool = append(pool, g.DiscardPile[:len(g.DiscardPile)-1]...)
		g.DiscardPile = g.DiscardPile[len(g.DiscardPile)-1:]
	}
	g.DeadPile = nil
	g.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	g.DrawPile = pool
	g.log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"stock":   len(g.DrawPile),
	}).Info("Stock exhausted; reshuffled dead pile and buried discards")
}

// GrantBuy hands the top discard plus one stock card to the seat,
// without touching the turn phase. Used by buy resolution, which
// happens outside the buyer's own turn.
func (g *Game) GrantBuy(seat int) (claimed deck.Card, ok bool) {
	claimed, ok = g.TopDiscard()
	if !ok {
		return deck.Card{}, false
	}
	g.DiscardPile = g.DiscardPile[:len(g.DiscardPile)-1]
	p := g.Players[seat]
	p.Hand = append(p.Hand, claimed)

	if len(g.DrawPile) == 0 {
		g.reshuffleStock()
	}
	if len(g.DrawPile) > 0 {
		p.Hand = append(p.Hand, g.DrawPile[0])
		g.DrawPile = g.DrawPile[1:]
	}
	p.NoProgressTurns = 0
	return claimed, true
}

// TopDiscard returns the reclaimable discard, if any.
func (g *Game) TopDiscard() (deck.Card, bool) {
	if len(g.DiscardPile) == 0 {
		return deck.Card{}, false
	}
	return g.DiscardPile[len(g.DiscardPile)-1], true
}

// Discard moves a card from the seat's hand to the top of the discard
// pile, first sweeping the previous top into the dead pile: only the
// single newest discard is ever reclaimable. The caller checks the win
// condition (hand empty) since scoring depends on who discarded.
func (g *Game) Discard(seat int, cid int) (deck.Card, error) {
	p := g.Players[seat]
	// A discard before laying down tears staged groups back into the
	// hand first; staged cards never sit out a scoring.
	if !p.HasLaidDown {
		g.ClearStaged(seat)
	}
	card, ok := deck.FindByCid(p.Hand, cid)
	if !ok {
		return deck.Card{}, fmt.Errorf("card %d not in hand", cid)
	}
	p.Hand, _ = deck.RemoveByCid(p.Hand, cid)
	p.LastDiscardCid = card.Cid
	if len(g.DiscardPile) > 0 {
		g.DeadPile = append(g.DeadPile, g.DiscardPile...)
	}
	g.DiscardPile = []deck.Card{card}
	return card, nil
}

// AdvanceTurn passes the turn to the next seat.
func (g *Game) AdvanceTurn() {
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	g.Phase = PhaseAwaitingDraw
}

// TryLayDown runs the requirement search directly against the hand and,
// on success, commits the matched groups and sets hasLaidDown. The
// search keeps at least one card back: a win comes only by discarding
// the last card, so an arrangement that swallowed the whole hand would
// leave the turn with nothing to discard. A failure leaves the hand
// untouched.
func (g *Game) TryLayDown(seat int) bool {
	p := g.Players[seat]
	if p.HasLaidDown {
		return false
	}
	melds := meld.FindAssignmentKeeping(p.Hand, g.CurrentRound().Requirements)
	if melds == nil {
		return false
	}
	g.commitMelds(p, melds)
	return true
}

// commitMelds removes each meld's cards from the hand and attaches the
// melds to the player.
func (g *Game) commitMelds(p *Player, melds []*meld.Meld) {
	for _, m := range melds {
		for _, c := range m.Cards {
			p.Hand, _ = deck.RemoveByCid(p.Hand, c.Cid)
		}
		m.Staged = false
		p.Melds = append(p.Melds, m)
	}
	p.HasLaidDown = true
	p.NoProgressTurns = 0
	g.log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"player":  p.Name,
		"melds":   len(melds),
	}).Info("Player laid down")
}

// AllMelds returns every committed meld on the table with its owner.
func (g *Game) AllMelds() []TableMeld {
	var out []TableMeld
	for i, p := range g.Players {
		for _, m := range p.Melds {
			out = append(out, TableMeld{Seat: i, Meld: m})
		}
	}
	return out
}

// LayOff appends one hand card to a committed meld (own or opponent's).
// Legal only after the seat has laid down.
func (g *Game) LayOff(seat int, cid int, targetSeat, targetMeld int) error {
	p := g.Players[seat]
	if !p.HasLaidDown {
		return fmt.Errorf("must lay down before laying off")
	}
	if targetSeat < 0 || targetSeat >= len(g.Players) {
		return fmt.Errorf("no such seat %d", targetSeat)
	}
	owner := g.Players[targetSeat]
	if targetMeld < 0 || targetMeld >= len(owner.Melds) {
		return fmt.Errorf("no such meld %d", targetMeld)
	}
	card, ok := deck.FindByCid(p.Hand, cid)
	if !ok {
		return fmt.Errorf("card %d not in hand", cid)
	}
	m := owner.Melds[targetMeld]
	if !m.CanAdd(card) {
		return fmt.Errorf("%s does not fit that %s", card, m.Kind)
	}
	p.Hand, _ = deck.RemoveByCid(p.Hand, cid)
	m.Add(card)
	p.NoProgressTurns = 0
	return nil
}

// LayOffAll greedily lays off every hand card that fits any committed
// meld, wilds last so naturals anchor first. It never empties the hand:
// a player must win by discarding their last card, so the scan stops
// with one card remaining.
func (g *Game) LayOffAll(seat int) int {
	p := g.Players[seat]
	if !p.HasLaidDown {
		return 0
	}
	moved := 0
	for pass := 0; pass < 2; pass++ {
		wildPass := pass == 1
		progress := true
		for progress && len(p.Hand) > 1 {
			progress = false
			for _, c := range p.Hand {
				if c.IsWild() != wildPass {
					continue
				}
				if target := g.findMeldFor(c); target != nil {
					p.Hand, _ = deck.RemoveByCid(p.Hand, c.Cid)
					target.Add(c)
					moved++
					progress = true
					break
				}
			}
		}
	}
	if moved > 0 {
		p.NoProgressTurns = 0
	}
	return moved
}

// findMeldFor returns the first committed meld anywhere on the table
// that the card can extend.
func (g *Game) findMeldFor(c deck.Card) *meld.Meld {
	for _, p := range g.Players {
		for _, m := range p.Melds {
			if m.CanAdd(c) {
				return m
			}
		}
	}
	return nil
}

// CanLayOffAnywhere reports whether any committed meld accepts the card.
func (g *Game) CanLayOffAnywhere(c deck.Card) bool {
	return g.findMeldFor(c) != nil
}

// ApplyRoundScores charges every non-winner the point value of their
// remaining hand and returns the per-seat round scores. The winner
// scores zero. Staged cards roll back to hands first so they count.
func (g *Game) ApplyRoundScores(winnerSeat int) []int {
	scores := make([]int, len(g.Players))
	for i, p := range g.Players {
		if i == winnerSeat {
			continue
		}
		g.ClearStaged(i)
		scores[i] = p.HandPoints()
		p.TotalScore += scores[i]
	}
	g.Phase = PhaseRoundOver
	g.log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"round":   g.RoundIndex + 1,
		"winner":  g.Players[winnerSeat].Name,
		"scores":  scores,
	}).Info("Round scored")
	return scores
}

// NextRound advances to the following round (capped at the last one),
// rotates the dealer, and re-deals.
func (g *Game) NextRound() error {
	if g.RoundIndex < len(Rounds)-1 {
		g.RoundIndex++
	}
	g.DealerIndex = (g.DealerIndex + 1) % len(g.Players)
	return g.StartRound()
}

// TotalCards counts every card in play: hands, staged and committed
// melds, and all three piles. Conserved within a round.
func (g *Game) TotalCards() int {
	total := len(g.DrawPile) + len(g.DiscardPile) + len(g.DeadPile)
	for _, p := range g.Players {
		total += len(p.Hand)
		for _, m := range p.Melds {
			total += len(m.Cards)
		}
		for _, m := range p.StagedMelds {
			total += len(m.Cards)
		}
	}
	return total
}
