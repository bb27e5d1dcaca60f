// internal/room/actions.go
//
// Inbound action handling for human seats, buy negotiation, and the
// timer-driven turns of automated seats.
package room

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chrummy/server/internal/ai"
	"github.com/chrummy/server/internal/deck"
	"github.com/chrummy/server/internal/game"
	"github.com/chrummy/server/internal/meld"
)

// Action is one kind-discriminated player action from the wire.
type Action struct {
	Kind       string `json:"kind"`
	Source     string `json:"source,omitempty"`     // draw: "stock" | "discard"
	Cid        int    `json:"cid,omitempty"`        // stage/unstage/layoff/discard
	MeldIndex  int    `json:"meldIndex"`            // stage: -1 opens a new group
	MeldKind   string `json:"meldKind,omitempty"`   // stage: "set" | "run"
	TargetSeat int    `json:"targetSeat"`           // layoff
	TargetMeld int    `json:"targetMeld"`           // layoff
}

// HandleAction validates and applies one action for a human seat.
// Protocol violations (wrong phase, not your turn) and rule violations
// both come back as errors with room state unchanged; the caller
// surfaces them as error messages on the seat's connection.
func (r *Room) HandleAction(seat int, a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()

	if seat < 0 || seat >= len(r.seats) || r.seats[seat].Kind == SeatEmpty {
		return fmt.Errorf("unknown seat %d", seat)
	}
	err := r.dispatchLocked(seat, a)
	if err == nil {
		r.emitActionLocked(seat, a.Kind, a.Source)
	}
	return err
}

func (r *Room) dispatchLocked(seat int, a Action) error {
	if a.Kind == "restart" {
		return r.restartLocked()
	}
	if r.g == nil || (r.state != StateActive && r.state != StateRoundOver) {
		return fmt.Errorf("no game in progress")
	}

	switch a.Kind {
	case "draw":
		return r.handleDrawLocked(seat, a.Source)
	case "stage":
		if err := r.requireTurn(seat, game.PhaseAwaitingDiscard); err != nil {
			return err
		}
		kind := meld.Kind(a.MeldKind)
		if a.MeldKind == "" {
			kind = meld.KindSet
		}
		return r.finish(r.g.Stage(seat, a.Cid, a.MeldIndex, kind))
	case "unstage":
		if err := r.requireTurn(seat, game.PhaseAwaitingDiscard); err != nil {
			return err
		}
		return r.finish(r.g.Unstage(seat, a.Cid))
	case "auto_stage":
		if err := r.requireTurn(seat, game.PhaseAwaitingDiscard); err != nil {
			return err
		}
		if !r.g.AutoStage(seat) {
			return fmt.Errorf("no valid combination")
		}
		r.broadcastStateLocked()
		return nil
	case "laydown":
		return r.handleLayDownLocked(seat)
	case "layoff":
		if err := r.requireTurn(seat, game.PhaseAwaitingDiscard); err != nil {
			return err
		}
		if err := r.g.LayOff(seat, a.Cid, a.TargetSeat, a.TargetMeld); err != nil {
			return err
		}
		r.broadcastStateLocked()
		return nil
	case "discard":
		return r.handleDiscardLocked(seat, a.Cid)
	default:
		return fmt.Errorf("unknown action %q", a.Kind)
	}
}

// finish broadcasts on success and passes the error through either way.
func (r *Room) finish(err error) error {
	if err == nil {
		r.broadcastStateLocked()
	}
	return err
}

// requireTurn enforces turn ownership and engine phase.
func (r *Room) requireTurn(seat int, phase game.Phase) error {
	if r.state != StateActive {
		return fmt.Errorf("round is not in play")
	}
	if r.g.CurrentPlayerIndex != seat {
		return fmt.Errorf("not your turn")
	}
	if r.g.Phase != phase {
		return fmt.Errorf("wrong phase (%s)", r.g.Phase)
	}
	return nil
}

func (r *Room) handleDrawLocked(seat int, source string) error {
	if err := r.requireTurn(seat, game.PhaseAwaitingDraw); err != nil {
		return err
	}
	switch source {
	case "discard":
		// Taking the top discard moots every pending buy on it.
		r.buyReqs = nil
		if _, ok := r.g.DrawFromDiscard(seat); !ok {
			return fmt.Errorf("discard pile is empty")
		}
	case "stock", "":
		// A stock draw is the buy-resolution point: the discard survives
		// unclaimed by the turn holder, so the senior requester takes it.
		r.resolveBuysLocked()
		if _, ok := r.g.DrawFromStock(seat); !ok {
			return fmt.Errorf("nothing left to draw")
		}
	default:
		return fmt.Errorf("unknown draw source %q", source)
	}
	r.broadcastStateLocked()
	return nil
}

func (r *Room) handleLayDownLocked(seat int) error {
	if err := r.requireTurn(seat, game.PhaseAwaitingDiscard); err != nil {
		return err
	}
	var ok bool
	if len(r.g.Players[seat].StagedMelds) > 0 {
		ok = r.g.TryLayDownStaged(seat)
	} else {
		ok = r.g.TryLayDown(seat)
	}
	if !ok {
		r.broadcastStateLocked() // staged cards may have rolled back
		return fmt.Errorf("no valid combination")
	}
	r.broadcastStateLocked()
	return nil
}

func (r *Room) handleDiscardLocked(seat int, cid int) error {
	if err := r.requireTurn(seat, game.PhaseAwaitingDiscard); err != nil {
		return err
	}
	card, err := r.g.Discard(seat, cid)
	if err != nil {
		return err
	}
	r.afterDiscardLocked(seat, card)
	return nil
}

// afterDiscardLocked is the shared tail of human and automated turns:
// win check, buy window, turn advancement, AI scheduling.
func (r *Room) afterDiscardLocked(seat int, card deck.Card) {
	if r.g.HasWon(seat) {
		r.finishRoundLocked(seat)
		return
	}
	r.g.AdvanceTurn()
	r.openBuyWindowLocked(seat, card)
	r.broadcastStateLocked()
	r.scheduleAutomatedTurnLocked()
}

// --- buy negotiation ---

// buyEligible reports whether a seat may claim the last discard: never
// the discarder, never the seat about to act, and only at tables of
// three or more.
func (r *Room) buyEligible(seat int) bool {
	if r.Capacity < buyCapacityFloor || r.lastDiscarder < 0 {
		return false
	}
	return seat != r.lastDiscarder && seat != r.g.CurrentPlayerIndex
}

// openBuyWindowLocked records the discarder and auto-enrolls automated
// seats that would profit from the card.
func (r *Room) openBuyWindowLocked(discarder int, card deck.Card) {
	r.buyReqs = nil
	r.lastDiscarder = discarder
	if r.Capacity < buyCapacityFloor {
		return
	}
	for i, s := range r.seats {
		if !s.Automated() || !r.buyEligible(i) {
			continue
		}
		if ai.WouldBuy(r.g, i, card) {
			r.buyReqs = append(r.buyReqs, buyRequest{Seat: i, Cid: card.Cid})
			r.log.WithFields(logrus.Fields{"room": r.Code, "seat": i, "card": card.Notation()}).Debug("AI buy request")
		}
	}
}

// HandleBuy records a human seat's claim on the current top discard.
func (r *Room) HandleBuy(seat int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()

	if r.g == nil || r.state != StateActive {
		return fmt.Errorf("no round in play")
	}
	if !r.buyEligible(seat) {
		return fmt.Errorf("seat %d cannot buy this discard", seat)
	}
	top, ok := r.g.TopDiscard()
	if !ok {
		return fmt.Errorf("nothing to buy")
	}
	for _, req := range r.buyReqs {
		if req.Seat == seat {
			return nil // already queued
		}
	}
	r.buyReqs = append(r.buyReqs, buyRequest{Seat: seat, Cid: top.Cid})
	return nil
}

// resolveBuysLocked grants the top discard (plus one stock card) to the
// eligible requester closest in turn order to the discarder, then
// clears all requests. Requests pinned to a card that is no longer on
// top die silently.
func (r *Room) resolveBuysLocked() {
	reqs := r.buyReqs
	r.buyReqs = nil
	if len(reqs) == 0 {
		return
	}
	top, ok := r.g.TopDiscard()
	if !ok {
		return
	}

	n := len(r.seats)
	winner := -1
	best := n + 1
	for _, req := range reqs {
		if req.Cid != top.Cid || !r.buyEligible(req.Seat) {
			continue
		}
		dist := ((req.Seat - r.lastDiscarder) + n) % n
		if dist < best {
			best = dist
			winner = req.Seat
		}
	}
	if winner < 0 {
		return
	}
	if _, ok := r.g.GrantBuy(winner); !ok {
		return
	}

	r.log.WithFields(logrus.Fields{"room": r.Code, "seat": winner, "card": top.Notation()}).Info("Buy granted")
	r.emitActionLocked(winner, "buy", top.Notation())
	r.broadcastLocked(buySuccessMsg{Type: "buy_success", Seat: winner, Card: newCardView(top)})
}

// --- automated turns ---

// scheduleAutomatedTurnLocked arms the turn timer when the seat to act
// is automated. Human seats simply wait for inbound actions.
func (r *Room) scheduleAutomatedTurnLocked() {
	if r.state != StateActive || r.g == nil {
		return
	}
	seat := r.g.CurrentPlayerIndex
	if !r.seats[seat].Automated() {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	gen := r.gen
	r.timer = time.AfterFunc(r.aiTurnDelay, func() {
		r.runAutomatedTurn(gen, seat)
	})
}

// runAutomatedTurn is the AI timer callback. It revalidates generation,
// state, and seat before touching the game; a stale callback is a no-op.
func (r *Room) runAutomatedTurn(gen, seat int) {
	r.mu.Lock()
	if r.gen != gen || r.state != StateActive || r.g == nil ||
		r.g.CurrentPlayerIndex != seat || !r.seats[seat].Automated() {
		r.mu.Unlock()
		return
	}

	s := r.seats[seat]
	if s.Kind == SeatBot && s.Delegate != nil {
		r.runDelegatedTurnLocked(gen, seat)
		return // runDelegatedTurnLocked releases the lock
	}

	r.runBuiltinTurnLocked(seat)
	r.mu.Unlock()
}

// runBuiltinTurnLocked plays one heuristic turn. Caller holds the lock.
func (r *Room) runBuiltinTurnLocked(seat int) {
	if ai.ChooseDrawSource(r.g, seat) == ai.DrawStock {
		r.resolveBuysLocked()
	} else {
		r.buyReqs = nil
	}
	summary := ai.PlayTurn(r.g, seat, nil, r.log)
	r.emitActionLocked(seat, "ai_turn", summary.Discarded.Notation())
	r.afterDiscardLocked(seat, summary.Discarded)
}

// runDelegatedTurnLocked offers the turn to the external bot, releasing
// the lock for the network round trip and revalidating afterwards. On
// timeout or a malformed response the built-in heuristic plays the turn
// so it always completes. Enters with the lock held, returns without it.
func (r *Room) runDelegatedTurnLocked(gen, seat int) {
	req := r.buildTurnRequestLocked(seat)
	delegate := r.seats[seat].Delegate
	timeout := r.botTimeout
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	resp, err := delegate.RequestTurn(ctx, req)
	cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen || r.state != StateActive || r.g == nil || r.g.CurrentPlayerIndex != seat {
		return // the world moved on while we waited
	}
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{"room": r.Code, "seat": seat}).
			Warn("Bot delegate failed; falling back to built-in heuristic")
		r.runBuiltinTurnLocked(seat)
		return
	}
	r.applyDelegatedTurnLocked(seat, resp)
}

// buildTurnRequestLocked snapshots the table into the bot wire format.
func (r *Room) buildTurnRequestLocked(seat int) TurnRequest {
	p := r.g.Players[seat]
	req := TurnRequest{
		Type:         "turn_request",
		RoomCode:     r.Code,
		Seat:         seat,
		Round:        r.g.RoundIndex + 1,
		Requirements: game.FormatRequirements(r.g.CurrentRound().Requirements),
		DrawCount:    len(r.g.DrawPile),
		HasLaidDown:  p.HasLaidDown,
	}
	for _, c := range p.Hand {
		req.Hand = append(req.Hand, c.Notation())
	}
	if top, ok := r.g.TopDiscard(); ok {
		req.DiscardTop = top.Notation()
	}
	for _, tm := range r.g.AllMelds() {
		var cards []string
		for _, c := range tm.Meld.Cards {
			cards = append(cards, c.Notation())
		}
		req.Melds = append(req.Melds, cards)
	}
	return req
}

// applyDelegatedTurnLocked replays the bot's choices through the same
// engine path a human turn takes; anything unparseable degrades to the
// heuristic choice for that decision only.
func (r *Room) applyDelegatedTurnLocked(seat int, resp TurnResponse) {
	p := r.g.Players[seat]

	source := ai.DrawSource(resp.DrawSource)
	if source != ai.DrawDiscard {
		source = ai.DrawStock
	}
	if _, ok := r.g.TopDiscard(); !ok && source == ai.DrawDiscard {
		source = ai.DrawStock
	}
	if source == ai.DrawStock {
		r.resolveBuysLocked()
		r.g.DrawFromStock(seat)
	} else {
		r.buyReqs = nil
		r.g.DrawFromDiscard(seat)
	}

	if !p.HasLaidDown {
		r.g.TryLayDown(seat)
	}
	r.g.LayOffAll(seat)

	card, ok := deck.MatchNotation(p.Hand, resp.Discard)
	if !ok {
		card = ai.ChooseDiscard(r.g, seat, nil)
	}
	discarded, err := r.g.Discard(seat, card.Cid)
	if err != nil {
		// The hand is never empty here; take the heuristic pick instead.
		discarded, _ = r.g.Discard(seat, ai.ChooseDiscard(r.g, seat, nil).Cid)
	}
	r.emitActionLocked(seat, "bot_turn", discarded.Notation())
	r.afterDiscardLocked(seat, discarded)
}
