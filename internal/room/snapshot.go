// internal/room/snapshot.go
//
// Per-seat state snapshots. Each connected seat sees its own cards;
// everyone else is reduced to counts and committed melds, unless dev
// mode reveals the whole table.
package room

import (
	"github.com/chrummy/server/internal/deck"
	"github.com/chrummy/server/internal/game"
	"github.com/chrummy/server/internal/meld"
)

type cardView struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
	Cid  int    `json:"cid"`
}

func newCardView(c deck.Card) cardView {
	return cardView{Rank: string(c.Rank), Suit: c.Suit.String(), Cid: c.Cid}
}

func cardViews(cards []deck.Card) []cardView {
	out := make([]cardView, len(cards))
	for i, c := range cards {
		out[i] = newCardView(c)
	}
	return out
}

type meldView struct {
	Kind  string     `json:"type"`
	Cards []cardView `json:"cards"`
}

func meldViews(melds []*meld.Meld) []meldView {
	out := make([]meldView, len(melds))
	for i, m := range melds {
		out[i] = meldView{Kind: string(m.Kind), Cards: cardViews(m.Cards)}
	}
	return out
}

type requirementView struct {
	Kind string `json:"type"`
	Size int    `json:"size"`
}

type youView struct {
	Seat        int        `json:"seat"`
	Name        string     `json:"name"`
	Hand        []cardView `json:"hand"`
	Staged      []meldView `json:"staged"`
	Melds       []meldView `json:"melds"`
	HasLaidDown bool       `json:"hasLaidDown"`
	TotalScore  int        `json:"totalScore"`
}

type opponentView struct {
	Seat        int        `json:"seat"`
	Name        string     `json:"name"`
	Kind        SeatKind   `json:"kind"`
	Connected   bool       `json:"connected"`
	HandCount   int        `json:"handCount"`
	Hand        []cardView `json:"hand,omitempty"` // dev-mode reveal only
	Melds       []meldView `json:"melds"`
	HasLaidDown bool       `json:"hasLaidDown"`
	TotalScore  int        `json:"totalScore"`
}

type stateMsg struct {
	Type         string            `json:"type"`
	Code         string            `json:"code"`
	State        State             `json:"state"`
	Phase        game.Phase        `json:"phase,omitempty"`
	Round        int               `json:"round,omitempty"`
	HandSize     int               `json:"handSize,omitempty"`
	Requirements []requirementView `json:"requirements,omitempty"`
	Needed       string            `json:"needed,omitempty"`
	CurrentSeat  int               `json:"currentSeat"`
	DealerSeat   int               `json:"dealerSeat"`
	DiscardTop   *cardView         `json:"discardTop,omitempty"`
	DrawCount    int               `json:"drawCount"`
	DeadCount    int               `json:"deadCount"`
	You          *youView          `json:"you,omitempty"`
	Opponents    []opponentView    `json:"opponents"`
	BuySeats     []int             `json:"buySeats,omitempty"`
	DevMode      bool              `json:"devMode,omitempty"`
}

type playerLeftMsg struct {
	Type string `json:"type"`
	Seat int    `json:"seat"`
}

type buySuccessMsg struct {
	Type string   `json:"type"`
	Seat int      `json:"seat"`
	Card cardView `json:"card"`
}

// snapshotLocked builds the asymmetric state view for one seat. Callers
// hold the lock.
func (r *Room) snapshotLocked(seat int) stateMsg {
	msg := stateMsg{
		Type:        "state",
		Code:        r.Code,
		State:       r.state,
		CurrentSeat: -1,
		DealerSeat:  -1,
		DevMode:     r.devMode,
	}
	for _, req := range r.buyReqs {
		msg.BuySeats = append(msg.BuySeats, req.Seat)
	}

	if r.g == nil {
		for i, s := range r.seats {
			if i == seat {
				msg.You = &youView{Seat: i, Name: s.Name}
				continue
			}
			msg.Opponents = append(msg.Opponents, opponentView{
				Seat: i, Name: s.Name, Kind: s.Kind, Connected: s.Conn != nil,
			})
		}
		return msg
	}

	round := r.g.CurrentRound()
	msg.Phase = r.g.Phase
	msg.Round = r.g.RoundIndex + 1
	msg.HandSize = round.HandSize
	msg.Needed = game.FormatRequirements(round.Requirements)
	for _, req := range round.Requirements {
		msg.Requirements = append(msg.Requirements, requirementView{Kind: string(req.Kind), Size: req.Size})
	}
	msg.CurrentSeat = r.g.CurrentPlayerIndex
	msg.DealerSeat = r.g.DealerIndex
	msg.DrawCount = len(r.g.DrawPile)
	msg.DeadCount = len(r.g.DeadPile)
	if top, ok := r.g.TopDiscard(); ok {
		v := newCardView(top)
		msg.DiscardTop = &v
	}

	for i, s := range r.seats {
		p := r.g.Players[i]
		if i == seat {
			msg.You = &youView{
				Seat:        i,
				Name:        p.Name,
				Hand:        cardViews(p.Hand),
				Staged:      meldViews(p.StagedMelds),
				Melds:       meldViews(p.Melds),
				HasLaidDown: p.HasLaidDown,
				TotalScore:  p.TotalScore,
			}
			continue
		}
		opp := opponentView{
			Seat:        i,
			Name:        p.Name,
			Kind:        s.Kind,
			Connected:   s.Conn != nil,
			HandCount:   len(p.Hand),
			Melds:       meldViews(p.Melds),
			HasLaidDown: p.HasLaidDown,
			TotalScore:  p.TotalScore,
		}
		if r.devMode {
			opp.Hand = cardViews(p.Hand)
		}
		msg.Opponents = append(msg.Opponents, opp)
	}
	return msg
}
