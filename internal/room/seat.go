// internal/room/seat.go
package room

import (
	"context"

	"github.com/google/uuid"
)

// SeatKind discriminates who occupies a seat.
type SeatKind string

const (
	SeatEmpty SeatKind = "empty"
	SeatHuman SeatKind = "human"
	SeatAI    SeatKind = "ai"    // built-in heuristic
	SeatBot   SeatKind = "bot"   // externally delegated
)

// Sender delivers one outbound message to a connected seat. The
// websocket layer implements it with async writes; tests implement it
// with a slice.
type Sender interface {
	Send(v interface{}) error
	Close(reason string)
}

// TurnRequest is the structured turn offer sent to an external bot.
// Cards cross this boundary in compact notation only.
type TurnRequest struct {
	Type         string     `json:"type"`
	RoomCode     string     `json:"roomCode"`
	Seat         int        `json:"seat"`
	Round        int        `json:"round"`
	Requirements string     `json:"requirements"`
	Hand         []string   `json:"hand"`
	DiscardTop   string     `json:"discardTop,omitempty"`
	DrawCount    int        `json:"drawCount"`
	Melds        [][]string `json:"melds"` // committed melds, all seats
	HasLaidDown  bool       `json:"hasLaidDown"`
}

// TurnResponse is the bot's answer: where to draw from and which card to
// throw. Lay-down and layoff are always attempted automatically.
type TurnResponse struct {
	DrawSource string `json:"drawSource"` // "stock" | "discard"
	Discard    string `json:"discard"`    // compact notation
}

// BotDelegate plays one turn on behalf of an externally-delegated seat.
// Implementations must honor ctx cancellation; the room falls back to
// the built-in heuristic when the delegate errors or times out.
type BotDelegate interface {
	RequestTurn(ctx context.Context, req TurnRequest) (TurnResponse, error)
}

// Seat is one chair at the table. Kind and occupancy change over the
// room's life; the game engine only ever sees the seat index.
type Seat struct {
	Kind      SeatKind
	Name      string
	SessionID uuid.UUID // rotates on every (re)bind, stamps seat tokens
	Conn      Sender    // nil unless a human connection is bound
	Delegate  BotDelegate
}

// Occupied reports whether the seat counts toward starting the game.
func (s *Seat) Occupied() bool {
	return s.Kind == SeatAI || s.Kind == SeatBot || (s.Kind == SeatHuman && s.Conn != nil)
}

// Automated reports whether the room drives this seat's turns itself.
func (s *Seat) Automated() bool {
	return s.Kind == SeatAI || s.Kind == SeatBot
}
