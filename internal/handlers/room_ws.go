// internal/handlers/room_ws.go
//
// Player-facing websocket endpoint. One connection holds at most one
// seat; the envelope's type field selects room management or in-game
// actions. All state mutation happens inside room methods — this layer
// only parses, routes, and reports errors.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/chrummy/server/internal/auth"
	"github.com/chrummy/server/internal/middleware"
	"github.com/chrummy/server/internal/room"
)

// clientMessage is the inbound envelope for the player protocol.
type clientMessage struct {
	Type     string       `json:"type"`
	Name     string       `json:"name,omitempty"`
	Capacity int          `json:"capacity,omitempty"`
	Code     string       `json:"code,omitempty"`
	Token    string       `json:"token,omitempty"`
	Kind     string       `json:"kind,omitempty"`    // add_ai
	Enabled  bool         `json:"enabled,omitempty"` // set_dev_mode
	Action   *room.Action `json:"action,omitempty"`
}

// RoomWSHandler upgrades to websocket and runs the player read loop.
func RoomWSHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"chrummy"},
			OriginPatterns: []string{"*"}, // tighten for production
		})
		if err != nil {
			s.Log.WithError(err).Warn("WebSocket accept error")
			return
		}
		middleware.LogWebSocketConnect(s.Log, r.RemoteAddr, r.URL.Path)

		client := newWSClient(c, s.Log)
		ctx := r.Context()
		go client.writePump(ctx)

		sess := &playerSession{server: s, client: client, seat: -1}
		defer func() {
			sess.detach()
			client.Close("session ended")
			middleware.LogWebSocketDisconnect(s.Log, r.RemoteAddr, r.URL.Path, nil)
		}()

		for {
			typ, data, err := c.Read(ctx)
			if err != nil {
				return
			}
			if typ != websocket.MessageText {
				continue
			}
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				client.sendError("malformed message")
				continue
			}
			sess.handle(msg)
		}
	}
}

// playerSession tracks which seat this connection holds.
type playerSession struct {
	server *Server
	client *wsClient
	room   *room.Room
	seat   int
}

// detach reports the connection loss to the room, if seated.
func (s *playerSession) detach() {
	if s.room != nil && s.seat >= 0 {
		s.room.Disconnect(s.seat, s.client)
	}
	s.room = nil
	s.seat = -1
}

func (s *playerSession) handle(msg clientMessage) {
	switch msg.Type {
	case "create_room":
		s.handleCreate(msg)
	case "join_room":
		s.handleJoin(msg)
	case "rejoin_room":
		s.handleRejoin(msg)
	case "leave_room":
		if s.room != nil && s.seat >= 0 {
			s.room.Leave(s.seat)
			s.room = nil
			s.seat = -1
		}
	case "add_ai":
		s.handleAddAI(msg)
	case "action":
		if !s.seated() {
			return
		}
		if msg.Action == nil {
			s.client.sendError("action message missing action body")
			return
		}
		if err := s.room.HandleAction(s.seat, *msg.Action); err != nil {
			s.client.sendError(err.Error())
		}
	case "buy":
		if !s.seated() {
			return
		}
		if err := s.room.HandleBuy(s.seat); err != nil {
			s.client.sendError(err.Error())
		}
	case "set_dev_mode":
		if !s.seated() {
			return
		}
		s.room.SetDevMode(msg.Enabled)
	case "skip_round":
		if !s.seated() {
			return
		}
		if err := s.room.SkipRound(s.seat); err != nil {
			s.client.sendError(err.Error())
		}
	case "ping":
		_ = s.client.Send(map[string]interface{}{"type": "pong"})
	default:
		s.client.sendError("unknown message type " + msg.Type)
	}
}

func (s *playerSession) seated() bool {
	if s.room == nil || s.seat < 0 {
		s.client.sendError("join a room first")
		return false
	}
	return true
}

func (s *playerSession) handleCreate(msg clientMessage) {
	if s.room != nil {
		s.client.sendError("already in a room")
		return
	}
	r, err := s.server.Rooms.CreateRoom(msg.Capacity)
	if err != nil {
		s.client.sendError(err.Error())
		return
	}
	seat, session, err := r.Join(playerName(msg.Name), s.client)
	if err != nil {
		s.client.sendError(err.Error())
		return
	}
	s.room, s.seat = r, seat
	s.sendWelcome("room_created", r.Code, seat, session)
}

func (s *playerSession) handleJoin(msg clientMessage) {
	if s.room != nil {
		s.client.sendError("already in a room")
		return
	}
	r, ok := s.server.Rooms.Get(msg.Code)
	if !ok {
		s.client.sendError("no such room " + room.NormalizeCode(msg.Code))
		return
	}
	seat, session, err := r.Join(playerName(msg.Name), s.client)
	if err != nil {
		s.client.sendError(err.Error())
		return
	}
	s.room, s.seat = r, seat
	s.sendWelcome("room_joined", r.Code, seat, session)
}

func (s *playerSession) handleRejoin(msg clientMessage) {
	if s.room != nil {
		s.client.sendError("already in a room")
		return
	}
	claims, err := auth.VerifySeatToken(msg.Token)
	if err != nil {
		s.client.sendError("invalid seat token")
		return
	}
	r, ok := s.server.Rooms.Get(claims.RoomCode)
	if !ok {
		s.client.sendError("room " + claims.RoomCode + " is gone")
		return
	}
	if err := r.Rejoin(claims.Seat, claims.SessionID, s.client); err != nil {
		s.client.sendError(err.Error())
		return
	}
	s.room, s.seat = r, claims.Seat
	s.sendWelcome("room_joined", r.Code, claims.Seat, claims.SessionID)
}

func (s *playerSession) handleAddAI(msg clientMessage) {
	if !s.seated() {
		return
	}
	switch msg.Kind {
	case "", "builtin":
		if _, err := s.room.AddAI(msg.Name, nil); err != nil {
			s.client.sendError(err.Error())
		}
	case "external":
		s.client.sendError("external bots register themselves on /api/bot")
	default:
		s.client.sendError("unknown ai kind " + msg.Kind)
	}
}

// sendWelcome issues the seat token alongside the room/seat assignment.
func (s *playerSession) sendWelcome(typ, code string, seat int, session uuid.UUID) {
	token, err := auth.CreateSeatToken(auth.SeatClaims{RoomCode: code, Seat: seat, SessionID: session})
	if err != nil {
		s.server.Log.WithError(err).Error("Failed to sign seat token")
	}
	_ = s.client.Send(map[string]interface{}{
		"type":      typ,
		"code":      code,
		"seatIndex": seat,
		"token":     token,
	})
}

func playerName(name string) string {
	if name == "" {
		return "Player"
	}
	return name
}
