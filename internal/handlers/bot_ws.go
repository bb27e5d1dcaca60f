// internal/handlers/bot_ws.go
//
// External AI delegate endpoint. A bot process connects, names a room,
// and is seated as a delegated player: each of its turns arrives as a
// turn_request and must come back as a turn_response before the room's
// bot timeout, else the built-in heuristic plays that turn.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/chrummy/server/internal/middleware"
	"github.com/chrummy/server/internal/room"
)

// botMessage is the inbound envelope on the bot socket.
type botMessage struct {
	Type string `json:"type"`
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`

	// turn_response fields
	DrawSource string `json:"drawSource,omitempty"`
	Discard    string `json:"discard,omitempty"`
}

// wsBotDelegate bridges room turn offers onto the bot's websocket. One
// turn is in flight at a time; the response (or the room's timeout)
// releases it.
type wsBotDelegate struct {
	client *wsClient

	mu      sync.Mutex
	pending chan room.TurnResponse
}

func newWSBotDelegate(client *wsClient) *wsBotDelegate {
	return &wsBotDelegate{client: client}
}

// RequestTurn implements room.BotDelegate.
func (d *wsBotDelegate) RequestTurn(ctx context.Context, req room.TurnRequest) (room.TurnResponse, error) {
	d.mu.Lock()
	if d.pending != nil {
		d.mu.Unlock()
		return room.TurnResponse{}, fmt.Errorf("a turn is already in flight")
	}
	ch := make(chan room.TurnResponse, 1)
	d.pending = ch
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.pending = nil
		d.mu.Unlock()
	}()

	if err := d.client.Send(req); err != nil {
		return room.TurnResponse{}, err
	}
	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return room.TurnResponse{}, ctx.Err()
	}
}

// deliver routes an inbound turn_response to the waiting turn, if any.
func (d *wsBotDelegate) deliver(resp room.TurnResponse) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return // stale answer; the turn already fell back
	}
	select {
	case d.pending <- resp:
	default:
	}
}

// BotWSHandler upgrades the bot connection and runs its read loop.
func BotWSHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"chrummy-bot"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.Log.WithError(err).Warn("Bot WebSocket accept error")
			return
		}
		middleware.LogWebSocketConnect(s.Log, r.RemoteAddr, r.URL.Path)

		client := newWSClient(c, s.Log)
		ctx := r.Context()
		go client.writePump(ctx)

		delegate := newWSBotDelegate(client)
		var seatedRoom *room.Room
		seat := -1
		defer func() {
			if seatedRoom != nil && seat >= 0 {
				seatedRoom.Leave(seat)
			}
			client.Close("bot session ended")
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
			var msg botMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				client.sendError("malformed message")
				continue
			}

			switch msg.Type {
			case "register_bot":
				if seatedRoom != nil {
					client.sendError("bot already seated")
					continue
				}
				rm, ok := s.Rooms.Get(msg.Code)
				if !ok {
					client.sendError("no such room " + room.NormalizeCode(msg.Code))
					continue
				}
				name := msg.Name
				if name == "" {
					name = "External Bot"
				}
				idx, err := rm.AddAI(name, delegate)
				if err != nil {
					client.sendError(err.Error())
					continue
				}
				seatedRoom, seat = rm, idx
				_ = client.Send(map[string]interface{}{
					"type":      "bot_registered",
					"code":      rm.Code,
					"seatIndex": idx,
				})
			case "turn_response":
				delegate.deliver(room.TurnResponse{
					DrawSource: msg.DrawSource,
					Discard:    msg.Discard,
				})
			default:
				client.sendError("unknown message type " + msg.Type)
			}
		}
	}
}
