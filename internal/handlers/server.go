// internal/handlers/server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chrummy/server/internal/cache"
	"github.com/chrummy/server/internal/config"
	"github.com/chrummy/server/internal/database"
	"github.com/chrummy/server/internal/room"
)

// Server bundles the room registry with its optional side services.
type Server struct {
	Rooms     *room.Manager
	Historian *database.Historian // nil when no database is configured
	Cache     *cache.Client       // nil when no redis is configured
	Log       *logrus.Logger
}

// NewServer wires the manager's hooks into the historian, leaderboard,
// and action journal when those are configured.
func NewServer(rooms *room.Manager, hist *database.Historian, cc *cache.Client, log *logrus.Logger) *Server {
	s := &Server{Rooms: rooms, Historian: hist, Cache: cc, Log: log}

	rooms.OnRoundComplete = func(rec room.RoundRecord) {
		if s.Historian == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.Historian.RecordRound(ctx, rec.RoomCode, rec.GameID,
			rec.Round, rec.WinnerSeat, rec.WinnerName, rec.Scores, rec.Totals, rec.CompletedAt)
		if err != nil {
			log.WithError(err).Warn("Failed to record round history")
		}
	}
	rooms.OnGameComplete = func(rec room.GameRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.Historian != nil {
			if err := s.Historian.RecordGameResult(ctx, rec.GameID, rec.WinnerName, rec.CompletedAt); err != nil {
				log.WithError(err).Warn("Failed to record game result")
			}
		}
		if s.Cache != nil {
			s.Cache.RecordWin(ctx, rec.WinnerName)
		}
	}
	rooms.OnAction = func(ev room.ActionEvent) {
		if s.Cache == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Cache.EnqueueAction(ctx, cache.ActionRecord{
			RoomCode: ev.RoomCode,
			GameID:   ev.GameID,
			Seat:     ev.Seat,
			Kind:     ev.Kind,
			Detail:   ev.Detail,
		})
	}
	return s
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", RoomWSHandler(s))
	mux.HandleFunc("/api/bot", BotWSHandler(s))
	mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/api/history", s.handleGameHistory)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"rooms":  s.Rooms.Count(),
	})
}

// handleLeaderboard serves the top winners. 503 when redis is absent.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.Cache == nil {
		http.Error(w, "leaderboard not configured", http.StatusServiceUnavailable)
		return
	}
	n := config.Int("LEADERBOARD_LIMIT", 10)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			n = parsed
		}
	}
	entries, err := s.Cache.Top(r.Context(), n)
	if err != nil {
		s.Log.WithError(err).Warn("Leaderboard query failed")
		http.Error(w, "leaderboard unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaders": entries})
}

// handleGameHistory serves the round log of one game by id. 503 when no
// database is configured.
func (s *Server) handleGameHistory(w http.ResponseWriter, r *http.Request) {
	if s.Historian == nil {
		http.Error(w, "history not configured", http.StatusServiceUnavailable)
		return
	}
	id, err := uuid.Parse(r.URL.Query().Get("game"))
	if err != nil {
		http.Error(w, "missing or malformed game id", http.StatusBadRequest)
		return
	}
	rounds, err := s.Historian.GameRounds(r.Context(), id)
	if err != nil {
		s.Log.WithError(err).Warn("History query failed")
		http.Error(w, "history unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"gameId": id, "rounds": rounds})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
