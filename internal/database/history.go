// internal/database/history.go
//
// Round and game history. Writes happen off the room's message flow
// (the room fires its completion hooks on their own goroutine), so a
// slow or absent database never stalls a table.
package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Historian persists round and game outcomes.
type Historian struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// NewHistorian wraps a connected pool.
func NewHistorian(pool *pgxpool.Pool, log *logrus.Logger) *Historian {
	return &Historian{pool: pool, log: log}
}

// EnsureSchema creates the history tables if they do not exist.
func (h *Historian) EnsureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS games (
			id UUID PRIMARY KEY,
			room_code TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'in_progress',
			winner_name TEXT,
			completed_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS rounds (
			game_id UUID NOT NULL,
			round INT NOT NULL,
			winner_seat INT NOT NULL,
			winner_name TEXT NOT NULL,
			scores INT[] NOT NULL,
			totals INT[] NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (game_id, round)
		);
	`
	_, err := h.pool.Exec(ctx, ddl)
	return err
}

// RecordRound upserts one finished round under its game.
func (h *Historian) RecordRound(ctx context.Context, roomCode string, gameID uuid.UUID,
	round, winnerSeat int, winnerName string, scores, totals []int, completedAt time.Time) error {

	return pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, room_code)
			VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, upsertGame, gameID, roomCode); err != nil {
			return err
		}
		upsertRound := `
			INSERT INTO rounds (game_id, round, winner_seat, winner_name, scores, totals, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (game_id, round)
			DO UPDATE SET winner_seat=$3, winner_name=$4, scores=$5, totals=$6, completed_at=$7
		`
		_, err := tx.Exec(ctx, upsertRound, gameID, round, winnerSeat, winnerName, scores, totals, completedAt)
		return err
	})
}

// RecordGameResult marks a game completed with its overall winner.
func (h *Historian) RecordGameResult(ctx context.Context, gameID uuid.UUID, winnerName string, completedAt time.Time) error {
	q := `
		UPDATE games
		SET status = 'completed', winner_name = $2, completed_at = $3
		WHERE id = $1
	`
	_, err := h.pool.Exec(ctx, q, gameID, winnerName, completedAt)
	return err
}

// RoundHistory is one row of a game's round log.
type RoundHistory struct {
	Round      int       `json:"round"`
	WinnerSeat int       `json:"winnerSeat"`
	WinnerName string    `json:"winnerName"`
	Scores     []int     `json:"scores"`
	Totals     []int     `json:"totals"`
	Completed  time.Time `json:"completedAt"`
}

// GameRounds loads the round log for one game, oldest first.
func (h *Historian) GameRounds(ctx context.Context, gameID uuid.UUID) ([]RoundHistory, error) {
	rows, err := h.pool.Query(ctx, `
		SELECT round, winner_seat, winner_name, scores, totals, completed_at
		FROM rounds WHERE game_id = $1 ORDER BY round
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundHistory
	for rows.Next() {
		var r RoundHistory
		if err := rows.Scan(&r.Round, &r.WinnerSeat, &r.WinnerName, &r.Scores, &r.Totals, &r.Completed); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
