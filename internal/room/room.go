// internal/room/room.go
//
// One Room owns one table: its seats, its (lazily created) Game, its
// buy negotiation, and the timers that drive automated seats. A single
// mutex serializes every inbound message and timer callback, so the
// Game is never mutated from two flows at once. Timer callbacks
// revalidate a generation counter after reacquiring the lock; any
// transition that could invalidate a scheduled turn bumps the counter
// first.
package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chrummy/server/internal/game"
)

// State is the room lifecycle state layered over the engine's phase.
type State string

const (
	StateWaiting   State = "waiting_for_players"
	StateActive    State = "active"
	StateRoundOver State = "round_over"
	StateGameOver  State = "game_over"
)

// MinCapacity and MaxCapacity bound table size at creation.
const (
	MinCapacity = 2
	MaxCapacity = 10
)

// buyCapacityFloor is the minimum table size for the buy mechanic.
const buyCapacityFloor = 3

// buyRequest pins a seat's claim to a specific physical discard; a
// mismatch at resolution time means the card is gone and the request
// silently dies.
type buyRequest struct {
	Seat int
	Cid  int
}

// RoundRecord summarizes a completed round for the historian.
type RoundRecord struct {
	RoomCode    string
	GameID      uuid.UUID
	Round       int
	WinnerSeat  int
	WinnerName  string
	Scores      []int
	Totals      []int
	CompletedAt time.Time
}

// ActionEvent describes one applied table action for the journal.
type ActionEvent struct {
	RoomCode string
	GameID   uuid.UUID
	Seat     int
	Kind     string
	Detail   string
}

// GameRecord summarizes a finished game for the leaderboard.
type GameRecord struct {
	RoomCode    string
	GameID      uuid.UUID
	WinnerSeat  int
	WinnerName  string
	Totals      []int
	Names       []string
	CompletedAt time.Time
}

// Room is one table. All exported methods lock; nothing escapes with
// the lock held except through the broadcast effect list.
type Room struct {
	Code     string
	Capacity int

	mu    sync.Mutex
	seats []*Seat
	g     *game.Game
	state State
	gen   int

	devMode       bool
	buyReqs       []buyRequest
	lastDiscarder int

	timer *time.Timer

	aiTurnDelay time.Duration
	botTimeout  time.Duration
	roundPause  time.Duration

	lastActive time.Time
	log        *logrus.Logger

	// OnRoundComplete, OnGameComplete, and OnAction fire outside the
	// lock, on their own goroutine, after the corresponding mutation.
	OnRoundComplete func(RoundRecord)
	OnGameComplete  func(GameRecord)
	OnAction        func(ActionEvent)
}

// emitActionLocked journals one applied action. Callers hold the lock.
func (r *Room) emitActionLocked(seat int, kind, detail string) {
	if r.OnAction == nil || r.g == nil {
		return
	}
	ev := ActionEvent{RoomCode: r.Code, GameID: r.g.ID, Seat: seat, Kind: kind, Detail: detail}
	go r.OnAction(ev)
}

func newRoom(code string, capacity int, cfg Config, log *logrus.Logger) *Room {
	seats := make([]*Seat, capacity)
	for i := range seats {
		seats[i] = &Seat{Kind: SeatEmpty}
	}
	return &Room{
		Code:          code,
		Capacity:      capacity,
		seats:         seats,
		state:         StateWaiting,
		lastDiscarder: -1,
		aiTurnDelay:   cfg.AITurnDelay,
		botTimeout:    cfg.BotTimeout,
		roundPause:    cfg.RoundPause,
		lastActive:    time.Now(),
		log:           log,
	}
}

// touch refreshes the idle-cleanup clock. Callers hold the lock.
func (r *Room) touch() {
	r.lastActive = time.Now()
}

// bumpGen invalidates any scheduled timer callback and stops the timer
// eagerly. Callers hold the lock.
func (r *Room) bumpGen() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// State returns the room lifecycle state.
func (r *Room) StateNow() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IdleSince reports the last activity timestamp.
func (r *Room) IdleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// occupiedCount counts seats that hold a human connection or an
// automated player. Callers hold the lock.
func (r *Room) occupiedCount() int {
	n := 0
	for _, s := range r.seats {
		if s.Occupied() {
			n++
		}
	}
	return n
}

// Join binds a connection to the first empty seat. Returns the seat
// index and the session id that seat tokens are stamped with.
func (r *Room) Join(name string, conn Sender) (int, uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()

	for i, s := range r.seats {
		if s.Kind != SeatEmpty {
			continue
		}
		s.Kind = SeatHuman
		s.Name = name
		s.Conn = conn
		s.SessionID = uuid.New()
		r.log.WithFields(logrus.Fields{"room": r.Code, "seat": i, "name": name}).Info("Player joined")
		r.maybeActivateLocked()
		r.broadcastStateLocked()
		return i, s.SessionID, nil
	}
	return -1, uuid.Nil, fmt.Errorf("room %s is full", r.Code)
}

// Rejoin rebinds a connection to a seat vacated by a disconnect, keyed
// by the session id from the seat token.
func (r *Room) Rejoin(seat int, sessionID uuid.UUID, conn Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()

	if seat < 0 || seat >= len(r.seats) {
		return fmt.Errorf("no such seat %d", seat)
	}
	s := r.seats[seat]
	if s.Kind != SeatHuman || s.SessionID != sessionID {
		return fmt.Errorf("seat %d is not yours to reclaim", seat)
	}
	if s.Conn != nil {
		s.Conn.Close("seat reclaimed from another connection")
	}
	s.Conn = conn
	r.log.WithFields(logrus.Fields{"room": r.Code, "seat": seat, "name": s.Name}).Info("Player reconnected")
	r.maybeActivateLocked()
	r.broadcastStateLocked()
	return nil
}

// Disconnect handles a dropped connection: the seat goes dark but keeps
// its identity so the session token can reclaim it, and the game state
// is preserved for resumption.
func (r *Room) Disconnect(seat int, conn Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()

	if seat < 0 || seat >= len(r.seats) {
		return
	}
	s := r.seats[seat]
	if s.Conn != conn {
		return // a newer connection already owns the seat
	}
	s.Conn = nil
	r.bumpGen()
	if r.state == StateActive || r.state == StateRoundOver {
		r.state = StateWaiting
	}
	r.log.WithFields(logrus.Fields{"room": r.Code, "seat": seat, "name": s.Name}).Info("Player disconnected")
	r.broadcastLocked(playerLeftMsg{Type: "player_left", Seat: seat})
	r.broadcastStateLocked()
}

// Leave vacates a seat for good; the session token dies with it.
func (r *Room) Leave(seat int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()

	if seat < 0 || seat >= len(r.seats) {
		return
	}
	s := r.seats[seat]
	if s.Conn != nil {
		s.Conn.Close("left room")
	}
	*s = Seat{Kind: SeatEmpty}
	r.bumpGen()
	if r.state == StateActive || r.state == StateRoundOver {
		r.state = StateWaiting
	}
	r.broadcastLocked(playerLeftMsg{Type: "player_left", Seat: seat})
	r.broadcastStateLocked()
}

// AddAI fills the next empty seat with an automated player. A nil
// delegate yields the built-in heuristic; otherwise turns are offered
// to the delegate with a timeout fallback.
func (r *Room) AddAI(name string, delegate BotDelegate) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()

	for i, s := range r.seats {
		if s.Kind != SeatEmpty {
			continue
		}
		kind := SeatAI
		if delegate != nil {
			kind = SeatBot
		}
		if name == "" {
			name = fmt.Sprintf("Bot %d", i+1)
		}
		*s = Seat{Kind: kind, Name: name, Delegate: delegate, SessionID: uuid.New()}
		r.log.WithFields(logrus.Fields{"room": r.Code, "seat": i, "kind": kind}).Info("AI seat filled")
		r.maybeActivateLocked()
		r.broadcastStateLocked()
		return i, nil
	}
	return -1, fmt.Errorf("room %s is full", r.Code)
}

// maybeActivateLocked starts (or resumes) play the instant every seat
// is occupied. The Game is constructed lazily on first activation.
func (r *Room) maybeActivateLocked() {
	if r.state != StateWaiting || r.occupiedCount() != r.Capacity {
		return
	}
	if r.g == nil {
		names := make([]string, len(r.seats))
		for i, s := range r.seats {
			names[i] = s.Name
		}
		g, err := game.New(names, r.log)
		if err != nil {
			r.log.WithError(err).Error("Failed to create game")
			return
		}
		r.g = g
	}
	// A disconnect during the between-rounds pause cancels the deal
	// timer; resuming has to deal the pending round itself.
	if r.g.Phase == game.PhaseRoundOver && !r.g.IsFinalRound() {
		if err := r.g.NextRound(); err != nil {
			r.log.WithError(err).Error("Failed to deal next round")
			return
		}
	}
	// Seat turnover while the game slept: a new joiner inherits the
	// departed player's hand, so the engine name follows the seat.
	for i, s := range r.seats {
		r.g.Players[i].Name = s.Name
	}
	r.state = StateActive
	r.bumpGen()
	r.scheduleAutomatedTurnLocked()
}

// SetDevMode toggles debug features (revealed hands, skip_round).
func (r *Room) SetDevMode(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devMode = enabled
	r.broadcastStateLocked()
}

// SkipRound jumps to the next round without scoring. Dev mode only.
func (r *Room) SkipRound(seat int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.devMode {
		return fmt.Errorf("skip_round requires dev mode")
	}
	if r.g == nil {
		return fmt.Errorf("no game in progress")
	}
	r.bumpGen()
	r.buyReqs = nil
	r.lastDiscarder = -1
	if err := r.g.NextRound(); err != nil {
		return err
	}
	r.state = StateActive
	r.broadcastStateLocked()
	r.scheduleAutomatedTurnLocked()
	return nil
}

// Restart throws away a finished game and deals a fresh one with the
// same seats.
func (r *Room) restartLocked() error {
	if r.state != StateGameOver {
		return fmt.Errorf("nothing to restart")
	}
	names := make([]string, len(r.seats))
	for i, s := range r.seats {
		names[i] = s.Name
	}
	g, err := game.New(names, r.log)
	if err != nil {
		return err
	}
	r.g = g
	r.buyReqs = nil
	r.lastDiscarder = -1
	r.state = StateActive
	r.bumpGen()
	r.broadcastStateLocked()
	r.scheduleAutomatedTurnLocked()
	return nil
}

// broadcastLocked sends one message to every connected seat.
func (r *Room) broadcastLocked(v interface{}) {
	for _, s := range r.seats {
		if s.Conn != nil {
			_ = s.Conn.Send(v)
		}
	}
}

// sendToSeatLocked sends one message to a single seat, if connected.
func (r *Room) sendToSeatLocked(seat int, v interface{}) {
	if seat < 0 || seat >= len(r.seats) {
		return
	}
	if conn := r.seats[seat].Conn; conn != nil {
		_ = conn.Send(v)
	}
}

// broadcastStateLocked pushes a per-seat asymmetric snapshot to every
// connected seat.
func (r *Room) broadcastStateLocked() {
	for i, s := range r.seats {
		if s.Conn != nil {
			_ = s.Conn.Send(r.snapshotLocked(i))
		}
	}
}

// finishRoundLocked scores the round, notifies the historian, and
// either ends the game or schedules the next deal.
func (r *Room) finishRoundLocked(winner int) {
	scores := r.g.ApplyRoundScores(winner)
	r.buyReqs = nil
	r.lastDiscarder = -1
	r.bumpGen()

	totals := make([]int, len(r.g.Players))
	names := make([]string, len(r.g.Players))
	for i, p := range r.g.Players {
		totals[i] = p.TotalScore
		names[i] = p.Name
	}
	if r.OnRoundComplete != nil {
		rec := RoundRecord{
			RoomCode:    r.Code,
			GameID:      r.g.ID,
			Round:       r.g.RoundIndex + 1,
			WinnerSeat:  winner,
			WinnerName:  r.g.Players[winner].Name,
			Scores:      scores,
			Totals:      totals,
			CompletedAt: time.Now(),
		}
		go r.OnRoundComplete(rec)
	}

	if r.g.IsFinalRound() {
		r.state = StateGameOver
		champ := winnerByTotal(totals)
		if r.OnGameComplete != nil {
			rec := GameRecord{
				RoomCode:    r.Code,
				GameID:      r.g.ID,
				WinnerSeat:  champ,
				WinnerName:  names[champ],
				Totals:      totals,
				Names:       names,
				CompletedAt: time.Now(),
			}
			go r.OnGameComplete(rec)
		}
		r.broadcastStateLocked()
		return
	}

	r.state = StateRoundOver
	r.broadcastStateLocked()

	gen := r.gen
	r.timer = time.AfterFunc(r.roundPause, func() {
		r.advanceRound(gen)
	})
}

// advanceRound is the round-pause timer callback.
func (r *Room) advanceRound(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen || r.state != StateRoundOver {
		return
	}
	if err := r.g.NextRound(); err != nil {
		r.log.WithError(err).Error("Failed to deal next round")
		return
	}
	r.state = StateActive
	r.bumpGen()
	r.broadcastStateLocked()
	r.scheduleAutomatedTurnLocked()
}

// winnerByTotal picks the lowest accumulated score.
func winnerByTotal(totals []int) int {
	champ := 0
	for i, t := range totals {
		if t < totals[champ] {
			champ = i
		}
	}
	return champ
}

// SeatView exposes seat occupancy for handlers without leaking the
// internals.
type SeatView struct {
	Kind      SeatKind
	Name      string
	Connected bool
}

// SeatsSnapshot copies the current seat occupancy.
func (r *Room) SeatsSnapshot() []SeatView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SeatView, len(r.seats))
	for i, s := range r.seats {
		out[i] = SeatView{Kind: s.Kind, Name: s.Name, Connected: s.Conn != nil}
	}
	return out
}
