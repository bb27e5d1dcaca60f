// internal/room/manager.go
package room

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries the tunable timings for every room the manager makes.
type Config struct {
	AITurnDelay time.Duration // pause before an automated seat acts
	BotTimeout  time.Duration // external delegate response budget
	RoundPause  time.Duration // pause between scoring and the next deal
	IdleTTL     time.Duration // rooms untouched this long get reaped
}

// DefaultConfig mirrors the pacing of a live table.
func DefaultConfig() Config {
	return Config{
		AITurnDelay: 1200 * time.Millisecond,
		BotTimeout:  5 * time.Second,
		RoundPause:  6 * time.Second,
		IdleTTL:     30 * time.Minute,
	}
}

// Manager owns every live room, keyed by code. No ambient globals: all
// access goes through manager methods.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	rng   *rand.Rand
	cfg   Config
	log   *logrus.Logger

	// Hooks copied onto each new room.
	OnRoundComplete func(RoundRecord)
	OnGameComplete  func(GameRecord)
	OnAction        func(ActionEvent)
}

// NewManager creates an empty room registry.
func NewManager(cfg Config, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		rooms: make(map[string]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:   cfg,
		log:   log,
	}
}

// CreateRoom mints a room with a fresh unique code.
func (m *Manager) CreateRoom(capacity int) (*Room, error) {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return nil, fmt.Errorf("capacity must be %d-%d, got %d", MinCapacity, MaxCapacity, capacity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var code string
	for tries := 0; ; tries++ {
		code = newCode(m.rng)
		if _, taken := m.rooms[code]; !taken {
			break
		}
		if tries > 1000 {
			return nil, fmt.Errorf("room code space exhausted")
		}
	}
	r := newRoom(code, capacity, m.cfg, m.log)
	r.OnRoundComplete = m.OnRoundComplete
	r.OnGameComplete = m.OnGameComplete
	r.OnAction = m.OnAction
	m.rooms[code] = r
	m.log.WithFields(logrus.Fields{"room": code, "capacity": capacity}).Info("Room created")
	return r, nil
}

// Get looks up a room by (case-insensitive) code.
func (m *Manager) Get(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[NormalizeCode(code)]
	return r, ok
}

// Remove deletes a room from the registry.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, NormalizeCode(code))
}

// Count reports the number of live rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// StartCleanup reaps idle rooms on a ticker until ctx is cancelled.
func (m *Manager) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.reapIdle()
			}
		}
	}()
}

func (m *Manager) reapIdle() {
	cutoff := time.Now().Add(-m.cfg.IdleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range m.rooms {
		if r.IdleSince().Before(cutoff) {
			delete(m.rooms, code)
			m.log.WithFields(logrus.Fields{"room": code}).Info("Idle room reaped")
		}
	}
}
