package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MatchResult summarizes a finished match for the optional archive.
type MatchResult struct {
	RoomCode    string
	WinnerID    string
	WinnerName  string
	PlayerCount int
	FinishedAt  time.Time
}

// ResultRecorder archives finished matches. Live match state is never
// persisted; matches are ephemeral by design.
type ResultRecorder interface {
	RecordResult(ctx context.Context, result MatchResult) error
}

// Manager is the process-wide registry mapping room codes to live matches.
// It owns nothing of the match lifecycle beyond insertion and removal.
type Manager struct {
	mu       sync.RWMutex
	matches  map[string]*Match
	logger   *zap.Logger
	sched    Scheduler
	recorder ResultRecorder
}

// NewManager creates a match registry.
func NewManager(sched Scheduler, logger *zap.Logger) *Manager {
	return &Manager{
		matches: make(map[string]*Match),
		logger:  logger,
		sched:   sched,
	}
}

// SetResultRecorder wires the optional finished-match archive into every
// match created afterwards.
func (m *Manager) SetResultRecorder(r ResultRecorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorder = r
}

// CreateMatch registers a new match under the given room code.
func (m *Manager) CreateMatch(roomCode string, seats []Seat, sink Sink) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.matches[roomCode]; exists {
		return nil, fmt.Errorf("match already active for room %s", roomCode)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	match, err := NewMatch(roomCode, seats, sink, m.sched, rng, m.logger)
	if err != nil {
		return nil, err
	}
	if m.recorder != nil {
		match.SetResultRecorder(m.recorder)
	}
	m.matches[roomCode] = match

	m.logger.Info("match registered",
		zap.String("room_code", roomCode),
		zap.Int("players", len(seats)),
	)
	return match, nil
}

// GetMatch retrieves a match by room code.
func (m *Manager) GetMatch(roomCode string) (*Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[roomCode]
	return match, ok
}

// RemoveMatch tears down and unregisters a match.
func (m *Manager) RemoveMatch(roomCode string) {
	m.mu.Lock()
	match, ok := m.matches[roomCode]
	delete(m.matches, roomCode)
	m.mu.Unlock()

	if ok {
		match.Teardown()
		m.logger.Info("match removed", zap.String("room_code", roomCode))
	}
}

// ActiveCount returns the number of registered matches.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}
