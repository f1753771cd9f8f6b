package repository

import (
	"context"
	"fmt"

	"github.com/coupfree/coup-server-go/internal/game"
)

const matchResultsSchema = `
CREATE TABLE IF NOT EXISTS match_results (
    id           BIGSERIAL PRIMARY KEY,
    room_code    TEXT NOT NULL,
    winner_id    TEXT,
    winner_name  TEXT,
    player_count INT NOT NULL,
    finished_at  TIMESTAMPTZ NOT NULL
)`

// MatchResultRepository archives finished matches. It implements
// game.ResultRecorder.
type MatchResultRepository struct {
	db *DB
}

// NewMatchResultRepository creates the repository and ensures its table
// exists.
func NewMatchResultRepository(ctx context.Context, db *DB) (*MatchResultRepository, error) {
	if _, err := db.pool.Exec(ctx, matchResultsSchema); err != nil {
		return nil, fmt.Errorf("ensuring match_results table: %w", err)
	}
	return &MatchResultRepository{db: db}, nil
}

// RecordResult inserts one finished-match row.
func (r *MatchResultRepository) RecordResult(ctx context.Context, result game.MatchResult) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO match_results (room_code, winner_id, winner_name, player_count, finished_at)
         VALUES ($1, $2, $3, $4, $5)`,
		result.RoomCode,
		result.WinnerID,
		result.WinnerName,
		result.PlayerCount,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting match result: %w", err)
	}
	return nil
}
