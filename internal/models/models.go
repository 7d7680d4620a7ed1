package models

import (
	"database/sql"
	"time"
)

// Player represents a registered user. Only aggregate stats are stored;
// match and move history is deliberately not persisted.
type Player struct {
	ID               int            `db:"id" json:"id"`
	Handle           string         `db:"handle" json:"handle"`
	DisplayName      string         `db:"display_name" json:"display_name"`
	PINHash          sql.NullString `db:"pin_hash" json:"-"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	TotalGamesPlayed int            `db:"total_games_played" json:"total_games_played"`
	TotalGamesWon    int            `db:"total_games_won" json:"total_games_won"`
	IsActive         bool           `db:"is_active" json:"is_active"`
	LastActive       sql.NullTime   `db:"last_active" json:"last_active,omitempty"`
}
