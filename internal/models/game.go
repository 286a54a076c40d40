package models

import "time"

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	StatusActive    GameStatus = "active"
	StatusCompleted GameStatus = "completed"
	StatusAbandoned GameStatus = "abandoned"
	StatusSaved     GameStatus = "saved"
)

// PlayerColor identifies a side of the board.
type PlayerColor string

const (
	White PlayerColor = "white"
	Black PlayerColor = "black"
)

// Valid reports whether c is white or black.
func (c PlayerColor) Valid() bool {
	return c == White || c == Black
}

// Default clock settings for a new game, in seconds.
const (
	DefaultMainTime       = 600
	DefaultByoyomiTime    = 30
	DefaultByoyomiPeriods = 3
)

// Game is one timed game owned by an account. The ID is a random UUID string.
type Game struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	AccountID      uint         `gorm:"not null;index" json:"user_id"`
	Title          *string      `gorm:"size:200" json:"title"`
	Comment        *string      `gorm:"type:text" json:"comment"`
	MainTime       int          `gorm:"not null" json:"main_time"`
	ByoyomiTime    int          `gorm:"not null" json:"byoyomi_time"`
	ByoyomiPeriods int          `gorm:"not null" json:"byoyomi_periods"`
	Status         GameStatus   `gorm:"size:20;not null;default:'active';index" json:"status"`
	Winner         *PlayerColor `gorm:"size:10" json:"winner"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at"`
	SavedAt        *time.Time   `json:"saved_at"`

	// MoveCount is filled by queries that select it; it is never written.
	MoveCount int64 `gorm:"->;-:migration" json:"move_count"`
}
