package models

import "time"

// MoveRecord is one entry of the append-only per-move timing log.
// MoveNumber is supplied by the client and is neither unique nor contiguous.
// GameID is not a foreign key: clients record moves under ids of games that
// may never be stored.
type MoveRecord struct {
	ID                      uint        `gorm:"primaryKey" json:"id"`
	AccountID               uint        `gorm:"not null;index:idx_move_owner_game,priority:1" json:"user_id"`
	GameID                  string      `gorm:"size:36;not null;index:idx_move_owner_game,priority:2;index:idx_move_records_game_id" json:"game_id"`
	MoveNumber              int         `gorm:"not null" json:"move_number"`
	PlayerColor             PlayerColor `gorm:"size:10;not null" json:"player_color"`
	TimeTaken               int         `gorm:"not null" json:"time_taken"`
	MainTimeRemaining       int         `gorm:"not null" json:"main_time_remaining"`
	ByoyomiTimeRemaining    int         `gorm:"not null" json:"byoyomi_time_remaining"`
	ByoyomiPeriodsRemaining int         `gorm:"not null" json:"byoyomi_periods_remaining"`
	InByoyomi               bool        `gorm:"not null" json:"in_byoyomi"`
	CreatedAt               time.Time   `json:"created_at"`
}
