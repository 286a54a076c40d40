package models

// Stats aggregates an account's games and moves.
type Stats struct {
	TotalGames      int64   `json:"total_games"`
	CompletedGames  int64   `json:"completed_games"`
	TotalMoves      int64   `json:"total_moves"`
	AverageMoveTime float64 `json:"average_move_time"`
	WinsAsWhite     int64   `json:"wins_as_white"`
	WinsAsBlack     int64   `json:"wins_as_black"`
}
