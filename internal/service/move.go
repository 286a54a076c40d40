package service

import (
	"context"
	"errors"

	"gotimer/backend/internal/apperr"
	"gotimer/backend/internal/models"
	"gotimer/backend/internal/repository"
	"gotimer/backend/internal/session"
)

// MoveInput is one entry of the move log. MoveNumber, PlayerColor and
// TimeTaken are required.
type MoveInput struct {
	MoveNumber              *int
	PlayerColor             *models.PlayerColor
	TimeTaken               *int
	MainTimeRemaining       int
	ByoyomiTimeRemaining    int
	ByoyomiPeriodsRemaining int
	InByoyomi               bool
}

// MoveService appends to and reads the per-move timing log.
type MoveService struct {
	repo repository.Repository
	now  Clock
}

// NewMoveService creates a new MoveService instance.
func NewMoveService(repo repository.Repository) *MoveService {
	return &MoveService{repo: repo, now: utcNow}
}

// SaveMove appends a move for the caller. Neither the game's existence nor
// its owner is checked. persisted is false for guests.
func (s *MoveService) SaveMove(ctx context.Context, sess *session.Session, gameID string, in MoveInput) (persisted bool, err error) {
	if err := requireSession(sess); err != nil {
		return false, err
	}
	reg, ok := sess.Registered()
	if !ok {
		return false, nil
	}
	if in.MoveNumber == nil || in.PlayerColor == nil || in.TimeTaken == nil {
		return false, apperr.Validation("Missing required move data")
	}
	if !in.PlayerColor.Valid() {
		return false, apperr.Validation("Player color must be white or black")
	}
	if *in.TimeTaken < 0 {
		return false, apperr.Validation("Time taken must not be negative")
	}
	if err := checkGameID(gameID); err != nil {
		return false, err
	}
	for _, v := range []int{*in.MoveNumber, *in.TimeTaken, in.MainTimeRemaining, in.ByoyomiTimeRemaining, in.ByoyomiPeriodsRemaining} {
		if outOfRange(v) {
			return false, apperr.Validation("Move data is out of range")
		}
	}

	move := &models.MoveRecord{
		AccountID:               reg.AccountID,
		GameID:                  gameID,
		MoveNumber:              *in.MoveNumber,
		PlayerColor:             *in.PlayerColor,
		TimeTaken:               *in.TimeTaken,
		MainTimeRemaining:       in.MainTimeRemaining,
		ByoyomiTimeRemaining:    in.ByoyomiTimeRemaining,
		ByoyomiPeriodsRemaining: in.ByoyomiPeriodsRemaining,
		InByoyomi:               in.InByoyomi,
		CreatedAt:               s.now(),
	}
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		return tx.CreateMove(ctx, move)
	})
	if errors.Is(err, repository.ErrReference) {
		return false, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return false, internal("Failed to save move", err)
	}
	return true, nil
}

// ListMoves returns the caller's moves for a game ordered by move number.
// Guests get an empty list.
func (s *MoveService) ListMoves(ctx context.Context, sess *session.Session, gameID string) ([]models.MoveRecord, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	reg, ok := sess.Registered()
	if !ok {
		return []models.MoveRecord{}, nil
	}
	moves, err := s.repo.Moves(ctx, reg.AccountID, gameID)
	if err != nil {
		return nil, internal("Failed to get moves", err)
	}
	return moves, nil
}
