// Package repository persists accounts, games and move records.
package repository

import (
	"context"
	"errors"

	"gotimer/backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReference is returned when a foreign key points at a missing row.
	ErrReference = errors.New("referenced record does not exist")
)

// Repository is the storage used by the services. Every query that touches
// games or moves is scoped by the owning account.
type Repository interface {
	// Transaction runs fn against a transactional repository. The transaction
	// commits if fn returns nil and rolls back otherwise, including on panic.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	CreateAccount(ctx context.Context, account *models.Account) error
	AccountByID(ctx context.Context, id uint) (*models.Account, error)
	AccountByUsername(ctx context.Context, username string) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, id uint) error

	CreateGame(ctx context.Context, game *models.Game) error
	UpdateGame(ctx context.Context, game *models.Game) error
	// OwnedGame returns the game with MoveCount populated.
	OwnedGame(ctx context.Context, accountID uint, gameID string) (*models.Game, error)
	// RecentGames returns up to limit games, newest first, with MoveCount populated.
	RecentGames(ctx context.Context, accountID uint, limit int) ([]models.Game, error)

	CreateMove(ctx context.Context, move *models.MoveRecord) error
	// Moves returns the account's moves for a game ordered by move number.
	Moves(ctx context.Context, accountID uint, gameID string) ([]models.MoveRecord, error)

	// Stats returns raw aggregates. AverageMoveTime is not rounded.
	Stats(ctx context.Context, accountID uint) (models.Stats, error)
}
