package service

import (
	"context"
	"errors"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"

	"gotimer/backend/internal/apperr"
	"gotimer/backend/internal/models"
	"gotimer/backend/internal/repository"
	"gotimer/backend/internal/session"
)

// RecentGamesLimit caps ListGames.
const RecentGamesLimit = 20

// MaxGameIDLength is the width of the game id columns.
const MaxGameIDLength = 36

const msgGameNotFound = "Game not found"

// ClockSettings are the time control of a game in seconds. Nil fields take
// the defaults.
type ClockSettings struct {
	MainTime       *int
	ByoyomiTime    *int
	ByoyomiPeriods *int
}

func (c ClockSettings) resolve() (main, byoyomi, periods int, err error) {
	main = valueOr(c.MainTime, models.DefaultMainTime)
	byoyomi = valueOr(c.ByoyomiTime, models.DefaultByoyomiTime)
	periods = valueOr(c.ByoyomiPeriods, models.DefaultByoyomiPeriods)
	if main < 0 || byoyomi < 0 || periods < 0 {
		return 0, 0, 0, apperr.Validation("Clock settings must not be negative")
	}
	if outOfRange(main) || outOfRange(byoyomi) || outOfRange(periods) {
		return 0, 0, 0, apperr.Validation("Clock settings are out of range")
	}
	return main, byoyomi, periods, nil
}

// outOfRange reports whether v does not fit the 32-bit integer columns.
func outOfRange(v int) bool {
	return v > math.MaxInt32 || v < math.MinInt32
}

func checkGameID(id string) error {
	if utf8.RuneCountInString(id) > MaxGameIDLength {
		return apperr.Validation("Game id must be at most 36 characters")
	}
	return nil
}

// SaveGameInput is the payload of SaveGame.
type SaveGameInput struct {
	GameID   *string
	Title    *string
	Comment  *string
	Settings ClockSettings
}

// GameDetails is a game with its ordered move log.
type GameDetails struct {
	models.Game
	Moves []models.MoveRecord `json:"moves"`
}

// GameService manages the game lifecycle.
type GameService struct {
	repo repository.Repository
	now  Clock
}

// NewGameService creates a new GameService instance.
func NewGameService(repo repository.Repository) *GameService {
	return &GameService{repo: repo, now: utcNow}
}

// CreateGame returns a new game id. The game is stored only for registered
// sessions; guests keep their games client side.
func (s *GameService) CreateGame(ctx context.Context, sess *session.Session, settings ClockSettings) (string, error) {
	if err := requireSession(sess); err != nil {
		return "", err
	}
	gameID := uuid.NewString()
	reg, ok := sess.Registered()
	if !ok {
		return gameID, nil
	}
	main, byoyomi, periods, err := settings.resolve()
	if err != nil {
		return "", err
	}

	game := &models.Game{
		ID:             gameID,
		AccountID:      reg.AccountID,
		MainTime:       main,
		ByoyomiTime:    byoyomi,
		ByoyomiPeriods: periods,
		Status:         models.StatusActive,
		CreatedAt:      s.now(),
	}
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		return tx.CreateGame(ctx, game)
	})
	if errors.Is(err, repository.ErrReference) {
		return "", apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return "", internal("Failed to create game", err)
	}
	return gameID, nil
}

// CompleteGame marks an owned game completed with the given winner, nil
// meaning a draw. persisted is false for guests, whose call is a no-op.
func (s *GameService) CompleteGame(ctx context.Context, sess *session.Session, gameID string, winner *models.PlayerColor) (persisted bool, err error) {
	if err := requireSession(sess); err != nil {
		return false, err
	}
	reg, ok := sess.Registered()
	if !ok {
		return false, nil
	}
	if winner != nil && !winner.Valid() {
		return false, apperr.Validation("Winner must be white, black or null")
	}

	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		game, err := tx.OwnedGame(ctx, reg.AccountID, gameID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgGameNotFound)
		}
		if err != nil {
			return err
		}

		now := s.now()
		game.Status = models.StatusCompleted
		game.Winner = winner
		game.CompletedAt = &now
		return tx.UpdateGame(ctx, game)
	})
	if err != nil {
		return false, internal("Failed to complete game", err)
	}
	return true, nil
}

// SaveGame creates or updates a saved game and returns its id. The client's
// game id is kept as is; a missing or empty one, or one owned by another
// account, yields a new id.
// persisted is false for guests, whose call is a no-op.
func (s *GameService) SaveGame(ctx context.Context, sess *session.Session, in SaveGameInput) (gameID string, persisted bool, err error) {
	if err := requireSession(sess); err != nil {
		return "", false, err
	}
	gameID = requestedGameID(in.GameID)
	reg, ok := sess.Registered()
	if !ok {
		return gameID, false, nil
	}
	if in.Title == nil || *in.Title == "" {
		return "", false, apperr.Validation("Game title is required")
	}
	if err := checkGameID(gameID); err != nil {
		return "", false, err
	}
	main, byoyomi, periods, err := in.Settings.resolve()
	if err != nil {
		return "", false, err
	}

	save := func(id string) error {
		return s.repo.Transaction(ctx, func(tx repository.Repository) error {
			now := s.now()
			comment := valueOr(in.Comment, "")
			title := *in.Title

			game, err := tx.OwnedGame(ctx, reg.AccountID, id)
			if errors.Is(err, repository.ErrNotFound) {
				return tx.CreateGame(ctx, &models.Game{
					ID:             id,
					AccountID:      reg.AccountID,
					Title:          &title,
					Comment:        &comment,
					MainTime:       main,
					ByoyomiTime:    byoyomi,
					ByoyomiPeriods: periods,
					Status:         models.StatusSaved,
					CreatedAt:      now,
					SavedAt:        &now,
				})
			}
			if err != nil {
				return err
			}

			game.Title = &title
			game.Comment = &comment
			game.Status = models.StatusSaved
			game.SavedAt = &now
			return tx.UpdateGame(ctx, game)
		})
	}

	err = save(gameID)
	if errors.Is(err, repository.ErrDuplicate) {
		// The id belongs to another account.
		gameID = uuid.NewString()
		err = save(gameID)
	}
	if errors.Is(err, repository.ErrReference) {
		return "", false, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return "", false, internal("Failed to save game", err)
	}
	return gameID, true, nil
}

// ListGames returns the caller's most recent games, newest first. Guests get
// an empty list.
func (s *GameService) ListGames(ctx context.Context, sess *session.Session) ([]models.Game, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	reg, ok := sess.Registered()
	if !ok {
		return []models.Game{}, nil
	}
	games, err := s.repo.RecentGames(ctx, reg.AccountID, RecentGamesLimit)
	if err != nil {
		return nil, internal("Failed to get games", err)
	}
	return games, nil
}

// GetGameDetails returns an owned game with its moves. Guests get nil.
func (s *GameService) GetGameDetails(ctx context.Context, sess *session.Session, gameID string) (*GameDetails, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	reg, ok := sess.Registered()
	if !ok {
		return nil, nil
	}

	game, err := s.repo.OwnedGame(ctx, reg.AccountID, gameID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(msgGameNotFound)
	}
	if err != nil {
		return nil, internal("Failed to get game details", err)
	}
	moves, err := s.repo.Moves(ctx, reg.AccountID, gameID)
	if err != nil {
		return nil, internal("Failed to get game details", err)
	}
	return &GameDetails{Game: *game, Moves: moves}, nil
}

func requestedGameID(id *string) string {
	if id != nil && *id != "" {
		return *id
	}
	return uuid.NewString()
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
