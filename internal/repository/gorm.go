package repository

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"gotimer/backend/internal/models"
)

// GormRepository is the Postgres-backed Repository. The *gorm.DB must be
// opened with TranslateError enabled so constraint violations map to
// ErrDuplicate and ErrReference.
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository wraps an open gorm connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

// region --- Accounts ---

func (r *GormRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	return translate(r.db.WithContext(ctx).Create(account).Error)
}

func (r *GormRepository) AccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *GormRepository) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *GormRepository) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *GormRepository) UpdateAccount(ctx context.Context, account *models.Account) error {
	result := r.db.WithContext(ctx).Model(account).Updates(map[string]any{
		"username":      account.Username,
		"email":         account.Email,
		"password_hash": account.PasswordHash,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount removes the account row. Games and move records go with it
// through ON DELETE CASCADE.
// DeleteAccount removes the account. Its games and moves go with it through
// the foreign key cascades; moves other accounts recorded on its games are
// deleted first. Run it inside Transaction.
func (r *GormRepository) DeleteAccount(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	ownedGames := db.Model(&models.Game{}).Select("id").Where("account_id = ?", id)
	if err := db.Where("game_id IN (?)", ownedGames).Delete(&models.MoveRecord{}).Error; err != nil {
		return translate(err)
	}

	result := db.Delete(&models.Account{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// endregion

// region --- Games ---

func (r *GormRepository) CreateGame(ctx context.Context, game *models.Game) error {
	return translate(r.db.WithContext(ctx).Create(game).Error)
}

func (r *GormRepository) UpdateGame(ctx context.Context, game *models.Game) error {
	result := r.db.WithContext(ctx).Model(game).
		Select("title", "comment", "status", "winner", "completed_at", "saved_at").
		Updates(game)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) OwnedGame(ctx context.Context, accountID uint, gameID string) (*models.Game, error) {
	var game models.Game
	err := r.gamesWithMoveCount(ctx).
		Where("games.id = ? AND games.account_id = ?", gameID, accountID).
		Take(&game).Error
	if err != nil {
		return nil, translate(err)
	}
	return &game, nil
}

func (r *GormRepository) RecentGames(ctx context.Context, accountID uint, limit int) ([]models.Game, error) {
	games := []models.Game{}
	err := r.gamesWithMoveCount(ctx).
		Where("games.account_id = ?", accountID).
		Order("games.created_at DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, translate(err)
	}
	return games, nil
}

func (r *GormRepository) gamesWithMoveCount(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	moveCount := db.Model(&models.MoveRecord{}).
		Select("COUNT(*)").
		Where("move_records.game_id = games.id")
	return db.Model(&models.Game{}).Select("games.*, (?) AS move_count", moveCount)
}

// endregion

// region --- Moves ---

func (r *GormRepository) CreateMove(ctx context.Context, move *models.MoveRecord) error {
	return translate(r.db.WithContext(ctx).Create(move).Error)
}

func (r *GormRepository) Moves(ctx context.Context, accountID uint, gameID string) ([]models.MoveRecord, error) {
	moves := []models.MoveRecord{}
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND game_id = ?", accountID, gameID).
		Order("move_number ASC").
		Order("id ASC").
		Find(&moves).Error
	if err != nil {
		return nil, translate(err)
	}
	return moves, nil
}

// endregion

// region --- Stats ---

func (r *GormRepository) Stats(ctx context.Context, accountID uint) (models.Stats, error) {
	var stats models.Stats
	db := r.db.WithContext(ctx)

	games := func() *gorm.DB {
		return db.Model(&models.Game{}).Where("account_id = ?", accountID)
	}
	if err := games().Count(&stats.TotalGames).Error; err != nil {
		return stats, translate(err)
	}
	if err := games().Where("status = ?", models.StatusCompleted).Count(&stats.CompletedGames).Error; err != nil {
		return stats, translate(err)
	}
	if err := games().Where("winner = ?", models.White).Count(&stats.WinsAsWhite).Error; err != nil {
		return stats, translate(err)
	}
	if err := games().Where("winner = ?", models.Black).Count(&stats.WinsAsBlack).Error; err != nil {
		return stats, translate(err)
	}

	moves := db.Model(&models.MoveRecord{}).Where("account_id = ?", accountID)
	if err := moves.Count(&stats.TotalMoves).Error; err != nil {
		return stats, translate(err)
	}

	var avg sql.NullFloat64
	row := db.Model(&models.MoveRecord{}).
		Where("account_id = ?", accountID).
		Select("AVG(time_taken)").
		Row()
	if err := row.Scan(&avg); err != nil {
		return stats, translate(err)
	}
	if avg.Valid {
		stats.AverageMoveTime = avg.Float64
	}
	return stats, nil
}

// endregion

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors.Join(ErrReference, err)
	default:
		return err
	}
}
