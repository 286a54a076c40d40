package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"gotimer/backend/internal/models"
)

// MemoryRepository keeps everything in process memory. It is selected when no
// DATABASE_URL is configured and backs the service tests. It enforces the
// same unique and foreign key rules as the Postgres schema.
type MemoryRepository struct {
	// mu is nil for a repository handed to a transaction callback; the
	// outermost repository already holds the lock.
	mu   *sync.Mutex
	data *memoryData
}

var _ Repository = (*MemoryRepository)(nil)

type memoryData struct {
	accounts      map[uint]models.Account
	games         map[string]models.Game
	gameOrder     []string
	moves         []models.MoveRecord
	nextAccountID uint
	nextMoveID    uint
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		mu: &sync.Mutex{},
		data: &memoryData{
			accounts:      make(map[uint]models.Account),
			games:         make(map[string]models.Game),
			nextAccountID: 1,
			nextMoveID:    1,
		},
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		accounts:      make(map[uint]models.Account, len(d.accounts)),
		games:         make(map[string]models.Game, len(d.games)),
		gameOrder:     append([]string(nil), d.gameOrder...),
		moves:         append([]models.MoveRecord(nil), d.moves...),
		nextAccountID: d.nextAccountID,
		nextMoveID:    d.nextMoveID,
	}
	for id, a := range d.accounts {
		c.accounts[id] = a
	}
	for id, g := range d.games {
		c.games[id] = g
	}
	return c
}

func (r *MemoryRepository) lock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *MemoryRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	defer r.lock()()

	snapshot := r.data.clone()
	if err := fn(&MemoryRepository{data: snapshot}); err != nil {
		return err
	}
	*r.data = *snapshot
	return nil
}

// region --- Accounts ---

func (r *MemoryRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	defer r.lock()()

	for _, existing := range r.data.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return ErrDuplicate
		}
	}
	account.ID = r.data.nextAccountID
	r.data.nextAccountID++
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	stored := *account
	stored.Games, stored.Moves = nil, nil
	r.data.accounts[account.ID] = stored
	return nil
}

func (r *MemoryRepository) AccountByID(ctx context.Context, id uint) (*models.Account, error) {
	defer r.lock()()

	account, ok := r.data.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

func (r *MemoryRepository) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	defer r.lock()()

	for _, account := range r.data.accounts {
		if account.Username == username {
			return &account, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	defer r.lock()()

	for _, account := range r.data.accounts {
		if account.Email == email {
			return &account, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) UpdateAccount(ctx context.Context, account *models.Account) error {
	defer r.lock()()

	stored, ok := r.data.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range r.data.accounts {
		if id == account.ID {
			continue
		}
		if other.Username == account.Username || other.Email == account.Email {
			return ErrDuplicate
		}
	}
	stored.Username = account.Username
	stored.Email = account.Email
	stored.PasswordHash = account.PasswordHash
	r.data.accounts[account.ID] = stored
	return nil
}

func (r *MemoryRepository) DeleteAccount(ctx context.Context, id uint) error {
	defer r.lock()()

	if _, ok := r.data.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(r.data.accounts, id)

	removed := make(map[string]bool)
	order := r.data.gameOrder[:0]
	for _, gameID := range r.data.gameOrder {
		if r.data.games[gameID].AccountID == id {
			removed[gameID] = true
			delete(r.data.games, gameID)
			continue
		}
		order = append(order, gameID)
	}
	r.data.gameOrder = order

	moves := r.data.moves[:0]
	for _, m := range r.data.moves {
		if m.AccountID == id || removed[m.GameID] {
			continue
		}
		moves = append(moves, m)
	}
	r.data.moves = moves
	return nil
}

// endregion

// region --- Games ---

func (r *MemoryRepository) CreateGame(ctx context.Context, game *models.Game) error {
	defer r.lock()()

	if _, ok := r.data.accounts[game.AccountID]; !ok {
		return ErrReference
	}
	if _, ok := r.data.games[game.ID]; ok {
		return ErrDuplicate
	}
	if game.CreatedAt.IsZero() {
		game.CreatedAt = time.Now().UTC()
	}
	if game.Status == "" {
		game.Status = models.StatusActive
	}
	stored := *game
	stored.MoveCount = 0
	r.data.games[game.ID] = stored
	r.data.gameOrder = append(r.data.gameOrder, game.ID)
	return nil
}

func (r *MemoryRepository) UpdateGame(ctx context.Context, game *models.Game) error {
	defer r.lock()()

	stored, ok := r.data.games[game.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = game.Title
	stored.Comment = game.Comment
	stored.Status = game.Status
	stored.Winner = game.Winner
	stored.CompletedAt = game.CompletedAt
	stored.SavedAt = game.SavedAt
	r.data.games[game.ID] = stored
	return nil
}

func (r *MemoryRepository) OwnedGame(ctx context.Context, accountID uint, gameID string) (*models.Game, error) {
	defer r.lock()()

	game, ok := r.data.games[gameID]
	if !ok || game.AccountID != accountID {
		return nil, ErrNotFound
	}
	game.MoveCount = r.data.moveCount(gameID)
	return &game, nil
}

func (r *MemoryRepository) RecentGames(ctx context.Context, accountID uint, limit int) ([]models.Game, error) {
	defer r.lock()()

	games := []models.Game{}
	for i := len(r.data.gameOrder) - 1; i >= 0; i-- {
		game := r.data.games[r.data.gameOrder[i]]
		if game.AccountID != accountID {
			continue
		}
		game.MoveCount = r.data.moveCount(game.ID)
		games = append(games, game)
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (d *memoryData) moveCount(gameID string) int64 {
	var n int64
	for _, m := range d.moves {
		if m.GameID == gameID {
			n++
		}
	}
	return n
}

// endregion

// region --- Moves ---

func (r *MemoryRepository) CreateMove(ctx context.Context, move *models.MoveRecord) error {
	defer r.lock()()

	if _, ok := r.data.accounts[move.AccountID]; !ok {
		return ErrReference
	}
	move.ID = r.data.nextMoveID
	r.data.nextMoveID++
	if move.CreatedAt.IsZero() {
		move.CreatedAt = time.Now().UTC()
	}
	r.data.moves = append(r.data.moves, *move)
	return nil
}

func (r *MemoryRepository) Moves(ctx context.Context, accountID uint, gameID string) ([]models.MoveRecord, error) {
	defer r.lock()()

	moves := []models.MoveRecord{}
	for _, m := range r.data.moves {
		if m.AccountID == accountID && m.GameID == gameID {
			moves = append(moves, m)
		}
	}
	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].MoveNumber < moves[j].MoveNumber
	})
	return moves, nil
}

// endregion

func (r *MemoryRepository) Stats(ctx context.Context, accountID uint) (models.Stats, error) {
	defer r.lock()()

	var stats models.Stats
	for _, g := range r.data.games {
		if g.AccountID != accountID {
			continue
		}
		stats.TotalGames++
		if g.Status == models.StatusCompleted {
			stats.CompletedGames++
		}
		if g.Winner != nil {
			switch *g.Winner {
			case models.White:
				stats.WinsAsWhite++
			case models.Black:
				stats.WinsAsBlack++
			}
		}
	}

	var total int64
	for _, m := range r.data.moves {
		if m.AccountID != accountID {
			continue
		}
		stats.TotalMoves++
		total += int64(m.TimeTaken)
	}
	if stats.TotalMoves > 0 {
		stats.AverageMoveTime = float64(total) / float64(stats.TotalMoves)
	}
	return stats, nil
}
