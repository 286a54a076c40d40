package service

import (
	"context"
	"math"

	"gotimer/backend/internal/models"
	"gotimer/backend/internal/repository"
	"gotimer/backend/internal/session"
)

// StatsService aggregates an account's games and moves.
type StatsService struct {
	repo repository.Repository
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(repo repository.Repository) *StatsService {
	return &StatsService{repo: repo}
}

// GetStats returns the caller's statistics. Guests get all zeros.
func (s *StatsService) GetStats(ctx context.Context, sess *session.Session) (models.Stats, error) {
	if err := requireSession(sess); err != nil {
		return models.Stats{}, err
	}
	reg, ok := sess.Registered()
	if !ok {
		return models.Stats{}, nil
	}

	stats, err := s.repo.Stats(ctx, reg.AccountID)
	if err != nil {
		return models.Stats{}, internal("Failed to get stats", err)
	}
	stats.AverageMoveTime = roundTo2(stats.AverageMoveTime)
	return stats, nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
