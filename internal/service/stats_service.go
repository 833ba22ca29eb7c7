package service

import (
	"context"

	"github.com/ragbase/console/internal/domain"
	"github.com/ragbase/console/internal/repository"
)

// StatsService aggregates system counters for the console dashboard.
type StatsService struct {
	collectionRepo *repository.CollectionRepository
	templateRepo   *repository.TemplateRepository
	userRepo       *repository.UserRepository
}

// NewStatsService creates a new stats service
func NewStatsService(
	collectionRepo *repository.CollectionRepository,
	templateRepo *repository.TemplateRepository,
	userRepo *repository.UserRepository,
) *StatsService {
	return &StatsService{
		collectionRepo: collectionRepo,
		templateRepo:   templateRepo,
		userRepo:       userRepo,
	}
}

// GetStats returns totals across tenants.
func (s *StatsService) GetStats(ctx context.Context) (*domain.Stats, error) {
	collections, _ := s.collectionRepo.Count()
	templates, _ := s.templateRepo.Count()
	users, _ := s.userRepo.Count()

	return &domain.Stats{
		TotalCollections: collections,
		TotalTemplates:   templates,
		TotalUsers:       users,
	}, nil
}
