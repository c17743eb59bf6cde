package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/repository"
)

// SeedService creates default accounts and resources on boot when absent.
type SeedService struct {
	users      repository.UserRepository
	resources  repository.ResourceRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewSeedService constructs the service.
func NewSeedService(users repository.UserRepository, resources repository.ResourceRepository, bcryptCost int, logger *zap.Logger) *SeedService {
	return &SeedService{users: users, resources: resources, bcryptCost: bcryptCost, logger: logger}
}

// Run seeds default users and resources. Safe to call repeatedly.
func (s *SeedService) Run(ctx context.Context) error {
	if err := s.seedUser(ctx, "admin", "admin123", domain.RoleAdmin); err != nil {
		return err
	}
	if err := s.seedUser(ctx, "user", "user123", domain.RoleUser); err != nil {
		return err
	}

	count, err := s.resources.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []domain.Resource{
		{Name: "Conference Room A", Type: "Room", Description: "Large conference room, capacity 12", Capacity: 12, Active: true},
		{Name: "Projector X200", Type: "Equipment", Description: "Portable HD Projector", Capacity: 1, Active: true},
	}
	for i := range defaults {
		if err := s.resources.Create(ctx, &defaults[i]); err != nil {
			return err
		}
	}

	s.logger.Info("seeded default users and resources")
	return nil
}

func (s *SeedService) seedUser(ctx context.Context, username, password string, role domain.Role) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Enabled:      true,
	})
}
