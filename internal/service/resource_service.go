package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/persistence"
	"github.com/spec-kit/booking-service/internal/repository"
	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

const resourceCachePrefix = "resource:"

// ResourceService manages the bookable resource catalog with a read-through
// cache on single-record lookups.
type ResourceService struct {
	resources repository.ResourceRepository
	cache     *persistence.Redis
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewResourceService constructs the service. The cache may be nil.
func NewResourceService(resources repository.ResourceRepository, cache *persistence.Redis, cacheTTL time.Duration, logger *zap.Logger) *ResourceService {
	return &ResourceService{
		resources: resources,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Create stores a new resource.
func (s *ResourceService) Create(ctx context.Context, resource *domain.Resource) (*domain.Resource, error) {
	if resource.Name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if resource.Capacity < 0 {
		return nil, apperrors.NewValidationError("capacity must not be negative", nil)
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, apperrors.MapError(err)
	}
	return resource, nil
}

// Update overwrites a resource's attributes and drops its cache entry.
func (s *ResourceService) Update(ctx context.Context, id string, updated *domain.Resource) (*domain.Resource, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = updated.Name
	existing.Type = updated.Type
	existing.Description = updated.Description
	existing.Capacity = updated.Capacity
	existing.Active = updated.Active

	if err := s.resources.Update(ctx, existing); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("resource", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, id)
	return existing, nil
}

// Get returns a resource by id, serving from cache when possible.
func (s *ResourceService) Get(ctx context.Context, id string) (*domain.Resource, error) {
	if cached := s.fromCache(ctx, id); cached != nil {
		return cached, nil
	}

	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("resource", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	s.toCache(ctx, resource)
	return resource, nil
}

// List returns the full catalog.
func (s *ResourceService) List(ctx context.Context) ([]domain.Resource, error) {
	resources, err := s.resources.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return resources, nil
}

// Delete removes a resource and drops its cache entry.
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	if err := s.resources.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("resource", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ResourceService) fromCache(ctx context.Context, id string) *domain.Resource {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, resourceCachePrefix+id).Bytes()
	if err != nil {
		return nil
	}
	var resource domain.Resource
	if err := json.Unmarshal(raw, &resource); err != nil {
		return nil
	}
	return &resource
}

func (s *ResourceService) toCache(ctx context.Context, resource *domain.Resource) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(resource)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, resourceCachePrefix+resource.ID, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("failed to cache resource", zap.String("id", resource.ID), zap.Error(err))
	}
}

func (s *ResourceService) invalidate(ctx context.Context, id string) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, resourceCachePrefix+id).Err(); err != nil {
		s.logger.Debug("failed to invalidate resource cache", zap.String("id", id), zap.Error(err))
	}
}
