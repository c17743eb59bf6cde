package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/repository"
	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

// ReservationService coordinates reservation workflows: creation with
// overlap-conflict prevention, ownership-gated reads and mutations, and
// filtered, paginated listing.
type ReservationService struct {
	reservations repository.ReservationRepository
	resources    repository.ResourceRepository
	users        repository.UserRepository
	dispatcher   events.Dispatcher
}

// ReservationDependencies bundles repositories for the reservation service.
type ReservationDependencies struct {
	ReservationRepo repository.ReservationRepository
	ResourceRepo    repository.ResourceRepository
	UserRepo        repository.UserRepository
	Dispatcher      events.Dispatcher
}

// ReservationCreateInput describes the creation payload. Timestamps arrive as
// ISO-8601 strings and are parsed here.
type ReservationCreateInput struct {
	ResourceID string
	Price      decimal.Decimal
	StartTime  string
	EndTime    string
	Status     *string
}

// ReservationUpdateInput describes a partial update. Only non-nil fields are
// applied.
type ReservationUpdateInput struct {
	Price     *decimal.Decimal
	StartTime *string
	EndTime   *string
	Status    *string
}

// ReservationListFilter describes listing parameters.
type ReservationListFilter struct {
	Status   *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
	Size     int
	Sort     string
}

// ReservationPage is one page of results plus pagination metadata.
type ReservationPage struct {
	Items         []domain.Reservation
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewReservationService constructs the service.
func NewReservationService(deps ReservationDependencies) *ReservationService {
	return &ReservationService{
		reservations: deps.ReservationRepo,
		resources:    deps.ResourceRepo,
		users:        deps.UserRepo,
		dispatcher:   deps.Dispatcher,
	}
}

// Create books a reservation for the caller. With enforceOverlapCheck set,
// ranges colliding with an existing CONFIRMED reservation on the same resource
// are rejected and nothing is written.
func (s *ReservationService) Create(ctx context.Context, principal domain.Principal, input ReservationCreateInput, enforceOverlapCheck bool) (*domain.Reservation, error) {
	resource, err := s.resources.GetByID(ctx, input.ResourceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("resource", map[string]any{"resource_id": input.ResourceID})
		}
		return nil, apperrors.MapError(err)
	}

	user, err := s.users.GetByUsername(ctx, principal.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"username": principal.Username})
		}
		return nil, apperrors.MapError(err)
	}

	start, end, err := parseTimeRange(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, apperrors.NewValidationError("price must not be negative", nil)
	}

	status := domain.ReservationStatusPending
	if input.Status != nil {
		status, err = parseStatus(*input.Status)
		if err != nil {
			return nil, err
		}
	}

	reservation := &domain.Reservation{
		ResourceID:   resource.ID,
		ResourceName: resource.Name,
		UserID:       user.ID,
		Username:     user.Username,
		Price:        input.Price,
		StartTime:    start,
		EndTime:      end,
		Status:       status,
	}

	if err := s.reservations.Create(ctx, reservation, enforceOverlapCheck); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return nil, apperrors.NewConflict("time range overlaps with an existing CONFIRMED reservation", map[string]any{
				"resource_id": resource.ID,
			})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventReservationCreated,
		ReservationID: reservation.ID,
		Actor:         actorFor(principal),
		Payload: events.ReservationCreatedPayload{
			ResourceID: reservation.ResourceID,
			Price:      reservation.Price,
			StartTime:  reservation.StartTime,
			EndTime:    reservation.EndTime,
			Status:     reservation.Status,
		},
	})
	return reservation, nil
}

// List returns the page of reservations visible to the caller under the given
// filters. Non-administrators only ever see their own reservations.
func (s *ReservationService) List(ctx context.Context, principal domain.Principal, filter ReservationListFilter) (*ReservationPage, error) {
	repoFilter := repository.ReservationFilter{
		MinPrice: filter.MinPrice,
		MaxPrice: filter.MaxPrice,
		Sort:     filter.Sort,
	}
	if !principal.IsAdmin {
		username := principal.Username
		repoFilter.Username = &username
	}
	if filter.Status != nil {
		status, err := parseStatus(*filter.Status)
		if err != nil {
			return nil, err
		}
		repoFilter.Status = &status
	}

	page, size := clampPage(filter.Page, filter.Size)
	repoFilter.Page = page
	repoFilter.Size = size

	items, total, err := s.reservations.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &ReservationPage{
		Items:         items,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// GetByID fetches a reservation, enforcing the ownership gate shared with
// Update and Delete.
func (s *ReservationService) GetByID(ctx context.Context, id string, principal domain.Principal) (*domain.Reservation, error) {
	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reservation", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !principal.IsAdmin && !reservation.OwnedBy(principal.Username) {
		return nil, apperrors.NewForbidden("not authorized to access this reservation")
	}
	return reservation, nil
}

// Update applies the fields present in the input. The merged record is
// re-validated, and the overlap check re-runs whenever the result is
// CONFIRMED, so a reservation cannot be promoted into a conflicting slot.
func (s *ReservationService) Update(ctx context.Context, id string, principal domain.Principal, input ReservationUpdateInput) (*domain.Reservation, error) {
	reservation, err := s.GetByID(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	oldStatus := reservation.Status
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, apperrors.NewValidationError("price must not be negative", nil)
		}
		reservation.Price = *input.Price
	}
	if input.StartTime != nil {
		start, err := parseTimestamp(*input.StartTime, "startTime")
		if err != nil {
			return nil, err
		}
		reservation.StartTime = start
	}
	if input.EndTime != nil {
		end, err := parseTimestamp(*input.EndTime, "endTime")
		if err != nil {
			return nil, err
		}
		reservation.EndTime = end
	}
	if !reservation.StartTime.Before(reservation.EndTime) {
		return nil, apperrors.NewValidationError("startTime must be before endTime", nil)
	}
	if input.Status != nil {
		status, err := parseStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		reservation.Status = status
	}

	enforceOverlap := reservation.Status == domain.ReservationStatusConfirmed
	if err := s.reservations.Update(ctx, reservation, enforceOverlap); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return nil, apperrors.NewConflict("time range overlaps with an existing CONFIRMED reservation", map[string]any{
				"resource_id": reservation.ResourceID,
			})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventReservationUpdated,
		ReservationID: reservation.ID,
		Actor:         actorFor(principal),
		Payload: events.ReservationUpdatedPayload{
			OldStatus: oldStatus,
			NewStatus: reservation.Status,
			StartTime: reservation.StartTime,
			EndTime:   reservation.EndTime,
		},
	})
	return reservation, nil
}

// Delete physically removes a reservation after the ownership gate.
func (s *ReservationService) Delete(ctx context.Context, id string, principal domain.Principal) error {
	reservation, err := s.GetByID(ctx, id, principal)
	if err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, reservation.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("reservation", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventReservationDeleted,
		ReservationID: reservation.ID,
		Actor:         actorFor(principal),
		Payload: events.ReservationDeletedPayload{
			ResourceID: reservation.ResourceID,
			Status:     reservation.Status,
		},
	})
	return nil
}

func parseTimeRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := parseTimestamp(startRaw, "startTime")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimestamp(endRaw, "endTime")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("startTime must be before endTime", nil)
	}
	return start, end, nil
}

func parseTimestamp(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperrors.NewValidationError(field+" is required", nil)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid "+field+": expected ISO-8601 timestamp", map[string]any{
			"value": raw,
		})
	}
	return t.UTC(), nil
}

func parseStatus(raw string) (domain.ReservationStatus, error) {
	status, err := domain.ParseReservationStatus(raw)
	if err != nil {
		return "", apperrors.NewValidationError("unrecognized reservation status", map[string]any{"status": raw})
	}
	return status, nil
}

func clampPage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func actorFor(principal domain.Principal) events.Actor {
	return events.Actor{Username: principal.Username, IsAdmin: principal.IsAdmin}
}

func (s *ReservationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
