package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/service"
	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

// ReservationsHandler exposes the reservation booking endpoints.
type ReservationsHandler struct {
	service *service.ReservationService
}

// NewReservationsHandler constructs handler.
func NewReservationsHandler(reservationService *service.ReservationService) *ReservationsHandler {
	return &ReservationsHandler{service: reservationService}
}

// Create POST /reservations.
func (h *ReservationsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ResourceID == "" {
		return apperrors.NewValidationError("resource_id required", nil)
	}

	input := service.ReservationCreateInput{
		ResourceID: req.ResourceID,
		Price:      req.Price,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Status:     req.Status,
	}
	reservation, err := h.service.Create(c.Context(), *principal, input, true)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reservationResponse(reservation)})
}

// List GET /reservations.
func (h *ReservationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter, err := parseReservationQuery(c)
	if err != nil {
		return err
	}

	page, err := h.service.List(c.Context(), *principal, filter)
	if err != nil {
		return err
	}

	items := make([]dto.ReservationResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, reservationResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.ReservationPageResponse{
		Items:         items,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
	}})
}

// Get GET /reservations/:id.
func (h *ReservationsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	reservation, err := h.service.GetByID(c.Context(), c.Params("id"), *principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reservationResponse(reservation)})
}

// Update PUT /reservations/:id.
func (h *ReservationsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ReservationUpdateInput{
		Price:     req.Price,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    req.Status,
	}
	reservation, err := h.service.Update(c.Context(), c.Params("id"), *principal, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reservationResponse(reservation)})
}

// Delete DELETE /reservations/:id.
func (h *ReservationsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.Context(), c.Params("id"), *principal); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseReservationQuery(c *fiber.Ctx) (service.ReservationListFilter, error) {
	filter := service.ReservationListFilter{
		Page: parseIntQuery(c.Query("page"), 0),
		Size: parseIntQuery(c.Query("size"), 10),
		Sort: c.Query("sort"),
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	minPrice, err := parsePriceQuery(c.Query("min_price"), "min_price")
	if err != nil {
		return filter, err
	}
	filter.MinPrice = minPrice
	maxPrice, err := parsePriceQuery(c.Query("max_price"), "max_price")
	if err != nil {
		return filter, err
	}
	filter.MaxPrice = maxPrice
	return filter, nil
}

func parsePriceQuery(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid "+field+": expected a decimal", map[string]any{"value": raw})
	}
	return &price, nil
}

func parseIntQuery(raw string, def int) int {
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}

func reservationResponse(reservation *domain.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:           reservation.ID,
		ResourceID:   reservation.ResourceID,
		ResourceName: reservation.ResourceName,
		UserID:       reservation.UserID,
		Username:     reservation.Username,
		Price:        reservation.Price,
		StartTime:    reservation.StartTime,
		EndTime:      reservation.EndTime,
		Status:       reservation.Status,
		CreatedAt:    reservation.CreatedAt,
		UpdatedAt:    reservation.UpdatedAt,
	}
}
