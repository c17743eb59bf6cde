package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/service"
	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

// ResourcesHandler exposes the bookable resource catalog.
type ResourcesHandler struct {
	service *service.ResourceService
}

// NewResourcesHandler constructs handler.
func NewResourcesHandler(resourceService *service.ResourceService) *ResourcesHandler {
	return &ResourcesHandler{service: resourceService}
}

// List GET /resources.
func (h *ResourcesHandler) List(c *fiber.Ctx) error {
	resources, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ResourceResponse, 0, len(resources))
	for i := range resources {
		items = append(items, resourceResponse(&resources[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /resources/:id.
func (h *ResourcesHandler) Get(c *fiber.Ctx) error {
	resource, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resourceResponse(resource)})
}

// Create POST /resources. Admin only (enforced by route middleware).
func (h *ResourcesHandler) Create(c *fiber.Ctx) error {
	var req dto.ResourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	resource, err := h.service.Create(c.Context(), resourceFromRequest(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resourceResponse(resource)})
}

// Update PUT /resources/:id. Admin only.
func (h *ResourcesHandler) Update(c *fiber.Ctx) error {
	var req dto.ResourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	resource, err := h.service.Update(c.Context(), c.Params("id"), resourceFromRequest(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resourceResponse(resource)})
}

// Delete DELETE /resources/:id. Admin only.
func (h *ResourcesHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func resourceFromRequest(req dto.ResourceRequest) *domain.Resource {
	return &domain.Resource{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Capacity:    req.Capacity,
		Active:      req.Active,
	}
}

func resourceResponse(resource *domain.Resource) dto.ResourceResponse {
	return dto.ResourceResponse{
		ID:          resource.ID,
		Name:        resource.Name,
		Type:        resource.Type,
		Description: resource.Description,
		Capacity:    resource.Capacity,
		Active:      resource.Active,
		CreatedAt:   resource.CreatedAt,
		UpdatedAt:   resource.UpdatedAt,
	}
}
