package fulfillment

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
	"github.com/isoko-rw/marketplace-backend/internal/auth"
	"github.com/isoko-rw/marketplace-backend/internal/order"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/supplier/items", h.listItems)
	app.Patch("/api/v1/supplier/items/:id<[0-9]+>/status", h.updateStatus)
}

func (h *Handler) listItems(c *fiber.Ctx) error {
	supplierID, err := auth.SupplierIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	status := order.FulfillmentStatus(c.Query("status"))
	items, err := h.service.ListItems(supplierID, status)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(items)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	supplierID, err := auth.SupplierIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	itemID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	payload := new(updateStatusRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	item, err := h.service.Transition(supplierID, itemID, order.FulfillmentStatus(payload.Status))
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(item)
}
