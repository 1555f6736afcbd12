package checkout

import (
	"errors"
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
	app.Post("/api/v1/checkout", h.checkout)
	app.Get("/api/v1/orders", h.listOrders)
	app.Get("/api/v1/orders/:id<[0-9]+>", h.getOrder)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	view, err := h.service.Checkout(c.Context(), userID, *payload)
	if err != nil {
		if issues, ok := IsCartInvalid(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "cart failed pre-checkout validation",
				"issues":  issues,
			})
		}
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orders, err := h.service.ListOrders(userID)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}

	view, err := h.service.GetOrderView(id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
		}
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	if view.Order.CustomerID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
	}
	return c.JSON(view)
}
