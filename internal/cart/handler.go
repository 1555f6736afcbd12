package cart

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
	"github.com/isoko-rw/marketplace-backend/internal/auth"
)

type Handler struct {
	service     ServiceInterface
	deliveryFee float64
	freeAbove   float64
}

func NewHandler(s ServiceInterface, deliveryFee, freeAbove float64) *Handler {
	return &Handler{service: s, deliveryFee: deliveryFee, freeAbove: freeAbove}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Put("/api/v1/cart/items/:productID<[0-9]+>", h.updateItem)
	app.Delete("/api/v1/cart/items/:productID<[0-9]+>", h.removeItem)
	app.Delete("/api/v1/cart", h.clear)
}

type cartResponse struct {
	Cart
	Totals Totals `json:"totals"`
}

func (h *Handler) respond(c *fiber.Ctx, crt Cart) error {
	fee := h.deliveryFee
	totals := ComputeTotals(crt, 0)
	if totals.Subtotal >= h.freeAbove {
		fee = 0
	}
	return c.JSON(cartResponse{Cart: crt, Totals: ComputeTotals(crt, fee)})
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	crt, err := h.service.GetOrCreate(ownerKey(userID))
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return h.respond(c, crt)
}

type addItemRequest struct {
	ProductID int `json:"productID"`
	Quantity  int `json:"quantity"`
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	crt, err := h.service.GetOrCreate(ownerKey(userID))
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	crt, err = h.service.AddItem(crt.ExternalID, payload.ProductID, payload.Quantity)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return h.respond(c, crt)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	productID, err := strconv.Atoi(c.Params("productID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	payload := new(updateItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	crt, err := h.service.GetOrCreate(ownerKey(userID))
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	crt, err = h.service.UpdateItem(crt.ExternalID, productID, payload.Quantity)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return h.respond(c, crt)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	productID, err := strconv.Atoi(c.Params("productID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}

	crt, err := h.service.GetOrCreate(ownerKey(userID))
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	crt, err = h.service.RemoveItem(crt.ExternalID, productID)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return h.respond(c, crt)
}

func (h *Handler) clear(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	crt, err := h.service.GetOrCreate(ownerKey(userID))
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.Clear(crt.ExternalID); err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "cart cleared"})
}

func ownerKey(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}
