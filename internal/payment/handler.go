package payment

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterPublicRoutes mounts the provider webhook. It must stay outside the
// JWT guard: the provider cannot authenticate, and it must always get an
// acknowledgment to avoid retry storms.
func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/payments/webhook", h.webhook)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/payments/initiate", h.initiate)
	app.Get("/api/v1/payments/:txid/verify", h.verify)
}

type initiateRequest struct {
	OrderID     int    `json:"orderID"`
	PhoneNumber string `json:"phoneNumber"`
	Provider    string `json:"provider"`
}

func (h *Handler) initiate(c *fiber.Ctx) error {
	payload := new(initiateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.OrderID <= 0 || payload.PhoneNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "orderID and phoneNumber are required"})
	}
	if payload.Provider == "" {
		payload.Provider = "MTN_MOMO"
	}

	p, err := h.service.Initiate(c.Context(), payload.OrderID, payload.PhoneNumber, payload.Provider)
	if err != nil {
		// a provider timeout still returns the pending payment so the client
		// can poll verify
		if apperr.IsKind(err, apperr.KindExternalProvider) && p.TransactionID != "" {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": err.Error(),
				"payment": p,
			})
		}
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(p)
}

func (h *Handler) verify(c *fiber.Ctx) error {
	txid := c.Params("txid")
	p, err := h.service.Verify(c.Context(), txid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
		}
		if apperr.IsKind(err, apperr.KindExternalProvider) {
			// provider unreachable: report the stored (still pending) state
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"payment": p,
				"warning": "provider status check failed, payment still pending",
			})
		}
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(p)
}

// webhook always acknowledges with 200, even for unknown transactions or
// conflicting statuses; failures are logged inside the service.
func (h *Handler) webhook(c *fiber.Ctx) error {
	raw := make([]byte, len(c.Body()))
	copy(raw, c.Body())

	req, err := decodeWebhook(raw)
	if err != nil {
		return c.JSON(fiber.Map{"message": "received"})
	}
	_, _ = h.service.HandleWebhook(c.Context(), req)
	return c.JSON(fiber.Map{"message": "received"})
}
