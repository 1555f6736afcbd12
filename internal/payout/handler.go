package payout

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/isoko-rw/marketplace-backend/internal/apperr"
	"github.com/isoko-rw/marketplace-backend/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/admin/payouts/generate", h.generate)
	app.Get("/api/v1/admin/payouts", h.list)
	app.Get("/api/v1/admin/payouts/:id<[0-9]+>", h.get)
	app.Patch("/api/v1/admin/payouts/:id<[0-9]+>/status", h.updateStatus)
	app.Get("/api/v1/supplier/earnings", h.earnings)
}

type generateRequest struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
}

func (h *Handler) generate(c *fiber.Ctx) error {
	payload := new(generateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	start, err := parseDate(payload.PeriodStart)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid periodStart"})
	}
	end, err := parseDate(payload.PeriodEnd)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid periodEnd"})
	}

	payouts, err := h.service.Generate(start, end)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"generated": len(payouts),
		"payouts":   payouts,
	})
}

func (h *Handler) list(c *fiber.Ctx) error {
	filter := Filter{
		Status: Status(c.Query("status")),
	}
	if v := c.Query("supplierID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid supplierID"})
		}
		filter.SupplierID = id
	}
	if v := c.Query("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid from date"})
		}
		filter.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid to date"})
		}
		filter.To = t
	}

	payouts, err := h.service.List(filter)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(payouts)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	p, err := h.service.Get(id)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(p)
}

type updateStatusRequest struct {
	Status           string `json:"status"`
	PaymentReference string `json:"paymentReference"`
	Notes            string `json:"notes"`
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	payload := new(updateStatusRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p, err := h.service.UpdateStatus(id, Status(payload.Status), payload.PaymentReference, payload.Notes)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(p)
}

func (h *Handler) earnings(c *fiber.Ctx) error {
	supplierID, err := auth.SupplierIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	e, err := h.service.SupplierEarnings(supplierID)
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(e)
}

// parseDate accepts both bare dates and RFC 3339 timestamps.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
