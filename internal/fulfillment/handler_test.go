package fulfillment

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/isoko-rw/marketplace-backend/internal/order"
)

// makeApp injects a jwt.Token with a supplier claim when X-Supplier-ID is
// set, standing in for the jwtware middleware.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-Supplier-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": float64(100 + id), "supplier_id": float64(id)}})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func TestSupplierItemsRoute(t *testing.T) {
	svc, _ := newFixture(t)
	app := makeApp(NewHandler(svc))

	req := httptest.NewRequest("GET", "/api/v1/supplier/items", nil)
	req.Header.Set("X-Supplier-ID", "1")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var items []order.OrderItem
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		t.Fatalf("could not decode items: %v", err)
	}
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("expected only supplier 1's item, got %+v", items)
	}
}

func TestUpdateStatusRoute(t *testing.T) {
	svc, _ := newFixture(t)
	app := makeApp(NewHandler(svc))

	req := httptest.NewRequest("PATCH", "/api/v1/supplier/items/1/status",
		strings.NewReader(`{"status":"CONFIRMED"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Supplier-ID", "1")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("patch request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		b, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, string(b))
	}

	var item order.OrderItem
	if err := json.NewDecoder(res.Body).Decode(&item); err != nil {
		t.Fatalf("could not decode item: %v", err)
	}
	if item.FulfillmentStatus != order.FulfillmentConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", item.FulfillmentStatus)
	}
}

func TestUpdateStatusRoute_ForeignItemHidden(t *testing.T) {
	svc, _ := newFixture(t)
	app := makeApp(NewHandler(svc))

	// supplier 2 probing supplier 1's item gets a 404, not a 403
	req := httptest.NewRequest("PATCH", "/api/v1/supplier/items/1/status",
		strings.NewReader(`{"status":"CONFIRMED"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Supplier-ID", "2")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("patch request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for a foreign item, got %d", res.StatusCode)
	}
}

func TestUpdateStatusRoute_BadTransition(t *testing.T) {
	svc, _ := newFixture(t)
	app := makeApp(NewHandler(svc))

	req := httptest.NewRequest("PATCH", "/api/v1/supplier/items/1/status",
		strings.NewReader(`{"status":"DELIVERED"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Supplier-ID", "1")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("patch request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for an illegal transition, got %d", res.StatusCode)
	}
}
