package checkout

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// makeApp injects a jwt.Token into locals when X-User-ID is set, standing in
// for the jwtware middleware.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": float64(id)}})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func TestCheckoutRoute(t *testing.T) {
	f := newFixture(t, 1500, 50000)
	c := f.fillCart(t)
	app := makeApp(NewHandler(f.service))

	body, _ := json.Marshal(checkoutInput(c.ExternalID))
	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "9")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("checkout request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusCreated {
		b, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, string(b))
	}

	var view OrderView
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	if view.Order.Total != 4000 || len(view.Items) != 2 {
		t.Fatalf("unexpected order view: total=%v items=%d", view.Order.Total, len(view.Items))
	}
}

func TestCheckoutRoute_Unauthorized(t *testing.T) {
	f := newFixture(t, 1500, 50000)
	app := makeApp(NewHandler(f.service))

	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", res.StatusCode)
	}
}

func TestCheckoutRoute_InvalidCartReportsIssues(t *testing.T) {
	f := newFixture(t, 1500, 50000)
	c, err := f.carts.GetOrCreate("user:9")
	if err != nil {
		t.Fatalf("could not create cart: %v", err)
	}
	app := makeApp(NewHandler(f.service))

	body, _ := json.Marshal(checkoutInput(c.ExternalID))
	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "9")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for an empty cart, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "issues") {
		t.Fatalf("expected issues in the response, got %s", string(b))
	}
}
