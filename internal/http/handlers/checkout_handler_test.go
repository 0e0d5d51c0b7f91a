package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"vendora/internal/config"
	"vendora/internal/http/handlers"
	"vendora/internal/repos"
	"vendora/internal/services"
)

func newCheckoutApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	userRepo := repos.NewUserRepo(db)
	authSvc := services.NewAuthService(userRepo)
	if err := userRepo.BindSession("sid-alice", "u-alice"); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{CheckoutTimeout: 5 * time.Second}
	deps := handlers.NewDeps(db, cfg, authSvc, nil)

	app := fiber.New()
	app.Use(requestid.New())
	app.Post("/api/v1/checkout", handlers.RequireUser(authSvc), deps.CheckoutHandler.Place)
	return app
}

func postCheckout(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-alice"})
	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestCheckoutRejectsBadAddressPayload(t *testing.T) {
	app := newCheckoutApp(t)

	lines := `"lines":[{"product_id":"gbc-001","qty":1}]`

	// Malformed zip.
	resp := postCheckout(t, app, `{`+lines+`,"address":{"name":"Alice","line1":"1 Main St","city":"College Park","state":"MD","zip":"2074A"}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad zip: expected 400, got %d", resp.StatusCode)
	}

	// Name over the displayable limit.
	long := strings.Repeat("x", 80)
	resp = postCheckout(t, app, `{`+lines+`,"address":{"name":"`+long+`","line1":"1 Main St","city":"College Park","state":"MD","zip":"20742"}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("long name: expected 400, got %d", resp.StatusCode)
	}

	// Missing line1.
	resp = postCheckout(t, app, `{`+lines+`,"address":{"name":"Alice","line1":"","city":"College Park","state":"MD","zip":"20742"}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("incomplete address: expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckoutAcceptsValidAddressPayload(t *testing.T) {
	app := newCheckoutApp(t)

	resp := postCheckout(t, app, `{"lines":[{"product_id":"gbc-001","qty":1}],"address":{"name":"Alice","line1":"1 Main St","city":"College Park","state":"MD","zip":"20742"}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("valid checkout: expected 201, got %d", resp.StatusCode)
	}
}
