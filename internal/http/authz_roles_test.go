package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"garagedesk/internal/domain"
	"garagedesk/internal/http/handlers"
	"garagedesk/internal/repos"
	"garagedesk/internal/services"
)

// Minimal app with one probe route per staff area.
func newRoleApp(t *testing.T) (*fiber.App, *repos.UserRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New())

	ok := func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) }
	app.Get("/reception", handlers.RequireRole(authSvc, domain.RoleReception), ok)
	app.Get("/technician", handlers.RequireRole(authSvc, domain.RoleTechnician), ok)
	app.Get("/cashier", handlers.RequireRole(authSvc, domain.RoleCashier), ok)
	app.Get("/admin/dashboard", handlers.RequireRole(authSvc, domain.RoleAdmin), ok)
	return app, userRepo
}

func get(t *testing.T, app *fiber.App, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestRoleGatesPerArea(t *testing.T) {
	app, userRepo := newRoleApp(t)

	// Anonymous -> redirect to login
	if resp := get(t, app, "/technician", ""); resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous: expected redirect, got %d", resp.StatusCode)
	}

	// Seeded accounts, one session each
	_ = userRepo.BindSession("sid-front", "u-front")
	_ = userRepo.BindSession("sid-wrench", "u-wrench")
	_ = userRepo.BindSession("sid-admin", "u-admin")

	// Right role -> 200
	if resp := get(t, app, "/reception", "sid-front"); resp.StatusCode != http.StatusOK {
		t.Fatalf("reception on own desk: expected 200, got %d", resp.StatusCode)
	}
	if resp := get(t, app, "/technician", "sid-wrench"); resp.StatusCode != http.StatusOK {
		t.Fatalf("technician on own desk: expected 200, got %d", resp.StatusCode)
	}

	// Wrong role -> 403
	if resp := get(t, app, "/cashier", "sid-wrench"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("technician at cashier desk: expected 403, got %d", resp.StatusCode)
	}
	if resp := get(t, app, "/admin/dashboard", "sid-front"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("reception at admin area: expected 403, got %d", resp.StatusCode)
	}

	// Admin passes every gate
	for _, path := range []string{"/reception", "/technician", "/cashier", "/admin/dashboard"} {
		if resp := get(t, app, path, "sid-admin"); resp.StatusCode != http.StatusOK {
			t.Fatalf("admin at %s: expected 200, got %d", path, resp.StatusCode)
		}
	}

	// Stale session id -> back to login
	if resp := get(t, app, "/reception", "sid-unknown"); resp.StatusCode != http.StatusFound {
		t.Fatalf("unknown sid: expected redirect, got %d", resp.StatusCode)
	}
}
