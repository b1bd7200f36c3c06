package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"garagedesk/internal/config"
	"garagedesk/internal/domain"
	"garagedesk/internal/http/handlers"
	applog "garagedesk/internal/log"
	"garagedesk/internal/repos"
	"garagedesk/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf")})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc)

	app.Get("/", authH.Home)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Reception desk
	reception := app.Group("/reception", handlers.RequireRole(authSvc, domain.RoleReception))
	reception.Get("/", deps.ReceptionHandler.Home)
	reception.Get("/add", deps.ReceptionHandler.IntakeForm)
	reception.Post("/add", deps.ReceptionHandler.Intake)
	reception.Get("/detail/:id", deps.ReceptionHandler.Detail)

	// Technician floor
	tech := app.Group("/technician", handlers.RequireRole(authSvc, domain.RoleTechnician))
	tech.Get("/", deps.TechnicianHandler.Home)
	tech.Post("/start/:id", deps.TechnicianHandler.Start)
	tech.Get("/repair/:id", deps.TechnicianHandler.Repair)
	tech.Post("/repair/:id/items", deps.TechnicianHandler.AddItem)
	tech.Post("/repair/:id/finish", deps.TechnicianHandler.Finish)
	tech.Post("/item/:id/update", deps.TechnicianHandler.UpdateItem)
	tech.Post("/item/:id/delete", deps.TechnicianHandler.DeleteItem)

	// Cashier desk
	cashier := app.Group("/cashier", handlers.RequireRole(authSvc, domain.RoleCashier))
	cashier.Get("/", deps.CashierHandler.Home)
	cashier.Get("/invoice/:repair_id", deps.CashierHandler.Invoice)
	cashier.Post("/pay/:repair_id", deps.CashierHandler.Pay)

	// Admin
	admin := app.Group("/admin", handlers.RequireRole(authSvc, domain.RoleAdmin))
	admin.Get("/dashboard", deps.AdminHandler.DashboardPage)
	admin.Post("/settings", deps.AdminHandler.UpdateSettings)
	admin.Post("/component/add", deps.AdminHandler.AddComponent)
	admin.Post("/component/update/:id", deps.AdminHandler.UpdateComponent)
	admin.Post("/component/delete/:id", deps.AdminHandler.DeleteComponent)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
