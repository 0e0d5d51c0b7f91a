package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"vendora/internal/config"
	"vendora/internal/domain"
	"vendora/internal/http/handlers"
	applog "vendora/internal/log"
	"vendora/internal/notify"
	"vendora/internal/repos"
	"vendora/internal/services"
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
	authSvc := services.NewAuthService(userRepo)
	authH := &handlers.AuthHandler{Auth: authSvc}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "something went wrong, please try again",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for logging/authz)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	// ---------- App handlers ----------
	dispatcher := notify.LogDispatcher{}
	deps := handlers.NewDeps(db, cfg, authSvc, dispatcher)

	// Auth routes (login throttled)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	api := app.Group("/api/v1")

	// Checkout (money-moving, per-IP throttled)
	checkoutLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|checkout"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.checkout.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Post("/checkout", checkoutLimiter, handlers.RequireUser(authSvc), deps.CheckoutHandler.Place)

	// Orders
	api.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)
	api.Get("/orders/:id", handlers.RequireUser(authSvc), deps.OrderHandler.View)
	api.Post("/orders/:id/status",
		handlers.RequireRole(authSvc, domain.RoleSeller, domain.RoleAdmin),
		deps.OrderHandler.UpdateStatus)
	api.Post("/orders/:id/cancel", handlers.RequireUser(authSvc), deps.OrderHandler.Cancel)
	api.Get("/store/orders",
		handlers.RequireRole(authSvc, domain.RoleSeller, domain.RoleAdmin),
		deps.OrderHandler.StoreOrders)

	// Returns
	api.Post("/returns", handlers.RequireUser(authSvc), deps.ReturnHandler.Request)
	api.Get("/returns/:id", handlers.RequireUser(authSvc), deps.ReturnHandler.View)
	api.Post("/returns/:id/status",
		handlers.RequireRole(authSvc, domain.RoleSeller, domain.RoleAdmin),
		deps.ReturnHandler.UpdateStatus)
	api.Post("/returns/:id/pickup",
		handlers.RequireRole(authSvc, domain.RoleSeller, domain.RoleAdmin),
		deps.ReturnHandler.SchedulePickup)

	// Wallet
	api.Get("/wallet", handlers.RequireUser(authSvc), deps.WalletHandler.Statement)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
