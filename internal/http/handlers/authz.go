package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vendora/internal/domain"
	applog "vendora/internal/log"
	"vendora/internal/services"
)

// RequireUser enforces a logged-in session and stashes the user in Locals.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireRole additionally gates on one of the given roles. Sellers are
// authorized per-store by the services; this only checks the coarse role.
func RequireRole(auth *services.AuthService, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		for _, r := range roles {
			if u.Role == r {
				c.Locals("user", u)
				return c.Next()
			}
		}
		applog.Security(c, "access.denied.role", map[string]any{"user_id": u.ID, "role": u.Role})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
	}
}

// actor resolves the Locals user into the identity the services act as.
func actor(c *fiber.Ctx) domain.Actor {
	return services.ActorOf(currentUser(c))
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
