package handlers

import (
	applog "garagedesk/internal/log"
	"garagedesk/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireRole gates a staff area. Admins pass every gate, matching the shop
// floor rule that the owner can cover any desk.
func RequireRole(auth *services.AuthService, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return c.Redirect("/login")
		}
		if !u.CanAct(role) {
			applog.Security(c, "access.denied", map[string]any{"need": role, "have": u.Role})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}
