package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vendora/internal/services"
)

type WalletHandler struct {
	Wallet *services.WalletService
}

func (h *WalletHandler) Statement(c *fiber.Ctx) error {
	u := currentUser(c)
	view, err := h.Wallet.Statement(u.ID)
	if err != nil {
		return failJSON(c, "wallet.statement.fail", err)
	}
	return c.JSON(view)
}
