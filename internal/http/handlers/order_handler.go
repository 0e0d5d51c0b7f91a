package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vendora/internal/domain"
	applog "vendora/internal/log"
	"vendora/internal/services"
	"vendora/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	o, items, err := h.Orders.Get(id, actor(c))
	if err != nil {
		return failJSON(c, "order.view.fail", err)
	}
	return c.JSON(fiber.Map{
		"order":    o,
		"items":    items,
		"timeline": domain.ParseTimeline(o.StatusTimeline),
	})
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	orders, err := h.Orders.ListForUser(u.ID)
	if err != nil {
		return failJSON(c, "order.history.fail", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// StoreOrders lists one store's orders for its owning seller or an admin.
func (h *OrderHandler) StoreOrders(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("store"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "store is required"})
	}
	orders, err := h.Orders.ListForStore(id, actor(c))
	if err != nil {
		return failJSON(c, "order.store.fail", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus is the seller/admin route; the service enforces both store
// ownership and the linear transition rule.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	status, ok := validate.Status(req.Status)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
	}

	o, err := h.Orders.UpdateStatus(id, actor(c), domain.OrderStatus(status))
	if err != nil {
		return failJSON(c, "order.status.fail", err)
	}
	applog.Audit(c, "order.status", map[string]any{"order_id": o.ID, "status": o.Status})
	return c.JSON(fiber.Map{"order": o, "timeline": domain.ParseTimeline(o.StatusTimeline)})
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	o, err := h.Orders.Cancel(id, actor(c))
	if err != nil {
		return failJSON(c, "order.cancel.fail", err)
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": o.ID, "refunded": o.Total})
	return c.JSON(fiber.Map{"order": o})
}
