package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vendora/internal/domain"
	applog "vendora/internal/log"
	"vendora/internal/services"
	"vendora/internal/validate"
)

type ReturnHandler struct {
	Returns *services.ReturnService
}

type returnRequest struct {
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

func (h *ReturnHandler) Request(c *fiber.Ctx) error {
	u := currentUser(c)

	var req returnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	orderID, ok1 := validate.ID(req.OrderID)
	productID, ok2 := validate.ID(req.ProductID)
	if !ok1 || !ok2 || req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order_id, product_id and reason are required"})
	}

	ret, err := h.Returns.Request(u.ID, orderID, productID, req.Reason, req.Description)
	if err != nil {
		return failJSON(c, "return.request.fail", err)
	}
	applog.Audit(c, "return.request", map[string]any{"return_id": ret.ID, "order_id": orderID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"return": ret})
}

func (h *ReturnHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "return not found"})
	}
	ret, err := h.Returns.Get(id, actor(c))
	if err != nil {
		return failJSON(c, "return.view.fail", err)
	}
	return c.JSON(fiber.Map{"return": ret, "timeline": domain.ParseTimeline(ret.StatusTimeline)})
}

type returnStatusRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

func (h *ReturnHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "return not found"})
	}
	var req returnStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	status, ok := validate.Status(req.Status)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
	}

	ret, err := h.Returns.UpdateStatus(id, actor(c), domain.ReturnStatus(status), req.AdminNote)
	if err != nil {
		return failJSON(c, "return.status.fail", err)
	}
	applog.Audit(c, "return.status", map[string]any{
		"return_id": ret.ID, "status": ret.Status, "refund": ret.RefundAmount,
	})
	return c.JSON(fiber.Map{"return": ret, "timeline": domain.ParseTimeline(ret.StatusTimeline)})
}

type pickupRequest struct {
	Date    string `json:"date"`
	Window  string `json:"window"`
	Address string `json:"address"`
	Note    string `json:"note"`
}

func (h *ReturnHandler) SchedulePickup(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "return not found"})
	}
	var req pickupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	ret, err := h.Returns.SchedulePickup(id, actor(c), req.Date, req.Window, req.Address, req.Note)
	if err != nil {
		return failJSON(c, "return.pickup.fail", err)
	}
	applog.Audit(c, "return.pickup", map[string]any{"return_id": ret.ID, "pickup_date": ret.PickupDate})
	return c.JSON(fiber.Map{"return": ret})
}
