package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "vendora/internal/log"
	"vendora/internal/services"
	"vendora/internal/validate"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

type checkoutRequest struct {
	AddressID      string               `json:"address_id"`
	Address        *services.NewAddress `json:"address"`
	Lines          []services.CartLine  `json:"lines"`
	CouponCode     string               `json:"coupon_code"`
	PaymentMethod  string               `json:"payment_method"`
	ShippingCharge float64              `json:"shipping_charge"`
	WalletDebit    float64              `json:"wallet_debit"`
}

func (h *CheckoutHandler) Place(c *fiber.Ctx) error {
	u := currentUser(c)

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if !validate.Money(req.ShippingCharge) || !validate.Money(req.WalletDebit) {
		applog.Security(c, "validation.fail", map[string]any{"field": "amounts"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid amounts"})
	}
	for i := range req.Lines {
		if _, ok := validate.ID(req.Lines[i].ProductID); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
		}
		req.Lines[i].Qty = validate.Qty(req.Lines[i].Qty)
	}
	if req.Address != nil {
		if _, ok := validate.Name(req.Address.Name); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid address name"})
		}
		if _, ok := validate.Zip(req.Address.Zip); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "zip"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid zip"})
		}
		if req.Address.Line1 == "" || req.Address.City == "" || req.Address.State == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "incomplete address"})
		}
	}
	coupon := ""
	if req.CouponCode != "" {
		var ok bool
		if coupon, ok = validate.CouponCode(req.CouponCode); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid coupon code"})
		}
	}
	method := req.PaymentMethod
	if method == "" {
		method = "COD"
	}

	orders, err := h.Checkout.Place(c.Context(), services.CheckoutInput{
		UserID:         u.ID,
		AddressID:      req.AddressID,
		Address:        req.Address,
		Lines:          req.Lines,
		CouponCode:     coupon,
		PaymentMethod:  method,
		ShippingCharge: req.ShippingCharge,
		WalletDebit:    req.WalletDebit,
	})
	if err != nil {
		return failJSON(c, "checkout.place.fail", err)
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	applog.Audit(c, "checkout.place", map[string]any{
		"order_ids": ids, "wallet_debit": req.WalletDebit, "coupon": coupon,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"orders": orders})
}
