package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/jinsharnam/internal/middleware"
	"github.com/example/jinsharnam/internal/services"
)

// PaymentHandler exposes the payment gateway bridge.
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type checkoutRequest struct {
	Items []services.CartLine `json:"items"`
}

// CreateOrder opens a gateway payment for the repriced cart. It does not
// create a store order.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var userID *uuid.UUID
	if identity, ok := middleware.CurrentIdentity(c); ok {
		userID = &identity.ID
	}

	session, err := h.payments.CreateGatewayOrder(c.UserContext(), userID, req.Items)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

type confirmPaymentRequest struct {
	OrderID        string `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
}

// Confirm links a captured gateway payment to one of the caller's orders.
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req confirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	order, err := h.payments.ConfirmPayment(c.UserContext(), identity, orderID, req.GatewayOrderID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}
