package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/jinsharnam/internal/middleware"
	"github.com/example/jinsharnam/internal/models"
	"github.com/example/jinsharnam/internal/services"
	"github.com/example/jinsharnam/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	Items []services.CartLine `json:"items"`
}

// CreateOrder allows authenticated users to place an order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.CreateOrder(c.UserContext(), identity.ID, req.Items)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// ListOrders returns the caller's orders, or every order for admins.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return listOrders(c, h.orders, identity)
}

// GetOrder returns one order visible to the caller.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := parseOrderID(c)
	if err != nil {
		return err
	}

	order, err := h.orders.GetOrder(c.UserContext(), identity, orderID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// UpdateStatus changes the status of an order. The service rejects non-admins.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return updateOrderStatus(c, h.orders, identity)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func updateOrderStatus(c *fiber.Ctx, orders *services.OrderService, identity *services.Identity) error {
	orderID, err := parseOrderID(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order, err := orders.TransitionStatus(c.UserContext(), orderID, status, identity)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

func listOrders(c *fiber.Ctx, orders *services.OrderService, identity *services.Identity) error {
	pg := utils.ParsePagination(c)
	filter := services.ListFilter{Limit: pg.Limit, Offset: pg.Offset}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		filter.Status = &status
	}

	list, total, err := orders.ListOrders(c.UserContext(), identity, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       list,
		"pagination": pg.Meta(total),
	})
}

func parseOrderID(c *fiber.Ctx) (uuid.UUID, error) {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	return orderID, nil
}
