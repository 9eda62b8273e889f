package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/jinsharnam/internal/middleware"
	"github.com/example/jinsharnam/internal/services"
	"github.com/example/jinsharnam/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	orders *services.OrderService
	auth   *services.AuthService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(orders *services.OrderService, auth *services.AuthService) *AdminHandler {
	return &AdminHandler{orders: orders, auth: auth}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.orders.Stats(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

// ListAllOrders returns all orders with pagination, status filtering and user info.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return listOrders(c, h.orders, identity)
}

// UpdateOrderStatus moves an order along its lifecycle.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return updateOrderStatus(c, h.orders, identity)
}

// ListAllUsers returns registered users with pagination.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	users, total, err := h.auth.ListRegistered(c.UserContext(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       users,
		"pagination": pg.Meta(total),
	})
}
