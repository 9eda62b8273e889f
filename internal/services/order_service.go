package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/jinsharnam/internal/metrics"
	"github.com/example/jinsharnam/internal/models"
)

const notifyTimeout = 10 * time.Second

// ListFilter narrows an order listing. A zero Limit returns every match.
type ListFilter struct {
	Status *models.OrderStatus
	Limit  int
	Offset int
}

// OrderStats summarises the order book for the admin dashboard.
type OrderStats struct {
	TotalOrders     int64                        `json:"total_orders"`
	ByStatus        map[models.OrderStatus]int64 `json:"by_status"`
	RevenueCents    int64                        `json:"revenue_cents"`
	RegisteredUsers int64                        `json:"registered_users"`
}

// OrderService creates orders and drives their status lifecycle.
type OrderService struct {
	db       *gorm.DB
	notifier OrderNotifier
	now      func() time.Time
}

// NewOrderService constructs an OrderService. notifier may be nil.
func NewOrderService(db *gorm.DB, notifier OrderNotifier) *OrderService {
	return &OrderService{db: db, notifier: notifier, now: time.Now}
}

// CreateOrder prices the cart from the catalog and persists the order with its items.
// Either the whole order is written or nothing is.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, lines []CartLine) (*models.Order, error) {
	if _, _, err := parseCart(lines); err != nil {
		return nil, err
	}

	var orderID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Select("id").Where("id = ?", userID).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnauthenticated
			}
			return err
		}

		cart, err := priceCart(tx, lines)
		if err != nil {
			return err
		}

		now := s.now()
		order := models.Order{
			UserID:     userID,
			TotalCents: cart.TotalCents,
			Status:     models.OrderPending,
			Items:      make([]models.OrderItem, 0, len(cart.Lines)),
		}
		order.CreatedAt = now
		for i, line := range cart.Lines {
			item := models.OrderItem{
				ProductID:  line.Product.ID,
				Position:   i,
				Quantity:   line.Quantity,
				PriceCents: line.PriceCents,
			}
			item.CreatedAt = now
			order.Items = append(order.Items, item)
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, orderID, true)
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	slog.InfoContext(ctx, "order created", "order_id", order.ID, "user_id", userID, "total_cents", order.TotalCents)
	s.notify(order.ID, func(ctx context.Context) error {
		return s.notifier.NotifyNewOrder(ctx, order)
	})

	return order, nil
}

// ListOrders returns orders visible to requester, newest first.
// Non-admin requesters only ever see their own orders.
func (s *OrderService) ListOrders(ctx context.Context, requester *Identity, filter ListFilter) ([]models.Order, int64, error) {
	if requester == nil {
		return nil, 0, ErrUnauthenticated
	}

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if !requester.IsAdmin() {
		query = query.Where("user_id = ?", requester.ID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = withItems(query)
	if requester.IsAdmin() {
		query = query.Preload("User")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetOrder returns one order. Orders owned by someone else read as not found.
func (s *OrderService) GetOrder(ctx context.Context, requester *Identity, orderID uuid.UUID) (*models.Order, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}

	order, err := s.loadOrder(ctx, orderID, requester.IsAdmin())
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && order.UserID != requester.ID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// TransitionStatus moves an order to next. Only admins may do this, and only
// along the edges of the order lifecycle.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, next models.OrderStatus, requester *Identity) (*models.Order, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}
	next, err := models.ParseOrderStatus(string(next))
	if err != nil {
		return nil, invalid("status", err.Error())
	}

	var from models.OrderStatus
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", orderID).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		from = order.Status
		if !from.CanTransition(next) {
			return &TransitionError{From: from, To: next}
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, from).
			Updates(map[string]any{"status": next, "updated_at": s.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &TransitionError{From: from, To: next}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, orderID, true)
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(from), string(next)).Inc()
	slog.InfoContext(ctx, "order status changed",
		"order_id", orderID, "from", from, "to", next, "admin_id", requester.ID)
	s.notify(order.ID, func(ctx context.Context) error {
		return s.notifier.NotifyStatusChange(ctx, order, from)
	})

	return order, nil
}

// AttachPayment records the gateway payment that settled an order.
func (s *OrderService) AttachPayment(ctx context.Context, orderID uuid.UUID, paymentID string) error {
	return attachPayment(s.db.WithContext(ctx), orderID, paymentID)
}

func attachPayment(db *gorm.DB, orderID uuid.UUID, paymentID string) error {
	res := db.Model(&models.Order{}).
		Where("id = ? AND (payment_id IS NULL OR payment_id = ?)", orderID, paymentID).
		Update("payment_id", paymentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrOrderNotFound
	}
	return ErrOrderAlreadyPaid
}

// Stats aggregates order counts and revenue. Cancelled orders earn nothing.
func (s *OrderService) Stats(ctx context.Context) (*OrderStats, error) {
	db := s.db.WithContext(ctx)
	stats := &OrderStats{ByStatus: make(map[models.OrderStatus]int64, len(models.OrderStatuses()))}
	for _, status := range models.OrderStatuses() {
		stats.ByStatus[status] = 0
	}

	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.Order{}).Select("status, count(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
	}

	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_cents), 0)").
		Where("status <> ?", models.OrderCancelled).
		Scan(&stats.RevenueCents).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.User{}).
		Where("kind = ?", models.IdentityRegistered).
		Count(&stats.RegisteredUsers).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *OrderService) loadOrder(ctx context.Context, orderID uuid.UUID, withUser bool) (*models.Order, error) {
	query := withItems(s.db.WithContext(ctx))
	if withUser {
		query = query.Preload("User")
	}

	var order models.Order
	if err := query.Where("id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func withItems(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Items.Product")
}

func (s *OrderService) notify(orderID uuid.UUID, send func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			slog.Warn("order notification failed", "order_id", orderID, "error", err)
		}
	}()
}
