package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions lists the allowed edges. States without an entry are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

// OrderStatuses returns every known status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}
}

// ParseOrderStatus converts user input into a known status.
func ParseOrderStatus(value string) (OrderStatus, error) {
	candidate := OrderStatus(strings.ToUpper(strings.TrimSpace(value)))
	for _, s := range OrderStatuses() {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", value)
}

// CanTransition reports whether the order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

type Order struct {
	BaseModel
	UserID     uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User       *User       `json:"user,omitempty"`
	TotalCents int64       `json:"total_cents"`
	Status     OrderStatus `gorm:"size:16;index" json:"status"`
	PaymentID  *string     `json:"payment_id"`
	Items      []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID    uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	Position   int       `json:"position"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"price_cents"`
}

// LineTotal is the snapshot price multiplied by quantity.
func (i OrderItem) LineTotal() int64 {
	return i.PriceCents * int64(i.Quantity)
}
