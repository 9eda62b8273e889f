package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PaymentSessionStatus tracks a gateway order on the platform side.
type PaymentSessionStatus string

const (
	PaymentSessionCreated   PaymentSessionStatus = "CREATED"
	PaymentSessionConfirmed PaymentSessionStatus = "CONFIRMED"
)

// PaymentSession stores a gateway order created by the payment bridge.
type PaymentSession struct {
	BaseModel
	GatewayOrderID string               `gorm:"uniqueIndex" json:"gateway_order_id"`
	Provider       string               `json:"provider"`
	UserID         *uuid.UUID           `gorm:"type:uuid;index" json:"user_id"`
	OrderID        *uuid.UUID           `gorm:"type:uuid;index" json:"order_id"`
	AmountCents    int64                `json:"amount_cents"`
	Currency       string               `json:"currency"`
	Status         PaymentSessionStatus `gorm:"size:16" json:"status"`
	Cart           datatypes.JSON       `json:"cart"`
	ConfirmedAt    *time.Time           `json:"confirmed_at"`
}
