package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/jinsharnam/internal/models"
)

// PaymentSucceeded is the gateway status of a captured payment.
const PaymentSucceeded = "succeeded"

// GatewayOrderRequest asks the gateway to open a payment for an amount.
type GatewayOrderRequest struct {
	AmountCents int64
	Currency    string
	Receipt     string
}

// GatewayOrder is the handle the client uses to complete a payment.
type GatewayOrder struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
}

// GatewayPayment is the gateway's view of a payment.
type GatewayPayment struct {
	ID          string
	AmountCents int64
	Currency    string
	Status      string
}

// PaymentGateway is an external payment provider.
type PaymentGateway interface {
	Provider() string
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	FetchPayment(ctx context.Context, id string) (*GatewayPayment, error)
}

// StripeGateway implements PaymentGateway with Stripe PaymentIntents.
type StripeGateway struct {
	api     *client.API
	timeout time.Duration
}

// NewStripeGateway constructs a StripeGateway for secretKey.
func NewStripeGateway(secretKey string, timeout time.Duration) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, timeout: timeout}
}

// Provider implements PaymentGateway.
func (g *StripeGateway) Provider() string { return "stripe" }

// CreateOrder implements PaymentGateway.
func (g *StripeGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("receipt", req.Receipt)

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &GatewayOrder{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.Amount,
		Currency:     string(intent.Currency),
	}, nil
}

// FetchPayment implements PaymentGateway.
func (g *StripeGateway) FetchPayment(ctx context.Context, id string) (*GatewayPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("fetch payment intent: %w", err)
	}

	return &GatewayPayment{
		ID:          intent.ID,
		AmountCents: intent.Amount,
		Currency:    string(intent.Currency),
		Status:      string(intent.Status),
	}, nil
}

// CheckoutSession is returned to the client to complete a payment.
type CheckoutSession struct {
	GatewayOrderID string      `json:"gateway_order_id"`
	ClientSecret   string      `json:"client_secret,omitempty"`
	Provider       string      `json:"provider"`
	AmountCents    int64       `json:"amount_cents"`
	Currency       string      `json:"currency"`
	Cart           *PricedCart `json:"cart"`
}

type cartSnapshotLine struct {
	ProductID  uuid.UUID `json:"product_id"`
	Title      string    `json:"title"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"price_cents"`
}

// PaymentService bridges the store and the payment gateway.
type PaymentService struct {
	db       *gorm.DB
	catalog  *CatalogService
	orders   *OrderService
	gateway  PaymentGateway
	currency string
	now      func() time.Time
}

// NewPaymentService constructs a PaymentService. A nil gateway disables payments.
func NewPaymentService(db *gorm.DB, catalog *CatalogService, orders *OrderService, gateway PaymentGateway, currency string) *PaymentService {
	return &PaymentService{
		db:       db,
		catalog:  catalog,
		orders:   orders,
		gateway:  gateway,
		currency: strings.ToLower(currency),
		now:      time.Now,
	}
}

// Available reports whether a gateway is configured.
func (s *PaymentService) Available() bool {
	return s.gateway != nil
}

// CreateGatewayOrder reprices the cart and opens a gateway payment for the
// server-computed total. No store order is created.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, userID *uuid.UUID, lines []CartLine) (*CheckoutSession, error) {
	if !s.Available() {
		return nil, ErrPaymentUnavailable
	}

	cart, err := s.catalog.PriceCart(ctx, lines)
	if err != nil {
		return nil, err
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		AmountCents: cart.TotalCents,
		Currency:    s.currency,
		Receipt:     "rcpt_" + uuid.NewString(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "gateway order failed", "amount_cents", cart.TotalCents, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	snapshot := make([]cartSnapshotLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		snapshot = append(snapshot, cartSnapshotLine{
			ProductID:  line.Product.ID,
			Title:      line.Product.Title,
			Quantity:   line.Quantity,
			PriceCents: line.PriceCents,
		})
	}
	rawCart, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	session := models.PaymentSession{
		GatewayOrderID: gatewayOrder.ID,
		Provider:       s.gateway.Provider(),
		UserID:         userID,
		AmountCents:    cart.TotalCents,
		Currency:       s.currency,
		Status:         models.PaymentSessionCreated,
		Cart:           datatypes.JSON(rawCart),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("store payment session: %w", err)
	}

	return &CheckoutSession{
		GatewayOrderID: gatewayOrder.ID,
		ClientSecret:   gatewayOrder.ClientSecret,
		Provider:       session.Provider,
		AmountCents:    cart.TotalCents,
		Currency:       s.currency,
		Cart:           cart,
	}, nil
}

// ConfirmPayment checks with the gateway that the payment was captured for
// exactly the order total, then links it to the order. The order status is
// left for admins to advance.
func (s *PaymentService) ConfirmPayment(ctx context.Context, requester *Identity, orderID uuid.UUID, gatewayOrderID string) (*models.Order, error) {
	if !s.Available() {
		return nil, ErrPaymentUnavailable
	}
	if strings.TrimSpace(gatewayOrderID) == "" {
		return nil, invalid("gateway_order_id", "is required")
	}

	order, err := s.orders.GetOrder(ctx, requester, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentID != nil {
		if *order.PaymentID == gatewayOrderID {
			return order, nil
		}
		return nil, ErrOrderAlreadyPaid
	}

	payment, err := s.gateway.FetchPayment(ctx, gatewayOrderID)
	if err != nil {
		slog.ErrorContext(ctx, "gateway lookup failed", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if payment.Status != PaymentSucceeded ||
		payment.AmountCents != order.TotalCents ||
		!strings.EqualFold(payment.Currency, s.currency) {
		slog.WarnContext(ctx, "payment not captured for order",
			"order_id", orderID, "gateway_order_id", gatewayOrderID,
			"status", payment.Status, "amount_cents", payment.AmountCents)
		return nil, ErrPaymentNotCaptured
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.PaymentSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway_order_id = ?", gatewayOrderID).
			First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotCaptured
			}
			return err
		}
		if session.Status == models.PaymentSessionConfirmed {
			return fmt.Errorf("%w: payment already settled another order", ErrPaymentNotCaptured)
		}
		if session.UserID != nil && *session.UserID != order.UserID {
			return fmt.Errorf("%w: payment belongs to another account", ErrPaymentNotCaptured)
		}
		if session.AmountCents != order.TotalCents {
			return fmt.Errorf("%w: payment was opened for a different cart", ErrPaymentNotCaptured)
		}

		confirmedAt := s.now()
		if err := tx.Model(&session).Updates(map[string]any{
			"status":       models.PaymentSessionConfirmed,
			"order_id":     orderID,
			"confirmed_at": confirmedAt,
		}).Error; err != nil {
			return err
		}

		return attachPayment(tx, orderID, gatewayOrderID)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "payment confirmed", "order_id", orderID, "gateway_order_id", gatewayOrderID)
	return s.orders.GetOrder(ctx, requester, orderID)
}
