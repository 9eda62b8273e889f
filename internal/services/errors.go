package services

import (
	"errors"
	"fmt"

	"github.com/example/jinsharnam/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrConflict           = errors.New("account already exists")
	ErrPhoneNotVerified   = errors.New("phone number is not verified")

	ErrOTPNotFound    = errors.New("no verification request for this phone number")
	ErrOTPMismatch    = errors.New("invalid verification code")
	ErrOTPExpired     = errors.New("verification code expired")
	ErrDispatchFailed = errors.New("failed to send verification code")

	ErrResetNotFound    = errors.New("invalid reset token")
	ErrResetUsed        = errors.New("reset token already used")
	ErrResetNotVerified = errors.New("reset code not verified yet")

	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidProduct    = errors.New("invalid product in cart")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderAlreadyPaid  = errors.New("order already has a payment attached")

	ErrPaymentUnavailable = errors.New("payment gateway is not configured")
	ErrUpstream           = errors.New("upstream service failure")
	ErrPaymentNotCaptured = errors.New("payment has not been captured for this order")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// TransitionError names the rejected edge of the order lifecycle.
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
