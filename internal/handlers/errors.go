package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/example/jinsharnam/internal/services"
)

// ErrorHandler renders every error in the response envelope. Details of
// internal failures are logged, not returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(toHTTPError(err), &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code == fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err.Error(),
		)
		message = "internal server error"
	} else if code >= fiber.StatusInternalServerError {
		slog.WarnContext(c.UserContext(), "upstream failure", "path", c.Path(), "error", err.Error())
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// toHTTPError maps service errors onto HTTP status codes.
func toHTTPError(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	var validation *services.ValidationError
	if errors.As(err, &validation) {
		return fiber.NewError(fiber.StatusBadRequest, validation.Error())
	}

	var transition *services.TransitionError
	if errors.As(err, &transition) {
		return fiber.NewError(fiber.StatusConflict, transition.Error())
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	case errors.Is(err, services.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "admin access required")

	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrOTPNotFound),
		errors.Is(err, services.ErrResetNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())

	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidProduct),
		errors.Is(err, services.ErrPhoneNotVerified),
		errors.Is(err, services.ErrOTPMismatch),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrResetUsed),
		errors.Is(err, services.ErrResetNotVerified):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())

	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrOrderAlreadyPaid),
		errors.Is(err, services.ErrPaymentNotCaptured):
		return fiber.NewError(fiber.StatusConflict, err.Error())

	case errors.Is(err, services.ErrDispatchFailed):
		return fiber.NewError(fiber.StatusBadGateway, services.ErrDispatchFailed.Error())
	case errors.Is(err, services.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, services.ErrUpstream.Error())
	case errors.Is(err, services.ErrPaymentUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, services.ErrPaymentUnavailable.Error())
	}

	return err
}
