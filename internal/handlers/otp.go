package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/jinsharnam/internal/services"
)

// OTPHandler serves phone verification endpoints.
type OTPHandler struct {
	otp *services.OTPService
}

// NewOTPHandler constructs an OTPHandler.
func NewOTPHandler(otp *services.OTPService) *OTPHandler {
	return &OTPHandler{otp: otp}
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

// Send issues a verification code to the phone number.
func (h *OTPHandler) Send(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone number required")
	}

	if err := h.otp.RequestOTP(c.UserContext(), req.Phone); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent successfully",
	})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// Verify checks a verification code.
func (h *OTPHandler) Verify(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.otp.VerifyOTP(c.UserContext(), req.Phone, req.OTP); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": true,
	})
}
