package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/jinsharnam/internal/config"
	"github.com/example/jinsharnam/internal/metrics"
	"github.com/example/jinsharnam/internal/models"
	"github.com/example/jinsharnam/internal/utils"
)

const otpDigits = 6

// OTPService issues and checks the one-time codes that prove phone ownership.
type OTPService struct {
	db          *gorm.DB
	sms         SMSSender
	countryCode string
	ttl         time.Duration
	sendTimeout time.Duration
	now         func() time.Time
}

// NewOTPService constructs an OTPService.
func NewOTPService(db *gorm.DB, sms SMSSender, cfg *config.Config) *OTPService {
	return &OTPService{
		db:          db,
		sms:         sms,
		countryCode: cfg.OTPCountryCode,
		ttl:         cfg.OTPTTL,
		sendTimeout: cfg.SMSTimeout,
		now:         time.Now,
	}
}

// NormalizePhone converts raw input into the stored phone format.
func (s *OTPService) NormalizePhone(phone string) string {
	return utils.NormalizePhone(phone, s.countryCode)
}

// RequestOTP stores a fresh code for phone and sends it by SMS.
// The stored code stays valid when delivery fails, so the caller may retry.
func (s *OTPService) RequestOTP(ctx context.Context, phone string) error {
	normalized := s.NormalizePhone(phone)
	if !utils.ValidPhone(normalized) {
		return invalid("phone", "is not a valid phone number")
	}

	code, err := utils.GenerateNumericCode(otpDigits)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expiresAt := s.now().Add(s.ttl)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("phone = ?", normalized).
			First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Phone:        &normalized,
				OTP:          &code,
				OTPExpiresAt: &expiresAt,
				Role:         models.RoleUser,
				Kind:         models.IdentityPending,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&user).Updates(map[string]any{
			"otp":            code,
			"otp_expires_at": expiresAt,
		}).Error
	})
	if err != nil {
		metrics.OTPRequests.WithLabelValues("store_error").Inc()
		return fmt.Errorf("store otp: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.sms.SendOTP(sendCtx, normalized, code); err != nil {
		metrics.OTPRequests.WithLabelValues("dispatch_failed").Inc()
		slog.WarnContext(ctx, "otp dispatch failed", "phone", normalized, "error", err)
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	metrics.OTPRequests.WithLabelValues("sent").Inc()
	return nil
}

// VerifyOTP checks code against the stored one and marks the phone verified.
// Failed checks leave the record untouched.
func (s *OTPService) VerifyOTP(ctx context.Context, phone, code string) error {
	normalized := s.NormalizePhone(phone)
	if normalized == "" {
		return invalid("phone", "is required")
	}
	if code == "" {
		return invalid("otp", "is required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("phone = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOTPNotFound
		}
		return err
	}

	if user.OTP == nil || *user.OTP != code {
		return ErrOTPMismatch
	}
	if user.OTPExpiresAt == nil || s.now().After(*user.OTPExpiresAt) {
		return ErrOTPExpired
	}

	// Conditional on the code so a concurrent re-request wins.
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND otp = ?", user.ID, code).
		Updates(map[string]any{
			"otp":            nil,
			"otp_expires_at": nil,
			"phone_verified": true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOTPMismatch
	}

	slog.InfoContext(ctx, "phone verified", "user_id", user.ID)
	return nil
}
