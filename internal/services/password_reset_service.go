package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/jinsharnam/internal/config"
	"github.com/example/jinsharnam/internal/models"
	"github.com/example/jinsharnam/internal/utils"
)

const resetTTL = 10 * time.Minute

var errNoResetAccount = errors.New("no registered account for phone")

// PasswordResetService lets a registered user set a new password after
// proving ownership of their phone with an SMS code.
type PasswordResetService struct {
	db          *gorm.DB
	sms         SMSSender
	countryCode string
	sendTimeout time.Duration
	now         func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(db *gorm.DB, sms SMSSender, cfg *config.Config) *PasswordResetService {
	return &PasswordResetService{
		db:          db,
		sms:         sms,
		countryCode: cfg.OTPCountryCode,
		sendTimeout: cfg.SMSTimeout,
		now:         time.Now,
	}
}

// Start opens a reset attempt for the account registered on phone, sends the
// code by SMS and returns the attempt token. Older open attempts are closed.
// A phone with no registered account gets a token that matches no attempt, so
// callers cannot tell the two cases apart.
func (s *PasswordResetService) Start(ctx context.Context, phone string) (string, error) {
	normalized := utils.NormalizePhone(phone, s.countryCode)
	if !utils.ValidPhone(normalized) {
		return "", invalid("phone", "is not a valid phone number")
	}

	code, err := utils.GenerateNumericCode(otpDigits)
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	token, err := newResetToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("phone = ? AND kind = ?", normalized, models.IdentityRegistered).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errNoResetAccount
		}

		if err := tx.Model(&models.PasswordReset{}).
			Where("phone = ? AND used_at IS NULL", normalized).
			Update("used_at", now).Error; err != nil {
			return err
		}

		return tx.Create(&models.PasswordReset{
			Phone:     normalized,
			Token:     token,
			Code:      code,
			ExpiresAt: now.Add(resetTTL),
		}).Error
	})
	if errors.Is(err, errNoResetAccount) {
		slog.InfoContext(ctx, "password reset requested for unknown phone", "phone", normalized)
		return token, nil
	}
	if err != nil {
		return "", err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.sms.SendOTP(sendCtx, normalized, code); err != nil {
		slog.WarnContext(ctx, "reset code dispatch failed", "phone", normalized, "error", err)
		return "", fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	return token, nil
}

// Verify checks the SMS code of a reset attempt.
func (s *PasswordResetService) Verify(ctx context.Context, token, code string) error {
	if token == "" || code == "" {
		return invalid("", "token and code are required")
	}

	reset, err := s.open(s.db.WithContext(ctx), token)
	if err != nil {
		return err
	}
	if reset.Code != code {
		return ErrOTPMismatch
	}

	return s.db.WithContext(ctx).Model(reset).Update("verified", true).Error
}

// Complete replaces the account password of a verified attempt and closes it.
func (s *PasswordResetService) Complete(ctx context.Context, token, password string) error {
	if token == "" {
		return invalid("token", "is required")
	}
	if len(password) < minPasswordLength {
		return invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reset, err := s.open(tx.Clauses(clause.Locking{Strength: "UPDATE"}), token)
		if err != nil {
			return err
		}
		if !reset.Verified {
			return ErrResetNotVerified
		}

		res := tx.Model(&models.User{}).
			Where("phone = ? AND kind = ?", reset.Phone, models.IdentityRegistered).
			Update("password_hash", hash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		slog.InfoContext(ctx, "password reset", "phone", reset.Phone)
		return tx.Model(reset).Update("used_at", s.now()).Error
	})
}

// open loads an attempt that is neither used nor expired.
func (s *PasswordResetService) open(db *gorm.DB, token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := db.Where("token = ?", token).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResetNotFound
		}
		return nil, err
	}
	if reset.UsedAt != nil {
		return nil, ErrResetUsed
	}
	if s.now().After(reset.ExpiresAt) {
		return nil, ErrOTPExpired
	}
	return &reset, nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
