package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/jinsharnam/internal/models"
	"github.com/example/jinsharnam/internal/testutil"
)

const testPhone = "+919876543210"

func newOTPService(t *testing.T, db *gorm.DB, sms SMSSender) (*OTPService, *time.Time) {
	t.Helper()
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewOTPService(db, sms, testutil.Config())
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func loadByPhone(t *testing.T, db *gorm.DB, phone string) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("phone = ?", phone).First(&user).Error)
	return user
}

func TestRequestOTPCreatesPendingIdentity(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(testPhone, &codes, nil)
	svc, clock := newOTPService(t, db, sms)

	require.NoError(t, svc.RequestOTP(context.Background(), "9876543210"))

	require.Len(t, codes, 1)
	assert.Regexp(t, `^\d{6}$`, codes[0])

	user := loadByPhone(t, db, testPhone)
	assert.Equal(t, models.IdentityPending, user.Kind)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.PhoneVerified)
	assert.Nil(t, user.Email)
	require.NotNil(t, user.OTP)
	assert.Equal(t, codes[0], *user.OTP)
	require.NotNil(t, user.OTPExpiresAt)
	assert.WithinDuration(t, clock.Add(5*time.Minute), *user.OTPExpiresAt, time.Second)
	sms.AssertExpectations(t)
}

func TestRequestThenVerifyOTP(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(testPhone, &codes, nil)
	svc, _ := newOTPService(t, db, sms)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "9876543210"))
	require.NoError(t, svc.VerifyOTP(ctx, "9876543210", codes[0]))

	user := loadByPhone(t, db, testPhone)
	assert.True(t, user.PhoneVerified)
	assert.Nil(t, user.OTP)
	assert.Nil(t, user.OTPExpiresAt)

	// The code was consumed; the row still exists.
	err := svc.VerifyOTP(ctx, "9876543210", codes[0])
	assert.ErrorIs(t, err, ErrOTPMismatch)
}

func TestVerifyOTPAfterExpiry(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(testPhone, &codes, nil)
	svc, clock := newOTPService(t, db, sms)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, testPhone))

	*clock = clock.Add(5*time.Minute + time.Second)
	err := svc.VerifyOTP(ctx, testPhone, codes[0])
	assert.ErrorIs(t, err, ErrOTPExpired)

	user := loadByPhone(t, db, testPhone)
	assert.False(t, user.PhoneVerified)
	require.NotNil(t, user.OTP)
	assert.Equal(t, codes[0], *user.OTP)
}

func TestVerifyOTPAtExpiryBoundary(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(testPhone, &codes, nil)
	svc, clock := newOTPService(t, db, sms)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, testPhone))

	*clock = clock.Add(5 * time.Minute)
	assert.NoError(t, svc.VerifyOTP(ctx, testPhone, codes[0]))
}

func TestVerifyOTPMismatchLeavesState(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(testPhone, &codes, nil)
	svc, _ := newOTPService(t, db, sms)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, testPhone))

	wrong := "000000"
	if codes[0] == wrong {
		wrong = "111111"
	}
	err := svc.VerifyOTP(ctx, testPhone, wrong)
	assert.ErrorIs(t, err, ErrOTPMismatch)

	user := loadByPhone(t, db, testPhone)
	assert.False(t, user.PhoneVerified)
	require.NotNil(t, user.OTP)
	assert.Equal(t, codes[0], *user.OTP)

	assert.NoError(t, svc.VerifyOTP(ctx, testPhone, codes[0]))
}

func TestVerifyOTPUnknownPhone(t *testing.T) {
	db := testutil.NewDB(t)
	svc, _ := newOTPService(t, db, &mockSMS{})

	err := svc.VerifyOTP(context.Background(), "9000000000", "123456")
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestRequestOTPDispatchFailureKeepsCode(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(testPhone, &codes, errors.New("provider down"))
	svc, _ := newOTPService(t, db, sms)
	ctx := context.Background()

	err := svc.RequestOTP(ctx, testPhone)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDispatchFailed)

	assert.NoError(t, svc.VerifyOTP(ctx, testPhone, codes[0]))
}

func TestRequestOTPAgainOverwritesCode(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(testPhone, &codes, nil)
	svc, _ := newOTPService(t, db, sms)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, testPhone))
	require.NoError(t, svc.RequestOTP(ctx, "+91 98765-43210"))
	require.Len(t, codes, 2)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("phone = ?", testPhone).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	user := loadByPhone(t, db, testPhone)
	require.NotNil(t, user.OTP)
	assert.Equal(t, codes[1], *user.OTP)
}

func TestRequestOTPKeepsVerifiedFlag(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(testPhone, &codes, nil)
	svc, _ := newOTPService(t, db, sms)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, testPhone))
	require.NoError(t, svc.VerifyOTP(ctx, testPhone, codes[0]))
	require.NoError(t, svc.RequestOTP(ctx, testPhone))

	user := loadByPhone(t, db, testPhone)
	assert.True(t, user.PhoneVerified)
	assert.NotNil(t, user.OTP)
}

func TestRequestOTPRejectsInvalidPhone(t *testing.T) {
	db := testutil.NewDB(t)
	svc, _ := newOTPService(t, db, &mockSMS{})

	err := svc.RequestOTP(context.Background(), "12ab")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "phone", validation.Field)
}
