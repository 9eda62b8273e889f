package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/jinsharnam/internal/models"
	"github.com/example/jinsharnam/internal/testutil"
	"github.com/example/jinsharnam/internal/utils"
)

func newResetService(t *testing.T, db *gorm.DB, sms SMSSender) (*PasswordResetService, *time.Time) {
	t.Helper()
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewPasswordResetService(db, sms, testutil.Config())
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func TestPasswordResetFlow(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "asha@example.com", models.RoleUser)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(*user.Phone, &codes, nil)
	resets, _ := newResetService(t, db, sms)
	ctx := context.Background()

	token, err := resets.Start(ctx, *user.Phone)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Len(t, token, 64)

	assert.ErrorIs(t, resets.Complete(ctx, token, "n3w-password"), ErrResetNotVerified)

	wrong := "000000"
	if codes[0] == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, resets.Verify(ctx, token, wrong), ErrOTPMismatch)
	require.NoError(t, resets.Verify(ctx, token, codes[0]))

	var validation *ValidationError
	assert.ErrorAs(t, resets.Complete(ctx, token, "abc"), &validation)
	require.NoError(t, resets.Complete(ctx, token, "n3w-password"))

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.True(t, utils.CheckPassword(stored.PasswordHash, "n3w-password"))
	assert.False(t, utils.CheckPassword(stored.PasswordHash, testutil.Password))

	assert.ErrorIs(t, resets.Complete(ctx, token, "another-one"), ErrResetUsed)
	assert.ErrorIs(t, resets.Verify(ctx, "unknown", codes[0]), ErrResetNotFound)
	sms.AssertExpectations(t)
}

func TestPasswordResetExpiry(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "asha@example.com", models.RoleUser)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(*user.Phone, &codes, nil)
	resets, clock := newResetService(t, db, sms)
	ctx := context.Background()

	token, err := resets.Start(ctx, *user.Phone)
	require.NoError(t, err)

	*clock = clock.Add(resetTTL + time.Second)
	assert.ErrorIs(t, resets.Verify(ctx, token, codes[0]), ErrOTPExpired)
}

func TestPasswordResetSupersedesOlderAttempt(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "asha@example.com", models.RoleUser)
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(*user.Phone, &codes, nil)
	resets, clock := newResetService(t, db, sms)
	ctx := context.Background()

	first, err := resets.Start(ctx, *user.Phone)
	require.NoError(t, err)
	*clock = clock.Add(time.Minute)
	second, err := resets.Start(ctx, *user.Phone)
	require.NoError(t, err)
	require.Len(t, codes, 2)

	assert.ErrorIs(t, resets.Verify(ctx, first, codes[0]), ErrResetUsed)
	assert.NoError(t, resets.Verify(ctx, second, codes[1]))
}

func TestPasswordResetUnknownAccount(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &mockSMS{}
	resets, _ := newResetService(t, db, sms)
	ctx := context.Background()

	// Unknown phones look like a successful request but nothing is stored or sent.
	token, err := resets.Start(ctx, "9876543210")
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.ErrorIs(t, resets.Verify(ctx, token, "123456"), ErrResetNotFound)

	// Pending identities from an OTP request cannot reset a password.
	phone := testPhone
	require.NoError(t, db.Create(&models.User{Phone: &phone, Role: models.RoleUser, Kind: models.IdentityPending}).Error)
	token, err = resets.Start(ctx, phone)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.ErrorIs(t, resets.Verify(ctx, token, "123456"), ErrResetNotFound)

	var attempts int64
	require.NoError(t, db.Model(&models.PasswordReset{}).Count(&attempts).Error)
	assert.Zero(t, attempts)
	sms.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything)
}
