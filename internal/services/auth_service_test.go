package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/jinsharnam/internal/models"
	"github.com/example/jinsharnam/internal/testutil"
	"github.com/example/jinsharnam/internal/utils"
)

// verifyPhone runs the OTP flow for phone so signup can proceed.
func verifyPhone(t *testing.T, db *gorm.DB, phone string) {
	t.Helper()
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(utils.NormalizePhone(phone, "+91"), &codes, nil)
	otp := NewOTPService(db, sms, testutil.Config())

	ctx := context.Background()
	require.NoError(t, otp.RequestOTP(ctx, phone))
	require.NoError(t, otp.VerifyOTP(ctx, phone, codes[0]))
}

func signupInput(phone, email string) SignupInput {
	return SignupInput{
		Name:     "Asha Jain",
		Email:    email,
		Password: "s3cret-pass",
		Phone:    phone,
		Address:  "12 Temple Road, Indore",
	}
}

func TestSignupCompletesVerifiedIdentity(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())
	ctx := context.Background()
	verifyPhone(t, db, "9876543210")

	user, err := auth.Signup(ctx, signupInput("9876543210", "Asha@Example.com"))
	require.NoError(t, err)

	assert.Equal(t, models.IdentityRegistered, user.Kind)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.PhoneVerified)
	require.NotNil(t, user.Email)
	assert.Equal(t, "asha@example.com", *user.Email)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.True(t, utils.CheckPassword(user.PasswordHash, "s3cret-pass"))
	assert.Nil(t, user.OTP)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSignupRequiresVerifiedPhone(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())
	ctx := context.Background()

	_, err := auth.Signup(ctx, signupInput("9876543210", "asha@example.com"))
	assert.ErrorIs(t, err, ErrPhoneNotVerified)

	// An OTP was requested but never verified.
	sms := &mockSMS{}
	var codes []string
	sms.expectSend(testPhone, &codes, nil)
	require.NoError(t, NewOTPService(db, sms, testutil.Config()).RequestOTP(ctx, testPhone))

	_, err = auth.Signup(ctx, signupInput("9876543210", "asha@example.com"))
	assert.ErrorIs(t, err, ErrPhoneNotVerified)
}

func TestSignupConflicts(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())
	ctx := context.Background()

	verifyPhone(t, db, "9876543210")
	_, err := auth.Signup(ctx, signupInput("9876543210", "asha@example.com"))
	require.NoError(t, err)

	_, err = auth.Signup(ctx, signupInput("9876543210", "other@example.com"))
	assert.ErrorIs(t, err, ErrConflict)

	verifyPhone(t, db, "9123456780")
	_, err = auth.Signup(ctx, signupInput("9123456780", "ASHA@example.com"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSignupValidation(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())

	cases := []struct {
		name  string
		edit  func(*SignupInput)
		field string
	}{
		{"missing name", func(in *SignupInput) { in.Name = " " }, "name"},
		{"missing email", func(in *SignupInput) { in.Email = "" }, "email"},
		{"bad email", func(in *SignupInput) { in.Email = "not-an-email" }, "email"},
		{"missing phone", func(in *SignupInput) { in.Phone = "" }, "phone"},
		{"short password", func(in *SignupInput) { in.Password = "abc" }, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := signupInput("9876543210", "asha@example.com")
			tc.edit(&in)

			_, err := auth.Signup(context.Background(), in)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tc.field, validation.Field)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "asha@example.com", models.RoleAdmin)

	identity, err := auth.Authenticate(ctx, " ASHA@example.com ", testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, "asha@example.com", identity.Email)
	assert.Equal(t, models.RoleAdmin, identity.Role)

	_, err = auth.Authenticate(ctx, "asha@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "nobody@example.com", testutil.Password)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsPendingIdentity(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())

	email := "pending@example.com"
	hash, err := utils.HashPassword(testutil.Password)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Email:        &email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Kind:         models.IdentityPending,
	}).Error)

	_, err = auth.Authenticate(context.Background(), email, testutil.Password)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())
	user := testutil.CreateUser(t, db, "asha@example.com", models.RoleUser)

	token, err := auth.IssueSession(identityOf(&user))
	require.NoError(t, err)

	identity, err := auth.ResolveSession(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, models.RoleUser, identity.Role)
	assert.False(t, identity.IsAdmin())
}

func TestResolveSessionRejectsBadTokens(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := testutil.Config()
	auth := NewAuthService(db, cfg)
	user := testutil.CreateUser(t, db, "asha@example.com", models.RoleUser)

	_, err := auth.ResolveSession("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	foreign, err := utils.GenerateToken("another-secret", user.ID, string(models.RoleUser), time.Hour)
	require.NoError(t, err)
	_, err = auth.ResolveSession(foreign)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	expired, err := utils.GenerateToken(cfg.JWTSecret, user.ID, string(models.RoleUser), -time.Minute)
	require.NoError(t, err)
	_, err = auth.ResolveSession(expired)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	unknownRole, err := utils.GenerateToken(cfg.JWTSecret, user.ID, "ROOT", time.Hour)
	require.NoError(t, err)
	_, err = auth.ResolveSession(unknownRole)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "asha@example.com", models.RoleUser)

	address := "7 Lake View, Bhopal"
	updated, err := auth.UpdateProfile(ctx, user.ID, ProfileUpdate{Address: &address})
	require.NoError(t, err)
	assert.Equal(t, address, updated.Address)
	assert.Equal(t, user.Name, updated.Name)

	blank := "  "
	_, err = auth.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: &blank})
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestPromoteAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "asha@example.com", models.RoleUser)

	require.NoError(t, auth.PromoteAdmin(ctx, "Asha@example.com"))

	reloaded, err := auth.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdmin())

	assert.ErrorIs(t, auth.PromoteAdmin(ctx, "missing@example.com"), ErrUserNotFound)
}

func TestFindUser(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(db, testutil.Config())
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "asha@example.com", models.RoleUser)

	byEmail, err := auth.FindByEmail(ctx, "ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	national := utils.NationalNumber(*user.Phone, "+91")
	byPhone, err := auth.FindByPhone(ctx, national)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byPhone.ID)

	_, err = auth.FindByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = auth.FindByPhone(ctx, "9000000000")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
