// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/jinsharnam/internal/config"
	"github.com/example/jinsharnam/internal/database"
	"github.com/example/jinsharnam/internal/models"
	"github.com/example/jinsharnam/internal/utils"
)

var phoneSeq atomic.Int64

// Password is the plaintext password of every user created by CreateUser.
const Password = "secret123"

// NewDB opens a private in-memory SQLite database with the production schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// Config returns a configuration suitable for tests.
func Config() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		JWTSecret:       "test-secret",
		TokenExpires:    time.Hour,
		OTPCountryCode:  "+91",
		OTPTTL:          5 * time.Minute,
		SMSTimeout:      time.Second,
		PaymentCurrency: "inr",
		PaymentTimeout:  time.Second,
	}
}

// CreateProduct inserts a product.
func CreateProduct(t testing.TB, db *gorm.DB, sku string, priceCents int64, active bool) models.Product {
	t.Helper()

	product := models.Product{
		SKU:        sku,
		Title:      "Title " + sku,
		PriceCents: priceCents,
		Active:     active,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

// CreateUser inserts a registered account with Password as its password.
func CreateUser(t testing.TB, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()

	hash, err := utils.HashPassword(Password)
	require.NoError(t, err)

	phone := fmt.Sprintf("+9170000%05d", phoneSeq.Add(1))
	user := models.User{
		Name:          strings.Split(email, "@")[0],
		Email:         &email,
		PasswordHash:  hash,
		Phone:         &phone,
		PhoneVerified: true,
		Role:          role,
		Kind:          models.IdentityRegistered,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}
