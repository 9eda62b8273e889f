package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/example/jinsharnam/internal/config"
	"github.com/example/jinsharnam/internal/handlers"
	"github.com/example/jinsharnam/internal/metrics"
	"github.com/example/jinsharnam/internal/middleware"
	"github.com/example/jinsharnam/internal/services"
)

// Integrations are the external collaborators behind the routes.
// A nil Payments disables the payment endpoints; a nil Notifier disables
// admin notifications.
type Integrations struct {
	SMS      services.SMSSender
	Payments services.PaymentGateway
	Notifier services.OrderNotifier
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, ext Integrations) {
	authService := services.NewAuthService(db, cfg)
	otpService := services.NewOTPService(db, ext.SMS, cfg)
	resetService := services.NewPasswordResetService(db, ext.SMS, cfg)
	catalogService := services.NewCatalogService(db)
	orderService := services.NewOrderService(db, ext.Notifier)
	paymentService := services.NewPaymentService(db, catalogService, orderService, ext.Payments, cfg.PaymentCurrency)
	directoryService := services.NewDirectoryService(db)

	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(authService)
	otpHandler := handlers.NewOTPHandler(otpService)
	resetHandler := handlers.NewPasswordResetHandler(resetService)
	productHandler := handlers.NewProductHandler(catalogService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	profileHandler := handlers.NewProfileHandler(authService)
	directoryHandler := handlers.NewDirectoryHandler(directoryService)
	adminHandler := handlers.NewAdminHandler(orderService, authService)

	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")
	api.Get("/health", healthHandler.Check)

	// Auth routes
	api.Post("/signup", authHandler.Signup)
	api.Post("/login", authHandler.Login)

	// OTP routes
	otp := api.Group("/otp", smsRateLimit())
	otp.Post("/send", otpHandler.Send)
	otp.Post("/verify", otpHandler.Verify)

	// Password reset
	password := api.Group("/password", smsRateLimit())
	password.Post("/forgot", resetHandler.ForgotPassword)
	password.Post("/verify", resetHandler.VerifyResetCode)
	password.Post("/reset", resetHandler.ResetPassword)

	// Catalog and directory
	productHandler.RegisterProductRoutes(api.Group("/products"))
	api.Get("/directory", directoryHandler.Search)

	// Payment bridge
	payment := api.Group("/payment")
	payment.Post("/create-order", middleware.OptionalAuth(authService), paymentHandler.CreateOrder)
	payment.Post("/confirm", middleware.AuthMiddleware(authService), paymentHandler.Confirm)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(authService))

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Patch("/orders/:id", orderHandler.UpdateStatus)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)

	// Admin console
	admin := api.Group("/admin", middleware.AuthMiddleware(authService), middleware.RequireAdmin())
	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Patch("/orders/:id", adminHandler.UpdateOrderStatus)
	admin.Get("/users", adminHandler.ListAllUsers)
}

// smsRateLimit allows 5 requests per minute per IP on routes that send SMS.
func smsRateLimit() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               5,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}
