package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/config"
	"github.com/example/mediatower/internal/handlers"
	"github.com/example/mediatower/internal/middleware"
	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
)

// Register wires up all HTTP routes and returns the booking service so the
// caller can start the payment-deadline sweep.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, storage services.Storage) *services.BookingService {
	mailer := services.NewEmailService(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)
	notifications := services.NewNotificationService(db)
	promotions := services.NewPromotionService(db)
	delivery := services.NewDeliveryService(db, mailer, notifications)
	orders := services.NewOrderService(db, delivery, promotions)
	bookings := services.NewBookingService(db, mailer, notifications)
	stripeSvc := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	paypalSvc := services.NewPayPalService(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalSecret)
	payments := services.NewPaymentService(db, orders, bookings)
	presence := services.NewPresenceService(cfg.RedisAddr)
	settings := services.NewSettingService(db)
	audit := services.NewAuditLogService(db)
	stats := services.NewStatsService(db)

	authHandler := handlers.NewAuthHandler(db, cfg, audit)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db, storage)
	orderHandler := handlers.NewOrderHandler(db, orders)
	bookingHandler := handlers.NewBookingHandler(db, bookings)
	paymentHandler := handlers.NewPaymentHandler(db, stripeSvc, paypalSvc, payments)
	webhookHandler := handlers.NewWebhookHandler(stripeSvc, payments)
	promotionHandler := handlers.NewPromotionHandler(db, promotions)
	reviewHandler := handlers.NewReviewHandler(db, orders)
	accessHandler := handlers.NewAccessHandler(db, storage)
	notificationHandler := handlers.NewNotificationHandler(db)
	adminHandler := handlers.NewAdminHandler(db, audit)
	presenceHandler := handlers.NewPresenceHandler(presence)
	settingHandler := handlers.NewSettingHandler(settings)
	contentHandler := handlers.NewContentHandler(db)
	statsHandler := handlers.NewStatsHandler(stats)

	api := app.Group("/api")

	// Webhooks are unauthenticated; each handler verifies its own payload.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/stripe", webhookHandler.Stripe)
	webhooks.Post("/paypal", webhookHandler.PayPal)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public catalog
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/:id", catalogHandler.GetCategory)
	api.Get("/tags", catalogHandler.ListTags)
	api.Get("/services", catalogHandler.ListServices)
	api.Get("/services/:id", catalogHandler.GetService)
	api.Get("/services/:id/reviews", reviewHandler.ListServiceReviews)
	api.Get("/packs", catalogHandler.ListPacks)
	api.Get("/packs/:id", catalogHandler.GetPack)
	api.Get("/products", productHandler.List)
	api.Get("/products/:id", productHandler.Get)
	api.Get("/products/:id/reviews", reviewHandler.ListProductReviews)
	api.Get("/presence/admins", presenceHandler.OnlineAdmins)
	api.Get("/settings", settingHandler.List)
	api.Get("/content", contentHandler.List)
	api.Get("/content/:slug", contentHandler.GetBySlug)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/mfa/setup", authHandler.SetupMFA)
	protected.Post("/auth/mfa/enable", authHandler.EnableMFA)
	protected.Post("/auth/mfa/disable", authHandler.DisableMFA)

	protected.Post("/orders", orderHandler.Create)
	protected.Get("/orders/mine", orderHandler.ListMine)
	protected.Get("/orders/:id", orderHandler.Get)
	protected.Post("/orders/:id/payment/stripe", paymentHandler.CreateOrderIntent)
	protected.Post("/orders/:id/payment/paypal", paymentHandler.CreateOrderCheckout)
	protected.Post("/payments/stripe/confirm", paymentHandler.ConfirmStripe)
	protected.Post("/payments/paypal/capture", paymentHandler.CapturePayPal)

	protected.Post("/bookings", bookingHandler.Create)
	protected.Get("/bookings/mine", bookingHandler.ListMine)
	protected.Get("/bookings/:id", bookingHandler.Get)
	protected.Post("/bookings/:id/payment/stripe", paymentHandler.CreateBookingIntent)
	protected.Post("/bookings/:id/payment/paypal", paymentHandler.CreateBookingCheckout)

	protected.Post("/products/:id/reviews", reviewHandler.CreateProductReview)
	protected.Post("/services/:id/reviews", reviewHandler.CreateServiceReview)

	protected.Get("/library", accessHandler.ListMine)
	protected.Get("/library/:id/media/:mediaId/download", accessHandler.Download)

	protected.Get("/notifications", notificationHandler.ListMine)
	protected.Put("/notifications/:id/read", notificationHandler.MarkRead)
	protected.Put("/notifications/read-all", notificationHandler.MarkAllRead)

	protected.Post("/presence/heartbeat", presenceHandler.Heartbeat)
	protected.Post("/presence/disconnect", presenceHandler.Disconnect)

	protected.Post("/promotions/validate", promotionHandler.Validate)

	protected.Get("/stats/me", statsHandler.MyStats)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.RequireRole(models.RoleAdmin))

	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)
	admin.Post("/tags", catalogHandler.CreateTag)
	admin.Delete("/tags/:id", catalogHandler.DeleteTag)
	admin.Post("/services", catalogHandler.CreateService)
	admin.Put("/services/:id", catalogHandler.UpdateService)
	admin.Delete("/services/:id", catalogHandler.DeleteService)
	admin.Post("/packs", catalogHandler.CreatePack)
	admin.Put("/packs/:id", catalogHandler.UpdatePack)
	admin.Delete("/packs/:id", catalogHandler.DeletePack)

	admin.Post("/products", productHandler.Create)
	admin.Put("/products/:id", productHandler.Update)
	admin.Delete("/products/:id", productHandler.Delete)
	admin.Post("/products/:id/media", productHandler.UploadMedia)
	admin.Delete("/products/:id/media/:mediaId", productHandler.DeleteMedia)

	admin.Get("/orders", orderHandler.List)
	admin.Put("/orders/:id/status", orderHandler.UpdateStatus)

	admin.Get("/bookings", bookingHandler.List)
	admin.Put("/bookings/:id/status", bookingHandler.UpdateStatus)
	admin.Post("/bookings/:id/assign", bookingHandler.Assign)
	admin.Post("/bookings/:id/unassign", bookingHandler.Unassign)

	admin.Get("/promotions", promotionHandler.List)
	admin.Post("/promotions", promotionHandler.Create)
	admin.Put("/promotions/:id", promotionHandler.Update)
	admin.Delete("/promotions/:id", promotionHandler.Delete)

	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/role", adminHandler.UpdateUserRole)
	admin.Delete("/users/:id", adminHandler.DeleteUser)

	admin.Get("/presence/clients", presenceHandler.OnlineClients)

	admin.Put("/settings", settingHandler.Update)
	admin.Post("/content", contentHandler.Create)
	admin.Put("/content/:id", contentHandler.Update)
	admin.Delete("/content/:id", contentHandler.Delete)
	admin.Get("/stats/dashboard", statsHandler.Dashboard)
	admin.Get("/audit-logs", adminHandler.ListAuditLogs)

	return bookings
}
