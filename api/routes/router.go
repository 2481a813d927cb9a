package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jarilabs/jariecom-backend/api/controllers"
	"github.com/jarilabs/jariecom-backend/api/middleware"
	"github.com/jarilabs/jariecom-backend/internal/auth"
	"github.com/jarilabs/jariecom-backend/internal/kyc"
	"github.com/jarilabs/jariecom-backend/internal/media"
	"github.com/jarilabs/jariecom-backend/internal/orders"
	"github.com/jarilabs/jariecom-backend/internal/otp"
	"github.com/jarilabs/jariecom-backend/internal/payments"
	"github.com/jarilabs/jariecom-backend/internal/pixel"
	"github.com/jarilabs/jariecom-backend/internal/products"
	"github.com/jarilabs/jariecom-backend/internal/storefront"
	"github.com/jarilabs/jariecom-backend/internal/stores"
	"github.com/jarilabs/jariecom-backend/internal/subscriptions"
	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/db"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
	"github.com/jarilabs/jariecom-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Auth           auth.Service
	Register       auth.RegisterService
	Stores         stores.Service
	Products       products.Service
	Orders         orders.Service
	KYC            kyc.Service
	Payments       payments.Service
	PaymentWebhook *payments.WebhookHandler
	OTP            otp.Service
	Pixel          pixel.Service
	Storefront     storefront.Service
	Media          media.Service
	Subscriptions  subscriptions.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var limiterStore middleware.RateLimiterStore
	if redisClient != nil {
		limiterStore = redisClient
	}
	authLimiter := middleware.IPRateLimit("auth", limiterStore, int64(cfg.RateLimit.AuthLimit), cfg.RateLimit.AuthWindow, logg)
	publicLimiter := middleware.IPRateLimit("public", limiterStore, int64(cfg.RateLimit.PublicLimit), cfg.RateLimit.PublicWindow, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbClient, redisClient, logg))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(authLimiter).Post("/register", controllers.AuthRegister(svcs.Register, logg))
		r.With(authLimiter).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
	})

	// Public surface: storefront reads, checkout, pixel hits, provider
	// webhooks. No JWT here.
	r.With(publicLimiter).Get("/s/{slug}", controllers.StorefrontGet(svcs.Storefront, logg))
	r.With(publicLimiter).Get("/pixel", controllers.PixelTrack(svcs.Pixel, svcs.Stores, logg))
	r.With(publicLimiter).Post("/pixel", controllers.PixelTrack(svcs.Pixel, svcs.Stores, logg))
	r.With(publicLimiter).Post("/api/orders", controllers.OrderCreate(svcs.Orders, logg))

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/daraja", controllers.DarajaWebhook(svcs.PaymentWebhook, logg))
		r.Post("/intasend", controllers.IntaSendWebhook(svcs.PaymentWebhook, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/api/auth/me", controllers.AuthMe(svcs.Auth, logg))

		r.Route("/api/store", func(r chi.Router) {
			r.Get("/", controllers.StoreGet(svcs.Stores, logg))
			r.Put("/", controllers.StoreUpdate(svcs.Stores, logg))
			r.Post("/checkout-modes/unlock", controllers.StoreUnlockCheckout(svcs.Stores, logg))
			r.Get("/analytics", controllers.StoreAnalytics(svcs.Pixel, logg))
		})

		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, logg))
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Post("/reorder", controllers.ProductReorder(svcs.Products, logg))
			r.Get("/{productID}", controllers.ProductGet(svcs.Products, logg))
			r.Put("/{productID}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/{productID}", controllers.ProductDelete(svcs.Products, logg))
			r.Put("/{productID}/status", controllers.ProductSetStatus(svcs.Products, logg))
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/stats", controllers.OrderStats(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(svcs.Orders, logg))
			r.Put("/{orderID}/status", controllers.OrderUpdateStatus(svcs.Orders, logg))
		})

		r.Route("/api/kyc", func(r chi.Router) {
			r.Get("/", controllers.KYCGet(svcs.KYC, logg))
			r.Post("/documents", controllers.KYCUploadDocs(svcs.KYC, logg))
			r.Post("/submit", controllers.KYCSubmit(svcs.KYC, logg))

			// Review surface. Merchant tokens are rejected here.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))
				r.Post("/{storeID}/approve", controllers.KYCApprove(svcs.KYC, logg))
				r.Post("/{storeID}/reject", controllers.KYCReject(svcs.KYC, logg))
				r.Get("/{storeID}/wallet", controllers.KYCWallet(svcs.KYC, logg))
			})
		})

		r.Route("/api/payments", func(r chi.Router) {
			r.Post("/", controllers.PaymentInitiate(svcs.Payments, logg))
			r.Get("/{intentID}", controllers.PaymentGet(svcs.Payments, logg))
		})

		// Alias kept from when STK collection lived under the IntaSend
		// prefix; existing dashboard clients still call it.
		r.Route("/api/intasend", func(r chi.Router) {
			r.Post("/", controllers.PaymentInitiate(svcs.Payments, logg))
			r.Get("/{intentID}", controllers.PaymentGet(svcs.Payments, logg))
		})

		r.Route("/api/otp", func(r chi.Router) {
			r.With(authLimiter).Post("/send", controllers.OTPSend(svcs.OTP, logg))
			r.Post("/verify", controllers.OTPVerify(svcs.OTP, logg))
		})

		r.Route("/api/media", func(r chi.Router) {
			r.Post("/sign", controllers.MediaSignUpload(svcs.Media, logg))
			r.Delete("/folder", controllers.MediaDeleteFolder(svcs.Media, logg))
		})

		r.Route("/api/subscriptions", func(r chi.Router) {
			r.Get("/", controllers.SubscriptionList(svcs.Subscriptions, logg))
			r.Post("/trial", controllers.SubscriptionStartTrial(svcs.Subscriptions, logg))
		})
	})

	return r
}
