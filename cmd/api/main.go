package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/jarilabs/jariecom-backend/api/routes"
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
	"github.com/jarilabs/jariecom-backend/internal/users"
	"github.com/jarilabs/jariecom-backend/pkg/cloudinary"
	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/db"
	"github.com/jarilabs/jariecom-backend/pkg/intasend"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
	"github.com/jarilabs/jariecom-backend/pkg/migrate"
	"github.com/jarilabs/jariecom-backend/pkg/mpesa"
	"github.com/jarilabs/jariecom-backend/pkg/redis"
	"github.com/jarilabs/jariecom-backend/pkg/sms"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	darajaClient, err := mpesa.NewClient(context.Background(), cfg.Mpesa, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create daraja client", err)
		os.Exit(1)
	}
	intasendClient, err := intasend.NewClient(context.Background(), cfg.IntaSend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create intasend client", err)
		os.Exit(1)
	}
	smsClient, err := sms.NewClient(context.Background(), cfg.SMS, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sms client", err)
		os.Exit(1)
	}
	cloudinaryClient, err := cloudinary.NewClient(context.Background(), cfg.Cloudinary, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cloudinary client", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)
	storeRepo := stores.NewRepository(gdb)
	unlockRepo := stores.NewUnlockRepository(gdb)
	productRepo := products.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	kycRepo := kyc.NewRepository(gdb)
	subscriptionRepo := subscriptions.NewRepository(gdb)
	intentRepo := payments.NewRepository(gdb)
	pixelRepo := pixel.NewRepository(gdb)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		StoreRepo: storeRepo,
		JWTConfig: cfg.JWT,
	})
	requireService(logg, "auth", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	requireService(logg, "register", err)

	storeService, err := stores.NewService(storeRepo, unlockRepo)
	requireService(logg, "stores", err)

	productService, err := products.NewService(productRepo)
	requireService(logg, "products", err)

	orderService, err := orders.NewService(orderRepo, storeRepo, productRepo)
	requireService(logg, "orders", err)

	subscriptionService, err := subscriptions.NewService(subscriptionRepo)
	requireService(logg, "subscriptions", err)

	kycService, err := kyc.NewService(kycRepo, intasendClient, subscriptionService, logg)
	requireService(logg, "kyc", err)

	paymentService, err := payments.NewService(payments.ServiceParams{
		Intents:       intentRepo,
		Daraja:        darajaClient,
		IntaSend:      intasendClient,
		Orders:        orderRepo,
		Subscriptions: subscriptionService,
		Logger:        logg,
	})
	requireService(logg, "payments", err)

	webhookHandler, err := payments.NewWebhookHandler(paymentService, cfg.IntaSend)
	requireService(logg, "payment webhooks", err)

	otpService, err := otp.NewService(redisClient, smsClient, cfg.OTP, logg)
	requireService(logg, "otp", err)

	pixelService, err := pixel.NewService(pixelRepo, logg)
	requireService(logg, "pixel", err)

	storefrontService, err := storefront.NewService(storeService, productService)
	requireService(logg, "storefront", err)

	mediaService, err := media.NewService(cloudinaryClient)
	requireService(logg, "media", err)

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
		Auth:           authService,
		Register:       registerService,
		Stores:         storeService,
		Products:       productService,
		Orders:         orderService,
		KYC:            kycService,
		Payments:       paymentService,
		PaymentWebhook: webhookHandler,
		OTP:            otpService,
		Pixel:          pixelService,
		Storefront:     storefrontService,
		Media:          mediaService,
		Subscriptions:  subscriptionService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"daraja_env":   darajaClient.Environment(),
		"intasend_env": intasendClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error shutting down api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func requireService(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+name+" service", err)
		os.Exit(1)
	}
}
