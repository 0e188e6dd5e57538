package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clean-PRO/backend/cache"
	"github.com/Clean-PRO/backend/config"
	"github.com/Clean-PRO/backend/controllers"
	"github.com/Clean-PRO/backend/database"
	"github.com/Clean-PRO/backend/dispatch"
	"github.com/Clean-PRO/backend/router"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/telemetry"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.SetLevel(cfg.LogLevel)
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL)
	utils.RegisterValidators()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampling,
	})
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up tracing: %v", err)
	}

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if cfg.SeedCleaners > 0 {
		n, err := services.CreateCleaners(db, cfg.SeedCleaners, cfg.SecretSalt, cfg.PassIterations)
		if err != nil {
			utils.ErrorLogger.Printf("Failed to seed cleaners: %v", err)
		} else {
			utils.InfoLogger.Printf("Seeded %d cleaners", n)
		}
	}

	var (
		rdb         *redis.Client
		reviewCache cache.ReviewCache = cache.NewMemoryCache()
	)
	if cfg.RedisURL != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			utils.ErrorLogger.Printf("Redis unavailable, using in-memory cache: %v", err)
		} else {
			reviewCache = cache.NewRedisCache(rdb, 24*time.Hour)
			defer rdb.Close()
		}
	}

	hub := dispatch.Default()
	events := services.MultiPublisher{
		services.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic),
		dispatch.Publisher{Hub: hub},
	}
	defer events.Close()

	availability := services.NewAvailabilityService(db)
	availability.Location = cfg.Location()
	availability.WorkStartHour = cfg.WorkStartHour
	availability.WorkStopHour = cfg.WorkStopHour
	orders := services.NewOrderService(db, availability, events)

	var gateway services.PaymentGateway
	if cfg.StripeSecretKey != "" {
		stripeGateway, err := services.NewStripeGateway(&services.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			SuccessURL:    cfg.StripeSuccessURL,
			CancelURL:     cfg.StripeCancelURL,
		})
		if err != nil {
			utils.ErrorLogger.Fatalf("Invalid Stripe configuration: %v", err)
		}
		gateway = stripeGateway
	}

	// Payment monitor expires stale checkouts and keeps metrics
	paymentMonitor := services.NewPaymentMonitor(db)
	paymentMonitor.Start()
	defer paymentMonitor.Stop()
	payments := services.NewPaymentService(db, gateway, events).WithMonitor(paymentMonitor)
	utils.InfoLogger.Printf("Payment gateway: %s", payments.Gateway().Name())

	reviews := services.NewReviewService(db, reviewCache, cfg.YaMapsURL())
	if cfg.YaMapsURL() != "" {
		reviewMonitor := services.NewReviewMonitor(reviews, cfg.ReviewsParseInterval)
		reviewMonitor.Start()
		defer reviewMonitor.Stop()
	}

	var sender services.Sender = services.LogSender{}
	if cfg.SMTPHost != "" {
		sender = services.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.DefaultFromEmail)
	}
	mail := services.NewMailService(db, sender, cfg.DefaultFromEmail)

	r := router.SetupRouter(router.Deps{
		DB:       db,
		Orders:   orders,
		Payments: payments,
		Monitor:  paymentMonitor,
		Reviews:  reviews,
		Mail:     mail,
		Hub:      hub,
		OAuth: controllers.OAuthSettings{
			RedirectBase:       cfg.OAuthRedirectBase,
			LoginRedirectURL:   cfg.SocialLoginRedirectURL,
			GoogleClientID:     cfg.GoogleClientID,
			GoogleClientSecret: cfg.GoogleClientSecret,
			GitHubClientID:     cfg.GitHubClientID,
			GitHubClientSecret: cfg.GitHubClientSecret,
			Salt:               cfg.SecretSalt,
			Iterations:         cfg.PassIterations,
		},
		CORSOrigin:   cfg.CORSOrigin,
		RateLimit:    cfg.RateLimit,
		Redis:        rdb,
		StripeSecret: cfg.StripeWebhookSecret,
	})
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		utils.ErrorLogger.Printf("Failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           telemetry.WrapHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Tracing shutdown: %v", err)
	}
}
