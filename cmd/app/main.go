// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"membership-platform/internal/config"
	"membership-platform/internal/domain"
	"membership-platform/internal/domain/ports/adapter"
	"membership-platform/internal/domain/ports/repository"
	"membership-platform/internal/infra/adapters/coupon"
	"membership-platform/internal/infra/adapters/notify"
	payAdapters "membership-platform/internal/infra/adapters/payment"
	pg "membership-platform/internal/infra/db/postgres"
	"membership-platform/internal/infra/logging"
	"membership-platform/internal/infra/metrics"
	red "membership-platform/internal/infra/redis"
	"membership-platform/internal/infra/sched"
	"membership-platform/internal/infra/web"
	"membership-platform/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Str("addr", addr).Msg("metrics listening")
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	// ---- Postgres ----
	pool := pg.MustConnectPostgres(cfg.Database.URL)
	defer pool.Close()
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	membershipRepo := pg.NewMembershipRepo(pool)
	subscriptionRepo := pg.NewSubscriptionRepo(pool)
	var planRepo repository.PlanRepository = pg.NewPlanRepo(pool)
	planRepo = pg.NewPlanRepoCacheDecorator(planRepo, redisClient, cfg.Redis.TTL)
	serviceRepo := pg.NewServiceRepo(pool)
	requestRepo := pg.NewRequestRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	accountRepo := pg.NewAccountRepo(pool)

	// ---- Adapters ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev && cfg.Payment.Razorpay.KeyID == "" {
		gateway = payAdapters.NewNoopGateway()
		logger.Warn().Msg("payment gateway: noop (dev)")
	} else {
		gateway, err = payAdapters.NewRazorpayGateway(
			cfg.Payment.Razorpay.KeyID,
			cfg.Payment.Razorpay.KeySecret,
			cfg.Payment.Razorpay.WebhookSecret,
			cfg.Payment.Razorpay.BaseURL,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("razorpay gateway init failed")
		}
	}

	var notifier adapter.NotificationSender
	if cfg.Notify.WhatsApp.BaseURL != "" {
		notifier, err = notify.NewWhatsAppSender(cfg.Notify.WhatsApp.BaseURL, cfg.Notify.WhatsApp.Token, cfg.Notify.WhatsApp.SenderPhone, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("whatsapp sender init failed")
		}
	} else {
		notifier = notify.NewNoopSender()
		logger.Warn().Msg("notifications: noop (notify.whatsapp.base_url unset)")
	}

	var coupons adapter.CouponValidator
	if cfg.Coupon.BaseURL != "" {
		coupons, err = coupon.NewHTTPValidator(cfg.Coupon.BaseURL, cfg.Coupon.APIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("coupon validator init failed")
		}
	} else {
		coupons = coupon.NewNoopValidator()
	}

	// ---- Use cases ----
	clock := domain.SystemClock()
	membershipUC := usecase.NewMembershipUseCase(membershipRepo, planRepo, paymentRepo, accountRepo, gateway, clock, logger)
	subscriptionUC := usecase.NewSubscriptionUseCase(subscriptionRepo, serviceRepo, paymentRepo, accountRepo, gateway, clock, logger)
	approvalUC := usecase.NewApprovalUseCase(requestRepo, paymentRepo, planRepo, serviceRepo, gateway, coupons, notifier, cfg.Payment.Razorpay.LinkTTL, clock, logger)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, requestRepo, membershipRepo, subscriptionRepo, planRepo, serviceRepo, accountRepo, txManager, clock, logger)
	planUC := usecase.NewPlanUseCase(planRepo, clock, logger)
	serviceUC := usecase.NewServiceUseCase(serviceRepo, clock, logger)
	statsUC := usecase.NewStatsUseCase(membershipRepo, subscriptionRepo, planRepo, serviceRepo, logger)

	// ---- Workers ----
	expiryWorker := sched.NewExpiryWorker(cfg.Scheduler.ExpirySweepInterval, membershipUC, subscriptionUC, locker, logger)
	go func() { _ = expiryWorker.Run(ctx) }()
	reconciler := sched.NewCounterReconciler(cfg.Scheduler.ReconcileInterval, statsUC, locker, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Security.AdminKey, cfg.Security.JWTSecret, cfg.Security.JWTTTL, !cfg.Runtime.Dev)
	srv := web.NewServer(web.ServerDeps{
		Memberships:   membershipUC,
		Subscriptions: subscriptionUC,
		Approvals:     approvalUC,
		Payments:      paymentUC,
		Plans:         planUC,
		Services:      serviceUC,
		Stats:         statsUC,
		Auth:          auth,
		Limiter:       rateLimiter,
		WebhookVerify: gateway.VerifyWebhookSignature,
		WebhookBurst:  cfg.Security.WebhookBurst,
		WebhookWindow: cfg.Security.WebhookWindow,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}
