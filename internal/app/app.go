package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/wildgarden/internal/domain/discount"
	"github.com/xenking/wildgarden/internal/domain/notice"
	"github.com/xenking/wildgarden/internal/domain/order"
	"github.com/xenking/wildgarden/internal/domain/product"
	"github.com/xenking/wildgarden/internal/handler"
	"github.com/xenking/wildgarden/internal/mail"
	"github.com/xenking/wildgarden/internal/storage/postgres"
	"github.com/xenking/wildgarden/pkg/health"
	"github.com/xenking/wildgarden/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the email
// dispatcher, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	return run(ctx, lg, m.TracerProvider(), m.MeterProvider(), cfg)
}

func run(ctx context.Context, lg *zap.Logger, tp trace.TracerProvider, mp metric.MeterProvider, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	codeRepo := postgres.NewDiscountCodeRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	noticeRepo := postgres.NewNoticeRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Confirmation emails. Without a Resend key orders are created without
	// an email status.
	var (
		notifier   order.Notifier
		dispatcher *mail.Dispatcher
	)
	if cfg.Mail.ResendAPIKey != "" {
		sender := mail.NewResendClient(cfg.Mail.ResendAPIKey, cfg.Mail.BaseURL, cfg.Mail.SendTimeout)
		dispatcher, err = mail.NewDispatcher(mail.DispatcherConfig{
			From:      cfg.Mail.From,
			ReplyTo:   cfg.Mail.ReplyTo,
			Workers:       cfg.Mail.Workers,
			QueueSize:     cfg.Mail.QueueSize,
			StatusTimeout: cfg.Mail.StatusTimeout,
		}, sender, orderRepo, lg.Named("mail"), mp)
		if err != nil {
			return errors.Wrap(err, "create mail dispatcher")
		}
		notifier = dispatcher
	} else {
		lg.Warn("Resend API key not configured, confirmation emails disabled")
	}

	// Domain services. The checkout and the pre-check endpoint share one
	// validator.
	productService := product.NewService(productRepo)
	codeValidator := discount.NewRepoValidator(codeRepo)
	codeService := discount.NewService(codeRepo)
	noticeService := notice.NewService(noticeRepo)
	orderService, err := order.NewService(productRepo, codeValidator, orderRepo, notifier, order.Options{
		ShippingCost:   cfg.ShippingCost,
		TracerProvider: tp,
		MeterProvider:  mp,
	})
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	if dispatcher != nil {
		// Report not ready shortly before the queue starts dropping emails.
		backlog := max(cfg.Mail.QueueSize*9/10, 1)
		healthSvc.AddReadinessCheck("mail_queue", time.Second, health.BacklogCheck(dispatcher.Pending, backlog))
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	origins, err := httpmiddleware.CompileOriginPatterns(cfg.CORS.OriginPatterns)
	if err != nil {
		return errors.Wrap(err, "compile cors origin patterns")
	}
	h := handler.NewHandler(
		handler.Config{
			CodeCheck: httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:     cfg.CodeCheckLimit.Max,
				Window:  cfg.CodeCheckLimit.Window,
				Message: "too many discount code checks",
			}),
		},
		productService,
		orderService,
		codeService,
		codeValidator,
		noticeService,
		handler.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper)),
	)

	// Router: health endpoints + API routes on one server. Route-aware
	// middleware runs inside chi so the matched pattern is known.
	r := chi.NewRouter()
	r.Use(httpmiddleware.LogRequests(), httpmiddleware.Labeler())
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Register(r)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(r,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:        cfg.CORS.Origins,
				AllowOriginPatterns: origins,
				AllowHeaders:        []string{"Content-Type", "Authorization", "api_key", httpmiddleware.RequestIDHeader},
				ExposeHeaders:       []string{httpmiddleware.RequestIDHeader, "Retry-After"},
				AllowCredentials:    cfg.CORS.AllowCredentials,
				MaxAge:              86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("wildgarden-api", tp, mp),
		),
	}

	// The dispatcher outlives the server: orders accepted while draining
	// still get their confirmation queued, and it stops once Shutdown returns.
	mailCtx, stopMail := context.WithCancel(context.WithoutCancel(ctx))
	defer stopMail()

	g, gCtx := errgroup.WithContext(ctx)
	if dispatcher != nil {
		g.Go(func() error {
			return dispatcher.Run(mailCtx)
		})
	}

	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		stopMail()
		healthSvc.Stop()
		return nil
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
