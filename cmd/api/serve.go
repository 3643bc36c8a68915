package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chachabrian/hotelbook-backend/internal/config"
	"github.com/chachabrian/hotelbook-backend/internal/database"
	"github.com/chachabrian/hotelbook-backend/internal/handlers"
	"github.com/chachabrian/hotelbook-backend/internal/middleware"
	"github.com/chachabrian/hotelbook-backend/internal/providers/inventory"
	"github.com/chachabrian/hotelbook-backend/internal/providers/notify"
	"github.com/chachabrian/hotelbook-backend/internal/providers/payment"
	"github.com/chachabrian/hotelbook-backend/internal/repository"
	"github.com/chachabrian/hotelbook-backend/internal/services"
	"github.com/chachabrian/hotelbook-backend/internal/webhook"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, db, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if migrate {
				if err := database.RunMigrations(db); err != nil {
					return err
				}
			}
			return serve(ctx, cfg, log, db)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "run database migrations on startup")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger, db *gorm.DB) error {
	hub := services.NewHub(log)
	go hub.Run(ctx)

	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	// Without Redis, status updates go straight to this instance's hub.
	var (
		publisher services.StatusPublisher = hub
		tokens    payment.TokenCache       = payment.NewMemoryTokenCache()
	)
	if cfg.RedisURL != "" {
		client, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		publisher = services.NewRedisPublisher(client, log)
		tokens = payment.NewRedisTokenCache(client)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		go subscribe(ctx, client, hub, log)
	} else {
		log.Warn("REDIS_URL not set; status updates are local to this instance")
	}

	paypal := payment.NewPayPal(cfg.PayPal, cfg.ProviderTimeout, tokens, log)
	verifier, err := webhook.New(cfg.Webhook.Verifier, cfg.Webhook.Secret, paypal, log)
	if err != nil {
		return err
	}
	email, sms, err := notify.NewChannels(cfg, cfg.ProviderTimeout)
	if err != nil {
		return err
	}
	if email == nil && sms == nil {
		log.Warn("no notification provider configured; /notify will fail")
	}

	store := repository.NewBookingRepo(db)

	if log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", webhook.SignatureHeader}
	r.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(r, handlers.Deps{
		Inventory:     inventory.NewHotelAPI(cfg.Inventory.BaseURL, cfg.Inventory.APIKey, cfg.ProviderTimeout, log),
		Bookings:      services.NewBookingService(store, paypal, publisher, cfg.BaseURL, log),
		Confirmations: services.NewConfirmationService(store, publisher, "paypal", log),
		Notifier:      services.NewNotificationService(store, email, sms, cfg.ProviderTimeout, log),
		Verifier:      verifier,
		Hub:           hub,
		Checks:        checks,
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// subscribe keeps the Redis status subscription alive until ctx ends.
func subscribe(ctx context.Context, client *redis.Client, hub *services.Hub, log *logrus.Logger) {
	for {
		err := services.SubscribeStatus(ctx, client, hub, log, nil)
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("status subscription dropped, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}
