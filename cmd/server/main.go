// @title Event Planner API
// @version 1.0
// @description Events, guest lists and moderation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventplanner/config"
	_ "eventplanner/docs"
	"eventplanner/internal/adapters/auth"
	"eventplanner/internal/adapters/email"
	"eventplanner/internal/adapters/storage"
	httpdelivery "eventplanner/internal/delivery/http"
	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
	"eventplanner/internal/repository/postgres"
	redisrepo "eventplanner/internal/repository/redis"
	"eventplanner/internal/services"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "failed to load configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		fatal(logger, "failed to connect to database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", "err", err)
		}
	}()
	logger.Info("database connection established")

	if err := postgres.MigrateUp(db); err != nil {
		fatal(logger, "failed to run migrations", err)
	}
	logger.Info("database migrations complete")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("error closing redis connection", "err", err)
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fatal(logger, "failed to connect to redis", err)
	}
	logger.Info("redis connection established", "addr", cfg.Redis.Addr)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	guestRepo := postgres.NewGuestRepository(db)
	flagRepo := postgres.NewFlagRepository(db)
	sessions := redisrepo.NewSessionStore(rdb)
	feed := redisrepo.NewEventFeed(rdb)

	// Adapters
	var blobs domain.BlobStore
	if cfg.Minio.Endpoint != "" {
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:        cfg.Minio.Endpoint,
			AccessKeyID:     cfg.Minio.AccessKeyID,
			SecretAccessKey: cfg.Minio.SecretAccessKey,
			Bucket:          cfg.Minio.Bucket,
			Region:          cfg.Minio.Region,
			UseSSL:          cfg.Minio.UseSSL,
			URLExpiry:       cfg.Minio.URLExpiry,
		})
		if err != nil {
			fatal(logger, "failed to create image store", err)
		}
		if err := store.EnsureBucket(ctx, cfg.Minio.Region); err != nil {
			fatal(logger, "failed to prepare image bucket", err)
		}
		blobs = store
		logger.Info("image storage enabled", "endpoint", cfg.Minio.Endpoint, "bucket", cfg.Minio.Bucket)
	} else {
		logger.Warn("MINIO_ENDPOINT not set, image uploads disabled")
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		fatal(logger, "failed to create mailer", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		fatal(logger, "failed to load email templates", err)
	}

	var google domain.OAuthProvider
	if cfg.Google.Enabled() {
		google = auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
		logger.Info("google sign-in enabled")
	}

	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)

	// Services
	timeout := cfg.RequestTimeout
	emailService := services.NewEmailService(mailer, renderer, logger)
	authService := services.NewAuthService(userRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), auth.NewJWTIssuer(cfg.JWTSecret), sessions, google, cfg.TokenExpiry, timeout)
	userService := services.NewUserService(userRepo, timeout)
	eventService := services.NewEventService(eventRepo, guestRepo, flagRepo, userRepo, blobs, feed, logger, timeout)
	guestService := services.NewGuestService(eventRepo, guestRepo, userRepo, emailService, feed, logger, timeout)
	moderationService := services.NewModerationService(eventRepo, flagRepo, userRepo, emailService, blobs, feed, logger, timeout)

	// Rate limiters
	limiterConfig := middleware.LimiterConfig{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst, IdleTTL: 10 * time.Minute}
	signInLimiter := middleware.NewRateLimiter(limiterConfig)
	flagLimiter := middleware.NewRateLimiter(limiterConfig)
	go signInLimiter.Run(ctx)
	go flagLimiter.Run(ctx)
	proxies, err := middleware.NewProxyTrust(cfg.RateLimit.TrustedProxies)
	if err != nil {
		fatal(logger, "failed to parse trusted proxies", err)
	}

	// Open event streams end when shutdown begins so they do not hold it up.
	streamsCtx, closeStreams := context.WithCancel(context.Background())
	defer closeStreams()
	userController := controllers.NewUserController(logger, userService, eventService)
	userController.Closing = streamsCtx

	router := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		Auth:           controllers.NewAuthController(logger, authService, cfg.IsProduction()),
		Users:          userController,
		Events:         controllers.NewEventController(logger, eventService),
		Guests:         controllers.NewGuestController(logger, guestService),
		Moderation:     controllers.NewModerationController(logger, moderationService),
		Health: controllers.NewHealthController(logger, map[string]controllers.HealthCheck{
			"postgres": func(ctx context.Context) error { return postgres.Health(ctx, db) },
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, 3*time.Second),
		TokenVerifier: tokenVerifier,
		Sessions:      sessions,
		Admins:        userService,
		SignInLimiter: signInLimiter,
		FlagLimiter:   flagLimiter,
		Proxies:       proxies,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	server.RegisterOnShutdown(closeStreams)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, waiting for in-flight requests")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed, forcing shutdown", "err", err)
			if err := server.Close(); err != nil {
				logger.Error("forced shutdown failed", "err", err)
			}
		}
		logger.Info("server shutdown complete")
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
