package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"afusocial/ai"
	"afusocial/config"
	"afusocial/db"
	"afusocial/handler"
	"afusocial/healthcheck"
	"afusocial/interceptor"
	"afusocial/logging"
	"afusocial/metrics"
	"afusocial/middleware"
	natsClient "afusocial/nats"
	"afusocial/pkg/jwt"
	"afusocial/publisher"
	"afusocial/realtime"
	"afusocial/repository"
	"afusocial/storage"
	"afusocial/subscriber"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	tokenIssuer = "afusocial"

	healthInterval        = 15 * time.Second
	limiterCleanup        = 5 * time.Minute
	notificationCleanup   = 24 * time.Hour
	notificationRetention = 30 * 24 * time.Hour
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited with error")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := database.NewConnection(database.Config{
		URL:          cfg.Database.URL,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		DBName:       cfg.Database.DBName,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxLifetime:  cfg.Database.MaxLifetime,
	})
	if err != nil {
		return err
	}
	defer dbConn.Close()
	logger.Info("database connected")

	if err := database.Migrate(ctx, dbConn.DB); err != nil {
		return err
	}

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("redis connected")
	} else {
		logger.Warn("REDIS_URL not set, caching disabled")
	}

	m := metrics.New()
	hub := realtime.NewHub(cfg.Server.AllowedOrigins, m, logger)
	defer hub.Close()

	var feed *repository.FeedCache
	if redisClient != nil {
		feed = repository.NewFeedCache(redisClient)
	}
	store := storage.New(dbConn.DB, feed, logger)
	defer store.Close()

	notifications := repository.NewNotificationRepository(dbConn.DB, redisClient)

	// A nil *natsClient.Client must not reach the publisher as a non-nil
	// interface value.
	var conn publisher.Conn
	if cfg.NATS.Enabled() {
		nc, err := natsClient.NewClient(natsClient.Config{
			URL:           cfg.NATS.URL,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			ClientID:      cfg.NATS.ClientID,
		}, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				logger.WithError(err).Warn("failed to drain NATS connection")
			}
		}()

		sub := subscriber.NewNotificationSubscriber(nc, notifications, hub, logger)
		if err := sub.Start(); err != nil {
			return err
		}
		defer sub.Stop()

		conn = nc
	} else {
		logger.Warn("NATS_URL not set, events and notifications disabled")
	}

	h := handler.New(handler.Options{
		Store: store,
		Assistant: ai.NewGateway(ai.Config{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		}, m, logger),
		Notifications: notifications,
		Publisher:     publisher.NewEventPublisher(conn, m, logger),
		Hub:           hub,
		Metrics:       m,
		Logger:        logger,
	})

	checker := healthcheck.NewChecker(logger)
	checker.Register("database", healthcheck.PingFunc(dbConn.HealthCheck))
	if redisClient != nil {
		checker.Register("redis", healthcheck.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	limiter := middleware.NewRateLimiter(cfg.AI.RateLimit, cfg.AI.RateBurst, logger)
	limiter.StartCleanup(ctx, limiterCleanup)
	go cleanupNotifications(ctx, notifications, logger)

	auth := middleware.NewAuthMiddleware(jwt.NewManager(cfg.Auth.JWTSecret, tokenIssuer), logger,
		[]string{"/health", "/metrics", "/api/health"})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newHTTPHandler(h, checker, m, auth, limiter, logger, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := health.NewServer()
	grpcLogging := interceptor.NewLoggingInterceptor(logger)
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpcLogging.Unary()),
		grpc.StreamInterceptor(grpcLogging.Stream()),
	)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	go checker.Watch(ctx, healthServer, healthInterval)

	errCh := make(chan error, 2)

	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
		if err != nil {
			errCh <- fmt.Errorf("failed to listen on port %s: %w", cfg.Server.GRPCPort, err)
			return
		}
		logger.WithField("port", cfg.Server.GRPCPort).Info("gRPC health server starting")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("gRPC server failed: %w", err)
		}
	}()

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	case err := <-errCh:
		logger.WithError(err).Error("server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	grpcServer.GracefulStop()

	logger.Info("server stopped")
	return nil
}

// connectRedis returns nil when redis is not configured. REDIS_URL may be a
// redis:// URL or a bare host:port.
// newHTTPHandler wires the REST surface. Mux only runs middleware on a
// matched route, so CORS wraps the router to answer preflight requests.
func newHTTPHandler(
	h *handler.Handler,
	checker *healthcheck.Checker,
	m *metrics.Metrics,
	auth *middleware.AuthMiddleware,
	limiter *middleware.RateLimiter,
	logger logrus.FieldLogger,
	allowedOrigins []string,
) http.Handler {
	router := mux.NewRouter()
	router.Use(
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware(m),
		auth.Handler,
	)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", handler.HealthHandler(checker)).Methods(http.MethodGet)
	router.HandleFunc("/api/health", handler.HealthHandler(checker)).Methods(http.MethodGet)
	h.Routes(router.PathPrefix("/api").Subrouter(), limiter.Handler)

	return middleware.NewCORSMiddleware(allowedOrigins).Handler(router)
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	opts := &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	}
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		if cfg.Password != "" {
			parsed.Password = cfg.Password
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func cleanupNotifications(ctx context.Context, repo repository.NotificationRepository, logger logrus.FieldLogger) {
	ticker := time.NewTicker(notificationCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteReadBefore(ctx, time.Now().Add(-notificationRetention))
			if err != nil {
				logger.WithError(err).Error("notification cleanup failed")
				continue
			}
			logger.WithField("deleted", deleted).Info("old notifications cleaned up")
		}
	}
}
