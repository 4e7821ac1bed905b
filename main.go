package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bookly/config"
	_ "bookly/docs"
	"bookly/internal/events"
	"bookly/internal/repository"
	"bookly/internal/service"
	"bookly/internal/storage"
	"bookly/internal/transport/rest"
	"bookly/internal/transport/websocket"
	"bookly/pkg/database"
	"bookly/pkg/logger"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Bookly API
// @version 1.0
// @description Service booking marketplace: business directory, 15-minute reservation grid, bookings and blocked slots
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@bookly.local

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Name)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Running database migrations", zap.String("dir", cfg.Postgres.MigrationsDir))
	if err := database.RunMigrations(ctx, db, cfg.Postgres.MigrationsDir, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	var fileStorage storage.FileStorage = storage.Disabled{}
	if cfg.S3.Endpoint != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3, log)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		fileStorage = s3Storage
		log.Info("S3 storage initialized", zap.String("endpoint", cfg.S3.Endpoint))
	} else {
		log.Warn("S3 storage is not configured, uploads are disabled")
	}

	bus := events.NewBus(log)

	if brokers := events.SplitBrokers(cfg.Kafka.Brokers); len(brokers) > 0 {
		sink := events.NewKafkaSink(brokers, cfg.Kafka.Topic, log)
		defer func() {
			if err := sink.Close(); err != nil {
				log.Warn("Failed to close kafka writer", zap.Error(err))
			}
		}()
		bus.Subscribe(sink.Handle)
		log.Info("Publishing events to kafka", zap.Strings("brokers", brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	repos := repository.NewRepositories(db)

	services := service.NewServices(service.Deps{
		Repos:       repos,
		Logger:      log,
		Config:      cfg,
		FileStorage: fileStorage,
		Events:      bus,
	})

	if err := services.Auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		log.Fatal("Failed to seed admin account", zap.Error(err))
	}

	if cfg.Sweep.OnStartup {
		if n, err := services.Sweeper.Sweep(ctx, nil); err != nil {
			log.Error("Startup sweep failed", zap.Error(err))
		} else {
			log.Info("Startup sweep finished", zap.Int("completed", n))
		}
	}
	if err := services.Sweeper.Start(cfg.Sweep.Schedule, time.Minute); err != nil {
		log.Fatal("Failed to schedule sweep", zap.Error(err))
	}
	defer services.Sweeper.Stop()

	hub := websocket.NewEventHub(services.Auth, log)
	go hub.Run(ctx)
	bus.Subscribe(hub.Handle)

	var limiter rest.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		limiter = rest.NewRedisRateLimiter(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window, "bookly:rl:")
		log.Info("Login rate limiting enabled", zap.String("redis", cfg.Redis.Addr))
	}

	var metrics *rest.Metrics
	if cfg.Metrics.Enabled {
		metrics = rest.NewMetrics(cfg.Name)
	}

	handler := rest.NewHandler(rest.Deps{
		Services: services,
		Logger:   log,
		Config:   cfg,
		Hub:      hub,
		Limiter:  limiter,
		Metrics:  metrics,
		Health:   db,
	})

	router := gin.New()
	router.Use(gin.Recovery())

	handler.InitRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderMB << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("addr", srv.Addr), zap.String("timezone", cfg.Timezone))

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to stop server gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Server stopped")
}
