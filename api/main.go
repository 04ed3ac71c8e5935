package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rogerio-castellano/restock-analytics/internal/analytics"
	"github.com/rogerio-castellano/restock-analytics/internal/auth"
	"github.com/rogerio-castellano/restock-analytics/internal/config"
	"github.com/rogerio-castellano/restock-analytics/internal/db"
	api "github.com/rogerio-castellano/restock-analytics/internal/http"
	"github.com/rogerio-castellano/restock-analytics/internal/http/ban"
	"github.com/rogerio-castellano/restock-analytics/internal/http/handlers"
	rl "github.com/rogerio-castellano/restock-analytics/internal/http/rate_limiter"
	"github.com/rogerio-castellano/restock-analytics/internal/logging"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/redissvc"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

// @title Restock Analytics API
// @version 1.0
// @description Inventory tracking with low-stock alerts, restock recommendations, trends and dead-stock reports.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auth.Configure(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	rl.Configure(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	ban.Configure(cfg.RateLimit.Strikes, cfg.RateLimit.Ban)
	go rl.StartVisitorCleanupLoop(ctx)

	if cfg.Redis.Addr != "" {
		redisService := redissvc.NewRedisService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisService.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("could not connect to Redis")
		}
		defer redisService.Close()

		ban.SetRedisService(redisService)
		go ban.StartDailyBanSummary(ctx, 24*time.Hour)
	} else {
		log.Warn().Msg("redis not configured, client bans disabled")
	}

	products, sales, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open data store")
	}
	defer closeStore()

	engine := analytics.NewEngine(products, sales, analytics.Config{
		DefaultWindowDays:     cfg.Analytics.DefaultWindowDays,
		MaxWindowDays:         cfg.Analytics.MaxWindowDays,
		LeadTimeDays:          cfg.Analytics.LeadTimeDays,
		FallbackDailyVelocity: cfg.Analytics.FallbackDailyVelocity,
		DeadStockWindowDays:   cfg.Analytics.DeadStockWindowDays,
		HeatmapWindowDays:     cfg.Analytics.HeatmapWindowDays,
		TrendDays:             cfg.Analytics.TrendDays,
		TopN:                  cfg.Analytics.TopN,
		LowStockLevel:         cfg.Analytics.LowStockLevel,
	})
	handlers.SetAnalyticsEngine(engine)

	if err := bootstrapAdmin(ctx, cfg.Auth); err != nil {
		log.Fatal().Err(err).Msg("could not create admin user")
	}

	router := api.NewRouter(
		api.WithAllowedOrigins(cfg.CORS.AllowedOrigins...),
		api.WithTrustedProxies(cfg.Server.TrustedProxies...),
	)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.App.Env).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStore wires the repositories: Postgres when a database url is set, memory otherwise.
// Sale reads and writes go through a circuit breaker either way.
func openStore(ctx context.Context, cfg config.Config) (repo.ProductRepository, repo.SaleRepository, func(), error) {
	breaker := repo.BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}

	if cfg.Database.URL == "" {
		if !cfg.IsDevelopment() {
			return nil, nil, nil, errors.New("database.url is required outside development")
		}
		log.Warn().Msg("database url not configured, using in-memory store")

		products := repo.NewInMemoryProductRepository()
		sales := repo.NewInMemorySaleRepository(products)
		metrics := repo.NewInMemoryMetricsRepository()
		metrics.SetRepositories(products, sales)

		guarded := repo.NewBreakerSaleRepository(sales, breaker)
		handlers.SetProductRepo(products)
		handlers.SetSaleRepo(guarded)
		handlers.SetUserRepo(repo.NewInMemoryUserRepository())
		handlers.SetMetricsRepo(metrics)
		handlers.SetAuditRepo(repo.NewInMemoryAuditLogRepository())
		return products, guarded, func() {}, nil
	}

	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	repo.SetQueryTimeout(cfg.Database.Timeout)

	products := repo.NewPostgresProductRepository(database)
	guarded := repo.NewBreakerSaleRepository(repo.NewPostgresSaleRepository(database), breaker)
	handlers.SetProductRepo(products)
	handlers.SetSaleRepo(guarded)
	handlers.SetUserRepo(repo.NewPostgresUserRepository(database))
	handlers.SetMetricsRepo(repo.NewPostgresMetricsRepository(database))
	handlers.SetAuditRepo(repo.NewPostgresAuditLogRepository(database))

	return products, guarded, func() { database.Close() }, nil
}

func bootstrapAdmin(ctx context.Context, cfg config.AuthConfig) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	_, err = handlers.UserRepo().CreateUser(ctx, models.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if errors.Is(err, repo.ErrDuplicatedValueUnique) {
		return nil
	}
	if err == nil {
		log.Info().Str("username", cfg.AdminUsername).Msg("admin user created")
	}
	return err
}
