/**
 * @description
 * This is the main entry point for the savings service. It is responsible for
 * initializing all components of the service, including configuration,
 * database connection, the payment gateway client, message brokers,
 * repositories, the core application services, the cron scheduler, and the
 * HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/gatewayclient: Client for the payment gateway.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/api"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/app"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/config"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
	"github.com/sharjeelx567-pixel/save2740-sub005/pkg/gatewayclient"
	rmrabbit "github.com/sharjeelx567-pixel/save2740-sub005/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found; using environment values\"")
	}

	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.InternalAPIKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"internal api key must be configured\" env=INTERNAL_API_KEY")
	}

	log.Printf("level=info component=bootstrap msg=\"starting savings-service\" port=%s daily_amount_cents=%d", cfg.ServerPort, cfg.DailyAmountCents)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the data access layer (repository) and apply the schema.
	repository := store.NewPostgresRepository(dbpool)
	if err := repository.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"schema apply failed\" err=%v", err)
	}

	// Initialize the RabbitMQ producer to publish events.
	// This service only needs to publish, so we use a producer.
	var producer rmrabbit.Publisher
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		producer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the client for the payment gateway.
	gatewayClient := gatewayclient.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey)

	// Optional Redis client for contribution rate limiting.
	var limiter app.ContributionRateLimiter
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; contribution rate limiting disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; contribution rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; contribution rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				limiter = app.NewRedisContributionRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Initialize the core application services with their dependencies.
	feeService := app.NewFeeService(repository)
	savingsService := app.NewService(repository, gatewayClient, producer, feeService, cfg.DailyAmountCents)
	allocationEngine := app.NewAllocationEngine(repository, producer, logger)
	fundingEngine := app.NewFundingEngine(repository, gatewayClient, producer, feeService, logger)
	groupService := app.NewGroupService(repository, producer, feeService, limiter, logger)

	// Start the cron scheduler for the recurring engine runs.
	scheduler := app.NewScheduler(allocationEngine, fundingEngine, logger, app.SchedulerConfig{
		AllocationSchedule: cfg.AllocationSchedule,
		FundingSchedule:    cfg.FundingSchedule,
	})
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	// Initialize the API handlers.
	savingsHandlers := api.NewSavingsHandlers(savingsService, allocationEngine, fundingEngine, groupService, feeService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/savings", api.SavingsRoutes(savingsHandlers, cfg.InternalAPIKey))

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
