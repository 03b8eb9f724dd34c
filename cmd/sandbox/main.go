package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tourdesk/docs/swagger"
	"tourdesk/internal/config"
	"tourdesk/internal/events"
	"tourdesk/internal/models"
	"tourdesk/internal/sandbox/api"
	sandboxdb "tourdesk/internal/sandbox/db"
	"tourdesk/internal/sandbox/services"
	"tourdesk/internal/sandbox/tasks"
	"tourdesk/internal/sandbox/tasks/rate"
	"tourdesk/internal/utils/logger"
)

// campaigns delivered per minute across all workers
const deliveriesPerMinute = 30

// sandbox is a development backend speaking the console's REST contract
func main() {
	log := logger.New("sandbox")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		log.Info("No .env file found, skipping environment variable loading")
	} else {
		log.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Error("Failed to load environment variables", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	if err := run(cfg, log); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	db, err := sandboxdb.Connect(cfg.Sandbox.Database)
	if err != nil {
		return log.Error("Failed to connect to database", err)
	}
	defer func() {
		if err := sandboxdb.Close(db); err != nil {
			log.Error("Failed to close database connection", err)
		}
	}()
	if err := sandboxdb.Seed(db, cfg.Sandbox.Seed); err != nil {
		return log.Error("Failed to seed database", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := services.NewStorage(ctx, cfg.Sandbox.Storage, cfg.Sandbox.Server.PublicURL)
	if err != nil {
		return log.Error("Failed to initialize storage", err)
	}
	// Register the URL generator
	models.RegisterFileURLGenerator(storage)

	bus := events.Default()
	var (
		campaigns *services.CampaignService
		scheduler tasks.Scheduler
	)
	if cfg.Sandbox.Redis.Enabled() {
		client := tasks.NewTaskClient(cfg.Sandbox.Redis)
		defer client.Close()
		campaigns = services.NewCampaignService(db, services.WithBus(bus), services.WithQueue(client))

		rdb := tasks.NewRedisClient(cfg.Sandbox.Redis)
		defer rdb.Close()
		limiter := rate.NewQueueRateLimiter(rdb, rate.QueueConfig{
			Name:      tasks.TypeCampaignDeliver,
			RateLimit: rate.RateLimit{Window: time.Minute, MaxJobs: deliveriesPerMinute},
		})

		worker := tasks.NewServer(cfg.Sandbox.Redis, tasks.NewTaskHandler(campaigns, limiter))
		if err := worker.Start(); err != nil {
			return log.Error("Task server error", err)
		}
		defer worker.Shutdown()
		scheduler = tasks.NewQueueScheduler(cfg.Sandbox.Redis, tasks.DefaultDueSpec)
	} else {
		log.Warn("SANDBOX_REDIS_ADDR not set, campaigns are delivered in process")
		campaigns = services.NewCampaignService(db, services.WithBus(bus))
		scheduler = tasks.NewLocalScheduler(campaigns, tasks.DefaultDueSpec)
	}

	if err := scheduler.Start(); err != nil {
		return log.Error("Task scheduler error", err)
	}
	defer scheduler.Stop()

	server, err := api.NewServer(cfg, db, api.Deps{Storage: storage, Campaigns: campaigns, Bus: bus})
	if err != nil {
		return log.Error("Failed to create API server", err)
	}

	swagger.SwaggerInfo.Host = cfg.Sandbox.Server.Host
	if cfg.Sandbox.Server.Port != 0 {
		swagger.SwaggerInfo.Host = cfg.Sandbox.Server.Host + ":" + strconv.Itoa(cfg.Sandbox.Server.Port)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Success("Sandbox ready at %s%s", cfg.Sandbox.Server.PublicURL, cfg.Sandbox.Server.BasePath)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return log.Error("API server error", err)
	}

	// Create a deadline for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown API server", err)
	}
	log.Info("Servers shutdown gracefully")
	return nil
}
