package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m1moraru/Taskify/internal/config"
	"github.com/m1moraru/Taskify/internal/database"
	"github.com/m1moraru/Taskify/internal/monitoring"
	"github.com/m1moraru/Taskify/internal/router"
	"github.com/m1moraru/Taskify/internal/sessions"
	"github.com/m1moraru/Taskify/internal/worker"
	"github.com/m1moraru/Taskify/pkg/logger"

	"github.com/redis/go-redis/v9"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init(logger.Options{}).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.Server.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer pool.Close()

	if err := pool.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	cancelPing()

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return pool.Health()
	})
	monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	store := sessions.NewRedisStore(redisClient, cfg.Session.TTL)

	w := worker.New(worker.Config{RedisClient: redisClient})
	w.RegisterHandler(worker.JobTypeDeadlineReminder, worker.LogReminderHandler)
	w.Start(cfg.Worker.Concurrency)
	defer w.Stop()

	queue := worker.NewJobQueue(redisClient)
	scanCtx, cancelScan := context.WithCancel(context.Background())
	defer cancelScan()
	go scanDeadlines(scanCtx, pool, queue, cfg.Worker)

	engine := router.New(cfg, pool.DB, store)

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// scanDeadlines periodically queues reminder jobs for tasks whose deadline
// falls within the configured window.
func scanDeadlines(ctx context.Context, pool *database.DatabasePool, queue *worker.JobQueue, cfg config.WorkerConfig) {
	interval := cfg.PollInterval
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := worker.EnqueueDeadlineReminders(pool.DB, queue, cfg.ReminderWindow)
			if err != nil {
				logger.Get().Error().Err(err).Msg("deadline scan failed")
				continue
			}
			if count > 0 {
				logger.Get().Info().Int("count", count).Msg("queued deadline reminders")
			}
		}
	}
}
