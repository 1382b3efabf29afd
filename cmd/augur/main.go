package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/adapters/theoddsapi"
	"github.com/XavierBriggs/Augur/internal/config"
	"github.com/XavierBriggs/Augur/internal/dedup"
	"github.com/XavierBriggs/Augur/internal/evaluator"
	"github.com/XavierBriggs/Augur/internal/history"
	"github.com/XavierBriggs/Augur/internal/notifier"
	"github.com/XavierBriggs/Augur/internal/pipeline"
	"github.com/XavierBriggs/Augur/internal/scheduler"
	"github.com/XavierBriggs/Augur/internal/status"
	"github.com/XavierBriggs/Augur/internal/writer"
	"github.com/XavierBriggs/Augur/pkg/models"
)

func main() {
	config.LoadDotEnv()
	config.SetupLoggerFromEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sportRegistry := buildRegistry(cfg)
	if sportRegistry.Count() == 0 {
		log.Fatal().Strs("sports", cfg.Sports).Msg("no supported sport configured")
	}
	log.Info().Int("sports", sportRegistry.Count()).Msg("registered sports")

	adapter := theoddsapi.NewClient(theoddsapi.Config{
		APIKey:  cfg.OddsAPIKey,
		BaseURL: cfg.OddsBaseURL,
		Timeout: cfg.OddsTimeout,
	})
	if cfg.OddsAPIKey == "" {
		log.Warn().Msg("ODDS_API_KEY is not set, every fetch will fail")
	}

	// Redis backs the dedup store and the candidate stream when configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			if cfg.DedupBackend == "redis" {
				log.Fatal().Err(err).Str("addr", cfg.RedisURL).Msg("failed to connect to Redis")
			}
			log.Warn().Err(err).Str("addr", cfg.RedisURL).Msg("Redis unreachable, stream publishing disabled")
			redisClient = nil
		} else {
			log.Info().Str("addr", cfg.RedisURL).Msg("connected to Redis")
		}
	}

	var store dedup.Store
	var dedupSize func() int
	if cfg.DedupBackend == "redis" {
		store = dedup.NewRedisStore(redisClient, cfg.DedupTTL)
	} else {
		mem := dedup.NewMemoryStore()
		store = mem
		dedupSize = mem.Len
	}

	n := notifier.New(notifier.TelegramConfig{
		Token:         cfg.TelegramToken,
		ChatID:        cfg.TelegramChatID,
		RatePerSecond: cfg.TelegramRate,
	})

	p := pipeline.New(sportRegistry, adapter, evaluator.New(store), n, pipeline.Options{
		NotifyRejected:   cfg.NotifyRejected,
		NotifyEmptyCycle: cfg.NotifyEmptyCycle,
		MaxAlerts:        cfg.MaxAlerts,
	})
	p.History = history.NewLoader(cfg.HistoryDirs)

	if cfg.DatabaseURL != "" {
		db, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer db.Close()

		w := writer.NewWriter(db, redisClient)
		if err := w.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create schema")
		}
		p.Recorder = w
		log.Info().Msg("recording candidates to Postgres")
	}

	trigger, err := buildTrigger(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid schedule")
	}

	sched := scheduler.New(scheduler.Config{
		Name:       "augur",
		Trigger:    trigger,
		RunOnStart: cfg.RunOnStart,
	}, p.Job)

	var statusServer *status.Server
	if cfg.StatusAddr != "" {
		tracker := status.NewTracker()
		p.Reports = tracker
		statusServer = status.NewServer(cfg.StatusAddr, tracker, status.Sources{
			SchedulerState: func() string { return sched.State().String() },
			DedupSize:      dedupSize,
			Quota:          func() *models.RateLimits { return adapter.GetRateLimits() },
		}, cfg.StatusOrigins...)
		statusServer.Start()
	}

	keys := make([]string, 0, sportRegistry.Count())
	for _, sport := range sportRegistry.GetAll() {
		keys = append(keys, sport.GetSportKey())
		log.Info().
			Str("sport", sport.GetSportKey()).
			Str("name", sport.GetDisplayName()).
			Strs("markets", sport.GetMarkets()).
			Strs("regions", sport.GetRegions()).
			Float64("min_price", sport.GetThresholds().MinPrice).
			Float64("min_probability", sport.GetThresholds().MinProbability).
			Msg("sport configured")
	}

	if err := n.Send(ctx, notifier.FormatStartup(keys, trigger.String())); err != nil {
		log.Warn().Err(err).Msg("failed to send startup message")
	}

	log.Info().Str("schedule", trigger.String()).Msg("Augur started")
	sched.Run(ctx)

	log.Info().Msg("shutting down")
	if statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("status server shutdown")
		}
	}
	log.Info().Msg("Augur stopped")
}

func buildTrigger(cfg *config.Config) (scheduler.Trigger, error) {
	if cfg.ScheduleTimes != "" {
		return scheduler.NewDailyTrigger(cfg.ScheduleTimes, cfg.Location())
	}
	return scheduler.IntervalTrigger{Every: cfg.ScheduleInterval}, nil
}

func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
