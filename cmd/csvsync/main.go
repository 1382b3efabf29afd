package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/internal/config"
	"github.com/XavierBriggs/Augur/internal/csvsync"
	"github.com/XavierBriggs/Augur/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "download every file once and exit")
	flag.Parse()

	config.LoadDotEnv()
	config.SetupLoggerFromEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	downloader := csvsync.NewDownloader(csvsync.Config{DataDir: cfg.DataDir})
	sources := csvsync.DefaultSources(cfg.CSVSeasons, cfg.CSVIncludeDrive)

	syncJob := func(ctx context.Context) error {
		_, err := downloader.Sync(ctx, sources)
		return err
	}

	if *once {
		if err := syncJob(ctx); err != nil {
			log.Fatal().Err(err).Msg("csv sync interrupted")
		}
		return
	}

	trigger, err := scheduler.NewDailyTrigger(cfg.CSVSyncTimes, cfg.Location())
	if err != nil {
		log.Fatal().Err(err).Str("times", cfg.CSVSyncTimes).Msg("invalid CSVSYNC_TIMES")
	}

	sched := scheduler.New(scheduler.Config{
		Name:       "csvsync",
		Trigger:    trigger,
		RunOnStart: true,
	}, syncJob)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("sources", len(sources)).
		Str("schedule", trigger.String()).
		Msg("csv sync started")

	sched.Run(ctx)
	log.Info().Msg("csv sync stopped")
}
