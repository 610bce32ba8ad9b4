package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetvault/internal/artifact"
	"meetvault/internal/auth"
	"meetvault/internal/config"
	"meetvault/internal/database"
	"meetvault/internal/logging"
	"meetvault/internal/playback"
	"meetvault/internal/recording"
	"meetvault/internal/server"
	"meetvault/internal/storage"
	"meetvault/internal/timeline"
	"meetvault/internal/transcode"
)

func gracefulShutdown(fiberServer *server.FiberServer, cancel context.CancelFunc, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	stop()

	// Stop background workers before draining HTTP.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := fiberServer.ShutdownWithContext(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "server forced to shutdown: %v\n", err)
	}

	done <- true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(os.Getenv("LOG_LEVEL"))
	log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting meetvault")

	db, err := database.New(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	store, err := storage.NewS3Store(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	mongoDB := db.GetDatabase()
	sessions := recording.NewMongoSessionStore(mongoDB)
	meetings := timeline.NewMongoMeetingStore(mongoDB)
	tracks := timeline.NewMongoTrackStore(mongoDB)
	events := timeline.NewMongoEventStore(mongoDB)
	cache := playback.NewMongoCacheStore(mongoDB)

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.RecorderTokenTTL)
	vendor := recording.NewVendorClient(cfg.Vendor, log)

	recordingService := recording.NewService(vendor, sessions, jwtService, cfg.Vendor, cfg.Storage, log)
	sentinel := recording.NewSentinel(sessions, meetings, recordingService, cfg.Sweep.MaxSessionDuration, log)
	webhookIntake := recording.NewWebhookIntake(tracks, recording.NewMongoWebhookAudit(mongoDB), log)

	locator := artifact.NewLocator(store, log)
	resolver := playback.NewResolver(store, cache, cfg.Playback, log)
	audio := playback.NewAudioService(store, cache, transcode.NewFFmpegConverter(), log)
	playbackService := playback.NewService(locator, resolver, audio, tracks, events, cfg.Playback.MatchTolerance, log)
	sweeper := playback.NewSweeper(store, cfg.Sweep.RetentionWindow, log)
	proxy := playback.NewProxy(store, log)

	srv := server.New(cfg, db, log,
		jwtService,
		recording.NewHandler(recordingService, sentinel),
		webhookIntake,
		playback.NewHandler(playbackService, sweeper),
		proxy,
	)
	srv.RegisterFiberRoutes()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	go webhookIntake.Run(workerCtx)

	done := make(chan bool, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	go gracefulShutdown(srv, cancelWorkers, done)

	<-done
	log.Info().Msg("graceful shutdown complete")
}
