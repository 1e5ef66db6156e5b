package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/agent"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/config"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/db"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/gcal"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/handler"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/middleware"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/notify"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/repository"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/router"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/service"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/youtube"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "contentpilot-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	handler.InitMetrics(pool)
	cache := service.NewCacheService(cfg.RedisURL).WithCounters(handler.Metrics.CacheHits, handler.Metrics.CacheMisses)
	defer cache.Close()

	// Optional integrations. Interfaces stay nil when a client is not
	// configured so services report ErrDisabled.
	var fetcher service.ChannelFetcher
	if cfg.YouTubeAPIKey != "" {
		yt, err := youtube.New(ctx, youtube.Options{
			APIKey:     cfg.YouTubeAPIKey,
			RatePerSec: cfg.YouTubeRatePerSec,
			Timeout:    cfg.OutboundTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create youtube client")
		}
		fetcher = yt
	} else {
		log.Warn().Msg("youtube: no api key, analytics disabled")
	}

	var calendarSource service.CalendarSource
	gc, err := gcal.New(ctx, gcal.Options{
		CredentialsFile: cfg.GoogleCredentialsFile,
		TokenFile:       cfg.GoogleTokenFile,
		Timeout:         cfg.OutboundTimeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("gcal: not configured, google calendar disabled")
	} else {
		calendarSource = gc
	}

	var scheduler service.SchedulingAgent
	if cfg.OpenAIAPIKey != "" {
		a, err := agent.New(agent.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create scheduling agent")
		}
		scheduler = a
	} else {
		log.Warn().Msg("agent: no api key, AI scheduling disabled")
	}

	// Repositories
	calendarRepo := repository.NewCalendarRepo(pool)
	channelRepo := repository.NewChannelRepo(pool)
	contentRepo := repository.NewContentRepo(pool)

	// Services
	calendarSvc := service.NewCalendarService(calendarRepo, contentRepo, scheduler)
	gcalSvc := service.NewGoogleCalendarService(calendarSource, calendarRepo, cfg.CalendarID)
	outlierSvc := service.NewOutlierService(fetcher, channelRepo, cache, cfg.AnalysisConcurrency)
	channelSvc := service.NewChannelService(channelRepo, fetcher, cache)
	contentSvc := service.NewContentService(contentRepo)

	// Background workers
	if gcalSvc.Enabled() && cfg.CalendarSyncInterval > 0 {
		w := service.NewSyncWorker(gcalSvc, cfg.CalendarID, cfg.CalendarSyncInterval, handler.Metrics.EventsSynced)
		go w.Start(ctx)
	}
	if cfg.TelegramEnabled() {
		sender, err := notify.NewTelegramSender(notify.TelegramOptions{
			AppID:       cfg.TelegramAppID,
			AppHash:     cfg.TelegramAppHash,
			BotToken:    cfg.TelegramBotToken,
			Channel:     cfg.TelegramChannel,
			SessionFile: cfg.TelegramSession,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create telegram sender")
		}
		w := service.NewDigestWorker(calendarSvc, sender, notify.FormatDigest, cfg.DigestHour)
		go w.Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      "ContentPilot API",
		ServerHeader: "ContentPilot",
	})

	router.Setup(app, &router.Handlers{
		Health: handler.NewHealthHandler(pool, cache.Client(), map[string]bool{
			"youtube":         fetcher != nil,
			"google_calendar": gcalSvc.Enabled(),
			"agent":           scheduler != nil,
			"telegram":        cfg.TelegramEnabled(),
		}),
		Calendar:       handler.NewCalendarHandler(calendarSvc),
		GoogleCalendar: handler.NewGoogleCalendarHandler(gcalSvc),
		Analytics:      handler.NewAnalyticsHandler(outlierSvc),
		Channel:        handler.NewChannelHandler(channelSvc),
		Content:        handler.NewContentHandler(contentSvc),
	}, cfg.CORSOrigins)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("ContentPilot backend starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
