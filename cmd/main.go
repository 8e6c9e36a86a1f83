package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"media_relay_bot/internal/bot"
	"media_relay_bot/internal/pkg/access"
	"media_relay_bot/internal/pkg/config"
	"media_relay_bot/internal/pkg/http_client"
	"media_relay_bot/internal/pkg/ingest"
	"media_relay_bot/internal/pkg/media/repository"
	"media_relay_bot/internal/pkg/retrieval"
	"media_relay_bot/internal/pkg/scheduler"
	"media_relay_bot/internal/pkg/telegram"
	"media_relay_bot/internal/pkg/thumbnail"
	"media_relay_bot/internal/pkg/web_server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		newLogger("info").Fatal("load config", zap.Error(err))
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// STORAGE
	if err := repository.Migrate(cfg.Database.URL, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	db, err := repository.Open(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer db.Close()
	records := repository.NewCachedRepository(repository.NewPostgresStorage(db), cfg.Cache.Size, cfg.Cache.TTL)

	thumbs, err := newThumbnailStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("thumbnail store", zap.Error(err))
	}

	// TELEGRAM
	httpClient := http_client.NewLoggedClient(0, logger.Named("http"))
	api, err := telegram.NewBotAPI(cfg.Telegram.Token, httpClient, cfg.Telegram.Debug)
	if err != nil {
		logger.Fatal("telegram", zap.Error(err))
	}
	if cfg.Telegram.Username == "" {
		cfg.Telegram.Username = api.Self.UserName
	}
	tg := telegram.NewClient(api, httpClient, cfg.Telegram.ChannelID, logger.Named("telegram"))

	// SERVICES
	acquirer := thumbnail.NewAcquirer(
		tg,
		thumbnail.NewFFmpegExtractor(cfg.Thumbnail.FFmpegPath),
		thumbs,
		"",
		cfg.Thumbnail.Timeout,
		logger.Named("thumbnail"),
	)
	gate := access.NewGate(tg, records, cfg.Access.MembershipChannelID, cfg.Access.VerifyWindow, logger.Named("access"))
	pipeline := ingest.NewPipeline(records, tg, acquirer, tg, cfg.Telegram.AdminID, logger.Named("ingest"))

	var wg sync.WaitGroup

	var sched scheduler.Scheduler
	if cfg.Redis.Addr != "" {
		rdb, err := scheduler.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		rs := scheduler.NewRedisScheduler(rdb, tg, scheduler.DefaultQueueKey, logger.Named("scheduler"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			rs.Run(ctx)
		}()
		sched = rs
	} else {
		ms := scheduler.NewMemoryScheduler(tg, logger.Named("scheduler"))
		defer ms.Stop()
		logger.Warn("REDIS_ADDR not set, pending deletions are lost on restart")
		sched = ms
	}

	retriever := retrieval.NewService(records, gate, tg, sched, retrieval.Config{
		VerifyToken: cfg.Access.VerifyToken,
		VerifyURL:   cfg.Access.VerifyURL,
		InviteLink:  cfg.Access.InviteLink,
		AuditChatID: cfg.Telegram.LogChannelID,
		DeleteAfter: cfg.Access.DeleteAfter,
	}, logger.Named("retrieval"))

	b := bot.New(api, pipeline, retriever, tg, bot.Config{
		ChannelID:      cfg.Telegram.ChannelID,
		SourceChannels: cfg.Telegram.SourceChannels,
	}, logger.Named("bot"))

	webServer := web_server.NewWebServer(records, thumbs, web_server.Config{
		Port:        cfg.Server.Port,
		BotUsername: cfg.Telegram.Username,
		PublicURL:   cfg.Server.PublicURL,
	}, logger.Named("web"))

	// TASKS
	wg.Add(3)
	go func() {
		defer wg.Done()
		report, err := thumbnail.Backfill(ctx, records, acquirer)
		if err != nil {
			logger.Error("thumbnail backfill", zap.Error(err))
			return
		}
		logger.Info("thumbnail backfill done",
			zap.Int("scanned", report.Scanned),
			zap.Int("filled", report.Filled),
			zap.Int("failed", report.Failed),
		)
	}()
	go func() {
		defer wg.Done()
		b.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := webServer.Start(ctx); err != nil {
			logger.Error("web server", zap.Error(err))
			stop()
		}
	}()

	logger.Info("relay started",
		zap.String("bot", cfg.Telegram.Username),
		zap.Int64("channel_id", cfg.Telegram.ChannelID),
		zap.Int("source_channels", len(cfg.Telegram.SourceChannels)),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		logger.Warn("shutdown timed out")
	}
	logger.Info("relay stopped")
}

func newThumbnailStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (thumbnail.Store, error) {
	if cfg.AWS.Bucket != "" {
		s3Store, err := thumbnail.NewS3Store(ctx, thumbnail.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.Bucket,
			Prefix:          cfg.AWS.Prefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	}
	fsStore, err := thumbnail.NewFSStore(cfg.Thumbnail.Dir)
	if err != nil {
		return nil, err
	}
	logger.Info("thumbnails stored on disk", zap.String("dir", cfg.Thumbnail.Dir))
	return fsStore, nil
}

func newLogger(level string) *zap.Logger {
	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zapConfig.Level = lvl
	}
	logger, _ := zapConfig.Build()
	return logger
}
