package bot

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/ingest"
	"media_relay_bot/internal/pkg/retrieval"
)

const handlerTimeout = 3 * time.Minute

type Ingester interface {
	Handle(ctx context.Context, ev ingest.Event) (ingest.Result, error)
}

type Retriever interface {
	Start(ctx context.Context, req retrieval.Request) retrieval.Outcome
}

type Replier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Config struct {
	// ChannelID is the permanent channel. Its posts are ingested without a category.
	ChannelID int64
	// SourceChannels maps additional channels to the category their posts get.
	SourceChannels map[int64]string
}

type Bot struct {
	api       *tgbotapi.BotAPI
	ingester  Ingester
	retriever Retriever
	replier   Replier
	cfg       Config
	logger    *zap.Logger

	wg sync.WaitGroup
}

func New(api *tgbotapi.BotAPI, ingester Ingester, retriever Retriever, replier Replier, cfg Config, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:       api,
		ingester:  ingester,
		retriever: retriever,
		replier:   replier,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run long-polls for updates until ctx is done. Every update is handled in its
// own goroutine; Run returns after the in-flight ones finish.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "channel_post"}

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Authorized on account", zap.String("username", b.api.Self.UserName))

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("update loop stopping")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
				defer cancel()
				b.handleUpdate(hctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("update handler panicked",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.IsCommand() {
			b.handleCommand(ctx, msg)
			return
		}
		if msg.Chat != nil && msg.Chat.IsPrivate() {
			b.handleAdminMedia(ctx, msg)
		}
	case update.ChannelPost != nil:
		b.handleChannelPost(ctx, update.ChannelPost)
	}
}
