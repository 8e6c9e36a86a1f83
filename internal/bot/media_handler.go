package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/ingest"
	"media_relay_bot/internal/pkg/telegram"
)

// handleAdminMedia feeds private uploads into ingestion. Sender checks happen there.
func (b *Bot) handleAdminMedia(ctx context.Context, msg *tgbotapi.Message) {
	m := telegram.MediaFromMessage(msg)
	if m == nil {
		return
	}
	ev := ingest.Event{
		Source:    ingest.SourceAdmin,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Caption:   msg.Caption,
		Media:     m,
	}
	if msg.From != nil {
		ev.SenderID = msg.From.ID
	}
	b.ingest(ctx, ev)
}

func (b *Bot) handleChannelPost(ctx context.Context, post *tgbotapi.Message) {
	if post.Chat == nil {
		return
	}
	category, ok := b.categoryFor(post.Chat.ID)
	if !ok {
		return
	}
	m := telegram.MediaFromMessage(post)
	if m == nil {
		return
	}
	ev := ingest.Event{
		Source:    ingest.SourceChannel,
		ChatID:    post.Chat.ID,
		MessageID: post.MessageID,
		Caption:   post.Caption,
		Media:     m,
		Category:  category,
	}
	if post.From != nil {
		ev.SenderID = post.From.ID
	}
	b.ingest(ctx, ev)
}

func (b *Bot) categoryFor(chatID int64) (string, bool) {
	if chatID == b.cfg.ChannelID {
		return "", true
	}
	category, ok := b.cfg.SourceChannels[chatID]
	return category, ok
}

func (b *Bot) ingest(ctx context.Context, ev ingest.Event) {
	res, err := b.ingester.Handle(ctx, ev)
	if err != nil {
		b.logger.Error("ingestion failed",
			zap.String("source", string(ev.Source)),
			zap.Int64("chat_id", ev.ChatID),
			zap.Int("message_id", ev.MessageID),
			zap.Error(err),
		)
		return
	}
	b.logger.Debug("ingestion handled", zap.String("source", string(ev.Source)), zap.Stringer("result", res))
}
