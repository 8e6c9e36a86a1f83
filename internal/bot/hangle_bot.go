package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/retrieval"
)

const (
	helpText           = "Open a file link from the catalog to receive it here. Files delete themselves after a while, save what you need."
	unknownCommandText = "Unknown command 🤔"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		req := retrieval.Request{
			ChatID: msg.Chat.ID,
			Arg:    msg.CommandArguments(),
		}
		if msg.From != nil {
			req.UserID = msg.From.ID
			req.UserName = msg.From.UserName
		}
		out := b.retriever.Start(ctx, req)
		b.logger.Debug("start handled", zap.Int64("user_id", req.UserID), zap.Int("outcome", int(out)))
	case "help":
		b.reply(ctx, msg.Chat.ID, helpText)
	default:
		b.reply(ctx, msg.Chat.ID, unknownCommandText)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.replier.SendText(ctx, chatID, text); err != nil {
		b.logger.Warn("reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
