package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"media_relay_bot/internal/pkg/media/domain"
)

// MediaFromMessage resolves the video or document carried by msg, or nil.
func MediaFromMessage(msg *tgbotapi.Message) *domain.Media {
	if msg == nil {
		return nil
	}
	switch {
	case msg.Video != nil:
		v := msg.Video
		return &domain.Media{
			Kind:     domain.KindVideo,
			FileRef:  v.FileID,
			UniqueID: v.FileUniqueID,
			FileName: v.FileName,
			MimeType: v.MimeType,
			Size:     v.FileSize,
			Preview:  preview(v.Thumbnail),
		}
	case msg.Document != nil:
		d := msg.Document
		return &domain.Media{
			Kind:     domain.KindDocument,
			FileRef:  d.FileID,
			UniqueID: d.FileUniqueID,
			FileName: d.FileName,
			MimeType: d.MimeType,
			Size:     d.FileSize,
			Preview:  preview(d.Thumbnail),
		}
	}
	return nil
}

func preview(p *tgbotapi.PhotoSize) *domain.Preview {
	if p == nil || p.FileID == "" {
		return nil
	}
	return &domain.Preview{FileRef: p.FileID, Width: p.Width, Height: p.Height}
}
