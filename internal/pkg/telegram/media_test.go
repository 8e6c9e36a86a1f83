package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"media_relay_bot/internal/pkg/media/domain"
)

func TestMediaFromMessage(t *testing.T) {
	t.Run("video with thumbnail", func(t *testing.T) {
		m := MediaFromMessage(&tgbotapi.Message{
			Video: &tgbotapi.Video{
				FileID:       "vid-ref",
				FileUniqueID: "AgADu1",
				FileName:     "recap.mp4",
				MimeType:     "video/mp4",
				Thumbnail:    &tgbotapi.PhotoSize{FileID: "thumb-ref", Width: 320, Height: 180},
			},
		})
		if m == nil || m.Kind != domain.KindVideo || m.FileRef != "vid-ref" || m.UniqueID != "AgADu1" {
			t.Fatalf("media = %+v", m)
		}
		if m.Preview == nil || m.Preview.FileRef != "thumb-ref" || m.Preview.Width != 320 {
			t.Errorf("preview = %+v", m.Preview)
		}
	})

	t.Run("document without thumbnail", func(t *testing.T) {
		m := MediaFromMessage(&tgbotapi.Message{
			Document: &tgbotapi.Document{FileID: "doc-ref", FileUniqueID: "AgADd9", MimeType: "application/pdf"},
		})
		if m == nil || m.Kind != domain.KindDocument || m.Preview != nil {
			t.Fatalf("media = %+v", m)
		}
		if m.Decodable() {
			t.Error("a pdf is not decodable")
		}
	})

	t.Run("no media", func(t *testing.T) {
		if m := MediaFromMessage(&tgbotapi.Message{Text: "hello"}); m != nil {
			t.Errorf("media = %+v, want nil", m)
		}
		if MediaFromMessage(nil) != nil {
			t.Error("nil message must give nil media")
		}
	})
}
