// Package telegram adapts the Bot API to the transport ports used by the relay.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/http_client"
	"media_relay_bot/internal/pkg/media/domain"
)

type Client struct {
	api       *tgbotapi.BotAPI
	http      tgbotapi.HTTPClient
	channelID int64
	logger    *zap.Logger
}

// NewBotAPI authorizes the token through a logging HTTP client.
func NewBotAPI(token string, httpClient *http_client.LoggedClient, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %s", http_client.RedactURL(err.Error()))
	}
	api.Debug = debug
	return api, nil
}

// NewClient wraps api. channelID is the permanent channel admin uploads are relayed into.
func NewClient(api *tgbotapi.BotAPI, httpClient tgbotapi.HTTPClient, channelID int64, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		api:       api,
		http:      httpClient,
		channelID: channelID,
		logger:    logger,
	}
}

func (c *Client) API() *tgbotapi.BotAPI {
	return c.api
}

func (c *Client) ForwardToChannel(_ context.Context, fromChatID int64, messageID int) (*domain.Media, error) {
	sent, err := c.api.Send(tgbotapi.NewForward(c.channelID, fromChatID, messageID))
	if err != nil {
		return nil, fmt.Errorf("forward message %d: %w", messageID, err)
	}
	m := MediaFromMessage(&sent)
	if m == nil {
		return nil, fmt.Errorf("forwarded message %d carries no video or document", sent.MessageID)
	}
	return m, nil
}

func (c *Client) FetchFile(ctx context.Context, fileRef string) (io.ReadCloser, error) {
	url, err := c.api.GetFileDirectURL(fileRef)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build file request: %s", http_client.RedactURL(err.Error()))
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %s", http_client.RedactURL(err.Error()))
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// SendMedia sends a stored file by reference. protect sets protect_content, which the
// typed configs of this library version do not expose.
func (c *Client) SendMedia(_ context.Context, chatID int64, kind domain.MediaKind, fileRef, caption string, protect bool) (int, error) {
	method, field := "sendDocument", "document"
	if kind == domain.KindVideo {
		method, field = "sendVideo", "video"
	}

	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", chatID)
	params[field] = fileRef
	params.AddNonEmpty("caption", caption)
	params.AddBool("protect_content", protect)

	resp, err := c.api.MakeRequest(method, params)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", method, err)
	}
	var msg tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &msg); err != nil {
		return 0, fmt.Errorf("%s: decode result: %w", method, err)
	}
	return msg.MessageID, nil
}

func (c *Client) SendText(_ context.Context, chatID int64, text string) error {
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (c *Client) SendPrompt(_ context.Context, chatID int64, text, buttonText, url string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(buttonText, url)),
	)
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send prompt: %w", err)
	}
	return nil
}

func (c *Client) MemberStatus(_ context.Context, chatID, userID int64) (string, error) {
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}
	return member.Status, nil
}

func (c *Client) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
