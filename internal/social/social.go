// Package social publishes the daily winner to a Telegram channel.
package social

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrNotConfigured = errors.New("social: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required")

// Poster publishes a caption, with an image when imageURL is set.
type Poster interface {
	Post(ctx context.Context, caption, imageURL string) error
}

// Telegram posts to one chat. The bot handshake (getMe) happens on the first
// post, not at construction.
type Telegram struct {
	token    string
	chatID   int64
	endpoint string
	client   *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegram returns a poster for chatID. endpoint may be empty to use the
// public Bot API.
func NewTelegram(token string, chatID int64, endpoint string, client *http.Client) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, ErrNotConfigured
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Telegram{token: token, chatID: chatID, endpoint: endpoint, client: client}, nil
}

func (t *Telegram) botAPI() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *Telegram) Post(ctx context.Context, caption, imageURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := t.botAPI()
	if err != nil {
		return err
	}

	var msg tgbotapi.Chattable
	switch {
	case imageURL == "":
		msg = tgbotapi.NewMessage(t.chatID, caption)
	case strings.HasPrefix(imageURL, "data:"):
		data, err := decodeDataURL(imageURL)
		if err != nil {
			return err
		}
		photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileBytes{Name: "winner.png", Bytes: data})
		photo.Caption = caption
		msg = photo
	default:
		photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileURL(imageURL))
		photo.Caption = caption
		msg = photo
	}

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("posting to telegram: %w", err)
	}
	return nil
}

func decodeDataURL(s string) ([]byte, error) {
	_, payload, ok := strings.Cut(s, ";base64,")
	if !ok {
		return nil, errors.New("social: image data URL is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding image data URL: %w", err)
	}
	return data, nil
}

var _ Poster = (*Telegram)(nil)
