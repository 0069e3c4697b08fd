// Package notify pushes trade activity to Telegram when credentials are
// configured.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Telegram sends one-way notifications to a single chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects the bot API. Both the token and chat id are required.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token not set")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id not set")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}

	log.Info().Str("bot", api.Self.UserName).Msg("Telegram notifications enabled")
	return &Telegram{api: api, chatID: chatID}, nil
}

// Notify sends a message to the configured chat. Delivery failures are logged
// and swallowed: notifications never interrupt trading.
func (t *Telegram) Notify(msg string) {
	m := tgbotapi.NewMessage(t.chatID, msg)
	if _, err := t.api.Send(m); err != nil {
		log.Warn().Err(err).Msg("Telegram send failed")
	}
}
