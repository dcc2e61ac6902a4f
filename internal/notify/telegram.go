// internal/notify/telegram.go
package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxTelegramMessage = 4096

// Telegram posts operation outcomes to a fixed chat, for teams that run
// ticket triage out of a channel.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates a Telegram notifier for the given bot token and
// target chat.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Success(message string) {
	t.send("✅ " + message)
}

func (t *Telegram) Error(message string) {
	t.send("⚠️ " + message)
}

func (t *Telegram) send(text string) {
	if len(text) > maxTelegramMessage {
		text = text[:maxTelegramMessage]
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		slog.Warn("telegram notify failed", "error", err)
	}
}
