package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	handler *Handler
	chatID  int64
}

var ErrNoChatID = errors.New("chat ID not set")

func NewTelegramBot(token string, chatID int64, service Service) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	handler := NewHandler(service)

	return &TelegramBot{
		bot:     bot,
		handler: handler,
		chatID:  chatID,
	}, nil
}

func (t *TelegramBot) Start(ctx context.Context) error {
	slog.Info("Authorized on account", "username", t.bot.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			if update.Message.IsCommand() {
				slog.Info("Handling command", "command", update.Message.Command(), "chat", update.Message.Chat.ID)
				msg := t.handler.HandleCommand(ctx, update)
				if err := t.send(msg); err != nil {
					slog.Error("Error sending message", "error", err)
				}
			}
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return nil
		}
	}
}

func (t *TelegramBot) SendMessage(text string) error {
	if t.chatID == 0 {
		slog.Error("Chat ID not set")
		return ErrNoChatID
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	err := t.send(msg)
	if err != nil {
		slog.Error("Error sending message", "error", err)
	}
	return err
}

// send delivers msg, resending it as plain text when Telegram rejects the
// markup.
func (t *TelegramBot) send(msg tgbotapi.MessageConfig) error {
	_, err := t.bot.Send(msg)
	if err == nil || msg.ParseMode == "" {
		return err
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		return err
	}

	slog.Warn("Message markup rejected, sending as plain text", "chat", msg.ChatID, "error", err)
	msg.ParseMode = ""
	_, err = t.bot.Send(msg)
	return err
}
