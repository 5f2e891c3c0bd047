package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Service is what the chat commands need from the pool service.
type Service interface {
	GetCurrentWeek(ctx context.Context) (int, error)
	GetGamesMessage(ctx context.Context) (string, error)
	GetPicksMessage(ctx context.Context) (string, error)
	GetPromptMessage(ctx context.Context) (string, error)
	GetStandings(ctx context.Context) (string, error)
	CheckMessage(ctx context.Context, data []byte) (string, error)
}

const helpText = "Available commands:\n" +
	"/week - Current NFL week\n" +
	"/games - This week's games and lines\n" +
	"/picks - Picks in the grid for this week\n" +
	"/prompt - Research prompt for this week\n" +
	"/check <json> - Validate a pasted pick list\n" +
	"/standings - Season standings"

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	command := strings.ToLower(update.Message.Command())
	args := update.Message.CommandArguments()
	msg.ParseMode = "Markdown"

	switch command {
	case "start":
		msg.Text = "Welcome to the confidence pool bot! Use /help to see available commands."
	case "help":
		msg.Text = helpText
	case "week":
		h.handleWeek(ctx, &msg)
	case "games":
		h.reply(&msg, "fetching games", func() (string, error) { return h.service.GetGamesMessage(ctx) })
	case "picks":
		h.reply(&msg, "reading picks", func() (string, error) { return h.service.GetPicksMessage(ctx) })
	case "prompt":
		h.reply(&msg, "building prompt", func() (string, error) { return h.service.GetPromptMessage(ctx) })
		msg.ParseMode = ""
	case "standings":
		h.reply(&msg, "fetching standings", func() (string, error) { return h.service.GetStandings(ctx) })
	case "check":
		h.handleCheck(ctx, &msg, args)
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

func (h *Handler) reply(msg *tgbotapi.MessageConfig, action string, fetch func() (string, error)) {
	text, err := fetch()
	if err != nil {
		msg.Text = fmt.Sprintf("Error %s: %v", action, err)
		msg.ParseMode = ""
		return
	}
	msg.Text = text
}

func (h *Handler) handleWeek(ctx context.Context, msg *tgbotapi.MessageConfig) {
	week, err := h.service.GetCurrentWeek(ctx)
	if err != nil {
		msg.Text = fmt.Sprintf("Error fetching current week: %v", err)
		return
	}
	msg.Text = fmt.Sprintf("🗓 It's week %d.", week)
}

func (h *Handler) handleCheck(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if strings.TrimSpace(args) == "" {
		msg.Text = "Please paste the picks JSON. Usage: /check {\"picks\": [...]}"
		msg.ParseMode = ""
		return
	}
	h.reply(msg, "checking picks", func() (string, error) { return h.service.CheckMessage(ctx, []byte(args)) })
}
