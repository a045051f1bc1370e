package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/food-lens/internal/bot/menus"
	"github.com/vladimiradmaev/food-lens/internal/bot/state"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	api          *tgbotapi.BotAPI
	stateManager state.StateManager
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api *tgbotapi.BotAPI, stateManager state.StateManager) *CommandHandler {
	return &CommandHandler{
		api:          api,
		stateManager: stateManager,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	logger.Info("Handling command", "command", message.Command(), "user_id", userID)

	switch message.Command() {
	case "start":
		h.stateManager.SetUserState(userID, state.None)
		return menus.SendMainMenu(h.api, message.Chat.ID)
	case "help":
		return menus.SendHelp(h.api, message.Chat.ID)
	case "profile":
		profile, _ := h.stateManager.GetProfile(userID)
		return h.reply(message.Chat.ID, menus.FormatProfile(profile))
	case "reset":
		h.stateManager.ClearProfile(userID)
		h.stateManager.SetUserState(userID, state.None)
		return h.reply(message.Chat.ID, "Your profile has been forgotten.")
	default:
		return h.reply(message.Chat.ID, "Unknown command. Use /help to see the available commands.")
	}
}

func (h *CommandHandler) reply(chatID int64, text string) error {
	_, err := h.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
