package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/food-lens/internal/bot/keyboards"
	"github.com/vladimiradmaev/food-lens/internal/bot/menus"
	"github.com/vladimiradmaev/food-lens/internal/bot/state"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

// CallbackHandler handles inline keyboard button presses
type CallbackHandler struct {
	api          *tgbotapi.BotAPI
	stateManager state.StateManager
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api *tgbotapi.BotAPI, stateManager state.StateManager) *CallbackHandler {
	return &CallbackHandler{
		api:          api,
		stateManager: stateManager,
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Answer callback query to remove loading state
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.Warn("Failed to answer callback query", "error", err)
	}
	if query.Message == nil {
		return nil
	}

	userID := query.From.ID
	chatID := query.Message.Chat.ID

	switch query.Data {
	case keyboards.ActionMainMenu:
		h.stateManager.SetUserState(userID, state.None)
		return menus.SendMainMenu(h.api, chatID)
	case keyboards.ActionAnalyzeFood:
		h.stateManager.SetUserState(userID, state.WaitingForPhoto)
		return h.send(chatID, "Send me a photo of your meal 📸")
	case keyboards.ActionSetProfile:
		h.stateManager.SetUserState(userID, state.WaitingForProfile)
		return h.send(chatID, "Send your profile in one message, for example:\nweight=70 height=170 age=25 gender=male activity=moderate")
	case keyboards.ActionShowProfile:
		profile, _ := h.stateManager.GetProfile(userID)
		return h.send(chatID, menus.FormatProfile(profile))
	case keyboards.ActionHelp:
		return menus.SendHelp(h.api, chatID)
	default:
		logger.Warn("Unknown callback data", "data", query.Data, "user_id", userID)
		return nil
	}
}

func (h *CallbackHandler) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := h.api.Send(msg)
	return err
}
