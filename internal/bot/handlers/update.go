package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/food-lens/internal/bot/state"
)

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
	photoHandler    *PhotoHandler
	stateManager    state.StateManager
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *UpdateHandler {
	return &UpdateHandler{
		callbackHandler: NewCallbackHandler(api, stateManager),
		commandHandler:  NewCommandHandler(api, stateManager),
		textHandler:     NewTextHandler(api, stateManager),
		photoHandler:    NewPhotoHandler(api, deps, stateManager),
		stateManager:    stateManager,
	}
}

// Handle processes a telegram update
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return h.callbackHandler.Handle(ctx, update.CallbackQuery)
	}

	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}

	switch {
	case message.IsCommand():
		return h.commandHandler.Handle(ctx, message)
	case len(message.Photo) > 0:
		return h.photoHandler.Handle(ctx, message)
	case acceptsDocument(message.Document, h.stateManager.GetUserState(message.From.ID)):
		return h.photoHandler.HandleDocument(ctx, message)
	case message.Text != "":
		return h.textHandler.Handle(ctx, message)
	}
	return nil
}
