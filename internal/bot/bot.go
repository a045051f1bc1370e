package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/food-lens/internal/bot/handlers"
	"github.com/vladimiradmaev/food-lens/internal/bot/state"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

type Bot struct {
	api           *tgbotapi.BotAPI
	updateHandler *handlers.UpdateHandler
	errs          *apperrors.Handler
}

func NewBot(token string, deps handlers.Dependencies, stateManager state.StateManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot authorized", "username", api.Self.UserName)
	return &Bot{
		api:           api,
		updateHandler: handlers.NewUpdateHandler(api, deps, stateManager),
		errs:          apperrors.NewHandler(logger.GetLogger()),
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Info("Bot is now listening for updates...")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Bot is shutting down...")
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil && update.Message.From != nil {
				logger.Debug("Received message", "user_id", update.Message.From.ID, "has_photo", len(update.Message.Photo) > 0)
			}
			if err := dispatch(ctx, b.errs, update, b.updateHandler.Handle, b.reply); err != nil {
				logger.Error("Error handling update", "update_id", update.UpdateID, "error", err)
			}
		}
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// dispatch runs handle for one update. A panic is logged as an internal error
// and the chat gets the generic failure message; the update loop keeps going.
func dispatch(ctx context.Context, errs *apperrors.Handler, update tgbotapi.Update,
	handle func(context.Context, tgbotapi.Update) error, reply func(chatID int64, text string)) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		appErr := apperrors.NewInternalError(fmt.Errorf("panic: %v", rec)).
			WithContext("update_id", update.UpdateID)
		errs.Handle(ctx, appErr)
		if chatID := updateChatID(update); chatID != 0 {
			reply(chatID, apperrors.UserMessage(appErr))
		}
		err = nil
	}()
	return handle(ctx, update)
}

func updateChatID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}
