package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/food-lens/internal/bot/keyboards"
	"github.com/vladimiradmaev/food-lens/internal/bot/menus"
	"github.com/vladimiradmaev/food-lens/internal/bot/state"
)

// TextHandler handles plain text messages
type TextHandler struct {
	api          *tgbotapi.BotAPI
	stateManager state.StateManager
}

// NewTextHandler creates a new text handler
func NewTextHandler(api *tgbotapi.BotAPI, stateManager state.StateManager) *TextHandler {
	return &TextHandler{
		api:          api,
		stateManager: stateManager,
	}
}

// Handle saves a profile when one is expected or the text looks like one,
// and otherwise points the user at the menu
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	userState := h.stateManager.GetUserState(userID)
	waiting := userState == state.WaitingForProfile

	if !waiting && !strings.Contains(message.Text, "=") {
		msg := tgbotapi.NewMessage(message.Chat.ID, idleText(userState))
		msg.ReplyMarkup = keyboards.MainMenu()
		_, err := h.api.Send(msg)
		return err
	}

	profile, unknown := ParseProfileText(message.Text)
	if len(profile) == 0 {
		return h.reply(message.Chat.ID, "I could not find any profile values. Example:\nweight=70 height=170 age=25 gender=male activity=moderate")
	}

	if existing, ok := h.stateManager.GetProfile(userID); ok {
		profile = mergeProfiles(existing, profile)
	}
	h.stateManager.SetProfile(userID, profile)
	h.stateManager.SetUserState(userID, state.None)

	text := menus.FormatProfile(profile)
	if len(unknown) > 0 {
		text += fmt.Sprintf("\n\nIgnored unknown fields: %s", strings.Join(unknown, ", "))
	}
	return h.reply(message.Chat.ID, text+"\n\nNow send me a photo of your meal.")
}

func idleText(userState string) string {
	if userState == state.WaitingForPhoto {
		return "I am waiting for a photo of your meal. Send it as a photo or as an image file."
	}
	return "Send me a photo of your meal, or use /help to see what I can do."
}

func (h *TextHandler) reply(chatID int64, text string) error {
	_, err := h.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
