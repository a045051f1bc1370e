package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data values
const (
	ActionMainMenu    = "main_menu"
	ActionAnalyzeFood = "analyze_food"
	ActionSetProfile  = "set_profile"
	ActionShowProfile = "show_profile"
	ActionHelp        = "help"
)

// MainMenu creates the main menu keyboard
func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽️ Analyze food", ActionAnalyzeFood),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Set profile", ActionSetProfile),
			tgbotapi.NewInlineKeyboardButtonData("📋 My profile", ActionShowProfile),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", ActionHelp),
		),
	)
}

// AfterAnalysis is attached to every analysis reply
func AfterAnalysis() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 Main menu", ActionMainMenu),
			tgbotapi.NewInlineKeyboardButtonData("🔄 New analysis", ActionAnalyzeFood),
		),
	)
}

// BackToMenu offers a single way back
func BackToMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Main menu", ActionMainMenu),
		),
	)
}
