package menus

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/food-lens/internal/bot/keyboards"
	"github.com/vladimiradmaev/food-lens/internal/domain"
)

// HelpText explains the bot's commands and the profile format
const HelpText = `Available commands:
/start - Show the main menu
/help - Show this message
/profile - Show your saved profile
/reset - Forget your saved profile

Send a photo of your meal and I will estimate its nutrition.

To compare a meal with your daily needs, save a profile by sending:
weight=70 height=170 age=25 gender=male activity=moderate

Activity is one of: sedentary, light, moderate, active, very_active.
You can also put the same pairs in the photo caption for a one-off comparison.
Your profile is forgotten after 24 hours.`

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api *tgbotapi.BotAPI, chatID int64) error {
	text := `🍽️ *Food Lens*: nutrition estimates from a photo

Send me a picture of your meal and I will:
• Identify the food
• Estimate calories, protein, carbs, fat and fiber
• Suggest healthier alternatives
• Compare it with your daily needs if you save a profile

⚠️ Estimates come from an AI model and may be inaccurate.

Choose an action:`

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.MainMenu()
	_, err := api.Send(msg)
	return err
}

// SendHelp sends the help text
func SendHelp(api *tgbotapi.BotAPI, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, HelpText)
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := api.Send(msg)
	return err
}

// FormatProfile renders a stored profile, one field per line
func FormatProfile(profile domain.UserProfile) string {
	if len(profile) == 0 {
		return "No profile saved. Tap \"Set profile\" or send e.g.\nweight=70 height=170 age=25 gender=male activity=moderate"
	}
	var sb strings.Builder
	sb.WriteString("Your profile:\n")
	for _, field := range domain.ProfileFields {
		if v, ok := profile[field]; ok {
			sb.WriteString(fmt.Sprintf("• %s: %s\n", field, v))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
