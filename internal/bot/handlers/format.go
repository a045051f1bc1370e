package handlers

import (
	"fmt"
	"strings"

	"github.com/vladimiradmaev/food-lens/internal/domain"
)

// maxCaptionLength leaves room under Telegram's 1024 character caption limit
const maxCaptionLength = 1000

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"`", "\\`",
)

func escapeMarkdown(s string) string {
	return strings.ToValidUTF8(markdownEscaper.Replace(s), "")
}

// FormatOutcome renders an analysis as a Markdown caption
func FormatOutcome(outcome *domain.AnalysisOutcome) string {
	r := outcome.Result
	n := r.Nutrition

	healthIcon := "🟢"
	if !r.IsHealthy() {
		healthIcon = "🔴"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽️ *%s*\n%s %s\n\n", escapeMarkdown(r.FoodName), healthIcon, escapeMarkdown(r.Healthiness))
	fmt.Fprintf(&sb, "🔥 *Calories:* %s\n", escapeMarkdown(n.Calories.String()))
	fmt.Fprintf(&sb, "🥩 *Protein:* %s\n", escapeMarkdown(n.Protein.String()))
	fmt.Fprintf(&sb, "🍞 *Carbs:* %s\n", escapeMarkdown(n.Carbs.String()))
	fmt.Fprintf(&sb, "🧈 *Fat:* %s\n", escapeMarkdown(n.Fat.String()))
	fmt.Fprintf(&sb, "🌾 *Fiber:* %s\n", escapeMarkdown(n.Fiber.String()))

	if outcome.DailyNeeds != nil {
		fmt.Fprintf(&sb, "\n📊 *Daily needs:* %d kcal", *outcome.DailyNeeds)
		if outcome.PercentageOfNeeds != nil {
			fmt.Fprintf(&sb, " (this meal: %.1f%%)", *outcome.PercentageOfNeeds)
		}
		sb.WriteString("\n")
	}

	if r.Reasoning != "" {
		fmt.Fprintf(&sb, "\n💬 %s\n", escapeMarkdown(r.Reasoning))
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("\n✨ *Alternatives:*\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "• %s (%s)\n", escapeMarkdown(rec.Name), escapeMarkdown(rec.Calories.String()))
		}
	}

	text := strings.TrimRight(sb.String(), "\n")
	if len(text) > maxCaptionLength {
		text = strings.ToValidUTF8(text[:maxCaptionLength-3], "") + "..."
	}
	return text
}
