package handlers

import (
	"reflect"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/food-lens/internal/bot/state"
	"github.com/vladimiradmaev/food-lens/internal/domain"
)

func TestParseProfileText(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		want        domain.UserProfile
		wantUnknown []string
	}{
		{
			name: "all fields",
			text: "weight=70 height=170 age=25 gender=male activity=moderate",
			want: domain.UserProfile{"weight": "70", "height": "170", "age": "25", "gender": "male", "activity": "moderate"},
		},
		{
			name: "aliases and separators",
			text: "W=80, h=180;\nSex=female",
			want: domain.UserProfile{"weight": "80", "height": "180", "gender": "female"},
		},
		{
			name:        "unknown keys",
			text:        "weight=70 mood=happy",
			want:        domain.UserProfile{"weight": "70"},
			wantUnknown: []string{"mood"},
		},
		{
			name: "blank value is kept",
			text: "age=",
			want: domain.UserProfile{"age": ""},
		},
		{
			name: "plain caption",
			text: "my lunch today",
			want: domain.UserProfile{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unknown := ParseProfileText(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("profile = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(unknown, tt.wantUnknown) {
				t.Errorf("unknown = %v, want %v", unknown, tt.wantUnknown)
			}
		})
	}
}

func TestMergeProfiles(t *testing.T) {
	base := domain.UserProfile{"weight": "70", "age": "25"}
	override := domain.UserProfile{"weight": "75"}

	got := mergeProfiles(base, override)
	want := domain.UserProfile{"weight": "75", "age": "25"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeProfiles() = %v, want %v", got, want)
	}
	if base["weight"] != "70" {
		t.Error("base must not be modified")
	}
}

func TestFormatOutcome(t *testing.T) {
	daily := 2000
	pct := 22.5
	outcome := &domain.AnalysisOutcome{
		Result: &domain.NutritionResult{
			FoodName:    "Fish_and_chips",
			Healthiness: domain.Unhealthy,
			Reasoning:   "Deep *fried*.",
			Nutrition:   domain.Nutrition{Calories: "450 kcal", Protein: "20 g"},
			Recommendations: []domain.Recommendation{
				{Name: "Grilled fish", Calories: "300 kcal"},
			},
		},
		DailyNeeds:        &daily,
		PercentageOfNeeds: &pct,
	}

	text := FormatOutcome(outcome)
	for _, want := range []string{
		`Fish\_and\_chips`,
		"🔴",
		"450 kcal",
		"2000 kcal",
		"22.5%",
		`Deep \*fried\*.`,
		"Grilled fish (300 kcal)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("FormatOutcome() missing %q in:\n%s", want, text)
		}
	}

	outcome.DailyNeeds, outcome.PercentageOfNeeds = nil, nil
	if strings.Contains(FormatOutcome(outcome), "Daily needs") {
		t.Error("daily needs shown without a profile")
	}
}

func TestFormatOutcomeTruncates(t *testing.T) {
	outcome := &domain.AnalysisOutcome{
		Result: &domain.NutritionResult{
			FoodName:    "Salad",
			Healthiness: domain.Healthy,
			Reasoning:   strings.Repeat("Lots of leafy greens. ", 100),
		},
	}
	text := FormatOutcome(outcome)
	if len(text) > maxCaptionLength {
		t.Errorf("len = %d, want at most %d", len(text), maxCaptionLength)
	}
	if !strings.HasSuffix(text, "...") {
		t.Error("expected truncation marker")
	}
}

func TestPlainCaption(t *testing.T) {
	got := plainCaption(`🍽️ *Fish\_and\_chips* \*fried\*`)
	want := "🍽️ Fish_and_chips *fried*"
	if got != want {
		t.Errorf("plainCaption() = %q, want %q", got, want)
	}
}

func TestAcceptsDocument(t *testing.T) {
	tests := []struct {
		name      string
		doc       *tgbotapi.Document
		userState string
		want      bool
	}{
		{name: "no document", doc: nil, userState: state.WaitingForPhoto, want: false},
		{name: "image file", doc: &tgbotapi.Document{MimeType: "image/webp"}, userState: state.None, want: true},
		{name: "pdf while idle", doc: &tgbotapi.Document{MimeType: "application/pdf"}, userState: state.None, want: false},
		{name: "untyped file while waiting for photo", doc: &tgbotapi.Document{MimeType: "application/octet-stream"}, userState: state.WaitingForPhoto, want: true},
		{name: "file while waiting for profile", doc: &tgbotapi.Document{}, userState: state.WaitingForProfile, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := acceptsDocument(tt.doc, tt.userState); got != tt.want {
				t.Errorf("acceptsDocument() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdleText(t *testing.T) {
	if got := idleText(state.WaitingForPhoto); !strings.Contains(got, "waiting for a photo") {
		t.Errorf("idleText(WaitingForPhoto) = %q", got)
	}
	if got := idleText(state.None); !strings.Contains(got, "/help") {
		t.Errorf("idleText(None) = %q", got)
	}
}
