package services

import (
	"testing"

	"github.com/vladimiradmaev/food-lens/internal/domain"
)

func TestCalculateDailyNeeds(t *testing.T) {
	tests := []struct {
		name    string
		profile domain.UserProfile
		want    int
	}{
		{
			name:    "all defaults",
			profile: domain.UserProfile{},
			want:    2546,
		},
		{
			name:    "nil profile uses defaults",
			profile: nil,
			want:    2546,
		},
		{
			name: "explicit default values",
			profile: domain.UserProfile{
				"weight": "70", "height": "170", "age": "25", "gender": "male", "activity": "moderate",
			},
			want: 2546,
		},
		{
			name: "female sedentary",
			profile: domain.UserProfile{
				"weight": "60", "height": "165", "age": "30", "gender": "female", "activity": "sedentary",
			},
			want: 1584,
		},
		{
			name: "male light",
			profile: domain.UserProfile{
				"weight": "90", "height": "175", "age": "40", "gender": "male", "activity": "light",
			},
			want: 2473,
		},
		{
			name: "male very active",
			profile: domain.UserProfile{
				"weight": "80", "height": "180", "age": "30", "gender": "male", "activity": "very_active",
			},
			want: 3382,
		},
		{
			name:    "gender is case insensitive",
			profile: domain.UserProfile{"weight": "60", "height": "165", "age": "30", "gender": " Female ", "activity": "sedentary"},
			want:    1584,
		},
		{
			name:    "non male gender uses female offset",
			profile: domain.UserProfile{"weight": "60", "height": "165", "age": "30", "gender": "other", "activity": "sedentary"},
			want:    1584,
		},
		{
			name:    "unknown activity uses moderate",
			profile: domain.UserProfile{"activity": "couch"},
			want:    2546,
		},
		{
			name:    "unparsable weight falls back",
			profile: domain.UserProfile{"weight": "abc"},
			want:    FallbackDailyNeeds,
		},
		{
			name:    "blank height falls back",
			profile: domain.UserProfile{"height": ""},
			want:    FallbackDailyNeeds,
		},
		{
			name:    "fractional age falls back",
			profile: domain.UserProfile{"age": "25.5"},
			want:    FallbackDailyNeeds,
		},
		{
			name:    "NaN weight falls back",
			profile: domain.UserProfile{"weight": "NaN"},
			want:    FallbackDailyNeeds,
		},
		{
			name:    "overflowing weight falls back",
			profile: domain.UserProfile{"weight": "1e308"},
			want:    FallbackDailyNeeds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateDailyNeeds(tt.profile); got != tt.want {
				t.Errorf("CalculateDailyNeeds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateDailyNeedsReportsFallbackCause(t *testing.T) {
	estimate := EstimateDailyNeeds(domain.UserProfile{"weight": "heavy"})
	if !estimate.Fallback {
		t.Fatal("expected fallback")
	}
	if estimate.Cause == nil {
		t.Error("expected fallback cause")
	}

	estimate = EstimateDailyNeeds(domain.UserProfile{})
	if estimate.Fallback {
		t.Errorf("unexpected fallback: %v", estimate.Cause)
	}
	if estimate.BMR != 1642.5 {
		t.Errorf("BMR = %v, want 1642.5", estimate.BMR)
	}
	if estimate.Multiplier != 1.55 {
		t.Errorf("Multiplier = %v, want 1.55", estimate.Multiplier)
	}
}

func TestActivityMultiplier(t *testing.T) {
	tests := map[string]float64{
		"sedentary":   1.2,
		"light":       1.375,
		"moderate":    1.55,
		"active":      1.725,
		"very_active": 1.9,
		" Active ":    1.725,
		"":            1.55,
		"extreme":     1.55,
	}
	for activity, want := range tests {
		if got := ActivityMultiplier(activity); got != want {
			t.Errorf("ActivityMultiplier(%q) = %v, want %v", activity, got, want)
		}
	}
}
