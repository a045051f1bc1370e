package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vladimiradmaev/food-lens/internal/domain"
)

// FallbackDailyNeeds is returned whenever a profile cannot be evaluated
const FallbackDailyNeeds = 2000

// Profile defaults applied when a field is absent
const (
	DefaultWeightKg = 70.0
	DefaultHeightCm = 170.0
	DefaultAgeYears = 25
	DefaultGender   = "male"
	DefaultActivity = "moderate"
)

const defaultActivityMultiplier = 1.55

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// ActivityMultiplier returns the TDEE factor for an activity level. Unknown
// levels get the moderate factor.
func ActivityMultiplier(activity string) float64 {
	if m, ok := activityMultipliers[strings.ToLower(strings.TrimSpace(activity))]; ok {
		return m
	}
	return defaultActivityMultiplier
}

// EnergyEstimate carries the daily needs together with how they were reached.
// Fallback is set when the profile could not be evaluated; Cause says why.
type EnergyEstimate struct {
	DailyNeeds int
	BMR        float64
	Multiplier float64
	Fallback   bool
	Cause      error
}

// CalculateDailyNeeds returns the daily energy requirement in kcal. It never
// fails; an unusable profile yields FallbackDailyNeeds.
func CalculateDailyNeeds(profile domain.UserProfile) int {
	return EstimateDailyNeeds(profile).DailyNeeds
}

// EstimateDailyNeeds applies Mifflin-St Jeor and scales by activity level
func EstimateDailyNeeds(profile domain.UserProfile) EnergyEstimate {
	weight, err := profileFloat(profile, domain.ProfileWeight, DefaultWeightKg)
	if err != nil {
		return fallback(err)
	}
	height, err := profileFloat(profile, domain.ProfileHeight, DefaultHeightCm)
	if err != nil {
		return fallback(err)
	}
	age, err := profileInt(profile, domain.ProfileAge, DefaultAgeYears)
	if err != nil {
		return fallback(err)
	}
	gender := profileText(profile, domain.ProfileGender, DefaultGender)
	activity := profileText(profile, domain.ProfileActivity, DefaultActivity)

	bmr := 10*weight + 6.25*height - 5*float64(age)
	if gender == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	multiplier := ActivityMultiplier(activity)
	tdee := math.Round(bmr * multiplier)
	if math.IsNaN(tdee) || math.IsInf(tdee, 0) || tdee > math.MaxInt32 || tdee < math.MinInt32 {
		return fallback(fmt.Errorf("daily needs out of range: %v", tdee))
	}

	return EnergyEstimate{
		DailyNeeds: int(tdee),
		BMR:        bmr,
		Multiplier: multiplier,
	}
}

func fallback(cause error) EnergyEstimate {
	return EnergyEstimate{
		DailyNeeds: FallbackDailyNeeds,
		Fallback:   true,
		Cause:      cause,
	}
}

func profileFloat(profile domain.UserProfile, key string, def float64) (float64, error) {
	raw, ok := profile[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func profileInt(profile domain.UserProfile, key string, def int) (int, error) {
	raw, ok := profile[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func profileText(profile domain.UserProfile, key, def string) string {
	raw, ok := profile[key]
	if !ok {
		return def
	}
	return strings.ToLower(strings.TrimSpace(raw))
}
