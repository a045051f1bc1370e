package services

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vladimiradmaev/food-lens/internal/domain"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

var digitRun = regexp.MustCompile(`\d+`)

type AnalysisService struct {
	estimator *NutritionEstimator
	now       func() time.Time
}

func NewAnalysisService(estimator *NutritionEstimator) *AnalysisService {
	return &AnalysisService{
		estimator: estimator,
		now:       time.Now,
	}
}

// Analyze runs one request through decode, daily needs, estimation and
// percentage derivation. It returns either a complete outcome or an error,
// never both.
func (s *AnalysisService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisOutcome, error) {
	id := uuid.New().String()
	log := logger.WithFields("analysis_id", id)

	img, err := DecodeImage(req.Upload)
	if err != nil {
		return nil, err
	}
	log.Debug("Image decoded", "format", img.Format, "size", len(img.Raw), "filename", img.Filename)

	var dailyNeeds *int
	if req.CalculateNeeds {
		estimate := EstimateDailyNeeds(req.Profile)
		if estimate.Fallback {
			log.Debug("Profile unusable, using fallback daily needs", "cause", estimate.Cause)
		}
		dailyNeeds = &estimate.DailyNeeds
	}

	estimation := s.estimator.Estimate(ctx, img)
	if !estimation.Available() {
		log.Warn("Nutrition estimation unavailable",
			"status", estimation.Status.String(),
			"attempts", estimation.Attempts)
		return nil, apperrors.Wrap(estimation.Err, apperrors.ErrorTypeUnavailable,
			apperrors.CodeAnalysisFailed, apperrors.MessageAnalysisFailed).
			WithContext("analysis_id", id).
			WithContext("estimation_status", estimation.Status.String())
	}

	var percentage *float64
	if dailyNeeds != nil && *dailyNeeds > 0 {
		if calories, ok := ExtractCalories(estimation.Result.Nutrition.Calories.String()); ok {
			p := PercentageOfNeeds(calories, *dailyNeeds)
			percentage = &p
		}
	}

	outcome := &domain.AnalysisOutcome{
		ID:                id,
		Result:            estimation.Result,
		DailyNeeds:        dailyNeeds,
		PercentageOfNeeds: percentage,
		ImageBase64:       EncodeForDisplay(img),
		ImageMIME:         img.MIMEType(),
		Filename:          img.Filename,
		CreatedAt:         s.now(),
	}

	log.Info("Analysis completed",
		"food", estimation.Result.FoodName,
		"healthiness", estimation.Result.Healthiness,
		"calories", estimation.Result.Nutrition.Calories.String(),
		"daily_needs", deref(dailyNeeds),
		"percentage_of_needs", deref(percentage))
	return outcome, nil
}

// ExtractCalories returns the first run of digits in text. "250-300 kcal"
// gives 250; text without digits gives false.
func ExtractCalories(text string) (int, bool) {
	match := digitRun.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PercentageOfNeeds returns calories as a percentage of dailyNeeds, rounded to
// one decimal place. Rounding works on the exact value of the float, with
// exact ties going to even, so 445 of 2000 gives 22.2.
func PercentageOfNeeds(calories, dailyNeeds int) float64 {
	pct := float64(calories) / float64(dailyNeeds) * 100
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 1, 64), 64)
	if err != nil {
		return pct
	}
	return rounded
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
