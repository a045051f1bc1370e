package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladimiradmaev/food-lens/internal/config"
	"github.com/vladimiradmaev/food-lens/internal/domain"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

// NutritionPrompt is sent with every image. The field names and nesting must
// match domain.NutritionResult.
const NutritionPrompt = `You are a nutrition analysis assistant. Analyze the food in this image.

CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a single valid JSON object
- Do not include any markdown formatting or code fences
- Do not include any explanatory text before or after the JSON
- Give every nutrition value as text with its unit (for example "450 kcal", "12 g")
- "healthiness" must be exactly "healthy" or "unhealthy"
- The JSON must have these exact fields:
  {
    "food_name": "Food Name",
    "nutrition": {
      "calories": "kcal",
      "protein": "g",
      "carbs": "g",
      "fat": "g",
      "fiber": "g",
      "vitamins": "summary",
      "minerals": "summary"
    },
    "healthiness": "healthy" or "unhealthy",
    "reasoning": "Quick explanation",
    "recommendations": [
      {
        "name": "Alternative Name",
        "calories": "kcal",
        "description": "Why it is better"
      }
    ]
  }`

// EstimationStatus tells apart the ways an estimation can end. Callers outside
// logging only care whether a result is present.
type EstimationStatus int

const (
	EstimationSucceeded EstimationStatus = iota
	EstimationCallFailed
	EstimationMalformed
	EstimationShapeMismatch
)

func (s EstimationStatus) String() string {
	switch s {
	case EstimationSucceeded:
		return "succeeded"
	case EstimationCallFailed:
		return "call_failed"
	case EstimationMalformed:
		return "malformed"
	case EstimationShapeMismatch:
		return "shape_mismatch"
	default:
		return "unknown"
	}
}

// Estimation is the outcome of one Estimate call. Result is non-nil only when
// Status is EstimationSucceeded.
type Estimation struct {
	Status   EstimationStatus
	Result   *domain.NutritionResult
	Err      error
	RawText  string
	Attempts int
}

// Available reports whether a nutrition result was produced
func (e Estimation) Available() bool {
	return e.Status == EstimationSucceeded && e.Result != nil
}

// EstimatorOptions bounds the model call
type EstimatorOptions struct {
	Timeout      time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

// EstimatorOptionsFromConfig copies the call limits out of the AI config
func EstimatorOptionsFromConfig(cfg config.AIConfig) EstimatorOptions {
	return EstimatorOptions{
		Timeout:      cfg.Timeout,
		MaxAttempts:  cfg.MaxAttempts,
		RetryBackoff: cfg.RetryBackoff,
	}
}

type NutritionEstimator struct {
	model domain.VisionModel
	opts  EstimatorOptions
	errs  *apperrors.Handler
}

func NewNutritionEstimator(model domain.VisionModel, opts EstimatorOptions) *NutritionEstimator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &NutritionEstimator{
		model: model,
		opts:  opts,
		errs:  apperrors.NewHandler(logger.GetLogger()),
	}
}

// Estimate asks the model about img. It never returns an error: every failure
// is logged and reported through Estimation.Status with a nil Result.
func (e *NutritionEstimator) Estimate(ctx context.Context, img *domain.DecodedImage) Estimation {
	var (
		text     string
		err      error
		attempts int
	)

	for attempts = 1; attempts <= e.opts.MaxAttempts; attempts++ {
		text, err = e.call(ctx, img)
		if err == nil || attempts == e.opts.MaxAttempts || apperrors.HasCode(err, apperrors.CodeModelNotConfigured) {
			break
		}
		if !e.wait(ctx, attempts) {
			break
		}
		logger.Warn("Retrying vision model call", "attempt", attempts+1, "error", err)
	}

	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.NewExternalAPIError(err, "vision model")
		}
		e.errs.Handle(ctx, err)
		return Estimation{Status: EstimationCallFailed, Err: err, Attempts: attempts}
	}

	result, status, err := ParseNutritionResponse(text)
	if err != nil {
		e.errs.Handle(ctx, err)
		return Estimation{Status: status, Err: err, RawText: text, Attempts: attempts}
	}

	return Estimation{Status: EstimationSucceeded, Result: result, RawText: text, Attempts: attempts}
}

func (e *NutritionEstimator) call(ctx context.Context, img *domain.DecodedImage) (string, error) {
	callCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	text, err := e.model.GenerateFromImage(callCtx, img, NutritionPrompt)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return "", apperrors.NewTimeoutError(err, "vision model call").
			WithContext("timeout", e.opts.Timeout.String())
	}
	return text, err
}

// wait sleeps before the next attempt, doubling the backoff each time. It
// returns false when ctx ends first.
func (e *NutritionEstimator) wait(ctx context.Context, attempt int) bool {
	if ctx.Err() != nil {
		return false
	}
	delay := e.retryDelay(attempt)
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// maxRetryDelay caps the doubling backoff between attempts
const maxRetryDelay = 30 * time.Second

// retryDelay returns the pause after the given failed attempt: RetryBackoff,
// doubled per attempt, never above maxRetryDelay
func (e *NutritionEstimator) retryDelay(attempt int) time.Duration {
	delay := e.opts.RetryBackoff
	if delay <= 0 {
		return 0
	}
	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

var requiredFields = []string{"food_name", "nutrition", "healthiness", "reasoning"}

// ParseNutritionResponse turns raw model text into a NutritionResult. The
// returned status is EstimationMalformed when the text is not JSON at all and
// EstimationShapeMismatch when it is JSON of the wrong shape.
func ParseNutritionResponse(text string) (*domain.NutritionResult, EstimationStatus, error) {
	cleaned := StripCodeFences(text)
	if cleaned == "" {
		return nil, EstimationMalformed, apperrors.NewInvalidResponseError(
			errors.New("empty response"), apperrors.CodeResponseNotJSON)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, EstimationShapeMismatch, apperrors.NewInvalidResponseError(err, apperrors.CodeShapeMismatch).
				WithContext("response", truncate(cleaned, 200))
		}
		return nil, EstimationMalformed, apperrors.NewInvalidResponseError(err, apperrors.CodeResponseNotJSON).
			WithContext("response", truncate(cleaned, 200))
	}

	for _, field := range requiredFields {
		if v, ok := raw[field]; !ok || string(v) == "null" {
			return nil, EstimationShapeMismatch, apperrors.NewInvalidResponseError(
				fmt.Errorf("missing required field %q", field), apperrors.CodeShapeMismatch)
		}
	}

	var result domain.NutritionResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, EstimationShapeMismatch, apperrors.NewInvalidResponseError(err, apperrors.CodeShapeMismatch)
	}

	result.FoodName = strings.TrimSpace(result.FoodName)
	if result.FoodName == "" {
		return nil, EstimationShapeMismatch, apperrors.NewInvalidResponseError(
			errors.New("food_name is empty"), apperrors.CodeShapeMismatch)
	}

	result.Healthiness = strings.ToLower(strings.TrimSpace(result.Healthiness))
	if result.Healthiness != domain.Healthy && result.Healthiness != domain.Unhealthy {
		return nil, EstimationShapeMismatch, apperrors.NewInvalidResponseError(
			fmt.Errorf("healthiness %q is not healthy or unhealthy", result.Healthiness), apperrors.CodeShapeMismatch)
	}

	if result.Recommendations == nil {
		result.Recommendations = []domain.Recommendation{}
	}
	return &result, EstimationSucceeded, nil
}

// StripCodeFences removes Markdown fence markers the model may wrap its JSON
// in, then narrows to the outermost object if other text is still around it.
func StripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
