package handlers

import (
	"github.com/vladimiradmaev/food-lens/internal/domain"
	"github.com/vladimiradmaev/food-lens/internal/ratelimit"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	AnalysisSvc    domain.AnalysisService
	Limiter        *ratelimit.Limiter
	MaxUploadBytes int64
}
