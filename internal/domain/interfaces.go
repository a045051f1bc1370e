package domain

import "context"

// VisionModel is the hosted AI capability: an image plus an instruction in,
// free text out.
type VisionModel interface {
	GenerateFromImage(ctx context.Context, img *DecodedImage, prompt string) (string, error)
}

// AnalysisRequest is one analysis as submitted by any front end
type AnalysisRequest struct {
	Upload         *UploadedImage
	CalculateNeeds bool
	Profile        UserProfile
}

// AnalysisService runs the full pipeline for one request
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error)
}
