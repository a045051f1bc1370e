package services

import (
	"context"
	"fmt"
	"strings"

	vertex "cloud.google.com/go/vertexai/genai"
	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"github.com/vladimiradmaev/food-lens/internal/config"
	"github.com/vladimiradmaev/food-lens/internal/domain"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
	"github.com/vladimiradmaev/food-lens/internal/logger"
	"google.golang.org/api/option"
)

// NewVisionModel builds the client for the configured provider. A provider
// without credentials yields a model that fails every call, so analyses
// degrade to "analysis unavailable" instead of the process refusing to start.
func NewVisionModel(ctx context.Context, cfg config.AIConfig) (domain.VisionModel, error) {
	if !cfg.Configured() {
		logger.Warn("Vision model credentials missing, analysis requests will fail", "provider", cfg.Provider)
		return unconfiguredModel{provider: cfg.Provider}, nil
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.Model)
	case config.ProviderOpenAI:
		return NewOpenAIModel(cfg.OpenAIAPIKey, cfg.Model), nil
	case config.ProviderVertex:
		return NewVertexModel(ctx, cfg.Vertex, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

type unconfiguredModel struct {
	provider string
}

func (m unconfiguredModel) GenerateFromImage(ctx context.Context, img *domain.DecodedImage, prompt string) (string, error) {
	return "", apperrors.New(apperrors.ErrorTypeExternal, apperrors.CodeModelNotConfigured, "Vision model is not configured").
		WithContext("provider", m.provider)
}

// GeminiModel calls Gemini through the Generative Language API with an API key
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) GenerateFromImage(ctx context.Context, img *domain.DecodedImage, prompt string) (string, error) {
	format, data, err := ModelImage(img)
	if err != nil {
		return "", err
	}
	model := m.client.GenerativeModel(m.model)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(format, data))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.New(apperrors.ErrorTypeExternal, apperrors.CodeEmptyResponse, "Gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying gRPC connection
func (m *GeminiModel) Close() error {
	return m.client.Close()
}

// OpenAIModel sends the image inline as a data URL to a chat completion model
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	return &OpenAIModel{client: openai.NewClient(apiKey), model: model}
}

func (m *OpenAIModel) GenerateFromImage(ctx context.Context, img *domain.DecodedImage, prompt string) (string, error) {
	imageURL, err := modelDataURL(img)
	if err != nil {
		return "", err
	}
	resp, err := m.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: m.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: prompt,
						},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    imageURL,
								Detail: openai.ImageURLDetailAuto,
							},
						},
					},
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.ErrorTypeExternal, apperrors.CodeEmptyResponse, "OpenAI returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// VertexModel calls Gemini through Vertex AI with project credentials
type VertexModel struct {
	client *vertex.Client
	model  string
}

func NewVertexModel(ctx context.Context, cfg config.VertexConfig, model string) (*VertexModel, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := vertex.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	return &VertexModel{client: client, model: model}, nil
}

func (m *VertexModel) GenerateFromImage(ctx context.Context, img *domain.DecodedImage, prompt string) (string, error) {
	format, data, err := ModelImage(img)
	if err != nil {
		return "", err
	}
	model := m.client.GenerativeModel(m.model)

	resp, err := model.GenerateContent(ctx, vertex.Text(prompt), vertex.ImageData(format, data))
	if err != nil {
		return "", fmt.Errorf("failed to call ai: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.New(apperrors.ErrorTypeExternal, apperrors.CodeEmptyResponse, "Vertex AI returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(vertex.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying gRPC connection
func (m *VertexModel) Close() error {
	return m.client.Close()
}
