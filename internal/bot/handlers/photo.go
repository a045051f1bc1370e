package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/food-lens/internal/bot/keyboards"
	"github.com/vladimiradmaev/food-lens/internal/bot/state"
	"github.com/vladimiradmaev/food-lens/internal/domain"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

// PhotoHandler runs the analysis pipeline on photos sent to the bot
type PhotoHandler struct {
	api          *tgbotapi.BotAPI
	deps         Dependencies
	stateManager state.StateManager
	client       *http.Client
	errs         *apperrors.Handler
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *PhotoHandler {
	return &PhotoHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		client:       &http.Client{},
		errs:         apperrors.NewHandler(logger.GetLogger()),
	}
}

// Handle analyzes the largest size of a compressed photo
func (h *PhotoHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	photo := message.Photo[len(message.Photo)-1]
	return h.analyze(ctx, message, photo.FileID, fmt.Sprintf("photo_%s.jpg", photo.FileUniqueID), true)
}

// HandleDocument analyzes an image sent as an uncompressed file
func (h *PhotoHandler) HandleDocument(ctx context.Context, message *tgbotapi.Message) error {
	doc := message.Document
	name := doc.FileName
	if name == "" {
		name = doc.FileUniqueID
	}
	return h.analyze(ctx, message, doc.FileID, name, false)
}

func (h *PhotoHandler) analyze(ctx context.Context, message *tgbotapi.Message, fileID, filename string, isPhoto bool) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	log := logger.WithFields("user_id", userID, "chat_id", chatID)

	if h.deps.Limiter != nil && !h.deps.Limiter.Allow(fmt.Sprintf("tg:%d", chatID)) {
		return h.reply(chatID, apperrors.MessageRateLimited)
	}

	req, unknown := h.buildRequest(userID, message.Caption)
	if len(unknown) > 0 {
		log.Debug("Ignoring unknown caption fields", "fields", unknown)
	}

	processing, err := h.api.Send(tgbotapi.NewMessage(chatID, "Analyzing the image..."))
	if err != nil {
		return fmt.Errorf("failed to send processing message: %w", err)
	}
	defer func() {
		if _, err := h.api.Request(tgbotapi.NewDeleteMessage(chatID, processing.MessageID)); err != nil {
			log.Warn("Failed to delete processing message", "error", err)
		}
	}()

	data, err := h.download(ctx, fileID)
	if err != nil {
		h.errs.Handle(ctx, err)
		return h.reply(chatID, apperrors.UserMessage(err))
	}
	req.Upload = &domain.UploadedImage{Filename: filename, Data: data}

	log.Info("Starting food analysis", "calculate_needs", req.CalculateNeeds)
	outcome, err := h.deps.AnalysisSvc.Analyze(ctx, req)
	if err != nil {
		h.errs.Handle(ctx, err)
		return h.reply(chatID, apperrors.UserMessage(err))
	}

	h.stateManager.SetUserState(userID, state.None)
	return h.sendOutcome(chatID, fileID, isPhoto, outcome)
}

// buildRequest combines the stored profile with profile pairs from the
// caption. Needs are calculated whenever either source has something.
func (h *PhotoHandler) buildRequest(userID int64, caption string) (domain.AnalysisRequest, []string) {
	var req domain.AnalysisRequest

	stored, hasStored := h.stateManager.GetProfile(userID)
	fromCaption, unknown := ParseProfileText(caption)

	switch {
	case hasStored && len(fromCaption) > 0:
		req.Profile = mergeProfiles(stored, fromCaption)
	case hasStored:
		req.Profile = stored
	case len(fromCaption) > 0:
		req.Profile = fromCaption
	}
	req.CalculateNeeds = req.Profile != nil
	return req, unknown
}

func (h *PhotoHandler) download(ctx context.Context, fileID string) ([]byte, error) {
	file, err := h.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "telegram")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(h.api.Token), nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "telegram")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalAPIError(fmt.Errorf("unexpected status %s", resp.Status), "telegram")
	}

	limit := h.deps.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "telegram")
	}
	if int64(len(data)) > limit {
		return nil, apperrors.NewValidationError(apperrors.CodeUploadTooLarge, "Uploaded file is too large").
			WithContext("limit_bytes", limit)
	}
	return data, nil
}

func (h *PhotoHandler) sendOutcome(chatID int64, fileID string, isPhoto bool, outcome *domain.AnalysisOutcome) error {
	caption := FormatOutcome(outcome)
	_, err := h.api.Send(resultMessage(chatID, fileID, isPhoto, caption, "Markdown"))
	if err != nil {
		// If Markdown parsing fails, try sending without Markdown
		_, err = h.api.Send(resultMessage(chatID, fileID, isPhoto, plainCaption(caption), ""))
	}
	if err != nil {
		return fmt.Errorf("failed to send analysis result: %w", err)
	}
	return nil
}

// resultMessage echoes a compressed photo back with the caption. Documents
// get a text reply since their file id cannot be resent as a photo.
func resultMessage(chatID int64, fileID string, isPhoto bool, text, parseMode string) tgbotapi.Chattable {
	if isPhoto {
		msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
		msg.Caption = text
		msg.ParseMode = parseMode
		msg.ReplyMarkup = keyboards.AfterAnalysis()
		return msg
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	msg.ReplyMarkup = keyboards.AfterAnalysis()
	return msg
}

func (h *PhotoHandler) reply(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := h.api.Send(msg)
	return err
}

var markdownStripper = strings.NewReplacer("\\_", "_", "\\*", "*", "\\[", "[", "\\]", "]", "\\`", "`", "*", "")

// plainCaption undoes the Markdown escaping for the plain-text fallback
func plainCaption(caption string) string {
	return markdownStripper.Replace(caption)
}

func isImageDocument(doc *tgbotapi.Document) bool {
	return strings.HasPrefix(doc.MimeType, "image/")
}

// acceptsDocument reports whether a document goes to analysis. Once the user
// asked to analyze food any file is taken, so a photo sent without an image
// MIME type still reaches the decoder and gets a proper error back.
func acceptsDocument(doc *tgbotapi.Document, userState string) bool {
	if doc == nil {
		return false
	}
	return isImageDocument(doc) || userState == state.WaitingForPhoto
}
