package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeDecode          ErrorType = "decode"
	ErrorTypeExternal        ErrorType = "external_api"
	ErrorTypeInvalidResponse ErrorType = "invalid_response"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeUnavailable     ErrorType = "unavailable"
	ErrorTypeInternal        ErrorType = "internal"
)

// Error codes used across the analysis pipeline
const (
	CodeNoFile             = "NO_FILE"
	CodeNoFileSelected     = "NO_FILE_SELECTED"
	CodeEmptyImage         = "EMPTY_IMAGE"
	CodeUploadTooLarge     = "UPLOAD_TOO_LARGE"
	CodeBadRequest         = "BAD_REQUEST"
	CodeDecodeFailed       = "DECODE_FAILED"
	CodeModelNotConfigured = "MODEL_NOT_CONFIGURED"
	CodeModelCallFailed    = "MODEL_CALL_FAILED"
	CodeEmptyResponse      = "EMPTY_RESPONSE"
	CodeResponseNotJSON    = "RESPONSE_NOT_JSON"
	CodeShapeMismatch      = "RESPONSE_SHAPE_MISMATCH"
	CodeTimeout            = "TIMEOUT"
	CodeRateLimit          = "RATE_LIMIT"
	CodeAnalysisFailed     = "ANALYSIS_FAILED"
	CodeInternal           = "INTERNAL"
)

// AppError represents an application error with additional context
type AppError struct {
	Type     ErrorType
	Message  string
	Code     string
	Internal error
	Context  map[string]interface{}
	Source   string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches another AppError by type and code
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}

	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

func caller(skip int) string {
	_, file, line, _ := runtime.Caller(skip)
	return fmt.Sprintf("%s:%d", file, line)
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  caller(2),
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   caller(2),
		Context:  make(map[string]interface{}),
	}
}

// As returns the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == errorType
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

const (
	MessageAnalysisFailed = "Analysis failed. check API key."
	MessageRateLimited    = "Too many requests. Please wait a minute and try again."
)

// UserMessage maps an error onto the text shown to the end user. Estimation
// failures collapse into one generic message; the detail only goes to logs.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := As(err)
	if !ok {
		return "Error: " + err.Error()
	}
	switch appErr.Type {
	case ErrorTypeValidation, ErrorTypeDecode:
		return appErr.Message
	case ErrorTypeRateLimit:
		return MessageRateLimited
	case ErrorTypeUnavailable, ErrorTypeExternal, ErrorTypeInvalidResponse, ErrorTypeTimeout:
		return MessageAnalysisFailed
	default:
		return "Error: " + appErr.Message
	}
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle logs an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	if appErr, ok := As(err); ok {
		h.handleAppError(ctx, appErr)
		return
	}
	h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
}

func (h *Handler) handleAppError(ctx context.Context, err *AppError) {
	switch err.Type {
	case ErrorTypeValidation:
		h.logger.WarnContext(ctx, "Validation error", err.LogFields()...)
	case ErrorTypeDecode:
		h.logger.WarnContext(ctx, "Image decode error", err.LogFields()...)
	case ErrorTypeRateLimit:
		h.logger.WarnContext(ctx, "Rate limit error", err.LogFields()...)
	case ErrorTypeExternal, ErrorTypeInvalidResponse, ErrorTypeTimeout, ErrorTypeUnavailable, ErrorTypeInternal:
		h.logger.ErrorContext(ctx, "Critical error", err.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Unknown error type", err.LogFields()...)
	}
}

// LogAndReturn logs an error and returns it
func (h *Handler) LogAndReturn(ctx context.Context, err error) error {
	h.Handle(ctx, err)
	return err
}

// Predefined errors for matching with errors.Is
var (
	ErrNoFile             = New(ErrorTypeValidation, CodeNoFile, "No file uploaded")
	ErrNoFileSelected     = New(ErrorTypeValidation, CodeNoFileSelected, "No file selected")
	ErrEmptyImage         = New(ErrorTypeValidation, CodeEmptyImage, "Uploaded file is empty")
	ErrDecodeFailed       = New(ErrorTypeDecode, CodeDecodeFailed, "Unsupported or corrupt image file")
	ErrModelNotConfigured = New(ErrorTypeExternal, CodeModelNotConfigured, "Vision model is not configured")
	ErrAnalysisFailed     = New(ErrorTypeUnavailable, CodeAnalysisFailed, MessageAnalysisFailed)
	ErrRateLimitExceeded  = New(ErrorTypeRateLimit, CodeRateLimit, "Rate limit exceeded")
)

func NewValidationError(code, message string) *AppError {
	return New(ErrorTypeValidation, code, message)
}

func NewDecodeError(err error) *AppError {
	return Wrap(err, ErrorTypeDecode, CodeDecodeFailed, "Unsupported or corrupt image file")
}

func NewExternalAPIError(err error, api string) *AppError {
	return Wrap(err, ErrorTypeExternal, CodeModelCallFailed, fmt.Sprintf("%s API error", api)).
		WithContext("api", api)
}

func NewInvalidResponseError(err error, code string) *AppError {
	return Wrap(err, ErrorTypeInvalidResponse, code, "Model response does not match the expected shape")
}

func NewTimeoutError(err error, operation string) *AppError {
	return Wrap(err, ErrorTypeTimeout, CodeTimeout, fmt.Sprintf("%s operation timed out", operation)).
		WithContext("operation", operation)
}

func NewInternalError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, CodeInternal, "Internal server error")
}
