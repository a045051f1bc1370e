package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/vladimiradmaev/food-lens/internal/domain"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

type pageData struct {
	Error   string
	Outcome *domain.AnalysisOutcome
}

var templateFuncs = template.FuncMap{
	"imageURL": func(o *domain.AnalysisOutcome) template.URL {
		return template.URL("data:" + o.ImageMIME + ";base64," + o.ImageBase64)
	},
	"intValue": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
	"floatValue": func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	},
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", pageData{})
}

func (s *Server) handleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAnalysisForm(w, r)
	if err == nil {
		var outcome *domain.AnalysisOutcome
		outcome, err = s.analysis.Analyze(r.Context(), req)
		if err == nil {
			s.render(w, http.StatusOK, "result.html", pageData{Outcome: outcome})
			return
		}
	}

	s.errs.Handle(r.Context(), err)
	s.render(w, statusFor(err), "index.html", pageData{Error: apperrors.UserMessage(err)})
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Outcome *domain.AnalysisOutcome `json:"outcome,omitempty"`
	Error   *apiError               `json:"error,omitempty"`
}

func (s *Server) handleAnalyzeAPI(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAnalysisForm(w, r)
	if err == nil {
		var outcome *domain.AnalysisOutcome
		outcome, err = s.analysis.Analyze(r.Context(), req)
		if err == nil {
			writeJSON(w, http.StatusOK, apiResponse{Outcome: outcome})
			return
		}
	}

	s.errs.Handle(r.Context(), err)
	writeJSON(w, statusFor(err), apiResponse{Error: toAPIError(err)})
}

// parseAnalysisForm reads the multipart upload and the optional profile
// fields. A missing file is not an error here; the analysis service reports it.
func (s *Server) parseAnalysisForm(w http.ResponseWriter, r *http.Request) (domain.AnalysisRequest, error) {
	var req domain.AnalysisRequest
	limit := s.cfg.MaxUploadBytes()
	if r.ContentLength > limit {
		return req, apperrors.NewValidationError(apperrors.CodeUploadTooLarge, "Uploaded file is too large").
			WithContext("limit_bytes", limit)
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return req, apperrors.NewValidationError(apperrors.CodeUploadTooLarge, "Uploaded file is too large").
				WithContext("limit_bytes", tooLarge.Limit)
		case errors.Is(err, http.ErrNotMultipart):
			// plain form post, no file part
		default:
			return req, apperrors.Wrap(err, apperrors.ErrorTypeValidation, apperrors.CodeBadRequest, "Malformed form data")
		}
	}

	upload, err := readUpload(r)
	if err != nil {
		return req, err
	}
	req.Upload = upload
	req.CalculateNeeds = r.PostForm.Get("calculate_needs") == "true"
	if req.CalculateNeeds {
		req.Profile = profileFromForm(r)
	}
	return req, nil
}

func readUpload(r *http.Request) (*domain.UploadedImage, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeValidation, apperrors.CodeBadRequest, "Failed to read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeValidation, apperrors.CodeBadRequest, "Failed to read uploaded file")
	}
	return &domain.UploadedImage{Filename: header.Filename, Data: data}, nil
}

// profileFromForm copies only the profile fields the client actually sent, so
// absent fields fall back to their defaults while blank ones do not.
func profileFromForm(r *http.Request) domain.UserProfile {
	profile := domain.UserProfile{}
	for _, field := range domain.ProfileFields {
		if values, ok := r.PostForm[field]; ok && len(values) > 0 {
			profile[field] = values[0]
		}
	}
	return profile
}

func statusFor(err error) int {
	appErr, ok := apperrors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		if appErr.Code == apperrors.CodeUploadTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case apperrors.ErrorTypeDecode:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case apperrors.ErrorTypeUnavailable, apperrors.ErrorTypeExternal, apperrors.ErrorTypeInvalidResponse:
		return http.StatusBadGateway
	case apperrors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func toAPIError(err error) *apiError {
	code := apperrors.CodeInternal
	if appErr, ok := apperrors.As(err); ok {
		code = appErr.Code
	}
	return &apiError{Code: code, Message: apperrors.UserMessage(err)}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("Failed to render template", "template", name, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write JSON response", "error", err)
	}
}
