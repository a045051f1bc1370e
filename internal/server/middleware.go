package server

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.Info("HTTP request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"remote", r.RemoteAddr,
				"duration", time.Since(start).String())
		}()
		next.ServeHTTP(ww, r)
	})
}

// recoverer turns a panic in any handler into the generic error page (or JSON
// under /api) so one bad request cannot take the process down
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err := apperrors.NewInternalError(fmt.Errorf("panic: %v", rec)).
				WithContext("request_id", middleware.GetReqID(r.Context()))
			s.errs.Handle(r.Context(), err)

			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeJSON(w, http.StatusInternalServerError, apiResponse{Error: toAPIError(err)})
				return
			}
			s.render(w, http.StatusInternalServerError, "index.html", pageData{Error: apperrors.UserMessage(err)})
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter.Allow(clientKey(r)) {
			next.ServeHTTP(w, r)
			return
		}

		err := apperrors.New(apperrors.ErrorTypeRateLimit, apperrors.CodeRateLimit, "Rate limit exceeded").
			WithContext("client", clientKey(r))
		s.errs.Handle(r.Context(), err)
		w.Header().Set("Retry-After", "60")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeJSON(w, http.StatusTooManyRequests, apiResponse{Error: toAPIError(err)})
			return
		}
		s.render(w, http.StatusTooManyRequests, "index.html", pageData{Error: apperrors.UserMessage(err)})
	})
}

// clientKey identifies the caller by IP. RealIP has already replaced
// RemoteAddr when a proxy header was present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
