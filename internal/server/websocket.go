package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vladimiradmaev/food-lens/internal/domain"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsAnalyzePayload struct {
	Image          string            `json:"image"`
	Filename       string            `json:"filename"`
	CalculateNeeds bool              `json:"calculate_needs"`
	Profile        map[string]string `json:"profile"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// base64 inflates the image by a third; leave room for the envelope
	conn.SetReadLimit(s.cfg.MaxUploadBytes()*4/3 + 64<<10)

	clientID := uuid.New().String()
	key := clientKey(r)
	log := logger.WithFields("client_id", clientID, "remote", key)
	log.Info("WebSocket client connected")
	defer log.Info("WebSocket client disconnected")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Error reading message", "error", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.sendError(conn, "Invalid message format")
			continue
		}

		switch msg.Type {
		case "analyze":
			if !s.limiter.Allow(key) {
				s.sendError(conn, apperrors.MessageRateLimited)
				continue
			}
			s.handleWSAnalyze(r, conn, msg.Data)
		case "ping":
			s.sendMessage(conn, "pong", nil)
		default:
			s.sendError(conn, "Unknown message type")
		}
	}
}

func (s *Server) handleWSAnalyze(r *http.Request, conn *websocket.Conn, data json.RawMessage) {
	var payload wsAnalyzePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.sendError(conn, "Invalid analyze payload")
		return
	}

	req := domain.AnalysisRequest{CalculateNeeds: payload.CalculateNeeds}
	if payload.Image != "" || payload.Filename != "" {
		raw, err := base64.StdEncoding.DecodeString(payload.Image)
		if err != nil {
			s.sendError(conn, "Invalid image encoding")
			return
		}
		req.Upload = &domain.UploadedImage{Filename: payload.Filename, Data: raw}
	}
	if payload.CalculateNeeds {
		req.Profile = domain.UserProfile(payload.Profile)
		if req.Profile == nil {
			req.Profile = domain.UserProfile{}
		}
	}

	outcome, err := s.analysis.Analyze(r.Context(), req)
	if err != nil {
		s.errs.Handle(r.Context(), err)
		s.sendError(conn, apperrors.UserMessage(err))
		return
	}
	s.sendMessage(conn, "analysis_result", outcome)
}

func (s *Server) sendMessage(conn *websocket.Conn, messageType string, data any) {
	msg := map[string]any{
		"type": messageType,
		"data": data,
	}
	if err := conn.WriteJSON(msg); err != nil {
		logger.Warn("Error sending message", "type", messageType, "error", err)
	}
}

func (s *Server) sendError(conn *websocket.Conn, message string) {
	msg := map[string]any{
		"type":    "error",
		"message": message,
	}
	if err := conn.WriteJSON(msg); err != nil {
		logger.Warn("Error sending error message", "error", err)
	}
}
