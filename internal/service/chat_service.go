package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-assistant-be/internal/dto"
	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/internal/repository/memory"
	"portfolio-assistant-be/pkg/assistant/pipeline"
	"portfolio-assistant-be/pkg/assistant/state"
)

// IChatService defines the chat service interface
type IChatService interface {
	Chat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error)
}

type chatService struct {
	pipeline    *pipeline.Pipeline
	sessionRepo *memory.SessionRepository
	log         logger.ILogger

	// lookupMu makes get-or-create atomic so concurrent requests with the
	// same session id share one session instead of racing to create two.
	lookupMu sync.Mutex
}

func NewChatService(p *pipeline.Pipeline, sessionRepo *memory.SessionRepository, log logger.ILogger) IChatService {
	return &chatService{
		pipeline:    p,
		sessionRepo: sessionRepo,
		log:         log,
	}
}

// Chat rehydrates (or creates) the session, runs one pipeline turn, and
// persists the session for the next request.
func (s *chatService) Chat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	start := time.Now()

	sessionID := request.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.lookupMu.Lock()
	session, found := s.sessionRepo.Get(sessionID)
	if !found {
		session = &state.Session{ID: sessionID}
		// Client-held history seeds a fresh session once.
		for _, turn := range request.History {
			session.History = append(session.History, state.Turn{
				User:      turn.User,
				Assistant: turn.Assistant,
			})
		}
		s.sessionRepo.Save(session)
	}
	s.lookupMu.Unlock()

	// Turns on the same session run one at a time; the pipeline mutates
	// every session field.
	session.Lock()
	defer session.Unlock()

	session.Input = request.Text()
	if request.UserName != "" {
		session.UserName = request.UserName
	}
	// Per-turn outputs never leak across turns.
	session.Response = ""
	session.FileURL = ""
	session.RetrievedDocs = nil

	s.pipeline.Run(ctx, session)
	s.sessionRepo.Save(session)

	s.log.Info("chat", "turn completed", map[string]interface{}{
		"session_id":  sessionID,
		"user_name":   session.UserName,
		"duration_ms": time.Since(start).Milliseconds(),
		"response":    truncate(session.Response, 100),
	})

	return &dto.ChatResponse{
		Response:  session.Response,
		FileURL:   session.FileURL,
		SessionID: sessionID,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
