package controller

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-assistant-be/internal/dto"
	"portfolio-assistant-be/internal/pkg/serverutils"
)

// stubChatService echoes the request back without running a pipeline.
type stubChatService struct {
	lastRequest *dto.ChatRequest
}

func (s *stubChatService) Chat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	s.lastRequest = request
	return &dto.ChatResponse{
		Response:  "echo: " + request.Text(),
		SessionID: "session-1",
	}, nil
}

func newTestApp(svc *stubChatService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewChatController(svc).RegisterRoutes(api)
	NewHealthController().RegisterRoutes(api)
	return app
}

func TestChatEndpoint(t *testing.T) {
	svc := &stubChatService{}
	app := newTestApp(svc)

	body := `{"message": "hello", "user_name": "Alice", "session_id": "session-1"}`
	req := httptest.NewRequest("POST", "/api/chat/v1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var envelope struct {
		Success bool             `json:"success"`
		Data    dto.ChatResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "echo: hello", envelope.Data.Response)
	assert.Equal(t, "session-1", envelope.Data.SessionID)

	require.NotNil(t, svc.lastRequest)
	assert.Equal(t, "Alice", svc.lastRequest.UserName)
}

func TestChatEndpointAcceptsLegacyInputField(t *testing.T) {
	svc := &stubChatService{}
	app := newTestApp(svc)

	req := httptest.NewRequest("POST", "/api/chat/v1", strings.NewReader(`{"input": "hi there"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	svc := &stubChatService{}
	app := newTestApp(svc)

	req := httptest.NewRequest("POST", "/api/chat/v1", strings.NewReader(`{"user_name": "Alice"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Nil(t, svc.lastRequest, "service must not run on an invalid request")
}

func TestChatEndpointRejectsMalformedJSON(t *testing.T) {
	app := newTestApp(&stubChatService{})

	req := httptest.NewRequest("POST", "/api/chat/v1", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(&stubChatService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health/v1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
