package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"automation-backend/application/services"
	pkgerrors "automation-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockChatRouter struct {
	mock.Mock
}

func (m *mockChatRouter) Handle(ctx context.Context, req services.ChatRequest) (*services.ChatReply, error) {
	args := m.Called(ctx, req)
	reply, _ := args.Get(0).(*services.ChatReply)
	return reply, args.Error(1)
}

func serveChat(h *ChatHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestChat_PassesRequestThrough(t *testing.T) {
	router := &mockChatRouter{}
	router.On("Handle", mock.Anything, services.ChatRequest{SessionID: "S", Message: "hi"}).
		Return(&services.ChatReply{SessionID: "S", Reply: "hello"}, nil)

	rec := serveChat(NewChatHandler(router, zap.NewNop()), `{"sessionId":"S","message":"hi"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"sessionId":"S","reply":"hello"}`, rec.Body.String())
	router.AssertExpectations(t)
}

func TestChat_InternalErrorsAreOpaque(t *testing.T) {
	router := &mockChatRouter{}
	router.On("Handle", mock.Anything, mock.Anything).
		Return(nil, pkgerrors.NewInternalError("create-reminder handler failed").WithCause(errors.New("table missing")))

	rec := serveChat(NewChatHandler(router, zap.NewNop()), `{"message":"set a reminder"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"`+pkgerrors.PublicInternalMessage+`"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "table missing")
}

func TestChat_UntypedErrorsAreInternal(t *testing.T) {
	router := &mockChatRouter{}
	router.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	rec := serveChat(NewChatHandler(router, zap.NewNop()), `{"message":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"`+pkgerrors.PublicInternalMessage+`"}`, rec.Body.String())
}

func TestChat_RejectsMalformedJSON(t *testing.T) {
	router := &mockChatRouter{}

	rec := serveChat(NewChatHandler(router, zap.NewNop()), `not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	router.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}
