package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"automation-backend/application/services"
	"automation-backend/pkg/common"
	pkgerrors "automation-backend/pkg/errors"

	"go.uber.org/zap"
)

const maxChatBodyBytes = 64 << 10

// ChatRouter is the use case behind POST /chat
type ChatRouter interface {
	Handle(ctx context.Context, req services.ChatRequest) (*services.ChatReply, error)
}

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	router       ChatRouter
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(router ChatRouter, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		router:       router,
		errorHandler: pkgerrors.NewErrorHandler(logger),
		logger:       logger,
	}
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req services.ChatRequest
	if err := common.ParseJSONBody(w, r, &req, maxChatBodyBytes); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}

	reply, err := h.router.Handle(r.Context(), req)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, reply)
}
