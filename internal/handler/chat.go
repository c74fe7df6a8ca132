package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/backoffice/internal/chat"
	"github.com/dukerupert/backoffice/internal/console"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/websocket"
)

// SessionFactory builds a chat session from the stored key and model. It
// runs per request so a newly saved key takes effect immediately.
type SessionFactory func(ctx context.Context) (*chat.Session, error)

type ChatHandler struct {
	sessions SessionFactory
	store    chat.History
	history  *console.View[[]model.ChatMessage]
	notify   console.Notifier
	logger   *slog.Logger
}

func NewChatHandler(sessions SessionFactory, store chat.History, notify console.Notifier, logger *slog.Logger) *ChatHandler {
	if notify == nil {
		notify = console.Discard
	}
	return &ChatHandler{
		sessions: sessions,
		store:    store,
		history:  console.NewView[[]model.ChatMessage](),
		notify:   notify,
		logger:   logger,
	}
}

func (h *ChatHandler) session(w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	s, err := h.sessions(r.Context())
	if err != nil {
		if errors.Is(err, chat.ErrNoAPIKey) {
			writeJSON(w, http.StatusPreconditionRequired, errorResponse{Error: "set a chat API key first"})
			return nil, false
		}
		h.logger.Error("build chat session", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "chat unavailable"})
		return nil, false
	}
	return s, true
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	state, _ := h.history.Load(r.Context(), func(context.Context) ([]model.ChatMessage, error) {
		msgs, err := h.store.List(0)
		if msgs == nil {
			msgs = []model.ChatMessage{}
		}
		return msgs, err
	})
	writeJSON(w, http.StatusOK, state)
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	reply, err := s.Send(r.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyPrompt) {
			badRequest(w, err.Error())
			return
		}
		h.history.Fail(err)
		h.notify.Toast(websocket.LevelError, "Chat failed: "+err.Error())
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(); err != nil {
		h.logger.Error("clear chat history", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to clear history"})
		return
	}
	h.notify.Toast(websocket.LevelInfo, "Conversation cleared")
	w.WriteHeader(http.StatusNoContent)
}
