package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/store"
)

// SessionHandler manages what the console keeps in local storage: the
// bearer token and the chat settings.
type SessionHandler struct {
	local  *store.LocalStore
	apiURL string
	logger *slog.Logger
}

func NewSessionHandler(local *store.LocalStore, apiURL string, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{local: local, apiURL: apiURL, logger: logger}
}

type sessionResponse struct {
	SignedIn   bool           `json:"signed_in"`
	APIURL     string         `json:"api_url"`
	Token      *api.TokenInfo `json:"token,omitempty"`
	ChatKeySet bool           `json:"chat_key_set"`
	ChatModel  string         `json:"chat_model,omitempty"`
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{APIURL: h.apiURL}

	token, err := h.local.Token(r.Context())
	if err != nil {
		h.logger.Error("read token", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "cannot read local storage"})
		return
	}
	if token != "" {
		resp.SignedIn = true
		if info, err := api.InspectToken(token, time.Now()); err == nil {
			resp.Token = &info
			resp.SignedIn = !info.Expired
		}
	}

	if _, err := h.local.Get(store.ChatAPIKeyKey); err == nil {
		resp.ChatKeySet = true
	}
	if m, err := h.local.Get(store.ChatModelKey); err == nil {
		resp.ChatModel = m
	}

	writeJSON(w, http.StatusOK, resp)
}

// SignIn stores a bearer token obtained from the backend's login flow.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(req.Token, "Bearer "))
	if token == "" {
		badRequest(w, "token is required")
		return
	}
	if err := h.local.Set(store.TokenKey, token); err != nil {
		h.logger.Error("store token", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to store token"})
		return
	}
	h.Get(w, r)
}

func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.local.Delete(store.TokenKey); err != nil {
		h.logger.Error("delete token", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to sign out"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Storage lists local storage with secrets masked.
func (h *SessionHandler) Storage(w http.ResponseWriter, r *http.Request) {
	values, err := h.local.All()
	if err != nil {
		h.logger.Error("list local storage", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "cannot read local storage"})
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// ChatSettings saves the chat API key and model. Empty fields are left
// unchanged; a key of "-" removes the stored key.
func (h *SessionHandler) ChatSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
		Model  string `json:"model"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var err error
	switch req.APIKey {
	case "":
	case "-":
		err = h.local.Delete(store.ChatAPIKeyKey)
	default:
		err = h.local.Set(store.ChatAPIKeyKey, strings.TrimSpace(req.APIKey))
	}
	if err == nil && req.Model != "" {
		err = h.local.Set(store.ChatModelKey, req.Model)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("save chat settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save chat settings"})
		return
	}
	h.Get(w, r)
}
