package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/validation"
)

const maxUploadSize = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string                `json:"error"`
	Details validation.Violations `json:"details,omitempty"`
}

// writeError maps a failure onto the console's error envelope. Validation
// failures are 422, backend errors keep their status, and anything else is
// treated as the backend being unreachable.
func writeError(w http.ResponseWriter, err error) {
	var violations validation.Violations
	if errors.As(err, &violations) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: violations.Error(), Details: violations})
		return
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Status, errorResponse{Error: apiErr.Message})
		return
	}

	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, errorResponse{Error: api.Message(err)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON")
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body only carries
// optional fields: an empty body leaves v at its defaults.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid JSON")
		return false
	}
	return true
}

func idParam(r *http.Request, name string) model.ID {
	return model.ID(r.PathValue(name))
}

func intQuery(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func boolQuery(q url.Values, key string) (*bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", key)
	}
	return &b, nil
}

// mutation is the response to a create/update/delete: the affected record
// and the list as re-fetched afterwards.
type mutation struct {
	Item any `json:"item,omitempty"`
	List any `json:"list"`
}
