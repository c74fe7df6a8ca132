package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dukerupert/backoffice/internal/validation"
)

const maxErrorBody = 64 << 10

// Error is a non-2xx response from the backend.
type Error struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

func hasStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Message converts any error into the single line shown in a page's error
// banner or a failure toast.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	var violations validation.Violations
	if errors.As(err, &violations) {
		return violations.Error()
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	}
	return err.Error()
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type detailItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func parseError(resp *http.Response, requestID string) error {
	apiErr := &Error{Status: resp.StatusCode, RequestID: requestID}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.message()
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return apiErr
}

func (b errorBody) message() string {
	if len(b.Detail) > 0 {
		var s string
		if err := json.Unmarshal(b.Detail, &s); err == nil {
			return s
		}
		var items []detailItem
		if err := json.Unmarshal(b.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				msgs = append(msgs, it.text())
			}
			return strings.Join(msgs, "; ")
		}
	}
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

// text renders a FastAPI validation item as "field: msg", skipping the
// leading "body"/"query" location segment.
func (d detailItem) text() string {
	var path []string
	for i, l := range d.Loc {
		if i == 0 && (l == "body" || l == "query" || l == "path") {
			continue
		}
		path = append(path, fmt.Sprint(l))
	}
	if len(path) == 0 {
		return d.Msg
	}
	return strings.Join(path, ".") + ": " + d.Msg
}
