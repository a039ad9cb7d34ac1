package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/courselet/pkg/domain"
)

// BadRequestError wraps a malformed request body.
type BadRequestError struct {
	Err error
}

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %v", e.Err) }

func (e *BadRequestError) Unwrap() error { return e.Err }

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps engine errors onto HTTP status codes.
func StatusFor(err error) (int, string) {
	var bad *BadRequestError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidStage):
		return http.StatusConflict, "INVALID_STAGE"
	case errors.Is(err, domain.ErrUnknownEvent):
		return http.StatusConflict, "UNKNOWN_EVENT"
	case errors.Is(err, domain.ErrEmptyStack):
		return http.StatusConflict, "EMPTY_STACK"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownStateKey):
		return http.StatusBadRequest, "INVALID_INPUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, errorBody{
		Error:     err.Error(),
		Code:      code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
