package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/knoott/partners-api/internal/orders"
	"github.com/knoott/partners-api/internal/variants"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, errorBody{Error: kind, Message: msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, orders.ErrInvalidTransition), errors.Is(err, orders.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, orders.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, orders.ErrValidation), errors.Is(err, variants.ErrInvalidVariants):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeFailure(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	code := statusFor(err)
	kind := orders.Kind(err)
	if errors.Is(err, variants.ErrInvalidVariants) {
		kind = "validation_error"
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Errorw("request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeError(w, code, kind, msg)
}
