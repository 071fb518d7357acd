package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"cryptoforge/internal/csr"
	"cryptoforge/internal/enrollment"
	"cryptoforge/internal/middlewares"
	"cryptoforge/internal/secrets"
	"cryptoforge/internal/signing"
)

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	var netErr net.Error
	switch {
	case errors.Is(err, signing.ErrInvalidRequest), errors.Is(err, csr.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, enrollment.ErrAuthConfig):
		return http.StatusInternalServerError
	case errors.Is(err, secrets.ErrSecret):
		return http.StatusBadGateway
	case errors.Is(err, enrollment.ErrTransport):
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, enrollment.ErrRetrieval):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(ctx *middlewares.AppContext, op string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		ctx.Logger.Error(op+" failed", "error", err, "status", status)
	} else {
		ctx.Logger.Debug(op+" rejected", "error", err)
	}

	message := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, enrollment.ErrAuthConfig) {
		message = http.StatusText(status)
	}

	var retrievalErr *enrollment.RetrievalError
	if errors.As(err, &retrievalErr) {
		ctx.WriteJSON(status, map[string]any{
			"error":        message,
			"status_code":  retrievalErr.StatusCode,
			"content_type": retrievalErr.ContentType,
			"snippet":      retrievalErr.Snippet(),
		})
		return
	}
	ctx.SetJSONError(status, message)
}
