package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cryptoforge/internal/middlewares"
)

func GETPendingRequests(ctx *middlewares.AppContext) {
	requests, err := ctx.Signer.PendingRequests(ctx)
	if err != nil {
		ctx.Logger.Error("failed to list pending requests", "error", err)
		ctx.SetJSONError(http.StatusInternalServerError, "failed to list pending requests")
		return
	}

	ctx.WriteJSON(http.StatusOK, requests)
}

// GETPollRequest collects the certificate for a request id the CA left pending.
func GETPollRequest(ctx *middlewares.AppContext) {
	requestID := strings.TrimSpace(chi.URLParam(ctx.Request, "id"))
	if requestID == "" {
		ctx.SetJSONError(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	result, err := ctx.Signer.Poll(ctx, requestID, ctx.Request.URL.Query().Get("secret_path"))
	if err != nil {
		writeServiceError(ctx, "poll", err)
		return
	}

	writeResult(ctx, result)
}
