package handlers

import (
	"errors"
	"io"
	"net/http"

	"cryptoforge/internal/middlewares"
)

func GETTemplates(ctx *middlewares.AppContext) {
	ctx.WriteJSON(http.StatusOK, ctx.Signer.Templates())
}

// GETSecrets lists the credential names under ?path=. Values are never returned.
func GETSecrets(ctx *middlewares.AppContext) {
	path := ctx.Request.URL.Query().Get("path")

	keys, err := ctx.Signer.ListSecrets(ctx, path)
	if err != nil {
		writeServiceError(ctx, "list secrets", err)
		return
	}

	ctx.WriteJSON(http.StatusOK, SecretsResponse{Path: path, Keys: keys})
}

// POSTCheckCredentials reports whether the stored credential is accepted by the
// enrollment server. An empty body checks the default secret path.
func POSTCheckCredentials(ctx *middlewares.AppContext) {
	var body CredentialsBody
	if err := ctx.DecodeJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		ctx.Logger.Debug("failed to decode request body", "error", err)
		ctx.SetJSONError(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	valid, err := ctx.Signer.CheckCredentials(ctx, body.SecretPath)
	if err != nil {
		writeServiceError(ctx, "credential check", err)
		return
	}

	ctx.Logger.Info("credential check finished", "valid", valid)
	ctx.WriteJSON(http.StatusOK, CredentialsResponse{Valid: valid})
}
