package handlers

import (
	"net/http"

	"cryptoforge/internal/middlewares"
	"cryptoforge/internal/version"
)

func GETHealth(ctx *middlewares.AppContext) {
	ctx.WriteJSON(http.StatusOK, HealthResponse{
		Status:    "OK",
		Version:   version.GetVersion(),
		GitCommit: version.GetGitCommit(),
		BuildTime: version.GetBuildTime(),
	})
}
