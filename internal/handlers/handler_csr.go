package handlers

import (
	"net/http"

	"cryptoforge/internal/csr"
	"cryptoforge/internal/middlewares"
)

func POSTValidateCSR(ctx *middlewares.AppContext) {
	var body CSRBody
	if err := ctx.DecodeJSON(&body); err != nil {
		ctx.Logger.Debug("failed to decode request body", "error", err)
		ctx.SetJSONError(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	ctx.WriteJSON(http.StatusOK, ValidateCSRResponse{Valid: csr.ValidateFormat(body.CSR)})
}

// POSTParseCSR decodes a CSR for review. A request with a bad signature still parses and
// is reported with valid=false.
func POSTParseCSR(ctx *middlewares.AppContext) {
	var body CSRBody
	if err := ctx.DecodeJSON(&body); err != nil {
		ctx.Logger.Debug("failed to decode request body", "error", err)
		ctx.SetJSONError(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	parsed, err := csr.Parse(body.CSR)
	if err != nil {
		ctx.Logger.Debug("failed to parse csr", "error", err)
		ctx.SetJSONError(http.StatusBadRequest, err.Error())
		return
	}

	ctx.WriteJSON(http.StatusOK, ParseCSRResponse{
		ParsedCSR:      parsed,
		SubjectDisplay: csr.FormatSubjectForDisplay(parsed.Subject),
	})
}
