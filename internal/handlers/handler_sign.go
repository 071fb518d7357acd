package handlers

import (
	"encoding/base64"
	"net/http"

	"cryptoforge/internal/enrollment"
	"cryptoforge/internal/middlewares"
	"cryptoforge/internal/signing"
)

func POSTSignCertificate(ctx *middlewares.AppContext) {
	var body SignBody
	if err := ctx.DecodeJSON(&body); err != nil {
		ctx.Logger.Debug("failed to decode request body", "error", err)
		ctx.SetJSONError(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	enc := enrollment.Encoding(body.Encoding)
	if body.Encoding != "" {
		parsed, err := enrollment.ParseEncoding(body.Encoding)
		if err != nil {
			ctx.SetJSONError(http.StatusBadRequest, err.Error())
			return
		}
		enc = parsed
	}

	includeChain := body.IncludeChain == nil || *body.IncludeChain

	result, err := ctx.Signer.Sign(ctx, signing.SignRequest{
		CSR:          body.CSR,
		Template:     body.Template,
		Encoding:     enc,
		Server:       body.Server,
		SecretPath:   body.SecretPath,
		IncludeChain: includeChain,
	})
	if err != nil {
		writeServiceError(ctx, "sign", err)
		return
	}

	writeResult(ctx, result)
}

// writeResult renders an outcome with a status code that reflects it: 200 issued,
// 202 pending, 403 denied and 502 when the certificate could not be collected.
func writeResult(ctx *middlewares.AppContext, result *signing.Result) {
	outcome := result.Outcome
	enc := result.Encoding

	resp := EnrollmentResponse{
		Status:     string(outcome.Kind),
		RequestID:  outcome.RequestID,
		Reason:     outcome.Reason,
		Message:    outcome.Message,
		ChainError: result.ChainError,
	}

	status := http.StatusOK
	switch outcome.Kind {
	case enrollment.OutcomeIssued:
		if enc == "" {
			enc = defaultEncoding(ctx)
		}
		resp.Encoding = string(enc)
		resp.Certificate = renderPayload(outcome.Certificate, enc)
		resp.Chain = renderPayload(result.Chain, enc)
	case enrollment.OutcomePending:
		status = http.StatusAccepted
	case enrollment.OutcomeDenied:
		status = http.StatusForbidden
	default:
		status = http.StatusBadGateway
	}

	ctx.Logger.Info("enrollment finished", "status", resp.Status, "request_id", resp.RequestID)
	ctx.WriteJSON(status, resp)
}

func renderPayload(data []byte, enc enrollment.Encoding) string {
	if len(data) == 0 {
		return ""
	}
	if enc == enrollment.EncodingBinary {
		return base64.StdEncoding.EncodeToString(data)
	}
	return string(data)
}

func defaultEncoding(ctx *middlewares.AppContext) enrollment.Encoding {
	if ctx.Config != nil {
		if enc, err := enrollment.ParseEncoding(ctx.Config.Enrollment.DefaultEncoding); err == nil {
			return enc
		}
	}
	return enrollment.EncodingBase64
}
