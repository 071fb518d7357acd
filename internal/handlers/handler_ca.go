package handlers

import (
	"crypto/x509"
	"fmt"
	"net/http"

	"software.sslmate.com/src/go-pkcs12"

	"cryptoforge/internal/enrollment"
	"cryptoforge/internal/middlewares"
)

const (
	formatP7B  = "p7b"
	formatPEM  = "pem"
	formatP12  = "p12"
	formatDER  = "der"
	formatJSON = "json"
)

// GETCAChain returns the CA chain as PKCS#7 (default), PEM, a PKCS#12 truststore or a JSON
// summary. The truststore password comes from ?password= and defaults to "changeit".
func GETCAChain(ctx *middlewares.AppContext) {
	query := ctx.Request.URL.Query()
	format := query.Get("format")
	if format == "" {
		format = formatP7B
	}
	switch format {
	case formatP7B, formatPEM, formatP12, formatJSON:
	default:
		ctx.SetJSONError(http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	raw, err := ctx.Signer.Chain(ctx, query.Get("secret_path"), enrollment.EncodingBinary)
	if err != nil {
		writeServiceError(ctx, "chain", err)
		return
	}

	if format == formatP7B {
		attachment(ctx, "certnew.p7b")
		ctx.WriteBytes(http.StatusOK, "application/x-pkcs7-certificates", raw)
		return
	}

	certs, err := enrollment.ParseChain(raw)
	if err != nil {
		writeServiceError(ctx, "chain", err)
		return
	}

	switch format {
	case formatPEM:
		attachment(ctx, "ca-chain.pem")
		ctx.WriteBytes(http.StatusOK, "application/x-pem-file", enrollment.EncodePEM(certs...))
	case formatP12:
		password := query.Get("password")
		if password == "" {
			password = pkcs12.DefaultPassword
		}
		p12, err := pkcs12.Modern.EncodeTrustStore(certs, password)
		if err != nil {
			ctx.Logger.Error("failed to encode truststore", "error", err)
			ctx.SetJSONError(http.StatusInternalServerError, "failed to encode truststore")
			return
		}
		attachment(ctx, "ca-truststore.p12")
		ctx.WriteBytes(http.StatusOK, "application/x-pkcs12", p12)
	default:
		ctx.WriteJSON(http.StatusOK, summarizeChain(certs))
	}
}

// GETCACertificate returns the current CA certificate as PEM (default) or DER.
func GETCACertificate(ctx *middlewares.AppContext) {
	query := ctx.Request.URL.Query()
	format := query.Get("format")
	if format == "" {
		format = formatPEM
	}
	if format != formatPEM && format != formatDER {
		ctx.SetJSONError(http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	raw, err := ctx.Signer.CACertificate(ctx, query.Get("secret_path"), enrollment.EncodingBinary)
	if err != nil {
		writeServiceError(ctx, "ca certificate", err)
		return
	}

	cert, err := enrollment.ParseCertificate(raw)
	if err != nil {
		writeServiceError(ctx, "ca certificate", err)
		return
	}

	if format == formatDER {
		attachment(ctx, "ca.cer")
		ctx.WriteBytes(http.StatusOK, "application/pkix-cert", cert.Raw)
		return
	}
	attachment(ctx, "ca.pem")
	ctx.WriteBytes(http.StatusOK, "application/x-pem-file", enrollment.EncodePEM(cert))
}

func attachment(ctx *middlewares.AppContext, filename string) {
	ctx.Response.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func summarizeChain(certs []*x509.Certificate) []ChainEntry {
	entries := make([]ChainEntry, 0, len(certs))
	for _, cert := range certs {
		entries = append(entries, ChainEntry{
			Subject:      cert.Subject.String(),
			Issuer:       cert.Issuer.String(),
			SerialNumber: cert.SerialNumber.Text(16),
			NotBefore:    cert.NotBefore.UTC(),
			NotAfter:     cert.NotAfter.UTC(),
			IsCA:         cert.IsCA,
		})
	}
	return entries
}
