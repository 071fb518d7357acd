package handlers

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mozilla.org/pkcs7"
	"go.uber.org/mock/gomock"
	"software.sslmate.com/src/go-pkcs12"

	"cryptoforge/internal/config"
	"cryptoforge/internal/enrollment"
	"cryptoforge/internal/secrets"
	"cryptoforge/internal/testutil"
)

func testCACertificate(t *testing.T) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(0x1f),
		Subject:               pkix.Name{CommonName: "Example Issuing CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestGETCAChain(t *testing.T) {
	ca := testCACertificate(t)
	p7b, err := pkcs7.DegenerateCertificate(ca.Raw)
	require.NoError(t, err)

	t.Run("p7b by default", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/chain")
		tc.MockSigner.EXPECT().Chain(gomock.Any(), "", enrollment.EncodingBinary).Return(p7b, nil)

		tc.CallHandler(GETCAChain)

		tc.AssertStatus(t, http.StatusOK)
		tc.AssertContentType(t, "application/x-pkcs7-certificates")
		assert.Equal(t, p7b, tc.Response.Body.Bytes())
		assert.Contains(t, tc.Response.Header().Get("Content-Disposition"), "certnew.p7b")
	})

	t.Run("pem", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/chain?format=pem&secret_path=kv2/team")
		tc.MockSigner.EXPECT().Chain(gomock.Any(), "kv2/team", enrollment.EncodingBinary).Return(p7b, nil)

		tc.CallHandler(GETCAChain)

		tc.AssertStatus(t, http.StatusOK)
		block, rest := pem.Decode(tc.Response.Body.Bytes())
		require.NotNil(t, block)
		assert.Equal(t, "CERTIFICATE", block.Type)
		assert.Equal(t, ca.Raw, block.Bytes)
		assert.Empty(t, rest)
	})

	t.Run("p12 truststore", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/chain?format=p12&password=s3cret")
		tc.MockSigner.EXPECT().Chain(gomock.Any(), "", enrollment.EncodingBinary).Return(p7b, nil)

		tc.CallHandler(GETCAChain)

		tc.AssertStatus(t, http.StatusOK)
		tc.AssertContentType(t, "application/x-pkcs12")
		certs, err := pkcs12.DecodeTrustStore(tc.Response.Body.Bytes(), "s3cret")
		require.NoError(t, err)
		require.Len(t, certs, 1)
		assert.Equal(t, ca.Raw, certs[0].Raw)
	})

	t.Run("json summary", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/chain?format=json")
		tc.MockSigner.EXPECT().Chain(gomock.Any(), "", enrollment.EncodingBinary).Return(p7b, nil)

		tc.CallHandler(GETCAChain)

		tc.AssertStatus(t, http.StatusOK)
		entries := tc.GetJSONResponseArray(t)
		require.Len(t, entries, 1)
		entry := entries[0].(map[string]any)
		assert.Equal(t, "CN=Example Issuing CA", entry["subject"])
		assert.Equal(t, "1f", entry["serial_number"])
		assert.Equal(t, true, entry["is_ca"])
	})

	t.Run("unsupported format", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/chain?format=jks")

		tc.CallHandler(GETCAChain)

		tc.AssertStatus(t, http.StatusBadRequest)
	})

	t.Run("garbage chain", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/chain?format=pem")
		tc.MockSigner.EXPECT().Chain(gomock.Any(), "", enrollment.EncodingBinary).Return([]byte{0x30, 0x00}, nil)

		tc.CallHandler(GETCAChain)

		tc.AssertStatus(t, http.StatusBadGateway)
	})

	t.Run("retrieval error keeps diagnostics", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/chain")
		tc.MockSigner.EXPECT().Chain(gomock.Any(), "", enrollment.EncodingBinary).Return(nil, &enrollment.RetrievalError{
			Reason:      "unexpected content type",
			StatusCode:  http.StatusOK,
			ContentType: "text/html",
			Body:        "<html>login</html>",
		})

		tc.CallHandler(GETCAChain)

		tc.AssertStatus(t, http.StatusBadGateway)
		tc.AssertJSONString(t, "content_type", "text/html")
		tc.AssertJSONString(t, "snippet", "<html>login</html>")
	})
}

func TestGETCACertificate(t *testing.T) {
	ca := testCACertificate(t)

	t.Run("pem", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/certificate")
		tc.MockSigner.EXPECT().CACertificate(gomock.Any(), "", enrollment.EncodingBinary).Return(ca.Raw, nil)

		tc.CallHandler(GETCACertificate)

		tc.AssertStatus(t, http.StatusOK)
		tc.AssertContentType(t, "application/x-pem-file")
		block, _ := pem.Decode(tc.Response.Body.Bytes())
		require.NotNil(t, block)
		assert.Equal(t, ca.Raw, block.Bytes)
	})

	t.Run("der", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/certificate?format=der")
		tc.MockSigner.EXPECT().CACertificate(gomock.Any(), "", enrollment.EncodingBinary).Return(ca.Raw, nil)

		tc.CallHandler(GETCACertificate)

		tc.AssertStatus(t, http.StatusOK)
		tc.AssertContentType(t, "application/pkix-cert")
		assert.Equal(t, ca.Raw, tc.Response.Body.Bytes())
	})

	t.Run("secret failure", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/ca/certificate")
		tc.MockSigner.EXPECT().CACertificate(gomock.Any(), "", enrollment.EncodingBinary).
			Return(nil, &secrets.SecretError{Path: "kv2/cert", Reason: "secret not found"})

		tc.CallHandler(GETCACertificate)

		tc.AssertStatus(t, http.StatusBadGateway)
	})
}

func TestGETTemplates(t *testing.T) {
	tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/templates")
	tc.MockSigner.EXPECT().Templates().Return(config.DefaultTemplates)

	tc.CallHandler(GETTemplates)

	tc.AssertStatus(t, http.StatusOK)
	tc.AssertJSONArrayLength(t, len(config.DefaultTemplates))
	first := tc.GetJSONResponseArray(t)[0].(map[string]any)
	assert.Equal(t, "WebServer", first["id"])
}

func TestPOSTCheckCredentials(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		path       string
		valid      bool
		err        error
		wantStatus int
	}{
		{name: "accepted", body: CredentialsBody{SecretPath: "kv2/team"}, path: "kv2/team", valid: true, wantStatus: http.StatusOK},
		{name: "rejected", body: CredentialsBody{}, valid: false, wantStatus: http.StatusOK},
		{name: "empty body", body: nil, valid: true, wantStatus: http.StatusOK},
		{name: "transport error", body: CredentialsBody{}, err: &enrollment.TransportError{Op: "check credentials", Err: fmt.Errorf("connection refused")}, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewTestContextWithBody(t, http.MethodPost, "/api/v1/credentials/check", tt.body)
			tc.MockSigner.EXPECT().CheckCredentials(gomock.Any(), tt.path).Return(tt.valid, tt.err)

			tc.CallHandler(POSTCheckCredentials)

			tc.AssertStatus(t, tt.wantStatus)
			if tt.err == nil {
				tc.AssertJSONBool(t, "valid", tt.valid)
			}
		})
	}
}

func TestGETSecrets(t *testing.T) {
	t.Run("lists names", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/secrets?path=kv2/teams")
		tc.MockSigner.EXPECT().ListSecrets(gomock.Any(), "kv2/teams").Return([]string{"alpha", "beta/"}, nil)

		tc.CallHandler(GETSecrets)

		tc.AssertStatus(t, http.StatusOK)
		tc.AssertJSONString(t, "path", "kv2/teams")
		body := tc.GetJSONResponse(t)
		assert.Equal(t, []any{"alpha", "beta/"}, body["keys"])
	})

	t.Run("store failure", func(t *testing.T) {
		tc := testutil.NewTestContextWithURL(t, http.MethodGet, "/api/v1/secrets?path=kv2/missing")
		tc.MockSigner.EXPECT().ListSecrets(gomock.Any(), "kv2/missing").
			Return(nil, &secrets.SecretError{Path: "kv2/missing", Reason: "permission denied"})

		tc.CallHandler(GETSecrets)

		tc.AssertStatus(t, http.StatusBadGateway)
	})
}
