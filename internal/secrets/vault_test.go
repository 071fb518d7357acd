package secrets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoforge/internal/config"
)

const testToken = "s.test-token"

func newTestRetriever(t *testing.T, handler http.HandlerFunc) *VaultRetriever {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r, err := NewVaultRetriever(config.VaultConfig{
		Address: srv.URL,
		Token:   testToken,
		Timeout: 2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return r
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestGetCredential(t *testing.T) {
	var calls atomic.Int32
	r := newTestRetriever(t, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/kv2/data/cert", req.URL.Path)
		assert.Equal(t, testToken, req.Header.Get("X-Vault-Token"))
		writeJSON(w, http.StatusOK, `{"data":{"data":{"username":"u","password":"p"},"metadata":{"version":1}}}`)
	})

	cred, err := r.GetCredential(context.Background(), "kv2/cert")
	require.NoError(t, err)
	assert.Equal(t, Credential{Username: "u", Password: "p"}, cred)

	_, err = r.GetCredential(context.Background(), "kv2/cert")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "credentials must be fetched on every call")
}

func TestGetCredentialNestedPath(t *testing.T) {
	r := newTestRetriever(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/v1/secret/data/adcs/signer", req.URL.Path)
		writeJSON(w, http.StatusOK, `{"data":{"data":{"username":"svc","password":"pw"}}}`)
	})

	cred, err := r.GetCredential(context.Background(), "/secret/adcs/signer/")
	require.NoError(t, err)
	assert.Equal(t, "svc", cred.Username)
}

func TestGetCredentialErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		body   string
		reason string
	}{
		{
			name:   "missing nested data",
			path:   "kv2/cert",
			status: http.StatusOK,
			body:   `{"data":{"username":"u","password":"p"}}`,
			reason: "missing nested data",
		},
		{
			name:   "missing username",
			path:   "kv2/cert",
			status: http.StatusOK,
			body:   `{"data":{"data":{"password":"p"}}}`,
			reason: "no username",
		},
		{
			name:   "missing password",
			path:   "kv2/cert",
			status: http.StatusOK,
			body:   `{"data":{"data":{"username":"u"}}}`,
			reason: "no password",
		},
		{
			name:   "not found",
			path:   "kv2/absent",
			status: http.StatusNotFound,
			body:   `{"errors":[]}`,
			reason: "not found",
		},
		{
			name:   "permission denied",
			path:   "kv2/cert",
			status: http.StatusForbidden,
			body:   `{"errors":["permission denied"]}`,
			reason: "status 403",
		},
		{
			name:   "path without subpath",
			path:   "kv2",
			reason: "mount/subpath",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRetriever(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			cred, err := r.GetCredential(context.Background(), tt.path)
			require.Error(t, err)
			assert.Equal(t, Credential{}, cred)
			assert.True(t, errors.Is(err, ErrSecret))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestGetCredentialUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	r, err := NewVaultRetriever(config.VaultConfig{Address: addr, Token: testToken, Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, err = r.GetCredential(context.Background(), "kv2/cert")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSecret))
	assert.Contains(t, err.Error(), "unreachable")
}

func TestIsAuthenticated(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr bool
	}{
		{name: "valid token", status: http.StatusOK, want: true},
		{name: "forbidden", status: http.StatusForbidden, want: false},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRetriever(t, func(w http.ResponseWriter, req *http.Request) {
				assert.Equal(t, "/v1/auth/token/lookup-self", req.URL.Path)
				if tt.status == http.StatusOK {
					writeJSON(w, tt.status, `{"data":{"id":"s.test-token","ttl":3600}}`)
					return
				}
				writeJSON(w, tt.status, `{"errors":["nope"]}`)
			})

			got, err := r.IsAuthenticated(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSecret))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListSecrets(t *testing.T) {
	r := newTestRetriever(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/v1/kv2/metadata/adcs", req.URL.Path)
		writeJSON(w, http.StatusOK, `{"data":{"keys":["signer","backup/","admin"]}}`)
	})

	keys, err := r.ListSecrets(context.Background(), "kv2/adcs")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "backup/", "signer"}, keys)
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path    string
		mount   string
		subpath string
		wantErr bool
	}{
		{path: "kv2/cert", mount: "kv2", subpath: "cert"},
		{path: "kv2/a/b/c", mount: "kv2", subpath: "a/b/c"},
		{path: "/kv2/cert/", mount: "kv2", subpath: "cert"},
		{path: "kv2", wantErr: true},
		{path: "kv2/", wantErr: true},
		{path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			mount, subpath, err := SplitPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSecret)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mount, mount)
			assert.Equal(t, tt.subpath, subpath)
		})
	}
}

func TestCredentialLogValueRedactsPassword(t *testing.T) {
	v := Credential{Username: "u", Password: "secret"}.LogValue()
	assert.NotContains(t, v.String(), "secret")
	assert.Contains(t, v.String(), "u")
}
