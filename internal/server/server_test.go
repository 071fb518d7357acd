package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cryptoforge/internal/config"
	"cryptoforge/internal/enrollment"
	"cryptoforge/internal/middlewares"
	"cryptoforge/internal/mocks"
	"cryptoforge/internal/ratelimit"
	"cryptoforge/internal/signing"
)

func newTestRouter(t *testing.T, limit int) (http.Handler, *mocks.MockSigner) {
	t.Helper()
	ctrl := gomock.NewController(t)
	signer := mocks.NewMockSigner(ctrl)

	cfg := &config.Config{CORS: config.DefaultCORSConfig}
	var limiter *ratelimit.Limiter
	if limit > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.NewMemoryStore(), limit, time.Minute)
	}

	appCtx := middlewares.NewAppContext(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), signer, limiter)
	return setupRouter(appCtx), signer
}

func TestRouterServesAPI(t *testing.T) {
	router, signer := newTestRouter(t, 0)

	signer.EXPECT().Templates().Return(config.DefaultTemplates)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middlewares.RequestIDHeader))

	var templates []config.Template
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &templates))
	assert.Len(t, templates, len(config.DefaultTemplates))
}

func TestRouterPollsByPathID(t *testing.T) {
	router, signer := newTestRouter(t, 0)

	signer.EXPECT().Poll(gomock.Any(), "31", "").Return(&signing.Result{
		Outcome: enrollment.Outcome{Kind: enrollment.OutcomePending, RequestID: "31"},
	}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/certificates/requests/31", nil))

	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestRouterRateLimitsButNotHealth(t *testing.T) {
	router, _ := newTestRouter(t, 1)

	body := `{"csr":"nope"}`
	call := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if path == "/api/v1/health" {
			req = httptest.NewRequest(http.MethodGet, path, nil)
		}
		req.RemoteAddr = "192.0.2.10:4000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call("/api/v1/csr/validate"))
	assert.Equal(t, http.StatusTooManyRequests, call("/api/v1/csr/validate"))
	assert.Equal(t, http.StatusOK, call("/api/v1/health"))
}

func TestRouterRateLimitIgnoresSpoofedClientIP(t *testing.T) {
	router, _ := newTestRouter(t, 1)

	var codes []int
	for _, spoofed := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/csr/validate", strings.NewReader(`{"csr":"nope"}`))
		req.RemoteAddr = "192.0.2.10:4000"
		req.Header.Set("X-Real-IP", spoofed)
		req.Header.Set("True-Client-IP", spoofed)
		req.Header.Set("X-Forwarded-For", spoofed)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRouterUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v2/nothing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rr.Body.String())
}

func TestLoggerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)

	logger.Info("vault login", "token", "hvs.secret", "password", "hunter2", "path", "kv2/cert")

	out := buf.String()
	assert.NotContains(t, out, "hvs.secret")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "kv2/cert")
	assert.Contains(t, out, redacted)
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "warn"}, &buf)

	logger.Info("quiet")
	logger.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)).With("component", "test")

	logger.Info("hello")

	assert.Contains(t, a.String(), "component=test")
	assert.Contains(t, b.String(), `"component":"test"`)
}
