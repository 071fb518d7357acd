package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"cryptoforge/internal/config"
	"cryptoforge/internal/middlewares"
	"cryptoforge/internal/mocks"
	"cryptoforge/internal/signing"
)

// TestContext holds everything needed for testing
type TestContext struct {
	AppContext     *middlewares.AppContext
	Request        *http.Request
	Response       *httptest.ResponseRecorder
	MockController *gomock.Controller
	MockSigner     *mocks.MockSigner
	LogHandler     *TestLogHandler
}

func NewTestContext(t *testing.T) *TestContext {
	cfg := &config.Config{}

	logHandler := NewTestLogHandler()
	logger := slog.New(logHandler)

	ctrl := gomock.NewController(t)
	mockSigner := mocks.NewMockSigner(ctrl)

	rr := httptest.NewRecorder()

	appCtx := &middlewares.AppContext{
		Context:  context.Background(),
		Config:   cfg,
		Logger:   logger,
		Signer:   mockSigner,
		Response: rr,
	}

	return &TestContext{
		AppContext:     appCtx,
		Response:       rr,
		MockController: ctrl,
		MockSigner:     mockSigner,
		LogHandler:     logHandler,
	}
}

// NewTestContextWithURL creates a complete test setup with sensible defaults
func NewTestContextWithURL(t *testing.T, method, url string) *TestContext {
	return NewTestContextWithBody(t, method, url, nil)
}

// NewTestContextWithBody creates a test setup whose request carries body encoded as JSON.
// A nil body sends no payload.
func NewTestContextWithBody(t *testing.T, method, url string, body any) *TestContext {
	tc := NewTestContext(t)

	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, url, nil)
	} else {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Could not encode request body: %v", err)
		}
		req = httptest.NewRequest(method, url, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	}

	tc.WithRequest(req)
	return tc
}

// Finish should be called at the end of tests to clean up mocks
func (tc *TestContext) Finish() {
	if tc.MockController != nil {
		tc.MockController.Finish()
	}
}

func (tc *TestContext) AssertLogContains(t *testing.T, level slog.Level, message string) {
	if !tc.LogHandler.ContainsMessage(level, message) {
		t.Errorf("Expected to find log entry with level %v containing message: %s", level, message)
	}
}

func (tc *TestContext) AssertLogCount(t *testing.T, level slog.Level, expectedCount int) {
	count := tc.LogHandler.CountByLevel(level)
	if count != expectedCount {
		t.Errorf("Expected %d log entries at level %v, got %d", expectedCount, level, count)
	}
}

func (tc *TestContext) GetLogRecords() []TestLogRecord {
	return tc.LogHandler.GetRecords()
}

func (tc *TestContext) ClearLogRecords() {
	tc.LogHandler.Reset()
}

// CallHandler executes a handler with the test context
func (tc *TestContext) CallHandler(handler middlewares.AppHandler) {
	handler(tc.AppContext)
}

// AssertStatus checks the HTTP status code
func (tc *TestContext) AssertStatus(t *testing.T, expectedStatus int) {
	if tc.Response.Code != expectedStatus {
		t.Errorf("Expected status %d, got %d", expectedStatus, tc.Response.Code)
	}
}

// AssertContentType checks the content type header
func (tc *TestContext) AssertContentType(t *testing.T, expectedType string) {
	if ct := tc.Response.Header().Get("Content-Type"); ct != expectedType {
		t.Errorf("Expected content type %s, got %s", expectedType, ct)
	}
}

// GetJSONResponse parses the response body as JSON
func (tc *TestContext) GetJSONResponse(t *testing.T) map[string]interface{} {
	var response map[string]interface{}
	if err := json.Unmarshal(tc.Response.Body.Bytes(), &response); err != nil {
		t.Fatalf("Could not parse JSON response: %v", err)
	}
	return response
}

// GetJSONResponseArray parses the response body as a JSON array
func (tc *TestContext) GetJSONResponseArray(t *testing.T) []interface{} {
	var response []interface{}
	if err := json.Unmarshal(tc.Response.Body.Bytes(), &response); err != nil {
		t.Fatalf("Could not parse JSON array response: %v", err)
	}
	return response
}

// AssertJSONField checks a specific field in a JSON response
func (tc *TestContext) AssertJSONField(t *testing.T, field string, expected any) {
	response := tc.GetJSONResponse(t)
	if actual, ok := response[field]; !ok || actual != expected {
		t.Errorf("Expected %s to be %s, got %v", field, expected, response[field])
	}
}

func (tc *TestContext) AssertJSONBool(t *testing.T, field string, expected bool) {
	response := tc.GetJSONResponse(t)
	actual, exists := response[field]

	if !exists {
		t.Errorf("Field %s not found in response", field)
		return
	}

	actualBool, ok := actual.(bool)
	if !ok {
		t.Errorf("Expected %s to be a boolean, got %T", field, actual)
		return
	}

	if actualBool != expected {
		t.Errorf("Expected %s to be %v, got %v", field, expected, actualBool)
	}
}

// AssertJSONString checks a specific string field in a JSON response
func (tc *TestContext) AssertJSONString(t *testing.T, field string, expected string) {
	response := tc.GetJSONResponse(t)
	actual, exists := response[field]

	if !exists {
		t.Errorf("Field %s not found in response", field)
		return
	}

	actualString, ok := actual.(string)
	if !ok {
		t.Errorf("Expected %s to be a string, got %T", field, actual)
		return
	}

	if actualString != expected {
		t.Errorf("Expected %s to be %q, got %q", field, expected, actualString)
	}
}

// AssertJSONObject validates an object field with expected key-value pairs
func (tc *TestContext) AssertJSONObject(t *testing.T, field string, expectedFields map[string]interface{}) {
	response := tc.GetJSONResponse(t)
	actual, exists := response[field]

	if !exists {
		t.Errorf("Field %s not found in response", field)
		return
	}

	actualObj, ok := actual.(map[string]interface{})
	if !ok {
		t.Errorf("Expected %s to be an object, got %T", field, actual)
		return
	}

	for key, expectedValue := range expectedFields {
		if actualValue, keyExists := actualObj[key]; !keyExists {
			t.Errorf("Expected field %s.%s to exist", field, key)
		} else if actualValue != expectedValue {
			t.Errorf("Expected %s.%s to be %v, got %v", field, key, expectedValue, actualValue)
		}
	}
}

// WithConfig allows you to override the default config for specific tests
func (tc *TestContext) WithConfig(cfg *config.Config) *TestContext {
	tc.AppContext.Config = cfg
	return tc
}

// WithLogger allows you to override the default logger for specific tests
func (tc *TestContext) WithLogger(logger *slog.Logger) *TestContext {
	tc.AppContext.Logger = logger
	return tc
}

// WithSigner allows you to override the signer with a different mock or implementation
func (tc *TestContext) WithSigner(signer signing.Signer) *TestContext {
	tc.AppContext.Signer = signer
	return tc
}

// Helper to add query parameters to the request
func (tc *TestContext) WithQueryParam(key, value string) *TestContext {
	q := tc.Request.URL.Query()
	q.Add(key, value)
	tc.Request.URL.RawQuery = q.Encode()
	return tc
}

// Helper to add headers
func (tc *TestContext) WithHeader(key, value string) *TestContext {
	tc.Request.Header.Set(key, value)
	return tc
}

// Assertion helpers for common patterns
func (tc *TestContext) AssertJSONArrayLength(t *testing.T, expected int) {
	response := tc.GetJSONResponseArray(t)
	if len(response) != expected {
		t.Errorf("Expected JSON array length %d, got %d", expected, len(response))
	}
}

// WithURLParam sets a chi route parameter on the request
func (tc *TestContext) WithURLParam(key, value string) *TestContext {
	rctx := chi.RouteContext(tc.Request.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return tc.WithRequest(tc.Request.WithContext(context.WithValue(tc.Request.Context(), chi.RouteCtxKey, rctx)))
}

// WithRequest allows you to set a custom request (useful for tests that don't use URL constructor)
func (tc *TestContext) WithRequest(req *http.Request) *TestContext {
	tc.Request = req
	tc.AppContext.Request = req
	tc.AppContext.Context = req.Context()
	return tc
}
