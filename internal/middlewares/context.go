package middlewares

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"cryptoforge/internal/config"
	"cryptoforge/internal/ratelimit"
	"cryptoforge/internal/signing"
)

const RequestIDHeader = "X-Request-ID"

type AppContext struct {
	context.Context
	Config      *config.Config
	Logger      *slog.Logger
	Signer      signing.Signer
	RateLimiter *ratelimit.Limiter
	RequestID   string

	Request  *http.Request
	Response http.ResponseWriter
}

type contextKey string

const appContextKey contextKey = "appContext"

// AppContextMiddleware builds a per-request AppContext. The request id is taken from
// X-Request-ID when present and echoed back.
func AppContextMiddleware(baseCtx *AppContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			requestCtx := &AppContext{
				Context:     r.Context(),
				Config:      baseCtx.Config,
				Logger:      baseCtx.Logger.With("request_id", requestID),
				Signer:      baseCtx.Signer,
				RateLimiter: baseCtx.RateLimiter,
				RequestID:   requestID,
				Request:     r,
				Response:    w,
			}

			ctx := context.WithValue(r.Context(), appContextKey, requestCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type AppHandler func(*AppContext)

// Handler converts an AppHandler to an http.Handler
func (ctx *AppContext) Handler(h AppHandler) http.Handler {
	return ctx.HandlerFunc(h)
}

// HandlerFunc converts AppHandler to a http.HandlerFunc
func (ctx *AppContext) HandlerFunc(h AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appCtx := GetAppContext(r)
		if appCtx == nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		h(appCtx)
	}
}

func NewAppContext(ctx context.Context, cfg *config.Config, logger *slog.Logger, signer signing.Signer, limiter *ratelimit.Limiter) *AppContext {
	return &AppContext{
		Context:     ctx,
		Config:      cfg,
		Logger:      logger,
		Signer:      signer,
		RateLimiter: limiter,
	}
}

func GetAppContext(r *http.Request) *AppContext {
	if ctx, ok := r.Context().Value(appContextKey).(*AppContext); ok {
		return ctx
	}

	return nil
}

func GetLogger(r *http.Request) *slog.Logger {
	if appCtx := GetAppContext(r); appCtx != nil {
		return appCtx.Logger
	}

	return nil
}

func (ctx *AppContext) WriteJSON(status int, data interface{}) {
	ctx.Response.Header().Set("Content-Type", "application/json")
	ctx.Response.WriteHeader(status)
	if err := json.NewEncoder(ctx.Response).Encode(data); err != nil {
		ctx.Logger.Error("failed to marshal json", "error", err)
	}
}

// WriteBytes sends a binary or PEM payload with the given content type.
func (ctx *AppContext) WriteBytes(status int, contentType string, body []byte) {
	ctx.Response.Header().Set("Content-Type", contentType)
	ctx.Response.WriteHeader(status)
	if _, err := ctx.Response.Write(body); err != nil {
		ctx.Logger.Error("failed to write response", "error", err)
	}
}

func (ctx *AppContext) SetJSONError(status int, message string) {
	ctx.WriteJSON(status, map[string]string{
		"error": message,
	})
}

func (ctx *AppContext) SetJSONStatus(status int, message string) {
	ctx.WriteJSON(status, map[string]string{
		"status": message,
	})
}

// DecodeJSON reads the request body into v, rejecting unknown fields.
func (ctx *AppContext) DecodeJSON(v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(ctx.Response, ctx.Request.Body, 1<<20))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
