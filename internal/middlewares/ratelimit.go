package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"cryptoforge/internal/metrics"
)

// RateLimitMiddleware limits requests per client IP. It must run after ClientIPMiddleware
// and AppContextMiddleware. Store failures let the request through.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appCtx := GetAppContext(r)
		if appCtx == nil || appCtx.RateLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}

		decision, err := appCtx.RateLimiter.Allow(r.Context(), key)
		if err != nil {
			appCtx.Logger.Warn("rate limit store unavailable, allowing request", "client_ip", key, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			metrics.RateLimitRejections.Inc()
			retryAfter := int(time.Until(decision.ResetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			appCtx.Logger.Info("rate limit exceeded", "client_ip", key, "limit", decision.Limit)
			appCtx.SetJSONError(http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
