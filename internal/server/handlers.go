package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptoforge/internal/handlers"
	"cryptoforge/internal/middlewares"
)

// requestTimeout bounds a whole API call. Enrollment round trips have their own, shorter,
// timeout so a slow CA still produces a JSON error.
const requestTimeout = 90 * time.Second

func setupRouter(ctx *middlewares.AppContext) *chi.Mux {
	r := chi.NewRouter()

	trustedProxies, err := ctx.Config.Server.TrustedProxyPrefixes()
	if err != nil {
		ctx.Logger.Warn("ignoring trusted proxies, forwarding headers will not be honoured", "error", err)
		trustedProxies = nil
	}

	r.Use(middlewares.ClientIPMiddleware(trustedProxies))
	r.Use(middleware.Recoverer)
	r.Use(middlewares.MetricsMiddleware)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(middlewares.AppContextMiddleware(ctx))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ctx.Config.CORS.AllowedOrigins,
		AllowedMethods:   ctx.Config.CORS.AllowedMethods,
		AllowedHeaders:   ctx.Config.CORS.AllowedHeaders,
		ExposedHeaders:   ctx.Config.CORS.ExposedHeaders,
		AllowCredentials: ctx.Config.CORS.AllowCredentials,
		MaxAge:           ctx.Config.CORS.MaxAgeSeconds,
	}))

	r.Use(middleware.Compress(5, "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", ctx.HandlerFunc(handlers.GETHealth))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RateLimitMiddleware)

			r.Route("/csr", func(r chi.Router) {
				r.Post("/validate", ctx.HandlerFunc(handlers.POSTValidateCSR))
				r.Post("/parse", ctx.HandlerFunc(handlers.POSTParseCSR))
			})

			r.Route("/certificates", func(r chi.Router) {
				r.Post("/sign", ctx.HandlerFunc(handlers.POSTSignCertificate))
				r.Get("/requests", ctx.HandlerFunc(handlers.GETPendingRequests))
				r.Get("/requests/{id}", ctx.HandlerFunc(handlers.GETPollRequest))
			})

			r.Route("/ca", func(r chi.Router) {
				r.Get("/chain", ctx.HandlerFunc(handlers.GETCAChain))
				r.Get("/certificate", ctx.HandlerFunc(handlers.GETCACertificate))
			})

			r.Get("/templates", ctx.HandlerFunc(handlers.GETTemplates))
			r.Post("/credentials/check", ctx.HandlerFunc(handlers.POSTCheckCredentials))
			r.Get("/secrets", ctx.HandlerFunc(handlers.GETSecrets))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if appCtx := middlewares.GetAppContext(r); appCtx != nil {
			appCtx.SetJSONError(http.StatusNotFound, http.StatusText(http.StatusNotFound))
			return
		}
		http.NotFound(w, r)
	})

	return r
}

func setupDebugRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/debug", middleware.Profiler())

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
