package http

import (
	"net/http"
	"strconv"
	"time"

	"currency-rates-service/internal/metrics"
	"currency-rates-service/pkg/logger"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	handler        *Handler
	allowedOrigins []string
	log            *logger.Logger
	metrics        *metrics.Metrics
}

func NewRouter(handler *Handler, allowedOrigins []string, log *logger.Logger, metrics *metrics.Metrics) *Router {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	return &Router{
		handler:        handler,
		allowedOrigins: allowedOrigins,
		log:            log,
		metrics:        metrics,
	}
}

// loggingMiddleware wraps the whole mux so that 404 and 405 answers are
// logged and counted too.
func (r *Router) loggingMiddleware(router *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()

		crw := &customResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		router.ServeHTTP(crw, req)

		path := routePath(router, req)
		duration := time.Since(start)

		if path != "/metrics" {
			r.metrics.HTTPRequestDuration.WithLabelValues(path, req.Method).Observe(duration.Seconds())
			r.metrics.HTTPRequestsTotal.WithLabelValues(path, req.Method, strconv.Itoa(crw.statusCode/100)+"xx").Inc()
		}

		r.log.Info("HTTP request",
			"method", req.Method,
			"path", req.URL.Path,
			"query", req.URL.RawQuery,
			"status", crw.statusCode,
			"duration", duration,
			"remote_addr", req.RemoteAddr,
			"user_agent", req.UserAgent(),
		)
	})
}

// routePath labels metrics with the matched route template so unmatched
// paths cannot grow the label set.
func routePath(router *mux.Router, req *http.Request) string {
	var match mux.RouteMatch
	if router.Match(req, &match) && match.MatchErr == nil && match.Route != nil {
		if tmpl, err := match.Route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

type customResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (crw *customResponseWriter) WriteHeader(code int) {
	crw.statusCode = code
	crw.ResponseWriter.WriteHeader(code)
}

func (r *Router) SetupRoutes() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()

	h := r.handler
	switch {
	case h.exchange != nil:
		api.HandleFunc("/rates", h.GetRatesHandler).Methods(http.MethodGet)
		api.HandleFunc("/rates", h.RefreshRatesHandler).Methods(http.MethodPost)
		api.HandleFunc("/rates/history", h.GetHistoryHandler).Methods(http.MethodGet)
	case h.writeThrough != nil:
		api.HandleFunc("/rates", h.GetStoredRatesHandler).Methods(http.MethodGet)
		api.HandleFunc("/rates", h.RefreshStoredRatesHandler).Methods(http.MethodPost)
	}

	if h.writeThrough != nil {
		api.HandleFunc("/rates-store", h.FindRatesHandler).Methods(http.MethodGet)
		api.HandleFunc("/rates-store", h.SaveRateHandler).Methods(http.MethodPost)
	}

	api.HandleFunc("/currencies-list", h.CurrenciesListHandler).Methods(http.MethodGet)
	api.HandleFunc("/currency-symbol-map", h.CurrencySymbolMapHandler).Methods(http.MethodGet)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler())

	cors := handlers.CORS(
		handlers.AllowedOrigins(r.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	return cors(r.loggingMiddleware(router))
}
