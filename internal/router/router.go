package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/query"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/readiness"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/database"
)

const prefix = "/readiness-api"

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware logs every request at debug level.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			// HSTS only over TLS; 30 days
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Deps are the collaborators the routes are served by.
type Deps struct {
	Session   *database.Session
	Service   *readiness.Service
	Engine    *query.Engine
	Publisher query.Publisher
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes mounts every endpoint on a standard library ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+prefix+"/health", func(w http.ResponseWriter, r *http.Request) {
		db, err := deps.Session.DB()
		if err == nil {
			err = db.PingContext(r.Context())
		}
		if err != nil {
			logger.Warnw("health check failed", "err", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	rh := readiness.NewHandler(deps.Service, logger)
	mux.HandleFunc("POST "+prefix+"/imports/{source}", rh.Import)
	mux.HandleFunc("DELETE "+prefix+"/sources/{source}", rh.Clear)
	mux.HandleFunc("POST "+prefix+"/combined/rebuild", rh.Rebuild)
	mux.HandleFunc("DELETE "+prefix+"/combined", rh.ClearCombined)
	mux.HandleFunc("POST "+prefix+"/propagate/{source}", rh.Propagate)
	mux.HandleFunc("GET "+prefix+"/batches", rh.Batches)
	mux.HandleFunc("GET "+prefix+"/summary", rh.Summary)

	qh := query.NewHandler(deps.Engine, deps.Publisher, logger)
	mux.HandleFunc("GET "+prefix+"/query", qh.Query)
	mux.HandleFunc("GET "+prefix+"/query/export", qh.Export)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
}
