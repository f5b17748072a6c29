package httputil

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/mockapi/pkg/contextkeys"
	"github.com/platinummonkey/mockapi/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Response headers set by the middleware
const (
	HeaderRequestID   = "X-Request-ID"
	HeaderProcessTime = "X-Process-Time"
)

// LoggingMiddleware logs HTTP requests and reports the handling time in
// X-Process-Time (seconds). It stores a request-scoped logrus entry in the
// context for handlers.
func LoggingMiddleware(log *logrus.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			entry := log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			if requestID := contextkeys.GetRequestID(r.Context()); requestID != "" {
				entry = entry.WithField("request_id", requestID)
			}

			ctx := contextkeys.WithLogger(r.Context(), entry)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK, start: start}
			next.ServeHTTP(rw, r.WithContext(ctx))

			fields := logrus.Fields{
				"status":      rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": r.RemoteAddr,
			}
			switch {
			case rw.statusCode >= 500:
				entry.WithFields(fields).Error("Request failed")
			case rw.statusCode >= 400:
				entry.WithFields(fields).Warn("Request rejected")
			default:
				entry.WithFields(fields).Info("Request handled")
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code and
// stamp the processing time before the headers go out
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	start       time.Time
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = code
	rw.Header().Set(HeaderProcessTime, strconv.FormatFloat(time.Since(rw.start).Seconds(), 'f', 4, 64))
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// RecoveryMiddleware recovers from panics, logs them with their stack and
// hands the response to onPanic. A nil onPanic writes a plain 500.
func RecoveryMiddleware(log *logrus.Logger, onPanic http.HandlerFunc) func(http.Handler) http.Handler {
	if onPanic == nil {
		onPanic = func(w http.ResponseWriter, r *http.Request) {
			WriteDetail(w, http.StatusInternalServerError, "Internal server error")
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer observability.RecoverPanicWithCallback(observability.FromContext(r.Context(), log), "http handler", func() {
				onPanic(w, r)
			})
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware adds CORS headers to responses. A "*" entry allows every
// origin. allowHeaders are accepted on preflight in addition to
// Content-Type and Authorization.
func CORSMiddleware(allowedOrigins []string, allowHeaders ...string) func(http.Handler) http.Handler {
	headers := strings.Join(append([]string{"Content-Type", "Authorization"}, allowHeaders...), ", ")
	exposed := strings.Join([]string{"Authorization", HeaderProcessTime, HeaderRequestID}, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowOrigin := ""
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == "*" {
					allowOrigin = "*"
					break
				}
				if origin != "" && allowedOrigin == origin {
					allowOrigin = origin
					break
				}
			}

			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Expose-Headers", exposed)
				w.Header().Set("Access-Control-Max-Age", "3600")
				if allowOrigin != "*" {
					w.Header().Add("Vary", "Origin")
				}
			}

			// Preflight requests stop here
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request. An incoming
// X-Request-ID is kept.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, requestID)
		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Chain chains multiple middleware together. The first middleware is the
// outermost.
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// MaxBytesMiddleware limits the size of request bodies
func MaxBytesMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
