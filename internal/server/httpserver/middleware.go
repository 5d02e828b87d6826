package httpserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/tracer"
)

// maxRequestIDLen bounds caller supplied request ids.
const maxRequestIDLen = 128

type contextKey string

// contextKeyStartTime is the context key for request start time.
const contextKeyStartTime contextKey = "start_time"

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestRecorder receives per-request metrics.
type RequestRecorder interface {
	RecordRequest(protocol, method string, status int)
	ObserveRequestDuration(protocol, method string, d time.Duration)
}

// RequestID tags each request with an id, taken from X-Request-ID when the
// caller sends a usable one, and attaches a request-scoped logger.
func RequestID(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > maxRequestIDLen {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = logger.WithLogger(ctx, log)
			ctx = context.WithValue(ctx, contextKeyStartTime, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Tracing continues the caller's trace from W3C headers and wraps the
// request in a server span named after the route.
func Tracing(route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.StartSpan(ctx, route,
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
			)
			defer span.End()

			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", wrapped.statusCode))
			if wrapped.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
			}
		})
	}
}

// Metrics records request count and latency under the route pattern.
func Metrics(rec RequestRecorder, route string) Middleware {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			rec.RecordRequest("http", route, wrapped.statusCode)
			rec.ObserveRequestDuration("http", route, time.Since(start))
		})
	}
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// visitorIdle is how long an idle client keeps its bucket.
const visitorIdle = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a token bucket per client IP.
func RateLimit(cfg RateLimitConfig) Middleware {
	var (
		mu        sync.Mutex
		visitors  = make(map[string]*visitor)
		lastPrune = time.Now()
	)

	limiterFor := func(ip string, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if now.Sub(lastPrune) > visitorIdle {
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > visitorIdle {
					delete(visitors, k)
				}
			}
			lastPrune = now
		}

		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(getClientIP(r), time.Now()).Allow() {
				handler.WriteError(w, logger.RequestIDFromContext(r.Context()),
					http.StatusTooManyRequests, domain.ErrRateLimited.Code, domain.ErrRateLimited.Message, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds the request context. Lock waits observe it, so a request
// stuck behind a busy account fails with a cancellation error.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Audit logs one line per request.
func Audit(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			startTime, ok := r.Context().Value(contextKeyStartTime).(time.Time)
			if !ok {
				startTime = time.Now()
			}
			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(startTime).Milliseconds(),
				"client_ip", getClientIP(r),
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// Recover recovers from panics and returns 500 error.
func Recover(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					requestID := logger.RequestIDFromContext(r.Context())
					log.Error("panic recovered",
						"request_id", requestID,
						"error", err,
						"path", r.URL.Path,
					)
					trace.SpanFromContext(r.Context()).SetStatus(codes.Error, "panic")
					handler.WriteError(w, requestID, http.StatusInternalServerError,
						domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// NetworkACL rejects clients outside allowList. Entries are IPs or CIDRs;
// invalid entries are logged and skipped. An empty list allows everyone.
func NetworkACL(allowList []string, log logger.Logger) Middleware {
	var networks []*net.IPNet
	for _, entry := range allowList {
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				bits := 8 * net.IPv4len
				if ip.To4() == nil {
					bits = 8 * net.IPv6len
				}
				networks = append(networks, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
				continue
			}
			log.Warn("invalid IP in allowlist", "entry", entry)
			continue
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			log.Warn("invalid CIDR in allowlist", "entry", entry, "error", err)
			continue
		}
		networks = append(networks, ipNet)
	}

	return func(next http.Handler) http.Handler {
		if len(networks) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			if ip := net.ParseIP(clientIP); ip != nil {
				for _, n := range networks {
					if n.Contains(ip) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			log.Warn("request denied by network ACL", "client_ip", clientIP, "path", r.URL.Path)
			handler.WriteError(w, logger.RequestIDFromContext(r.Context()), http.StatusForbidden,
				domain.ErrForbidden.Code, domain.ErrForbidden.Message, "client not in admin allow list")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// SplitHostPort handles IPv6 addresses like [::1]:8080.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
