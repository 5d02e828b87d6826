package httpserver

import (
	"net/http"
	"time"

	"github.com/yndnr/ledgermesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// MetricsRegistry records request metrics and serves /metrics.
type MetricsRegistry interface {
	RequestRecorder
	Handler() http.Handler
}

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the API routes.
	Handler *handler.Handler

	// Metrics is optional; without it /metrics is not served.
	Metrics MetricsRegistry

	// Logger for request logging.
	Logger logger.Logger

	// RateLimit enables the per-client token bucket when RPS > 0.
	RateLimit RateLimitConfig

	// RequestTimeout bounds each API request; zero disables it.
	RequestTimeout time.Duration

	// AdminAllowList is the IP/CIDR allowlist for the admin API (empty = no restriction).
	AdminAllowList []string

	// EnableAudit enables audit logging for all requests.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// Every request passes Recover, RequestID and, when enabled, Audit. Each
// route adds Tracing and Metrics labelled with its pattern. Business and
// admin routes are rate limited and time bounded; health probes are not.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	// One limiter set shared by every limited route.
	var limit Middleware
	if cfg.RateLimit.RPS > 0 {
		limit = RateLimit(cfg.RateLimit)
	}
	acl := NetworkACL(cfg.AdminAllowList, log)

	mux := http.NewServeMux()
	for _, rt := range cfg.Handler.Routes() {
		mws := []Middleware{Tracing(rt.Pattern), Metrics(cfg.Metrics, rt.Pattern)}
		if !isProbe(rt.Pattern) {
			if rt.Admin {
				mws = append(mws, acl)
			}
			if limit != nil {
				mws = append(mws, limit)
			}
			mws = append(mws, Timeout(cfg.RequestTimeout))
		}
		mux.Handle(rt.Pattern, Chain(rt.Handler, mws...))
	}

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	outer := []Middleware{Recover(log), RequestID(log)}
	if cfg.EnableAudit {
		outer = append(outer, Audit(log))
	}
	return Chain(mux, outer...)
}

func isProbe(pattern string) bool {
	return pattern == "GET /health" || pattern == "GET /ready"
}
