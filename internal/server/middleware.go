package server

import (
	"bufio"
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/farmtech/irrigation/internal/version"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmtech_http_requests_total",
			Help: "API requests by method, route pattern and status code.",
		},
		[]string{"method", "route", "status"},
	)
	// Risk and maintenance training can hold a request for minutes.
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "farmtech_http_request_duration_seconds",
			Help:    "API request latency by method and route pattern.",
			Buckets: []float64{.005, .025, .1, .5, 1, 5, 30, 120},
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration)
}

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mw around handler; the first middleware runs first.
func Chain(handler http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

type requestIDKey struct{}

// RequestID returns the id RequestIDMiddleware stored in ctx.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

const maxRequestIDLen = 64

// RequestIDMiddleware tags each request with an id. A gateway-supplied
// X-Request-ID is kept when it is short and printable; anything else is
// replaced with a uuid so it cannot forge log lines.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

// LoggingMiddleware writes one log line per request and records the HTTP
// metrics. Paths in skipPaths (probes, /metrics) are counted but not
// logged. Server errors log at warn.
func LoggingMiddleware(logger *zap.Logger, skipPaths []string) Middleware {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			// r.Pattern keeps label cardinality bounded for /readings/{id}.
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

			if skip[r.URL.Path] {
				return
			}
			log := logger.Info
			if sw.status >= http.StatusInternalServerError {
				log = logger.Warn
			}
			log("http request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Int64("bytes", sw.written),
				zap.Duration("duration", elapsed),
				zap.String("remote", r.RemoteAddr),
				zap.String("request_id", RequestID(r.Context())),
			)
		})
	}
}

const (
	// The API only serves JSON, so nothing may load or frame it.
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// Swagger UI needs its own scripts, inline styles and data: images.
	swaggerCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"
)

// SecurityHeadersMiddleware sets the response hardening headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		if strings.HasPrefix(r.URL.Path, "/swagger/") {
			h.Set("Content-Security-Policy", swaggerCSP)
		} else {
			h.Set("Content-Security-Policy", apiCSP)
		}
		next.ServeHTTP(w, r)
	})
}

// VersionHeaderMiddleware adds X-FarmTech-Version to all responses.
func VersionHeaderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FarmTech-Version", version.Short())
		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware turns a handler panic into a 500 problem.
func RecoveryMiddleware(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.String("request_id", RequestID(r.Context())),
					)
					InternalError(w, "an unexpected error occurred", r.URL.Path)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware applies a token bucket per client address using
// cfg.RateLimitRPS and cfg.RateLimitBurst. X-Forwarded-For is honored only
// when cfg.TrustProxy is set. Rejected requests get a Retry-After hint.
func RateLimitMiddleware(cfg Config, skipPaths []string) Middleware {
	clients := newClientLimiters(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	retryAfter := "1"
	if cfg.RateLimitRPS > 0 && cfg.RateLimitRPS < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / cfg.RateLimitRPS)))
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !skip[r.URL.Path] && !clients.allow(clientIP(r, cfg.TrustProxy)) {
				w.Header().Set("Retry-After", retryAfter)
				RateLimited(w, "rate limit exceeded", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	maxTrackedClients = 10000
	clientIdleAfter   = 10 * time.Minute
)

// clientLimiters holds one limiter per client address. Idle clients are
// evicted once the table reaches maxTrackedClients.
type clientLimiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	now     func() time.Time
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	*rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(limit rate.Limit, burst int) *clientLimiters {
	return &clientLimiters{
		limit:   limit,
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

func (c *clientLimiters) allow(addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	l, ok := c.clients[addr]
	if !ok {
		if len(c.clients) >= maxTrackedClients {
			c.evictIdle(now)
		}
		l = &clientLimiter{Limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[addr] = l
	}
	l.lastSeen = now
	return l.AllowN(now, 1)
}

// evictIdle drops clients not seen within clientIdleAfter. c.mu must be held.
func (c *clientLimiters) evictIdle(now time.Time) {
	cutoff := now.Add(-clientIdleAfter)
	for addr, l := range c.clients {
		if l.lastSeen.Before(cutoff) {
			delete(c.clients, addr)
		}
	}
}

// clientIP returns the host part of RemoteAddr, or the first
// X-Forwarded-For hop when the server runs behind a trusted proxy.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusWriter records the status code and body size of a response.
type statusWriter struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack passes through so the websocket stream can upgrade.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	w.wroteHeader = true
	return hj.Hijack()
}
