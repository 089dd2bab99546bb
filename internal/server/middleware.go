package server

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"fraud-scorer/internal/common"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// requestID keeps the caller's X-Request-ID or assigns a new one, echoes it
// back and stores it where middleware.GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(common.HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog logs every request and counts it by route pattern.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		if s.metrics != nil {
			s.metrics.HTTPRequestInc(r.Method, route, status)
		}

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Str("remote", r.RemoteAddr).
			Dur("latency", time.Since(start)).
			Msg("http request")
	})
}

// recoverer turns a handler panic into a 500 with a JSON body.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Str("request_id", middleware.GetReqID(r.Context())).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("handler panic")
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, common.MaxRequestBodySize)
		next.ServeHTTP(w, r)
	})
}

// rateLimit applies the per-IP limiter when one is configured.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiters == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiters.allow(clientIP(r)) {
			writeDetail(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 30 * time.Minute
)

type ipLimiter struct {
	limiter *rate.Limiter
	last    time.Time
}

// ipLimiters holds one token bucket per client IP. Idle entries are swept
// lazily on access.
type ipLimiters struct {
	rps   rate.Limit
	burst int

	mu        sync.Mutex
	entries   map[string]*ipLimiter
	lastSweep time.Time
}

func newIPLimiters(rps float64, burst int) *ipLimiters {
	if burst <= 0 {
		burst = common.DefaultRateLimitBurst
	}
	return &ipLimiters{
		rps:       rate.Limit(rps),
		burst:     burst,
		entries:   make(map[string]*ipLimiter),
		lastSweep: time.Now(),
	}
}

func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterSweepInterval {
		for key, e := range l.entries {
			if now.Sub(e.last) > limiterIdleTTL {
				delete(l.entries, key)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[ip]
	if !ok {
		e = &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[ip] = e
	}
	e.last = now
	return e.limiter.AllowN(now, 1)
}
