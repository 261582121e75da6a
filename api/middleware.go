package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"reelbase/config"
	"reelbase/handlers"
	"reelbase/services/auth"
	"reelbase/utils/respond"
)

type tokenVerifier interface {
	VerifyToken(tokenString string) (auth.Claims, error)
}

// AuthMiddleware verifies the Bearer token and stores its claims on the
// request context.
func AuthMiddleware(verifier tokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithClaims(r.Context(), claims)))
		})
	}
}

// AdminOnlyMiddleware rejects requests whose token does not carry the admin
// role. It must run after AuthMiddleware.
func AdminOnlyMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !handlers.IsAdmin(r.Context()) {
				respond.Error(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware handles CORS for API routes.
func corsMiddleware(allowedOrigin string) mux.MiddlewareFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limiterTTL is how long an idle client keeps its token bucket before the
// next sweep drops it.
const limiterTTL = 10 * time.Minute

type ipClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiters hands out per-IP token buckets and evicts idle ones so the
// map stays bounded over the process lifetime.
type ipLimiters struct {
	mu        sync.Mutex
	clients   map[string]*ipClient
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
}

func newIPLimiters(rps float64, burst int) *ipLimiters {
	return &ipLimiters{
		clients:   make(map[string]*ipClient),
		rps:       rate.Limit(rps),
		burst:     burst,
		ttl:       limiterTTL,
		lastSweep: time.Now(),
	}
}

func (l *ipLimiters) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.ttl {
		for addr, c := range l.clients {
			if now.Sub(c.lastSeen) >= l.ttl {
				delete(l.clients, addr)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &ipClient{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// rateLimitMiddleware applies a per-client token bucket keyed by remote IP.
func rateLimitMiddleware(settings config.RateLimitSettings) mux.MiddlewareFunc {
	rps := settings.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := settings.Burst
	if burst < 1 {
		burst = 10
	}

	limiters := newIPLimiters(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiters.get(ip, time.Now()).Allow() {
				respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
