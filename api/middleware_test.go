package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reelbase/config"
	"reelbase/handlers"
	"reelbase/models"
	"reelbase/services/auth"
)

type fakeVerifier struct {
	claims auth.Claims
	err    error
}

func (f fakeVerifier) VerifyToken(string) (auth.Claims, error) {
	return f.claims, f.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	claims := auth.Claims{
		Email:            "alice@x.com",
		Role:             string(models.RoleUser),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}

	var got auth.Claims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = handlers.ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	wrapped := AuthMiddleware(fakeVerifier{claims: claims})(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got.Subject != "user-1" || got.Email != "alice@x.com" {
		t.Fatalf("claims not stored on context: %+v", got)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "bad token", header: "Bearer bad", err: errors.New("invalid token")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := AuthMiddleware(fakeVerifier{err: tc.err})(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	wrapped := AdminOnlyMiddleware()(okHandler())

	adminClaims := auth.Claims{Role: string(models.RoleAdmin)}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(handlers.WithClaims(req.Context(), adminClaims))
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for admin, got %d", rec.Code)
	}

	userClaims := auth.Claims{Role: string(models.RoleUser)}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(handlers.WithClaims(req.Context(), userClaims))
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-admin, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 without claims, got %d", rec.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	wrapped := rateLimitMiddleware(config.RateLimitSettings{RequestsPerSecond: 1, Burst: 2})(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after burst, got %v", codes)
	}

	// A different client keeps its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for fresh client, got %d", rec.Code)
	}
}

func TestIPLimitersEvictIdleClients(t *testing.T) {
	limiters := newIPLimiters(1, 2)
	limiters.ttl = time.Minute

	start := time.Now()
	limiters.lastSweep = start
	limiters.get("10.0.0.1", start)
	limiters.get("10.0.0.2", start)
	if len(limiters.clients) != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", len(limiters.clients))
	}

	// Only the second client stays active past the TTL; the sweep on the
	// next lookup drops the idle one.
	limiters.get("10.0.0.2", start.Add(limiters.ttl-time.Second))
	limiters.get("10.0.0.3", start.Add(limiters.ttl))

	if _, ok := limiters.clients["10.0.0.1"]; ok {
		t.Fatal("idle client should have been evicted")
	}
	if _, ok := limiters.clients["10.0.0.2"]; !ok {
		t.Fatal("active client should have been kept")
	}
	if len(limiters.clients) != 2 {
		t.Fatalf("expected 2 tracked clients after sweep, got %d", len(limiters.clients))
	}
}

func TestIPLimitersKeepBucketState(t *testing.T) {
	limiters := newIPLimiters(1, 1)

	now := time.Now()
	first := limiters.get("10.0.0.1", now)
	if first != limiters.get("10.0.0.1", now) {
		t.Fatal("same client should reuse its bucket")
	}
	if first == limiters.get("10.0.0.2", now) {
		t.Fatal("different clients should not share a bucket")
	}
}

func TestCORSPreflight(t *testing.T) {
	wrapped := corsMiddleware("http://localhost:5173")(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for preflight, got %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", origin)
	}
}
