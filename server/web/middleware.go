package web

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gatherhq/gather-server/server/auth"
)

// auth extracts and verifies the bearer token on every request and attaches
// the principal to the context.
func (h *handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		principal, err := h.Verifier.Verify(token)
		if err != nil {
			slog.DebugContext(ctx, "rejected bearer token", slog.Any("error", err))
			respondJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "invalid bearer token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetPrincipal(ctx, principal)))
	})
}

// cacheControl marks responses as cacheable. Only reference data routes use
// it, everything else is per-principal.
func cacheControl(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "stale-while-revalidate, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

// rateLimit applies a per-client token bucket keyed by remote IP. Idle
// limiters are dropped after an hour.
func (h *handler) rateLimit(next http.Handler) http.Handler {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	clients := make(map[string]*client)

	every := rate.Every(time.Duration(h.Cfg.RateLimit.Every))
	burst := h.Cfg.RateLimit.Burst

	cleanup := func(now time.Time) {
		for ip, c := range clients {
			if now.Sub(c.lastSeen) > time.Hour {
				delete(clients, ip)
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		mu.Lock()
		now := time.Now()
		c, ok := clients[ip]
		if !ok {
			c = &client{limiter: rate.NewLimiter(every, burst)}
			clients[ip] = c
			cleanup(now)
		}
		c.lastSeen = now
		allowed := c.limiter.Allow()
		mu.Unlock()

		if !allowed {
			respondJSON(r.Context(), w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
