package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soberline/soberline/internal/auth"
	"github.com/soberline/soberline/internal/metrics"
	"github.com/soberline/soberline/internal/ratelimit"
)

type contextKey int

const principalKey contextKey = iota

// requireAuth verifies the Authorization bearer token and stores the
// authenticated principal in the request context.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.TokenFromHeader(r)
		if err != nil {
			a.metrics.Inc(metrics.AuthFailure)
			a.respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		p, err := a.tokens.VerifyAccessToken(token)
		if err != nil {
			a.metrics.Inc(metrics.AuthFailure)
			if errors.Is(err, auth.ErrExpiredToken) {
				a.respondError(w, http.StatusUnauthorized, "Token expired")
				return
			}
			a.respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

// principal returns the authenticated identity. Only valid below
// requireAuth.
func principal(r *http.Request) auth.Principal {
	p, _ := r.Context().Value(principalKey).(auth.Principal)
	return p
}

// rateLimit applies a fixed-window quota keyed by client IP.
func (a *API) rateLimit(limiter *ratelimit.WindowLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !limiter.Allow(key) {
				a.metrics.Inc(metrics.HTTPRateLimited)
				if retry := limiter.RetryAfter(key); retry > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)+1))
				}
				a.respondError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// socket peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
