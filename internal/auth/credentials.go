package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
)

var ErrMissingCredentials = errors.New("missing credentials")

// TokenFromQuery extracts the bearer token from a WebSocket upgrade request's
// query string (`?token=...`). Browsers cannot set headers on upgrades, so
// the query parameter is the only credential channel for the relay.
func TokenFromQuery(q url.Values) (string, error) {
	if token := q.Get("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingCredentials
}

// TokenFromHeader extracts a bearer token from the Authorization header.
func TokenFromHeader(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrMissingCredentials
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrMissingCredentials
	}
	return strings.TrimSpace(token), nil
}
