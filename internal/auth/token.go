// Package auth issues and verifies the HS256 bearer tokens used by both the
// HTTP API and the signaling WebSocket upgrade, and hashes user passwords.
//
// Tokens are signed and verified directly on crypto/hmac: the wire format is
// the standard three-part base64url JWT, but only HS256 is ever accepted, so
// the usual algorithm-confusion pitfalls are rejected up front.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("expired token")
	ErrUnsupportedAlg = errors.New("unsupported token algorithm")
)

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

// Principal is the authenticated identity attached to a request or a
// signaling connection for its lifetime.
type Principal struct {
	UserID   int64
	Username string
}

type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

type claims struct {
	Sub      int64  `json:"sub"`
	Username string `json:"username,omitempty"`
	Kind     string `json:"kind"`
	Iat      int64  `json:"iat"`
	Exp      int64  `json:"exp"`
}

// IssueAccessToken mints a short-lived token carrying the user's identity.
func (s *TokenService) IssueAccessToken(p Principal) (string, error) {
	now := s.now()
	return s.sign(claims{
		Sub:      p.UserID,
		Username: p.Username,
		Kind:     tokenKindAccess,
		Iat:      now.Unix(),
		Exp:      now.Add(s.accessTTL).Unix(),
	})
}

// IssueRefreshToken mints a long-lived token carrying only the user id. The
// returned expiry is persisted alongside the token so it can be revoked.
func (s *TokenService) IssueRefreshToken(userID int64) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.refreshTTL)
	token, err := s.sign(claims{
		Sub:  userID,
		Kind: tokenKindRefresh,
		Iat:  now.Unix(),
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// VerifyAccessToken validates signature, expiry, and token kind, and returns
// the embedded principal.
func (s *TokenService) VerifyAccessToken(token string) (Principal, error) {
	c, err := s.verify(token)
	if err != nil {
		return Principal{}, err
	}
	if c.Kind != tokenKindAccess || c.Username == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: c.Sub, Username: c.Username}, nil
}

// VerifyRefreshToken validates signature, expiry, and token kind, and returns
// the subject user id.
func (s *TokenService) VerifyRefreshToken(token string) (int64, error) {
	c, err := s.verify(token)
	if err != nil {
		return 0, err
	}
	if c.Kind != tokenKindRefresh {
		return 0, ErrInvalidToken
	}
	return c.Sub, nil
}

var encodedHeader = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

func (s *TokenService) sign(c claims) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	signingInput := encodedHeader + "." + base64.RawURLEncoding.EncodeToString(payload)

	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(signingInput))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return signingInput + "." + sig, nil
}

func (s *TokenService) verify(token string) (claims, error) {
	headerB64, payloadB64, sigB64, ok := splitToken(token)
	if !ok {
		return claims{}, ErrInvalidToken
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(headerB64)
	if err != nil {
		return claims{}, ErrInvalidToken
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return claims{}, ErrInvalidToken
	}
	if header.Alg != "HS256" {
		return claims{}, ErrUnsupportedAlg
	}

	gotSig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return claims{}, ErrInvalidToken
	}
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(headerB64))
	_, _ = mac.Write([]byte{'.'})
	_, _ = mac.Write([]byte(payloadB64))
	if !hmac.Equal(gotSig, mac.Sum(nil)) {
		return claims{}, ErrInvalidToken
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return claims{}, ErrInvalidToken
	}
	var c claims
	if err := json.Unmarshal(payloadJSON, &c); err != nil {
		return claims{}, ErrInvalidToken
	}

	if c.Exp == 0 {
		return claims{}, ErrInvalidToken
	}
	if s.now().Unix() >= c.Exp {
		return claims{}, ErrExpiredToken
	}
	return c, nil
}

func splitToken(token string) (header, payload, sig string, ok bool) {
	// Cheap length guard before any decoding work.
	if len(token) == 0 || len(token) > 8*1024 {
		return "", "", "", false
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
