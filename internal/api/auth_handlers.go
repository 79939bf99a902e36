package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/soberline/soberline/internal/auth"
	"github.com/soberline/soberline/internal/store"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Password string `json:"password" validate:"required,password"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password, a.cfg.BcryptCost)
	if err != nil {
		a.serverError(w, err)
		return
	}

	u, err := a.store.CreateUser(req.Username, hash)
	if errors.Is(err, store.ErrDuplicate) {
		a.respondError(w, http.StatusConflict, "Username already exists.")
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}

	a.log.Info().Str("username", u.Username).Msg("user registered")
	a.respondJSON(w, http.StatusCreated, map[string]any{"id": u.ID, "username": u.Username})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := a.store.UserByUsername(req.Username)
	if errors.Is(err, store.ErrNotFound) {
		a.respondError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}

	if err := auth.CheckPassword(u.Password, req.Password); err != nil {
		a.respondError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	accessToken, err := a.tokens.IssueAccessToken(auth.Principal{UserID: u.ID, Username: u.Username})
	if err != nil {
		a.serverError(w, err)
		return
	}
	refreshToken, expiresAt, err := a.tokens.IssueRefreshToken(u.ID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	if err := a.store.SaveRefreshToken(refreshToken, u.ID, expiresAt.UTC().Format(time.RFC3339)); err != nil {
		a.serverError(w, err)
		return
	}

	a.log.Info().Str("username", u.Username).Msg("user logged in")
	a.respondJSON(w, http.StatusOK, map[string]any{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"username":     u.Username,
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		a.respondError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	userID, err := a.tokens.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		a.respondError(w, http.StatusForbidden, "Invalid or expired refresh token")
		return
	}

	// A cryptographically valid token may still have been revoked.
	known, err := a.store.RefreshTokenExists(req.RefreshToken)
	if err != nil {
		a.serverError(w, err)
		return
	}
	if !known {
		a.respondError(w, http.StatusForbidden, "Invalid refresh token")
		return
	}

	u, err := a.store.UserByID(userID)
	if errors.Is(err, store.ErrNotFound) {
		a.respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}

	accessToken, err := a.tokens.IssueAccessToken(auth.Principal{UserID: u.ID, Username: u.Username})
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"accessToken": accessToken})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := a.decode(r, &req); err == nil && req.RefreshToken != "" {
		if err := a.store.DeleteRefreshToken(req.RefreshToken); err != nil {
			a.log.Error().Err(err).Msg("delete refresh token")
		}
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}
