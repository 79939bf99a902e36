package api

import (
	"errors"
	"net/http"

	"github.com/soberline/soberline/internal/store"
)

type sobrietyDateRequest struct {
	SobrietyStartDate string `json:"sobriety_start_date" validate:"required,datetime=2006-01-02"`
}

func (a *API) handleGetSobrietyDate(w http.ResponseWriter, r *http.Request) {
	date, err := a.store.SobrietyDate(principal(r).UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"sobriety_start_date": date})
}

func (a *API) handleSetSobrietyDate(w http.ResponseWriter, r *http.Request) {
	var req sobrietyDateRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := a.store.SetSobrietyDate(principal(r).UserID, req.SobrietyStartDate)
	if errors.Is(err, store.ErrNotFound) {
		a.respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"changes": 1})
}
