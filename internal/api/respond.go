package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/soberline/soberline/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error().Err(err).Msg("encode response")
	}
}

func (a *API) respondError(w http.ResponseWriter, status int, msg string) {
	a.respondJSON(w, status, errorResponse{Error: msg})
}

// serverError logs the cause and hides it from the client.
func (a *API) serverError(w http.ResponseWriter, err error) {
	a.log.Error().Err(err).Msg("request failed")
	a.respondError(w, http.StatusInternalServerError, "Internal server error")
}

// decode reads a JSON body into dst and runs struct validation. The
// returned error message is safe to send to the client.
func (a *API) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, a.cfg.MaxRequestBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	if err := a.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid field %q", verrs[0].Field())
		}
		return fmt.Errorf("invalid request")
	}
	return nil
}

// storeError maps store sentinels onto HTTP statuses; anything else is a
// server error.
func (a *API) storeError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.respondError(w, http.StatusNotFound, notFoundMsg)
	default:
		a.serverError(w, err)
	}
}
