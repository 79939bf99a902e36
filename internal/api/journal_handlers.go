package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soberline/soberline/internal/store"
)

type journalEntryRequest struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Content string `json:"content" validate:"required"`
	Mood    string `json:"mood" validate:"omitempty,oneof=happy grateful struggling neutral anxious confident"`
}

// idParam parses the {id} route parameter as a positive integer.
func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("valid ID is required")
	}
	return id, nil
}

func (a *API) handleListJournal(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	a.log.Debug().Int64("user_id", p.UserID).Msg("fetching journal")

	entries, err := a.store.ListJournal(p.UserID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) handleCreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req journalEntryRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := a.store.CreateJournalEntry(principal(r).UserID, req.Date, req.Content, req.Mood)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"id": e.ID})
}

func (a *API) handleUpdateJournalEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req journalEntryRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = a.store.UpdateJournalEntry(principal(r).UserID, id, req.Content, req.Mood)
	if errors.Is(err, store.ErrNotFound) {
		a.respondError(w, http.StatusNotFound, "Entry not found or unauthorized")
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"changes": 1})
}

func (a *API) handleDeleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := a.store.DeleteJournalEntry(principal(r).UserID, id)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"changes": n})
}
