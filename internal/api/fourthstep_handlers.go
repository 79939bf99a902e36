package api

import (
	"net/http"

	"github.com/soberline/soberline/internal/store"
)

type inventoryRequest struct {
	Type        string `json:"type" validate:"required"`
	Description string `json:"description"`
	AffectsWhat string `json:"affects_what"`
	MyPart      string `json:"my_part"`
	FearType    string `json:"fear_type"`
}

func (a *API) handleListInventory(w http.ResponseWriter, r *http.Request) {
	entries, err := a.store.ListInventory(principal(r).UserID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, entries)
}

func (a *API) handleCreateInventoryEntry(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := a.store.CreateInventoryEntry(principal(r).UserID, store.InventoryEntry{
		Type:        req.Type,
		Description: req.Description,
		AffectsWhat: req.AffectsWhat,
		MyPart:      req.MyPart,
		FearType:    req.FearType,
	})
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"id": e.ID})
}

func (a *API) handleDeleteInventoryEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := a.store.DeleteInventoryEntry(principal(r).UserID, id)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"changes": n})
}
