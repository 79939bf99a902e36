package api

import (
	"errors"
	"net/http"

	"github.com/soberline/soberline/internal/store"
)

type postRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required"`
}

func (a *API) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.store.ListPosts()
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, posts)
}

func (a *API) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := a.store.CreatePost(principal(r).UserID, req.Title, req.Content)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"id": p.ID})
}

func (a *API) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := idParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req commentRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := a.store.CreateComment(principal(r).UserID, postID, req.Content)
	if errors.Is(err, store.ErrNotFound) {
		a.respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"id": c.ID})
}
