package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soberline/soberline/internal/store"
)

type messageRequest struct {
	Content string `json:"content" validate:"required"`
}

type voiceCallRequest struct {
	Author string `json:"author"`
}

func roomIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("valid room ID is required")
	}
	return id, nil
}

func (a *API) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := a.store.ListMeetingRooms()
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (a *API) handleListMessages(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs, err := a.store.ListMessages(roomID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (a *API) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req messageRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Content is required")
		return
	}

	msg, err := a.store.AddMessage(roomID, principal(r).Username, req.Content, a.timestamp())
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, msg)
}

func (a *API) handleListQueue(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	queue, err := a.store.ListSharingQueue(roomID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"queue": queue})
}

func (a *API) handleJoinQueue(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := a.store.JoinSharingQueue(roomID, principal(r).Username, a.timestamp())
	if errors.Is(err, store.ErrDuplicate) {
		a.respondError(w, http.StatusConflict, "Author already in queue for this room.")
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, entry)
}

// handleLeaveQueue removes an author from the queue. Any authenticated
// user may remove any author: a meeting chair taking the current speaker
// off the queue is the normal flow.
func (a *API) handleLeaveQueue(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	author := chi.URLParam(r, "author")

	n, err := a.store.LeaveSharingQueue(roomID, author)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"changes": n})
}

// handleJoinVoiceCall acknowledges a voice call join. Actual call setup
// happens over the signaling relay; this endpoint exists for client flow
// logging.
func (a *API) handleJoinVoiceCall(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req voiceCallRequest
	_ = a.decode(r, &req)

	a.log.Info().Str("author", req.Author).Int64("room_id", roomID).Msg("joining voice call")
	a.respondJSON(w, http.StatusOK, map[string]any{
		"status": "joining_voice_call",
		"roomId": roomID,
		"author": req.Author,
	})
}
