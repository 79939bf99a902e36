package api

import (
	"net/http"
)

func (a *API) handleAAMeetings(w http.ResponseWriter, r *http.Request) {
	latitude := r.URL.Query().Get("latitude")
	longitude := r.URL.Query().Get("longitude")
	if latitude == "" || longitude == "" {
		a.respondError(w, http.StatusBadRequest, "Latitude and longitude are required.")
		return
	}

	data, err := a.meetings.Meetings(r.Context(), latitude, longitude)
	if err != nil {
		a.log.Error().Err(err).Msg("meeting guide proxy failed")
		a.respondError(w, http.StatusBadGateway, "Failed to fetch AA meetings")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *API) handleDailyReflection(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.reflections.ForDate(a.now()))
}
