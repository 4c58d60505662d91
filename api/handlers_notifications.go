package api

import (
	"net/http"

	"linkgraph/auth"
	"linkgraph/domain"
)

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	notifications, err := a.notifications.List(r.Context(), actor)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (a *API) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.notifications.MarkRead(r.Context(), id, actor); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := a.notifications.MarkAllRead(r.Context(), actor); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) completeNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	var req completeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.notifications.MarkCompleted(r.Context(), id, req.RelatedID); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
