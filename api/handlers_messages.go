package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"linkgraph/auth"
	"linkgraph/domain"
)

func (a *API) sendMessage(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	conversationID := mux.Vars(r)["id"]

	var req sendMessageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	receiver := domain.Actor{Kind: domain.ActorKind(req.ReceiverKind), ID: req.ReceiverID}

	m, err := a.messaging.Send(r.Context(), actor, receiver, conversationID, req.Content, req.Attachments)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]
	messages, err := a.messaging.ListMessages(r.Context(), conversationID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (a *API) listConversations(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	conversations, err := a.messaging.ListConversations(r.Context(), actor)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if conversations == nil {
		conversations = []domain.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (a *API) markMessageRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.messaging.MarkRead(r.Context(), id, actor); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteMessage(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.messaging.Delete(r.Context(), id, actor); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
