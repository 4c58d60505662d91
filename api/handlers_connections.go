package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"linkgraph/auth"
	"linkgraph/domain"
	"linkgraph/errors"
)

func (a *API) requestConnection(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req connectionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	receiver := domain.Actor{Kind: domain.ActorKind(req.ReceiverKind), ID: req.ReceiverID}

	conn, err := a.connections.Request(r.Context(), actor, receiver)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

func (a *API) acceptConnection(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	conn, err := a.connections.Accept(r.Context(), id, actor)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (a *API) rejectConnection(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	conn, err := a.connections.Reject(r.Context(), id, actor)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (a *API) removeConnection(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	vars := mux.Vars(r)
	other := domain.Actor{Kind: domain.ActorKind(vars["kind"]), ID: vars["actorId"]}

	if err := a.connections.Remove(r.Context(), actor, other); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listConnections(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	list, err := a.connections.List(r.Context(), actor)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id", errors.ErrValidation)
	}
	return id, nil
}
