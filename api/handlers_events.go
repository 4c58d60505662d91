package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"linkgraph/auth"
	"linkgraph/domain"
	"linkgraph/domain/event"
	"linkgraph/errors"
	"linkgraph/sink"
)

// wireEvent is the serialized form pushed over a live session.
type wireEvent struct {
	Kind      string          `json:"kind"`
	Message   string          `json:"message"`
	Sender    domain.Actor    `json:"sender"`
	Receiver  domain.Actor    `json:"receiver"`
	RelatedID string          `json:"related_id"`
	At        time.Time       `json:"at"`
	Payload   *domain.Message `json:"payload,omitempty"`
}

func toWireEvent(e event.DomainEvent) wireEvent {
	we := wireEvent{
		Kind:      e.Kind(),
		Message:   e.Describe(),
		Sender:    e.Sender(),
		Receiver:  e.Receiver(),
		RelatedID: e.RelatedID(),
		At:        e.At(),
	}
	if ms, ok := e.(event.MessageSent); ok {
		m := ms.Message
		we.Payload = &m
	}
	return we
}

// streamEvents establishes a long-lived SSE stream: the live transport
// session. It registers a dedicated sink in the presence registry and
// blocks until the client disconnects. Cleanup runs on any exit path so
// a dropped client never leaks registry state.
func (a *API) streamEvents(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, a.log, fmt.Errorf("streaming unsupported by connection"))
		return
	}

	sessionID := uuid.NewString()
	s := sink.NewSessionSink(sessionID, a.connectionBufferSize)
	a.registry.OnConnect(actor.Key(), sessionID, s)
	defer a.registry.OnDisconnect(sessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// The session id is the client's handle for room join/leave calls.
	fmt.Fprintf(w, "event: session\ndata: {\"session_id\":%q}\n\n", sessionID)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			a.log.Debug("Client disconnected", "actor", actor.Key(), "session_id", sessionID)
			return
		case evt := <-s.Events:
			data, err := json.Marshal(toWireEvent(evt))
			if err != nil {
				a.log.Error("Failed to serialize event for push",
					"session_id", sessionID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				a.log.Warn("Failed to push event to stream",
					"actor", actor.Key(), "session_id", sessionID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (a *API) joinRoom(w http.ResponseWriter, r *http.Request) {
	sessionID, err := a.ownedSession(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	conversationID := mux.Vars(r)["conversationId"]
	if !a.registry.Join(sessionID, conversationID) {
		writeError(w, a.log, fmt.Errorf("%w: unknown session", errors.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) leaveRoom(w http.ResponseWriter, r *http.Request) {
	sessionID, err := a.ownedSession(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	a.registry.Leave(sessionID, mux.Vars(r)["conversationId"])
	w.WriteHeader(http.StatusNoContent)
}

// ownedSession resolves the X-Session-ID header and checks the caller
// owns it: room membership is per-session, but only the session's actor
// may manage it.
func (a *API) ownedSession(r *http.Request) (string, error) {
	actor, _ := auth.ActorFromContext(r.Context())
	sessionID := r.Header.Get("X-Session-ID")
	if sessionID == "" {
		return "", fmt.Errorf("%w: missing X-Session-ID header", errors.ErrValidation)
	}
	owner, ok := a.registry.SessionActor(sessionID)
	if !ok {
		return "", fmt.Errorf("%w: unknown session", errors.ErrNotFound)
	}
	if owner != actor.Key() {
		return "", fmt.Errorf("%w: session belongs to another actor", errors.ErrForbidden)
	}
	return sessionID, nil
}
