// Package presence tracks which actor currently holds an open transport
// session. It is advisory routing state for live delivery, never a
// source of truth: the notification and message stores stay authoritative.
package presence

import (
	"sync"

	"linkgraph/contract"
	"linkgraph/observability"
)

type Set map[string]struct{}

// Registry is the process-wide live-session directory.
// Initialized at startup, mutated only through OnConnect / OnDisconnect /
// Join / Leave, torn down by closing all sessions at shutdown.
//
// One actor holds at most one live session: a newer registration
// supersedes the previous one (last login wins). A second concurrent
// login therefore silently loses live push on the first session; the
// durable records remain retrievable by polling.
type Registry struct {
	mu           sync.RWMutex
	actorSession map[string]string             // actorKey -> sessionID
	sessionActor map[string]string             // sessionID -> actorKey (reverse index)
	sinks        map[string]contract.EventSink // sessionID -> live channel
	roomMembers  map[string]Set                // conversationID -> sessionIDs
	sessionRooms map[string]Set                // sessionID -> conversationIDs
}

func NewRegistry() *Registry {
	return &Registry{
		actorSession: make(map[string]string),
		sessionActor: make(map[string]string),
		sinks:        make(map[string]contract.EventSink),
		roomMembers:  make(map[string]Set),
		sessionRooms: make(map[string]Set),
	}
}

// OnConnect registers a live session for the actor, superseding any
// prior session. The superseded session keeps its transport open but no
// longer receives actor-addressed pushes.
func (r *Registry) OnConnect(actorKey, sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.actorSession[actorKey]; ok && old != sessionID {
		delete(r.sessionActor, old)
	}
	r.actorSession[actorKey] = sessionID
	r.sessionActor[sessionID] = actorKey
	r.sinks[sessionID] = sink
	observability.LiveSessions.Set(float64(len(r.sinks)))
}

// OnDisconnect tears down a session. The actor mapping is removed only
// if it still points at this session, looked up via the reverse index:
// a stale disconnect arriving after the actor re-registered under a
// newer session must never evict the newer registration.
func (r *Registry) OnDisconnect(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if actorKey, ok := r.sessionActor[sessionID]; ok {
		if r.actorSession[actorKey] == sessionID {
			delete(r.actorSession, actorKey)
		}
		delete(r.sessionActor, sessionID)
	}
	delete(r.sinks, sessionID)

	// Room membership is cleared automatically; no client leave call is
	// assumed reliable.
	for conversationID := range r.sessionRooms[sessionID] {
		if members, ok := r.roomMembers[conversationID]; ok {
			delete(members, sessionID)
			if len(members) == 0 {
				delete(r.roomMembers, conversationID)
			}
		}
	}
	delete(r.sessionRooms, sessionID)
	observability.LiveSessions.Set(float64(len(r.sinks)))
}

// Join adds the session to a conversation room. Unknown sessions are
// ignored: membership is only meaningful for a live sink.
func (r *Registry) Join(sessionID, conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sinks[sessionID]; !ok {
		return false
	}
	if _, ok := r.roomMembers[conversationID]; !ok {
		r.roomMembers[conversationID] = make(Set)
	}
	r.roomMembers[conversationID][sessionID] = struct{}{}
	if _, ok := r.sessionRooms[sessionID]; !ok {
		r.sessionRooms[sessionID] = make(Set)
	}
	r.sessionRooms[sessionID][conversationID] = struct{}{}
	return true
}

func (r *Registry) Leave(sessionID, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.roomMembers[conversationID]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.roomMembers, conversationID)
		}
	}
	if rooms, ok := r.sessionRooms[sessionID]; ok {
		delete(rooms, conversationID)
		if len(rooms) == 0 {
			delete(r.sessionRooms, sessionID)
		}
	}
}

// Live resolves the actor's current session sink, if any.
func (r *Registry) Live(actorKey string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessionID, ok := r.actorSession[actorKey]
	if !ok {
		return nil, false
	}
	sink, ok := r.sinks[sessionID]
	return sink, ok
}

// SinksForRoom retrieves all active channels joined to a conversation.
// It performs a two-step lookup: member session ids via roomMembers,
// then the actual sinks. Membership, not participant identity, gates
// live push.
func (r *Registry) SinksForRoom(conversationID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[conversationID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for sessionID := range members {
		if sink, exists := r.sinks[sessionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// SessionActor exposes the owner of a session, used by the transport
// layer to authorize room joins.
func (r *Registry) SessionActor(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actorKey, ok := r.sessionActor[sessionID]
	return actorKey, ok
}

// Close disconnects every live session, used at shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]string, 0, len(r.sinks))
	for sessionID := range r.sinks {
		sessions = append(sessions, sessionID)
	}
	r.mu.Unlock()
	for _, sessionID := range sessions {
		r.OnDisconnect(sessionID)
	}
}
