package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"linkgraph/auth"
	"linkgraph/domain"
	"linkgraph/presence"
	"linkgraph/repositories"
	"linkgraph/runtime"
	"linkgraph/services"
)

const testSecret = "api-test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	connRepo := repositories.NewConnectionRepository(db, log)
	notifRepo := repositories.NewNotificationRepository(db, log)
	msgRepo := repositories.NewMessageRepository(db, log)

	registry := presence.NewRegistry()
	t.Cleanup(registry.Close)
	dispatcher := runtime.NewDispatcher(log, notifRepo, 16)

	handler := New(log,
		services.NewConnectionService(log, connRepo, dispatcher),
		services.NewNotificationService(notifRepo, nil),
		services.NewMessagingService(log, msgRepo, connRepo, dispatcher, 1000),
		registry,
		auth.NewVerifier(testSecret),
		16)

	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)
	return server
}

func call(t *testing.T, method, url string, actor domain.Actor, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)

	if !actor.IsZero() {
		token, err := auth.NewVerifier(testSecret).GenerateToken(actor, time.Hour)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func Test_Unauthenticated_Calls_Are_Rejected(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	resp := call(t, http.MethodGet, server.URL+"/api/connections", domain.Actor{}, nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// Health and metrics stay public.
	resp = call(t, http.MethodGet, server.URL+"/healthz", domain.Actor{}, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	resp = call(t, http.MethodGet, server.URL+"/metrics", domain.Actor{}, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
}

func Test_Connection_Flow_Over_HTTP(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}

	resp := call(t, http.MethodPost, server.URL+"/api/connections", alice,
		map[string]string{"receiver_kind": "person", "receiver_id": "bob"})
	req.Equal(http.StatusCreated, resp.StatusCode)
	var conn domain.Connection
	req.NoError(json.NewDecoder(resp.Body).Decode(&conn))
	req.Equal(domain.ConnectionPending, conn.Status)

	// A second request for the same pair conflicts.
	resp = call(t, http.MethodPost, server.URL+"/api/connections", alice,
		map[string]string{"receiver_kind": "person", "receiver_id": "bob"})
	req.Equal(http.StatusConflict, resp.StatusCode)

	// Only the receiver may accept.
	acceptURL := fmt.Sprintf("%s/api/connections/%s/accept", server.URL, conn.ID)
	resp = call(t, http.MethodPost, acceptURL, alice, nil)
	req.Equal(http.StatusForbidden, resp.StatusCode)
	resp = call(t, http.MethodPost, acceptURL, bob, nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	resp = call(t, http.MethodGet, server.URL+"/api/connections", bob, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	var list services.ConnectionList
	req.NoError(json.NewDecoder(resp.Body).Decode(&list))
	req.Len(list.Accepted, 1)
	req.Empty(list.PendingIncoming)

	// The receiver got notified about the original request.
	resp = call(t, http.MethodGet, server.URL+"/api/notifications", bob, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	var notifications []domain.Notification
	req.NoError(json.NewDecoder(resp.Body).Decode(&notifications))
	req.Len(notifications, 1)
	req.Equal("connection_requested", notifications[0].Type)
}

func Test_Messaging_Flow_Over_HTTP(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}
	conversationID := domain.ConversationID(alice, bob)
	messagesURL := fmt.Sprintf("%s/api/conversations/%s/messages", server.URL, conversationID)
	sendBody := map[string]any{"receiver_kind": "person", "receiver_id": "bob", "content": "hello"}

	// No accepted connection yet.
	resp := call(t, http.MethodPost, messagesURL, alice, sendBody)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	resp = call(t, http.MethodPost, server.URL+"/api/connections", alice,
		map[string]string{"receiver_kind": "person", "receiver_id": "bob"})
	req.Equal(http.StatusCreated, resp.StatusCode)
	var conn domain.Connection
	req.NoError(json.NewDecoder(resp.Body).Decode(&conn))
	resp = call(t, http.MethodPost, fmt.Sprintf("%s/api/connections/%s/accept", server.URL, conn.ID), bob, nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	resp = call(t, http.MethodPost, messagesURL, alice, sendBody)
	req.Equal(http.StatusCreated, resp.StatusCode)
	var m domain.Message
	req.NoError(json.NewDecoder(resp.Body).Decode(&m))
	req.Equal(conversationID, m.ConversationID)

	resp = call(t, http.MethodGet, messagesURL, bob, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	var messages []domain.Message
	req.NoError(json.NewDecoder(resp.Body).Decode(&messages))
	req.Len(messages, 1)

	resp = call(t, http.MethodGet, server.URL+"/api/conversations", bob, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	var conversations []domain.Conversation
	req.NoError(json.NewDecoder(resp.Body).Decode(&conversations))
	req.Len(conversations, 1)
	req.Equal(1, conversations[0].UnreadCount)

	resp = call(t, http.MethodPost, fmt.Sprintf("%s/api/messages/%s/read", server.URL, m.ID), bob, nil)
	req.Equal(http.StatusNoContent, resp.StatusCode)
}

func Test_Room_Calls_Need_A_Live_Session(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}

	// Without a session header.
	resp := call(t, http.MethodPost, server.URL+"/api/rooms/conv-1/join", alice, nil)
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	// With an unknown session id.
	r, err := http.NewRequest(http.MethodPost, server.URL+"/api/rooms/conv-1/join", nil)
	req.NoError(err)
	token, err := auth.NewVerifier(testSecret).GenerateToken(alice, time.Hour)
	req.NoError(err)
	r.Header.Set("Authorization", "Bearer "+token)
	r.Header.Set("X-Session-ID", "not-a-session")
	resp2, err := http.DefaultClient.Do(r)
	req.NoError(err)
	defer resp2.Body.Close()
	req.Equal(http.StatusNotFound, resp2.StatusCode)
}
