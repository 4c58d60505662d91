package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linkgraph/auth"
	"linkgraph/presence"
	"linkgraph/services"
)

// API holds the request/response surface of the pipeline. Identity is
// an external collaborator: every /api call arrives with a token the
// middleware resolves to an Actor.
type API struct {
	log                  *slog.Logger
	connections          services.IConnectionService
	notifications        services.INotificationService
	messaging            services.IMessagingService
	registry             *presence.Registry
	verifier             auth.Verifier
	connectionBufferSize int
}

func New(log *slog.Logger,
	connections services.IConnectionService,
	notifications services.INotificationService,
	messaging services.IMessagingService,
	registry *presence.Registry,
	verifier auth.Verifier,
	connectionBufferSize int) *API {
	return &API{
		log:                  log,
		connections:          connections,
		notifications:        notifications,
		messaging:            messaging,
		registry:             registry,
		verifier:             verifier,
		connectionBufferSize: connectionBufferSize,
	}
}

func (a *API) Router() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	s := r.PathPrefix("/api").Subrouter()
	s.Use(auth.Middleware(a.verifier))

	s.HandleFunc("/connections", a.requestConnection).Methods(http.MethodPost)
	s.HandleFunc("/connections", a.listConnections).Methods(http.MethodGet)
	s.HandleFunc("/connections/{id}/accept", a.acceptConnection).Methods(http.MethodPost)
	s.HandleFunc("/connections/{id}/reject", a.rejectConnection).Methods(http.MethodPost)
	s.HandleFunc("/connections/{kind}/{actorId}", a.removeConnection).Methods(http.MethodDelete)

	s.HandleFunc("/notifications", a.listNotifications).Methods(http.MethodGet)
	s.HandleFunc("/notifications/read-all", a.markAllNotificationsRead).Methods(http.MethodPost)
	s.HandleFunc("/notifications/{id}/read", a.markNotificationRead).Methods(http.MethodPost)
	s.HandleFunc("/notifications/{id}/complete", a.completeNotification).Methods(http.MethodPost)

	s.HandleFunc("/conversations", a.listConversations).Methods(http.MethodGet)
	s.HandleFunc("/conversations/{id}/messages", a.listMessages).Methods(http.MethodGet)
	s.HandleFunc("/conversations/{id}/messages", a.sendMessage).Methods(http.MethodPost)
	s.HandleFunc("/messages/{id}/read", a.markMessageRead).Methods(http.MethodPost)
	s.HandleFunc("/messages/{id}", a.deleteMessage).Methods(http.MethodDelete)

	s.HandleFunc("/events", a.streamEvents).Methods(http.MethodGet)
	s.HandleFunc("/rooms/{conversationId}/join", a.joinRoom).Methods(http.MethodPost)
	s.HandleFunc("/rooms/{conversationId}/leave", a.leaveRoom).Methods(http.MethodPost)

	return r
}
