package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"linkgraph/contract"
	"linkgraph/domain"
	"linkgraph/domain/event"
	"linkgraph/errors"
	"linkgraph/repositories"
)

// ConnectionList splits an actor's connections the way clients consume
// them: the accepted graph plus the two pending directions.
type ConnectionList struct {
	Accepted        []domain.Connection `json:"accepted"`
	PendingIncoming []domain.Connection `json:"pending_incoming"`
	PendingOutgoing []domain.Connection `json:"pending_outgoing"`
}

type IConnectionService interface {
	Request(ctx context.Context, requester, receiver domain.Actor) (domain.Connection, error)
	Accept(ctx context.Context, id uuid.UUID, acting domain.Actor) (domain.Connection, error)
	Reject(ctx context.Context, id uuid.UUID, acting domain.Actor) (domain.Connection, error)
	Remove(ctx context.Context, acting, other domain.Actor) error
	List(ctx context.Context, actor domain.Actor) (ConnectionList, error)
}

type ConnectionService struct {
	log         *slog.Logger
	connections repositories.IConnectionRepository
	dispatcher  contract.EventDispatcher
}

func NewConnectionService(log *slog.Logger, connections repositories.IConnectionRepository,
	dispatcher contract.EventDispatcher) *ConnectionService {
	return &ConnectionService{log: log, connections: connections, dispatcher: dispatcher}
}

func (s *ConnectionService) Request(ctx context.Context, requester, receiver domain.Actor) (domain.Connection, error) {
	if err := requester.Validate(); err != nil {
		return domain.Connection{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if err := receiver.Validate(); err != nil {
		return domain.Connection{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if requester == receiver {
		return domain.Connection{}, fmt.Errorf("%w: cannot connect to self", errors.ErrValidation)
	}

	conn, err := s.connections.Create(requester, receiver)
	if err != nil {
		return domain.Connection{}, err
	}
	if err := s.dispatcher.Emit(ctx, event.ConnectionRequested{Connection: conn}); err != nil {
		return domain.Connection{}, err
	}
	return conn, nil
}

func (s *ConnectionService) Accept(ctx context.Context, id uuid.UUID, acting domain.Actor) (domain.Connection, error) {
	conn, err := s.connections.Transition(id, acting, domain.ConnectionAccepted)
	if err != nil {
		return domain.Connection{}, err
	}
	if err := s.dispatcher.Emit(ctx, event.ConnectionAccepted{Connection: conn}); err != nil {
		return domain.Connection{}, err
	}
	return conn, nil
}

func (s *ConnectionService) Reject(ctx context.Context, id uuid.UUID, acting domain.Actor) (domain.Connection, error) {
	conn, err := s.connections.Transition(id, acting, domain.ConnectionRejected)
	if err != nil {
		return domain.Connection{}, err
	}
	if err := s.dispatcher.Emit(ctx, event.ConnectionRejected{Connection: conn}); err != nil {
		return domain.Connection{}, err
	}
	return conn, nil
}

// Remove deletes an accepted connection between the two actors.
// Idempotent: an absent record is a successful no-op. Already-open
// conversations are not revoked; only future sends re-check the graph.
func (s *ConnectionService) Remove(_ context.Context, acting, other domain.Actor) error {
	if err := other.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return s.connections.Remove(acting, other)
}

func (s *ConnectionService) List(_ context.Context, actor domain.Actor) (ConnectionList, error) {
	conns, err := s.connections.ListByActor(actor)
	if err != nil {
		return ConnectionList{}, err
	}
	return ConnectionList{
		Accepted: lo.Filter(conns, func(c domain.Connection, _ int) bool {
			return c.Status == domain.ConnectionAccepted
		}),
		PendingIncoming: lo.Filter(conns, func(c domain.Connection, _ int) bool {
			return c.Status == domain.ConnectionPending && c.Receiver == actor
		}),
		PendingOutgoing: lo.Filter(conns, func(c domain.Connection, _ int) bool {
			return c.Status == domain.ConnectionPending && c.Requester == actor
		}),
	}, nil
}
