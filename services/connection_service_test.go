package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"linkgraph/domain"
	"linkgraph/errors"
)

func Test_Request_Validates_Actors(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}

	_, err := env.connections.Request(ctx, alice, alice)
	req.ErrorIs(err, errors.ErrValidation)

	_, err = env.connections.Request(ctx, alice, domain.Actor{Kind: "robot", ID: "r2"})
	req.ErrorIs(err, errors.ErrValidation)

	_, err = env.connections.Request(ctx, alice, domain.Actor{Kind: domain.KindPerson})
	req.ErrorIs(err, errors.ErrValidation)
}

func Test_Request_Notifies_Receiver(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}

	conn, err := env.connections.Request(ctx, alice, bob)
	req.NoError(err)

	notifications, err := env.notifRepo.List(bob, 10)
	req.NoError(err)
	req.Len(notifications, 1)
	req.Equal("connection_requested", notifications[0].Type)
	req.Equal(conn.ID.String(), notifications[0].RelatedID)
}

func Test_Accept_Notifies_Requester(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}

	conn, err := env.connections.Request(ctx, alice, bob)
	req.NoError(err)
	_, err = env.connections.Accept(ctx, conn.ID, bob)
	req.NoError(err)

	// The requester learns the outcome.
	notifications, err := env.notifRepo.List(alice, 10)
	req.NoError(err)
	req.Len(notifications, 1)
	req.Equal("connection_accepted", notifications[0].Type)
}

func Test_List_Splits_By_Status_And_Direction(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	alice := domain.Actor{Kind: domain.KindPerson, ID: "alice"}
	bob := domain.Actor{Kind: domain.KindPerson, ID: "bob"}
	carol := domain.Actor{Kind: domain.KindPerson, ID: "carol"}
	acme := domain.Actor{Kind: domain.KindOrganization, ID: "acme"}

	env.connect(t, alice, bob)

	_, err := env.connections.Request(ctx, alice, acme)
	req.NoError(err)
	_, err = env.connections.Request(ctx, carol, alice)
	req.NoError(err)

	list, err := env.connections.List(ctx, alice)
	req.NoError(err)
	req.Len(list.Accepted, 1)
	req.Len(list.PendingOutgoing, 1)
	req.Len(list.PendingIncoming, 1)
	req.Equal(acme, list.PendingOutgoing[0].Receiver)
	req.Equal(carol, list.PendingIncoming[0].Requester)
}
