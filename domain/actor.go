// Package domain contains core concepts of the social graph.
// This file defines Actor references and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"strings"
)

type ActorKind string

const (
	KindPerson       ActorKind = "person"
	KindOrganization ActorKind = "organization"
)

// Actor is a tagged reference to a participant of the graph.
// Persons and organizations share every code path; the kind only
// matters at the persistence and display boundaries.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   string    `json:"id"`
}

func (k ActorKind) Valid() bool {
	return k == KindPerson || k == KindOrganization
}

// Key is the storage and presence identity of an actor, e.g. "person:42".
func (a Actor) Key() string {
	return string(a.Kind) + ":" + a.ID
}

func (a Actor) IsZero() bool {
	return a.Kind == "" && a.ID == ""
}

func (a Actor) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("unknown actor kind %q", a.Kind)
	}
	if a.ID == "" {
		return fmt.Errorf("empty actor id")
	}
	return nil
}

// ParseActorKey is the inverse of Actor.Key.
func ParseActorKey(key string) (Actor, error) {
	kind, id, ok := strings.Cut(key, ":")
	if !ok {
		return Actor{}, fmt.Errorf("malformed actor key %q", key)
	}
	a := Actor{Kind: ActorKind(kind), ID: id}
	if err := a.Validate(); err != nil {
		return Actor{}, err
	}
	return a, nil
}

// PairKey identifies an unordered actor pair. Both orders of the same
// two actors resolve to the same key.
func PairKey(a, b Actor) string {
	ka, kb := a.Key(), b.Key()
	if ka > kb {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}
