package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"linkgraph/domain"
)

// ActorClaims is what the identity collaborator puts inside its tokens.
// This service only verifies; issuance lives elsewhere. GenerateToken
// exists for tests and local development.
type ActorClaims struct {
	ActorID   string `json:"actor_id"`
	ActorKind string `json:"actor_kind"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) Verifier {
	return Verifier{secret: []byte(secret)}
}

// Verify parses and validates the signature and expiration of a token,
// returning the authenticated actor.
func (v Verifier) Verify(tokenString string) (domain.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return domain.Actor{}, err
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return domain.Actor{}, jwt.ErrSignatureInvalid
	}

	actor := domain.Actor{Kind: domain.ActorKind(claims.ActorKind), ID: claims.ActorID}
	if err := actor.Validate(); err != nil {
		return domain.Actor{}, fmt.Errorf("token carries no valid actor: %w", err)
	}
	return actor, nil
}

// GenerateToken creates a signed token for an actor, HS256 like the
// identity layer issues.
func (v Verifier) GenerateToken(actor domain.Actor, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := &ActorClaims{
		ActorID:   actor.ID,
		ActorKind: string(actor.Kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "linkgraph",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
