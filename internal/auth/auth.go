package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/knoott/partners-api/internal/orders"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	UserID     string      `json:"user_id"`
	BusinessID string      `json:"business_id,omitempty"`
	Role       orders.Role `json:"role"`
}

// Signer issues and validates HS256 actor tokens.
type Signer struct {
	Secret []byte
	TTL    time.Duration
}

func NewSigner(secret string) *Signer {
	return &Signer{Secret: []byte(secret), TTL: 24 * time.Hour}
}

func (s *Signer) Build(actor orders.Actor) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:     actor.UserID,
		BusinessID: actor.BusinessID,
		Role:       actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.Secret)
}

func (s *Signer) Validate(tokenString string) (orders.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.Secret, nil
		})
	if err != nil {
		return orders.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return orders.Actor{}, ErrInvalidToken
	}
	// the system role is reserved for the webhook secret path
	switch claims.Role {
	case orders.RoleBusiness, orders.RoleCustomer:
	default:
		return orders.Actor{}, fmt.Errorf("%w: role %q", ErrInvalidToken, claims.Role)
	}
	if claims.Role == orders.RoleBusiness && claims.BusinessID == "" {
		return orders.Actor{}, fmt.Errorf("%w: business token without business_id", ErrInvalidToken)
	}
	return orders.Actor{UserID: claims.UserID, BusinessID: claims.BusinessID, Role: claims.Role}, nil
}
