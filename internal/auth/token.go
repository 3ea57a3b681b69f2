// Package auth resolves opaque bearer credentials into clinic identities.
// The booking core never inspects tokens itself; it only consumes the
// resolved identity for ownership checks.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Identity is a resolved principal.
type Identity struct {
	ID   uuid.UUID
	Role Role
}

var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and resolves HS256 identity tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (t *TokenService) Issue(identity Identity) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":  identity.ID.String(),
		"role": string(identity.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(t.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Resolve verifies a credential and returns the identity it carries. Every
// failure mode collapses to ErrInvalidToken; callers have no business
// distinguishing a bad signature from an expired claim.
func (t *TokenService) Resolve(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	switch Role(role) {
	case RolePatient, RoleDoctor, RoleAdmin:
	default:
		return Identity{}, ErrInvalidToken
	}

	return Identity{ID: id, Role: Role(role)}, nil
}
