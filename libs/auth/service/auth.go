package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the "role" claim of an access token
const (
	RoleStudent = 1
	RoleAdmin   = 2
)

const accessTokenType = "access"

// Identity is the caller identity extracted from a validated access token
type Identity struct {
	UserID int
	Role   int
}

// IsAdmin reports whether the identity carries the admin role
func (i Identity) IsAdmin() bool {
	return i.Role >= RoleAdmin
}

// accessClaims is the payload of an access token
type accessClaims struct {
	UserID int    `json:"user_id"`
	Role   int    `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenGenerator handles JWT access token generation and validation.
// Tokens are issued by the account service; this side mostly validates them.
type TokenGenerator struct {
	secret            string
	accessTokenExpiry time.Duration
	now               func() time.Time
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:            secret,
		accessTokenExpiry: accessExpiry,
		now:               time.Now,
	}
}

// GenerateAccessToken creates an access token with userID and role in payload
func (tg *TokenGenerator) GenerateAccessToken(userID int, role int) (string, error) {
	if tg.secret == "" {
		return "", errors.New("token secret is not configured")
	}

	now := tg.now()
	claims := accessClaims{
		UserID: userID,
		Role:   role,
		Type:   accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tg.accessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access token and returns the caller identity
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (Identity, error) {
	if tg.secret == "" {
		return Identity{}, errors.New("token secret is not configured")
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	}, jwt.WithTimeFunc(tg.now), jwt.WithExpirationRequired())

	if err != nil {
		return Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return Identity{}, errors.New("token is invalid")
	}

	if claims.Type != accessTokenType {
		return Identity{}, errors.New("token is not an access token")
	}

	if claims.UserID <= 0 {
		return Identity{}, errors.New("user_id not found in token")
	}

	if claims.Role < RoleStudent {
		return Identity{}, errors.New("role not found in token")
	}

	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}
