package utils

import (
	"testing"
	"time"

	"sfu-globe/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *TokenManager {
	return NewTokenManager(config.JWTConfig{Secret: "test-secret", Expiration: time.Hour})
}

func TestGenerateToken(t *testing.T) {
	token, err := newTestManager().GenerateToken(uuid.New())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestParseToken(t *testing.T) {
	m := newTestManager()

	tests := []struct {
		name   string
		userID uuid.UUID
	}{
		{name: "Valid token", userID: uuid.New()},
		{name: "Another valid token", userID: uuid.New()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := m.GenerateToken(tt.userID)
			require.NoError(t, err)

			claims, err := m.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.userID.String(), claims.Subject)
		})
	}
}

func TestParseInvalidToken(t *testing.T) {
	m := newTestManager()

	tests := []struct {
		name  string
		token string
	}{
		{name: "Empty token", token: ""},
		{name: "Malformed token", token: "invalid.token.string"},
		{name: "Wrong secret", token: func() string {
			other := NewTokenManager(config.JWTConfig{Secret: "other-secret", Expiration: time.Hour})
			tok, _ := other.GenerateToken(uuid.New())
			return tok
		}()},
		{name: "Expired token", token: func() string {
			claims := Claims{
				UserID: uuid.New(),
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				},
			}
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
			return tok
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ParseToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
