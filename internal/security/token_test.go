package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-marketplace-backend/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		token, err := tm.GenerateAccessToken(userID, "lee@example.com", domain.RoleLandlord)
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, domain.Principal{UserID: userID, Role: domain.RoleLandlord}, claims.Principal())
		assert.Equal(t, "lee@example.com", claims.Email)
	})

	t.Run("Unknown role rejected at issue", func(t *testing.T) {
		_, err := tm.GenerateAccessToken(userID, "", domain.Role("owner"))
		assert.Error(t, err)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("fedcba9876543210fedcba9876543210", time.Hour)
		token, err := other.GenerateAccessToken(userID, "", domain.RoleTenant)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		past := &tokenManager{secret: []byte(testSecret), ttl: time.Minute, now: func() time.Time {
			return time.Now().Add(-2 * time.Hour)
		}}
		token, err := past.GenerateAccessToken(userID, "", domain.RoleTenant)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Wrong token type", func(t *testing.T) {
		claims := UserClaims{
			UserID: userID,
			Role:   domain.RoleTenant,
			Type:   TokenType("refresh"),
			RegisteredClaims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{audience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
