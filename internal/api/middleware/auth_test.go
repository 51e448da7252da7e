package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arjunmalhotra1/shopline/internal/api/middleware"
	"github.com/arjunmalhotra1/shopline/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWTKey = []byte("test-signing-key")

func signToken(t *testing.T, tokenType string, ttl time.Duration, key []byte) (string, uuid.UUID) {
	t.Helper()

	userID := uuid.New()

	claims := &models.Claims{
		UserID:    userID,
		Username:  "alice",
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)

	return signed, userID
}

func TestAuthenticate(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(testJWTKey)

	var gotClaims *models.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = middleware.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Success - Valid Access Token", func(t *testing.T) {
		// Arrange
		gotClaims = nil
		token, userID := signToken(t, models.TokenTypeAccess, 15*time.Minute, testJWTKey)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, userID, gotClaims.UserID)
	})

	t.Run("Failure - Missing Header", func(t *testing.T) {
		// Arrange
		gotClaims = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		rr := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, gotClaims)
	})

	t.Run("Failure - Malformed Header", func(t *testing.T) {
		// Arrange
		gotClaims = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rr := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, gotClaims)
	})

	t.Run("Failure - Wrong Signing Key", func(t *testing.T) {
		// Arrange
		gotClaims = nil
		token, _ := signToken(t, models.TokenTypeAccess, 15*time.Minute, []byte("some-other-key"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, gotClaims)
	})

	t.Run("Failure - Refresh Token Rejected At The Gate", func(t *testing.T) {
		// Arrange
		gotClaims = nil
		token, _ := signToken(t, models.TokenTypeRefresh, 168*time.Hour, testJWTKey)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, gotClaims)
	})

	t.Run("Failure - Expired Token", func(t *testing.T) {
		// Arrange
		gotClaims = nil
		token, _ := signToken(t, models.TokenTypeAccess, -time.Minute, testJWTKey)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, gotClaims)
	})
}
