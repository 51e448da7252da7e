package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arjunmalhotra1/shopline/internal/api/handlers"
	apperrors "github.com/arjunmalhotra1/shopline/internal/errors"
	"github.com/arjunmalhotra1/shopline/internal/models"
	"github.com/arjunmalhotra1/shopline/internal/services/mocks"
	"github.com/arjunmalhotra1/shopline/internal/testutils"
	"github.com/arjunmalhotra1/shopline/internal/utils/response"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegisterHandler(t *testing.T) {

	t.Run("Success - Returns 201 With Tokens", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userID := uuid.New()
		userService.On("Register", mock.Anything, mock.MatchedBy(func(req *models.RegisterRequest) bool {
			return req.Username == "alice"
		})).Return(&models.AuthResponse{
			Success:     true,
			User:        &models.User{ID: userID, Username: "alice"},
			AccessToken: "access-token",
		}, nil).Once()

		body := bytes.NewBufferString(`{"username": "alice", "password": "hunter2"}`)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp response.APIResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		userService.AssertExpectations(t)
	})

	t.Run("Failure - Missing Password Is Rejected Before The Service", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		body := bytes.NewBufferString(`{"username": "alice"}`)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp response.APIResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, apperrors.ErrCodeValidation, resp.Error.Code)
		userService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Duplicate Username Returns 409", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("Register", mock.Anything, mock.Anything).
			Return(nil, apperrors.DuplicateEntryError("Username already taken")).Once()

		body := bytes.NewBufferString(`{"username": "alice", "password": "hunter2"}`)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rr.Code)

		var resp response.APIResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, apperrors.ErrCodeDuplicateEntry, resp.Error.Code)
		userService.AssertExpectations(t)
	})
}

func TestLoginHandler(t *testing.T) {

	t.Run("Success", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("Login", mock.Anything, mock.Anything).Return(&models.AuthResponse{
			Success:     true,
			AccessToken: "access-token",
		}, nil).Once()

		body := bytes.NewBufferString(`{"username": "alice", "password": "hunter2"}`)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		userService.AssertExpectations(t)
	})

	t.Run("Failure - Unknown User Returns 404", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("Login", mock.Anything, mock.Anything).
			Return(nil, apperrors.NotFoundError("User not found")).Once()

		body := bytes.NewBufferString(`{"username": "ghost", "password": "hunter2"}`)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rr.Code)
		userService.AssertExpectations(t)
	})

	t.Run("Failure - Rate Limited Returns 429 With Retry Hint", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("Login", mock.Anything, mock.Anything).Return(&models.AuthResponse{
			Success:    false,
			Message:    "Too many login attempts. Please try again later.",
			RetryAfter: 42,
		}, apperrors.TooManyRequestsError("Too many login attempts")).Once()

		body := bytes.NewBufferString(`{"username": "alice", "password": "hunter2"}`)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)

		var resp models.AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 42, resp.RetryAfter)
		userService.AssertExpectations(t)
	})
}

func TestProfileHandler(t *testing.T) {

	t.Run("Success - Uses The Authenticated User", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userID := uuid.New()
		userService.On("GetUserByID", mock.Anything, userID).
			Return(&models.User{ID: userID, Username: "alice"}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/users/profile", nil, userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Profile().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		userService.AssertExpectations(t)
	})

	t.Run("Failure - No Claims Returns 401", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/users/profile", nil, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Profile().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		userService.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})
}
