package repository_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/arjunmalhotra1/shopline/internal/config"
	repository "github.com/arjunmalhotra1/shopline/internal/repositories"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionRepoTest(t *testing.T) (repository.SessionRepository, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()

	cfg := &config.Config{}
	cfg.RateConfig.MaxAttempts = 5
	cfg.RateConfig.WindowSize = time.Minute

	repo := repository.NewSessionRepo(client, cfg)
	require.NotNil(t, repo, "NewSessionRepo should return a non-nil repository")

	return repo, mock
}

func TestRefreshSessions(t *testing.T) {
	repo, mock := setupSessionRepoTest(t)
	ctx := t.Context()
	userID := uuid.New()
	tokenID := uuid.NewString()
	key := fmt.Sprintf("refresh_session:%s:%s", userID, tokenID)

	t.Run("Save Then Exists", func(t *testing.T) {
		// Arrange
		mock.ExpectSet(key, 1, 168*time.Hour).SetVal("OK")
		mock.ExpectExists(key).SetVal(1)

		// Act
		err := repo.SaveRefreshSession(ctx, userID, tokenID, 168*time.Hour)
		require.NoError(t, err)

		exists, err := repo.RefreshSessionExists(ctx, userID, tokenID)

		// Assert
		require.NoError(t, err)
		assert.True(t, exists)
		require.NoError(t, mock.ExpectationsWereMet(), "redis mock expectations were not met")
	})

	t.Run("Unknown Session Does Not Exist", func(t *testing.T) {
		// Arrange
		mock.ExpectExists(key).SetVal(0)

		// Act
		exists, err := repo.RefreshSessionExists(ctx, userID, tokenID)

		// Assert
		require.NoError(t, err)
		assert.False(t, exists)
		require.NoError(t, mock.ExpectationsWereMet(), "redis mock expectations were not met")
	})

	t.Run("Delete Revokes The Session", func(t *testing.T) {
		// Arrange
		mock.ExpectDel(key).SetVal(1)
		mock.ExpectExists(key).SetVal(0)

		// Act
		err := repo.DeleteRefreshSession(ctx, userID, tokenID)
		require.NoError(t, err)

		exists, err := repo.RefreshSessionExists(ctx, userID, tokenID)

		// Assert
		require.NoError(t, err)
		assert.False(t, exists)
		require.NoError(t, mock.ExpectationsWereMet(), "redis mock expectations were not met")
	})

	t.Run("Failure - Redis Unavailable", func(t *testing.T) {
		// Arrange
		mock.ExpectExists(key).SetErr(assert.AnError)

		// Act
		exists, err := repo.RefreshSessionExists(ctx, userID, tokenID)

		// Assert
		require.Error(t, err)
		assert.False(t, exists)
		require.NoError(t, mock.ExpectationsWereMet(), "redis mock expectations were not met")
	})
}
