package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/arjunmalhotra1/shopline/internal/errors"
	"github.com/arjunmalhotra1/shopline/internal/models"
	repository "github.com/arjunmalhotra1/shopline/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, req *models.RefreshRequest) (*models.AuthResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userService struct {
	repo            repository.UserRepository
	sessionRepo     repository.SessionRepository
	jwtKey          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewUserService(repo repository.UserRepository, sessionRepo repository.SessionRepository, jwtKey []byte, accessTokenTTL, refreshTokenTTL time.Duration) UserService {
	return &userService{
		repo:            repo,
		sessionRepo:     sessionRepo,
		jwtKey:          jwtKey,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// Register creates the account together with its cart and logs the caller
// straight in.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.InternalError("Failed to secure password").WithError(err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: req.Username,
		Password: string(hashedPassword),
	}

	// the uniqueness constraint, not a pre-check, is the authority on
	// duplicate usernames
	if err := s.repo.CreateUserWithCart(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, apperrors.DuplicateEntryError("Username already taken").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to create user").WithError(err)
	}

	return s.establishSession(ctx, user)
}

// Login authenticates by username and password. The original storefront
// logged users in on username alone; that was a defect, not a contract, so
// the password is verified here.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {

	allowed, remaining, retryAfter, err := s.sessionRepo.CheckLoginRateLimit(ctx, req.Username)
	if err != nil {
		return nil, apperrors.InternalError("Rate limit check failed").WithError(err)
	}

	if !allowed {
		return &models.AuthResponse{
			Success:    false,
			Message:    "Too many login attempts. Please try again later.",
			RetryAfter: retryAfter,
		}, apperrors.TooManyRequestsError("Too many login attempts")
	}

	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NotFoundError("User not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to look up user").WithError(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return &models.AuthResponse{
			Success:        false,
			Message:        "Invalid username or password",
			RemainingTries: remaining,
		}, apperrors.UnauthorizedError("Invalid username or password")
	}

	return s.establishSession(ctx, user)
}

// Refresh exchanges a live refresh token for a fresh access token.
func (s *userService) Refresh(ctx context.Context, req *models.RefreshRequest) (*models.AuthResponse, error) {

	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(req.RefreshToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.BadRequestError("unexpected signing method")
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid || claims.TokenType != models.TokenTypeRefresh {
		return nil, apperrors.UnauthorizedError("Invalid or expired refresh token")
	}

	live, err := s.sessionRepo.RefreshSessionExists(ctx, claims.UserID, claims.ID)
	if err != nil {
		return nil, apperrors.InternalError("Session lookup failed").WithError(err)
	}

	if !live {
		return nil, apperrors.UnauthorizedError("Session has been revoked")
	}

	accessToken, expiresIn, err := s.signToken(claims.UserID, claims.Username, models.TokenTypeAccess, s.accessTokenTTL, uuid.NewString())
	if err != nil {
		return nil, apperrors.InternalError("Failed to generate authentication token").WithError(err)
	}

	return &models.AuthResponse{
		Success:     true,
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
	}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundError("User not found").WithError(err)
	}

	return user, nil

}

func (s *userService) establishSession(ctx context.Context, user *models.User) (*models.AuthResponse, error) {

	accessToken, expiresIn, err := s.signToken(user.ID, user.Username, models.TokenTypeAccess, s.accessTokenTTL, uuid.NewString())
	if err != nil {
		return nil, apperrors.InternalError("Failed to generate authentication token").WithError(err)
	}

	refreshID := uuid.NewString()

	refreshToken, _, err := s.signToken(user.ID, user.Username, models.TokenTypeRefresh, s.refreshTokenTTL, refreshID)
	if err != nil {
		return nil, apperrors.InternalError("Failed to generate refresh token").WithError(err)
	}

	if err := s.sessionRepo.SaveRefreshSession(ctx, user.ID, refreshID, s.refreshTokenTTL); err != nil {
		return nil, apperrors.InternalError("Failed to establish session").WithError(err)
	}

	return &models.AuthResponse{
		Success:      true,
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func (s *userService) signToken(userID uuid.UUID, username, tokenType string, ttl time.Duration, tokenID string) (string, int, error) {

	claims := &models.Claims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(time.Until(claims.ExpiresAt.Time).Seconds()), nil
}
