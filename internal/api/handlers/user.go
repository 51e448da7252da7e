package handlers

import (
	"log/slog"
	"net/http"

	"github.com/arjunmalhotra1/shopline/internal/api/middleware"
	"github.com/arjunmalhotra1/shopline/internal/errors"
	"github.com/arjunmalhotra1/shopline/internal/models"
	service "github.com/arjunmalhotra1/shopline/internal/services"
	"github.com/arjunmalhotra1/shopline/internal/utils"
	"github.com/arjunmalhotra1/shopline/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService service.UserService
	validator   *validator.Validate
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService, validator: validator.New()}
}

func (h *UserHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.RegisterRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.userService.Register(r.Context(), &req)
		if err != nil {
			logger.Warn("User registration failed", slog.String("username", req.Username), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("User registered", slog.String("userId", resp.User.ID.String()))
		response.Success(w, http.StatusCreated, resp)

	}
}

func (h *UserHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.userService.Login(r.Context(), &req)
		if err != nil {
			logger.Warn("Login failed", slog.String("username", req.Username), slog.Any("error", err))

			// rate-limit and bad-password replies carry a body alongside
			// the error status
			if resp != nil {
				if appErr, ok := errors.IsAppError(err); ok {
					response.WriteJson(w, appErr.StatusCode, resp)
					return
				}
			}

			response.Error(w, err)
			return
		}

		logger.Info("User logged in", slog.String("username", req.Username))
		response.Success(w, http.StatusOK, resp)

	}
}

func (h *UserHandler) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.RefreshRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.userService.Refresh(r.Context(), &req)
		if err != nil {
			logger.Warn("Token refresh failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, resp)

	}
}

func (h *UserHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		resp, err := h.userService.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			logger.Warn("User not found", slog.String("userID", claims.UserID.String()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, resp)
	}
}
