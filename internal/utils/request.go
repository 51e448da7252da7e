package utils

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/arjunmalhotra1/shopline/internal/errors"
	"github.com/arjunmalhotra1/shopline/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	if err := DecodeJSONBody(r, dest); err != nil {
		slog.Warn("Invalid request", slog.String("error", err.Error()))
		response.Error(w, errors.BadRequestError("Invalid request payload").WithError(err))
		return false
	}

	if err := ValidateStruct(validate, dest); err != nil {
		slog.Warn("Validation failed", slog.String("error", err.Error()))
		response.Error(w, errors.ValidationError("Validation failed").WithDetail(err.Error()))
		return false
	}

	return true

}

// QueryInt reads an integer query parameter, falling back to def when the
// parameter is missing or malformed.
func QueryInt(r *http.Request, key string, def int) int {

	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}

	return value
}
