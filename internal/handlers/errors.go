package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/middleware"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func statusFor(err error) (int, string) {
	var validation *apperrors.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Reason
	case errors.Is(err, apperrors.ErrProductNotFound):
		return http.StatusBadRequest, strings.TrimSuffix(err.Error(), ": "+apperrors.ErrValidation.Error())
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	entry := logrus.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Info("Request rejected")
	}
	utils.WriteJSONError(w, status, message)
}

func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		logrus.WithField("path", r.URL.Path).Warn("Unauthorized: missing principal in context")
		utils.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return p, ok
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid %s %q", name, raw)
	}
	return id, nil
}

func decode(r *http.Request, v interface{}) error {
	if err := utils.DecodeJSON(r, v); err != nil {
		return apperrors.Validation("invalid request body: %v", err)
	}
	return nil
}
