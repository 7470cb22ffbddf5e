package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/utils"
	"github.com/sirupsen/logrus"
)

type principalKey struct{}

type TokenParser interface {
	Parse(token string) (int64, error)
}

type PrincipalResolver interface {
	Principal(ctx context.Context, userID int64) (models.Principal, error)
}

// AuthMiddleware resolves the bearer token into the calling principal.
// Websocket upgrade requests may pass the token in the "token" query
// parameter instead, since browsers cannot set headers on them.
func AuthMiddleware(tokens TokenParser, users PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				logrus.WithField("path", r.URL.Path).Debug("Middleware: missing or invalid Authorization header")
				utils.WriteJSONError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
				return
			}

			userID, err := tokens.Parse(tokenString)
			if err != nil {
				logrus.WithError(err).Debug("Middleware: invalid token")
				utils.WriteJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			principal, err := users.Principal(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperrors.ErrUnauthorized) {
					logrus.WithField("user_id", userID).Info("Middleware: token of unknown user")
					utils.WriteJSONError(w, http.StatusUnauthorized, "Invalid token")
					return
				}
				logrus.WithError(err).WithField("user_id", userID).Error("Middleware: failed to resolve user")
				utils.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", false
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		return token, token != ""
	}
	if !isWebsocketUpgrade(r) {
		return "", false
	}
	token := r.URL.Query().Get("token")
	return token, token != ""
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// RequireAdmin lets only admin principals through. It must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r)
		if !ok {
			utils.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !p.IsAdmin {
			logrus.WithField("user_id", p.UserID).Info("Middleware: admin route denied")
			utils.WriteJSONError(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func GetPrincipal(r *http.Request) (models.Principal, bool) {
	p, ok := r.Context().Value(principalKey{}).(models.Principal)
	return p, ok
}

func GetUserID(r *http.Request) (int64, bool) {
	p, ok := GetPrincipal(r)
	if !ok {
		return 0, false
	}
	return p.UserID, true
}
