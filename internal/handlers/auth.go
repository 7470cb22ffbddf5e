package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/usecase"
	"github.com/AlenaMolokova/bazario/internal/utils"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	users UserService
}

func NewAuthHandler(users UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
}

type registerResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	tokenResponse
}

func newTokenResponse(userID int64, token string) tokenResponse {
	return tokenResponse{AccessToken: token, TokenType: "bearer", UserID: userID}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		FullName    string `json:"full_name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	logrus.WithField("username", req.Username).Info("Register request")

	user, token, err := h.users.Register(r.Context(), usecase.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	utils.WriteJSON(w, http.StatusCreated, registerResponse{
		ID:            user.ID,
		Username:      user.Username,
		tokenResponse: newTokenResponse(user.ID, token),
	})
	logrus.WithFields(logrus.Fields{"username": user.Username, "user_id": user.ID}).Info("User registered")
}

// Token exchanges credentials for an access token. The body may be JSON or
// an urlencoded form with username and password fields.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	default:
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, r, apperrors.Validation("username and password are required"))
		return
	}

	user, token, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	utils.WriteJSON(w, http.StatusOK, newTokenResponse(user.ID, token))
	logrus.WithFields(logrus.Fields{"username": user.Username, "user_id": user.ID}).Info("User logged in")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := h.users.Me(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	users, err := h.users.List(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, users)
}
