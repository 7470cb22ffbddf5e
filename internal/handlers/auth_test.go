package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/handlers"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Register(ctx context.Context, in usecase.RegisterInput) (models.User, string, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.User), args.String(1), args.Error(2)
}

func (m *mockUserService) Authenticate(ctx context.Context, username, password string) (models.User, string, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(models.User), args.String(1), args.Error(2)
}

func (m *mockUserService) Me(ctx context.Context, p models.Principal) (models.User, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserService) List(ctx context.Context, p models.Principal) ([]models.User, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]models.User), args.Error(1)
}

func TestAuthHandlerRegister(t *testing.T) {
	users := new(mockUserService)
	handler := handlers.NewAuthHandler(users)

	t.Run("successful registration", func(t *testing.T) {
		users.On("Register", mock.Anything, usecase.RegisterInput{Username: "newuser", Password: "securepass", Email: "n@example.com"}).
			Return(models.User{ID: 5, Username: "newuser"}, "tok", nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/register",
			strings.NewReader(`{"username":"newuser","password":"securepass","email":"n@example.com"}`))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Bearer tok", w.Header().Get("Authorization"))
		assert.JSONEq(t, `{"id":5,"username":"newuser","access_token":"tok","token_type":"bearer","user_id":5}`, w.Body.String())
	})

	t.Run("weak password", func(t *testing.T) {
		users.On("Register", mock.Anything, mock.MatchedBy(func(in usecase.RegisterInput) bool { return in.Password == "123" })).
			Return(models.User{}, "", apperrors.Validation("password must be at least 6 characters long")).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"newuser","password":"123"}`))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "at least 6")
	})

	t.Run("duplicate user", func(t *testing.T) {
		users.On("Register", mock.Anything, mock.MatchedBy(func(in usecase.RegisterInput) bool { return in.Username == "exists" })).
			Return(models.User{}, "", apperrors.ErrAlreadyExists).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"exists","password":"securepass"}`))
		w := httptest.NewRecorder()
		handler.Register(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":`))
		w := httptest.NewRecorder()
		handler.Register(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	users.AssertExpectations(t)
}

func TestAuthHandlerToken(t *testing.T) {
	users := new(mockUserService)
	handler := handlers.NewAuthHandler(users)

	users.On("Authenticate", mock.Anything, "alice", "secret1").Return(models.User{ID: 7, Username: "alice"}, "tok", nil)
	users.On("Authenticate", mock.Anything, "alice", "wrong").Return(models.User{}, "", apperrors.ErrUnauthorized)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"json credentials", "application/json", `{"username":"alice","password":"secret1"}`, http.StatusOK},
		{"form credentials", "application/x-www-form-urlencoded", url.Values{"username": {"alice"}, "password": {"secret1"}}.Encode(), http.StatusOK},
		{"wrong password", "application/json", `{"username":"alice","password":"wrong"}`, http.StatusUnauthorized},
		{"missing password", "application/json", `{"username":"alice"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			handler.Token(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"access_token":"tok","token_type":"bearer","user_id":7}`, w.Body.String())
				assert.Equal(t, "Bearer tok", w.Header().Get("Authorization"))
			}
		})
	}
}

func TestAuthHandlerMe(t *testing.T) {
	users := new(mockUserService)
	handler := handlers.NewAuthHandler(users)
	p := models.Principal{UserID: 3, Username: "alice"}
	users.On("Me", mock.Anything, p).Return(models.User{ID: 3, Username: "alice", Coins: 40}, nil)

	t.Run("authenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Me(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/auth/me", nil), p))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"coins":40`)
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("no principal", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
