package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/validation"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

type RegisterInput struct {
	Username    string
	Password    string
	FullName    string
	Email       string
	PhoneNumber string
}

type UserUseCase struct {
	storage   models.UserStorage
	tokens    TokenIssuer
	passwords validation.PasswordValidator
}

func NewUserUseCase(storage models.UserStorage, tokens TokenIssuer, passwords validation.PasswordValidator) *UserUseCase {
	return &UserUseCase{storage: storage, tokens: tokens, passwords: passwords}
}

// Register creates a regular account with zero coins and returns it with a
// fresh access token.
func (uc *UserUseCase) Register(ctx context.Context, in RegisterInput) (models.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return models.User{}, "", apperrors.Validation("username and password are required")
	}
	if !uc.passwords.ValidatePassword(in.Password) {
		return models.User{}, "", apperrors.Validation("password is too short")
	}

	user, err := uc.createUser(ctx, models.User{
		Username:    in.Username,
		FullName:    in.FullName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
	}, in.Password)
	if err != nil {
		return models.User{}, "", err
	}

	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	logrus.WithField("user_id", user.ID).Info("User registered")
	return user, token, nil
}

func (uc *UserUseCase) createUser(ctx context.Context, user models.User, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	id, err := uc.storage.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return models.User{}, fmt.Errorf("username %q is taken: %w", user.Username, apperrors.ErrAlreadyExists)
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return uc.storage.GetUserByID(ctx, id)
}

// Authenticate checks credentials and returns the user with a fresh access
// token. Unknown users and wrong passwords fail the same way.
func (uc *UserUseCase) Authenticate(ctx context.Context, username, password string) (models.User, string, error) {
	user, err := uc.storage.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.User{}, "", fmt.Errorf("invalid username or password: %w", apperrors.ErrUnauthorized)
		}
		return models.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, "", fmt.Errorf("invalid username or password: %w", apperrors.ErrUnauthorized)
	}
	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Principal resolves an authenticated user id into the caller identity.
func (uc *UserUseCase) Principal(ctx context.Context, userID int64) (models.Principal, error) {
	user, err := uc.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.Principal{}, fmt.Errorf("user %d no longer exists: %w", userID, apperrors.ErrUnauthorized)
		}
		return models.Principal{}, err
	}
	return models.Principal{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}, nil
}

func (uc *UserUseCase) Me(ctx context.Context, p models.Principal) (models.User, error) {
	return uc.storage.GetUserByID(ctx, p.UserID)
}

func (uc *UserUseCase) List(ctx context.Context, p models.Principal) ([]models.User, error) {
	if err := requireAdmin(p, "listing users"); err != nil {
		return nil, err
	}
	return uc.storage.ListUsers(ctx)
}

// EnsureAdmin makes sure an admin account named username exists, creating it
// with password when missing and promoting it otherwise.
func (uc *UserUseCase) EnsureAdmin(ctx context.Context, username, password string) (models.User, error) {
	user, err := uc.storage.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if !user.IsAdmin {
			if err := uc.storage.SetAdmin(ctx, user.ID, true); err != nil {
				return models.User{}, fmt.Errorf("failed to promote %q: %w", username, err)
			}
			user.IsAdmin = true
			logrus.WithField("user_id", user.ID).Info("Existing user promoted to admin")
		}
		return user, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return models.User{}, err
	}

	if password == "" {
		return models.User{}, apperrors.Validation("admin %q does not exist and no password was given", username)
	}
	user, err = uc.createUser(ctx, models.User{Username: username, IsAdmin: true}, password)
	if err != nil {
		return models.User{}, err
	}
	logrus.WithField("user_id", user.ID).Info("Admin account created")
	return user, nil
}

// ResolveOperator returns the id of the account that receives order payments.
func (uc *UserUseCase) ResolveOperator(ctx context.Context, username string) (int64, error) {
	user, err := uc.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("operator account %q: %w", username, err)
	}
	return user.ID, nil
}
