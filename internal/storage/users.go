package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, full_name, email, phone_number, password_hash, is_admin, coins, created_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.PhoneNumber,
		&u.PasswordHash, &u.IsAdmin, &u.Coins, &u.CreatedAt)
	return u, err
}

func (q *Queries) CreateUser(ctx context.Context, user models.User) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO users (username, full_name, email, phone_number, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		user.Username, user.FullName, user.Email, user.PhoneNumber, user.PasswordHash, user.IsAdmin,
	).Scan(&id)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return 0, fmt.Errorf("username %q: %w", user.Username, apperrors.ErrAlreadyExists)
		}
		return 0, err
	}
	return id, nil
}

func (q *Queries) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return models.User{}, notFound(err, "user %d", id)
	}
	return u, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return q.GetUser(ctx, id)
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return models.User{}, notFound(err, "user %q", username)
	}
	return u, nil
}

func (q *Queries) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := q.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q *Queries) ListAdminIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.Query(ctx, `SELECT id FROM users WHERE is_admin ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (q *Queries) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	tag, err := q.db.Exec(ctx, `UPDATE users SET is_admin = $2 WHERE id = $1`, id, isAdmin)
	if err != nil {
		return err
	}
	return expectAffected(tag, "user %d", id)
}

// AddCoins is a single conditional UPDATE, so concurrent credits and debits on
// one user serialize on the row lock and none of them is lost.
func (q *Queries) AddCoins(ctx context.Context, userID, delta int64) (int64, error) {
	var balance int64
	err := q.db.QueryRow(ctx, `
		UPDATE users SET coins = coins + $2
		WHERE id = $1 AND coins + $2 >= 0
		RETURNING coins`, userID, delta).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	var exists bool
	if err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	return 0, fmt.Errorf("user %d cannot cover %d coins: %w", userID, -delta, apperrors.ErrInsufficientBalance)
}
