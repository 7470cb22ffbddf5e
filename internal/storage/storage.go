package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	_ models.LedgerTx             = (*Queries)(nil)
	_ models.LedgerStorage        = (*Storage)(nil)
	_ models.UserStorage          = (*Storage)(nil)
	_ models.CoinRequestStorage   = (*Storage)(nil)
	_ models.OrderStorage         = (*Storage)(nil)
	_ models.CatalogStorage       = (*Storage)(nil)
	_ models.CartStorage          = (*Storage)(nil)
	_ models.NotificationStorage  = (*Storage)(nil)
	_ models.FileReferenceStorage = (*Storage)(nil)
)

type Storage struct {
	*Queries
	db *pgxpool.Pool
}

func NewStorage(db *pgxpool.Pool) (*Storage, error) {
	if db == nil {
		return nil, errors.New("database pool is nil")
	}
	return &Storage{Queries: New(db), db: db}, nil
}

// InTx runs fn inside a single database transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context, tx models.LedgerTx) error) error {
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, s.Queries.WithTx(tx))
	})
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperrors.ErrNotFound)
	}
	return err
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func expectAffected(tag pgconn.CommandTag, format string, args ...interface{}) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperrors.ErrNotFound)
	}
	return nil
}
