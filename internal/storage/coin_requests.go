package storage

import (
	"context"
	"time"

	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const coinRequestColumns = `id, user_id, amount, proof_reference, created_at, reviewed, approved, reviewed_at, reviewer_id`

func scanCoinRequest(row pgx.Row) (models.CoinRequest, error) {
	var (
		req        models.CoinRequest
		approved   pgtype.Bool
		reviewedAt pgtype.Timestamptz
		reviewerID pgtype.Int8
	)
	err := row.Scan(&req.ID, &req.UserID, &req.Amount, &req.ProofReference, &req.CreatedAt,
		&req.Reviewed, &approved, &reviewedAt, &reviewerID)
	if err != nil {
		return models.CoinRequest{}, err
	}
	if approved.Valid {
		v := approved.Bool
		req.Approved = &v
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		req.ReviewedAt = &t
	}
	if reviewerID.Valid {
		id := reviewerID.Int64
		req.ReviewerID = &id
	}
	return req, nil
}

func (q *Queries) CreateCoinRequest(ctx context.Context, req models.CoinRequest) (models.CoinRequest, error) {
	return scanCoinRequest(q.db.QueryRow(ctx, `
		INSERT INTO coin_requests (user_id, amount, proof_reference)
		VALUES ($1, $2, $3)
		RETURNING `+coinRequestColumns,
		req.UserID, req.Amount, req.ProofReference))
}

func (q *Queries) GetCoinRequest(ctx context.Context, id int64) (models.CoinRequest, error) {
	req, err := scanCoinRequest(q.db.QueryRow(ctx,
		`SELECT `+coinRequestColumns+` FROM coin_requests WHERE id = $1`, id))
	if err != nil {
		return models.CoinRequest{}, notFound(err, "coin request %d", id)
	}
	return req, nil
}

// LockCoinRequest holds the row until the surrounding transaction ends, so two
// reviewers of the same request run their check-then-write one after another.
func (q *Queries) LockCoinRequest(ctx context.Context, id int64) (models.CoinRequest, error) {
	req, err := scanCoinRequest(q.db.QueryRow(ctx,
		`SELECT `+coinRequestColumns+` FROM coin_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return models.CoinRequest{}, notFound(err, "coin request %d", id)
	}
	return req, nil
}

func (q *Queries) SaveCoinRequestReview(ctx context.Context, req models.CoinRequest) error {
	reviewedAt := pgtype.Timestamptz{}
	if req.ReviewedAt != nil {
		reviewedAt = pgtype.Timestamptz{Time: req.ReviewedAt.UTC(), Valid: true}
	}
	tag, err := q.db.Exec(ctx, `
		UPDATE coin_requests
		SET reviewed = $2, approved = $3, reviewed_at = $4, reviewer_id = $5
		WHERE id = $1`,
		req.ID, req.Reviewed, req.Approved, reviewedAt, req.ReviewerID)
	if err != nil {
		return err
	}
	return expectAffected(tag, "coin request %d", req.ID)
}

func (q *Queries) ListCoinRequests(ctx context.Context) ([]models.CoinRequest, error) {
	return q.listCoinRequests(ctx,
		`SELECT `+coinRequestColumns+` FROM coin_requests ORDER BY created_at DESC, id DESC`)
}

func (q *Queries) ListCoinRequestsByUser(ctx context.Context, userID int64) ([]models.CoinRequest, error) {
	return q.listCoinRequests(ctx,
		`SELECT `+coinRequestColumns+` FROM coin_requests WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (q *Queries) listCoinRequests(ctx context.Context, sql string, args ...interface{}) ([]models.CoinRequest, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.CoinRequest{}
	for rows.Next() {
		req, err := scanCoinRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func timePtr(t time.Time) *time.Time {
	return &t
}
