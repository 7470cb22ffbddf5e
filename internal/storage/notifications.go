package storage

import (
	"context"

	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, user_id, title, message, read, created_at`

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Read, &n.CreatedAt)
	return n, err
}

func (q *Queries) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	return scanNotification(q.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, message)
		VALUES ($1, $2, $3)
		RETURNING `+notificationColumns, n.UserID, n.Title, n.Message))
}

func (q *Queries) GetNotification(ctx context.Context, id int64) (models.Notification, error) {
	n, err := scanNotification(q.db.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return models.Notification{}, notFound(err, "notification %d", id)
	}
	return n, nil
}

func (q *Queries) ListNotificationsByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (q *Queries) MarkNotificationRead(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(tag, "notification %d", id)
}
