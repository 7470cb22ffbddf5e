package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, line_items, total_price, status, delivery_time,
	contact_name, phone_number, address, latitude, longitude, created_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var (
		o            models.Order
		lineItems    []byte
		deliveryTime pgtype.Timestamptz
	)
	err := row.Scan(&o.ID, &o.UserID, &lineItems, &o.TotalPrice, &o.Status, &deliveryTime,
		&o.Contact.Name, &o.Contact.PhoneNumber, &o.Contact.Address,
		&o.Contact.Latitude, &o.Contact.Longitude, &o.CreatedAt)
	if err != nil {
		return models.Order{}, err
	}
	if err := json.Unmarshal(lineItems, &o.LineItems); err != nil {
		return models.Order{}, fmt.Errorf("decode line items of order %d: %w", o.ID, err)
	}
	if deliveryTime.Valid {
		o.DeliveryTime = timePtr(deliveryTime.Time)
	}
	return o, nil
}

func (q *Queries) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	lineItems, err := json.Marshal(order.LineItems)
	if err != nil {
		return models.Order{}, fmt.Errorf("encode line items: %w", err)
	}
	return scanOrder(q.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, line_items, total_price, status,
			contact_name, phone_number, address, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+orderColumns,
		order.UserID, lineItems, order.TotalPrice, order.Status,
		order.Contact.Name, order.Contact.PhoneNumber, order.Contact.Address,
		order.Contact.Latitude, order.Contact.Longitude))
}

func (q *Queries) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return models.Order{}, notFound(err, "order %d", id)
	}
	return o, nil
}

// LockOrder holds the order row until the transaction ends.
func (q *Queries) LockOrder(ctx context.Context, id int64) (models.Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return models.Order{}, notFound(err, "order %d", id)
	}
	return o, nil
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, id int64, status string, deliveryTime *time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE orders SET status = $2, delivery_time = COALESCE($3, delivery_time)
		WHERE id = $1`, id, status, deliveryTime)
	if err != nil {
		return err
	}
	return expectAffected(tag, "order %d", id)
}

func (q *Queries) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(tag, "order %d", id)
}

func (q *Queries) ListOrders(ctx context.Context) ([]models.Order, error) {
	return q.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

func (q *Queries) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return q.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (q *Queries) listOrders(ctx context.Context, sql string, args ...interface{}) ([]models.Order, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
