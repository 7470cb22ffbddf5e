package storage

import (
	"context"
	"fmt"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, store_id, title, description, price, image_path, created_at`

func (q *Queries) CreateStore(ctx context.Context, store models.Store) (models.Store, error) {
	err := q.db.QueryRow(ctx, `
		INSERT INTO stores (name, address, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		store.Name, store.Address, store.Latitude, store.Longitude,
	).Scan(&store.ID, &store.CreatedAt)
	if err != nil {
		return models.Store{}, err
	}
	return store, nil
}

func scanStore(row pgx.Row) (models.Store, error) {
	var s models.Store
	err := row.Scan(&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.CreatedAt)
	return s, err
}

func (q *Queries) GetStore(ctx context.Context, id int64) (models.Store, error) {
	s, err := scanStore(q.db.QueryRow(ctx,
		`SELECT id, name, address, latitude, longitude, created_at FROM stores WHERE id = $1`, id))
	if err != nil {
		return models.Store{}, notFound(err, "store %d", id)
	}
	return s, nil
}

func (q *Queries) ListStores(ctx context.Context) ([]models.Store, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, address, latitude, longitude, created_at FROM stores ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := []models.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (q *Queries) DeleteStore(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("store %d still has products: %w", id, apperrors.ErrInvalidTransition)
		}
		return err
	}
	return expectAffected(tag, "store %d", id)
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.StoreID, &p.Title, &p.Description, &p.Price, &p.ImagePath, &p.CreatedAt)
	return p, err
}

func (q *Queries) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	err := q.db.QueryRow(ctx, `
		INSERT INTO products (store_id, title, description, price, image_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		product.StoreID, product.Title, product.Description, product.Price, product.ImagePath,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return models.Product{}, fmt.Errorf("store %d: %w", product.StoreID, apperrors.ErrNotFound)
		}
		return models.Product{}, err
	}
	return product, nil
}

func (q *Queries) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return models.Product{}, notFound(err, "product %d", id)
	}
	return p, nil
}

func (q *Queries) ListProducts(ctx context.Context, storeID *int64) ([]models.Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE $1::bigint IS NULL OR store_id = $1
		ORDER BY id`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (q *Queries) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(tag, "product %d", id)
}

func (q *Queries) ListFileReferences(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `
		SELECT proof_reference FROM coin_requests
		UNION
		SELECT image_path FROM products WHERE image_path <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
