package postgres

import (
	"context"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository is the catalog table.
type ProductRepository struct {
	pool *pgxpool.Pool
}

const productColumns = `id, name, description, price, category, image, stock, rating`

// List returns the catalog ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, wrapError("product.list", err, nil)
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Product])
	if err != nil {
		return nil, wrapError("product.list", err, nil)
	}
	return products, nil
}

// Get loads one product.
func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, wrapError("product.get", err, nil)
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByPos[domain.Product])
	if err != nil {
		return nil, wrapError("product.get", err, domain.ErrProductNotFound)
	}
	return p, nil
}

// Save inserts a new product (ID zero) or replaces an existing one.
func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	if p.ID == 0 {
		err := r.pool.QueryRow(ctx, `
			INSERT INTO products (name, description, price, category, image, stock, rating)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			p.Name, p.Description, p.Price, p.Category, p.Image, p.Stock, p.Rating,
		).Scan(&p.ID)
		return wrapError("product.save", err, nil)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image = EXCLUDED.image,
			stock = EXCLUDED.stock,
			rating = EXCLUDED.rating`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Image, p.Stock, p.Rating,
	)
	return wrapError("product.save", err, nil)
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapError("product.delete", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Seed batch-inserts the products in one transaction when the table is empty
// and advances the id sequence past them.
func (r *ProductRepository) Seed(ctx context.Context, products []domain.Product) (bool, error) {
	seeded := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products)`).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}

		batch := &pgx.Batch{}
		for _, p := range products {
			batch.Queue(`INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				p.ID, p.Name, p.Description, p.Price, p.Category, p.Image, p.Stock, p.Rating)
		}
		batch.Queue(`SELECT setval(pg_get_serial_sequence('products', 'id'), GREATEST((SELECT MAX(id) FROM products), 1))`)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, wrapError("product.seed", err, nil)
	}
	return seeded, nil
}
