package postgres

import (
	"context"
	"database/sql"

	"petcare-booking/internal/domain/catalog"
)

type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

var _ catalog.Repository = (*CatalogRepo)(nil)

func (r *CatalogRepo) ListServices(ctx context.Context) ([]catalog.Service, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price FROM services ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.Service, 0)
	for rows.Next() {
		var s catalog.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Price); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) GetService(ctx context.Context, id string) (catalog.Service, error) {
	var s catalog.Service
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price FROM services WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Price)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.Service{}, catalog.ErrNotFound
		}
		return catalog.Service{}, err
	}
	return s, nil
}

func (r *CatalogRepo) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price, category_id FROM products ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.Product, 0)
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var p catalog.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, category_id FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.Product{}, catalog.ErrNotFound
		}
		return catalog.Product{}, err
	}
	return p, nil
}

func (r *CatalogRepo) FindCategoryByName(ctx context.Context, name string) (catalog.Category, error) {
	var c catalog.Category
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name FROM product_categories WHERE LOWER(name) = LOWER($1)
	`, name).Scan(&c.ID, &c.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.Category{}, catalog.ErrNotFound
		}
		return catalog.Category{}, err
	}
	return c, nil
}
