package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalog/internal/models"

	"github.com/jmoiron/sqlx"
)

const productSchema = `
CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name VARCHAR(100) NOT NULL,
  price DECIMAL(10,2) NOT NULL CHECK (price > 0),
  description TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);
`

const productColumns = `id, name, price, description, created_at, updated_at`

// SQLXProductRepository stores products through database/sql with hand written SQL.
// It targets the pure-Go modernc sqlite driver.
type SQLXProductRepository struct {
	db *sqlx.DB
}

// NewSQLXProductRepository creates a new instance of SQLXProductRepository.
func NewSQLXProductRepository(db *sqlx.DB) *SQLXProductRepository {
	return &SQLXProductRepository{db: db}
}

// EnsureSchema creates the products table when missing.
func (r *SQLXProductRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, productSchema); err != nil {
		return fmt.Errorf("failed to create products schema: %w", err)
	}
	return nil
}

// GetAll retrieves all products.
func (r *SQLXProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY `+newestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *SQLXProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.GetContext(ctx, &product, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Search returns products whose name or description contains query, ignoring case.
func (r *SQLXProductRepository) Search(ctx context.Context, query string) ([]models.Product, error) {
	pattern := containsPattern(query)
	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, `
  SELECT `+productColumns+`
  FROM products
  WHERE LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'
  ORDER BY `+newestFirst, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search products for %q: %w", query, err)
	}
	return products, nil
}

// Create inserts a product and assigns its ID and timestamps.
func (r *SQLXProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products(name, price, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		product.Name, product.Price, product.Description, now, now)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new product ID: %w", err)
	}
	product.ID = uint(id)
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

// Update overwrites the mutable columns of an existing product.
func (r *SQLXProductRepository) Update(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, price = ?, description = ?, updated_at = ? WHERE id = ?`,
		product.Name, product.Price, product.Description, now, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product with ID %d: %w", product.ID, ErrProductNotFound)
	}
	product.UpdatedAt = now
	return nil
}

// Delete removes a product by its ID.
func (r *SQLXProductRepository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
	}
	return nil
}

// Ping checks the connection.
func (r *SQLXProductRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
