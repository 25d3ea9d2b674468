package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/user/cariin-go/apperror"
)

const productColumns = `id, name, price, sku, images, specs, availability,
	estimate, store_info, warranty, src, created_at, updated_at`

const createProductsTable = `
	CREATE TABLE IF NOT EXISTS products (
		id           SERIAL PRIMARY KEY,
		name         VARCHAR(500) NOT NULL,
		price        VARCHAR(50)  NOT NULL,
		sku          VARCHAR(100) NOT NULL,
		images       JSONB        NOT NULL DEFAULT '[]'::jsonb,
		specs        JSONB        NOT NULL DEFAULT '{}'::jsonb,
		availability VARCHAR(100) NOT NULL DEFAULT '',
		estimate     TEXT DEFAULT '',
		store_info   TEXT DEFAULT '',
		warranty     TEXT DEFAULT '',
		src          TEXT DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT products_sku_key UNIQUE (sku)
	)`

// Duplicate SKUs inside one payload collapse to the last occurrence.
const insertProduct = `
	INSERT INTO products (
		name, price, sku, images, specs, availability,
		estimate, store_info, warranty, src, created_at, updated_at
	) VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (sku) DO UPDATE SET
		name = EXCLUDED.name,
		price = EXCLUDED.price,
		images = EXCLUDED.images,
		specs = EXCLUDED.specs,
		availability = EXCLUDED.availability,
		estimate = EXCLUDED.estimate,
		store_info = EXCLUDED.store_info,
		warranty = EXCLUDED.warranty,
		src = EXCLUDED.src,
		updated_at = EXCLUDED.updated_at`

// CacheStats describes what the products table currently holds.
type CacheStats struct {
	Count      int64
	LastUpdate *time.Time // nil when the table is empty
}

// productRow is the database shape of a product. JSONB columns arrive as raw
// bytes and nullable text columns as sql.NullString.
type productRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Price        string         `db:"price"`
	SKU          string         `db:"sku"`
	Images       []byte         `db:"images"`
	Specs        []byte         `db:"specs"`
	Availability string         `db:"availability"`
	Estimate     sql.NullString `db:"estimate"`
	StoreInfo    sql.NullString `db:"store_info"`
	Warranty     sql.NullString `db:"warranty"`
	Src          sql.NullString `db:"src"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r productRow) toProduct() (Product, error) {
	images, err := decodeImages(r.Images)
	if err != nil {
		return Product{}, fmt.Errorf("product %d: %w", r.ID, err)
	}
	specs, err := decodeSpecs(r.Specs)
	if err != nil {
		return Product{}, fmt.Errorf("product %d: %w", r.ID, err)
	}
	createdAt, updatedAt := r.CreatedAt, r.UpdatedAt
	return Product{
		ID:           r.ID,
		Name:         r.Name,
		Price:        r.Price,
		SKU:          r.SKU,
		Images:       images,
		Specs:        specs,
		Availability: r.Availability,
		Estimate:     r.Estimate.String,
		StoreInfo:    r.StoreInfo.String,
		Warranty:     r.Warranty.String,
		Src:          r.Src.String,
		CreatedAt:    &createdAt,
		UpdatedAt:    &updatedAt,
	}, nil
}

// PGStore keeps the product cache in the PostgreSQL `products` table.
type PGStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPGStore creates a PGStore on top of an existing sqlx handle.
func NewPGStore(db *sqlx.DB) *PGStore {
	return &PGStore{db: db, now: time.Now}
}

// EnsureSchema creates the products table if it does not exist yet.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createProductsTable); err != nil {
		return apperror.NewStorageError("failed to create products table", err)
	}
	return nil
}

// Stats returns the row count and the most recent update timestamp.
func (s *PGStore) Stats(ctx context.Context) (CacheStats, error) {
	var row struct {
		Count      int64        `db:"count"`
		LastUpdate sql.NullTime `db:"last_update"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT COUNT(*) AS count, MAX(updated_at) AS last_update FROM products`)
	if err != nil {
		return CacheStats{}, apperror.NewStorageError("failed to read product cache stats", err)
	}

	stats := CacheStats{Count: row.Count}
	if row.LastUpdate.Valid {
		t := row.LastUpdate.Time
		stats.LastUpdate = &t
	}
	return stats, nil
}

// ReadAll returns every stored product, most recently updated first.
func (s *PGStore) ReadAll(ctx context.Context) ([]Product, error) {
	var rows []productRow
	query := `SELECT ` + productColumns + ` FROM products ORDER BY updated_at DESC, id ASC`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperror.NewStorageError("failed to fetch products from database", err)
	}

	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.toProduct()
		if err != nil {
			return nil, apperror.NewStorageError("failed to decode stored product", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// ReplaceAll deletes every stored product and inserts the given set, all in one
// transaction, stamping each row with the current time.
func (s *PGStore) ReplaceAll(ctx context.Context, products []Product) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.NewStorageError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return apperror.NewStorageError("failed to clear products", err)
	}

	now := s.now()
	for _, p := range products {
		images, encErr := encodeImages(p.Images)
		if encErr != nil {
			err = apperror.NewStorageError(fmt.Sprintf("failed to encode product %q", p.SKU), encErr)
			return err
		}
		specs, encErr := encodeSpecs(p.Specs)
		if encErr != nil {
			err = apperror.NewStorageError(fmt.Sprintf("failed to encode product %q", p.SKU), encErr)
			return err
		}

		_, err = tx.ExecContext(ctx, insertProduct,
			p.Name, p.Price, p.SKU, images, specs, p.Availability,
			p.Estimate, p.StoreInfo, p.Warranty, p.Src, now, now,
		)
		if err != nil {
			return apperror.NewStorageError(fmt.Sprintf("failed to insert product %q", p.SKU), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperror.NewStorageError("failed to commit products", err)
	}
	return nil
}

// GetByID returns the product with the given id, or nil if there is none.
func (s *PGStore) GetByID(ctx context.Context, id int64) (*Product, error) {
	return s.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetBySKU returns the product with the given SKU, or nil if there is none.
func (s *PGStore) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

func (s *PGStore) getOne(ctx context.Context, query string, arg interface{}) (*Product, error) {
	var row productRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.NewStorageError("failed to fetch product from database", err)
	}
	p, err := row.toProduct()
	if err != nil {
		return nil, apperror.NewStorageError("failed to decode stored product", err)
	}
	return &p, nil
}
