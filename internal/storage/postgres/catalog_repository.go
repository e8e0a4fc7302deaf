package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository.
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepository{db: store.DB()}
}

// CreateProduct вставляет товар и запись initial_stock одной транзакцией.
func (r *catalogRepository) CreateProduct(product domain.Product, initial domain.LedgerEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (
			id, sku, name, description, price_minor, stock, category,
			low_stock_threshold, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		product.ID, product.SKU, product.Name, product.Description,
		product.PriceMinor, product.Stock, product.Category,
		product.LowStockThreshold, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConstraintViolation
		}
		return fmt.Errorf("insert product: %w", err)
	}

	if err = insertLedgerEntry(ctx, tx, initial); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create product: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	return nil
}

func (r *catalogRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return scanProduct(r.db.QueryRowContext(ctx, `
		SELECT id, sku, name, description, price_minor, stock, category,
			low_stock_threshold, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id))
}

func (r *catalogRepository) List() ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sku, name, description, price_minor, stock, category,
			low_stock_threshold, created_at, updated_at
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceMinor,
			&p.Stock, &p.Category, &p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// AdjustStock обновляет остаток под блокировкой строки и вставляет журнальную
// запись с вычисленной дельтой одной транзакцией.
func (r *catalogRepository) AdjustStock(productID string, newQty int32, entry domain.LedgerEntry) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("begin tx: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current int32
	err = tx.QueryRowContext(ctx, `
		SELECT stock FROM products WHERE id = $1 FOR UPDATE
	`, productID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrProductNotFound
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("lock product: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE products SET stock = $2, updated_at = $3 WHERE id = $1
	`, productID, newQty, now)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update stock: %w", err)
	}

	entry.ProductID = productID
	entry.Delta = newQty - current
	if err = insertLedgerEntry(ctx, tx, entry); err != nil {
		return domain.Product{}, err
	}

	var product domain.Product
	product, err = scanProduct(tx.QueryRowContext(ctx, `
		SELECT id, sku, name, description, price_minor, stock, category,
			low_stock_threshold, created_at, updated_at
		FROM products
		WHERE id = $1
	`, productID))
	if err != nil {
		return domain.Product{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Product{}, fmt.Errorf("commit adjust stock: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	return product, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceMinor,
		&p.Stock, &p.Category, &p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
