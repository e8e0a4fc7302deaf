package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

type ledgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository создаёт PostgreSQL-реализацию LedgerRepository.
func NewLedgerRepository(store *Store) domain.LedgerRepository {
	return &ledgerRepository{db: store.DB()}
}

func (r *ledgerRepository) List(limit int) ([]domain.LedgerEntry, error) {
	return r.list("", limit)
}

func (r *ledgerRepository) ListByProduct(productID string, limit int) ([]domain.LedgerEntry, error) {
	return r.list(productID, limit)
}

func (r *ledgerRepository) list(productID string, limit int) ([]domain.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, product_id, kind, delta, ref_id, notes, created_at
		FROM ledger_entries
	`
	args := []any{}
	if productID != "" {
		query += " WHERE product_id = $1"
		args = append(args, productID)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		var kind string
		if err := rows.Scan(
			&entry.ID, &entry.ProductID, &kind, &entry.Delta,
			&entry.RefID, &entry.Notes, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.Kind = domain.EntryKind(kind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	return entries, nil
}

// Balance суммирует дельты записей товара, исключая не влияющий на остаток
// вид sale.
func (r *ledgerRepository) Balance(productID string) (int32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var balance int32
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(delta), 0)
		FROM ledger_entries
		WHERE product_id = $1 AND kind <> $2
	`, productID, string(domain.EntryKindSale)).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum ledger deltas: %w", err)
	}

	return balance, nil
}

var _ domain.LedgerRepository = (*ledgerRepository)(nil)
