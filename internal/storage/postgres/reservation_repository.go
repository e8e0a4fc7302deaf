package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

type reservationRepository struct {
	db *sql.DB
}

// NewReservationRepository создаёт PostgreSQL-реализацию ReservationRepository.
func NewReservationRepository(store *Store) domain.ReservationRepository {
	return &reservationRepository{db: store.DB()}
}

// Reserve проверяет остаток под блокировкой строки, уменьшает его и вставляет
// резерв с журнальной записью одной транзакцией. Возвращает остаток после списания.
func (r *reservationRepository) Reserve(res domain.Reservation, entry domain.LedgerEntry) (int32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var stock int32
	err = tx.QueryRowContext(ctx, `
		SELECT stock FROM products WHERE id = $1 FOR UPDATE
	`, res.ProductID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrProductNotFound
			return 0, err
		}
		return 0, fmt.Errorf("lock product: %w", err)
	}

	if res.Qty > stock {
		err = domain.ErrInsufficientStock
		return 0, err
	}

	var remaining int32
	err = tx.QueryRowContext(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = $3 WHERE id = $1
		RETURNING stock
	`, res.ProductID, res.Qty, time.Now().UTC()).Scan(&remaining)
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (
			id, product_id, owner_id, qty, expires_at, created_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		res.ID, res.ProductID, res.Owner, res.Qty, res.ExpiresAt, res.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrConstraintViolation
		}
		return 0, fmt.Errorf("insert reservation: %w", err)
	}

	if err = insertLedgerEntry(ctx, tx, entry); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reserve: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	return remaining, nil
}

// Release удаляет самый старый резерв с ключом (productID, owner, qty),
// возвращает остаток и вставляет журнальную запись одной транзакцией.
func (r *reservationRepository) Release(productID, owner string, qty int32, entry domain.LedgerEntry) (domain.Reservation, int32, error) {
	return r.release(`
		SELECT id, product_id, owner_id, qty, expires_at, created_at
		FROM reservations
		WHERE product_id = $1 AND owner_id = $2 AND qty = $3
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE
	`, []any{productID, owner, qty}, entry)
}

// ReleaseByID удаляет ровно названный резерв, возвращает остаток и вставляет
// журнальную запись одной транзакцией. Соседние удержания с тем же ключом
// (productID, owner, qty) не затрагиваются.
func (r *reservationRepository) ReleaseByID(id string, entry domain.LedgerEntry) (domain.Reservation, int32, error) {
	return r.release(`
		SELECT id, product_id, owner_id, qty, expires_at, created_at
		FROM reservations
		WHERE id = $1
		FOR UPDATE
	`, []any{id}, entry)
}

func (r *reservationRepository) release(selectQuery string, args []any, entry domain.LedgerEntry) (domain.Reservation, int32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Reservation{}, 0, fmt.Errorf("begin tx: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res domain.Reservation
	err = tx.QueryRowContext(ctx, selectQuery, args...).Scan(
		&res.ID, &res.ProductID, &res.Owner, &res.Qty, &res.ExpiresAt, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrReservationNotFound
			return domain.Reservation{}, 0, err
		}
		return domain.Reservation{}, 0, fmt.Errorf("lock reservation: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, res.ID); err != nil {
		return domain.Reservation{}, 0, fmt.Errorf("delete reservation: %w", err)
	}

	var remaining int32
	err = tx.QueryRowContext(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = $3 WHERE id = $1
		RETURNING stock
	`, res.ProductID, res.Qty, time.Now().UTC()).Scan(&remaining)
	if err != nil {
		return domain.Reservation{}, 0, fmt.Errorf("increment stock: %w", err)
	}

	entry.ProductID = res.ProductID
	entry.Delta = res.Qty
	entry.RefID = res.ID
	if err = insertLedgerEntry(ctx, tx, entry); err != nil {
		return domain.Reservation{}, 0, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Reservation{}, 0, fmt.Errorf("commit release: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	return res, remaining, nil
}

func (r *reservationRepository) ListExpired(before time.Time, limit int) ([]domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, product_id, owner_id, qty, expires_at, created_at
		FROM reservations
		WHERE expires_at <= $1
		ORDER BY expires_at, id
	`
	args := []any{before}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select expired reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID, &res.ProductID, &res.Owner, &res.Qty, &res.ExpiresAt, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}

	return reservations, nil
}

var _ domain.ReservationRepository = (*reservationRepository)(nil)
