package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taxsuite/tax-filing-backend/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id VARCHAR(64) PRIMARY KEY,
			owner_id VARCHAR(64) NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			method VARCHAR(32) NOT NULL,
			provider_ref VARCHAR(255),
			degraded BOOLEAN NOT NULL DEFAULT FALSE,
			status VARCHAR(16) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_owner ON payments(owner_id, created_at DESC)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_provider_ref
			ON payments(provider_ref) WHERE provider_ref IS NOT NULL`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

const paymentColumns = `id, owner_id, amount, method, COALESCE(provider_ref, ''), degraded, status, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.OwnerID, &p.Amount, &p.Method, &p.ProviderRef,
		&p.Degraded, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, owner_id, amount, method, provider_ref, degraded, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
	`, p.ID, p.OwnerID, p.Amount, p.Method, p.ProviderRef, p.Degraded, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *PaymentRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE owner_id = $1 ORDER BY created_at DESC`
	args := []any{ownerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

func (r *PaymentRepository) Reconcile(ctx context.Context, id string, status models.PaymentStatus, providerRef string, degraded bool) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, provider_ref = NULLIF($2, ''), degraded = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`, status, providerRef, degraded, id, models.StatusPending)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PaymentRepository) List(ctx context.Context, f models.PaymentFilter) ([]models.Payment, int, error) {
	where, args := paymentWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	query := fmt.Sprintf(`SELECT %s FROM payments%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	payments, err := collectPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *PaymentRepository) CountByOwner(ctx context.Context, ownerID string, status models.PaymentStatus) (int, error) {
	query := `SELECT COUNT(*) FROM payments WHERE owner_id = $1`
	args := []any{ownerID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}

	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *PaymentRepository) TotalPaidByOwner(ctx context.Context, ownerID string) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments WHERE owner_id = $1 AND status = $2
	`, ownerID, models.StatusSucceeded).Scan(&total)
	return total, err
}

func (r *PaymentRepository) StatsByMethod(ctx context.Context, ownerID string) ([]models.MethodStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT method, COUNT(*), COALESCE(SUM(amount), 0)
		FROM payments WHERE owner_id = $1
		GROUP BY method
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.MethodStat
	for rows.Next() {
		var s models.MethodStat
		if err := rows.Scan(&s.Method, &s.Count, &s.Total); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *PaymentRepository) StatsByStatus(ctx context.Context, ownerID string) ([]models.StatusStat, error) {
	query := `SELECT status, COUNT(*), COALESCE(SUM(amount), 0) FROM payments`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = $1`
		args = append(args, ownerID)
	}
	query += ` GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.StatusStat
	for rows.Next() {
		var s models.StatusStat
		if err := rows.Scan(&s.Status, &s.Count, &s.Total); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func collectPayments(rows *sql.Rows) ([]models.Payment, error) {
	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func paymentWhere(f models.PaymentFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.Method != "" {
		args = append(args, f.Method)
		clauses = append(clauses, fmt.Sprintf("method = $%d", len(args)))
	}

	return joinWhere(clauses), args
}
