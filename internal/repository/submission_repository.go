package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taxsuite/tax-filing-backend/internal/models"
)

type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id VARCHAR(64) PRIMARY KEY,
			owner_id VARCHAR(64) NOT NULL,
			form_type VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL,
			rejection_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_owner ON submissions(owner_id, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

const submissionColumns = `id, owner_id, form_type, status, rejection_reason, created_at, updated_at`

func scanSubmission(row interface{ Scan(...any) error }) (*models.Submission, error) {
	var s models.Submission
	err := row.Scan(&s.ID, &s.OwnerID, &s.FormType, &s.Status, &s.RejectionReason,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO submissions (id, owner_id, form_type, status, rejection_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.OwnerID, s.FormType, s.Status, s.RejectionReason, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	return scanSubmission(row)
}

func (r *SubmissionRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE owner_id = $1 ORDER BY created_at DESC`
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

	return collectSubmissions(rows)
}

func (r *SubmissionRepository) List(ctx context.Context, f models.SubmissionFilter) ([]models.Submission, int, error) {
	where, args := submissionWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	query := fmt.Sprintf(`SELECT %s FROM submissions%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		submissionColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	submissions, err := collectSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, rejectionReason string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE submissions SET status = $1, rejection_reason = $2, updated_at = NOW() WHERE id = $3
	`, status, rejectionReason, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SubmissionRepository) CountByOwner(ctx context.Context, ownerID string, status models.SubmissionStatus) (int, error) {
	query := `SELECT COUNT(*) FROM submissions WHERE owner_id = $1`
	args := []any{ownerID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}

	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *SubmissionRepository) StatsByStatus(ctx context.Context, ownerID string) ([]models.SubmissionStat, error) {
	query := `SELECT status, COUNT(*) FROM submissions`
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

	var stats []models.SubmissionStat
	for rows.Next() {
		var s models.SubmissionStat
		if err := rows.Scan(&s.Status, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *SubmissionRepository) MonthlyActivity(ctx context.Context, ownerID string, limit int) ([]models.MonthlyStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT EXTRACT(YEAR FROM created_at)::int, EXTRACT(MONTH FROM created_at)::int, COUNT(*)
		FROM submissions WHERE owner_id = $1
		GROUP BY 1, 2
		ORDER BY 1 DESC, 2 DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.MonthlyStat
	for rows.Next() {
		var s models.MonthlyStat
		if err := rows.Scan(&s.Year, &s.Month, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *SubmissionRepository) Recent(ctx context.Context, limit int) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSubmissions(rows)
}

func collectSubmissions(rows *sql.Rows) ([]models.Submission, error) {
	var submissions []models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, *s)
	}
	return submissions, rows.Err()
}

func submissionWhere(f models.SubmissionFilter) (string, []any) {
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
	if f.FormType != "" {
		args = append(args, f.FormType)
		clauses = append(clauses, fmt.Sprintf("form_type = $%d", len(args)))
	}

	return joinWhere(clauses), args
}
