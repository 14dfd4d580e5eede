package interfaces

import (
	"context"

	"github.com/taxsuite/tax-filing-backend/internal/models"
)

// PaymentRepository defines the contract for payment data access. Reads are
// read-your-own-write consistent for a single record.
type PaymentRepository interface {
	// Create persists a new payment. The record must be durable before the
	// provider is contacted.
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	// ListByOwner returns the owner's payments newest first. limit <= 0
	// returns the full set.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Payment, error)
	// Reconcile moves a Pending payment to the given status and records the
	// provider reference. Returns rows affected; 0 means the payment was
	// missing or already terminal.
	Reconcile(ctx context.Context, id string, status models.PaymentStatus, providerRef string, degraded bool) (int64, error)
	// List applies admin filters with pagination and returns the page plus
	// the unpaginated total.
	List(ctx context.Context, f models.PaymentFilter) ([]models.Payment, int, error)
	// CountByOwner counts the owner's payments, optionally narrowed to a
	// status ("" counts all).
	CountByOwner(ctx context.Context, ownerID string, status models.PaymentStatus) (int, error)
	// TotalPaidByOwner sums the amounts of the owner's Succeeded payments.
	TotalPaidByOwner(ctx context.Context, ownerID string) (float64, error)
	// StatsByMethod groups the owner's payments by method.
	StatsByMethod(ctx context.Context, ownerID string) ([]models.MethodStat, error)
	// StatsByStatus groups payments by status; ownerID "" spans all users.
	StatsByStatus(ctx context.Context, ownerID string) ([]models.StatusStat, error)
}

// SubmissionRepository defines the contract for tax submission data access.
type SubmissionRepository interface {
	Create(ctx context.Context, s *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Submission, error)
	List(ctx context.Context, f models.SubmissionFilter) ([]models.Submission, int, error)
	UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, rejectionReason string) error
	CountByOwner(ctx context.Context, ownerID string, status models.SubmissionStatus) (int, error)
	StatsByStatus(ctx context.Context, ownerID string) ([]models.SubmissionStat, error)
	// MonthlyActivity groups the owner's submissions per calendar month,
	// most recent first, capped at limit months.
	MonthlyActivity(ctx context.Context, ownerID string, limit int) ([]models.MonthlyStat, error)
	// Recent returns the latest submissions across all users.
	Recent(ctx context.Context, limit int) ([]models.Submission, error)
}

// UserRepository exposes the user directory to the admin console.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, f models.UserFilter) ([]models.User, int, error)
	UpdateRole(ctx context.Context, id, role string) error
	Count(ctx context.Context) (int, error)
}
