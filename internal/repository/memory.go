package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taxsuite/tax-filing-backend/internal/models"
)

// MemoryPaymentRepository is an in-process PaymentRepository used by tests
// and local runs without a database. Missing records surface as
// sql.ErrNoRows, matching the SQL-backed repository.
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]models.Payment
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[string]models.Payment)}
}

func (r *MemoryPaymentRepository) Create(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payments[p.ID] = *p
	return nil
}

func (r *MemoryPaymentRepository) GetByID(_ context.Context, id string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (r *MemoryPaymentRepository) ListByOwner(_ context.Context, ownerID string, limit int) ([]models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Payment
	for _, p := range r.payments {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryPaymentRepository) Reconcile(_ context.Context, id string, status models.PaymentStatus, providerRef string, degraded bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.Status != models.StatusPending {
		return 0, nil
	}

	p.Status = status
	if providerRef != "" {
		p.ProviderRef = providerRef
	}
	p.Degraded = degraded
	p.UpdatedAt = time.Now().UTC()
	r.payments[id] = p
	return 1, nil
}

func (r *MemoryPaymentRepository) List(_ context.Context, f models.PaymentFilter) ([]models.Payment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Payment
	for _, p := range r.payments {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.OwnerID != "" && p.OwnerID != f.OwnerID {
			continue
		}
		if f.Method != "" && p.Method != f.Method {
			continue
		}
		matched = append(matched, p)
	}
	sortNewestFirst(matched)

	total := len(matched)
	page, limit := normalizePage(f.Page, f.Limit)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemoryPaymentRepository) CountByOwner(_ context.Context, ownerID string, status models.PaymentStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, p := range r.payments {
		if p.OwnerID == ownerID && (status == "" || p.Status == status) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryPaymentRepository) TotalPaidByOwner(_ context.Context, ownerID string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0.0
	for _, p := range r.payments {
		if p.OwnerID == ownerID && p.Status == models.StatusSucceeded {
			total += p.Amount
		}
	}
	return total, nil
}

func (r *MemoryPaymentRepository) StatsByMethod(_ context.Context, ownerID string) ([]models.MethodStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byMethod := make(map[models.PaymentMethod]*models.MethodStat)
	for _, p := range r.payments {
		if p.OwnerID != ownerID {
			continue
		}
		s, ok := byMethod[p.Method]
		if !ok {
			s = &models.MethodStat{Method: p.Method}
			byMethod[p.Method] = s
		}
		s.Count++
		s.Total += p.Amount
	}

	var stats []models.MethodStat
	for _, s := range byMethod {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Method < stats[j].Method })
	return stats, nil
}

func (r *MemoryPaymentRepository) StatsByStatus(_ context.Context, ownerID string) ([]models.StatusStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byStatus := make(map[models.PaymentStatus]*models.StatusStat)
	for _, p := range r.payments {
		if ownerID != "" && p.OwnerID != ownerID {
			continue
		}
		s, ok := byStatus[p.Status]
		if !ok {
			s = &models.StatusStat{Status: p.Status}
			byStatus[p.Status] = s
		}
		s.Count++
		s.Total += p.Amount
	}

	var stats []models.StatusStat
	for _, s := range byStatus {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Status < stats[j].Status })
	return stats, nil
}

// Len reports the number of stored payments.
func (r *MemoryPaymentRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payments)
}

func sortNewestFirst(payments []models.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
}

// MemorySubmissionRepository is the in-process counterpart for submissions.
type MemorySubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]models.Submission
}

func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{submissions: make(map[string]models.Submission)}
}

func (r *MemorySubmissionRepository) Create(_ context.Context, s *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.submissions[s.ID] = *s
	return nil
}

func (r *MemorySubmissionRepository) GetByID(_ context.Context, id string) (*models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.submissions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r *MemorySubmissionRepository) ListByOwner(_ context.Context, ownerID string, limit int) ([]models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Submission
	for _, s := range r.submissions {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	sortSubmissionsNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemorySubmissionRepository) List(_ context.Context, f models.SubmissionFilter) ([]models.Submission, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Submission
	for _, s := range r.submissions {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.OwnerID != "" && s.OwnerID != f.OwnerID {
			continue
		}
		if f.FormType != "" && !strings.EqualFold(s.FormType, f.FormType) {
			continue
		}
		matched = append(matched, s)
	}
	sortSubmissionsNewestFirst(matched)

	total := len(matched)
	page, limit := normalizePage(f.Page, f.Limit)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemorySubmissionRepository) UpdateStatus(_ context.Context, id string, status models.SubmissionStatus, rejectionReason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.submissions[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Status = status
	s.RejectionReason = rejectionReason
	s.UpdatedAt = time.Now().UTC()
	r.submissions[id] = s
	return nil
}

func (r *MemorySubmissionRepository) CountByOwner(_ context.Context, ownerID string, status models.SubmissionStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, s := range r.submissions {
		if s.OwnerID == ownerID && (status == "" || s.Status == status) {
			count++
		}
	}
	return count, nil
}

func (r *MemorySubmissionRepository) StatsByStatus(_ context.Context, ownerID string) ([]models.SubmissionStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byStatus := make(map[models.SubmissionStatus]int)
	for _, s := range r.submissions {
		if ownerID != "" && s.OwnerID != ownerID {
			continue
		}
		byStatus[s.Status]++
	}

	var stats []models.SubmissionStat
	for status, count := range byStatus {
		stats = append(stats, models.SubmissionStat{Status: status, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Status < stats[j].Status })
	return stats, nil
}

func (r *MemorySubmissionRepository) MonthlyActivity(_ context.Context, ownerID string, limit int) ([]models.MonthlyStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type ym struct{ year, month int }
	byMonth := make(map[ym]int)
	for _, s := range r.submissions {
		if s.OwnerID != ownerID {
			continue
		}
		byMonth[ym{s.CreatedAt.Year(), int(s.CreatedAt.Month())}]++
	}

	var stats []models.MonthlyStat
	for key, count := range byMonth {
		stats = append(stats, models.MonthlyStat{Year: key.year, Month: key.month, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Year != stats[j].Year {
			return stats[i].Year > stats[j].Year
		}
		return stats[i].Month > stats[j].Month
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

func (r *MemorySubmissionRepository) Recent(_ context.Context, limit int) ([]models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Submission, 0, len(r.submissions))
	for _, s := range r.submissions {
		out = append(out, s)
	}
	sortSubmissionsNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortSubmissionsNewestFirst(submissions []models.Submission) {
	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].CreatedAt.After(submissions[j].CreatedAt)
	})
}
