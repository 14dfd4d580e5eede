package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxsuite/tax-filing-backend/internal/models"
	"github.com/taxsuite/tax-filing-backend/internal/repository"
)

// stubUserRepo backs the admin and dashboard handlers in tests.
type stubUserRepo struct {
	users map[string]models.User
}

func newStubUserRepo(users ...models.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (r *stubUserRepo) List(_ context.Context, f models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range r.users {
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id, role string) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r *stubUserRepo) Count(_ context.Context) (int, error) {
	return len(r.users), nil
}

type adminFixture struct {
	router      *gin.Engine
	payments    *repository.MemoryPaymentRepository
	submissions *repository.MemorySubmissionRepository
	users       *stubUserRepo
}

func newAdminFixture() *adminFixture {
	gin.SetMode(gin.TestMode)

	f := &adminFixture{
		payments:    repository.NewMemoryPaymentRepository(),
		submissions: repository.NewMemorySubmissionRepository(),
		users: newStubUserRepo(
			models.User{ID: "user-1", Email: "u1@example.com", Name: "User One", Role: models.RoleUser},
			models.User{ID: "admin-1", Email: "a1@example.com", Name: "Admin One", Role: models.RoleAdmin},
		),
	}

	h := NewAdminHandler(f.payments, f.submissions, f.users)
	d := NewDashboardHandler(f.payments, f.submissions, f.users)

	r := gin.New()
	r.Use(fakeAuth())
	r.GET("/api/admin/submissions", h.ListSubmissions)
	r.PUT("/api/admin/submissions/:id", h.UpdateSubmission)
	r.GET("/api/admin/payments", h.ListPayments)
	r.GET("/api/admin/users", h.ListUsers)
	r.PUT("/api/admin/users/:id/role", h.UpdateUserRole)
	r.GET("/api/admin/stats", h.Stats)
	r.GET("/api/dashboard", d.Overview)
	r.GET("/api/dashboard/stats", d.Stats)
	f.router = r
	return f
}

func (f *adminFixture) seedPayment(t *testing.T, id, owner string, amount float64, status models.PaymentStatus) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.payments.Create(context.Background(), &models.Payment{
		ID:        id,
		OwnerID:   owner,
		Amount:    amount,
		Method:    models.MethodCard,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	if status != models.StatusPending {
		rows, err := f.payments.Reconcile(context.Background(), id, status, "ref-"+id, false)
		require.NoError(t, err)
		require.EqualValues(t, 1, rows)
	}
}

func (f *adminFixture) seedSubmission(t *testing.T, id, owner string, status models.SubmissionStatus) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.submissions.Create(context.Background(), &models.Submission{
		ID:        id,
		OwnerID:   owner,
		FormType:  "1040",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func TestAdminListPayments_FilterByStatus(t *testing.T) {
	f := newAdminFixture()
	f.seedPayment(t, "p1", "user-1", 100, models.StatusSucceeded)
	f.seedPayment(t, "p2", "user-1", 50, models.StatusPending)
	f.seedPayment(t, "p3", "admin-1", 25, models.StatusFailed)

	w := doJSON(t, f.router, http.MethodGet, "/api/admin/payments?paymentStatus=Succeeded", "admin-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Payments    []models.Payment `json:"payments"`
		Total       int              `json:"total"`
		TotalPages  int              `json:"totalPages"`
		CurrentPage int              `json:"currentPage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Payments, 1)
	assert.Equal(t, "p1", resp.Payments[0].ID)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Equal(t, 1, resp.CurrentPage)
}

func TestAdminUpdateSubmission(t *testing.T) {
	f := newAdminFixture()
	f.seedSubmission(t, "s1", "user-1", models.SubmissionSubmitted)

	w := doJSON(t, f.router, http.MethodPut, "/api/admin/submissions/s1", "admin-1",
		gin.H{"status": "Rejected", "rejectionReason": "missing W-2"})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := f.submissions.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, stored.Status)
	assert.Equal(t, "missing W-2", stored.RejectionReason)

	w = doJSON(t, f.router, http.MethodPut, "/api/admin/submissions/s1", "admin-1",
		gin.H{"status": "Archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, f.router, http.MethodPut, "/api/admin/submissions/missing", "admin-1",
		gin.H{"status": "Accepted"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminUpdateUserRole(t *testing.T) {
	f := newAdminFixture()

	w := doJSON(t, f.router, http.MethodPut, "/api/admin/users/user-1/role", "admin-1",
		gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)

	u, err := f.users.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	w = doJSON(t, f.router, http.MethodPut, "/api/admin/users/user-1/role", "admin-1",
		gin.H{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, f.router, http.MethodPut, "/api/admin/users/missing/role", "admin-1",
		gin.H{"role": "user"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminStats(t *testing.T) {
	f := newAdminFixture()
	f.seedPayment(t, "p1", "user-1", 100, models.StatusSucceeded)
	f.seedPayment(t, "p2", "admin-1", 50, models.StatusPending)
	f.seedSubmission(t, "s1", "user-1", models.SubmissionAccepted)
	f.seedSubmission(t, "s2", "user-1", models.SubmissionSubmitted)

	w := doJSON(t, f.router, http.MethodGet, "/api/admin/stats", "admin-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Overview struct {
			TotalUsers       int `json:"totalUsers"`
			TotalSubmissions int `json:"totalSubmissions"`
			TotalPayments    int `json:"totalPayments"`
		} `json:"overview"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Overview.TotalUsers)
	assert.Equal(t, 2, resp.Overview.TotalSubmissions)
	assert.Equal(t, 2, resp.Overview.TotalPayments)
}

func TestDashboardOverview(t *testing.T) {
	f := newAdminFixture()
	f.seedPayment(t, "p1", "user-1", 100, models.StatusSucceeded)
	f.seedPayment(t, "p2", "user-1", 40, models.StatusSucceeded)
	f.seedPayment(t, "p3", "user-1", 60, models.StatusPending)
	f.seedPayment(t, "p4", "admin-1", 500, models.StatusSucceeded)
	f.seedSubmission(t, "s1", "user-1", models.SubmissionAccepted)
	f.seedSubmission(t, "s2", "user-1", models.SubmissionSubmitted)

	w := doJSON(t, f.router, http.MethodGet, "/api/dashboard", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		Submissions struct {
			Total    int    `json:"total"`
			Accepted int    `json:"accepted"`
			Progress string `json:"progress"`
		} `json:"submissions"`
		Payments struct {
			Total           int     `json:"total"`
			Successful      int     `json:"successful"`
			SuccessRate     string  `json:"successRate"`
			TotalAmountPaid float64 `json:"totalAmountPaid"`
		} `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "User One", resp.User.Name)
	assert.Equal(t, 2, resp.Submissions.Total)
	assert.Equal(t, 1, resp.Submissions.Accepted)
	assert.Equal(t, "50.00", resp.Submissions.Progress)
	assert.Equal(t, 3, resp.Payments.Total)
	assert.Equal(t, 2, resp.Payments.Successful)
	assert.Equal(t, "66.67", resp.Payments.SuccessRate)
	assert.Equal(t, 140.0, resp.Payments.TotalAmountPaid)
}

func TestDashboardStats(t *testing.T) {
	f := newAdminFixture()
	f.seedPayment(t, "p1", "user-1", 100, models.StatusSucceeded)
	f.seedSubmission(t, "s1", "user-1", models.SubmissionAccepted)
	f.seedSubmission(t, "s2", "user-1", models.SubmissionAccepted)

	w := doJSON(t, f.router, http.MethodGet, "/api/dashboard/stats", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SubmissionsByStatus []models.SubmissionStat `json:"submissionsByStatus"`
		PaymentsByMethod    []models.MethodStat     `json:"paymentsByMethod"`
		MonthlyActivity     []models.MonthlyStat    `json:"monthlyActivity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.SubmissionsByStatus, 1)
	assert.Equal(t, models.SubmissionAccepted, resp.SubmissionsByStatus[0].Status)
	assert.Equal(t, 2, resp.SubmissionsByStatus[0].Count)

	require.Len(t, resp.PaymentsByMethod, 1)
	assert.Equal(t, models.MethodCard, resp.PaymentsByMethod[0].Method)

	require.Len(t, resp.MonthlyActivity, 1)
	assert.Equal(t, 1, resp.MonthlyActivity[0].Count)
}
