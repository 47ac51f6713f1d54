package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"complians/internal/database"
	"complians/internal/models"

	"github.com/google/uuid"
)

// WorkerService is the sponsored-worker registry. Identity fields are
// immutable after intake; the service exposes no update path by design.
type WorkerService struct {
	db *database.DB
}

// NewWorkerService creates a worker service
func NewWorkerService(db *database.DB) *WorkerService {
	return &WorkerService{db: db}
}

// Create registers a new sponsored worker for a tenant
func (s *WorkerService) Create(ctx context.Context, tenantID string, req *models.CreateWorkerRequest) (*models.Worker, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, models.NewValidationError("name", "required field missing")
	}

	var assignmentDate time.Time
	if req.AssignmentDate != "" {
		parsed, err := time.Parse("2006-01-02", req.AssignmentDate)
		if err != nil {
			return nil, models.NewValidationError("assignmentDate", "expected YYYY-MM-DD")
		}
		assignmentDate = parsed
	}

	worker := &models.Worker{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		Name:           strings.TrimSpace(req.Name),
		JobTitle:       strings.TrimSpace(req.JobTitle),
		SOCCode:        strings.TrimSpace(req.SOCCode),
		CoSReference:   strings.TrimSpace(req.CoSReference),
		AssignmentDate: assignmentDate,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (id, tenant_id, name, job_title, soc_code, cos_reference, assignment_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		worker.ID, worker.TenantID, worker.Name, worker.JobTitle, worker.SOCCode,
		worker.CoSReference, formatDate(worker.AssignmentDate), worker.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	return worker, nil
}

// Get returns a worker by id, scoped to the tenant. Workers of other tenants
// are reported as not found.
func (s *WorkerService) Get(ctx context.Context, tenantID, workerID string) (*models.Worker, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, job_title, soc_code, cos_reference, assignment_date, created_at
		FROM workers WHERE id = ? AND tenant_id = ?`, workerID, tenantID)

	worker, err := scanWorker(row)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("worker", workerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	return worker, nil
}

// CountByTenant returns the tenant's total worker count
func (s *WorkerService) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workers WHERE tenant_id = ?`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count workers: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorker(row rowScanner) (*models.Worker, error) {
	var w models.Worker
	var assignmentDate, createdAt string
	if err := row.Scan(&w.ID, &w.TenantID, &w.Name, &w.JobTitle, &w.SOCCode,
		&w.CoSReference, &assignmentDate, &createdAt); err != nil {
		return nil, err
	}
	if assignmentDate != "" {
		w.AssignmentDate, _ = time.Parse("2006-01-02", assignmentDate)
	}
	if createdAt != "" {
		w.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	}
	return &w, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
