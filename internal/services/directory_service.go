package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"complians/internal/database"
	"complians/internal/models"
)

// DirectoryFilter is the Compliance Directory query: optional filters plus
// pagination. Zero values mean "no filter".
type DirectoryFilter struct {
	ComplianceStatus models.ComplianceStatus
	RiskLevel        models.RiskLevel
	AgentType        string // membership in the worker's assessed set
	HasRedFlags      *bool
	CreatedFrom      time.Time
	CreatedTo        time.Time
	Page             int
	PageSize         int
}

// DirectoryEntry pairs a worker with its aggregate snapshot. Aggregate is
// nil for workers that have never been assessed.
type DirectoryEntry struct {
	Worker    models.Worker           `json:"worker"`
	Aggregate *models.WorkerAggregate `json:"aggregate,omitempty"`
}

// DirectoryPage is one page of the compliance directory with both counts the
// dashboard needs for "N of M workers match"
type DirectoryPage struct {
	Workers       []DirectoryEntry `json:"workers"`
	TotalCount    int              `json:"totalCount"`
	FilteredCount int              `json:"filteredCount"`
	Page          int              `json:"page"`
	PageSize      int              `json:"pageSize"`
	TotalPages    int              `json:"totalPages"`
	HasMore       bool             `json:"hasMore"`
}

// DirectoryService is the read-only paginated view over workers and their
// aggregates. It never mutates state; reads are snapshot-consistent at the
// statement level, which is all the dashboard needs under concurrent writes.
type DirectoryService struct {
	db *database.DB
}

// NewDirectoryService creates a directory service
func NewDirectoryService(db *database.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

// Query runs the filtered, paginated directory query for a tenant
func (s *DirectoryService) Query(ctx context.Context, tenantID string, filter *DirectoryFilter) (*DirectoryPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	if filter.ComplianceStatus != "" && !filter.ComplianceStatus.IsValid() {
		return nil, models.NewValidationError("complianceStatus", fmt.Sprintf("unknown status %q", filter.ComplianceStatus))
	}
	if filter.RiskLevel != "" && !filter.RiskLevel.IsValid() {
		return nil, models.NewValidationError("riskLevel", fmt.Sprintf("unknown risk level %q", filter.RiskLevel))
	}

	where, args := s.buildWhere(tenantID, filter)

	var totalCount int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workers WHERE tenant_id = ?`, tenantID).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count workers: %w", err)
	}

	var filteredCount int
	countQuery := `SELECT COUNT(*) FROM workers w LEFT JOIN worker_aggregates a ON a.worker_id = w.id ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&filteredCount); err != nil {
		return nil, fmt.Errorf("failed to count filtered workers: %w", err)
	}

	query := `
		SELECT w.id, w.tenant_id, w.name, w.job_title, w.soc_code, w.cos_reference,
		       w.assignment_date, w.created_at,
		       a.worker_id, a.overall_status, a.overall_risk, a.total_red_flags,
		       a.global_risk_score, a.serious_breach_count, a.breach_count,
		       a.pending_count, a.assessed_agents, a.flagged_agents, a.last_assessed_at
		FROM workers w
		LEFT JOIN worker_aggregates a ON a.worker_id = w.id ` + where + `
		ORDER BY w.created_at DESC, w.id
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query directory: %w", err)
	}
	defer rows.Close()

	entries := []DirectoryEntry{}
	for rows.Next() {
		entry, err := scanDirectoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read directory rows: %w", err)
	}

	totalPages := (filteredCount + pageSize - 1) / pageSize
	return &DirectoryPage{
		Workers:       entries,
		TotalCount:    totalCount,
		FilteredCount: filteredCount,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages,
		HasMore:       page*pageSize < filteredCount,
	}, nil
}

// buildWhere assembles the WHERE clause shared by the count and page queries
func (s *DirectoryService) buildWhere(tenantID string, filter *DirectoryFilter) (string, []interface{}) {
	where := ` WHERE w.tenant_id = ?`
	args := []interface{}{tenantID}

	if filter.ComplianceStatus != "" {
		if filter.ComplianceStatus == models.StatusPending {
			// Never-assessed workers count as pending alongside workers whose
			// records are all PENDING
			where += ` AND (a.overall_status = ? OR a.worker_id IS NULL)`
		} else {
			where += ` AND a.overall_status = ?`
		}
		args = append(args, string(filter.ComplianceStatus))
	}

	if filter.RiskLevel != "" {
		where += ` AND a.overall_risk = ?`
		args = append(args, string(filter.RiskLevel))
	}

	if filter.AgentType != "" {
		if s.db.Dialect() == database.DialectMySQL {
			where += ` AND FIND_IN_SET(?, a.assessed_agents) > 0`
			args = append(args, filter.AgentType)
		} else {
			where += ` AND (',' || IFNULL(a.assessed_agents, '') || ',') LIKE ('%,' || ? || ',%')`
			args = append(args, filter.AgentType)
		}
	}

	if filter.HasRedFlags != nil {
		if *filter.HasRedFlags {
			where += ` AND a.total_red_flags > 0`
		} else {
			where += ` AND (a.total_red_flags = 0 OR a.worker_id IS NULL)`
		}
	}

	if !filter.CreatedFrom.IsZero() {
		where += ` AND w.created_at >= ?`
		args = append(args, filter.CreatedFrom.UTC().Format(time.RFC3339Nano))
	}
	if !filter.CreatedTo.IsZero() {
		where += ` AND w.created_at < ?`
		args = append(args, filter.CreatedTo.UTC().Format(time.RFC3339Nano))
	}

	return where, args
}

func scanDirectoryEntry(rows *sql.Rows) (*DirectoryEntry, error) {
	var w models.Worker
	var assignmentDate, createdAt string

	var aggWorkerID, overallStatus, overallRisk sql.NullString
	var redFlags, riskScore, seriousCount, breachCount, pendingCount sql.NullInt64
	var assessedAgents, flaggedAgents, lastAssessedAt sql.NullString

	err := rows.Scan(&w.ID, &w.TenantID, &w.Name, &w.JobTitle, &w.SOCCode, &w.CoSReference,
		&assignmentDate, &createdAt,
		&aggWorkerID, &overallStatus, &overallRisk, &redFlags,
		&riskScore, &seriousCount, &breachCount,
		&pendingCount, &assessedAgents, &flaggedAgents, &lastAssessedAt)
	if err != nil {
		return nil, err
	}

	if assignmentDate != "" {
		w.AssignmentDate, _ = time.Parse("2006-01-02", assignmentDate)
	}
	if createdAt != "" {
		w.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	}

	entry := &DirectoryEntry{Worker: w}
	if aggWorkerID.Valid {
		agg := &models.WorkerAggregate{
			WorkerID:           aggWorkerID.String,
			TenantID:           w.TenantID,
			OverallStatus:      models.ComplianceStatus(overallStatus.String),
			OverallRiskLevel:   models.RiskLevel(overallRisk.String),
			TotalRedFlags:      int(redFlags.Int64),
			GlobalRiskScore:    int(riskScore.Int64),
			SeriousBreachCount: int(seriousCount.Int64),
			BreachCount:        int(breachCount.Int64),
			PendingCount:       int(pendingCount.Int64),
			AssessedAgents:     splitAgents(assessedAgents.String),
			FlaggedAgents:      splitAgents(flaggedAgents.String),
		}
		if lastAssessedAt.String != "" {
			agg.LastAssessedAt, _ = time.Parse(time.RFC3339Nano, lastAssessedAt.String)
		}
		entry.Aggregate = agg
	}

	return entry, nil
}

// TenantWorkerIDs returns every worker id for a tenant, for the verification
// sweep
func (s *DirectoryService) TenantWorkerIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM workers WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worker ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AllWorkerIDs returns (workerID, tenantID) pairs across all tenants, for
// the verification sweep
func (s *DirectoryService) AllWorkerIDs(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, tenant_id FROM workers`)
	if err != nil {
		return nil, fmt.Errorf("failed to list worker ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]string)
	for rows.Next() {
		var id, tenantID string
		if err := rows.Scan(&id, &tenantID); err != nil {
			return nil, err
		}
		ids[id] = tenantID
	}
	return ids, rows.Err()
}
