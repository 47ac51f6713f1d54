package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"complians/internal/database"
	"complians/internal/models"
)

// ComputeAggregate derives a worker's aggregate from the full record set.
// Pure function: no I/O, no hidden state, deterministic for a given record
// set and weights. PENDING records are excluded from the worst-of orderings
// and the score but reported via PendingCount.
func ComputeAggregate(workerID, tenantID string, records []models.AgentComplianceRecord, weights models.RiskWeights) *models.WorkerAggregate {
	agg := &models.WorkerAggregate{
		WorkerID:         workerID,
		TenantID:         tenantID,
		OverallStatus:    models.StatusCompliant,
		OverallRiskLevel: models.RiskLow,
	}

	assessed := 0
	weightedFlags := 0
	for _, r := range records {
		agg.AssessedAgents = append(agg.AssessedAgents, r.AgentType)
		if r.LastAssessedAt.After(agg.LastAssessedAt) {
			agg.LastAssessedAt = r.LastAssessedAt
		}

		if r.Status == models.StatusPending {
			agg.PendingCount++
			continue
		}
		assessed++

		if r.Status.WorseThan(agg.OverallStatus) {
			agg.OverallStatus = r.Status
		}
		if r.RiskLevel.WorseThan(agg.OverallRiskLevel) {
			agg.OverallRiskLevel = r.RiskLevel
		}
		switch r.Status {
		case models.StatusSeriousBreach:
			agg.SeriousBreachCount++
		case models.StatusBreach:
			agg.BreachCount++
		}
		if r.RedFlag {
			agg.TotalRedFlags++
			agg.FlaggedAgents = append(agg.FlaggedAgents, r.AgentType)
			// A SERIOUS_BREACH record's own flag is already priced into the
			// serious-breach weight; scoring it again would double-count.
			if r.Status != models.StatusSeriousBreach {
				weightedFlags++
			}
		}
	}

	// A worker with records but nothing assessed yet is PENDING, not
	// COMPLIANT — compliance is only ever asserted from real verdicts.
	if assessed == 0 && agg.PendingCount > 0 {
		agg.OverallStatus = models.StatusPending
	}

	score := weights.SeriousBreach*agg.SeriousBreachCount +
		weights.Breach*agg.BreachCount +
		weights.RedFlag*weightedFlags
	if score > 100 {
		score = 100
	}
	agg.GlobalRiskScore = score

	sort.Strings(agg.AssessedAgents)
	sort.Strings(agg.FlaggedAgents)
	return agg
}

// AggregatorService recomputes worker aggregates from the compliance record
// set and maintains the worker_aggregates snapshot table the directory reads.
// Recompute is serialized per worker so a snapshot write can never clobber a
// newer recompute; cross-worker recomputes run freely in parallel.
type AggregatorService struct {
	db      *database.DB
	store   *ComplianceStore
	weights models.RiskWeights

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAggregatorService creates an aggregator service
func NewAggregatorService(db *database.DB, store *ComplianceStore, weights models.RiskWeights) *AggregatorService {
	return &AggregatorService{
		db:      db,
		store:   store,
		weights: weights,
		locks:   make(map[string]*sync.Mutex),
	}
}

// workerLock returns the mutex serializing recomputes for one worker
func (s *AggregatorService) workerLock(workerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[workerID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[workerID] = l
	return l
}

// Recompute rebuilds a worker's aggregate from the full current record set
// and persists it. It returns the new aggregate and the previous snapshot. A
// worker with no records yet returns a zero aggregate and no previous
// snapshot.
func (s *AggregatorService) Recompute(ctx context.Context, tenantID, workerID string) (*models.WorkerAggregate, *models.WorkerAggregate, error) {
	lock := s.workerLock(workerID)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.store.ListByWorker(ctx, workerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read records for aggregation: %w", err)
	}

	previous, err := s.GetSnapshot(ctx, workerID)
	if err != nil {
		return nil, nil, err
	}

	aggregate := ComputeAggregate(workerID, tenantID, records, s.weights)

	if err := s.writeSnapshot(ctx, aggregate); err != nil {
		return nil, nil, err
	}

	return aggregate, previous, nil
}

// GetSnapshot reads the stored aggregate for a worker; (nil, nil) when the
// worker has never been aggregated
func (s *AggregatorService) GetSnapshot(ctx context.Context, workerID string) (*models.WorkerAggregate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT worker_id, tenant_id, overall_status, overall_risk, total_red_flags,
		       global_risk_score, serious_breach_count, breach_count, pending_count,
		       assessed_agents, flagged_agents, last_assessed_at
		FROM worker_aggregates WHERE worker_id = ?`, workerID)

	var agg models.WorkerAggregate
	var assessed, flagged sql.NullString
	var lastAssessed string
	err := row.Scan(&agg.WorkerID, &agg.TenantID, &agg.OverallStatus, &agg.OverallRiskLevel,
		&agg.TotalRedFlags, &agg.GlobalRiskScore, &agg.SeriousBreachCount, &agg.BreachCount,
		&agg.PendingCount, &assessed, &flagged, &lastAssessed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregate snapshot: %w", err)
	}

	agg.AssessedAgents = splitAgents(assessed.String)
	agg.FlaggedAgents = splitAgents(flagged.String)
	if lastAssessed != "" {
		agg.LastAssessedAt, _ = time.Parse(time.RFC3339Nano, lastAssessed)
	}
	return &agg, nil
}

// writeSnapshot upserts the aggregate row keyed by worker_id
func (s *AggregatorService) writeSnapshot(ctx context.Context, agg *models.WorkerAggregate) error {
	lastAssessed := ""
	if !agg.LastAssessedAt.IsZero() {
		lastAssessed = agg.LastAssessedAt.UTC().Format(time.RFC3339Nano)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var stmt string
	if s.db.Dialect() == database.DialectMySQL {
		stmt = `
			INSERT INTO worker_aggregates
				(worker_id, tenant_id, overall_status, overall_risk, total_red_flags,
				 global_risk_score, serious_breach_count, breach_count, pending_count,
				 assessed_agents, flagged_agents, last_assessed_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				overall_status = VALUES(overall_status),
				overall_risk = VALUES(overall_risk),
				total_red_flags = VALUES(total_red_flags),
				global_risk_score = VALUES(global_risk_score),
				serious_breach_count = VALUES(serious_breach_count),
				breach_count = VALUES(breach_count),
				pending_count = VALUES(pending_count),
				assessed_agents = VALUES(assessed_agents),
				flagged_agents = VALUES(flagged_agents),
				last_assessed_at = VALUES(last_assessed_at),
				updated_at = VALUES(updated_at)`
	} else {
		stmt = `
			INSERT INTO worker_aggregates
				(worker_id, tenant_id, overall_status, overall_risk, total_red_flags,
				 global_risk_score, serious_breach_count, breach_count, pending_count,
				 assessed_agents, flagged_agents, last_assessed_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(worker_id) DO UPDATE SET
				overall_status = excluded.overall_status,
				overall_risk = excluded.overall_risk,
				total_red_flags = excluded.total_red_flags,
				global_risk_score = excluded.global_risk_score,
				serious_breach_count = excluded.serious_breach_count,
				breach_count = excluded.breach_count,
				pending_count = excluded.pending_count,
				assessed_agents = excluded.assessed_agents,
				flagged_agents = excluded.flagged_agents,
				last_assessed_at = excluded.last_assessed_at,
				updated_at = excluded.updated_at`
	}

	_, err := s.db.ExecContext(ctx, stmt,
		agg.WorkerID, agg.TenantID, string(agg.OverallStatus), string(agg.OverallRiskLevel),
		agg.TotalRedFlags, agg.GlobalRiskScore, agg.SeriousBreachCount, agg.BreachCount,
		agg.PendingCount, strings.Join(agg.AssessedAgents, ","), strings.Join(agg.FlaggedAgents, ","),
		lastAssessed, now)
	if err != nil {
		return fmt.Errorf("failed to write aggregate snapshot: %w", err)
	}
	return nil
}

// Verify recomputes a worker's aggregate and compares it with the stored
// snapshot. Drift should be unreachable given the pure-recompute design, so
// a mismatch is reported as an AggregationInconsistency (and the snapshot
// repaired by the caller via Recompute).
func (s *AggregatorService) Verify(ctx context.Context, tenantID, workerID string) error {
	lock := s.workerLock(workerID)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.store.ListByWorker(ctx, workerID)
	if err != nil {
		return fmt.Errorf("failed to read records for verification: %w", err)
	}

	stored, err := s.GetSnapshot(ctx, workerID)
	if err != nil {
		return err
	}

	fresh := ComputeAggregate(workerID, tenantID, records, s.weights)

	if stored == nil {
		if len(records) == 0 {
			return nil
		}
		return &models.AggregationInconsistency{WorkerID: workerID, Detail: "records exist but no snapshot stored"}
	}

	if stored.OverallStatus != fresh.OverallStatus ||
		stored.OverallRiskLevel != fresh.OverallRiskLevel ||
		stored.TotalRedFlags != fresh.TotalRedFlags ||
		stored.GlobalRiskScore != fresh.GlobalRiskScore {
		return &models.AggregationInconsistency{
			WorkerID: workerID,
			Detail: fmt.Sprintf("stored %s/%s flags=%d score=%d, recomputed %s/%s flags=%d score=%d",
				stored.OverallStatus, stored.OverallRiskLevel, stored.TotalRedFlags, stored.GlobalRiskScore,
				fresh.OverallStatus, fresh.OverallRiskLevel, fresh.TotalRedFlags, fresh.GlobalRiskScore),
		}
	}

	return nil
}

// Repair rewrites the snapshot from a fresh recompute
func (s *AggregatorService) Repair(ctx context.Context, tenantID, workerID string) error {
	_, _, err := s.Recompute(ctx, tenantID, workerID)
	return err
}

func splitAgents(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
