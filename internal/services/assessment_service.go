package services

import (
	"context"
	"time"

	"complians/internal/logging"
	"complians/internal/models"
)

// AssessmentRequest is the payload for running one agent against one worker
type AssessmentRequest struct {
	WorkerID  string                 `json:"workerId"`
	AgentType string                 `json:"agentType"`
	Input     map[string]interface{} `json:"input"`
}

// AssessmentResult is everything one pipeline run produced: the stored
// record, the recomputed aggregate and the alert, if the run raised one
type AssessmentResult struct {
	Record    *models.AgentComplianceRecord `json:"record"`
	Aggregate *models.WorkerAggregate       `json:"aggregate"`
	Alert     *models.Alert                 `json:"alert,omitempty"`
}

// The pipeline's view of its collaborators. WorkerService, ComplianceStore,
// AggregatorService and AlertService satisfy these; tests substitute
// in-memory implementations.
type workerGetter interface {
	Get(ctx context.Context, tenantID, workerID string) (*models.Worker, error)
}

type recordUpserter interface {
	Upsert(ctx context.Context, tenantID, workerID, agentType string, verdict *models.Verdict) (*models.AgentComplianceRecord, *models.RecordChange, error)
}

type aggregateRecomputer interface {
	Recompute(ctx context.Context, tenantID, workerID string) (*models.WorkerAggregate, *models.WorkerAggregate, error)
}

type redFlagAlerter interface {
	RaiseRedFlag(ctx context.Context, tenantID, workerID, workerName, agentType string) (*models.Alert, error)
}

// AssessmentService runs the assessment-to-aggregate pipeline: narrative
// generation, record upsert, aggregate recompute, then edge-triggered
// alerting. Each stage only runs if the previous one committed, so a failed
// generation never leaves a stale aggregate behind.
type AssessmentService struct {
	workers    workerGetter
	narratives *NarrativeService
	store      recordUpserter
	aggregator aggregateRecomputer
	alerts     redFlagAlerter
	connMgr    *ConnectionManager
}

// NewAssessmentService creates the pipeline orchestrator
func NewAssessmentService(workers workerGetter, narratives *NarrativeService, store recordUpserter, aggregator aggregateRecomputer, alerts redFlagAlerter, connMgr *ConnectionManager) *AssessmentService {
	return &AssessmentService{
		workers:    workers,
		narratives: narratives,
		store:      store,
		aggregator: aggregator,
		alerts:     alerts,
		connMgr:    connMgr,
	}
}

// Assess runs the full pipeline for one (worker, agentType) pair
func (s *AssessmentService) Assess(ctx context.Context, tenantID string, req *AssessmentRequest) (*AssessmentResult, error) {
	start := time.Now()

	if req.WorkerID == "" {
		return nil, models.NewValidationError("workerId", "workerId is required")
	}
	if req.AgentType == "" {
		return nil, models.NewValidationError("agentType", "agentType is required")
	}

	worker, err := s.workers.Get(ctx, tenantID, req.WorkerID)
	if err != nil {
		return nil, err
	}

	logger := logging.WithAssessment(worker.ID, req.AgentType, tenantID)

	verdict, err := s.narratives.Generate(ctx, req.AgentType, worker.Facts(), req.Input)
	if err != nil {
		return nil, err
	}

	record, change, err := s.store.Upsert(ctx, tenantID, worker.ID, req.AgentType, verdict)
	if err != nil {
		return nil, err
	}

	newAgg, _, err := s.aggregator.Recompute(ctx, tenantID, worker.ID)
	if err != nil {
		return nil, err
	}

	result := &AssessmentResult{Record: record, Aggregate: newAgg}

	// Alert only on this record's false -> true edge. The upsert reports the
	// transition atomically, so a re-assessment that keeps an existing red
	// flag raised never alerts again, and concurrent assessments of other
	// agents can't mask a genuinely new flag.
	if change.NewRedFlag && !change.PreviousRedFlag {
		alert, err := s.alerts.RaiseRedFlag(ctx, tenantID, worker.ID, worker.Name, req.AgentType)
		if err != nil {
			// The assessment itself committed; a failed alert write is
			// reported but does not fail the run
			logger.Error("Failed to raise red flag alert", "error", err)
		} else {
			result.Alert = alert
			s.connMgr.BroadcastAlert(tenantID, alert)
		}
	}

	GetMetrics().ObserveAssessment(req.AgentType, string(verdict.Source), time.Since(start))
	logger.Info("Assessment completed",
		"status", verdict.Status,
		"source", verdict.Source,
		"red_flag", verdict.RedFlag,
		"risk_score", newAgg.GlobalRiskScore,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
