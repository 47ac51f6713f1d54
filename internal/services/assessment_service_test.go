package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"complians/internal/models"
)

func testWorker() *models.Worker {
	return &models.Worker{
		ID:             "w-1",
		TenantID:       "tenant-a",
		Name:           "Amina Khalid",
		JobTitle:       "Care Assistant",
		SOCCode:        "6145",
		CoSReference:   "C2G4K91823Q",
		AssignmentDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

type stubWorkers struct {
	worker *models.Worker
}

func (s *stubWorkers) Get(_ context.Context, tenantID, workerID string) (*models.Worker, error) {
	if s.worker == nil || s.worker.ID != workerID || s.worker.TenantID != tenantID {
		return nil, models.NewNotFoundError("worker", workerID)
	}
	return s.worker, nil
}

// memStore mirrors the compliance store's upsert contract in memory: one
// record per agent type, the red-flag transition reported from the replaced
// document.
type memStore struct {
	mu      sync.Mutex
	records map[string]models.AgentComplianceRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]models.AgentComplianceRecord)}
}

func (m *memStore) Upsert(_ context.Context, tenantID, workerID, agentType string, verdict *models.Verdict) (*models.AgentComplianceRecord, *models.RecordChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := models.AgentComplianceRecord{
		WorkerID:       workerID,
		TenantID:       tenantID,
		AgentType:      agentType,
		Status:         verdict.Status,
		RiskLevel:      verdict.RiskLevel,
		RedFlag:        verdict.RedFlag,
		Narrative:      verdict.Narrative,
		Source:         verdict.Source,
		LastAssessedAt: time.Now().UTC(),
	}

	change := &models.RecordChange{
		WorkerID:   workerID,
		AgentType:  agentType,
		NewRedFlag: record.RedFlag,
	}
	if previous, ok := m.records[agentType]; ok {
		change.PreviousRedFlag = previous.RedFlag
	}

	m.records[agentType] = record
	return &record, change, nil
}

func (m *memStore) list() []models.AgentComplianceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]models.AgentComplianceRecord, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, r)
	}
	return records
}

type memAggregator struct {
	store *memStore

	mu   sync.Mutex
	prev map[string]*models.WorkerAggregate
}

func newMemAggregator(store *memStore) *memAggregator {
	return &memAggregator{store: store, prev: make(map[string]*models.WorkerAggregate)}
}

func (m *memAggregator) Recompute(_ context.Context, tenantID, workerID string) (*models.WorkerAggregate, *models.WorkerAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	aggregate := ComputeAggregate(workerID, tenantID, m.store.list(), models.DefaultRiskWeights)
	previous := m.prev[workerID]
	m.prev[workerID] = aggregate
	return aggregate, previous, nil
}

// flatAggregator reports a red-flag count that never rises, the shape a
// concurrent recompute of the same worker can produce.
type flatAggregator struct {
	flags int
}

func (f *flatAggregator) Recompute(_ context.Context, tenantID, workerID string) (*models.WorkerAggregate, *models.WorkerAggregate, error) {
	agg := &models.WorkerAggregate{WorkerID: workerID, TenantID: tenantID, TotalRedFlags: f.flags}
	prev := &models.WorkerAggregate{WorkerID: workerID, TenantID: tenantID, TotalRedFlags: f.flags}
	return agg, prev, nil
}

type captureAlerts struct {
	mu     sync.Mutex
	raised []string
}

func (c *captureAlerts) RaiseRedFlag(_ context.Context, tenantID, workerID, workerName, agentType string) (*models.Alert, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raised = append(c.raised, agentType)
	return &models.Alert{
		ID:           "alert-" + agentType,
		TenantID:     tenantID,
		WorkerID:     workerID,
		AgentType:    agentType,
		AlertMessage: "Red flag raised for " + workerName,
		Status:       models.AlertUnread,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (c *captureAlerts) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.raised)
}

func newTestPipeline(t *testing.T) (*AssessmentService, *memStore, *captureAlerts) {
	t.Helper()
	store := newMemStore()
	alerts := &captureAlerts{}
	svc := NewAssessmentService(
		&stubWorkers{worker: testWorker()},
		newTemplateOnlyService(),
		store,
		newMemAggregator(store),
		alerts,
		NewConnectionManager(),
	)
	return svc, store, alerts
}

func TestAssessValidation(t *testing.T) {
	svc, _, _ := newTestPipeline(t)
	ctx := context.Background()

	var validation *models.ValidationError
	if _, err := svc.Assess(ctx, "tenant-a", &AssessmentRequest{AgentType: "salary_threshold"}); !errors.As(err, &validation) {
		t.Errorf("missing workerId: expected ValidationError, got %v", err)
	}
	if _, err := svc.Assess(ctx, "tenant-a", &AssessmentRequest{WorkerID: "w-1"}); !errors.As(err, &validation) {
		t.Errorf("missing agentType: expected ValidationError, got %v", err)
	}

	var notFound *models.NotFoundError
	_, err := svc.Assess(ctx, "tenant-b", &AssessmentRequest{WorkerID: "w-1", AgentType: "salary_threshold"})
	if !errors.As(err, &notFound) {
		t.Errorf("wrong tenant: expected NotFoundError, got %v", err)
	}
}

func TestAssessRepeatedSeriousBreachAlertsOnce(t *testing.T) {
	svc, _, alerts := newTestPipeline(t)
	ctx := context.Background()
	req := &AssessmentRequest{
		WorkerID:  "w-1",
		AgentType: "salary_threshold",
		Input:     map[string]interface{}{"missing_payslips": true},
	}

	first, err := svc.Assess(ctx, "tenant-a", req)
	if err != nil {
		t.Fatalf("first Assess failed: %v", err)
	}
	if first.Record.Status != models.StatusSeriousBreach {
		t.Fatalf("expected SERIOUS_BREACH, got %s", first.Record.Status)
	}
	if first.Alert == nil {
		t.Fatal("first red flag must raise an alert")
	}

	second, err := svc.Assess(ctx, "tenant-a", req)
	if err != nil {
		t.Fatalf("second Assess failed: %v", err)
	}
	if second.Record.Status != models.StatusSeriousBreach {
		t.Errorf("re-assessment changed the verdict to %s", second.Record.Status)
	}
	if second.Alert != nil {
		t.Error("re-assessment with an unchanged red flag raised a second alert")
	}
	if alerts.count() != 1 {
		t.Errorf("expected exactly one alert, got %d", alerts.count())
	}
}

func TestAssessFlagClearedThenRaisedAlertsAgain(t *testing.T) {
	svc, _, alerts := newTestPipeline(t)
	ctx := context.Background()

	adverse := &AssessmentRequest{
		WorkerID:  "w-1",
		AgentType: "salary_threshold",
		Input:     map[string]interface{}{"missing_payslips": true},
	}
	clean := &AssessmentRequest{
		WorkerID:  "w-1",
		AgentType: "salary_threshold",
		Input:     map[string]interface{}{"annual_salary": "26000"},
	}

	for _, req := range []*AssessmentRequest{adverse, clean, adverse} {
		if _, err := svc.Assess(ctx, "tenant-a", req); err != nil {
			t.Fatalf("Assess failed: %v", err)
		}
	}

	// Flag raised, cleared, raised again: two distinct false -> true edges
	if alerts.count() != 2 {
		t.Errorf("expected two alerts for two edges, got %d", alerts.count())
	}
}

func TestAssessOtherAgentsDoNotMaskNewFlag(t *testing.T) {
	svc, _, alerts := newTestPipeline(t)
	ctx := context.Background()

	if _, err := svc.Assess(ctx, "tenant-a", &AssessmentRequest{
		WorkerID:  "w-1",
		AgentType: "right_to_work",
		Input:     map[string]interface{}{"check_date": "2025-04-01"},
	}); err != nil {
		t.Fatalf("clean Assess failed: %v", err)
	}
	if alerts.count() != 0 {
		t.Fatalf("clean assessment raised %d alerts", alerts.count())
	}

	result, err := svc.Assess(ctx, "tenant-a", &AssessmentRequest{
		WorkerID:  "w-1",
		AgentType: "salary_threshold",
		Input:     map[string]interface{}{"missing_payslips": true},
	})
	if err != nil {
		t.Fatalf("adverse Assess failed: %v", err)
	}
	if result.Alert == nil || alerts.count() != 1 {
		t.Errorf("new red flag did not raise an alert (alerts=%d)", alerts.count())
	}
}

func TestAssessAlertSurvivesFlatAggregateCount(t *testing.T) {
	// A concurrent assessment of another agent can recompute the aggregate
	// between this run's upsert and recompute, so the count may not rise
	// across this run's snapshots. The record's own false -> true edge must
	// still raise the alert.
	store := newMemStore()
	alerts := &captureAlerts{}
	svc := NewAssessmentService(
		&stubWorkers{worker: testWorker()},
		newTemplateOnlyService(),
		store,
		&flatAggregator{flags: 1},
		alerts,
		NewConnectionManager(),
	)

	result, err := svc.Assess(context.Background(), "tenant-a", &AssessmentRequest{
		WorkerID:  "w-1",
		AgentType: "salary_threshold",
		Input:     map[string]interface{}{"missing_payslips": true},
	})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if result.Alert == nil {
		t.Error("flat aggregate count suppressed the alert for a new red flag")
	}
	if alerts.count() != 1 {
		t.Errorf("expected one alert, got %d", alerts.count())
	}
}
