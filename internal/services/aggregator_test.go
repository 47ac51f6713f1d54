package services

import (
	"testing"
	"time"

	"complians/internal/models"
)

func record(agentType string, status models.ComplianceStatus, risk models.RiskLevel, redFlag bool) models.AgentComplianceRecord {
	return models.AgentComplianceRecord{
		WorkerID:       "w1",
		TenantID:       "t1",
		AgentType:      agentType,
		Status:         status,
		RiskLevel:      risk,
		RedFlag:        redFlag,
		LastAssessedAt: time.Now(),
	}
}

func TestComputeAggregateEmpty(t *testing.T) {
	agg := ComputeAggregate("w1", "t1", nil, models.DefaultRiskWeights)

	if agg.OverallStatus != models.StatusCompliant {
		t.Errorf("expected COMPLIANT for empty record set, got %s", agg.OverallStatus)
	}
	if agg.GlobalRiskScore != 0 {
		t.Errorf("expected score 0, got %d", agg.GlobalRiskScore)
	}
	if agg.TotalRedFlags != 0 {
		t.Errorf("expected 0 red flags, got %d", agg.TotalRedFlags)
	}
}

func TestComputeAggregateAllCompliant(t *testing.T) {
	records := []models.AgentComplianceRecord{
		record("right_to_work", models.StatusCompliant, models.RiskLow, false),
		record("salary_threshold", models.StatusCompliant, models.RiskLow, false),
		record("visa_expiry", models.StatusCompliant, models.RiskLow, false),
	}

	agg := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)

	if agg.OverallStatus != models.StatusCompliant {
		t.Errorf("expected COMPLIANT, got %s", agg.OverallStatus)
	}
	if agg.OverallRiskLevel != models.RiskLow {
		t.Errorf("expected LOW, got %s", agg.OverallRiskLevel)
	}
	if agg.GlobalRiskScore != 0 {
		t.Errorf("expected score 0 with no non-compliant records, got %d", agg.GlobalRiskScore)
	}
}

func TestComputeAggregateSalaryScenario(t *testing.T) {
	records := []models.AgentComplianceRecord{
		record("salary_threshold", models.StatusSeriousBreach, models.RiskHigh, true),
		record("right_to_work", models.StatusCompliant, models.RiskLow, false),
	}

	agg := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)

	if agg.OverallStatus != models.StatusSeriousBreach {
		t.Errorf("expected SERIOUS_BREACH, got %s", agg.OverallStatus)
	}
	if agg.OverallRiskLevel != models.RiskHigh {
		t.Errorf("expected HIGH, got %s", agg.OverallRiskLevel)
	}
	if agg.TotalRedFlags != 1 {
		t.Errorf("expected 1 red flag, got %d", agg.TotalRedFlags)
	}
	if agg.GlobalRiskScore != 40 {
		t.Errorf("expected score 40, got %d", agg.GlobalRiskScore)
	}
	if len(agg.FlaggedAgents) != 1 || agg.FlaggedAgents[0] != "salary_threshold" {
		t.Errorf("expected flagged agents [salary_threshold], got %v", agg.FlaggedAgents)
	}
}

func TestComputeAggregateWorstOf(t *testing.T) {
	records := []models.AgentComplianceRecord{
		record("a", models.StatusCompliant, models.RiskLow, false),
		record("b", models.StatusBreach, models.RiskMedium, false),
		record("c", models.StatusCompliant, models.RiskLow, false),
	}

	agg := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)

	if agg.OverallStatus != models.StatusBreach {
		t.Errorf("expected BREACH, got %s", agg.OverallStatus)
	}
	if agg.OverallRiskLevel != models.RiskMedium {
		t.Errorf("expected MEDIUM, got %s", agg.OverallRiskLevel)
	}
	if agg.GlobalRiskScore != 15 {
		t.Errorf("expected score 15, got %d", agg.GlobalRiskScore)
	}
}

func TestComputeAggregatePendingOnly(t *testing.T) {
	records := []models.AgentComplianceRecord{
		record("a", models.StatusPending, models.RiskLow, false),
		record("b", models.StatusPending, models.RiskLow, false),
	}

	agg := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)

	if agg.OverallStatus != models.StatusPending {
		t.Errorf("expected PENDING when nothing has a real verdict, got %s", agg.OverallStatus)
	}
	if agg.PendingCount != 2 {
		t.Errorf("expected 2 pending, got %d", agg.PendingCount)
	}
	if agg.GlobalRiskScore != 0 {
		t.Errorf("expected score 0, got %d", agg.GlobalRiskScore)
	}
}

func TestComputeAggregatePendingExcludedFromOrdering(t *testing.T) {
	records := []models.AgentComplianceRecord{
		record("a", models.StatusCompliant, models.RiskLow, false),
		record("b", models.StatusPending, models.RiskLow, false),
	}

	agg := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)

	if agg.OverallStatus != models.StatusCompliant {
		t.Errorf("expected COMPLIANT with one real verdict, got %s", agg.OverallStatus)
	}
	if agg.PendingCount != 1 {
		t.Errorf("expected 1 pending, got %d", agg.PendingCount)
	}
}

func TestComputeAggregateMonotonicity(t *testing.T) {
	records := []models.AgentComplianceRecord{
		record("a", models.StatusBreach, models.RiskMedium, false),
	}
	before := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)

	records = append(records, record("b", models.StatusSeriousBreach, models.RiskHigh, true))
	after := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)

	if after.GlobalRiskScore < before.GlobalRiskScore {
		t.Errorf("adding a SERIOUS_BREACH lowered the score: %d -> %d", before.GlobalRiskScore, after.GlobalRiskScore)
	}
	if before.OverallRiskLevel.WorseThan(after.OverallRiskLevel) {
		t.Errorf("adding a SERIOUS_BREACH lowered the risk level: %s -> %s", before.OverallRiskLevel, after.OverallRiskLevel)
	}
}

func TestComputeAggregateScoreClamped(t *testing.T) {
	var records []models.AgentComplianceRecord
	for _, agent := range []string{"a", "b", "c", "d", "e"} {
		records = append(records, record(agent, models.StatusSeriousBreach, models.RiskHigh, true))
	}

	agg := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)

	if agg.GlobalRiskScore != 100 {
		t.Errorf("expected score clamped to 100, got %d", agg.GlobalRiskScore)
	}
	if agg.SeriousBreachCount != 5 {
		t.Errorf("expected 5 serious breaches, got %d", agg.SeriousBreachCount)
	}
}

func TestComputeAggregateDeterministic(t *testing.T) {
	records := []models.AgentComplianceRecord{
		record("visa_expiry", models.StatusSeriousBreach, models.RiskHigh, true),
		record("right_to_work", models.StatusCompliant, models.RiskLow, false),
		record("working_hours", models.StatusBreach, models.RiskMedium, true),
	}

	first := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)
	second := ComputeAggregate("w1", "t1", records, models.DefaultRiskWeights)

	if first.GlobalRiskScore != second.GlobalRiskScore ||
		first.OverallStatus != second.OverallStatus ||
		first.TotalRedFlags != second.TotalRedFlags {
		t.Error("identical record sets produced different aggregates")
	}
	if len(first.AssessedAgents) != 3 || first.AssessedAgents[0] != "right_to_work" {
		t.Errorf("expected sorted assessed agents, got %v", first.AssessedAgents)
	}
}
