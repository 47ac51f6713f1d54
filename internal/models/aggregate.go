package models

import "time"

// WorkerAggregate is the derived cross-agent compliance view for one worker.
// It is always recomputed from the full record set, never patched in place.
type WorkerAggregate struct {
	WorkerID           string           `json:"workerId"`
	TenantID           string           `json:"tenantId"`
	OverallStatus      ComplianceStatus `json:"overallComplianceStatus"`
	OverallRiskLevel   RiskLevel        `json:"overallRiskLevel"`
	TotalRedFlags      int              `json:"totalRedFlags"`
	GlobalRiskScore    int              `json:"globalRiskScore"`
	SeriousBreachCount int              `json:"seriousBreachCount"`
	BreachCount        int              `json:"breachCount"`
	PendingCount       int              `json:"pendingCount"`
	AssessedAgents     []string         `json:"assessedAgents"`
	FlaggedAgents      []string         `json:"flaggedAgents"`
	LastAssessedAt     time.Time        `json:"lastAssessedAt"`
}

// RiskWeights are the policy weights behind the 0-100 global risk score.
// Any non-negative weights keep the score monotonic in each input.
type RiskWeights struct {
	SeriousBreach int
	Breach        int
	RedFlag       int
}

// DefaultRiskWeights match the documented scoring policy
// (40 per serious breach, 15 per breach, 10 per red flag, clamped to 100)
var DefaultRiskWeights = RiskWeights{SeriousBreach: 40, Breach: 15, RedFlag: 10}
