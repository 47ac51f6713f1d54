package models

import "time"

// ComplianceStatus is the outcome of a single agent assessment
type ComplianceStatus string

const (
	StatusCompliant     ComplianceStatus = "COMPLIANT"
	StatusBreach        ComplianceStatus = "BREACH"
	StatusSeriousBreach ComplianceStatus = "SERIOUS_BREACH"
	StatusPending       ComplianceStatus = "PENDING"
)

// severityRank orders statuses worst-first for aggregation.
// PENDING is deliberately absent — it never participates in worst-of.
var severityRank = map[ComplianceStatus]int{
	StatusCompliant:     0,
	StatusBreach:        1,
	StatusSeriousBreach: 2,
}

// IsValid reports whether s is a known compliance status
func (s ComplianceStatus) IsValid() bool {
	switch s {
	case StatusCompliant, StatusBreach, StatusSeriousBreach, StatusPending:
		return true
	}
	return false
}

// WorseThan reports whether s is more severe than other.
// PENDING compares as less severe than everything.
func (s ComplianceStatus) WorseThan(other ComplianceStatus) bool {
	return severityRank[s] > severityRank[other]
}

// RiskLevel is the per-verdict and aggregate risk banding
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

var riskRank = map[RiskLevel]int{
	RiskLow:    0,
	RiskMedium: 1,
	RiskHigh:   2,
}

// IsValid reports whether r is a known risk level
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// WorseThan reports whether r is higher risk than other
func (r RiskLevel) WorseThan(other RiskLevel) bool {
	return riskRank[r] > riskRank[other]
}

// VerdictSource records how a verdict was produced
type VerdictSource string

const (
	SourceAI       VerdictSource = "AI"
	SourceTemplate VerdictSource = "TEMPLATE"
	SourceCache    VerdictSource = "CACHE"
)

// Verdict is the (status, risk, narrative) triple produced for one
// worker/agent pair, tagged with how it was derived
type Verdict struct {
	Status    ComplianceStatus `json:"status"`
	RiskLevel RiskLevel        `json:"riskLevel"`
	RedFlag   bool             `json:"redFlag"`
	Narrative string           `json:"narrative"`
	Source    VerdictSource    `json:"source"`
}

// AgentComplianceRecord is the latest verdict for one (worker, agentType) key.
// At most one record exists per key; each assessment overwrites it whole.
type AgentComplianceRecord struct {
	WorkerID       string           `bson:"workerId" json:"workerId"`
	TenantID       string           `bson:"tenantId" json:"tenantId"`
	AgentType      string           `bson:"agentType" json:"agentType"`
	Status         ComplianceStatus `bson:"status" json:"status"`
	RiskLevel      RiskLevel        `bson:"riskLevel" json:"riskLevel"`
	RedFlag        bool             `bson:"redFlag" json:"redFlag"`
	Narrative      string           `bson:"narrative" json:"narrative"`
	Source         VerdictSource    `bson:"source" json:"source"`
	LastAssessedAt time.Time        `bson:"lastAssessedAt" json:"lastAssessedAt"`
}

// RecordChange is emitted by the compliance store after an upsert so the
// aggregator and notifier can see the red-flag transition
type RecordChange struct {
	WorkerID        string
	AgentType       string
	PreviousRedFlag bool
	NewRedFlag      bool
}
