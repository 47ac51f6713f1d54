package models

import "time"

// ActionStatus is the remediation action lifecycle state
type ActionStatus string

const (
	ActionOpen       ActionStatus = "Open"
	ActionInProgress ActionStatus = "In Progress"
	ActionCompleted  ActionStatus = "Completed"
)

var actionRank = map[ActionStatus]int{
	ActionOpen:       0,
	ActionInProgress: 1,
	ActionCompleted:  2,
}

// IsValid reports whether s is a known action status
func (s ActionStatus) IsValid() bool {
	_, ok := actionRank[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// The machine is forward-only: Open -> In Progress -> Completed, with the
// direct Open -> Completed edge allowed. Reverse moves are rejected.
func (s ActionStatus) CanTransitionTo(next ActionStatus) bool {
	cur, ok1 := actionRank[s]
	nxt, ok2 := actionRank[next]
	return ok1 && ok2 && nxt > cur
}

// RemediationAction is an operator-created follow-up on a breach,
// referencing the (workerId, agentType) record it remedies
type RemediationAction struct {
	ID            string       `bson:"_id" json:"id"`
	TenantID      string       `bson:"tenantId" json:"tenantId"`
	CreatedBy     string       `bson:"createdBy" json:"createdBy"`
	WorkerID      string       `bson:"workerId" json:"workerId"`
	AgentType     string       `bson:"agentType" json:"agentType"`
	ActionSummary string       `bson:"actionSummary" json:"actionSummary"`
	DetailedNotes string       `bson:"detailedNotes" json:"detailedNotes"`
	Status        ActionStatus `bson:"status" json:"status"`
	CreatedAt     time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// CreateActionRequest is the payload for POST /api/remediation-actions
type CreateActionRequest struct {
	WorkerID      string `json:"workerId"`
	AgentType     string `json:"agentType"`
	ActionSummary string `json:"actionSummary"`
	DetailedNotes string `json:"detailedNotes"`
}

// UpdateActionRequest supports partial updates — nil fields are left untouched
type UpdateActionRequest struct {
	Status        *ActionStatus `json:"status,omitempty"`
	ActionSummary *string       `json:"actionSummary,omitempty"`
	DetailedNotes *string       `json:"detailedNotes,omitempty"`
}
